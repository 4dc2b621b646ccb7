package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"text/template"
)

// generateConfigWithVars генерує конфігурацію з шаблону з використанням змінних
func generateConfigWithVars(templatePath, outputPath string, vars map[string]interface{}) error {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	// Обробляємо {{var}} теги в шаблоні
	processedContent := processVarTags(string(content), vars)

	tmpl, err := template.New("config").Funcs(template.FuncMap{
		"duration": func(d string) string {
			return d
		},
	}).Parse(processedContent)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, nil); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// processVarTags обробляє {{var "name" default_value required}} теги
func processVarTags(content string, vars map[string]interface{}) string {
	varRegex := regexp.MustCompile(`\{\{var\s+"([^"]+)"\s+([^\s}]+)\s+(true|false)\s*\}\}`)

	return varRegex.ReplaceAllStringFunc(content, func(match string) string {
		matches := varRegex.FindStringSubmatch(match)
		if len(matches) != 4 {
			return match
		}

		varName := matches[1]
		defaultValue := matches[2]
		required := matches[3] == "true"

		if value, exists := vars[varName]; exists {
			return formatValue(value)
		}

		// Обов'язкова змінна без значення лишає явний маркер у конфігу
		if required && (defaultValue == "" || defaultValue == `""`) {
			return `"REQUIRED_VALUE_NOT_SET"`
		}

		return formatValue(parseDefaultValue(defaultValue))
	})
}

// formatValue форматує значення для HCL
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		// Список через кому форматуємо як масив
		if strings.Contains(v, ",") {
			parts := strings.Split(v, ",")
			var quoted []string
			for _, part := range parts {
				quoted = append(quoted, fmt.Sprintf(`"%s"`, strings.TrimSpace(part)))
			}
			return strings.Join(quoted, ",\n      ")
		}
		return fmt.Sprintf(`"%s"`, v)
	case int, int32, int64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%f", v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf(`"%v"`, v)
	}
}

// parseDefaultValue парсить дефолтне значення з template
func parseDefaultValue(defaultValue string) interface{} {
	if strings.HasPrefix(defaultValue, `"`) && strings.HasSuffix(defaultValue, `"`) {
		return strings.Trim(defaultValue, `"`)
	}

	if intVal, err := strconv.Atoi(defaultValue); err == nil {
		return intVal
	}

	if floatVal, err := strconv.ParseFloat(defaultValue, 64); err == nil {
		return floatVal
	}

	if boolVal, err := strconv.ParseBool(defaultValue); err == nil {
		return boolVal
	}

	return defaultValue
}
