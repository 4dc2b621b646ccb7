package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"keycloak-login/internal/build"
	"keycloak-login/internal/config"
)

// configureAction генерує конфігурацію з шаблону
func configureAction(c *cli.Context) error {
	templatePath := c.String("template")
	outputPath := c.String("output")
	dataPath := c.String("data")
	version := c.String("version")
	mode := c.String("mode")

	fmt.Printf("Configuring Keycloak login server\n")
	fmt.Printf("Template: %s\n", templatePath)
	fmt.Printf("Output: %s\n", outputPath)
	fmt.Printf("Mode: %s\n", mode)

	templatePathAbs, err := absPath(templatePath)
	if err != nil {
		return err
	}
	outputPathAbs, err := absPath(outputPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(templatePathAbs); os.IsNotExist(err) {
		return fmt.Errorf("template file does not exist: %s", templatePathAbs)
	}

	// Структуровані дані з JSON файлу мають пріоритет над змінними оточення
	if dataPath != "" {
		data, err := config.LoadConfigData(dataPath)
		if err != nil {
			return fmt.Errorf("failed to load config data: %w", err)
		}

		if err := config.GenerateConfig(templatePathAbs, outputPathAbs, *data); err != nil {
			return fmt.Errorf("failed to generate config: %w", err)
		}

		fmt.Printf("Configuration generated successfully: %s\n", outputPathAbs)
		return nil
	}

	vars := getConfigVars(mode, version)

	if err := config.GenerateConfigFromTemplate(templatePathAbs, outputPathAbs, vars); err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}

	fmt.Printf("Configuration generated successfully: %s\n", outputPathAbs)
	return nil
}

// serverAction запускає сервер
func serverAction(c *cli.Context) error {
	configPath := c.String("config")

	fmt.Printf("Starting Keycloak login server\n")
	fmt.Printf("Config: %s\n", configPath)
	fmt.Printf("Version: %s\n", build.Version)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s. Run 'configure' command first", configPath)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	return config.StartServer(cfg)
}

// versionAction показує інформацію про версію
func versionAction(c *cli.Context) error {
	info := build.Info()

	fmt.Printf("Keycloak Login Server\n")
	fmt.Printf("Version: %s\n", info["version"])
	fmt.Printf("Build Number: %s\n", info["number"])
	fmt.Printf("Git Commit: %s\n", info["git_commit"])
	fmt.Printf("Build Time: %s\n", info["build_time"])

	return nil
}

// absPath нормалізує відносний шлях відносно робочої директорії
func absPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}

	workDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	return filepath.Join(workDir, path), nil
}

// getConfigVars повертає мапу змінних для конфігурації
func getConfigVars(mode, version string) map[string]interface{} {
	vars := map[string]interface{}{
		"build_version": version,
		"environment":   mode,
	}

	setVarFromEnv(vars, "server_host", "HOST", "localhost")
	setVarFromEnv(vars, "server_port", "PORT", 8080)
	setVarFromEnv(vars, "log_level", "LOG_LEVEL", getLogLevelForMode(mode))
	setVarFromEnv(vars, "log_format", "LOG_FORMAT", "text")

	// База даних (провізія користувачів)
	setVarFromEnv(vars, "db_enabled", "DB_ENABLED", false)
	setVarFromEnv(vars, "db_host", "DB_HOST", "localhost")
	setVarFromEnv(vars, "db_port", "DB_PORT", 5432)
	setVarFromEnv(vars, "db_name", "DB_NAME", "keycloak_login")
	setVarFromEnv(vars, "db_user", "DB_USER", "keycloak_login")
	setVarFromEnv(vars, "db_password", "DB_PASSWORD", "")

	// Keycloak
	setVarFromEnv(vars, "keycloak_host", "KEYCLOAK_HOST", "")
	setVarFromEnv(vars, "keycloak_realm", "KEYCLOAK_REALM", "")
	setVarFromEnv(vars, "keycloak_client_id", "KEYCLOAK_CLIENT_ID", "")
	setVarFromEnv(vars, "keycloak_client_secret", "KEYCLOAK_CLIENT_SECRET", "")
	setVarFromEnv(vars, "keycloak_callback_url", "KEYCLOAK_CALLBACK_URL", "http://localhost:8080/auth/callback")
	setVarFromEnv(vars, "keycloak_post_login_url", "KEYCLOAK_POST_LOGIN_URL", "/protected")
	setVarFromEnv(vars, "keycloak_post_logout_url", "KEYCLOAK_POST_LOGOUT_URL", "")
	setVarFromEnv(vars, "keycloak_http_timeout", "KEYCLOAK_HTTP_TIMEOUT", "15s")

	// Сесії
	setVarFromEnv(vars, "session_cookie_name", "SESSION_COOKIE_NAME", "keycloak_login.session")
	setVarFromEnv(vars, "session_max_age", "SESSION_MAX_AGE", 3600)

	return vars
}

// setVarFromEnv встановлює змінну з оточення або дефолтне значення
func setVarFromEnv(vars map[string]interface{}, key, envKey string, defaultValue interface{}) {
	if envValue := os.Getenv(envKey); envValue != "" {
		vars[key] = envValue
	} else {
		vars[key] = defaultValue
	}
}

// getLogLevelForMode повертає рівень логування для режиму
func getLogLevelForMode(mode string) string {
	switch mode {
	case "production":
		return "warn"
	case "staging":
		return "info"
	default:
		return "debug"
	}
}
