package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// ConfigData містить дані для генерації конфігурації з шаблону
type ConfigData struct {
	Server   ServerConfigData   `json:"server"`
	Database DatabaseConfigData `json:"database"`
	Keycloak KeycloakConfigData `json:"keycloak"`
	Security SecurityConfigData `json:"security"`
}

// ServerConfigData містить дані для налаштування сервера
type ServerConfigData struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Environment  string `json:"environment"`
	LogLevel     string `json:"log_level"`
	LogFormat    string `json:"log_format"`
	ReadTimeout  string `json:"read_timeout"`
	WriteTimeout string `json:"write_timeout"`
	IdleTimeout  string `json:"idle_timeout"`
}

// DatabaseConfigData містить дані для налаштування бази даних
type DatabaseConfigData struct {
	Enabled               bool   `json:"enabled"`
	Host                  string `json:"host"`
	Port                  int    `json:"port"`
	Name                  string `json:"name"`
	User                  string `json:"user"`
	Password              string `json:"password"`
	SSLMode               string `json:"ssl_mode"`
	MaxOpenConnections    int    `json:"max_open_connections"`
	MaxIdleConnections    int    `json:"max_idle_connections"`
	ConnectionMaxLifetime string `json:"connection_max_lifetime"`
}

// KeycloakConfigData містить дані для налаштування Keycloak провайдера
type KeycloakConfigData struct {
	Host                  string `json:"host"`
	Realm                 string `json:"realm"`
	ClientID              string `json:"client_id"`
	ClientSecret          string `json:"client_secret"`
	CallbackURL           string `json:"callback_url"`
	PostLoginRedirectURL  string `json:"post_login_redirect_url"`
	PostLogoutRedirectURL string `json:"post_logout_redirect_url"`
	HTTPTimeout           string `json:"http_timeout"`
}

// SecurityConfigData містить дані для налаштування безпеки
type SecurityConfigData struct {
	CORS    CORSConfigData    `json:"cors"`
	Session SessionConfigData `json:"session"`
}

// CORSConfigData містить дані для налаштування CORS
type CORSConfigData struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

// SessionConfigData містить дані для налаштування сесій
type SessionConfigData struct {
	CookieName string `json:"cookie_name"`
	MaxAge     int    `json:"max_age"`
}

// GenerateConfig генерує HCL конфігурацію з шаблону і структурованих даних
func GenerateConfig(templatePath, outputPath string, data ConfigData) error {
	templateContent, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	tmpl, err := template.New("config").Funcs(template.FuncMap{
		"default": func(defaultValue, value interface{}) interface{} {
			if value == nil || value == "" || value == 0 {
				return defaultValue
			}
			return value
		},
	}).Parse(string(templateContent))
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
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

// LoadConfigData завантажує дані конфігурації з JSON файлу
func LoadConfigData(dataPath string) (*ConfigData, error) {
	content, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data file: %w", err)
	}

	var data ConfigData
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}

	return &data, nil
}

// GetDefaultConfigData повертає дефолтні дані конфігурації
func GetDefaultConfigData() ConfigData {
	return ConfigData{
		Server: ServerConfigData{
			Host:         "localhost",
			Port:         8080,
			Environment:  "development",
			LogLevel:     "info",
			LogFormat:    "json",
			ReadTimeout:  "30s",
			WriteTimeout: "30s",
			IdleTimeout:  "120s",
		},
		Database: DatabaseConfigData{
			Enabled:               false,
			Host:                  "localhost",
			Port:                  5432,
			Name:                  "keycloak_login",
			User:                  "keycloak_login",
			Password:              "",
			SSLMode:               "disable",
			MaxOpenConnections:    25,
			MaxIdleConnections:    5,
			ConnectionMaxLifetime: "5m",
		},
		Keycloak: KeycloakConfigData{
			Host:                  "",
			Realm:                 "",
			ClientID:              "",
			ClientSecret:          "",
			CallbackURL:           "http://localhost:8080/auth/callback",
			PostLoginRedirectURL:  "/protected",
			PostLogoutRedirectURL: "",
			HTTPTimeout:           "15s",
		},
		Security: SecurityConfigData{
			CORS: CORSConfigData{
				AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:8080"},
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
				AllowCredentials: true,
				MaxAge:           3600,
			},
			Session: SessionConfigData{
				CookieName: "keycloak_login.session",
				MaxAge:     3600,
			},
		},
	}
}
