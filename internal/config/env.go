package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// LoadFromEnv будує конфігурацію зі змінних середовища. Підхоплює .env
// файл якщо він є. Відсутність будь-якої обов'язкової KEYCLOAK_* змінної —
// фатальна помилка старту з переліком усіх відсутніх змінних.
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using process environment")
	}

	var missing []string
	requireEnv := func(key string) string {
		value := os.Getenv(key)
		if value == "" {
			missing = append(missing, key)
		}
		return value
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("HOST", "0.0.0.0"),
			Port:         getEnvInt("PORT", 8080),
			Environment:  getEnv("MODE", "production"),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			LogFormat:    getEnv("LOG_FORMAT", "text"),
			ReadTimeout:  getEnv("READ_TIMEOUT", "30s"),
			WriteTimeout: getEnv("WRITE_TIMEOUT", "30s"),
			IdleTimeout:  getEnv("IDLE_TIMEOUT", "120s"),
		},

		Database: DatabaseConfig{
			Enabled:               getEnv("DB_ENABLED", "false") == "true",
			Host:                  getEnv("DB_HOST", "localhost"),
			Port:                  getEnvInt("DB_PORT", 5432),
			Name:                  getEnv("DB_NAME", "keycloak_login"),
			User:                  getEnv("DB_USER", "keycloak_login"),
			Password:              getEnv("DB_PASSWORD", ""),
			SSLMode:               getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConnections:    10,
			MaxIdleConnections:    5,
			ConnectionMaxLifetime: getEnv("DB_CONN_MAX_LIFETIME", "5m"),
		},

		Keycloak: KeycloakConfig{
			Host:                  requireEnv("KEYCLOAK_HOST"),
			Realm:                 requireEnv("KEYCLOAK_REALM"),
			ClientID:              requireEnv("KEYCLOAK_CLIENT_ID"),
			ClientSecret:          requireEnv("KEYCLOAK_CLIENT_SECRET"),
			CallbackURL:           requireEnv("KEYCLOAK_CALLBACK_URL"),
			PostLoginRedirectURL:  getEnv("KEYCLOAK_POST_LOGIN_URL", "/protected"),
			PostLogoutRedirectURL: getEnv("KEYCLOAK_POST_LOGOUT_URL", ""),
			HTTPTimeout:           getEnv("KEYCLOAK_HTTP_TIMEOUT", "15s"),
		},

		Security: SecurityConfig{
			CORS: CORSConfig{
				AllowedOrigins:   []string{getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000")},
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
				AllowCredentials: true,
				MaxAge:           3600,
			},
			Session: SessionConfig{
				CookieName: getEnv("SESSION_COOKIE_NAME", "keycloak_login.session"),
				MaxAge:     getEnvInt("SESSION_MAX_AGE", 3600),
			},
		},
	}

	if len(missing) > 0 {
		return nil, &ConfigError{Missing: missing}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
