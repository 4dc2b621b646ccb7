// Сервер для Kubernetes - читає конфігурацію зі змінних середовища
package main

import (
	"log"

	"keycloak-login/internal/config"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		// Фатальна помилка старту: відсутні обов'язкові KEYCLOAK_* змінні
		log.Fatalf("Configuration error:\n%v", err)
	}

	if err := config.StartServer(cfg); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
