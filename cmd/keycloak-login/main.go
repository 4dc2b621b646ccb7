package main

import (
	"log"
	"os"

	"keycloak-login/internal/build"
	"keycloak-login/internal/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "Keycloak Login Server"
	app.Version = build.Version
	app.Usage = "Keycloak relying-party adapter with configuration management"

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
