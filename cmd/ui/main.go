package main

import (
	"context"
	"log"

	"surveytab/internal"
	"surveytab/internal/config"
	"surveytab/internal/container"
	"surveytab/ui"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	internal.DefaultLogger = internal.NewDefaultLogger()

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	appContainer, err := container.New(ctx, appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(ctx)

	app := ui.NewApp(ui.Services{
		Tables:    appContainer.Tables,
		Variables: appContainer.Variables,
		Snapshots: appContainer.Cache,
	})
	log.Fatal(app.Start(ui.Config{Port: appConfig.Server.Port}))
}
