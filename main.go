package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"time"

	"surveytab/internal"
	"surveytab/internal/config"
	"surveytab/internal/container"
	"surveytab/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	internal.DefaultLogger = internal.NewDefaultLogger()

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	ctx := context.Background()
	appContainer, err := container.New(ctx, appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(ctx)

	warmCtx, cancel := context.WithTimeout(ctx, appConfig.Source.FetchTimeout+5*time.Second)
	appContainer.Warm(warmCtx)
	cancel()

	if appConfig.Profiling.Enabled {
		go func() {
			addr := "localhost:" + appConfig.Profiling.Port
			log.Printf("pprof listening on http://%s/debug/pprof/", addr)
			if err := http.ListenAndServe(addr, nil); err != nil {
				log.Printf("pprof server stopped: %v", err)
			}
		}()
	}

	server := ui.NewServer(ui.Services{
		Tables:    appContainer.Tables,
		Variables: appContainer.Variables,
		Snapshots: appContainer.Cache,
	})
	if err := server.Start(":" + appConfig.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
