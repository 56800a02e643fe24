package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"ecotrack/config"
	"ecotrack/internal/app"
	"ecotrack/utils"
)

func main() {
	defaultPath := os.Getenv("ECOTRACK_CONFIG")
	if defaultPath == "" {
		defaultPath = "./config/config.yml"
	}
	configPath := flag.String("config", defaultPath, "path to the YAML config file")
	flag.Parse()

	// Load the configuration from the specified YAML file
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		utils.LogFatal("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		utils.LogFatal("Failed to start: %v", err)
	}
	if err := application.Run(ctx); err != nil {
		utils.LogFatal("Server stopped: %v", err)
	}
}
