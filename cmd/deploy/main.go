package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/realflow/voice-intake/internal/config"
	"github.com/realflow/voice-intake/internal/deploy"
	"github.com/realflow/voice-intake/internal/vapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Vapi.APIKey == "" {
		log.Fatalf("VAPI_API_KEY is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*vapi.DefaultTimeout+5*time.Second)
	defer cancel()

	client := vapi.NewClient(nil, cfg.Vapi.BaseURL, cfg.Vapi.APIKey)
	deployer := deploy.NewDeployer(client, os.Stdout)

	_, err = deployer.Run(ctx, deploy.Settings{
		BrokerageName:   cfg.BrokerageName,
		WebhookURL:      cfg.WebhookURL(),
		WebhookSecret:   cfg.WebhookSecret,
		AssistantID:     cfg.Vapi.AssistantID,
		TemplatePath:    cfg.Vapi.TemplatePath,
		DebugConfigPath: cfg.Vapi.DebugConfigPath,
		EnvFile:         cfg.Vapi.EnvFile,
	})
	if err != nil {
		var apiErr *vapi.APIError
		if errors.As(err, &apiErr) {
			log.Printf("vapi responded %d: %s", apiErr.StatusCode, apiErr.Body)
		}
		log.Printf("deploy failed: %v", err)
		os.Exit(1)
	}
}
