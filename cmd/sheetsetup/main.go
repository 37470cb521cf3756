package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/realflow/voice-intake/internal/config"
	"github.com/realflow/voice-intake/internal/sheets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	conn, err := sheets.Connect(ctx, sheets.Config{
		CredentialsFile: cfg.Sheets.CredentialsFile,
		SpreadsheetID:   cfg.Sheets.SpreadsheetID,
		SheetName:       cfg.Sheets.SheetName,
	})
	if errors.Is(err, sheets.ErrCredentialsMissing) {
		log.Fatalf("google sheets not configured: add the service account key at %s, set GOOGLE_SPREADSHEET_ID and share the sheet with the service account", cfg.Sheets.CredentialsFile)
	}
	if err != nil {
		log.Fatalf("failed to prepare spreadsheet: %v", err)
	}

	if cfg.Sheets.SpreadsheetID == "" {
		fmt.Printf("created spreadsheet, set GOOGLE_SPREADSHEET_ID=%s\n", conn.SpreadsheetID())
	}
	fmt.Printf("worksheet %q ready: %s\n", cfg.Sheets.SheetName, conn.URL())
}
