package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/realflow/voice-intake/internal/auth"
	"github.com/realflow/voice-intake/internal/config"
	"github.com/realflow/voice-intake/internal/dedup"
	"github.com/realflow/voice-intake/internal/handler"
	middlewarepkg "github.com/realflow/voice-intake/internal/middleware"
	"github.com/realflow/voice-intake/internal/repository"
	"github.com/realflow/voice-intake/internal/router"
	"github.com/realflow/voice-intake/internal/service"
	"github.com/realflow/voice-intake/internal/sheets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sheetLogger := sheets.NewLogger(nil)
	conn, err := sheets.Connect(ctx, sheets.Config{
		CredentialsFile: cfg.Sheets.CredentialsFile,
		SpreadsheetID:   cfg.Sheets.SpreadsheetID,
		SheetName:       cfg.Sheets.SheetName,
	})
	switch {
	case errors.Is(err, sheets.ErrCredentialsMissing):
		log.Printf("sheets: credentials not found at %s, spreadsheet logging disabled", cfg.Sheets.CredentialsFile)
	case err != nil:
		log.Printf("sheets: connect failed, spreadsheet logging disabled err=%v", err)
	default:
		sheetLogger = sheets.NewLogger(conn)
		log.Printf("sheets: logging calls to %s", sheetLogger.SpreadsheetURL())
	}

	callLog := repository.NewFileConversationsRepository(cfg.ConversationsFile)
	normalizer := service.NewNormalizer(cfg.PhoneRegion)

	var opts []service.ConversationServiceOption
	if cfg.Dedup.RedisAddr != "" {
		rdb, err := dedup.OpenRedis(ctx, dedup.RedisConfig{Addr: cfg.Dedup.RedisAddr, TTL: cfg.Dedup.TTL})
		if err != nil {
			log.Printf("dedup: redis unavailable, duplicate guard disabled err=%v", err)
		} else {
			defer rdb.Close()
			opts = append(opts, service.WithDeduplicator(dedup.NewRedisGuard(rdb, cfg.Dedup.TTL)))
		}
	}

	conversationService := service.NewConversationService(callLog, sheetLogger, normalizer, opts...)

	verifier := auth.NewSignatureVerifier(cfg.WebhookSecret, cfg.SignaturePolicy)
	if verifier.Policy() == auth.SignatureOff {
		log.Printf("webhook: signature verification disabled")
	}
	jwtManager := auth.NewJWTManager(cfg.AdminJWTSecret, cfg.AdminTokenTTL)
	if !jwtManager.Enabled() {
		log.Printf("admin: ADMIN_JWT_SECRET not set, read endpoints are unauthenticated")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())

	router.Register(e, cfg, jwtManager, router.Handlers{
		Webhook:       handler.NewWebhookHandler(verifier, conversationService),
		Conversations: handler.NewConversationsHandler(callLog, sheetLogger),
	})

	log.Printf("brokerage=%s webhook_url=%s call_log=%s", cfg.BrokerageName, cfg.WebhookURL(), callLog.Path())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
