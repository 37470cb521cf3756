package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/realflow/voice-intake/internal/auth"
	"github.com/realflow/voice-intake/internal/config"
	"github.com/realflow/voice-intake/internal/handler"
	middlewarepkg "github.com/realflow/voice-intake/internal/middleware"
)

// WebhookPath is where the voice platform posts call events.
const WebhookPath = "/api/vapi/webhook"

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Webhook       *handler.WebhookHandler
	Conversations *handler.ConversationsHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "Realflow voice intake is running", map[string]any{
			"brokerage": cfg.BrokerageName,
		})
	})

	health := func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	}
	e.GET("/health", health)
	e.GET("/healthz", health)

	e.POST(WebhookPath, handlers.Webhook.Receive, middlewarepkg.RateLimiter(cfg.RateLimitWebhook, WebhookPath))

	if handlers.Conversations != nil {
		api := e.Group("/api", middlewarepkg.OperatorJWT(jwtManager), middlewarepkg.RequireRole(jwtManager, auth.RoleAdmin))
		api.GET("/conversations", handlers.Conversations.List)
		api.GET("/sheets-url", handlers.Conversations.SheetsURL)
	}
}
