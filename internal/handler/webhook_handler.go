package handler

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/realflow/voice-intake/internal/auth"
	"github.com/realflow/voice-intake/internal/dto"
	middlewarepkg "github.com/realflow/voice-intake/internal/middleware"
	"github.com/realflow/voice-intake/internal/service"
)

// SignatureHeader carries the hex HMAC of the raw webhook body.
const SignatureHeader = "X-Vapi-Signature"

const maxWebhookBody = 5 << 20

// EventProcessor handles a verified webhook body.
type EventProcessor interface {
	HandleEvent(ctx context.Context, body []byte) (service.EventOutcome, error)
}

// WebhookHandler receives call events from the voice platform.
type WebhookHandler struct {
	verifier  *auth.SignatureVerifier
	processor EventProcessor
}

// NewWebhookHandler wires the handler.
func NewWebhookHandler(verifier *auth.SignatureVerifier, processor EventProcessor) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, processor: processor}
}

// Receive handles POST /api/vapi/webhook. Sink failures never change the response.
func (h *WebhookHandler) Receive(c echo.Context) error {
	rid := middlewarepkg.RequestIDFromContext(c)

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		return webhookResponse(c, http.StatusBadRequest, "error", "could not read request body", nil)
	}
	if len(body) > maxWebhookBody {
		return webhookResponse(c, http.StatusRequestEntityTooLarge, "error", "payload too large", nil)
	}

	if err := h.verifier.Verify(body, c.Request().Header.Get(SignatureHeader)); err != nil {
		log.Printf("request_id=%s webhook: rejected err=%v", rid, err)
		return webhookResponse(c, http.StatusUnauthorized, "error", err.Error(), nil)
	}

	// processing runs to completion even if the caller hangs up
	ctx := context.WithoutCancel(c.Request().Context())
	outcome, err := h.processor.HandleEvent(ctx, body)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPayload) {
			log.Printf("request_id=%s webhook: invalid payload err=%v", rid, err)
			return webhookResponse(c, http.StatusBadRequest, "error", err.Error(), nil)
		}
		log.Printf("request_id=%s webhook: processing failed err=%v", rid, err)
		return webhookResponse(c, http.StatusInternalServerError, "error", "failed to process webhook", nil)
	}

	switch {
	case outcome.Duplicate:
		return webhookResponse(c, http.StatusOK, "success", "duplicate delivery ignored", &outcome.Record.CallID)
	case outcome.Processed:
		return webhookResponse(c, http.StatusOK, "success", "Call data processed and stored", &outcome.Record.CallID)
	default:
		return webhookResponse(c, http.StatusOK, "success", "Webhook received", nil)
	}
}

func webhookResponse(c echo.Context, status int, state, message string, callID *string) error {
	return c.JSON(status, dto.WebhookResponse{
		Status:  state,
		Message: message,
		CallID:  callID,
	})
}
