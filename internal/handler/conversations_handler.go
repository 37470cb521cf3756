package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/realflow/voice-intake/internal/dto"
	"github.com/realflow/voice-intake/internal/entity"
)

// ConversationLister reads back the call log.
type ConversationLister interface {
	List(ctx context.Context) ([]entity.ConversationData, error)
}

// SpreadsheetLocator exposes where call rows are written.
type SpreadsheetLocator interface {
	SpreadsheetURL() string
}

// ConversationsHandler exposes read-only views over the stored calls.
type ConversationsHandler struct {
	conversations ConversationLister
	sheets        SpreadsheetLocator
}

// NewConversationsHandler wires the handler.
func NewConversationsHandler(conversations ConversationLister, sheets SpreadsheetLocator) *ConversationsHandler {
	return &ConversationsHandler{conversations: conversations, sheets: sheets}
}

// List handles GET /api/conversations.
func (h *ConversationsHandler) List(c echo.Context) error {
	records, err := h.conversations.List(c.Request().Context())
	if err != nil {
		log.Printf("conversations: list failed err=%v", err)
		return Error(c, http.StatusInternalServerError, "failed to read conversations")
	}
	return c.JSON(http.StatusOK, dto.ConversationsResponse{
		Conversations: records,
		Count:         len(records),
	})
}

// SheetsURL handles GET /api/sheets-url.
func (h *ConversationsHandler) SheetsURL(c echo.Context) error {
	if h.sheets != nil {
		if url := h.sheets.SpreadsheetURL(); url != "" {
			return c.JSON(http.StatusOK, dto.SheetsURLResponse{URL: &url, Status: "connected"})
		}
	}
	return c.JSON(http.StatusOK, dto.SheetsURLResponse{Status: "not_configured"})
}
