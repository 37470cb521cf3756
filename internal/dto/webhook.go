package dto

import "github.com/realflow/voice-intake/internal/entity"

// Webhook event types emitted by the voice platform that the service cares about.
const (
	EventEndOfCallReport = "end-of-call-report"
)

// VapiWebhook is the envelope posted by the voice platform. The message body
// is kept loosely typed so unknown event shapes never fail decoding.
type VapiWebhook struct {
	Message map[string]any `json:"message"`
}

// WebhookResponse acknowledges a webhook delivery.
type WebhookResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	CallID  *string `json:"call_id"`
}

// ConversationsResponse lists the records stored in the call log.
type ConversationsResponse struct {
	Conversations []entity.ConversationData `json:"conversations"`
	Count         int                       `json:"count"`
}

// SheetsURLResponse reports where call rows are being written.
type SheetsURLResponse struct {
	URL    *string `json:"url"`
	Status string  `json:"status"`
}
