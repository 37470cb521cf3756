package entity

import "time"

// CallerInfo holds the caller details the assistant collected during the call.
type CallerInfo struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Role    *string `json:"role"`
	Company *string `json:"company"`
}

// PropertyDetails describes the property or requirement discussed on the call.
// Values are free text as extracted by the assistant; nothing is enumerated.
type PropertyDetails struct {
	AssetType         *string `json:"asset_type"`
	Location          *string `json:"location"`
	DealSize          *string `json:"deal_size"`
	SquareFootage     *string `json:"square_footage"`
	Urgency           *string `json:"urgency"`
	AdditionalDetails *string `json:"additional_details"`
}

// ConversationData is the record persisted for every completed call.
// Timestamp is the capture time, not the time the call took place.
type ConversationData struct {
	CallID              string          `json:"call_id"`
	Timestamp           time.Time       `json:"timestamp"`
	CallerInfo          CallerInfo      `json:"caller_info"`
	PropertyDetails     PropertyDetails `json:"property_details"`
	InquiryType         *string         `json:"inquiry_type"`
	ConversationSummary *string         `json:"conversation_summary"`
	Duration            *int            `json:"duration"`
	RecordingURL        *string         `json:"recording_url"`
}
