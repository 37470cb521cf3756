package sheets

import (
	"context"
	"log"

	"github.com/realflow/voice-intake/internal/entity"
)

const (
	// Placeholder fills every column whose value was not captured.
	Placeholder = "N/A"

	callStatusCompleted = "Completed"
	timestampLayout     = "2006-01-02 15:04:05"
)

// Logger writes call records to the worksheet. A Logger built without a
// connection is disabled and reports failure for every call.
type Logger struct {
	conn *Connection
}

// NewLogger wraps an established connection; conn may be nil.
func NewLogger(conn *Connection) *Logger {
	return &Logger{conn: conn}
}

// Enabled reports whether rows can be written.
func (l *Logger) Enabled() bool {
	return l != nil && l.conn != nil
}

// SpreadsheetURL returns the spreadsheet address, or "" when disabled.
func (l *Logger) SpreadsheetURL() string {
	if !l.Enabled() {
		return ""
	}
	return l.conn.URL()
}

// LogCall appends one row for the record and reports whether it was written.
// Failures are logged, never returned.
func (l *Logger) LogCall(ctx context.Context, record *entity.ConversationData) bool {
	if record == nil {
		return false
	}
	if !l.Enabled() {
		log.Printf("sheets: logger not configured, skipping call_id=%s", record.CallID)
		return false
	}

	if err := l.conn.appendRow(ctx, Row(record)); err != nil {
		log.Printf("sheets: append failed call_id=%s err=%v", record.CallID, err)
		return false
	}
	log.Printf("sheets: logged call_id=%s", record.CallID)
	return true
}

// Row maps a record onto the Headers column order.
func Row(record *entity.ConversationData) []interface{} {
	caller := record.CallerInfo
	property := record.PropertyDetails

	var duration interface{} = Placeholder
	if record.Duration != nil {
		duration = *record.Duration
	}
	timestamp := Placeholder
	if !record.Timestamp.IsZero() {
		timestamp = record.Timestamp.Format(timestampLayout)
	}

	return []interface{}{
		timestamp,
		orPlaceholder(&record.CallID),
		orPlaceholder(caller.Name),
		orPlaceholder(caller.Phone),
		orPlaceholder(caller.Email),
		orPlaceholder(caller.Role),
		orPlaceholder(caller.Company),
		orPlaceholder(record.InquiryType),
		orPlaceholder(property.AssetType),
		orPlaceholder(property.Location),
		orPlaceholder(property.DealSize),
		orPlaceholder(property.SquareFootage),
		orPlaceholder(property.Urgency),
		duration,
		orPlaceholder(record.ConversationSummary),
		orPlaceholder(property.AdditionalDetails),
		orPlaceholder(record.RecordingURL),
		callStatusCompleted,
	}
}

func orPlaceholder(value *string) string {
	if value == nil || *value == "" {
		return Placeholder
	}
	return *value
}
