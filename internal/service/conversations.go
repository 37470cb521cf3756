package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/realflow/voice-intake/internal/dto"
	"github.com/realflow/voice-intake/internal/entity"
)

// ErrInvalidPayload marks a webhook body that cannot be processed.
var ErrInvalidPayload = errors.New("invalid webhook payload")

// CallLog is the append-only record of processed calls.
type CallLog interface {
	Append(ctx context.Context, record *entity.ConversationData) error
}

// SheetLogger writes one spreadsheet row per call and reports success.
type SheetLogger interface {
	LogCall(ctx context.Context, record *entity.ConversationData) bool
}

// Deduplicator reports whether a call id is seen for the first time.
// Release forgets a call id so a later redelivery is processed again.
type Deduplicator interface {
	FirstDelivery(ctx context.Context, callID string) (bool, error)
	Release(ctx context.Context, callID string) error
}

// EventOutcome summarises what happened to a webhook delivery.
type EventOutcome struct {
	EventType   string
	Processed   bool
	Duplicate   bool
	Record      *entity.ConversationData
	CallLogged  bool
	SheetLogged bool
}

// ConversationService classifies webhook events and fans end-of-call
// records out to the call log and the spreadsheet.
type ConversationService struct {
	callLog    CallLog
	sheet      SheetLogger
	normalizer *Normalizer
	dedup      Deduplicator
	now        func() time.Time
}

// ConversationServiceOption configures optional dependencies.
type ConversationServiceOption func(*ConversationService)

// WithDeduplicator enables suppression of repeated deliveries.
func WithDeduplicator(d Deduplicator) ConversationServiceOption {
	return func(s *ConversationService) {
		s.dedup = d
	}
}

// WithClock overrides the capture time source.
func WithClock(now func() time.Time) ConversationServiceOption {
	return func(s *ConversationService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewConversationService wires the sinks. Both sinks are required; use a
// disabled sheets logger when the spreadsheet is not configured.
func NewConversationService(callLog CallLog, sheet SheetLogger, normalizer *Normalizer, opts ...ConversationServiceOption) *ConversationService {
	if normalizer == nil {
		normalizer = NewNormalizer("")
	}
	s := &ConversationService{
		callLog:    callLog,
		sheet:      sheet,
		normalizer: normalizer,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleEvent processes a raw webhook body. An empty body and event types
// other than the end-of-call report are acknowledged without action.
func (s *ConversationService) HandleEvent(ctx context.Context, body []byte) (EventOutcome, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return EventOutcome{}, nil
	}

	envelope, err := decodeEnvelope(body)
	if err != nil {
		return EventOutcome{}, err
	}

	eventType, _ := envelope.Message["type"].(string)
	log.Printf("webhook: received type=%q", eventType)
	if eventType != dto.EventEndOfCallReport {
		return EventOutcome{EventType: eventType}, nil
	}

	record, err := s.normalizer.Extract(envelope.Message, s.now())
	if err != nil {
		return EventOutcome{EventType: eventType}, err
	}

	outcome := EventOutcome{EventType: eventType, Record: record}
	if s.dedup != nil {
		first, err := s.dedup.FirstDelivery(ctx, record.CallID)
		if err != nil {
			log.Printf("webhook: dedup check failed, processing anyway call_id=%s err=%v", record.CallID, err)
		} else if !first {
			log.Printf("webhook: duplicate delivery ignored call_id=%s", record.CallID)
			outcome.Duplicate = true
			return outcome, nil
		}
	}

	outcome.Processed = true
	outcome.CallLogged = s.appendCallLog(ctx, record)
	outcome.SheetLogged = s.logSheet(ctx, record)

	// a redelivery must be able to fill the call log
	if !outcome.CallLogged && s.dedup != nil {
		if err := s.dedup.Release(ctx, record.CallID); err != nil {
			log.Printf("webhook: dedup release failed call_id=%s err=%v", record.CallID, err)
		}
	}

	log.Printf("webhook: call processed call_id=%s call_log=%t sheets=%t", record.CallID, outcome.CallLogged, outcome.SheetLogged)
	log.Printf("webhook: caller=%s property=%s location=%s", display(record.CallerInfo.Name), display(record.PropertyDetails.AssetType), display(record.PropertyDetails.Location))
	return outcome, nil
}

func (s *ConversationService) appendCallLog(ctx context.Context, record *entity.ConversationData) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("webhook: sink=call_log panic call_id=%s err=%v", record.CallID, r)
			ok = false
		}
	}()
	if s.callLog == nil {
		return false
	}
	if err := s.callLog.Append(ctx, record); err != nil {
		log.Printf("webhook: sink=call_log failed call_id=%s err=%v", record.CallID, err)
		return false
	}
	return true
}

func (s *ConversationService) logSheet(ctx context.Context, record *entity.ConversationData) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("webhook: sink=sheets panic call_id=%s err=%v", record.CallID, r)
			ok = false
		}
	}()
	if s.sheet == nil {
		return false
	}
	return s.sheet.LogCall(ctx, record)
}

func decodeEnvelope(body []byte) (dto.VapiWebhook, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var envelope dto.VapiWebhook
	if err := dec.Decode(&envelope); err != nil {
		return dto.VapiWebhook{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return dto.VapiWebhook{}, fmt.Errorf("%w: unexpected data after JSON body", ErrInvalidPayload)
	}
	if envelope.Message == nil {
		envelope.Message = map[string]any{}
	}
	return envelope, nil
}

func display(value *string) string {
	if value == nil {
		return "-"
	}
	return *value
}
