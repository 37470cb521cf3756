package service

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/realflow/voice-intake/internal/entity"
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9.-]+\.[a-z]{2,}$`)
	idnaProfile  = idna.Lookup
)

const defaultPhoneRegion = "US"

// Keys the assistant uses inside analysis.structuredData.
const (
	keyCallerName        = "callerName"
	keyCallerPhone       = "callerPhone"
	keyCallerEmail       = "callerEmail"
	keyCallerRole        = "callerRole"
	keyCompany           = "company"
	keyInquiryType       = "inquiryType"
	keyAssetType         = "assetType"
	keyLocation          = "location"
	keyDealSize          = "dealSize"
	keySquareFootage     = "squareFootage"
	keyUrgency           = "urgency"
	keyAdditionalDetails = "additionalDetails"
)

// Normalizer maps an end-of-call message onto a ConversationData record.
// A missing or wrong-shaped field becomes nil; it never fails the record.
type Normalizer struct {
	DefaultRegion string
}

// NewNormalizer builds a normalizer that parses local phone numbers in defaultRegion.
func NewNormalizer(defaultRegion string) *Normalizer {
	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if region == "" {
		region = defaultPhoneRegion
	}
	return &Normalizer{DefaultRegion: region}
}

// Extract builds the record for an end-of-call message captured at capturedAt.
func (n *Normalizer) Extract(message map[string]any, capturedAt time.Time) (*entity.ConversationData, error) {
	call, err := objectField(message, "call")
	if err != nil {
		return nil, err
	}
	analysis, err := objectField(message, "analysis")
	if err != nil {
		return nil, err
	}
	structured, err := objectField(analysis, "structuredData")
	if err != nil {
		return nil, err
	}

	callID := stringValue(call["id"])
	if callID == nil {
		return nil, fmt.Errorf("%w: call.id is required", ErrInvalidPayload)
	}

	recordingURL := stringValue(message["recordingUrl"])
	if recordingURL == nil {
		if artifact, err := objectField(message, "artifact"); err == nil {
			recordingURL = stringValue(artifact["recordingUrl"])
		}
	}

	return &entity.ConversationData{
		CallID:    *callID,
		Timestamp: capturedAt,
		CallerInfo: entity.CallerInfo{
			Name:    stringValue(structured[keyCallerName]),
			Phone:   n.normalizePhone(*callID, stringValue(structured[keyCallerPhone])),
			Email:   normalizeEmail(*callID, stringValue(structured[keyCallerEmail])),
			Role:    stringValue(structured[keyCallerRole]),
			Company: stringValue(structured[keyCompany]),
		},
		PropertyDetails: entity.PropertyDetails{
			AssetType:         stringValue(structured[keyAssetType]),
			Location:          stringValue(structured[keyLocation]),
			DealSize:          stringValue(structured[keyDealSize]),
			SquareFootage:     stringValue(structured[keySquareFootage]),
			Urgency:           stringValue(structured[keyUrgency]),
			AdditionalDetails: stringValue(structured[keyAdditionalDetails]),
		},
		InquiryType:         stringValue(structured[keyInquiryType]),
		ConversationSummary: stringValue(analysis["summary"]),
		Duration:            durationValue(call["duration"]),
		RecordingURL:        recordingURL,
	}, nil
}

func (n *Normalizer) normalizePhone(callID string, raw *string) *string {
	if raw == nil {
		return nil
	}
	number, err := phonenumbers.Parse(*raw, n.DefaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		log.Printf("normalize: keeping unparseable phone call_id=%s", callID)
		return raw
	}
	formatted := phonenumbers.Format(number, phonenumbers.E164)
	return &formatted
}

// normalizeEmail lower-cases a well-formed address and drops a malformed one.
func normalizeEmail(callID string, raw *string) *string {
	if raw == nil {
		return nil
	}
	email, ok := cleanEmail(*raw)
	if !ok {
		log.Printf("normalize: dropping malformed email call_id=%s", callID)
		return nil
	}
	return &email
}

func cleanEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	local, domain, found := strings.Cut(email, "@")
	if !found || local == "" || !isDomainValid(domain) {
		return "", false
	}
	asciiDomain, err := idnaProfile.ToASCII(domain)
	if err != nil || asciiDomain == "" {
		return "", false
	}
	if !emailPattern.MatchString(local + "@" + asciiDomain) {
		return "", false
	}
	return email, true
}

func isDomainValid(domain string) bool {
	if strings.Count(domain, ".") == 0 {
		return false
	}
	parts := strings.Split(domain, ".")
	for _, part := range parts {
		if part == "" || strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return false
		}
	}
	return true
}

// objectField returns the nested object under key. A missing or null key is
// an empty object; any other non-object value is an invalid payload.
func objectField(parent map[string]any, key string) (map[string]any, error) {
	raw, ok := parent[key]
	if !ok || raw == nil {
		return map[string]any{}, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an object", ErrInvalidPayload, key)
	}
	return obj, nil
}

// stringValue coerces scalars to a trimmed string. Empty strings, objects
// and arrays yield nil.
func stringValue(value any) *string {
	var s string
	switch v := value.(type) {
	case string:
		s = strings.TrimSpace(v)
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(v)
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}

// durationValue reads a non-negative whole number of seconds.
func durationValue(value any) *int {
	var f float64
	switch v := value.(type) {
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 {
		return nil
	}
	seconds := int(f)
	return &seconds
}
