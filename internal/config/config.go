package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/realflow/voice-intake/internal/auth"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// SheetsConfig locates the spreadsheet that receives one row per call.
type SheetsConfig struct {
	CredentialsFile string
	SpreadsheetID   string
	SheetName       string
}

// VapiConfig holds the voice platform credentials and assistant settings.
type VapiConfig struct {
	APIKey          string
	BaseURL         string
	AssistantID     string
	TemplatePath    string
	DebugConfigPath string
	EnvFile         string
}

// DedupConfig enables the optional duplicate-delivery guard.
type DedupConfig struct {
	RedisAddr string
	TTL       time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	Port              string
	BrokerageName     string
	BaseURL           string
	TunnelURL         string
	WebhookSecret     string
	SignaturePolicy   auth.SignaturePolicy
	RateLimitWebhook  RateLimitConfig
	ConversationsFile string
	PhoneRegion       string
	AdminJWTSecret    string
	AdminTokenTTL     time.Duration
	Sheets            SheetsConfig
	Vapi              VapiConfig
	Dedup             DedupConfig
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8000"),
		BrokerageName:     strings.TrimSpace(getEnv("BROKERAGE_NAME", "Your Brokerage")),
		BaseURL:           strings.TrimSpace(getEnv("BASE_URL", "http://localhost:8000")),
		TunnelURL:         strings.TrimSpace(os.Getenv("NGROK_URL")),
		WebhookSecret:     os.Getenv("WEBHOOK_SECRET"),
		ConversationsFile: getEnv("CONVERSATIONS_FILE", "data/conversations.json"),
		PhoneRegion:       strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "US")),
		AdminJWTSecret:    os.Getenv("ADMIN_JWT_SECRET"),
		AdminTokenTTL:     parseDuration(getEnv("ADMIN_JWT_TTL", "24h"), 24*time.Hour),
		Sheets: SheetsConfig{
			CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "google_credentials.json"),
			SpreadsheetID:   strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID")),
			SheetName:       getEnv("GOOGLE_SHEET_NAME", "Realflow Calls"),
		},
		Vapi: VapiConfig{
			APIKey:          os.Getenv("VAPI_API_KEY"),
			BaseURL:         getEnv("VAPI_BASE_URL", "https://api.vapi.ai"),
			AssistantID:     strings.TrimSpace(os.Getenv("VAPI_ASSISTANT_ID")),
			TemplatePath:    getEnv("ASSISTANT_TEMPLATE", "config/vapi_assistant.json"),
			DebugConfigPath: getEnv("DEBUG_CONFIG_PATH", "debug_config.json"),
			EnvFile:         getEnv("ENV_FILE", ".env"),
		},
		Dedup: DedupConfig{
			RedisAddr: strings.TrimSpace(os.Getenv("DEDUP_REDIS_ADDR")),
			TTL:       parseDuration(getEnv("DEDUP_TTL", "24h"), 24*time.Hour),
		},
	}

	policy, err := auth.ParseSignaturePolicy(os.Getenv("WEBHOOK_SIGNATURE_POLICY"))
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_SIGNATURE_POLICY value: %w", err)
	}
	cfg.SignaturePolicy = policy

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_WEBHOOK", "120/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WEBHOOK value: %w", err)
	}
	cfg.RateLimitWebhook = rl

	return cfg, nil
}

// WebhookURL is the address the voice platform posts call events to.
// A tunnel URL takes precedence over the base URL.
func (c *Config) WebhookURL() string {
	base := c.BaseURL
	if c.TunnelURL != "" {
		base = c.TunnelURL
	}
	return strings.TrimRight(base, "/") + "/api/vapi/webhook"
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
