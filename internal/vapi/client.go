package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public voice platform endpoint.
	DefaultBaseURL = "https://api.vapi.ai"
	// DefaultTimeout bounds every assistant directory round trip.
	DefaultTimeout = 30 * time.Second
)

// APIError carries a non-2xx response so callers can print the body.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vapi %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// AssistantDirectory manages assistant resources on the voice platform.
type AssistantDirectory interface {
	CreateAssistant(ctx context.Context, config map[string]any) (map[string]any, error)
	UpdateAssistant(ctx context.Context, id string, config map[string]any) (map[string]any, error)
	GetAssistant(ctx context.Context, id string) (map[string]any, error)
}

// Client is a bearer-authenticated JSON client for the assistant API.
// Requests are not retried.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewClient builds a client. A nil http client gets DefaultTimeout.
func NewClient(client *http.Client, baseURL, apiKey string) *Client {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{client: client, baseURL: baseURL, apiKey: apiKey}
}

// CreateAssistant handles POST /assistant.
func (c *Client) CreateAssistant(ctx context.Context, config map[string]any) (map[string]any, error) {
	return c.do(ctx, http.MethodPost, "/assistant", config)
}

// UpdateAssistant handles PATCH /assistant/{id}.
func (c *Client) UpdateAssistant(ctx context.Context, id string, config map[string]any) (map[string]any, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("assistant id is required")
	}
	return c.do(ctx, http.MethodPatch, "/assistant/"+url.PathEscape(id), config)
}

// GetAssistant handles GET /assistant/{id}.
func (c *Client) GetAssistant(ctx context.Context, id string) (map[string]any, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("assistant id is required")
	}
	return c.do(ctx, http.MethodGet, "/assistant/"+url.PathEscape(id), nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (map[string]any, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create vapi request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vapi request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read vapi response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	result := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("could not decode vapi response: %w", err)
	}
	return result, nil
}

var _ AssistantDirectory = (*Client)(nil)
