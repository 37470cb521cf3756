package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	middlewarepkg "github.com/realflow/voice-intake/internal/middleware"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var payload Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return payload
}

func TestSuccessCarriesRequestID(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.Set(middlewarepkg.ContextKeyRequestID, "rid-1")

	if err := Success(c, 0, "running", map[string]string{"brokerage": "Acme"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	payload := decodeEnvelope(t, rec)
	if payload.Status != "success" || payload.Message != "running" || payload.RequestID != "rid-1" {
		t.Fatalf("unexpected response: %+v", payload)
	}
}

func TestErrorDefaultsTo500(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	if err := Error(c, 0, "boom"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if payload := decodeEnvelope(t, rec); payload.Status != "error" || payload.Message != "boom" || payload.Data != nil {
		t.Fatalf("unexpected error payload: %+v", payload)
	}
}

func TestHTTPErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.GET("/panic", func(c echo.Context) error {
		return errors.New("disk on fire")
	})

	tests := map[string]struct {
		method     string
		path       string
		expectCode int
		expectMsg  string
	}{
		"unknown route": {
			method:     http.MethodGet,
			path:       "/nope",
			expectCode: http.StatusNotFound,
			expectMsg:  "Not Found",
		},
		"wrong method": {
			method:     http.MethodPost,
			path:       "/panic",
			expectCode: http.StatusMethodNotAllowed,
			expectMsg:  "Method Not Allowed",
		},
		"plain error is hidden": {
			method:     http.MethodGet,
			path:       "/panic",
			expectCode: http.StatusInternalServerError,
			expectMsg:  "Internal Server Error",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.expectCode {
				t.Fatalf("expected status %d, got %d", tt.expectCode, rec.Code)
			}
			if payload := decodeEnvelope(t, rec); payload.Status != "error" || payload.Message != tt.expectMsg {
				t.Fatalf("unexpected payload: %+v", payload)
			}
		})
	}
}
