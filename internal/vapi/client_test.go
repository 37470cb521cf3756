package vapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_CreateAssistant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/assistant" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": "asst-1", "name": payload["name"]})
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL+"/", "key-1")
	result, err := client.CreateAssistant(context.Background(), map[string]any{"name": "Realflow"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["id"] != "asst-1" || result["name"] != "Realflow" {
		t.Fatalf("unexpected result: %v", result)
	}
}

func TestClient_UpdateAndGetAssistant(t *testing.T) {
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.URL.Path != "/assistant/asst-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "asst-1"})
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "key-1")
	if _, err := client.UpdateAssistant(context.Background(), "asst-1", map[string]any{"name": "x"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := client.GetAssistant(context.Background(), "asst-1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(methods) != 2 || methods[0] != http.MethodPatch || methods[1] != http.MethodGet {
		t.Fatalf("unexpected methods: %v", methods)
	}

	if _, err := client.GetAssistant(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestClient_NonSuccessCarriesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":["voice.provider must be one of ..."]}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "key-1")
	_, err := client.CreateAssistant(context.Background(), map[string]any{})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Body == "" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(nil, "", "key")
	if client.baseURL != DefaultBaseURL {
		t.Fatalf("expected default base url, got %s", client.baseURL)
	}
	if client.client.Timeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %s", client.client.Timeout)
	}
}
