package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/realflow/voice-intake/internal/entity"
)

func strPtr(v string) *string { return &v }

func TestFileConversationsRepository_AppendAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "conversations.json")
	repo := NewFileConversationsRepository(path)
	ctx := context.Background()

	const total = 5
	for i := 0; i < total; i++ {
		record := &entity.ConversationData{
			CallID:    fmt.Sprintf("call-%d", i),
			Timestamp: time.Date(2024, 5, 1, 10, i, 0, 0, time.UTC),
		}
		if err := repo.Append(ctx, record); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != total {
		t.Fatalf("expected %d records, got %d", total, len(records))
	}
	for i, rec := range records {
		if rec.CallID != fmt.Sprintf("call-%d", i) {
			t.Fatalf("expected append order, record %d is %s", i, rec.CallID)
		}
	}
}

func TestFileConversationsRepository_DuplicateCallIDsAreKept(t *testing.T) {
	repo := NewFileConversationsRepository(filepath.Join(t.TempDir(), "conversations.json"))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := repo.Append(ctx, &entity.ConversationData{CallID: "same"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected duplicate deliveries to produce two records, got %d", len(records))
	}
}

func TestFileConversationsRepository_ListMissingFile(t *testing.T) {
	repo := NewFileConversationsRepository(filepath.Join(t.TempDir(), "missing.json"))
	records, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", records)
	}
}

func TestFileConversationsRepository_AppendReplacesInvalidContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	repo := NewFileConversationsRepository(path)

	if _, err := repo.List(context.Background()); err == nil {
		t.Fatalf("expected list to report corrupt log")
	}
	if err := repo.Append(context.Background(), &entity.ConversationData{CallID: "c1"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	records, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].CallID != "c1" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestFileConversationsRepository_SerializesAbsentFieldsAsNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")
	repo := NewFileConversationsRepository(path)

	duration := 90
	record := &entity.ConversationData{
		CallID:              "c1",
		CallerInfo:          entity.CallerInfo{Name: strPtr("Jane Doe")},
		PropertyDetails:     entity.PropertyDetails{AssetType: strPtr("office")},
		ConversationSummary: strPtr("Buyer inquiry"),
		Duration:            &duration,
	}
	if err := repo.Append(context.Background(), record); err != nil {
		t.Fatalf("append: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected one record, got %d", len(decoded))
	}
	got := decoded[0]
	for _, key := range []string{"inquiry_type", "recording_url"} {
		value, ok := got[key]
		if !ok {
			t.Fatalf("expected key %s to be present", key)
		}
		if value != nil {
			t.Fatalf("expected %s to be null, got %v", key, value)
		}
	}
	caller := got["caller_info"].(map[string]any)
	if caller["name"] != "Jane Doe" || caller["email"] != nil {
		t.Fatalf("unexpected caller_info: %v", caller)
	}
	if got["duration"].(float64) != 90 {
		t.Fatalf("unexpected duration: %v", got["duration"])
	}
}

func TestFileConversationsRepository_AppendReturnsReadFailure(t *testing.T) {
	// a directory at the log path cannot be read as a file
	path := filepath.Join(t.TempDir(), "conversations.json")
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	repo := NewFileConversationsRepository(path)

	err := repo.Append(context.Background(), &entity.ConversationData{CallID: "c1"})
	if err == nil {
		t.Fatalf("expected read failure to be returned")
	}
	if !strings.Contains(err.Error(), "read call log") {
		t.Fatalf("expected append to stop at the read, got %v", err)
	}
	if info, statErr := os.Stat(path); statErr != nil || !info.IsDir() {
		t.Fatalf("expected log path to be left alone, stat=%v err=%v", info, statErr)
	}
}
