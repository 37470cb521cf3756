package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/realflow/voice-intake/internal/entity"
)

// ConversationsRepository declares the operations supported by the call log.
type ConversationsRepository interface {
	Append(ctx context.Context, record *entity.ConversationData) error
	List(ctx context.Context) ([]entity.ConversationData, error)
}

// FileConversationsRepository keeps every call record in a single JSON array on disk.
//
// Append is a read-modify-write of the whole file and is not safe for
// concurrent writers; the expected load is one completed call at a time.
type FileConversationsRepository struct {
	path string
}

// NewFileConversationsRepository instantiates a call log backed by the given file.
func NewFileConversationsRepository(path string) *FileConversationsRepository {
	return &FileConversationsRepository{path: path}
}

// Path returns the file the log is written to.
func (r *FileConversationsRepository) Path() string {
	return r.path
}

// errCorruptLog marks a log file whose content is not a JSON array of records.
var errCorruptLog = errors.New("call log is not a valid record list")

// Append adds the record to the end of the log. A missing or corrupt log is
// treated as empty and replaced; any other read failure is returned and the
// file is left alone.
func (r *FileConversationsRepository) Append(ctx context.Context, record *entity.ConversationData) error {
	if record == nil {
		return errors.New("record must not be nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	records, err := r.read()
	if err != nil {
		if !errors.Is(err, errCorruptLog) {
			return err
		}
		records = nil
	}
	records = append(records, *record)

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create call log directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode call log: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write call log: %w", err)
	}
	return nil
}

// List returns every stored record in append order.
func (r *FileConversationsRepository) List(ctx context.Context) ([]entity.ConversationData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := r.read()
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []entity.ConversationData{}
	}
	return records, nil
}

func (r *FileConversationsRepository) read() ([]entity.ConversationData, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read call log: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records []entity.ConversationData
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptLog, err)
	}
	return records, nil
}

var _ ConversationsRepository = (*FileConversationsRepository)(nil)
