package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// HistorySink persists the whole conversation log. Save is called after
// every mutation with the complete current log.
type HistorySink interface {
	Load() ([]Turn, error)
	Save([]Turn) error
}

// NopSink satisfies the persistence-disabled configuration.
type NopSink struct{}

func (NopSink) Load() ([]Turn, error) { return nil, nil }
func (NopSink) Save([]Turn) error     { return nil }

// FileSink stores the log as one JSON array at a fixed path, overwritten
// wholesale on every save. An absent file loads as an empty history.
type FileSink struct {
	path string
}

// NewFileSink creates a sink writing to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Load reads the persisted log, creating an empty file on first run.
func (f *FileSink) Load() ([]Turn, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		if mkErr := os.MkdirAll(filepath.Dir(f.path), 0o755); mkErr == nil {
			_ = os.WriteFile(f.path, []byte("[]\n"), 0o644)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return turns, nil
}

// Save atomically replaces the history file with the given log.
func (f *FileSink) Save(turns []Turn) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	if turns == nil {
		turns = []Turn{}
	}
	data, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

var _ HistorySink = (*FileSink)(nil)
var _ HistorySink = NopSink{}
