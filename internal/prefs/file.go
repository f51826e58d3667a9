package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileVersion is the schema version written to preferences.json.
const FileVersion = "1.0"

// DefaultFile is the preferences file relative to the workspace.
const DefaultFile = ".folio/preferences.json"

type fileDocument struct {
	Version   string            `json:"version"`
	UpdatedAt string            `json:"updated_at,omitempty"`
	Values    map[string]string `json:"values"`
}

// FileKV stores values in a JSON document on disk. Every Set rewrites the file, so a
// second process sees changes on its next Get.
type FileKV struct {
	mu   sync.Mutex
	path string
}

// NewFileKV returns a store backed by path. The file is created on first Set.
func NewFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

// Path returns the backing file.
func (f *FileKV) Path() string {
	return f.path
}

func (f *FileKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := doc.Values[key]
	return v, ok, nil
}

func (f *FileKV) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		// Replace a corrupt document.
		doc = &fileDocument{Values: make(map[string]string)}
	}
	doc.Version = FileVersion
	doc.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	doc.Values[key] = value

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("%w: failed to create preferences directory: %v", ErrUnavailable, err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: failed to write preferences: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("%w: failed to replace preferences: %v", ErrUnavailable, err)
	}
	return nil
}

func (f *FileKV) Close() error { return nil }

func (f *FileKV) load() (*fileDocument, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileDocument{Version: FileVersion, Values: make(map[string]string)}, nil
		}
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse preferences: %w", err)
	}
	if doc.Values == nil {
		doc.Values = make(map[string]string)
	}
	return &doc, nil
}
