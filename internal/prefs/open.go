package prefs

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// Backend names a KV implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// Valid reports whether b is a known backend.
func (b Backend) Valid() bool {
	switch b {
	case BackendFile, BackendSQLite, BackendMemory:
		return true
	}
	return false
}

// Open opens the configured backend. A relative path is resolved against workspace.
// When the durable backend cannot be opened, Open logs the failure and returns a
// MemoryKV together with the error, so the session keeps working without persistence.
func Open(ctx context.Context, backend Backend, workspace, path string, log *zap.Logger) (KV, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(workspace, path)
	}

	switch backend {
	case BackendMemory:
		return NewMemoryKV(), nil
	case BackendSQLite:
		kv, err := OpenSQLite(ctx, path)
		if err != nil {
			log.Warn("sqlite preferences unavailable, using memory", zap.String("path", path), zap.Error(err))
			return NewMemoryKV(), err
		}
		return kv, nil
	case BackendFile, "":
		if path == "" {
			path = filepath.Join(workspace, DefaultFile)
		}
		return NewFileKV(path), nil
	default:
		return NewMemoryKV(), fmt.Errorf("%w: unknown backend %q", ErrUnavailable, backend)
	}
}
