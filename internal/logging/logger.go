// Package logging provides config-driven categorized logging for folio.
// Logs are written to .folio/logs/ through zap. Logging is controlled by debug_mode:
// when false, every category logger is a no-op and no file is created.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"folio/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup and shutdown
	CategoryStore    Category = "store"    // State transitions and effects
	CategoryViewport Category = "viewport" // Scroll sampling, visibility, section resolution
	CategoryAnim     Category = "anim"     // Scheduler and animations
	CategoryPrefs    Category = "prefs"    // Preference storage and theme resolution
	CategoryRelay    Category = "relay"    // Contact-form submissions
	CategoryUI       Category = "ui"       // Terminal shell
	CategoryAudit    Category = "audit"    // Committed actions, see Audit
)

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	current config.LoggingConfig
	cache   = make(map[Category]*zap.Logger)
)

// Initialize builds the process logger from cfg. Relative log files are resolved against
// workspace. It is a silent no-op when debug_mode is off.
func Initialize(workspace string, cfg config.LoggingConfig) error {
	if !cfg.DebugMode {
		replace(zap.NewNop(), cfg)
		return nil
	}

	file := cfg.File
	if file == "" {
		file = filepath.Join(".folio", "logs", "folio.log")
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(workspace, file)
	}
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	zcfg.OutputPaths = []string{file}
	zcfg.ErrorOutputPaths = []string{file}

	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	replace(logger, cfg)
	Get(CategoryBoot).Info("logging initialized", zap.String("file", file), zap.String("level", level.String()))
	return nil
}

// Replace installs l as the process logger and returns a func restoring the previous
// one. Tests use it with zaptest/observer.
func Replace(l *zap.Logger, cfg config.LoggingConfig) (restore func()) {
	mu.RLock()
	prevRoot, prevCfg := root, current
	mu.RUnlock()
	replace(l, cfg)
	return func() { replace(prevRoot, prevCfg) }
}

func replace(l *zap.Logger, cfg config.LoggingConfig) {
	mu.Lock()
	defer mu.Unlock()
	root = l
	current = cfg
	cache = make(map[Category]*zap.Logger)
}

// IsDebugMode returns whether logging is enabled at all.
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return current.DebugMode
}

// IsCategoryEnabled returns whether a category writes anything.
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return current.IsCategoryEnabled(string(category))
}

// Get returns the named logger for a category, or a no-op logger when the category
// is disabled.
func Get(category Category) *zap.Logger {
	mu.RLock()
	l, ok := cache[category]
	mu.RUnlock()
	if ok {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := cache[category]; ok {
		return l
	}
	if current.IsCategoryEnabled(string(category)) {
		l = root.Named(string(category))
	} else {
		l = zap.NewNop()
	}
	cache[category] = l
	return l
}

// Sync flushes buffered entries. Call it once on shutdown.
func Sync() {
	mu.RLock()
	l := root
	mu.RUnlock()
	_ = l.Sync()
}
