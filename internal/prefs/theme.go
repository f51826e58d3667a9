package prefs

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"folio/internal/viewstate"

	"github.com/muesli/termenv"
	"go.uber.org/zap"
)

// ThemeKey is the slot holding the theme preference.
const ThemeKey = "theme"

// Adapter reads and writes the theme preference through a KV.
type Adapter struct {
	kv  KV
	log *zap.Logger
}

// NewAdapter wraps kv. A nil logger is replaced by a no-op logger.
func NewAdapter(kv KV, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{kv: kv, log: log}
}

// KV returns the underlying store.
func (a *Adapter) KV() KV {
	return a.kv
}

// ReadTheme returns the persisted theme. ok is false when nothing valid was stored; an
// unrecognised value is treated as absent.
func (a *Adapter) ReadTheme(ctx context.Context) (viewstate.Theme, bool, error) {
	raw, ok, err := a.kv.Get(ctx, ThemeKey)
	if err != nil {
		return "", false, fmt.Errorf("read theme: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	theme, err := viewstate.ParseTheme(raw)
	if err != nil {
		a.log.Warn("ignoring persisted theme", zap.String("value", raw), zap.Error(err))
		return "", false, nil
	}
	return theme, true, nil
}

// WriteTheme persists theme.
func (a *Adapter) WriteTheme(ctx context.Context, theme viewstate.Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("write theme %q: %w", theme, viewstate.ErrInvalidValue)
	}
	if err := a.kv.Set(ctx, ThemeKey, string(theme)); err != nil {
		return fmt.Errorf("write theme: %w", err)
	}
	return nil
}

// Signal reports the environment's dark-mode preference. ok is false when there is no
// usable signal.
type Signal func() (dark, ok bool)

// EnvSignal reads the dark-mode preference of the surrounding terminal.
type EnvSignal struct {
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
	// Terminal asks the terminal itself; it defaults to termenv.HasDarkBackground.
	// Set it to a func returning false, false to skip the query.
	Terminal func() (dark, ok bool)
}

// Signal resolves, in order: FOLIO_DARK_MODE, COLORFGBG, then the terminal query.
func (e EnvSignal) Signal() (dark, ok bool) {
	getenv := e.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := strings.TrimSpace(getenv("FOLIO_DARK_MODE")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b, true
		}
	}

	// COLORFGBG is "fg;bg" or "fg;default;bg"; a background of 0-6 or 8 is dark.
	if v := getenv("COLORFGBG"); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			return (bg >= 0 && bg <= 6) || bg == 8, true
		}
	}

	terminal := e.Terminal
	if terminal == nil {
		terminal = queryTerminal
	}
	return terminal()
}

func queryTerminal() (dark, ok bool) {
	defer func() {
		if recover() != nil {
			dark, ok = false, false
		}
	}()
	if termenv.EnvNoColor() {
		return false, false
	}
	return termenv.HasDarkBackground(), true
}

// ResolveTheme picks the theme a session starts with: the persisted preference, then
// the environment signal, then light. It never fails; read errors are logged.
func ResolveTheme(ctx context.Context, adapter *Adapter, signal Signal) viewstate.Theme {
	if adapter != nil {
		theme, ok, err := adapter.ReadTheme(ctx)
		switch {
		case err != nil:
			adapter.log.Warn("persisted theme unreadable, falling back", zap.Error(err))
		case ok:
			return theme
		}
	}
	if signal != nil {
		if dark, ok := signal(); ok {
			if dark {
				return viewstate.ThemeDark
			}
			return viewstate.ThemeLight
		}
	}
	return viewstate.ThemeLight
}
