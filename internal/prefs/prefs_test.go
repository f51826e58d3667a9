package prefs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"folio/internal/viewstate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func noTerminal() (bool, bool) { return false, false }

func envOf(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func backends(t *testing.T) map[string]KV {
	t.Helper()
	sq, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })
	return map[string]KV{
		"memory": NewMemoryKV(),
		"file":   NewFileKV(filepath.Join(t.TempDir(), ".folio", "preferences.json")),
		"sqlite": sq,
	}
}

func TestKV_GetSet(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get(ctx, "theme")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Set(ctx, "theme", "dark"))
			require.NoError(t, kv.Set(ctx, "theme", "light"))
			require.NoError(t, kv.Set(ctx, "other", "x"))

			v, ok, err := kv.Get(ctx, "theme")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "light", v)
		})
	}
}

func TestFileKV_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "preferences.json")

	require.NoError(t, NewFileKV(path).Set(ctx, ThemeKey, "dark"))

	v, ok, err := NewFileKV(path).Get(ctx, ThemeKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": "1.0"`)
}

func TestFileKV_CorruptDocument(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "preferences.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	kv := NewFileKV(path)

	_, _, err := kv.Get(ctx, ThemeKey)
	assert.Error(t, err)

	require.NoError(t, kv.Set(ctx, ThemeKey, "dark"))
	v, ok, err := kv.Get(ctx, ThemeKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
}

func TestAdapter_ThemeRoundTripThroughFreshResolution(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "preferences.json")
	darkEnv := EnvSignal{Getenv: envOf(map[string]string{"FOLIO_DARK_MODE": "1"}), Terminal: noTerminal}

	for _, theme := range []viewstate.Theme{viewstate.ThemeLight, viewstate.ThemeDark} {
		require.NoError(t, NewAdapter(NewFileKV(path), nil).WriteTheme(ctx, theme))

		fresh := NewAdapter(NewFileKV(path), nil)
		assert.Equal(t, theme, ResolveTheme(ctx, fresh, darkEnv.Signal))
	}
}

func TestAdapter_RejectsInvalidTheme(t *testing.T) {
	a := NewAdapter(NewMemoryKV(), nil)
	err := a.WriteTheme(context.Background(), "sepia")
	assert.ErrorIs(t, err, viewstate.ErrInvalidValue)
}

func TestAdapter_UnrecognisedValueIsAbsent(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, ThemeKey, "sepia"))

	_, ok, err := NewAdapter(kv, nil).ReadTheme(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

type failingKV struct{ MemoryKV }

func (*failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func TestResolveTheme_Precedence(t *testing.T) {
	ctx := context.Background()
	stored := NewMemoryKV()
	require.NoError(t, stored.Set(ctx, ThemeKey, "light"))

	dark := func() (bool, bool) { return true, true }
	none := func() (bool, bool) { return false, false }

	tests := []struct {
		name    string
		adapter *Adapter
		signal  Signal
		want    viewstate.Theme
	}{
		{"persisted wins over signal", NewAdapter(stored, nil), dark, viewstate.ThemeLight},
		{"signal when nothing persisted", NewAdapter(NewMemoryKV(), nil), dark, viewstate.ThemeDark},
		{"light without anything", NewAdapter(NewMemoryKV(), nil), none, viewstate.ThemeLight},
		{"read failure falls back to signal", NewAdapter(&failingKV{}, nil), dark, viewstate.ThemeDark},
		{"nil adapter and signal", nil, nil, viewstate.ThemeLight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTheme(ctx, tt.adapter, tt.signal))
		})
	}
}

func TestEnvSignal(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		terminal func() (bool, bool)
		dark, ok bool
	}{
		{"explicit dark", map[string]string{"FOLIO_DARK_MODE": "true"}, noTerminal, true, true},
		{"explicit light beats colorfgbg", map[string]string{"FOLIO_DARK_MODE": "0", "COLORFGBG": "15;0"}, noTerminal, false, true},
		{"garbage override is skipped", map[string]string{"FOLIO_DARK_MODE": "maybe", "COLORFGBG": "15;0"}, noTerminal, true, true},
		{"colorfgbg dark background", map[string]string{"COLORFGBG": "15;default;0"}, noTerminal, true, true},
		{"colorfgbg light background", map[string]string{"COLORFGBG": "0;15"}, noTerminal, false, true},
		{"terminal query", nil, func() (bool, bool) { return true, true }, true, true},
		{"no signal", nil, noTerminal, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dark, ok := EnvSignal{Getenv: envOf(tt.env), Terminal: tt.terminal}.Signal()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.dark, dark)
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	ws := t.TempDir()

	kv, err := Open(ctx, BackendFile, ws, "", nil)
	require.NoError(t, err)
	require.IsType(t, &FileKV{}, kv)
	assert.Equal(t, filepath.Join(ws, DefaultFile), kv.(*FileKV).Path())

	kv, err = Open(ctx, BackendSQLite, ws, ".folio/preferences.db", nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteKV{}, kv)
	require.NoError(t, kv.Close())

	kv, err = Open(ctx, "etcd", ws, "", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.IsType(t, &MemoryKV{}, kv, "unknown backends degrade to memory")
}

func TestOpen_SQLiteFailureFallsBackToMemory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	kv, err := Open(context.Background(), BackendSQLite, "", filepath.Join(blocker, "sub", "prefs.db"), nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.IsType(t, &MemoryKV{}, kv)
}

func TestWatcher_ReportsExternalThemeChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	path := filepath.Join(t.TempDir(), ".folio", "preferences.json")

	changes := make(chan viewstate.Theme, 4)
	w, err := NewWatcher(NewFileKV(path), func(theme viewstate.Theme) { changes <- theme }, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	other := NewAdapter(NewFileKV(path), nil)
	require.NoError(t, other.WriteTheme(ctx, viewstate.ThemeDark))

	select {
	case theme := <-changes:
		assert.Equal(t, viewstate.ThemeDark, theme)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w, err := NewWatcher(NewFileKV(filepath.Join(t.TempDir(), "p.json")), func(viewstate.Theme) {}, nil)
	require.NoError(t, err)
	assert.NotPanics(t, w.Stop)
}
