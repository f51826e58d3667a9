package prefs

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"folio/internal/viewstate"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ThemeChange receives a theme written to the preferences file by another process.
type ThemeChange func(viewstate.Theme)

// Watcher follows a FileKV on disk and reports theme changes made outside this process,
// such as `folio theme set dark` from a second terminal.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	adapter  *Adapter
	path     string
	onChange ThemeChange
	last     viewstate.Theme
	pending  time.Time
	debounce time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	log      *zap.Logger
}

// NewWatcher creates a watcher for kv's file. Nothing is watched until Start.
func NewWatcher(kv *FileKV, onChange ThemeChange, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fw,
		adapter:  NewAdapter(kv, log),
		path:     filepath.Clean(kv.Path()),
		onChange: onChange,
		debounce: 100 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		log:      log,
	}, nil
}

// Start begins watching in a goroutine. The directory is watched rather than the file
// so atomic replacement keeps being observed.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		w.log.Warn("failed to create preferences dir", zap.String("dir", dir), zap.Error(err))
	}
	if err := w.watcher.Add(dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	if theme, ok, err := w.adapter.ReadTheme(ctx); err == nil && ok {
		w.last = theme
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine. It is safe to call without Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.log.Debug("error closing preferences watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			w.mu.Lock()
			w.pending = time.Now()
			w.mu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("preferences watcher error", zap.Error(err))
		case now := <-ticker.C:
			w.mu.Lock()
			settled := !w.pending.IsZero() && now.Sub(w.pending) >= w.debounce
			if settled {
				w.pending = time.Time{}
			}
			w.mu.Unlock()
			if settled {
				w.reload(ctx)
			}
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	theme, ok, err := w.adapter.ReadTheme(ctx)
	if err != nil {
		w.log.Warn("failed to reload preferences", zap.Error(err))
		return
	}
	if !ok || theme == w.last {
		return
	}
	w.last = theme
	w.log.Debug("theme changed on disk", zap.String("theme", string(theme)))
	w.onChange(theme)
}
