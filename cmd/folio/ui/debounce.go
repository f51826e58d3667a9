package ui

import (
	"sync"
	"time"

	"folio/internal/anim"
)

// Debouncer runs the last of a burst of calls once the burst has been quiet for the
// debounce duration. It schedules on a virtual-time scope, so it only fires when the
// owning loop advances the scheduler.
type Debouncer struct {
	mu       sync.Mutex
	scope    *anim.Scope
	duration time.Duration
	pending  *anim.Handle
}

// NewDebouncer creates a debouncer on scope.
func NewDebouncer(scope *anim.Scope, duration time.Duration) *Debouncer {
	return &Debouncer{scope: scope, duration: duration}
}

// Debounce replaces any pending call with fn.
func (d *Debouncer) Debounce(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending.Cancel()
	d.pending = d.scope.After(anim.KindTimer, d.duration, func(time.Time) { fn() })
}

// Cancel drops the pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending.Cancel()
	d.pending = nil
}

// Immediate cancels the pending call and runs fn now.
func (d *Debouncer) Immediate(fn func()) {
	d.Cancel()
	fn()
}

// ResizeDebouncer collapses window resizes into one relayout.
type ResizeDebouncer struct {
	mu            sync.Mutex
	debouncer     *Debouncer
	pendingWidth  int
	pendingHeight int
}

// NewResizeDebouncer creates a resize debouncer on scope.
func NewResizeDebouncer(scope *anim.Scope, duration time.Duration) *ResizeDebouncer {
	return &ResizeDebouncer{debouncer: NewDebouncer(scope, duration)}
}

// Resize records a size and calls handler with the latest one once resizing stops.
func (rd *ResizeDebouncer) Resize(width, height int, handler func(int, int)) {
	rd.mu.Lock()
	rd.pendingWidth = width
	rd.pendingHeight = height
	rd.mu.Unlock()

	rd.debouncer.Debounce(func() {
		rd.mu.Lock()
		w, h := rd.pendingWidth, rd.pendingHeight
		rd.mu.Unlock()

		handler(w, h)
	})
}

// Immediate drops any pending resize and calls handler with this size now.
func (rd *ResizeDebouncer) Immediate(width, height int, handler func(int, int)) {
	rd.debouncer.Immediate(func() { handler(width, height) })
}

// Cancel cancels any pending resize
func (rd *ResizeDebouncer) Cancel() {
	rd.debouncer.Cancel()
}

// DefaultResizeDuration is the recommended debounce duration for resize events
const DefaultResizeDuration = 150 * time.Millisecond
