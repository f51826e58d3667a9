// Package anim runs the page's timed effects on a cooperative, virtual-time scheduler.
//
// Nothing here starts a goroutine or an OS timer. The owner of the event loop calls
// Advance with the current time once per frame and every task that has come due runs
// to completion on that goroutine, ordered by due time and then by scheduling order.
// Tests drive the same code by advancing a fake clock.
package anim

import (
	"container/heap"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind classifies a scheduled task.
type Kind string

const (
	KindTypewriter    Kind = "typewriter"
	KindStaggerReveal Kind = "staggerReveal"
	KindRoleRotate    Kind = "roleRotate"
	KindPointerFollow Kind = "pointerFollow"
	KindFrame         Kind = "frame"
	KindTimer         Kind = "timer"
)

// DefaultFrameInterval is one frame at 60 Hz.
const DefaultFrameInterval = 16 * time.Millisecond

// DefaultMaxCatchUp is how far behind a frame-paced repeating task may run after a stall.
// Older ticks are skipped.
const DefaultMaxCatchUp = 2 * time.Second

// framePaced reports whether missed ticks of a repeating task of this kind may be
// dropped. Such tasks step an animation toward a target, so only recent ticks matter.
func framePaced(k Kind) bool {
	switch k {
	case KindPointerFollow, KindTypewriter, KindFrame:
		return true
	}
	return false
}

// Task describes one running effect.
type Task struct {
	ID        uuid.UUID
	Kind      Kind
	StartedAt time.Time
	Cancelled bool
}

// Handle is the cancellation handle of a scheduled task.
type Handle struct {
	mu        sync.Mutex
	task      Task
	done      bool
	due       time.Time
	interval  time.Duration
	seq       uint64
	fn        func(now time.Time)
	index     int
	scheduler *Scheduler
}

// Cancel stops the task. It is safe to call more than once and after the task ran.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.mu.Lock()
	already := h.task.Cancelled
	h.task.Cancelled = true
	h.mu.Unlock()
	if !already && h.scheduler != nil {
		h.scheduler.remove(h)
	}
}

// Done reports whether a one-shot task has run.
func (h *Handle) Done() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done
}

func (h *Handle) markDone() {
	h.mu.Lock()
	h.done = true
	h.mu.Unlock()
}

// Cancelled reports whether Cancel was called or the task faulted.
func (h *Handle) Cancelled() bool {
	if h == nil {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.task.Cancelled
}

// Task returns a copy of the task record.
func (h *Handle) Task() Task {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.task
}

type taskQueue []*Handle

func (q taskQueue) Len() int { return len(q) }
func (q taskQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}
func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *taskQueue) Push(x any) {
	h := x.(*Handle)
	h.index = len(*q)
	*q = append(*q, h)
}
func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	h := old[n-1]
	old[n-1] = nil
	h.index = -1
	*q = old[:n-1]
	return h
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithLogger sets the scheduler logger.
func WithLogger(l *zap.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithFrameInterval sets the spacing of RequestFrame callbacks.
func WithFrameInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.frame = d
		}
	}
}

// WithMaxCatchUp bounds how far behind a frame-paced repeating task may run.
func WithMaxCatchUp(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.maxCatchUp = d
		}
	}
}

// Scheduler is a virtual-time task queue.
type Scheduler struct {
	mu         sync.Mutex
	now        time.Time
	queue      taskQueue
	seq        uint64
	frame      time.Duration
	maxCatchUp time.Duration
	log        *zap.Logger
}

// NewScheduler creates a scheduler whose clock starts at start.
func NewScheduler(start time.Time, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		now:        start,
		frame:      DefaultFrameInterval,
		maxCatchUp: DefaultMaxCatchUp,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// FrameInterval returns the frame spacing.
func (s *Scheduler) FrameInterval() time.Duration {
	return s.frame
}

// Pending returns the number of live tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// After runs fn once, d after now.
func (s *Scheduler) After(kind Kind, d time.Duration, fn func(now time.Time)) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleLocked(kind, s.now.Add(d), 0, fn)
}

// At runs fn once at the given instant, or on the next Advance if it is already past.
func (s *Scheduler) At(kind Kind, due time.Time, fn func(now time.Time)) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleLocked(kind, due, 0, fn)
}

// Every runs fn every interval, first at now+interval. Ticks are spaced on the original
// grid so they never drift, whatever the frame rate.
func (s *Scheduler) Every(kind Kind, interval time.Duration, fn func(now time.Time)) *Handle {
	if interval <= 0 {
		interval = s.frame
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleLocked(kind, s.now.Add(interval), interval, fn)
}

// RequestFrame runs fn once at the next frame boundary.
func (s *Scheduler) RequestFrame(fn func(now time.Time)) *Handle {
	return s.After(KindFrame, s.frame, fn)
}

func (s *Scheduler) scheduleLocked(kind Kind, due time.Time, interval time.Duration, fn func(time.Time)) *Handle {
	s.seq++
	h := &Handle{
		task: Task{
			ID:        uuid.New(),
			Kind:      kind,
			StartedAt: s.now,
		},
		due:       due,
		interval:  interval,
		seq:       s.seq,
		fn:        fn,
		scheduler: s,
	}
	heap.Push(&s.queue, h)
	return h
}

func (s *Scheduler) remove(h *Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.index >= 0 && h.index < len(s.queue) && s.queue[h.index] == h {
		heap.Remove(&s.queue, h.index)
	}
}

// Advance moves the clock to now and runs every task due at or before it, including
// tasks scheduled by callbacks during this call. Time never moves backwards. A
// frame-paced repeating task more than the catch-up bound behind now skips its older
// ticks and resumes on its original grid.
func (s *Scheduler) Advance(now time.Time) {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.queue[0].due.After(now) {
			if now.After(s.now) {
				s.now = now
			}
			s.mu.Unlock()
			return
		}
		h := heap.Pop(&s.queue).(*Handle)
		if h.Cancelled() {
			s.mu.Unlock()
			continue
		}
		if s.skipMissedLocked(h, now) {
			s.mu.Unlock()
			continue
		}
		if h.due.After(s.now) {
			s.now = h.due
		}
		at := s.now
		if h.interval > 0 {
			h.due = h.due.Add(h.interval)
			s.seq++
			h.seq = s.seq
			heap.Push(&s.queue, h)
		} else {
			h.markDone()
		}
		s.mu.Unlock()

		s.run(h, at)
	}
}

// skipMissedLocked moves a lagging frame-paced task forward to the first grid point
// within the catch-up bound. It reports whether the task was requeued past now.
func (s *Scheduler) skipMissedLocked(h *Handle, now time.Time) bool {
	if h.interval <= 0 || !framePaced(h.task.Kind) {
		return false
	}
	lag := now.Sub(h.due)
	if lag <= s.maxCatchUp {
		return false
	}
	missed := (lag - s.maxCatchUp + h.interval - 1) / h.interval
	h.due = h.due.Add(missed * h.interval)
	s.log.Debug("skipped missed ticks",
		zap.String("kind", string(h.task.Kind)),
		zap.Int64("ticks", int64(missed)),
	)
	if !h.due.After(now) {
		return false
	}
	s.seq++
	h.seq = s.seq
	heap.Push(&s.queue, h)
	return true
}

// AdvanceBy moves the clock forward by d.
func (s *Scheduler) AdvanceBy(d time.Duration) {
	s.Advance(s.Now().Add(d))
}

func (s *Scheduler) run(h *Handle, at time.Time) {
	defer func() {
		if r := recover(); r != nil {
			task := h.Task()
			s.log.Error("task faulted, cancelling",
				zap.String("kind", string(task.Kind)),
				zap.String("task_id", task.ID.String()),
				zap.String("panic", fmt.Sprint(r)),
			)
			h.Cancel()
		}
	}()
	h.fn(at)
}

// Scope groups the tasks of one mounted component.
type Scope struct {
	mu      sync.Mutex
	sched   *Scheduler
	handles []*Handle
	closed  bool
}

// Scope creates an owner for a set of tasks.
func (s *Scheduler) Scope() *Scope {
	return &Scope{sched: s}
}

// Scheduler returns the scheduler the scope schedules on.
func (sc *Scope) Scheduler() *Scheduler {
	return sc.sched
}

// Now returns the scheduler's current time.
func (sc *Scope) Now() time.Time {
	return sc.sched.Now()
}

// After schedules a one-shot task owned by the scope.
func (sc *Scope) After(kind Kind, d time.Duration, fn func(now time.Time)) *Handle {
	return sc.track(func() *Handle { return sc.sched.After(kind, d, fn) }, kind)
}

// At schedules a one-shot task at an absolute instant owned by the scope.
func (sc *Scope) At(kind Kind, due time.Time, fn func(now time.Time)) *Handle {
	return sc.track(func() *Handle { return sc.sched.At(kind, due, fn) }, kind)
}

// Every schedules a repeating task owned by the scope.
func (sc *Scope) Every(kind Kind, interval time.Duration, fn func(now time.Time)) *Handle {
	return sc.track(func() *Handle { return sc.sched.Every(kind, interval, fn) }, kind)
}

// RequestFrame schedules a frame callback owned by the scope.
func (sc *Scope) RequestFrame(fn func(now time.Time)) *Handle {
	return sc.track(func() *Handle { return sc.sched.RequestFrame(fn) }, KindFrame)
}

func (sc *Scope) track(schedule func() *Handle, kind Kind) *Handle {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return &Handle{task: Task{ID: uuid.New(), Kind: kind, StartedAt: sc.sched.Now(), Cancelled: true}, index: -1}
	}
	h := schedule()
	live := sc.handles[:0]
	for _, old := range sc.handles {
		if !old.Cancelled() && !old.Done() {
			live = append(live, old)
		}
	}
	sc.handles = append(live, h)
	return h
}

// Close cancels every task of the scope; later scheduling yields cancelled handles.
func (sc *Scope) Close() {
	sc.mu.Lock()
	handles := sc.handles
	sc.handles = nil
	sc.closed = true
	sc.mu.Unlock()
	for _, h := range handles {
		h.Cancel()
	}
}

// Closed reports whether Close was called.
func (sc *Scope) Closed() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.closed
}
