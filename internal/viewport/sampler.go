// Package viewport turns raw scroll notifications into the page's active section.
//
// A Sampler coalesces scroll notifications to one committed sample per frame. One
// Detector per section watches those samples and reports threshold crossings. The
// Resolver folds both streams into SetActiveSection dispatches.
package viewport

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"folio/internal/anim"

	"go.uber.org/zap"
)

// ErrSignalUnavailable is returned when the underlying signal cannot be subscribed to.
// Callers keep running without scroll-driven activation.
var ErrSignalUnavailable = errors.New("viewport signal unavailable")

// ScrolledThreshold is the offset past which the header switches to its scrolled look.
const ScrolledThreshold = 20

// ScrollSource delivers raw scroll notifications.
type ScrollSource interface {
	SubscribeScroll(fn func(offset float64)) (unsubscribe func(), err error)
	ViewportHeight() float64
}

// FrameScheduler schedules work for the next rendered frame.
type FrameScheduler interface {
	RequestFrame(fn func(now time.Time)) *anim.Handle
	Now() time.Time
}

// ScrollSample is one committed scroll reading.
type ScrollSample struct {
	Offset         float64
	ViewportHeight float64
	ObservedAt     time.Time
}

// SamplerOption configures a Sampler.
type SamplerOption func(*Sampler)

// WithSamplerLogger sets the sampler logger.
func WithSamplerLogger(l *zap.Logger) SamplerOption {
	return func(s *Sampler) {
		if l != nil {
			s.log = l
		}
	}
}

type sampleSub struct {
	id int
	fn func(ScrollSample)
}

// Sampler exposes the current scroll offset, updated at most once per frame.
// Readers must tolerate a value one frame old.
type Sampler struct {
	mu          sync.Mutex
	source      ScrollSource
	frames      FrameScheduler
	unsubscribe func()
	pending     float64
	frame       *anim.Handle
	sample      ScrollSample
	subs        []sampleSub
	settled     []sampleSub
	delivering  bool
	nextID      int
	closed      bool
	log         *zap.Logger
}

// NewSampler subscribes to source. The initial sample is offset 0 at the frame
// scheduler's current time.
func NewSampler(source ScrollSource, frames FrameScheduler, opts ...SamplerOption) (s *Sampler, err error) {
	if source == nil || frames == nil {
		return nil, ErrSignalUnavailable
	}
	s = &Sampler{
		source: source,
		frames: frames,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sample = ScrollSample{ObservedAt: frames.Now(), ViewportHeight: safeHeight(source)}

	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("%w: %v", ErrSignalUnavailable, r)
		}
	}()
	unsubscribe, err := source.SubscribeScroll(s.notify)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignalUnavailable, err)
	}
	s.unsubscribe = unsubscribe
	return s, nil
}

func (s *Sampler) notify(offset float64) {
	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = offset
	if s.frame == nil {
		s.frame = s.frames.RequestFrame(s.commit)
	}
}

func (s *Sampler) commit(now time.Time) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.frame = nil
	s.sample = ScrollSample{
		Offset:         s.pending,
		ViewportHeight: safeHeight(s.source),
		ObservedAt:     now,
	}
	sample := s.sample
	subs := append([]sampleSub(nil), s.subs...)
	settled := append([]sampleSub(nil), s.settled...)
	s.delivering = true
	s.mu.Unlock()

	for _, sub := range subs {
		s.deliver(sub, sample)
	}

	s.mu.Lock()
	s.delivering = false
	s.mu.Unlock()
	for _, sub := range settled {
		s.deliver(sub, sample)
	}
}

func (s *Sampler) deliver(sub sampleSub, sample ScrollSample) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scroll subscriber panicked", zap.Int("subscriber", sub.id), zap.Any("panic", r))
		}
	}()
	sub.fn(sample)
}

func safeHeight(src ScrollSource) (h float64) {
	defer func() {
		if recover() != nil {
			h = 0
		}
	}()
	return src.ViewportHeight()
}

// Subscribe registers fn for every committed sample.
func (s *Sampler) Subscribe(fn func(ScrollSample)) (unsubscribe func()) {
	return s.subscribe(&s.subs, fn)
}

// SubscribeSettled registers fn to run after every Subscribe callback has seen the
// same sample. Consumers of detector output read a consistent frame from it.
func (s *Sampler) SubscribeSettled(fn func(ScrollSample)) (unsubscribe func()) {
	return s.subscribe(&s.settled, fn)
}

func (s *Sampler) subscribe(list *[]sampleSub, fn func(ScrollSample)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	if !s.closed {
		*list = append(*list, sampleSub{id: id, fn: fn})
	}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range *list {
				if sub.id == id {
					*list = append((*list)[:i:i], (*list)[i+1:]...)
					return
				}
			}
		})
	}
}

// Delivering reports whether a committed sample is still being fanned out to
// Subscribe callbacks.
func (s *Sampler) Delivering() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivering
}

// Sample returns the last committed sample.
func (s *Sampler) Sample() ScrollSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sample
}

// Offset returns the last committed scroll offset.
func (s *Sampler) Offset() float64 {
	return s.Sample().Offset
}

// Scrolled reports whether the page is scrolled past ScrolledThreshold.
func (s *Sampler) Scrolled() bool {
	return s.Offset() > ScrolledThreshold
}

// Progress returns how far the page is scrolled, from 0 to 1.
func (s *Sampler) Progress(contentHeight float64) float64 {
	sample := s.Sample()
	return ScrollProgress(sample.Offset, contentHeight, sample.ViewportHeight)
}

// ScrollProgress is offset / (content - viewport), clamped to [0, 1].
func ScrollProgress(offset, contentHeight, viewportHeight float64) float64 {
	scrollable := contentHeight - viewportHeight
	if scrollable <= 0 {
		return 0
	}
	return math.Max(0, math.Min(offset/scrollable, 1))
}

// Close unsubscribes from the source and drops any pending frame. It is idempotent.
func (s *Sampler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	frame := s.frame
	s.frame = nil
	s.subs = nil
	s.settled = nil
	unsubscribe := s.unsubscribe
	s.mu.Unlock()

	frame.Cancel()
	if unsubscribe != nil {
		unsubscribe()
	}
}
