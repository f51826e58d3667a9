package viewport

import (
	"math"
	"sync"
	"time"

	"folio/internal/viewstate"

	"go.uber.org/zap"
)

// DefaultThreshold is the visible fraction a section must reach to count as visible.
const DefaultThreshold = 0.1

// VisibilityEvent reports a section crossing the visibility threshold.
type VisibilityEvent struct {
	SectionID  viewstate.SectionID
	Visible    bool
	ObservedAt time.Time
}

// Region reports where a section sits on the page. ok is false while it has no layout.
type Region func() (top, height float64, ok bool)

// VisibleFraction is the share of a region inside the viewport, measured against the
// smaller of the region and the viewport so tall sections can still become fully visible.
func VisibleFraction(top, height, offset, viewportHeight float64) float64 {
	if height <= 0 || viewportHeight <= 0 {
		return 0
	}
	visible := math.Min(top+height, offset+viewportHeight) - math.Max(top, offset)
	if visible <= 0 {
		return 0
	}
	return math.Min(visible/math.Min(height, viewportHeight), 1)
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithDetectorLogger sets the detector logger.
func WithDetectorLogger(l *zap.Logger) DetectorOption {
	return func(d *Detector) {
		if l != nil {
			d.log = l
		}
	}
}

type eventSub struct {
	id int
	fn func(VisibilityEvent)
}

// Detector watches one section. It fires only on crossings and never after Close.
type Detector struct {
	mu          sync.Mutex
	id          viewstate.SectionID
	region      Region
	sampler     *Sampler
	threshold   float64
	visible     bool
	unsubscribe func()
	subs        []eventSub
	closers     []func()
	nextID      int
	closed      bool
	log         *zap.Logger
}

// NewDetector binds a detector to a section region and starts watching sampler.
func NewDetector(id viewstate.SectionID, region Region, sampler *Sampler, threshold float64, opts ...DetectorOption) (*Detector, error) {
	if sampler == nil || region == nil {
		return nil, ErrSignalUnavailable
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	d := &Detector{
		id:        id,
		region:    region,
		sampler:   sampler,
		threshold: threshold,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.unsubscribe = sampler.Subscribe(d.observe)
	return d, nil
}

// SectionID returns the watched section.
func (d *Detector) SectionID() viewstate.SectionID {
	return d.id
}

// Visible reports the last state the detector fired.
func (d *Detector) Visible() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.visible
}

// Subscribe registers fn for future crossings.
func (d *Detector) Subscribe(fn func(VisibilityEvent)) (unsubscribe func()) {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	if !d.closed {
		d.subs = append(d.subs, eventSub{id: id, fn: fn})
	}
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			for i, sub := range d.subs {
				if sub.id == id {
					d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Check re-evaluates against the sampler's current sample, for mounts and layout changes.
func (d *Detector) Check(at time.Time) {
	sample := d.sampler.Sample()
	sample.ObservedAt = at
	d.observe(sample)
}

func (d *Detector) observe(sample ScrollSample) {
	visible, ok := d.measure(sample)
	if !ok {
		return
	}

	d.mu.Lock()
	if d.closed || visible == d.visible {
		d.mu.Unlock()
		return
	}
	d.visible = visible
	subs := append([]eventSub(nil), d.subs...)
	d.mu.Unlock()

	ev := VisibilityEvent{SectionID: d.id, Visible: visible, ObservedAt: sample.ObservedAt}
	for _, sub := range subs {
		d.deliver(sub, ev)
	}
}

func (d *Detector) measure(sample ScrollSample) (visible, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Warn("section region panicked", zap.String("section", string(d.id)), zap.Any("panic", r))
			visible, ok = false, false
		}
	}()
	top, height, ok := d.region()
	if !ok {
		return false, false
	}
	fraction := VisibleFraction(top, height, sample.Offset, sample.ViewportHeight)
	return fraction > 0 && fraction >= d.threshold, true
}

func (d *Detector) deliver(sub eventSub, ev VisibilityEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("visibility subscriber panicked", zap.String("section", string(d.id)), zap.Any("panic", r))
		}
	}()
	sub.fn(ev)
}

// onClose registers fn to run once when the detector is closed. A closed detector runs
// it immediately.
func (d *Detector) onClose(fn func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		fn()
		return
	}
	d.closers = append(d.closers, fn)
	d.mu.Unlock()
}

// Close stops watching. It is idempotent.
func (d *Detector) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.subs = nil
	closers := d.closers
	d.closers = nil
	unsubscribe := d.unsubscribe
	d.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	for _, fn := range closers {
		fn()
	}
}
