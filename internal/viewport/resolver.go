package viewport

import (
	"sync"
	"time"

	"folio/internal/viewstate"

	"go.uber.org/zap"
)

// Dispatcher is the part of the store the resolver writes to.
type Dispatcher interface {
	Dispatch(viewstate.Action) error
	Snapshot() viewstate.State
}

type sectionEntry struct {
	visible bool
	since   time.Time
	arrival uint64
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the resolver logger.
func WithResolverLogger(l *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// Resolver keeps the store's active section in line with scroll and visibility:
//
//  1. at offset zero the first section wins, whatever the detectors say
//  2. otherwise the visible section that became visible last wins
//  3. with nothing visible the current section stays
//  4. only an actual change is dispatched
//
// Visibility events raised while the sampler fans a sample out to the detectors are
// only recorded; the sample is resolved once every detector has seen it.
type Resolver struct {
	mu       sync.Mutex
	store    Dispatcher
	sections viewstate.Sections
	sampler  *Sampler
	entries  map[viewstate.SectionID]*sectionEntry
	arrivals uint64
	unsubs   []func()
	closed   bool
	log      *zap.Logger
}

// NewResolver creates a resolver. sampler may be nil when scroll tracking is unavailable;
// rule 1 then never applies.
func NewResolver(store Dispatcher, sections viewstate.Sections, sampler *Sampler, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:    store,
		sections: append(viewstate.Sections(nil), sections...),
		sampler:  sampler,
		entries:  make(map[viewstate.SectionID]*sectionEntry),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if sampler != nil {
		r.unsubs = append(r.unsubs, sampler.SubscribeSettled(func(ScrollSample) { r.evaluate() }))
	}
	return r
}

// Attach starts consuming a detector's events until either side is closed. Closing the
// detector forgets its section, so an unmounted section can no longer win.
func (r *Resolver) Attach(d *Detector) {
	id := d.SectionID()
	unsubscribe := d.Subscribe(r.Observe)
	d.onClose(func() { r.forget(id) })
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		unsubscribe()
		return
	}
	r.unsubs = append(r.unsubs, unsubscribe)
}

func (r *Resolver) forget(id viewstate.SectionID) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if ok && e.visible {
		r.evaluate()
	}
}

// Observe records one visibility event and re-resolves.
func (r *Resolver) Observe(ev VisibilityEvent) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if !r.sections.Contains(ev.SectionID) {
		r.mu.Unlock()
		r.log.Debug("ignoring event for unknown section", zap.String("section", string(ev.SectionID)))
		return
	}
	e, ok := r.entries[ev.SectionID]
	if !ok {
		e = &sectionEntry{}
		r.entries[ev.SectionID] = e
	}
	e.visible = ev.Visible
	if ev.Visible {
		r.arrivals++
		e.since = ev.ObservedAt
		e.arrival = r.arrivals
	}
	r.mu.Unlock()

	if r.sampler != nil && r.sampler.Delivering() {
		return
	}
	r.evaluate()
}

// Resolve computes the winning section without dispatching. ok is false when the
// policy leaves the current section in place.
func (r *Resolver) Resolve() (viewstate.SectionID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked()
}

func (r *Resolver) resolveLocked() (viewstate.SectionID, bool) {
	if r.sampler != nil && r.sampler.Offset() <= 0 {
		return r.sections.First(), true
	}

	var (
		winner viewstate.SectionID
		best   *sectionEntry
	)
	for _, id := range r.sections {
		e, ok := r.entries[id]
		if !ok || !e.visible {
			continue
		}
		if best == nil || e.since.After(best.since) || (e.since.Equal(best.since) && e.arrival > best.arrival) {
			winner, best = id, e
		}
	}
	return winner, best != nil
}

func (r *Resolver) evaluate() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	winner, ok := r.resolveLocked()
	r.mu.Unlock()
	if !ok || r.store.Snapshot().ActiveSection == winner {
		return
	}
	if err := r.store.Dispatch(viewstate.SetActiveSection{ID: winner}); err != nil {
		r.log.Warn("active section rejected", zap.String("section", string(winner)), zap.Error(err))
	}
}

// Close detaches from the sampler and every detector. A closed resolver never dispatches.
func (r *Resolver) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	unsubs := r.unsubs
	r.unsubs = nil
	r.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
}
