package viewstate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Listener receives the snapshot produced by one committed transition.
type Listener func(State)

// ThemePersister durably stores the theme preference.
type ThemePersister interface {
	WriteTheme(ctx context.Context, theme Theme) error
}

// DarkFlag mirrors the committed theme onto a process-wide visual flag.
type DarkFlag func(dark bool)

// RejectHook observes every action Dispatch refuses, with the reason.
type RejectHook func(Action, error)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithThemePersister sets where committed themes are written.
func WithThemePersister(p ThemePersister) Option {
	return func(s *Store) { s.persister = p }
}

// WithDarkFlag sets the global dark-mode sink.
func WithDarkFlag(f DarkFlag) Option {
	return func(s *Store) { s.darkFlag = f }
}

// WithRejectHook sets the observer of refused actions.
func WithRejectHook(h RejectHook) Option {
	return func(s *Store) { s.onReject = h }
}

// WithPersistTimeout bounds each theme write.
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.persistTimeout = d
		}
	}
}

type commit struct {
	action Action
	state  State
}

type subscription struct {
	id int
	fn Listener
}

// Store owns the State and is its only writer.
//
// Dispatch commits immediately. Notifications are delivered by whichever Dispatch call
// is not already delivering, so a listener that dispatches sees its own commit delivered
// after the current round, and every listener observes commits in commit order.
type Store struct {
	mu        sync.Mutex
	state     State
	sections  Sections
	version   uint64
	listeners []subscription
	nextID    int
	pending   []commit
	draining  bool

	persister      ThemePersister
	darkFlag       DarkFlag
	onReject       RejectHook
	persistTimeout time.Duration
	log            *zap.Logger
}

// NewStore creates a store holding initial. The section list is copied; it is the fixed
// set of ids SetActiveSection and Navigate accept.
func NewStore(initial State, sections Sections, opts ...Option) *Store {
	s := &Store{
		state:          initial,
		sections:       append(Sections(nil), sections...),
		persistTimeout: 2 * time.Second,
		log:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.sections.Contains(s.state.ActiveSection) {
		s.state.ActiveSection = s.sections.First()
	}
	return s
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Version returns the number of committed transitions.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Sections returns the known section list.
func (s *Store) Sections() Sections {
	return append(Sections(nil), s.sections...)
}

// Dispatch applies exactly one transition. A rejected action leaves the state unchanged
// and returns the reason; nothing is notified, and the reject hook sees it.
//
// Called from outside a listener, Dispatch returns after every listener has seen the
// commit. Called from inside a listener, it returns as soon as the commit is applied:
// Snapshot already reflects it, but listeners are notified only once the current
// notification round finishes.
func (s *Store) Dispatch(action Action) error {
	s.mu.Lock()
	next, err := Reduce(s.state, action, s.sections)
	if err != nil {
		hook := s.onReject
		s.mu.Unlock()
		s.log.Debug("action rejected", zap.Error(err))
		if hook != nil {
			s.reject(hook, action, err)
		}
		return err
	}
	s.state = next
	s.version++
	s.pending = append(s.pending, commit{action: action, state: next})
	if s.draining {
		s.mu.Unlock()
		return nil
	}

	s.draining = true
	for len(s.pending) > 0 {
		c := s.pending[0]
		s.pending = s.pending[1:]
		listeners := append([]subscription(nil), s.listeners...)
		s.mu.Unlock()

		s.applyEffects(c)
		for _, sub := range listeners {
			s.notify(sub, c)
		}

		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
	return nil
}

// Subscribe registers fn for every future commit. The returned func removes it and may
// be called any number of times.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// ToggleTheme dispatches SetTheme with the opposite of the current theme.
func (s *Store) ToggleTheme() error {
	return s.Dispatch(SetTheme{Theme: s.Snapshot().Theme.Opposite()})
}

func (s *Store) reject(hook RejectHook, action Action, err error) {
	defer s.recoverPanic("reject hook")
	hook(action, err)
}

func (s *Store) applyEffects(c commit) {
	set, ok := c.action.(SetTheme)
	if !ok {
		return
	}
	theme := c.state.Theme

	if s.persister != nil {
		func() {
			defer s.recoverPanic("theme persister")
			ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
			defer cancel()
			if err := s.persister.WriteTheme(ctx, theme); err != nil {
				s.log.Warn("failed to persist theme", zap.String("theme", string(set.Theme)), zap.Error(err))
			}
		}()
	}
	if s.darkFlag != nil {
		func() {
			defer s.recoverPanic("dark flag")
			s.darkFlag(theme == ThemeDark)
		}()
	}
}

func (s *Store) notify(sub subscription, c commit) {
	defer s.recoverPanic(fmt.Sprintf("listener %d", sub.id))
	sub.fn(c.state)
}

func (s *Store) recoverPanic(where string) {
	if r := recover(); r != nil {
		s.log.Error("recovered panic", zap.String("in", where), zap.Any("panic", r))
	}
}
