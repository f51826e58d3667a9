package anim

import (
	"sync"
	"time"
)

// DefaultRoleInterval is how long each role stays before the next one starts typing.
const DefaultRoleInterval = 3 * time.Second

// RoleRotator cycles through a fixed list of roles, typing each one out.
type RoleRotator struct {
	mu       sync.Mutex
	roles    []string
	index    int
	interval time.Duration
	writer   *Typewriter
	scope    *Scope
	tick     *Handle
	onRotate func(index int, role string)
}

// NewRoleRotator creates a stopped rotator over roles that feeds writer.
func NewRoleRotator(scope *Scope, roles []string, interval time.Duration, writer *Typewriter) *RoleRotator {
	if interval <= 0 {
		interval = DefaultRoleInterval
	}
	return &RoleRotator{
		roles:    append([]string(nil), roles...),
		interval: interval,
		writer:   writer,
		scope:    scope,
	}
}

// OnRotate registers a callback run after every rotation.
func (r *RoleRotator) OnRotate(fn func(index int, role string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRotate = fn
}

// Start types the first role and begins cycling. Calling Start again restarts at 0.
func (r *RoleRotator) Start() {
	r.mu.Lock()
	if r.tick != nil {
		r.tick.Cancel()
		r.tick = nil
	}
	r.index = 0
	if len(r.roles) == 0 {
		r.mu.Unlock()
		return
	}
	first := r.roles[0]
	if len(r.roles) > 1 {
		r.tick = r.scope.Every(KindRoleRotate, r.interval, r.advance)
	}
	r.mu.Unlock()

	r.writer.SetTarget(first)
}

func (r *RoleRotator) advance(time.Time) {
	r.mu.Lock()
	r.index = (r.index + 1) % len(r.roles)
	idx, role, cb := r.index, r.roles[r.index], r.onRotate
	r.mu.Unlock()

	r.writer.SetTarget(role)
	if cb != nil {
		cb(idx, role)
	}
}

// Stop halts rotation and the typewriter.
func (r *RoleRotator) Stop() {
	r.mu.Lock()
	if r.tick != nil {
		r.tick.Cancel()
		r.tick = nil
	}
	r.mu.Unlock()
	r.writer.Stop()
}

// Index returns the current role index.
func (r *RoleRotator) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index
}

// Current returns the current role.
func (r *RoleRotator) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.roles) == 0 {
		return ""
	}
	return r.roles[r.index]
}
