package anim

import (
	"sync"
	"time"
)

// StaggerGroup reveals a section's items one after another once the section becomes
// visible. Item i is revealed at visibleAt + Base + i*Step; hiding is immediate.
type StaggerGroup struct {
	mu       sync.Mutex
	scope    *Scope
	base     time.Duration
	step     time.Duration
	revealed []bool
	pending  []*Handle
	visible  bool
	onReveal func(index int, revealed bool)
}

// NewStaggerGroup creates a hidden group of n items.
func NewStaggerGroup(scope *Scope, n int, base, step time.Duration) *StaggerGroup {
	if n < 0 {
		n = 0
	}
	return &StaggerGroup{
		scope:    scope,
		base:     base,
		step:     step,
		revealed: make([]bool, n),
	}
}

// OnReveal registers a callback for every item visibility change.
func (g *StaggerGroup) OnReveal(fn func(index int, revealed bool)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onReveal = fn
}

// Delay returns the offset of item i from the visibility event.
func (g *StaggerGroup) Delay(i int) time.Duration {
	return g.base + time.Duration(i)*g.step
}

// SetVisible follows the owning section's visibility. A repeated true while already
// visible keeps the original schedule.
func (g *StaggerGroup) SetVisible(visible bool, at time.Time) {
	g.mu.Lock()
	if visible == g.visible {
		g.mu.Unlock()
		return
	}
	g.visible = visible

	if visible {
		g.pending = g.pending[:0]
		g.scheduleLocked(at)
		g.mu.Unlock()
		return
	}

	for _, h := range g.pending {
		h.Cancel()
	}
	g.pending = g.pending[:0]
	var hidden []int
	for i, r := range g.revealed {
		if r {
			g.revealed[i] = false
			hidden = append(hidden, i)
		}
	}
	cb := g.onReveal
	g.mu.Unlock()

	if cb != nil {
		for _, i := range hidden {
			cb(i, false)
		}
	}
}

// Restart replaces the item list with n fresh items. Pending reveals are cancelled and
// every item is hidden; if the section is visible the new items are staggered from at.
func (g *StaggerGroup) Restart(n int, at time.Time) {
	if n < 0 {
		n = 0
	}
	g.mu.Lock()
	for _, h := range g.pending {
		h.Cancel()
	}
	g.pending = g.pending[:0]
	var hidden []int
	for i, r := range g.revealed {
		if r {
			hidden = append(hidden, i)
		}
	}
	g.revealed = make([]bool, n)
	if g.visible {
		g.scheduleLocked(at)
	}
	cb := g.onReveal
	g.mu.Unlock()

	if cb != nil {
		for _, i := range hidden {
			cb(i, false)
		}
	}
}

func (g *StaggerGroup) scheduleLocked(at time.Time) {
	for i := range g.revealed {
		i := i
		g.pending = append(g.pending, g.scope.At(KindStaggerReveal, at.Add(g.Delay(i)), func(time.Time) {
			g.reveal(i)
		}))
	}
}

func (g *StaggerGroup) reveal(i int) {
	g.mu.Lock()
	if !g.visible || i >= len(g.revealed) || g.revealed[i] {
		g.mu.Unlock()
		return
	}
	g.revealed[i] = true
	cb := g.onReveal
	g.mu.Unlock()
	if cb != nil {
		cb(i, true)
	}
}

// Revealed reports whether item i is currently shown.
func (g *StaggerGroup) Revealed(i int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i < 0 || i >= len(g.revealed) {
		return false
	}
	return g.revealed[i]
}

// RevealedCount returns how many items are shown.
func (g *StaggerGroup) RevealedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, r := range g.revealed {
		if r {
			n++
		}
	}
	return n
}

// Len returns the number of items.
func (g *StaggerGroup) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.revealed)
}

// Visible reports whether the owning section is currently visible.
func (g *StaggerGroup) Visible() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.visible
}
