package anim

import (
	"strings"
	"sync"
	"time"

	"github.com/rivo/uniseg"
)

// TypewriterState is the phase of a Typewriter.
type TypewriterState int

const (
	TypewriterIdle TypewriterState = iota
	TypewriterRevealing
	TypewriterComplete
)

// String returns a human-readable name for the state.
func (s TypewriterState) String() string {
	switch s {
	case TypewriterIdle:
		return "idle"
	case TypewriterRevealing:
		return "revealing"
	case TypewriterComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// DefaultTypewriterInterval is the reveal speed used when none is configured.
const DefaultTypewriterInterval = 50 * time.Millisecond

// Typewriter reveals a target text one grapheme cluster per interval.
type Typewriter struct {
	mu       sync.Mutex
	scope    *Scope
	interval time.Duration
	target   string
	units    []string
	shown    int
	state    TypewriterState
	tick     *Handle
	onChange func(text string, state TypewriterState)
}

// NewTypewriter creates an idle typewriter. onChange, if set, is called after every
// visible change with the current prefix.
func NewTypewriter(scope *Scope, interval time.Duration, onChange func(string, TypewriterState)) *Typewriter {
	if interval <= 0 {
		interval = DefaultTypewriterInterval
	}
	return &Typewriter{
		scope:    scope,
		interval: interval,
		state:    TypewriterIdle,
		onChange: onChange,
	}
}

// SetTarget restarts the reveal from an empty prefix, cancelling any pending tick of the
// previous target. It always resets, even when text equals the current target.
func (t *Typewriter) SetTarget(text string) {
	t.mu.Lock()
	if t.tick != nil {
		t.tick.Cancel()
		t.tick = nil
	}
	t.target = text
	t.units = splitGraphemes(text)
	t.shown = 0
	t.state = TypewriterIdle

	if len(t.units) == 0 {
		t.state = TypewriterComplete
		t.mu.Unlock()
		t.emit()
		return
	}

	t.state = TypewriterRevealing
	t.tick = t.scope.Every(KindTypewriter, t.interval, t.step)
	t.mu.Unlock()
	t.emit()
}

func (t *Typewriter) step(time.Time) {
	t.mu.Lock()
	if t.state != TypewriterRevealing {
		t.mu.Unlock()
		return
	}
	t.shown++
	if t.shown >= len(t.units) {
		t.shown = len(t.units)
		t.state = TypewriterComplete
		if t.tick != nil {
			t.tick.Cancel()
			t.tick = nil
		}
	}
	t.mu.Unlock()
	t.emit()
}

func (t *Typewriter) emit() {
	if t.onChange == nil {
		return
	}
	text, state := t.Text(), t.State()
	t.onChange(text, state)
}

// Text returns the revealed prefix.
func (t *Typewriter) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.units[:t.shown], "")
}

// Target returns the full text being revealed.
func (t *Typewriter) Target() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.target
}

// State returns the current phase.
func (t *Typewriter) State() TypewriterState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Progress returns revealed and total unit counts.
func (t *Typewriter) Progress() (shown, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shown, len(t.units)
}

// Stop cancels the pending tick without touching the revealed text.
func (t *Typewriter) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tick != nil {
		t.tick.Cancel()
		t.tick = nil
	}
}

func splitGraphemes(s string) []string {
	var units []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		units = append(units, g.Str())
	}
	return units
}
