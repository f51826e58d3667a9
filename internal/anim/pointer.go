package anim

import (
	"math"
	"sync"
	"time"

	"folio/internal/viewstate"

	"github.com/charmbracelet/harmonica"
	"go.uber.org/zap"
)

// Dispatcher is the part of the store the pointer follower writes to.
type Dispatcher interface {
	Dispatch(viewstate.Action) error
	Snapshot() viewstate.State
}

// Geometry is how the overlay sits relative to the pointer for one variant.
type Geometry struct {
	OffsetX float64
	OffsetY float64
	Scale   float64
}

// VariantGeometry is the overlay placement per pointer variant.
var VariantGeometry = map[viewstate.PointerVariant]Geometry{
	viewstate.PointerDefault: {OffsetX: -8, OffsetY: -8, Scale: 1},
	viewstate.PointerHover:   {OffsetX: -16, OffsetY: -16, Scale: 2},
	viewstate.PointerClick:   {OffsetX: -8, OffsetY: -8, Scale: 0.8},
}

// Overlay is what the view draws for the follower.
type Overlay struct {
	X       float64
	Y       float64
	Scale   float64
	Visible bool
	Variant viewstate.PointerVariant
}

// Spring tuning for the follower. Critically damped: no overshoot.
const (
	followFrequency = 12.0
	followDamping   = 1.0
	settleEpsilon   = 0.01
)

// PointerFollower tracks the pointer and drives the overlay toward it.
type PointerFollower struct {
	mu          sync.Mutex
	scope       *Scope
	store       Dispatcher
	spring      harmonica.Spring
	frame       time.Duration
	targetX     float64
	targetY     float64
	x, y        float64
	vx, vy      float64
	visible     bool
	seen        bool
	beforePress viewstate.PointerVariant
	tick        *Handle
	log         *zap.Logger
	onUpdate    func(Overlay)
}

// NewPointerFollower creates a hidden follower. It stays hidden until the first Move.
func NewPointerFollower(scope *Scope, store Dispatcher, log *zap.Logger) *PointerFollower {
	if log == nil {
		log = zap.NewNop()
	}
	frame := scope.Scheduler().FrameInterval()
	fps := int(time.Second / frame)
	if fps <= 0 {
		fps = 60
	}
	return &PointerFollower{
		scope:  scope,
		store:  store,
		spring: harmonica.NewSpring(harmonica.FPS(fps), followFrequency, followDamping),
		frame:  frame,
		log:    log,
	}
}

// OnUpdate registers a callback run whenever the overlay changes.
func (p *PointerFollower) OnUpdate(fn func(Overlay)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onUpdate = fn
}

// Move records a pointer movement. The first move snaps the overlay to the pointer.
func (p *PointerFollower) Move(x, y float64) {
	p.mu.Lock()
	p.targetX, p.targetY = x, y
	if !p.seen {
		p.x, p.y = x, y
		p.seen = true
	}
	p.visible = true
	if p.tick == nil || p.tick.Cancelled() {
		p.tick = p.scope.Every(KindPointerFollow, p.frame, p.step)
	}
	p.mu.Unlock()
	p.emit()
}

func (p *PointerFollower) step(time.Time) {
	p.mu.Lock()
	p.x, p.vx = p.spring.Update(p.x, p.vx, p.targetX)
	p.y, p.vy = p.spring.Update(p.y, p.vy, p.targetY)
	if settled(p.x, p.vx, p.targetX) && settled(p.y, p.vy, p.targetY) {
		p.x, p.y, p.vx, p.vy = p.targetX, p.targetY, 0, 0
		if p.tick != nil {
			p.tick.Cancel()
			p.tick = nil
		}
	}
	p.mu.Unlock()
	p.emit()
}

func settled(pos, vel, target float64) bool {
	return math.Abs(pos-target) < settleEpsilon && math.Abs(vel) < settleEpsilon
}

// Leave hides the overlay when the pointer leaves the document.
func (p *PointerFollower) Leave() {
	p.setVisible(false)
}

// Enter shows the overlay again when the pointer re-enters the document.
func (p *PointerFollower) Enter() {
	p.setVisible(true)
}

func (p *PointerFollower) setVisible(v bool) {
	p.mu.Lock()
	changed := p.visible != v
	p.visible = v
	p.mu.Unlock()
	if changed {
		p.emit()
	}
}

// HoverEnter is bound to interactive targets.
func (p *PointerFollower) HoverEnter() { p.setVariant(viewstate.PointerHover) }

// HoverLeave is bound to interactive targets.
func (p *PointerFollower) HoverLeave() { p.setVariant(viewstate.PointerDefault) }

// Press marks a click in progress.
func (p *PointerFollower) Press() {
	current := p.store.Snapshot().PointerVariant
	p.mu.Lock()
	if current != viewstate.PointerClick {
		p.beforePress = current
	}
	p.mu.Unlock()
	p.setVariant(viewstate.PointerClick)
}

// Release ends a click and restores the variant held before Press.
func (p *PointerFollower) Release() {
	p.mu.Lock()
	restore := p.beforePress
	p.beforePress = ""
	p.mu.Unlock()
	if restore == "" {
		restore = viewstate.PointerDefault
	}
	p.setVariant(restore)
}

func (p *PointerFollower) setVariant(v viewstate.PointerVariant) {
	if p.store.Snapshot().PointerVariant == v {
		return
	}
	if err := p.store.Dispatch(viewstate.SetPointerVariant{Variant: v}); err != nil {
		p.log.Debug("pointer variant rejected", zap.Error(err))
		return
	}
	p.emit()
}

// Overlay returns the follower's current placement.
func (p *PointerFollower) Overlay() Overlay {
	variant := p.store.Snapshot().PointerVariant
	g, ok := VariantGeometry[variant]
	if !ok {
		g = VariantGeometry[viewstate.PointerDefault]
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return Overlay{
		X:       p.x + g.OffsetX,
		Y:       p.y + g.OffsetY,
		Scale:   g.Scale,
		Visible: p.visible && p.seen,
		Variant: variant,
	}
}

// Animating reports whether the spring is still moving.
func (p *PointerFollower) Animating() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tick != nil && !p.tick.Cancelled()
}

func (p *PointerFollower) emit() {
	p.mu.Lock()
	cb := p.onUpdate
	p.mu.Unlock()
	if cb != nil {
		cb(p.Overlay())
	}
}
