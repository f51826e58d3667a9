// Package page is the terminal rendition of the portfolio page: a bubbletea model that
// wires the view-state store to a scrollable viewport, the section activation pipeline,
// the hero animations and the contact form.
package page

import (
	"time"

	"folio/cmd/folio/ui"
	"folio/internal/anim"
	"folio/internal/config"
	"folio/internal/relay"
	"folio/internal/viewport"
	"folio/internal/viewstate"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	bubbleviewport "github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"
)

// ThemeChangedMsg reports a theme written by another process.
type ThemeChangedMsg struct {
	Theme viewstate.Theme
}

type frameMsg time.Time

type submitResultMsg struct {
	err error
}

type region struct {
	top, height int
}

type navSpan struct {
	start, end int
	id         viewstate.SectionID
}

type staggerEntry struct {
	section viewstate.SectionID
	group   *anim.StaggerGroup
}

// Options configures a Model.
type Options struct {
	Config  *config.Config
	Store   *viewstate.Store
	Relay   relay.Relay
	Content *Content
	// Clock defaults to time.Now; it only seeds the scheduler.
	Clock  func() time.Time
	Logger *zap.Logger
}

// Model is the page.
type Model struct {
	cfg     *config.Config
	store   *viewstate.Store
	content Content
	log     *zap.Logger

	sched     *anim.Scheduler
	scope     *anim.Scope
	source    *scrollSource
	sampler   *viewport.Sampler
	detectors []*viewport.Detector
	resolver  *viewport.Resolver
	regions   map[viewstate.SectionID]region

	hero     *anim.Typewriter
	roles    *anim.RoleRotator
	stagger  map[string]staggerEntry
	follower *anim.PointerFollower
	form     *relay.Form
	resize   *ui.ResizeDebouncer

	vp      bubbleviewport.Model
	spin    spinner.Model
	bar     progress.Model
	inputs  []textinput.Model
	focus   int
	filter  string
	help    help.Model
	keys    keyMap
	formErr string

	theme    viewstate.Theme
	styles   ui.Styles
	md       *glamour.TermRenderer
	mdCache  *ui.RenderCache
	width    int
	height   int
	hoverNav int
	ready    bool
	dirty    bool
	quitting bool

	unsubscribe func()
}

// New builds the page around store. Scroll tracking that cannot start is logged and the
// page runs without section activation.
func New(opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	content := DefaultContent()
	if opts.Content != nil {
		content = *opts.Content
	}

	sched := anim.NewScheduler(clock(),
		anim.WithLogger(log.Named("anim")),
		anim.WithFrameInterval(cfg.GetFrameInterval()),
	)
	scope := sched.Scope()
	store := opts.Store
	theme := store.Snapshot().Theme

	m := &Model{
		cfg:      cfg,
		store:    store,
		content:  content,
		log:      log,
		sched:    sched,
		scope:    scope,
		source:   &scrollSource{},
		regions:  make(map[viewstate.SectionID]region),
		stagger:  make(map[string]staggerEntry),
		focus:    -1,
		filter:   FilterAll,
		hoverNav: -1,
		keys:     defaultKeyMap(),
		help:     help.New(),
		theme:    theme,
		styles:   ui.StylesFor(theme),
		mdCache:  ui.NewRenderCache(32),
		dirty:    true,
	}

	m.wireViewport()

	m.hero = anim.NewTypewriter(scope, cfg.GetTypewriterInterval(), func(string, anim.TypewriterState) {
		m.dirty = true
	})
	m.roles = anim.NewRoleRotator(scope, cfg.Animation.Roles, cfg.GetRoleInterval(), m.hero)

	for _, g := range cfg.Animation.Stagger {
		base, step := g.Delays()
		group := anim.NewStaggerGroup(scope, content.groupLen(g.Name, FilterAll), base, step)
		group.OnReveal(func(int, bool) { m.dirty = true })
		m.stagger[g.Name] = staggerEntry{section: viewstate.SectionID(g.Section), group: group}
	}

	if cfg.Pointer.Enabled {
		m.follower = anim.NewPointerFollower(scope, store, log.Named("pointer"))
	}
	m.form = relay.NewForm(store, opts.Relay, scope, cfg.GetRelayResetAfter(), log.Named("relay"))
	m.resize = ui.NewResizeDebouncer(scope, ui.DefaultResizeDuration)

	m.spin = spinner.New()
	m.spin.Spinner = spinner.Dot
	m.spin.Style = m.styles.Pending
	m.bar = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	m.vp = bubbleviewport.New(0, 0)
	m.inputs = newInputs()

	m.unsubscribe = store.Subscribe(m.onCommit)
	return m
}

func (m *Model) wireViewport() {
	vlog := m.log.Named("viewport")
	sampler, err := viewport.NewSampler(m.source, m.scope, viewport.WithSamplerLogger(vlog))
	if err != nil {
		vlog.Warn("scroll tracking disabled", zap.Error(err))
	}
	m.sampler = sampler
	m.resolver = viewport.NewResolver(m.store, m.store.Sections(), sampler, viewport.WithResolverLogger(vlog))
	if sampler == nil {
		return
	}
	for _, id := range m.store.Sections() {
		d, err := viewport.NewDetector(id, m.region(id), sampler, m.cfg.Viewport.VisibilityThreshold, viewport.WithDetectorLogger(vlog))
		if err != nil {
			vlog.Warn("visibility detector disabled", zap.String("section", string(id)), zap.Error(err))
			continue
		}
		m.resolver.Attach(d)
		d.Subscribe(m.onVisibility)
		m.detectors = append(m.detectors, d)
	}
}

func newInputs() []textinput.Model {
	fields := []struct {
		placeholder string
		limit       int
	}{
		{"Your name", 80},
		{"you@example.com", 120},
		{"What is it about?", 120},
		{"Your message", 1000},
	}
	inputs := make([]textinput.Model, len(fields))
	for i, f := range fields {
		in := textinput.New()
		in.Placeholder = f.placeholder
		in.CharLimit = f.limit
		inputs[i] = in
	}
	return inputs
}

// region exposes the rendered line range of a section to its detector.
func (m *Model) region(id viewstate.SectionID) viewport.Region {
	return func() (float64, float64, bool) {
		r, ok := m.regions[id]
		if !ok || !m.ready {
			return 0, 0, false
		}
		return float64(r.top), float64(r.height), true
	}
}

func (m *Model) onCommit(s viewstate.State) {
	if s.Theme != m.theme {
		m.theme = s.Theme
		m.styles = ui.StylesFor(s.Theme)
		m.spin.Style = m.styles.Pending
		m.md = nil
		m.mdCache.Clear()
	}
	m.dirty = true
}

func (m *Model) onVisibility(ev viewport.VisibilityEvent) {
	for _, e := range m.stagger {
		if e.section == ev.SectionID {
			e.group.SetVisible(ev.Visible, ev.ObservedAt)
		}
	}
}

// setFilter switches the project category. The projects that remain are staggered in
// again from now.
func (m *Model) setFilter(id string) {
	if id == m.filter {
		return
	}
	m.filter = id
	if e, ok := m.stagger["projects"]; ok {
		e.group.Restart(m.content.groupLen("projects", id), m.sched.Now())
	}
	m.dirty = true
}

// Store returns the page's store.
func (m *Model) Store() *viewstate.Store {
	return m.store
}

// Close stops every timer, detector and subscription of the page. It is idempotent.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.roles.Stop()
	m.form.Close()
	m.resize.Cancel()
	m.resolver.Close()
	for _, d := range m.detectors {
		d.Close()
	}
	if m.sampler != nil {
		m.sampler.Close()
	}
	m.scope.Close()
}
