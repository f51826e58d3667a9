package viewport

import (
	"math/rand"
	"testing"
	"time"

	"folio/internal/viewstate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Page layout used by the resolver tests: four 600px sections under an 800px viewport.
var layout = map[viewstate.SectionID][2]float64{
	viewstate.SectionHome:     {0, 600},
	viewstate.SectionAbout:    {600, 600},
	viewstate.SectionProjects: {1200, 600},
	viewstate.SectionContact:  {1800, 600},
}

type page struct {
	store     *viewstate.Store
	resolver  *Resolver
	detectors map[viewstate.SectionID]*Detector
}

func newPage(t *testing.T, s *Sampler) *page {
	t.Helper()
	store := viewstate.NewStore(viewstate.InitialState(viewstate.ThemeLight, viewstate.DefaultSections), viewstate.DefaultSections)
	p := &page{
		store:     store,
		resolver:  NewResolver(store, viewstate.DefaultSections, s),
		detectors: make(map[viewstate.SectionID]*Detector),
	}
	for _, id := range viewstate.DefaultSections {
		box := layout[id]
		d, err := NewDetector(id, fixedRegion(box[0], box[1]), s, DefaultThreshold)
		require.NoError(t, err)
		p.resolver.Attach(d)
		p.detectors[id] = d
	}
	t.Cleanup(func() {
		p.resolver.Close()
		for _, d := range p.detectors {
			d.Close()
		}
	})
	return p
}

func TestResolver_TopOfPageForcesFirstSection(t *testing.T) {
	sched, _, s := newTestSampler(t, 800)
	p := newPage(t, s)

	for _, d := range p.detectors {
		d.Check(sched.Now())
	}

	require.True(t, p.detectors[viewstate.SectionAbout].Visible(), "about peeks into the first screen")
	assert.Equal(t, viewstate.SectionHome, p.store.Snapshot().ActiveSection)
	id, ok := p.resolver.Resolve()
	assert.True(t, ok)
	assert.Equal(t, viewstate.SectionHome, id)
}

func TestResolver_LatestVisibleWins(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)
	p := newPage(t, s)
	scrollTo(sched, src, 700)

	p.resolver.Observe(VisibilityEvent{SectionID: viewstate.SectionAbout, Visible: true, ObservedAt: epoch.Add(100 * time.Millisecond)})
	p.resolver.Observe(VisibilityEvent{SectionID: viewstate.SectionProjects, Visible: true, ObservedAt: epoch.Add(120 * time.Millisecond)})

	assert.Equal(t, viewstate.SectionProjects, p.store.Snapshot().ActiveSection)
}

func TestResolver_TieGoesToLaterArrival(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)
	p := newPage(t, s)
	scrollTo(sched, src, 700)

	at := epoch.Add(time.Second)
	p.resolver.Observe(VisibilityEvent{SectionID: viewstate.SectionContact, Visible: true, ObservedAt: at})
	p.resolver.Observe(VisibilityEvent{SectionID: viewstate.SectionAbout, Visible: true, ObservedAt: at})

	assert.Equal(t, viewstate.SectionAbout, p.store.Snapshot().ActiveSection)
}

func TestResolver_NothingVisibleKeepsCurrent(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)
	p := newPage(t, s)
	scrollTo(sched, src, 1000)
	require.Equal(t, viewstate.SectionProjects, p.store.Snapshot().ActiveSection)

	for _, id := range viewstate.DefaultSections {
		p.resolver.Observe(VisibilityEvent{SectionID: id, Visible: false, ObservedAt: sched.Now()})
	}

	_, ok := p.resolver.Resolve()
	assert.False(t, ok)
	assert.Equal(t, viewstate.SectionProjects, p.store.Snapshot().ActiveSection)
}

func TestResolver_DispatchesOnlyOnChange(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)
	p := newPage(t, s)

	scrollTo(sched, src, 700)
	active := p.store.Snapshot().ActiveSection

	commits := 0
	p.store.Subscribe(func(viewstate.State) { commits++ })
	scrollTo(sched, src, 710)
	scrollTo(sched, src, 720)

	assert.Zero(t, commits)
	assert.Equal(t, active, p.store.Snapshot().ActiveSection)
}

func TestResolver_ScrollingDownThePage(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)
	p := newPage(t, s)

	var seen []viewstate.SectionID
	p.store.Subscribe(func(st viewstate.State) { seen = append(seen, st.ActiveSection) })

	for offset := 0.0; offset <= 1600; offset += 100 {
		scrollTo(sched, src, offset)
	}
	scrollTo(sched, src, 0)

	assert.Equal(t, []viewstate.SectionID{
		viewstate.SectionAbout,
		viewstate.SectionProjects,
		viewstate.SectionContact,
		viewstate.SectionHome,
	}, seen)
}

func TestResolver_IgnoresUnknownSections(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)
	p := newPage(t, s)
	scrollTo(sched, src, 700)
	before := p.store.Snapshot().ActiveSection

	p.resolver.Observe(VisibilityEvent{SectionID: "blog", Visible: true, ObservedAt: sched.Now().Add(time.Hour)})
	assert.Equal(t, before, p.store.Snapshot().ActiveSection)
}

func TestResolver_ClosedNeverDispatches(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)
	p := newPage(t, s)
	p.resolver.Close()
	p.resolver.Close()

	scrollTo(sched, src, 1300)
	p.resolver.Observe(VisibilityEvent{SectionID: viewstate.SectionContact, Visible: true, ObservedAt: sched.Now()})

	assert.Equal(t, viewstate.SectionHome, p.store.Snapshot().ActiveSection)
	assert.Zero(t, p.store.Version())
}

func TestResolver_WithoutSamplerUsesVisibilityOnly(t *testing.T) {
	store := viewstate.NewStore(viewstate.InitialState(viewstate.ThemeLight, viewstate.DefaultSections), viewstate.DefaultSections)
	r := NewResolver(store, viewstate.DefaultSections, nil)
	defer r.Close()

	r.Observe(VisibilityEvent{SectionID: viewstate.SectionContact, Visible: true, ObservedAt: epoch})
	assert.Equal(t, viewstate.SectionContact, store.Snapshot().ActiveSection)
}

func TestResolver_ActiveSectionIsAlwaysKnown(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	sched, src, s := newTestSampler(t, 800)
	p := newPage(t, s)

	ids := append(viewstate.Sections{"blog", ""}, viewstate.DefaultSections...)
	for i := 0; i < 500; i++ {
		switch rng.Intn(3) {
		case 0:
			scrollTo(sched, src, rng.Float64()*2400)
		case 1:
			scrollTo(sched, src, 0)
		default:
			p.resolver.Observe(VisibilityEvent{
				SectionID:  ids[rng.Intn(len(ids))],
				Visible:    rng.Intn(2) == 0,
				ObservedAt: sched.Now().Add(time.Duration(rng.Intn(100)) * time.Millisecond),
			})
		}
		require.True(t, viewstate.DefaultSections.Contains(p.store.Snapshot().ActiveSection))
	}
}

func TestResolver_JumpCommitsOnlyVisibleSections(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)
	p := newPage(t, s)
	for _, d := range p.detectors {
		d.Check(sched.Now())
	}
	require.Equal(t, viewstate.SectionHome, p.store.Snapshot().ActiveSection)

	var committed []viewstate.SectionID
	p.store.Subscribe(func(st viewstate.State) { committed = append(committed, st.ActiveSection) })

	scrollTo(sched, src, 1800)

	assert.Equal(t, []viewstate.SectionID{viewstate.SectionContact}, committed)
	for _, id := range committed {
		box := layout[id]
		assert.Positive(t, VisibleFraction(box[0], box[1], 1800, 800), "committed %s off screen", id)
	}
}

func TestResolver_FastScrollNeverCommitsOffscreenSection(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)
	p := newPage(t, s)

	offsets := []float64{0, 1700, 100, 1250, 0, 650, 1800, 0}
	var offset float64
	p.store.Subscribe(func(st viewstate.State) {
		box := layout[st.ActiveSection]
		assert.Positive(t, VisibleFraction(box[0], box[1], offset, 800),
			"committed %s at offset %v", st.ActiveSection, offset)
	})

	for _, o := range offsets {
		offset = o
		scrollTo(sched, src, o)
	}
	assert.Equal(t, viewstate.SectionHome, p.store.Snapshot().ActiveSection)
}

func TestResolver_ClosedDetectorStopsWinning(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)
	p := newPage(t, s)
	scrollTo(sched, src, 1000)
	require.Equal(t, viewstate.SectionProjects, p.store.Snapshot().ActiveSection)
	require.True(t, p.detectors[viewstate.SectionAbout].Visible())

	p.detectors[viewstate.SectionProjects].Close()

	assert.Equal(t, viewstate.SectionAbout, p.store.Snapshot().ActiveSection)
	id, ok := p.resolver.Resolve()
	assert.True(t, ok)
	assert.Equal(t, viewstate.SectionAbout, id)
}
