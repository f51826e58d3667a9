package viewport

import (
	"testing"
	"time"

	"folio/internal/anim"
	"folio/internal/viewstate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedRegion(top, height float64) Region {
	return func() (float64, float64, bool) { return top, height, true }
}

func scrollTo(sched *anim.Scheduler, src *fakeSource, offset float64) {
	src.scroll(offset)
	sched.AdvanceBy(anim.DefaultFrameInterval)
}

func TestVisibleFraction(t *testing.T) {
	tests := []struct {
		name                          string
		top, height, offset, viewport float64
		want                          float64
	}{
		{"fully inside", 100, 200, 0, 800, 1},
		{"below viewport", 900, 200, 0, 800, 0},
		{"half in from below", 700, 200, 0, 800, 0.5},
		{"taller than viewport", 0, 2000, 500, 800, 1},
		{"edge touching", 800, 200, 0, 800, 0},
		{"zero height", 100, 0, 0, 800, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, VisibleFraction(tt.top, tt.height, tt.offset, tt.viewport), 1e-9)
		})
	}
}

func TestDetector_FiresOnlyOnCrossings(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)
	d, err := NewDetector(viewstate.SectionProjects, fixedRegion(1000, 600), s, DefaultThreshold)
	require.NoError(t, err)
	defer d.Close()

	var events []VisibilityEvent
	d.Subscribe(func(ev VisibilityEvent) { events = append(events, ev) })

	scrollTo(sched, src, 100)
	assert.Empty(t, events, "still out of view")

	scrollTo(sched, src, 400)
	scrollTo(sched, src, 500)
	scrollTo(sched, src, 600)
	require.Len(t, events, 1)
	assert.True(t, events[0].Visible)
	assert.Equal(t, viewstate.SectionProjects, events[0].SectionID)
	assert.Equal(t, sched.Now().Add(-2*anim.DefaultFrameInterval), events[0].ObservedAt)

	scrollTo(sched, src, 0)
	require.Len(t, events, 2)
	assert.False(t, events[1].Visible)
	assert.False(t, d.Visible())
}

func TestDetector_RespectsThreshold(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)
	d, err := NewDetector(viewstate.SectionAbout, fixedRegion(1000, 400), s, 0.5)
	require.NoError(t, err)
	defer d.Close()

	scrollTo(sched, src, 300) // 100 of 400 px visible
	assert.False(t, d.Visible())

	scrollTo(sched, src, 400) // 200 of 400 px visible
	assert.True(t, d.Visible())
}

func TestDetector_RegionWithoutLayoutIsSkipped(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)
	laidOut := false
	region := func() (float64, float64, bool) { return 0, 400, laidOut }

	d, err := NewDetector(viewstate.SectionHome, region, s, DefaultThreshold)
	require.NoError(t, err)
	defer d.Close()

	scrollTo(sched, src, 10)
	assert.False(t, d.Visible())

	laidOut = true
	d.Check(sched.Now())
	assert.True(t, d.Visible())
}

func TestDetector_PanickingRegionIsContained(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)
	d, err := NewDetector(viewstate.SectionHome, func() (float64, float64, bool) { panic("detached") }, s, DefaultThreshold)
	require.NoError(t, err)
	defer d.Close()

	assert.NotPanics(t, func() { scrollTo(sched, src, 10) })
	assert.False(t, d.Visible())
}

func TestDetector_SilentAfterClose(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)
	d, err := NewDetector(viewstate.SectionAbout, fixedRegion(1000, 400), s, DefaultThreshold)
	require.NoError(t, err)

	fired := 0
	d.Subscribe(func(VisibilityEvent) { fired++ })
	d.Close()
	d.Close()

	scrollTo(sched, src, 800)
	d.Check(sched.Now().Add(time.Millisecond))
	assert.Zero(t, fired)
}

func TestNewDetector_RequiresSamplerAndRegion(t *testing.T) {
	_, err := NewDetector(viewstate.SectionHome, fixedRegion(0, 1), nil, DefaultThreshold)
	assert.ErrorIs(t, err, ErrSignalUnavailable)
}
