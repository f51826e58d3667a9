package viewport

import (
	"errors"
	"math"
	"testing"
	"time"

	"folio/internal/anim"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeSource struct {
	height float64
	fn     func(float64)
	err    error
	unsubs int
}

func (f *fakeSource) SubscribeScroll(fn func(float64)) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.fn = fn
	return func() {
		f.unsubs++
		f.fn = nil
	}, nil
}

func (f *fakeSource) ViewportHeight() float64 { return f.height }

func (f *fakeSource) scroll(offset float64) {
	if f.fn != nil {
		f.fn(offset)
	}
}

func newTestSampler(t *testing.T, height float64) (*anim.Scheduler, *fakeSource, *Sampler) {
	t.Helper()
	sched := anim.NewScheduler(epoch)
	src := &fakeSource{height: height}
	s, err := NewSampler(src, sched.Scope())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return sched, src, s
}

func TestSampler_CoalescesToOneSamplePerFrame(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)

	var samples []ScrollSample
	s.Subscribe(func(sample ScrollSample) { samples = append(samples, sample) })

	src.scroll(10)
	src.scroll(50)
	src.scroll(120)
	assert.Zero(t, s.Offset(), "offset must not change before the frame")

	sched.AdvanceBy(anim.DefaultFrameInterval)
	require.Len(t, samples, 1)
	assert.Equal(t, 120.0, samples[0].Offset)
	assert.Equal(t, 800.0, samples[0].ViewportHeight)
	assert.Equal(t, epoch.Add(anim.DefaultFrameInterval), samples[0].ObservedAt)

	sched.AdvanceBy(10 * anim.DefaultFrameInterval)
	assert.Len(t, samples, 1, "no new notifications means no new samples")
}

func TestSampler_IgnoresNonFiniteOffsets(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)

	src.scroll(math.NaN())
	src.scroll(math.Inf(1))
	sched.AdvanceBy(time.Second)
	assert.Zero(t, s.Offset())
	assert.Zero(t, sched.Pending())
}

func TestSampler_ScrolledAndProgress(t *testing.T) {
	sched, src, s := newTestSampler(t, 500)

	src.scroll(20)
	sched.AdvanceBy(anim.DefaultFrameInterval)
	assert.False(t, s.Scrolled())

	src.scroll(21)
	sched.AdvanceBy(anim.DefaultFrameInterval)
	assert.True(t, s.Scrolled())

	src.scroll(250)
	sched.AdvanceBy(anim.DefaultFrameInterval)
	assert.InDelta(t, 0.5, s.Progress(1000), 1e-9)
}

func TestScrollProgress(t *testing.T) {
	tests := []struct {
		name                      string
		offset, content, viewport float64
		want                      float64
	}{
		{"top", 0, 1000, 500, 0},
		{"middle", 250, 1000, 500, 0.5},
		{"bottom", 500, 1000, 500, 1},
		{"overscroll clamps", 900, 1000, 500, 1},
		{"negative clamps", -10, 1000, 500, 0},
		{"content fits", 0, 400, 500, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ScrollProgress(tt.offset, tt.content, tt.viewport), 1e-9)
		})
	}
}

func TestSampler_UnavailableSignal(t *testing.T) {
	sched := anim.NewScheduler(epoch)

	_, err := NewSampler(nil, sched)
	assert.ErrorIs(t, err, ErrSignalUnavailable)

	_, err = NewSampler(&fakeSource{err: errors.New("no window")}, sched)
	assert.ErrorIs(t, err, ErrSignalUnavailable)
}

func TestSampler_CloseDropsPendingFrame(t *testing.T) {
	sched := anim.NewScheduler(epoch)
	src := &fakeSource{height: 800}
	s, err := NewSampler(src, sched)
	require.NoError(t, err)

	fired := 0
	s.Subscribe(func(ScrollSample) { fired++ })
	src.scroll(300)

	s.Close()
	s.Close()
	sched.AdvanceBy(time.Second)

	assert.Zero(t, fired)
	assert.Equal(t, 1, src.unsubs)
	assert.Zero(t, sched.Pending())
}

func TestSampler_SubscriberPanicIsContained(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)

	got := 0
	s.Subscribe(func(ScrollSample) { panic("boom") })
	s.Subscribe(func(ScrollSample) { got++ })

	src.scroll(40)
	assert.NotPanics(t, func() { sched.AdvanceBy(anim.DefaultFrameInterval) })
	assert.Equal(t, 1, got)
}

func TestSampler_SettledSubscribersRunLast(t *testing.T) {
	sched, src, s := newTestSampler(t, 800)

	var order []string
	s.SubscribeSettled(func(ScrollSample) {
		assert.False(t, s.Delivering())
		order = append(order, "settled")
	})
	s.Subscribe(func(ScrollSample) {
		assert.True(t, s.Delivering())
		order = append(order, "a")
	})
	s.Subscribe(func(ScrollSample) { order = append(order, "b") })

	scrollTo(sched, src, 40)
	assert.Equal(t, []string{"a", "b", "settled"}, order)
	assert.False(t, s.Delivering())
}
