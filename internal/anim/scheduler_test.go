package anim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestScheduler_RunsInDueThenScheduleOrder(t *testing.T) {
	s := NewScheduler(epoch)
	var order []string

	s.After(KindTimer, 20*time.Millisecond, func(time.Time) { order = append(order, "b") })
	s.After(KindTimer, 10*time.Millisecond, func(time.Time) { order = append(order, "a") })
	s.After(KindTimer, 20*time.Millisecond, func(time.Time) { order = append(order, "c") })

	s.AdvanceBy(5 * time.Millisecond)
	assert.Empty(t, order)

	s.AdvanceBy(15 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Zero(t, s.Pending())
}

func TestScheduler_CallbackSeesItsDueTime(t *testing.T) {
	s := NewScheduler(epoch)
	var at []time.Duration

	s.Every(KindTimer, 10*time.Millisecond, func(now time.Time) {
		at = append(at, now.Sub(epoch))
	})
	s.AdvanceBy(35 * time.Millisecond)

	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond}, at)
	assert.Equal(t, epoch.Add(35*time.Millisecond), s.Now())
}

func TestScheduler_CancelIsIdempotent(t *testing.T) {
	s := NewScheduler(epoch)
	fired := 0
	h := s.After(KindTimer, time.Millisecond, func(time.Time) { fired++ })

	h.Cancel()
	h.Cancel()
	s.AdvanceBy(time.Second)

	assert.Zero(t, fired)
	assert.True(t, h.Cancelled())
	assert.True(t, h.Task().Cancelled)
}

func TestScheduler_TaskCancelsItselfFromCallback(t *testing.T) {
	s := NewScheduler(epoch)
	fired := 0
	var h *Handle
	h = s.Every(KindTimer, 10*time.Millisecond, func(time.Time) {
		fired++
		if fired == 2 {
			h.Cancel()
		}
	})

	s.AdvanceBy(100 * time.Millisecond)
	assert.Equal(t, 2, fired)
	assert.Zero(t, s.Pending())
}

func TestScheduler_PanickingTaskStops(t *testing.T) {
	s := NewScheduler(epoch)
	fired := 0
	h := s.Every(KindTimer, 10*time.Millisecond, func(time.Time) {
		fired++
		panic("broken effect")
	})

	require.NotPanics(t, func() { s.AdvanceBy(50 * time.Millisecond) })
	assert.Equal(t, 1, fired)
	assert.True(t, h.Cancelled())
}

func TestScheduler_ClockNeverGoesBack(t *testing.T) {
	s := NewScheduler(epoch)
	s.AdvanceBy(time.Second)
	s.Advance(epoch)
	assert.Equal(t, epoch.Add(time.Second), s.Now())
}

func TestScope_CloseCancelsEverything(t *testing.T) {
	s := NewScheduler(epoch)
	scope := s.Scope()
	fired := 0

	scope.After(KindTimer, 10*time.Millisecond, func(time.Time) { fired++ })
	scope.Every(KindTimer, 10*time.Millisecond, func(time.Time) { fired++ })
	scope.RequestFrame(func(time.Time) { fired++ })

	scope.Close()
	scope.Close()
	s.AdvanceBy(time.Second)

	assert.Zero(t, fired)
	assert.True(t, scope.Closed())
	assert.Zero(t, s.Pending())

	late := scope.After(KindTimer, time.Millisecond, func(time.Time) { fired++ })
	assert.True(t, late.Cancelled())
	s.AdvanceBy(time.Second)
	assert.Zero(t, fired)
}

func TestScope_PrunesFinishedTasks(t *testing.T) {
	s := NewScheduler(epoch)
	scope := s.Scope()
	for i := 0; i < 100; i++ {
		scope.After(KindTimer, time.Millisecond, func(time.Time) {})
		s.AdvanceBy(time.Millisecond)
	}
	scope.After(KindTimer, time.Millisecond, func(time.Time) {})

	scope.mu.Lock()
	defer scope.mu.Unlock()
	assert.Len(t, scope.handles, 1)
}

func TestScheduler_RequestFrameUsesFrameInterval(t *testing.T) {
	s := NewScheduler(epoch, WithFrameInterval(20*time.Millisecond))
	var at time.Time
	s.RequestFrame(func(now time.Time) { at = now })

	s.AdvanceBy(19 * time.Millisecond)
	assert.True(t, at.IsZero())
	s.AdvanceBy(time.Millisecond)
	assert.Equal(t, epoch.Add(20*time.Millisecond), at)
}

func TestScheduler_FramePacedTasksSkipLongStalls(t *testing.T) {
	s := NewScheduler(epoch)
	var at []time.Time
	s.Every(KindPointerFollow, DefaultFrameInterval, func(now time.Time) { at = append(at, now) })

	s.AdvanceBy(time.Hour)

	require.NotEmpty(t, at)
	assert.LessOrEqual(t, len(at), int(DefaultMaxCatchUp/DefaultFrameInterval)+1)
	assert.False(t, at[0].Before(epoch.Add(time.Hour-DefaultMaxCatchUp)))
	for _, ts := range at {
		assert.Zero(t, ts.Sub(epoch)%DefaultFrameInterval, "tick %v is off the grid", ts)
	}
	assert.Equal(t, epoch.Add(time.Hour), s.Now())
}

func TestScheduler_TimersCatchUpEveryTick(t *testing.T) {
	s := NewScheduler(epoch, WithMaxCatchUp(time.Millisecond))
	fired := 0
	s.Every(KindTimer, 10*time.Millisecond, func(time.Time) { fired++ })

	s.AdvanceBy(10 * time.Second)
	assert.Equal(t, 1000, fired)
}

func TestScheduler_CatchUpBoundShorterThanInterval(t *testing.T) {
	s := NewScheduler(epoch, WithMaxCatchUp(time.Millisecond))
	var at []time.Duration
	s.Every(KindTypewriter, 50*time.Millisecond, func(now time.Time) { at = append(at, now.Sub(epoch)) })

	s.Advance(epoch.Add(175 * time.Millisecond))
	assert.Empty(t, at, "every missed tick is further behind than the bound")

	s.Advance(epoch.Add(200 * time.Millisecond))
	assert.Equal(t, []time.Duration{200 * time.Millisecond}, at)
}
