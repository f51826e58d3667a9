package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"folio/internal/anim"
	"folio/internal/viewstate"

	"go.uber.org/zap"
)

// ErrBusy is returned when a submission starts while another is pending.
var ErrBusy = errors.New("submission already pending")

// DefaultResetAfter is how long success or error stays on screen before the form is
// idle again.
const DefaultResetAfter = 5 * time.Second

// Dispatcher is the part of the store the form writes to.
type Dispatcher interface {
	Dispatch(viewstate.Action) error
	Snapshot() viewstate.State
}

// Form runs the submission lifecycle: idle -> pending -> success|error -> idle.
//
// Begin and Complete touch the store and the scheduler and belong on the event loop.
// Send only talks to the relay and may run anywhere.
type Form struct {
	mu         sync.Mutex
	store      Dispatcher
	relay      Relay
	scope      *anim.Scope
	resetAfter time.Duration
	reset      *anim.Handle
	log        *zap.Logger
}

// NewForm creates a form. resetAfter <= 0 uses DefaultResetAfter.
func NewForm(store Dispatcher, relay Relay, scope *anim.Scope, resetAfter time.Duration, log *zap.Logger) *Form {
	if resetAfter <= 0 {
		resetAfter = DefaultResetAfter
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Form{store: store, relay: relay, scope: scope, resetAfter: resetAfter, log: log}
}

// Begin validates p and moves the form to pending.
func (f *Form) Begin(p Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.store.Snapshot().Submission == viewstate.SubmissionPending {
		return ErrBusy
	}
	if err := p.Validate(); err != nil {
		return err
	}
	f.reset.Cancel()
	f.reset = nil
	return f.store.Dispatch(viewstate.SetSubmissionState{State: viewstate.SubmissionPending})
}

// Send hands p to the relay.
func (f *Form) Send(ctx context.Context, p Payload) error {
	if f.relay == nil {
		return ErrNotConfigured
	}
	return f.relay.Submit(ctx, p)
}

// Complete records the outcome of Send and schedules the return to idle.
func (f *Form) Complete(sendErr error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	state := viewstate.SubmissionSuccess
	if sendErr != nil {
		state = viewstate.SubmissionError
		f.log.Warn("contact submission failed", zap.Error(sendErr))
	}
	if err := f.store.Dispatch(viewstate.SetSubmissionState{State: state}); err != nil {
		f.log.Error("failed to record submission outcome", zap.Error(err))
		return
	}

	f.reset.Cancel()
	f.reset = f.scope.After(anim.KindTimer, f.resetAfter, func(time.Time) {
		switch f.store.Snapshot().Submission {
		case viewstate.SubmissionSuccess, viewstate.SubmissionError:
			if err := f.store.Dispatch(viewstate.SetSubmissionState{State: viewstate.SubmissionIdle}); err != nil {
				f.log.Error("failed to reset submission", zap.Error(err))
			}
		}
	})
}

// Submit runs the whole lifecycle synchronously. The reset still waits for the scheduler.
func (f *Form) Submit(ctx context.Context, p Payload) error {
	if err := f.Begin(p); err != nil {
		return err
	}
	err := f.Send(ctx, p)
	f.Complete(err)
	return err
}

// Close cancels a pending reset.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset.Cancel()
	f.reset = nil
}
