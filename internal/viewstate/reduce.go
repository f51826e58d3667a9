package viewstate

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAction is returned for a nil action or a variant Reduce does not know.
	ErrUnknownAction = errors.New("unknown action")
	// ErrUnknownSection is returned when an action names a section outside the known list.
	ErrUnknownSection = errors.New("unknown section")
	// ErrInvalidValue is returned for out-of-range enum payloads.
	ErrInvalidValue = errors.New("invalid value")
)

// Reduce applies one action to state. It is pure: the same inputs always give the same
// output, and on error the returned state is the input unchanged.
func Reduce(state State, action Action, sections Sections) (State, error) {
	switch a := action.(type) {
	case SetTheme:
		if !a.Theme.Valid() {
			return state, fmt.Errorf("%w: theme %q", ErrInvalidValue, a.Theme)
		}
		state.Theme = a.Theme

	case SetActiveSection:
		if !sections.Contains(a.ID) {
			return state, fmt.Errorf("%w: %q", ErrUnknownSection, a.ID)
		}
		state.ActiveSection = a.ID

	case SetPointerVariant:
		if !a.Variant.Valid() {
			return state, fmt.Errorf("%w: pointer variant %q", ErrInvalidValue, a.Variant)
		}
		state.PointerVariant = a.Variant

	case ToggleMenu:
		state.MenuOpen = !state.MenuOpen

	case SetSubmissionState:
		if !a.State.Valid() {
			return state, fmt.Errorf("%w: submission state %q", ErrInvalidValue, a.State)
		}
		state.Submission = a.State

	case Navigate:
		if !sections.Contains(a.ID) {
			return state, fmt.Errorf("%w: %q", ErrUnknownSection, a.ID)
		}
		state.ActiveSection = a.ID
		state.MenuOpen = false

	default:
		return state, fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}
	return state, nil
}

// Replay folds a recorded action sequence over initial. Rejected actions are skipped,
// exactly as Store.Dispatch would skip them; their errors are returned in order.
func Replay(initial State, actions []Action, sections Sections) (State, []error) {
	state := initial
	var rejected []error
	for i, a := range actions {
		next, err := Reduce(state, a, sections)
		if err != nil {
			rejected = append(rejected, fmt.Errorf("action %d: %w", i, err))
			continue
		}
		state = next
	}
	return state, rejected
}
