package viewstate

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bogusAction struct{ SetTheme }

func sampleAction(k Kind) Action {
	switch k {
	case KindSetTheme:
		return SetTheme{Theme: ThemeDark}
	case KindSetActiveSection:
		return SetActiveSection{ID: SectionAbout}
	case KindSetPointerVariant:
		return SetPointerVariant{Variant: PointerHover}
	case KindToggleMenu:
		return ToggleMenu{}
	case KindSetSubmissionState:
		return SetSubmissionState{State: SubmissionPending}
	case KindNavigate:
		return Navigate{ID: SectionContact}
	}
	return nil
}

func TestReduce_EveryKindIsHandled(t *testing.T) {
	initial := InitialState(ThemeLight, DefaultSections)
	for _, k := range AllKinds() {
		t.Run(string(k), func(t *testing.T) {
			a := sampleAction(k)
			require.NotNil(t, a, "no sample action for kind %s", k)
			assert.Equal(t, k, a.Kind())

			next, err := Reduce(initial, a, DefaultSections)
			require.NoError(t, err)
			assert.NotEqual(t, initial, next, "kind %s fell through as a no-op", k)
		})
	}
}

func TestReduce_Transitions(t *testing.T) {
	initial := InitialState(ThemeLight, DefaultSections)

	tests := []struct {
		name   string
		action Action
		want   State
	}{
		{
			name:   "set theme",
			action: SetTheme{Theme: ThemeDark},
			want:   State{Theme: ThemeDark, ActiveSection: SectionHome, PointerVariant: PointerDefault, Submission: SubmissionIdle},
		},
		{
			name:   "set active section",
			action: SetActiveSection{ID: SectionProjects},
			want:   State{Theme: ThemeLight, ActiveSection: SectionProjects, PointerVariant: PointerDefault, Submission: SubmissionIdle},
		},
		{
			name:   "set pointer variant",
			action: SetPointerVariant{Variant: PointerClick},
			want:   State{Theme: ThemeLight, ActiveSection: SectionHome, PointerVariant: PointerClick, Submission: SubmissionIdle},
		},
		{
			name:   "toggle menu",
			action: ToggleMenu{},
			want:   State{Theme: ThemeLight, ActiveSection: SectionHome, PointerVariant: PointerDefault, MenuOpen: true, Submission: SubmissionIdle},
		},
		{
			name:   "submission error",
			action: SetSubmissionState{State: SubmissionError},
			want:   State{Theme: ThemeLight, ActiveSection: SectionHome, PointerVariant: PointerDefault, Submission: SubmissionError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reduce(initial, tt.action, DefaultSections)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Reduce() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReduce_NavigateClosesMenu(t *testing.T) {
	open := InitialState(ThemeLight, DefaultSections)
	open.MenuOpen = true

	got, err := Reduce(open, Navigate{ID: SectionAbout}, DefaultSections)
	require.NoError(t, err)
	assert.Equal(t, SectionAbout, got.ActiveSection)
	assert.False(t, got.MenuOpen)

	closed, err := Reduce(got, Navigate{ID: SectionHome}, DefaultSections)
	require.NoError(t, err)
	assert.False(t, closed.MenuOpen)
}

func TestReduce_Rejections(t *testing.T) {
	initial := InitialState(ThemeDark, DefaultSections)

	tests := []struct {
		name   string
		action Action
		want   error
	}{
		{"nil action", nil, ErrUnknownAction},
		{"foreign variant", bogusAction{}, ErrUnknownAction},
		{"unknown section", SetActiveSection{ID: "blog"}, ErrUnknownSection},
		{"navigate unknown section", Navigate{ID: ""}, ErrUnknownSection},
		{"bad theme", SetTheme{Theme: "sepia"}, ErrInvalidValue},
		{"bad variant", SetPointerVariant{Variant: "drag"}, ErrInvalidValue},
		{"bad submission", SetSubmissionState{State: "sent"}, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reduce(initial, tt.action, DefaultSections)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, initial, got)
		})
	}
}

func TestReduce_ToggleMenuTwiceIsIdentity(t *testing.T) {
	for _, start := range []bool{false, true} {
		s := InitialState(ThemeLight, DefaultSections)
		s.MenuOpen = start

		once, err := Reduce(s, ToggleMenu{}, DefaultSections)
		require.NoError(t, err)
		twice, err := Reduce(once, ToggleMenu{}, DefaultSections)
		require.NoError(t, err)

		assert.NotEqual(t, start, once.MenuOpen)
		assert.Equal(t, start, twice.MenuOpen)
	}
}

func randomActions(r *rand.Rand, n int) []Action {
	ids := append(Sections{"blog", ""}, DefaultSections...)
	themes := []Theme{ThemeLight, ThemeDark, "neon"}
	variants := []PointerVariant{PointerDefault, PointerHover, PointerClick, "drag"}
	states := []SubmissionState{SubmissionIdle, SubmissionPending, SubmissionSuccess, SubmissionError}

	actions := make([]Action, 0, n)
	for i := 0; i < n; i++ {
		switch r.Intn(6) {
		case 0:
			actions = append(actions, SetTheme{Theme: themes[r.Intn(len(themes))]})
		case 1:
			actions = append(actions, SetActiveSection{ID: ids[r.Intn(len(ids))]})
		case 2:
			actions = append(actions, SetPointerVariant{Variant: variants[r.Intn(len(variants))]})
		case 3:
			actions = append(actions, ToggleMenu{})
		case 4:
			actions = append(actions, SetSubmissionState{State: states[r.Intn(len(states))]})
		case 5:
			actions = append(actions, Navigate{ID: ids[r.Intn(len(ids))]})
		}
	}
	return actions
}

func TestReplay_Deterministic(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		actions := randomActions(rand.New(rand.NewSource(seed)), 200)
		initial := InitialState(ThemeLight, DefaultSections)

		first, firstErrs := Replay(initial, actions, DefaultSections)
		second, secondErrs := Replay(initial, actions, DefaultSections)

		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("seed %d: replay diverged (-first +second):\n%s", seed, diff)
		}
		assert.Equal(t, len(firstErrs), len(secondErrs))
		assert.True(t, DefaultSections.Contains(first.ActiveSection), "seed %d: active section %q escaped the known list", seed, first.ActiveSection)
	}
}

func TestReplay_MatchesStore(t *testing.T) {
	actions := randomActions(rand.New(rand.NewSource(42)), 300)
	initial := InitialState(ThemeLight, DefaultSections)

	store := NewStore(initial, DefaultSections)
	for _, a := range actions {
		_ = store.Dispatch(a)
	}

	replayed, _ := Replay(initial, actions, DefaultSections)
	if diff := cmp.Diff(replayed, store.Snapshot()); diff != "" {
		t.Fatalf("store and replay disagree (-replay +store):\n%s", diff)
	}
}

func TestRecord_EncodeDecode(t *testing.T) {
	for _, k := range AllKinds() {
		a := sampleAction(k)
		decoded, err := Decode(Encode(a))
		require.NoError(t, err)
		assert.Equal(t, a, decoded)
	}

	_, err := Decode(Record{Kind: "RESET"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestParseTheme(t *testing.T) {
	th, err := ParseTheme("dark")
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, th)

	_, err = ParseTheme("Dark")
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Equal(t, ThemeLight, ThemeDark.Opposite())
}
