package viewstate

// Kind names an action variant. Kinds are stable and appear in logs and replay files.
type Kind string

const (
	KindSetTheme           Kind = "SET_THEME"
	KindSetActiveSection   Kind = "SET_ACTIVE_SECTION"
	KindSetPointerVariant  Kind = "SET_POINTER_VARIANT"
	KindToggleMenu         Kind = "TOGGLE_MENU"
	KindSetSubmissionState Kind = "SET_SUBMISSION_STATE"
	KindNavigate           Kind = "NAVIGATE"
)

// AllKinds lists every action variant Reduce must handle.
func AllKinds() []Kind {
	return []Kind{
		KindSetTheme,
		KindSetActiveSection,
		KindSetPointerVariant,
		KindToggleMenu,
		KindSetSubmissionState,
		KindNavigate,
	}
}

// Action is a named transition. The set of implementations is closed: only the types in
// this file satisfy it.
type Action interface {
	Kind() Kind
	action()
}

// SetTheme switches the color scheme.
type SetTheme struct {
	Theme Theme
}

// SetActiveSection marks a section as current for navigation highlighting.
type SetActiveSection struct {
	ID SectionID
}

// SetPointerVariant changes the pointer-follow overlay variant.
type SetPointerVariant struct {
	Variant PointerVariant
}

// ToggleMenu flips the mobile menu.
type ToggleMenu struct{}

// SetSubmissionState reports the contact form's progress.
type SetSubmissionState struct {
	State SubmissionState
}

// Navigate is the header's jump-to-section gesture: it activates the section and
// closes the menu if it was open, in one transition.
type Navigate struct {
	ID SectionID
}

func (SetTheme) Kind() Kind           { return KindSetTheme }
func (SetActiveSection) Kind() Kind   { return KindSetActiveSection }
func (SetPointerVariant) Kind() Kind  { return KindSetPointerVariant }
func (ToggleMenu) Kind() Kind         { return KindToggleMenu }
func (SetSubmissionState) Kind() Kind { return KindSetSubmissionState }
func (Navigate) Kind() Kind           { return KindNavigate }

func (SetTheme) action()           {}
func (SetActiveSection) action()   {}
func (SetPointerVariant) action()  {}
func (ToggleMenu) action()         {}
func (SetSubmissionState) action() {}
func (Navigate) action()           {}
