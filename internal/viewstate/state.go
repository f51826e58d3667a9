package viewstate

import "fmt"

// Theme is the page color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is one of the known themes.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Opposite returns the theme a toggle switches to.
func (t Theme) Opposite() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ParseTheme converts user input into a Theme.
func ParseTheme(s string) (Theme, error) {
	t := Theme(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: theme %q", ErrInvalidValue, s)
	}
	return t, nil
}

// PointerVariant is the visual state of the pointer-follow overlay.
type PointerVariant string

const (
	PointerDefault PointerVariant = "default"
	PointerHover   PointerVariant = "hover"
	PointerClick   PointerVariant = "click"
)

// Valid reports whether v is one of the known variants.
func (v PointerVariant) Valid() bool {
	switch v {
	case PointerDefault, PointerHover, PointerClick:
		return true
	}
	return false
}

// SubmissionState tracks the contact form's round trip to the mail relay.
type SubmissionState string

const (
	SubmissionIdle    SubmissionState = "idle"
	SubmissionPending SubmissionState = "pending"
	SubmissionSuccess SubmissionState = "success"
	SubmissionError   SubmissionState = "error"
)

// Valid reports whether s is one of the known submission states.
func (s SubmissionState) Valid() bool {
	switch s {
	case SubmissionIdle, SubmissionPending, SubmissionSuccess, SubmissionError:
		return true
	}
	return false
}

// SectionID identifies one scrollable region of the page.
type SectionID string

const (
	SectionHome     SectionID = "home"
	SectionAbout    SectionID = "about"
	SectionProjects SectionID = "projects"
	SectionContact  SectionID = "contact"
)

// DefaultSections is the page's section order, top to bottom.
var DefaultSections = Sections{SectionHome, SectionAbout, SectionProjects, SectionContact}

// Sections is an ordered list of known section ids.
type Sections []SectionID

// Contains reports whether id is a known section.
func (s Sections) Contains(id SectionID) bool {
	for _, known := range s {
		if known == id {
			return true
		}
	}
	return false
}

// First returns the top section, the one forced active at scroll offset zero.
func (s Sections) First() SectionID {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// Index returns the position of id, or -1.
func (s Sections) Index(id SectionID) int {
	for i, known := range s {
		if known == id {
			return i
		}
	}
	return -1
}

// State is an immutable snapshot of the view state. It is a plain value: copies never
// observe later transitions.
type State struct {
	Theme          Theme           `json:"theme" yaml:"theme"`
	ActiveSection  SectionID       `json:"active_section" yaml:"active_section"`
	PointerVariant PointerVariant  `json:"pointer_variant" yaml:"pointer_variant"`
	MenuOpen       bool            `json:"menu_open" yaml:"menu_open"`
	Submission     SubmissionState `json:"submission" yaml:"submission"`
}

// InitialState builds the startup snapshot for the given resolved theme.
func InitialState(theme Theme, sections Sections) State {
	if !theme.Valid() {
		theme = ThemeLight
	}
	return State{
		Theme:          theme,
		ActiveSection:  sections.First(),
		PointerVariant: PointerDefault,
		MenuOpen:       false,
		Submission:     SubmissionIdle,
	}
}
