// Package ui provides the visual styling for the folio terminal page.
// Light and dark palettes follow the committed theme of the view-state store.
package ui

import (
	"strings"

	"folio/internal/viewstate"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Light Mode Colors (Default)
	LightBackground = lipgloss.Color("#ffffff")
	LightForeground = lipgloss.Color("#111827") // gray-900
	LightPrimary    = lipgloss.Color("#2563eb") // blue-600
	LightAccent     = lipgloss.Color("#9333ea") // purple-600
	LightMuted      = lipgloss.Color("#6b7280") // gray-500
	LightBorder     = lipgloss.Color("#e5e7eb") // gray-200
	LightCard       = lipgloss.Color("#f9fafb") // gray-50

	// Dark Mode Colors
	DarkBackground = lipgloss.Color("#111827") // gray-900
	DarkForeground = lipgloss.Color("#f9fafb")
	DarkPrimary    = lipgloss.Color("#60a5fa") // blue-400
	DarkAccent     = lipgloss.Color("#c084fc") // purple-400
	DarkMuted      = lipgloss.Color("#9ca3af") // gray-400
	DarkBorder     = lipgloss.Color("#374151") // gray-700
	DarkCard       = lipgloss.Color("#1f2937") // gray-800

	// Semantic Colors (same in both modes)
	Destructive = lipgloss.Color("#ef4444")
	Success     = lipgloss.Color("#22c55e")
	Warning     = lipgloss.Color("#f59e0b")
)

// Theme holds the current color scheme
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

// ThemeFor maps a store theme onto a palette.
func ThemeFor(t viewstate.Theme) Theme {
	if t == viewstate.ThemeDark {
		return DarkTheme()
	}
	return LightTheme()
}

// ApplyDarkFlag is the store's dark-flag effect: it tells lipgloss which background the
// adaptive colors should assume.
func ApplyDarkFlag(dark bool) {
	lipgloss.SetHasDarkBackground(dark)
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	// Layout
	Header         lipgloss.Style
	HeaderScrolled lipgloss.Style
	Footer         lipgloss.Style
	Content        lipgloss.Style
	Menu           lipgloss.Style

	// Navigation
	NavItem   lipgloss.Style
	NavActive lipgloss.Style
	NavHover  lipgloss.Style

	// Text
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Role     lipgloss.Style
	Caret    lipgloss.Style

	// Lists
	Card    lipgloss.Style
	Tag     lipgloss.Style
	SkillOn lipgloss.Style

	// Form
	Label      lipgloss.Style
	InputFocus lipgloss.Style
	InputBlur  lipgloss.Style
	Button     lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Pending lipgloss.Style

	// Pointer overlay
	Pointer lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Padding(0, 2),

		HeaderScrolled: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Background(theme.Card).
			Padding(0, 2),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		Content: lipgloss.NewStyle().
			Padding(0, 2),

		Menu: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 2),

		NavItem: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		NavActive: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			Underline(true).
			Padding(0, 1),

		NavHover: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Role: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Caret: lipgloss.NewStyle().
			Foreground(theme.Primary),

		Card: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			PaddingLeft(2).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(theme.Primary),

		Tag: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Background(theme.Card).
			Padding(0, 1),

		SkillOn: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Label: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Width(10),

		InputFocus: lipgloss.NewStyle().
			Foreground(theme.Primary),

		InputBlur: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Button: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(theme.Primary).
			Padding(0, 2).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Pending: lipgloss.NewStyle().
			Foreground(Warning),

		Pointer: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),
	}
}

// StylesFor returns the styles of a store theme.
func StylesFor(t viewstate.Theme) Styles {
	return NewStyles(ThemeFor(t))
}

// MarkdownRenderer returns a glamour renderer matching the theme.
func MarkdownRenderer(theme Theme, width int) (*glamour.TermRenderer, error) {
	if width < 20 {
		width = 20
	}
	style := "light"
	if theme.IsDark {
		style = "dark"
	}
	return glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
}

// RenderDivider returns a horizontal divider
func (s Styles) RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return s.Muted.Render(strings.Repeat("─", width))
}

// Conceal returns st drawn in the background color. The text keeps its space, so
// revealing it later does not move anything.
func (s Styles) Conceal(st lipgloss.Style) lipgloss.Style {
	return st.Foreground(s.Theme.Background).BorderForeground(s.Theme.Background)
}
