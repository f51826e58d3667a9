package page

import (
	"fmt"
	"maps"
	"strings"

	"folio/cmd/folio/ui"
	"folio/internal/viewport"
	"folio/internal/viewstate"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

var inputLabels = []string{"Name", "Email", "Subject", "Message"}

// View renders the page.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	state := m.store.Snapshot()

	body := m.vp.View()
	if state.MenuOpen {
		body = m.renderMenu(state)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(state),
		m.bar.ViewAs(m.progress()),
		body,
		m.renderStatus(state),
		m.styles.Footer.Render(m.help.View(m.keys)),
	)
}

// chromeHeight is the number of lines around the viewport.
func (m *Model) chromeHeight() int {
	return 3 + lipgloss.Height(m.styles.Footer.Render(m.help.View(m.keys)))
}

func (m *Model) progress() float64 {
	if m.sampler == nil {
		return 0
	}
	return m.sampler.Progress(float64(m.vp.TotalLineCount()))
}

func (m *Model) brand() string {
	return m.styles.Title.UnsetMarginBottom().Render(m.content.Owner)
}

// navSpans returns the header columns of each navigation item.
func (m *Model) navSpans(state viewstate.State) []navSpan {
	x := m.styles.Header.GetPaddingLeft() + lipgloss.Width(m.brand()) + 2
	sections := m.store.Sections()
	spans := make([]navSpan, 0, len(sections))
	for i, id := range sections {
		w := lipgloss.Width(m.navItem(i, id, state))
		spans = append(spans, navSpan{start: x, end: x + w, id: id})
		x += w + 1
	}
	return spans
}

func (m *Model) navItem(i int, id viewstate.SectionID, state viewstate.State) string {
	style := m.styles.NavItem
	switch {
	case id == state.ActiveSection:
		style = m.styles.NavActive
	case i == m.hoverNav:
		style = m.styles.NavHover
	}
	return style.Render(fmt.Sprintf("%d %s", i+1, m.content.Title(id)))
}

func (m *Model) renderHeader(state viewstate.State) string {
	items := make([]string, 0, len(m.store.Sections()))
	for i, id := range m.store.Sections() {
		items = append(items, m.navItem(i, id, state))
	}
	style := m.styles.Header
	if m.sampler != nil && m.sampler.Scrolled() {
		style = m.styles.HeaderScrolled
	}
	line := m.brand() + "  " + strings.Join(items, " ")
	return style.Width(m.width).MaxHeight(1).Render(line)
}

func (m *Model) renderMenu(state viewstate.State) string {
	var b strings.Builder
	for i, id := range m.store.Sections() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.navItem(i, id, state))
	}
	menu := m.styles.Menu.Render(b.String())
	return lipgloss.Place(m.vp.Width, m.vp.Height, lipgloss.Center, lipgloss.Center, menu)
}

func (m *Model) renderStatus(state viewstate.State) string {
	parts := []string{
		m.styles.Muted.Render("section: ") + m.content.Title(state.ActiveSection),
		m.styles.Muted.Render("theme: ") + string(state.Theme),
	}
	switch state.Submission {
	case viewstate.SubmissionPending:
		parts = append(parts, m.spin.View()+m.styles.Pending.Render("sending"))
	case viewstate.SubmissionSuccess:
		parts = append(parts, m.styles.Success.Render("sent"))
	case viewstate.SubmissionError:
		parts = append(parts, m.styles.Error.Render("send failed"))
	}
	if m.follower != nil {
		if o := m.follower.Overlay(); o.Visible {
			parts = append(parts, m.styles.Pointer.Render(fmt.Sprintf("◎ %.0f,%.0f ×%.1f", o.X, o.Y, o.Scale)))
		}
	}
	return m.styles.Footer.Width(m.width).MaxHeight(1).Render(strings.Join(parts, "  "))
}

// renderContent lays the sections out in the viewport and records where each one is.
func (m *Model) renderContent() {
	if !m.ready {
		return
	}
	m.dirty = false
	width := max(m.vp.Width-m.styles.Content.GetHorizontalPadding(), 20)

	regions := make(map[viewstate.SectionID]region, len(m.regions))
	blocks := make([]string, 0, len(m.regions))
	top := 0
	for _, id := range m.store.Sections() {
		block := m.styles.Content.Render(m.renderSection(id, width))
		h := lipgloss.Height(block)
		regions[id] = region{top: top, height: h}
		blocks = append(blocks, block)
		top += h
	}
	changed := !maps.Equal(regions, m.regions)
	m.regions = regions
	m.vp.SetContent(strings.Join(blocks, "\n"))
	if changed {
		m.source.refresh()
	}
}

func (m *Model) renderSection(id viewstate.SectionID, width int) string {
	switch id {
	case viewstate.SectionHome:
		return m.renderHome(width)
	case viewstate.SectionAbout:
		return m.renderAbout(width)
	case viewstate.SectionProjects:
		return m.renderProjects(width)
	case viewstate.SectionContact:
		return m.renderContact(width)
	}
	return m.sectionTitle(id, width)
}

func (m *Model) sectionTitle(id viewstate.SectionID, width int) string {
	return m.styles.RenderDivider(width) + "\n" + m.styles.Title.Render(m.content.Title(id))
}

func (m *Model) renderHome(width int) string {
	role := m.styles.Role.Render(m.hero.Text()) + m.styles.Caret.Render("▌")
	hero := lipgloss.JoinVertical(lipgloss.Center,
		m.styles.Title.Render("Hi, I'm "+m.content.Owner),
		role,
		"",
		m.styles.Muted.Render(m.content.Tagline),
	)
	return lipgloss.Place(width, max(m.vp.Height, lipgloss.Height(hero)), lipgloss.Center, lipgloss.Center, hero)
}

func (m *Model) renderAbout(width int) string {
	parts := []string{m.sectionTitle(viewstate.SectionAbout, width), m.markdown(m.content.About, width)}

	parts = append(parts, m.styles.Subtitle.Render("Experience"))
	for i, e := range m.content.Experience {
		parts = append(parts, m.card("experience", i, width,
			e.Role+" · "+e.Company, e.Years, e.Description))
	}

	parts = append(parts, "", m.styles.Subtitle.Render("Skills"))
	for i, c := range m.content.Skills {
		parts = append(parts, m.skillCard(i, c, width))
	}
	return strings.Join(parts, "\n")
}

func (m *Model) renderProjects(width int) string {
	parts := []string{
		m.sectionTitle(viewstate.SectionProjects, width),
		m.markdown(m.content.ProjectsIntro, width),
		m.renderFilters(),
	}
	for i, p := range m.content.FilterProjects(m.filter) {
		tags := make([]string, len(p.Technologies))
		for j, t := range p.Technologies {
			tags[j] = t
			if m.revealed("projects", i) {
				tags[j] = m.styles.Tag.Render(t)
			}
		}
		title := p.Title
		if p.Featured {
			title = "★ " + title
		}
		parts = append(parts, m.card("projects", i, width, title, strings.Join(tags, " "), p.Description))
	}
	return strings.Join(parts, "\n")
}

func (m *Model) renderFilters() string {
	items := make([]string, 0, len(m.content.Filters))
	for _, f := range m.content.Filters {
		style := m.styles.NavItem
		if f.ID == m.filter {
			style = m.styles.NavActive
		}
		items = append(items, style.Render(f.Label))
	}
	return strings.Join(items, " ")
}

func (m *Model) renderContact(width int) string {
	parts := []string{m.sectionTitle(viewstate.SectionContact, width), m.markdown(m.content.ContactIntro, width)}
	for i, in := range m.inputs {
		style := m.styles.InputBlur
		if i == m.focus {
			style = m.styles.InputFocus
		}
		parts = append(parts, m.styles.Label.Render(inputLabels[i])+style.Render(in.View()))
	}
	parts = append(parts, "", m.styles.Button.Render("Send message"))

	switch m.store.Snapshot().Submission {
	case viewstate.SubmissionPending:
		parts = append(parts, m.spin.View()+m.styles.Pending.Render("Sending your message..."))
	case viewstate.SubmissionSuccess:
		parts = append(parts, m.styles.Success.Render("Message sent. Thank you!"))
	case viewstate.SubmissionError:
		parts = append(parts, m.styles.Error.Render("Something went wrong. Please try again."))
	default:
		parts = append(parts, "")
	}
	if m.formErr != "" {
		parts = append(parts, m.styles.Error.Render(m.formErr))
	}
	return strings.Join(parts, "\n")
}

func (m *Model) revealed(group string, i int) bool {
	e, ok := m.stagger[group]
	if !ok {
		return true
	}
	return e.group.Revealed(i)
}

// card renders one staggered item. Until it is revealed it is drawn in the background
// color so the layout does not move when it appears.
func (m *Model) card(group string, i, width int, title, meta, body string) string {
	style := m.styles.Card.Width(width - 1)
	if !m.revealed(group, i) {
		return "\n" + m.styles.Conceal(style).Render(lipgloss.JoinVertical(lipgloss.Left, title, meta, body))
	}
	return "\n" + style.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Body.Bold(true).Render(title),
		m.styles.Muted.Render(meta),
		m.styles.Body.Render(body),
	))
}

func (m *Model) skillCard(i int, c SkillCategory, width int) string {
	on := m.revealed("skills", i)
	lines := []string{c.Name}
	if on {
		lines[0] = m.styles.Body.Bold(true).Render(c.Name)
	}
	for _, s := range c.Skills {
		filled := max(0, min(10, s.Level/10))
		bar := strings.Repeat("█", filled)
		rest := strings.Repeat("░", 10-filled)
		if on {
			bar = m.styles.SkillOn.Render(bar)
			rest = m.styles.Muted.Render(rest)
		}
		lines = append(lines, fmt.Sprintf("%-14s %s%s %3d%%", s.Name, bar, rest, s.Level))
	}
	style := m.styles.Card.Width(width - 1)
	if !on {
		style = m.styles.Conceal(style)
	}
	return "\n" + style.Render(strings.Join(lines, "\n"))
}

func (m *Model) markdown(src string, width int) string {
	key := ui.ComputeKey(src, width, m.styles.Theme.IsDark)
	return m.mdCache.GetOrCompute(key, func() (string, bool) {
		if m.md == nil {
			r, err := ui.MarkdownRenderer(m.styles.Theme, width)
			if err != nil {
				m.log.Warn("markdown renderer unavailable", zap.Error(err))
				return m.styles.Body.Width(width).Render(src), false
			}
			m.md = r
		}
		out, err := m.md.Render(src)
		if err != nil {
			m.log.Warn("markdown render failed", zap.Error(err))
			return m.styles.Body.Width(width).Render(src), false
		}
		return strings.Trim(out, "\n"), true
	})
}

// Regions returns the current line range of every section, for diagnostics.
func (m *Model) Regions() map[viewstate.SectionID][2]int {
	out := make(map[viewstate.SectionID][2]int, len(m.regions))
	for id, r := range m.regions {
		out[id] = [2]int{r.top, r.height}
	}
	return out
}

var _ viewport.ScrollSource = (*scrollSource)(nil)
