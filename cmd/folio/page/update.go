package page

import (
	"context"
	"errors"
	"time"

	"folio/internal/logging"
	"folio/internal/relay"
	"folio/internal/viewstate"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const minViewportHeight = 3

// Init starts the hero rotation and the frame clock.
func (m *Model) Init() tea.Cmd {
	m.roles.Start()
	return tea.Batch(m.tick(), m.spin.Tick, textinput.Blink)
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.sched.FrameInterval(), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case frameMsg:
		m.sched.Advance(time.Time(msg))
		cmds = append(cmds, m.tick())

	case tea.WindowSizeMsg:
		if !m.ready {
			m.resize.Immediate(msg.Width, msg.Height, m.applySize)
		} else {
			m.resize.Resize(msg.Width, msg.Height, m.applySize)
		}

	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		if cmd := m.handleMouse(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case tea.FocusMsg:
		if m.follower != nil {
			m.follower.Enter()
		}

	case tea.BlurMsg:
		if m.follower != nil {
			m.follower.Leave()
		}

	case submitResultMsg:
		m.form.Complete(msg.err)
		if msg.err == nil {
			for i := range m.inputs {
				m.inputs[i].Reset()
			}
			logging.Audit(logging.AuditSubmitResult, zap.Bool("ok", true))
		} else {
			logging.Audit(logging.AuditSubmitResult, zap.Bool("ok", false), zap.Error(msg.err))
		}

	case ThemeChangedMsg:
		if msg.Theme != m.store.Snapshot().Theme {
			logging.Audit(logging.AuditThemeExternal, zap.String("theme", string(msg.Theme)))
			if err := m.store.Dispatch(viewstate.SetTheme{Theme: msg.Theme}); err != nil {
				m.log.Warn("external theme refused", zap.Error(err))
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
		if m.store.Snapshot().Submission == viewstate.SubmissionPending {
			m.dirty = true
		}

	default:
		if m.focus >= 0 {
			var cmd tea.Cmd
			m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
			cmds = append(cmds, cmd)
			m.dirty = true
		}
	}

	if m.dirty {
		m.renderContent()
	}
	m.source.emit(m.vp.YOffset)
	return m, tea.Batch(cmds...)
}

func (m *Model) applySize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width
	m.bar.Width = width

	vpHeight := height - m.chromeHeight()
	if vpHeight < minViewportHeight {
		vpHeight = minViewportHeight
	}
	m.vp.Width = width
	m.vp.Height = vpHeight
	m.source.setHeight(vpHeight)
	for i := range m.inputs {
		m.inputs[i].Width = max(width-20, 10)
	}

	m.md = nil
	m.mdCache.Clear()
	m.ready = true
	m.renderContent()
	m.source.refresh()
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.focus >= 0 {
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit

	case key.Matches(msg, m.keys.Theme):
		if err := m.store.ToggleTheme(); err != nil {
			m.log.Error("theme toggle refused", zap.Error(err))
		}

	case key.Matches(msg, m.keys.Menu):
		if err := m.store.Dispatch(viewstate.ToggleMenu{}); err != nil {
			m.log.Error("menu toggle refused", zap.Error(err))
		}

	case key.Matches(msg, m.keys.Back):
		if m.store.Snapshot().MenuOpen {
			_ = m.store.Dispatch(viewstate.ToggleMenu{})
		}

	case key.Matches(msg, m.keys.Jump):
		i := int(msg.String()[0] - '1')
		if sections := m.store.Sections(); i < len(sections) {
			m.navigate(sections[i])
		}

	case key.Matches(msg, m.keys.Filter):
		m.setFilter(m.content.NextFilter(m.filter))

	case key.Matches(msg, m.keys.Form):
		return m.focusInput(0)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		if m.ready {
			m.applySize(m.width, m.height)
		}

	case key.Matches(msg, m.keys.Top):
		m.vp.GotoTop()

	default:
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return tea.Quit
	case "esc":
		m.blurInputs()
		return nil
	case "tab", "down":
		return m.focusInput((m.focus + 1) % len(m.inputs))
	case "shift+tab", "up":
		return m.focusInput((m.focus + len(m.inputs) - 1) % len(m.inputs))
	case "enter":
		if m.focus < len(m.inputs)-1 {
			return m.focusInput(m.focus + 1)
		}
		return m.submit()
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	m.dirty = true
	return cmd
}

func (m *Model) focusInput(i int) tea.Cmd {
	if m.focus < 0 {
		m.navigate(viewstate.SectionContact)
	}
	m.blurInputs()
	m.focus = i
	return m.inputs[i].Focus()
}

func (m *Model) blurInputs() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.focus = -1
	m.dirty = true
}

// submit starts a submission. The relay call runs off the event loop; its outcome comes
// back as a submitResultMsg.
func (m *Model) submit() tea.Cmd {
	p := relay.Payload{
		Name:    m.inputs[0].Value(),
		Email:   m.inputs[1].Value(),
		Subject: m.inputs[2].Value(),
		Message: m.inputs[3].Value(),
	}
	if err := m.form.Begin(p); err != nil {
		if errors.Is(err, relay.ErrBusy) {
			m.formErr = "Still sending the previous message."
		} else {
			m.formErr = err.Error()
		}
		m.dirty = true
		return nil
	}
	m.formErr = ""
	logging.Audit(logging.AuditSubmit, zap.Int("message_len", len(p.Message)))

	form := m.form
	timeout := m.cfg.GetRelayTimeout() * time.Duration(m.cfg.Relay.MaxRetries+1)
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return submitResultMsg{err: form.Send(ctx, p)}
	})
}

// navigate jumps to a section: the store records the gesture and the viewport scrolls
// to the section's first line.
func (m *Model) navigate(id viewstate.SectionID) {
	if err := m.store.Dispatch(viewstate.Navigate{ID: id}); err != nil {
		m.log.Warn("navigation refused", zap.String("section", string(id)), zap.Error(err))
		return
	}
	if r, ok := m.regions[id]; ok {
		m.vp.SetYOffset(r.top)
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.follower != nil && msg.Action == tea.MouseActionMotion {
		m.follower.Move(float64(msg.X), float64(msg.Y))
	}

	hover := -1
	var target viewstate.SectionID
	if msg.Y == 0 {
		for i, span := range m.navSpans(m.store.Snapshot()) {
			if msg.X >= span.start && msg.X < span.end {
				hover, target = i, span.id
				break
			}
		}
	}
	if hover != m.hoverNav {
		m.hoverNav = hover
		m.dirty = true
		if m.follower != nil {
			if hover >= 0 {
				m.follower.HoverEnter()
			} else {
				m.follower.HoverLeave()
			}
		}
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			break
		}
		if m.follower != nil {
			m.follower.Press()
		}
		if hover >= 0 {
			m.navigate(target)
			return nil
		}
	case tea.MouseActionRelease:
		if m.follower != nil {
			m.follower.Release()
		}
		return nil
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return cmd
}
