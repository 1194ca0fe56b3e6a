package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"imsidesk/internal/domain/imsi"
	"imsidesk/internal/services/requests"
)

const (
	fieldIMSI = iota
	fieldConfirm
)

// screen operation results
type (
	loadedMsg    struct{ err error }
	submittedMsg struct{ err error }
	savedMsg     struct {
		path string
		err  error
	}
)

// Model renders a requests.Screen in the terminal
type Model struct {
	ctx      context.Context
	screen   *requests.Screen
	resolver requests.OperatorResolver
	feed     *Feed
	keys     KeyMap
	styles   Styles

	state  requests.State
	cursor int
	inputs []textinput.Model
	focus  int

	banner    string
	bannerErr bool
	width     int
}

// NewModel creates the TUI. screen must report through feed.
func NewModel(ctx context.Context, screen *requests.Screen, resolver requests.OperatorResolver, feed *Feed) Model {
	inputs := make([]textinput.Model, 2)
	for i := range inputs {
		in := textinput.New()
		in.CharLimit = imsi.Length
		in.Width = 20
		in.Prompt = "> "
		inputs[i] = in
	}
	inputs[fieldIMSI].Placeholder = "15 digit IMSI"
	inputs[fieldConfirm].Placeholder = "repeat IMSI"

	return Model{
		ctx:      ctx,
		screen:   screen,
		resolver: resolver,
		feed:     feed,
		keys:     DefaultKeyMap,
		styles:   DefaultStyles(),
		state:    screen.State(),
		inputs:   inputs,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.activate(), m.feed.wait())
}

func (m Model) activate() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.screen.Activate(m.ctx, m.resolver)}
	}
}

func (m Model) changePage(page int) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.screen.ChangePage(m.ctx, page)}
	}
}

func (m Model) download() tea.Cmd {
	return func() tea.Msg {
		path, err := m.screen.BulkDownload(m.ctx)
		return savedMsg{path: path, err: err}
	}
}

func (m Model) submit(form imsi.Submission) tea.Cmd {
	return func() tea.Msg {
		return submittedMsg{err: m.screen.SubmitIMSI(m.ctx, form)}
	}
}

func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		m.width = message.Width
		return m, nil

	case loadedMsg:
		m.sync()
		return m, nil

	case savedMsg:
		if message.err == nil {
			m.setBanner("Saved "+message.path, false)
		}
		return m, nil

	case submittedMsg:
		var verrs imsi.ValidationErrors
		if !errors.As(message.err, &verrs) && !errors.Is(message.err, requests.ErrDialogBusy) {
			m.resetInputs()
		}
		m.sync()
		return m, nil

	case feedMsg:
		if message.err != nil {
			m.setBanner(requests.Describe(message.err), true)
		} else {
			m.setBanner(message.notice, false)
		}
		m.sync()
		return m, m.feed.wait()

	case tea.KeyMsg:
		if m.state.Dialog.IsOpen() {
			return m.handleDialogKeys(message)
		}
		return m.handleListKeys(message)
	}
	return m, nil
}

func (m Model) handleListKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(message, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(message, m.keys.Down):
		if m.cursor < len(m.state.Cases)-1 {
			m.cursor++
		}
	case key.Matches(message, m.keys.PrevPage):
		if m.state.Window.CurrentPage > 1 {
			return m, m.changePage(m.state.Window.CurrentPage - 1)
		}
	case key.Matches(message, m.keys.NextPage):
		if m.state.Window.CurrentPage < m.state.Window.Pages() {
			return m, m.changePage(m.state.Window.CurrentPage + 1)
		}
	case key.Matches(message, m.keys.Refresh):
		return m, m.changePage(m.state.Window.CurrentPage)
	case key.Matches(message, m.keys.Download):
		if m.state.Loaded && len(m.state.Cases) > 0 {
			return m, m.download()
		}
	case key.Matches(message, m.keys.Select):
		if m.cursor < len(m.state.Cases) {
			if err := m.screen.SelectRow(m.state.Cases[m.cursor]); err != nil {
				m.setBanner(requests.Describe(err), true)
				return m, nil
			}
			m.resetInputs()
			m.sync()
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m Model) handleDialogKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case message.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(message, m.keys.Cancel):
		if err := m.screen.CancelDialog(); err == nil {
			m.resetInputs()
		}
		m.sync()
		return m, nil
	case key.Matches(message, m.keys.NextField):
		m.setFocus((m.focus + 1) % len(m.inputs))
		return m, nil
	case key.Matches(message, m.keys.Submit):
		if m.state.Dialog.State == requests.DialogSubmitting {
			return m, nil
		}
		return m, m.submit(imsi.Submission{
			IMSI:        m.inputs[fieldIMSI].Value(),
			ConfirmIMSI: m.inputs[fieldConfirm].Value(),
		})
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(message)
	return m, cmd
}

func (m *Model) sync() {
	m.state = m.screen.State()
	if m.cursor >= len(m.state.Cases) {
		m.cursor = max(len(m.state.Cases)-1, 0)
	}
}

func (m *Model) setFocus(i int) {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

func (m *Model) resetInputs() {
	for i := range m.inputs {
		m.inputs[i].Reset()
	}
	m.setFocus(fieldIMSI)
}

func (m *Model) setBanner(text string, isErr bool) {
	m.banner = text
	m.bannerErr = isErr
}

func (m Model) View() string {
	var b strings.Builder
	s := m.styles

	title := "Requests"
	if m.state.Operator != "" {
		title += " · " + m.state.Operator
	}
	b.WriteString(s.Title.Render(title))
	b.WriteString("\n")

	switch {
	case !m.state.Loaded && m.state.Loading:
		b.WriteString(s.Muted.Render("Loading..."))
		b.WriteString("\n")
	case m.state.Empty():
		b.WriteString(s.Muted.Render("No requests found"))
		b.WriteString("\n")
	case m.state.Loaded:
		m.renderTable(&b)
	}

	if m.state.Dialog.IsOpen() {
		b.WriteString(m.renderDialog())
		b.WriteString("\n")
	}

	if m.banner != "" {
		style := s.Notice
		if m.bannerErr {
			style = s.Error
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.banner))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(s.Muted.Render(m.helpLine()))
	return b.String()
}

func (m Model) renderTable(b *strings.Builder) {
	s := m.styles
	b.WriteString(s.Header.Render(fmt.Sprintf("%-12s %-18s", "Request ID", "MSISDN")))
	b.WriteString("\n")
	for i, c := range m.state.Cases {
		line := fmt.Sprintf("%-12d %-18s", c.RequestID, c.MSISDN)
		if i == m.cursor {
			b.WriteString(s.Selected.Render(line))
		} else {
			b.WriteString(s.Row.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(s.Muted.Render(m.state.Window.Caption()))
	if m.state.Window.ShowPagination() {
		b.WriteString(s.Muted.Render(fmt.Sprintf("  ·  page %d of %d", m.state.Window.CurrentPage, m.state.Window.Pages())))
	}
	if m.state.Loading {
		b.WriteString(s.Muted.Render("  ·  loading"))
	}
	b.WriteString("\n")
}

func (m Model) renderDialog() string {
	s := m.styles
	d := m.state.Dialog
	var b strings.Builder
	b.WriteString(s.Label.Render(d.Title()))
	b.WriteString("\n\n")

	fields := []struct {
		label string
		name  string
	}{
		{"IMSI", "imsi"},
		{"Confirm IMSI", "confirmImsi"},
	}
	for i, f := range fields {
		b.WriteString(f.label)
		b.WriteString("\n")
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
		if msg := d.Errors.Field(f.name); msg != "" {
			b.WriteString(s.Error.Render(msg))
			b.WriteString("\n")
		}
	}
	if d.State == requests.DialogSubmitting {
		b.WriteString(s.Muted.Render("Submitting..."))
		b.WriteString("\n")
	}
	return s.Dialog.Render(b.String())
}

func (m Model) helpLine() string {
	bindings := m.keys.listHelp()
	if m.state.Dialog.IsOpen() {
		bindings = m.keys.dialogHelp()
	}
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}
