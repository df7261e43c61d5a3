package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pfrederiksen/tg-messenger/internal/messagelog"
	"github.com/pfrederiksen/tg-messenger/internal/messenger"
	"github.com/pfrederiksen/tg-messenger/internal/notifier"
	"github.com/pfrederiksen/tg-messenger/internal/preferences"
	"github.com/pfrederiksen/tg-messenger/internal/telegram"
)

const (
	sidebarWidth = 32
	chromeHeight = 6
)

type focusArea int

const (
	focusInput focusArea = iota
	focusContacts
	focusSearch
	focusCount
)

// sendDoneMsg reports that a dispatched message got its provider answer
type sendDoneMsg struct {
	messageID string
	err       error
}

// Model is the bubbletea model for the chat surface
type Model struct {
	ctrl    *messenger.Controller
	notices *notifier.Recorder
	styles  Styles
	ctx     context.Context

	search   textinput.Model
	input    textinput.Model
	token    textinput.Model
	name     textinput.Model
	chatID   textinput.Model
	viewport viewport.Model

	focus     focusArea
	addField  int
	cursor    int
	dismissed int
	width     int
	height    int
	quitting  bool
}

// New creates the chat surface. Notices reported by ctrl should go to notices.
func New(ctx context.Context, ctrl *messenger.Controller, notices *notifier.Recorder) Model {
	search := textinput.New()
	search.Placeholder = "Search"
	search.Prompt = "🔍 "

	input := textinput.New()
	input.Placeholder = "Write a message..."
	input.Prompt = "> "

	token := textinput.New()
	token.Placeholder = "123456:ABC-DEF..."
	token.EchoMode = textinput.EchoPassword
	token.EchoCharacter = '•'

	name := textinput.New()
	name.Placeholder = "Name"

	chatID := textinput.New()
	chatID.Placeholder = "Chat ID (e.g. 12345678 or -100...)"

	m := Model{
		ctrl:     ctrl,
		notices:  notices,
		styles:   DefaultStyles(),
		ctx:      ctx,
		search:   search,
		input:    input,
		token:    token,
		name:     name,
		chatID:   chatID,
		viewport: viewport.New(60, 15),
	}
	m.syncFocus()
	m.refresh()
	return m
}

// Run starts the chat surface and blocks until the user quits or ctx ends
func Run(ctx context.Context, ctrl *messenger.Controller, notices *notifier.Recorder) error {
	p := tea.NewProgram(New(ctx, ctrl, notices), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-sidebarWidth-2, 10)
		m.viewport.Height = max(msg.Height-chromeHeight, 3)
		m.refresh()
		return m, nil

	case sendDoneMsg:
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}

		var cmd tea.Cmd
		switch {
		case m.ctrl.TokenPromptOpen():
			m, cmd = m.updateToken(msg)
		case m.ctrl.AddContactOpen():
			m, cmd = m.updateAddContact(msg)
		default:
			m, cmd = m.updateMain(msg)
		}
		m.syncFocus()
		return m, cmd
	}

	return m, nil
}

func (m Model) updateMain(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+t":
		m.dismissed = len(m.notices.Notices())
		m.token.Reset()
		m.ctrl.OpenTokenPrompt()
		return m, nil
	case "ctrl+n":
		m.dismissed = len(m.notices.Notices())
		m.name.Reset()
		m.chatID.Reset()
		m.addField = 0
		m.ctrl.OpenAddContact()
		return m, nil
	case "tab":
		m.focus = (m.focus + 1) % focusCount
		return m, nil
	case "shift+tab":
		m.focus = (m.focus + focusCount - 1) % focusCount
		return m, nil
	case "esc":
		m.dismissed = len(m.notices.Notices())
		m.focus = focusInput
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusSearch:
		if msg.Type == tea.KeyEnter {
			m.selectAt(0)
			return m, nil
		}
		m.search, cmd = m.search.Update(msg)
		m.cursor = 0

	case focusContacts:
		contacts := m.contacts()
		switch msg.String() {
		case "up", "k":
			m.cursor = max(m.cursor-1, 0)
		case "down", "j":
			m.cursor = min(m.cursor+1, max(len(contacts)-1, 0))
		case "enter":
			m.selectAt(m.cursor)
		case "d", "delete":
			if m.cursor < len(contacts) {
				m.ctrl.RemoveContact(contacts[m.cursor].ID)
				m.cursor = min(m.cursor, max(len(contacts)-2, 0))
				m.refresh()
			}
		}

	case focusInput:
		switch msg.Type {
		case tea.KeyEnter:
			return m.send()
		case tea.KeyPgUp, tea.KeyPgDown:
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) updateToken(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.ctrl.CloseTokenPrompt()
		return m, nil
	case tea.KeyEnter:
		m.ctrl.SaveToken(m.token.Value())
		m.token.Reset()
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.token, cmd = m.token.Update(msg)
	return m, cmd
}

func (m Model) updateAddContact(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.ctrl.CloseAddContact()
		return m, nil
	case tea.KeyTab, tea.KeyShiftTab:
		m.addField = 1 - m.addField
		return m, nil
	case tea.KeyEnter:
		if m.addField == 0 {
			m.addField = 1
			return m, nil
		}
		if _, err := m.ctrl.AddContact(m.name.Value(), m.chatID.Value()); err == nil {
			m.search.Reset()
			m.cursor = 0
			m.focus = focusInput
			m.refresh()
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.addField == 0 {
		m.name, cmd = m.name.Update(msg)
	} else {
		m.chatID, cmd = m.chatID.Update(msg)
		if clean := messenger.SanitizeChatID(m.chatID.Value()); clean != m.chatID.Value() {
			m.chatID.SetValue(clean)
		}
	}
	return m, cmd
}

// send echoes the input into the log and returns the command that awaits the provider
func (m Model) send() (Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}

	pending, err := m.ctrl.Dispatch(text)
	if err != nil {
		return m, nil
	}

	m.input.Reset()
	m.refresh()
	return m, awaitSend(m.ctx, pending)
}

func awaitSend(ctx context.Context, pending *messenger.PendingSend) tea.Cmd {
	return func() tea.Msg {
		_, err := pending.Await(ctx)
		return sendDoneMsg{messageID: pending.Message().ID, err: err}
	}
}

func (m *Model) selectAt(i int) {
	contacts := m.contacts()
	if i >= len(contacts) {
		return
	}
	m.ctrl.SelectChat(contacts[i].ID)
	m.cursor = i
	m.focus = focusInput
	m.refresh()
}

func (m Model) contacts() []preferences.Recipient {
	return m.ctrl.FilterContacts(m.search.Value())
}

// syncFocus gives keyboard focus to exactly one input
func (m *Model) syncFocus() {
	inputs := []*textinput.Model{&m.search, &m.input, &m.token, &m.name, &m.chatID}
	var want *textinput.Model
	switch {
	case m.ctrl.TokenPromptOpen():
		want = &m.token
	case m.ctrl.AddContactOpen():
		want = &m.name
		if m.addField == 1 {
			want = &m.chatID
		}
	case m.focus == focusSearch:
		want = &m.search
	case m.focus == focusInput:
		want = &m.input
	}

	for _, in := range inputs {
		if in == want {
			in.Focus()
		} else {
			in.Blur()
		}
	}
}

// refresh rebuilds the conversation view from the controller
func (m *Model) refresh() {
	var sb strings.Builder
	for msg := range m.ctrl.Messages() {
		who, style := "You", m.styles.Outgoing
		if msg.Sender != messagelog.SenderMe {
			who, style = string(msg.Sender), m.styles.Incoming
		}
		fmt.Fprintf(&sb, "%s %s %s\n",
			m.styles.Timestamp.Render(telegram.TimeLabel(msg.Time())),
			style.Render(who+":"),
			msg.Text)
	}
	if sb.Len() == 0 {
		sb.WriteString(m.styles.Preview.Render("No messages yet."))
	}
	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()

	if n := len(m.contacts()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.viewSidebar(), m.viewMain())

	var modal string
	switch {
	case m.ctrl.TokenPromptOpen():
		modal = m.viewTokenModal()
	case m.ctrl.AddContactOpen():
		modal = m.viewAddContactModal()
	default:
		return body
	}

	if m.width == 0 || m.height == 0 {
		return body + "\n" + modal
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func (m Model) viewSidebar() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render("Contacts"))
	sb.WriteString("\n")
	sb.WriteString(m.search.View())
	sb.WriteString("\n\n")

	contacts := m.contacts()
	if len(contacts) == 0 {
		sb.WriteString(m.styles.Preview.Render("No contacts"))
	}

	activeID := m.ctrl.ActiveChatID()
	for i, c := range contacts {
		marker := "  "
		if c.ID == activeID {
			marker = m.styles.ActiveMarker.Render("● ")
		}
		title := truncate(c.Name, sidebarWidth-4)
		if i == m.cursor && m.focus == focusContacts {
			title = m.styles.CursorRow.Render(title)
		}
		sb.WriteString(marker + title + "\n")

		preview := strings.TrimSpace(c.LastTime + " " + c.LastMessage)
		sb.WriteString("  " + m.styles.Preview.Render(truncate(preview, sidebarWidth-4)) + "\n")
	}

	return m.styles.Sidebar.Width(sidebarWidth).Render(sb.String())
}

func (m Model) viewMain() string {
	var sb strings.Builder

	if r, ok := m.ctrl.ActiveRecipient(); ok {
		sb.WriteString(m.styles.Header.Render(r.Name))
		sb.WriteString(m.styles.Preview.Render("  " + r.ID))
	} else {
		sb.WriteString(m.styles.Preview.Render("Select a chat to start messaging"))
	}
	sb.WriteString("\n")

	if !m.ctrl.BotConfigured() {
		sb.WriteString(m.styles.Warning.Render("⚠️ Bot token needed: press ctrl+t"))
	}
	sb.WriteString("\n")

	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")

	if n := m.ctrl.InFlight(); n > 0 {
		sb.WriteString(m.styles.Preview.Render(fmt.Sprintf("sending %d...", n)))
	}
	sb.WriteString("\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n")

	if all := m.notices.Notices(); len(all) > m.dismissed {
		n := all[len(all)-1]
		style := m.styles.Warning
		if n.Severity == notifier.SeverityError {
			style = m.styles.Error
		}
		sb.WriteString(style.Render(n.String()))
	}
	sb.WriteString("\n")
	sb.WriteString(m.styles.Help.Render("tab focus • enter send/select • d remove • ctrl+n add contact • ctrl+t bot token • ctrl+c quit"))

	return m.styles.Main.Render(sb.String())
}

func (m Model) viewTokenModal() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render("Bot Token"))
	sb.WriteString("\n\n")
	sb.WriteString("Paste the token from @BotFather.\n\n")
	sb.WriteString(m.token.View())
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.Help.Render("enter save • esc cancel"))
	return m.styles.Modal.Render(sb.String())
}

func (m Model) viewAddContactModal() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render("Add Contact"))
	sb.WriteString("\n\n")
	sb.WriteString(m.name.View())
	sb.WriteString("\n")
	sb.WriteString(m.chatID.View())
	sb.WriteString("\n\n")
	if all := m.notices.Notices(); len(all) > m.dismissed {
		sb.WriteString(m.styles.Warning.Render(all[len(all)-1].Text))
		sb.WriteString("\n\n")
	}
	sb.WriteString(m.styles.Help.Render("tab next field • enter add • esc cancel"))
	return m.styles.Modal.Render(sb.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
