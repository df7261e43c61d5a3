// Package tui is the interactive chat surface: a contact sidebar with search,
// the active conversation, a message input, and the token and add-contact
// dialogs. All state changes go through a messenger.Controller.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	telegramBlue = lipgloss.Color("#2AABEE")
	muted        = lipgloss.Color("#8A8F98")
	border       = lipgloss.Color("#3A3F4B")
	destructive  = lipgloss.Color("#E53935")
	warning      = lipgloss.Color("#FFC107")
)

// Styles holds the styled components
type Styles struct {
	Sidebar      lipgloss.Style
	Main         lipgloss.Style
	Header       lipgloss.Style
	Contact      lipgloss.Style
	CursorRow    lipgloss.Style
	ActiveMarker lipgloss.Style
	Preview      lipgloss.Style
	Outgoing     lipgloss.Style
	Incoming     lipgloss.Style
	Timestamp    lipgloss.Style
	Warning      lipgloss.Style
	Error        lipgloss.Style
	Modal        lipgloss.Style
	Help         lipgloss.Style
}

// DefaultStyles returns the standard palette
func DefaultStyles() Styles {
	return Styles{
		Sidebar: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(border).
			PaddingRight(1),
		Main: lipgloss.NewStyle().
			PaddingLeft(1),
		Header: lipgloss.NewStyle().
			Foreground(telegramBlue).
			Bold(true),
		Contact: lipgloss.NewStyle(),
		CursorRow: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(telegramBlue),
		ActiveMarker: lipgloss.NewStyle().
			Foreground(telegramBlue).
			Bold(true),
		Preview: lipgloss.NewStyle().
			Foreground(muted),
		Outgoing: lipgloss.NewStyle().
			Foreground(telegramBlue),
		Incoming: lipgloss.NewStyle(),
		Timestamp: lipgloss.NewStyle().
			Foreground(muted),
		Warning: lipgloss.NewStyle().
			Foreground(warning),
		Error: lipgloss.NewStyle().
			Foreground(destructive),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(telegramBlue).
			Padding(1, 2),
		Help: lipgloss.NewStyle().
			Foreground(muted),
	}
}
