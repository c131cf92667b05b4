package styles

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/candyland/internal/domain/entity"
)

// ConfirmModel asks whether to delete one cache generation. It defaults to No.
type ConfirmModel struct {
	Generation entity.CacheGeneration
	Yes        bool
	Confirmed  bool
	Canceled   bool
	keys       ConfirmKeyMap
	theme      *Theme
}

// ConfirmKeyMap defines keybindings for the delete dialog.
type ConfirmKeyMap struct {
	Yes     key.Binding
	No      key.Binding
	Toggle  key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultConfirmKeyMap returns the default keybindings.
func DefaultConfirmKeyMap() ConfirmKeyMap {
	return ConfirmKeyMap{
		Yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		No:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		Toggle:  key.NewBinding(key.WithKeys("left", "right", "h", "l", "tab"), key.WithHelp("←/→", "switch")),
		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// NewDeleteConfirm creates the dialog for deleting g.
func NewDeleteConfirm(theme *Theme, g entity.CacheGeneration) ConfirmModel {
	return ConfirmModel{Generation: g, keys: DefaultConfirmKeyMap(), theme: theme}
}

// Update handles a key press.
func (m ConfirmModel) Update(msg tea.Msg) (ConfirmModel, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(k, m.keys.Yes):
		m.Yes = true
	case key.Matches(k, m.keys.No):
		m.Yes = false
	case key.Matches(k, m.keys.Toggle):
		m.Yes = !m.Yes
	case key.Matches(k, m.keys.Confirm):
		m.Confirmed = true
	case key.Matches(k, m.keys.Cancel):
		m.Canceled = true
	}
	return m, nil
}

// Warning explains what deleting a current generation does, or "" for a stale one.
func (m ConfirmModel) Warning() string {
	switch m.Generation.Kind {
	case entity.GenerationPrecache:
		return "This is the current precache. The proxy reinstalls it on its next start."
	case entity.GenerationDynamic:
		return "This is the current dynamic cache. Runtime copies are lost until pages are fetched again."
	default:
		return ""
	}
}

// View renders the dialog.
func (m ConfirmModel) View() string {
	t := m.theme
	g := m.Generation

	yesStyle, noStyle := t.InactiveTab, t.ActiveTab
	if m.Yes {
		yesStyle, noStyle = t.ActiveTab, t.InactiveTab
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Center, noStyle.Render(" No "), "  ", yesStyle.Render(" Yes "))

	lines := []string{
		t.Title.Render(fmt.Sprintf("%s Delete %s?", IconTrash, g.Name)),
		t.Subtle.Render(fmt.Sprintf("%s generation, %d entries, %s", g.Kind, g.Entries, FormatSize(g.Bytes))),
	}
	if w := m.Warning(); w != "" {
		lines = append(lines, t.WarningStyle.Render(IconWarning+" "+w))
	}
	lines = append(lines, "", buttons, "", t.Subtle.Render("y/n • ←/→ switch • enter confirm • esc cancel"))

	return t.Box.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

// Done reports whether the dialog is closed.
func (m ConfirmModel) Done() bool {
	return m.Confirmed || m.Canceled
}

// Result reports whether the user confirmed the deletion.
func (m ConfirmModel) Result() bool {
	return m.Confirmed && m.Yes
}
