package styles

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LoadingModel is the spinner shown while storage is read.
type LoadingModel struct {
	spinner spinner.Model
	Message string
	theme   *Theme
}

// NewLoading creates a loading indicator with message.
func NewLoading(theme *Theme, message string) LoadingModel {
	s := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	s.Style = lipgloss.NewStyle().Foreground(theme.Accent)
	return LoadingModel{spinner: s, Message: message, theme: theme}
}

// Tick starts the animation.
func (m LoadingModel) Tick() tea.Msg {
	return m.spinner.Tick()
}

// Update advances the animation on spinner ticks.
func (m LoadingModel) Update(msg tea.Msg) (LoadingModel, tea.Cmd) {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m LoadingModel) View() string {
	return m.spinner.View() + " " + m.theme.Subtle.Render(m.Message)
}
