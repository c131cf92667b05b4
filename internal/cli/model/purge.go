package model

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnema/candyland/internal/cli/styles"
	"github.com/bnema/candyland/internal/domain/entity"
)

// PurgeModel runs the purge modal as a standalone program.
type PurgeModel struct {
	modal styles.PurgeModel
}

// NewPurgeModel creates the standalone purge selector.
func NewPurgeModel(theme *styles.Theme, generations []entity.CacheGeneration) PurgeModel {
	return PurgeModel{modal: styles.NewPurge(theme, generations)}
}

// Init implements tea.Model.
func (m PurgeModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m PurgeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyCtrlC {
		m.modal.Canceled = true
		return m, tea.Quit
	}
	modal, cmd := m.modal.Update(msg)
	m.modal = modal
	if m.modal.Done() {
		return m, tea.Quit
	}
	return m, cmd
}

// View implements tea.Model.
func (m PurgeModel) View() string {
	if m.modal.Done() {
		return ""
	}
	return m.modal.View()
}

// Selected returns the generations to purge, or nil when the user canceled.
func (m PurgeModel) Selected() []entity.CacheGeneration {
	if !m.modal.Confirmed {
		return nil
	}
	return m.modal.Selected()
}
