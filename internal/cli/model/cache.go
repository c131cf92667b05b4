// Package model provides Bubble Tea models for CLI commands.
package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/candyland/internal/cli/styles"
	"github.com/bnema/candyland/internal/domain/entity"
	"github.com/bnema/candyland/internal/logging"
)

// CacheManager is the subset of the cache maintenance use case the browser needs.
type CacheManager interface {
	Names() entity.CacheNames
	List(ctx context.Context) ([]entity.CacheGeneration, error)
	Entries(ctx context.Context, name string) ([]string, error)
	Purge(ctx context.Context, generations []entity.CacheGeneration) []entity.PurgeResult
}

const (
	defaultWidth  = 80
	defaultHeight = 24
	chromeLines   = 8
)

// CacheModel is the Bubble Tea model for the interactive cache generation browser.
type CacheModel struct {
	// UI components
	help    help.Model
	keys    styles.CacheKeyMap
	table   table.Model
	loading *styles.LoadingModel
	confirm *styles.ConfirmModel
	purge   *styles.PurgeModel

	// State
	generations   []entity.CacheGeneration
	inspecting    string // generation whose entries are shown, empty for the list
	entries       []string
	width         int
	height        int
	err           error
	statusMessage string

	// Dependencies
	ctx     context.Context
	manager CacheManager
	theme   *styles.Theme
}

// NewCacheModel creates a new cache browser model.
func NewCacheModel(ctx context.Context, theme *styles.Theme, manager CacheManager) CacheModel {
	loading := styles.NewLoading(theme, "Reading cache storage...")
	return CacheModel{
		help:    styles.NewStyledHelp(theme),
		keys:    styles.DefaultCacheKeyMap(),
		table:   styles.NewStyledTable(theme, styles.GenerationTableColumns(), nil, defaultWidth, defaultHeight-chromeLines),
		loading: &loading,
		width:   defaultWidth,
		height:  defaultHeight,
		ctx:     ctx,
		manager: manager,
		theme:   theme,
	}
}

// generationsLoadedMsg is sent when generations are loaded.
type generationsLoadedMsg struct {
	generations []entity.CacheGeneration
	err         error
}

// entriesLoadedMsg is sent when the entries of one generation are loaded.
type entriesLoadedMsg struct {
	name    string
	entries []string
	err     error
}

// purgedMsg is sent when a purge finished.
type purgedMsg struct {
	results []entity.PurgeResult
}

// Init implements tea.Model.
func (m CacheModel) Init() tea.Cmd {
	return tea.Batch(m.loading.Tick, m.loadGenerations)
}

func (m CacheModel) loadGenerations() tea.Msg {
	log := logging.FromContext(m.ctx)
	generations, err := m.manager.List(m.ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load cache generations")
		return generationsLoadedMsg{err: err}
	}
	log.Debug().Int("count", len(generations)).Msg("loaded cache generations")
	return generationsLoadedMsg{generations: generations}
}

func (m CacheModel) loadEntries(name string) tea.Cmd {
	return func() tea.Msg {
		entries, err := m.manager.Entries(m.ctx, name)
		return entriesLoadedMsg{name: name, entries: entries, err: err}
	}
}

func (m CacheModel) purgeGenerations(generations []entity.CacheGeneration) tea.Cmd {
	return func() tea.Msg {
		return purgedMsg{results: m.manager.Purge(m.ctx, generations)}
	}
}

// Update implements tea.Model.
func (m CacheModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		return m.handleConfirmModal(msg)
	}
	if m.purge != nil {
		return m.handlePurgeModal(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(max(msg.Height-chromeLines, 3))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case generationsLoadedMsg:
		m.loading = nil
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.generations = msg.generations
		if m.inspecting == "" {
			m.showGenerations()
		}
		return m, nil

	case entriesLoadedMsg:
		if msg.err != nil {
			m.statusMessage = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.inspecting = msg.name
		m.entries = msg.entries
		m.showEntries()
		return m, nil

	case purgedMsg:
		m.statusMessage = summarizePurge(msg.results)
		m.inspecting = ""
		return m, m.loadGenerations
	}

	if m.loading != nil {
		loading, cmd := m.loading.Update(msg)
		m.loading = &loading
		return m, cmd
	}
	return m, nil
}

func (m CacheModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Back):
		if m.inspecting != "" {
			m.inspecting = ""
			m.entries = nil
			m.showGenerations()
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.statusMessage = ""
		m.inspecting = ""
		return m, m.loadGenerations

	case key.Matches(msg, m.keys.Inspect):
		if g, ok := m.selected(); ok && m.inspecting == "" {
			return m, m.loadEntries(g.Name)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		g, ok := m.selected()
		if !ok || m.inspecting != "" {
			return m, nil
		}
		confirm := styles.NewDeleteConfirm(m.theme, g)
		m.confirm = &confirm
		return m, nil

	case key.Matches(msg, m.keys.Purge):
		if m.inspecting == "" {
			purge := styles.NewPurge(m.theme, m.generations)
			m.purge = &purge
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m CacheModel) handleConfirmModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	confirm, cmd := m.confirm.Update(msg)
	m.confirm = &confirm
	if !m.confirm.Done() {
		return m, cmd
	}
	if m.confirm.Result() {
		cmd = m.purgeGenerations([]entity.CacheGeneration{m.confirm.Generation})
	}
	m.confirm = nil
	return m, cmd
}

func (m CacheModel) handlePurgeModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	purge, cmd := m.purge.Update(msg)
	m.purge = &purge
	if !m.purge.Done() {
		return m, cmd
	}
	selected := m.purge.Selected()
	confirmed := m.purge.Confirmed
	m.purge = nil
	if !confirmed || len(selected) == 0 {
		return m, nil
	}
	return m, m.purgeGenerations(selected)
}

func (m CacheModel) selected() (entity.CacheGeneration, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.generations) {
		return entity.CacheGeneration{}, false
	}
	return m.generations[i], true
}

func (m *CacheModel) showGenerations() {
	rows := make([]table.Row, 0, len(m.generations))
	for _, g := range m.generations {
		rows = append(rows, styles.GenerationRow(g))
	}
	m.table.SetRows(nil)
	m.table.SetColumns(styles.GenerationTableColumns())
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

func (m *CacheModel) showEntries() {
	rows := make([]table.Row, 0, len(m.entries))
	for _, e := range m.entries {
		rows = append(rows, table.Row{e})
	}
	m.table.SetRows(nil)
	m.table.SetColumns(styles.EntryTableColumns())
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

func summarizePurge(results []entity.PurgeResult) string {
	var ok, failed int
	var bytes int64
	for _, r := range results {
		if r.Success {
			ok++
			bytes += r.Generation.Bytes
		} else {
			failed++
		}
	}
	msg := fmt.Sprintf("Purged %d generation(s), freed %s", ok, styles.FormatSize(bytes))
	if failed > 0 {
		msg += fmt.Sprintf(", %d failed", failed)
	}
	return msg
}

// View implements tea.Model.
func (m CacheModel) View() string {
	if m.confirm != nil {
		return m.confirm.View()
	}
	if m.purge != nil {
		return m.purge.View()
	}

	t := m.theme
	var b strings.Builder

	names := m.manager.Names()
	header := lipgloss.JoinHorizontal(
		lipgloss.Left,
		t.Title.Render(fmt.Sprintf("%s Cache storage", styles.IconCache)),
		"  ",
		t.Subtle.Render(fmt.Sprintf("current: %s + %s", names.Precache, names.Dynamic)),
	)
	b.WriteString(header)
	b.WriteString("\n\n")

	switch {
	case m.loading != nil:
		b.WriteString(m.loading.View())
	case m.err != nil:
		b.WriteString(t.ErrorStyle.Render(fmt.Sprintf("%s %v", styles.IconX, m.err)))
	case m.inspecting != "":
		b.WriteString(t.Subtitle.Render(fmt.Sprintf("%s (%d entries)", m.inspecting, len(m.entries))))
		b.WriteString("\n")
		b.WriteString(m.table.View())
	case len(m.generations) == 0:
		b.WriteString(t.Subtle.Render("No cache generations stored. Run the proxy to install the app shell."))
	default:
		b.WriteString(m.table.View())
	}

	if m.statusMessage != "" {
		b.WriteString("\n\n")
		b.WriteString(t.SuccessStyle.Render(m.statusMessage))
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
