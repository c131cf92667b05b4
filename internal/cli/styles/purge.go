package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/candyland/internal/domain/entity"
)

// PurgeItem wraps entity.CacheGeneration with selection state for the UI.
type PurgeItem struct {
	entity.CacheGeneration
	Selected bool
}

// PurgeModel is the multi-select purge modal for cache generations.
type PurgeModel struct {
	Items     []PurgeItem
	Cursor    int
	Confirmed bool
	Canceled  bool
	theme     *Theme
}

// PurgeKeyMap defines keybindings for purge modal.
type PurgeKeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Toggle      key.Binding
	ToggleAll   key.Binding
	ToggleStale key.Binding
	Confirm     key.Binding
	Cancel      key.Binding
}

// DefaultPurgeKeyMap returns default keybindings.
func DefaultPurgeKeyMap() PurgeKeyMap {
	return PurgeKeyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		ToggleAll:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "toggle all")),
		ToggleStale: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "toggle stale")),
		Confirm:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		Cancel:      key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", "cancel")),
	}
}

// NewPurge creates a new purge modal. Stale generations start selected.
func NewPurge(theme *Theme, generations []entity.CacheGeneration) PurgeModel {
	items := make([]PurgeItem, 0, len(generations))
	for _, g := range generations {
		items = append(items, PurgeItem{CacheGeneration: g, Selected: !g.Current()})
	}
	return PurgeModel{Items: items, theme: theme}
}

// Init implements tea.Model.
func (m PurgeModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m PurgeModel) Update(msg tea.Msg) (PurgeModel, tea.Cmd) {
	keys := DefaultPurgeKeyMap()

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Up):
			m.moveCursor(-1)
		case key.Matches(msg, keys.Down):
			m.moveCursor(1)
		case key.Matches(msg, keys.Toggle):
			m.toggleCurrent()
		case key.Matches(msg, keys.ToggleAll):
			m.toggleAll()
		case key.Matches(msg, keys.ToggleStale):
			m.ToggleStale()
		case key.Matches(msg, keys.Confirm):
			m.Confirmed = true
		case key.Matches(msg, keys.Cancel):
			m.Canceled = true
		}
	}

	return m, nil
}

func (m *PurgeModel) moveCursor(delta int) {
	if len(m.Items) == 0 {
		return
	}
	m.Cursor = (m.Cursor + delta + len(m.Items)) % len(m.Items)
}

func (m *PurgeModel) toggleCurrent() {
	if m.Cursor < 0 || m.Cursor >= len(m.Items) {
		return
	}
	m.Items[m.Cursor].Selected = !m.Items[m.Cursor].Selected
}

func (m *PurgeModel) toggleAll() {
	anyUnselected := false
	for _, it := range m.Items {
		if !it.Selected {
			anyUnselected = true
			break
		}
	}
	for i := range m.Items {
		m.Items[i].Selected = anyUnselected
	}
}

// ToggleStale toggles the selection state of all stale generations.
func (m *PurgeModel) ToggleStale() {
	anyUnselected := false
	for _, it := range m.Items {
		if !it.Current() && !it.Selected {
			anyUnselected = true
			break
		}
	}
	for i := range m.Items {
		if !m.Items[i].Current() {
			m.Items[i].Selected = anyUnselected
		}
	}
}

// View implements tea.Model.
func (m PurgeModel) View() string {
	t := m.theme

	header := t.Title.Render(fmt.Sprintf("%s Purge", IconTrash))
	subtitle := t.Subtle.Render("Select cache generations to remove")

	var rows []string
	if len(m.Items) == 0 {
		rows = append(rows, t.Subtle.Render("  no cache generations stored"))
	}
	for i, it := range m.Items {
		rows = append(rows, m.renderItemRow(i, it))
	}
	list := lipgloss.JoinVertical(lipgloss.Left, rows...)

	var summary string
	if n := m.SelectedCount(); n > 0 {
		parts := []string{
			t.Subtle.Render(fmt.Sprintf("%d selected", n)),
			" ",
			t.Subtle.Render(fmt.Sprintf("(%s)", FormatSize(m.SelectedSize()))),
		}
		if m.CurrentSelected() {
			parts = append([]string{t.WarningStyle.Render(IconWarning), " "}, parts...)
			parts = append(parts, " ", t.WarningStyle.Render("current generation selected, the worker will reinstall"))
		}
		summary = lipgloss.JoinHorizontal(lipgloss.Left, parts...)
	} else {
		summary = t.Subtle.Render("0 selected")
	}

	help := t.Subtle.Render("↑/↓ j/k move • space toggle • a all • s stale • enter • esc")

	content := lipgloss.JoinVertical(lipgloss.Left, header, subtitle, "", list, "", summary, "", help)
	return t.Box.Render(content)
}

func (m PurgeModel) renderItemRow(i int, it PurgeItem) string {
	t := m.theme

	cursor := "  "
	if i == m.Cursor {
		cursor = IconCursor + " "
	}

	checkbox := IconCheckboxEmpty
	if it.Selected {
		checkbox = IconCheckboxChecked
	}

	accent := lipgloss.NewStyle().Foreground(t.Accent)
	nameStyle := t.Normal
	if it.Current() {
		nameStyle = t.Highlight
	}

	const (
		kindPadWidth = 12
		namePadWidth = 28
	)
	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		accent.Render(cursor),
		accent.Render(checkbox),
		" ",
		t.Subtle.Render(padRight(generationLabel(it.Kind), kindPadWidth)),
		nameStyle.Render(padRight(it.Name, namePadWidth)),
		t.Subtle.Render(fmt.Sprintf("%d entries  %s", it.Entries, FormatSize(it.Bytes))),
	)
}

func generationLabel(k entity.GenerationKind) string {
	switch k {
	case entity.GenerationPrecache:
		return fmt.Sprintf("%s Precache", IconPackage)
	case entity.GenerationDynamic:
		return fmt.Sprintf("%s Dynamic", IconGlobe)
	default:
		return fmt.Sprintf("%s Stale", IconClock)
	}
}

func padRight(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(r))
}

// Done returns true if the modal is complete.
func (m PurgeModel) Done() bool {
	return m.Confirmed || m.Canceled
}

// Selected returns the selected generations.
func (m PurgeModel) Selected() []entity.CacheGeneration {
	var out []entity.CacheGeneration
	for _, it := range m.Items {
		if it.Selected {
			out = append(out, it.CacheGeneration)
		}
	}
	return out
}

// SelectedCount returns the number of selected generations.
func (m PurgeModel) SelectedCount() int {
	return len(m.Selected())
}

// SelectedSize returns the stored bytes of the selected generations.
func (m PurgeModel) SelectedSize() int64 {
	var total int64
	for _, it := range m.Items {
		if it.Selected {
			total += it.Bytes
		}
	}
	return total
}

// CurrentSelected reports whether a generation the worker still reads from is selected.
func (m PurgeModel) CurrentSelected() bool {
	for _, it := range m.Items {
		if it.Selected && it.Current() {
			return true
		}
	}
	return false
}
