package styles_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/candyland/internal/cli/styles"
	"github.com/bnema/candyland/internal/domain/entity"
)

func testGenerations() []entity.CacheGeneration {
	return []entity.CacheGeneration{
		{Name: "candyland-cache-v5", Kind: entity.GenerationPrecache, GenerationUsage: entity.GenerationUsage{Entries: 11, Bytes: 4096}},
		{Name: "dynamic-v1", Kind: entity.GenerationDynamic, GenerationUsage: entity.GenerationUsage{Entries: 3, Bytes: 1024}},
		{Name: "candyland-cache-v4", Kind: entity.GenerationStale, GenerationUsage: entity.GenerationUsage{Entries: 10, Bytes: 2048}},
		{Name: "candyland-cache-v3", Kind: entity.GenerationStale, GenerationUsage: entity.GenerationUsage{Entries: 9, Bytes: 512}},
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPurgeModel_PreselectsStale(t *testing.T) {
	m := styles.NewPurge(styles.NewTheme(), testGenerations())

	selected := m.Selected()
	require.Len(t, selected, 2)
	assert.Equal(t, "candyland-cache-v4", selected[0].Name)
	assert.Equal(t, "candyland-cache-v3", selected[1].Name)
	assert.Equal(t, int64(2560), m.SelectedSize())
	assert.False(t, m.CurrentSelected())
}

func TestPurgeModel_ToggleCurrentGeneration(t *testing.T) {
	m := styles.NewPurge(styles.NewTheme(), testGenerations())

	m, _ = m.Update(keyMsg(" "))
	assert.True(t, m.Items[0].Selected)
	assert.True(t, m.CurrentSelected())
	assert.Equal(t, 3, m.SelectedCount())
	assert.Contains(t, m.View(), "worker will reinstall")
}

func TestPurgeModel_CursorWraps(t *testing.T) {
	m := styles.NewPurge(styles.NewTheme(), testGenerations())

	m, _ = m.Update(keyMsg("up"))
	assert.Equal(t, 3, m.Cursor)
	m, _ = m.Update(keyMsg("down"))
	assert.Equal(t, 0, m.Cursor)
	m, _ = m.Update(keyMsg("j"))
	assert.Equal(t, 1, m.Cursor)
}

func TestPurgeModel_ToggleAllAndStale(t *testing.T) {
	m := styles.NewPurge(styles.NewTheme(), testGenerations())

	m, _ = m.Update(keyMsg("a"))
	assert.Equal(t, 4, m.SelectedCount())
	m, _ = m.Update(keyMsg("a"))
	assert.Equal(t, 0, m.SelectedCount())

	m, _ = m.Update(keyMsg("s"))
	assert.Equal(t, 2, m.SelectedCount())
	assert.False(t, m.CurrentSelected())
	m, _ = m.Update(keyMsg("s"))
	assert.Equal(t, 0, m.SelectedCount())
}

func TestPurgeModel_Done(t *testing.T) {
	m := styles.NewPurge(styles.NewTheme(), testGenerations())
	assert.False(t, m.Done())

	confirmed, _ := m.Update(keyMsg("enter"))
	assert.True(t, confirmed.Confirmed)
	assert.True(t, confirmed.Done())

	canceled, _ := m.Update(keyMsg("esc"))
	assert.True(t, canceled.Canceled)
	assert.True(t, canceled.Done())
}

func TestPurgeModel_EmptyView(t *testing.T) {
	m := styles.NewPurge(styles.NewTheme(), nil)
	assert.Contains(t, m.View(), "no cache generations stored")
	m, _ = m.Update(keyMsg("down"))
	assert.Equal(t, 0, m.Cursor)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", styles.FormatSize(512))
	assert.Equal(t, "1.0 KB", styles.FormatSize(1024))
	assert.Equal(t, "1.5 MB", styles.FormatSize(1536*1024))
}
