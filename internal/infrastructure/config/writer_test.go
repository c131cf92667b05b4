package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sectionHeaders(content string) []string {
	var sections []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			sections = append(sections, line)
		}
	}
	return sections
}

func TestWriteConfigOrdered(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	require.NoError(t, WriteConfigOrdered(DefaultConfig(), configPath))

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"[logging]", "[push]", "[reminder]", "[server]", "[storage]", "[worker]"},
		sectionHeaders(string(content)))
	assert.Contains(t, string(content), "default_delay = '5m0s'")
	assert.Contains(t, string(content), "version = 'v5'")
	assert.Contains(t, string(content), "'./offline.html'")
}

func TestWriteConfigOrdered_NilConfig(t *testing.T) {
	assert.Error(t, WriteConfigOrdered(nil, filepath.Join(t.TempDir(), "config.toml")))
}

func TestSortTOMLSections(t *testing.T) {
	input := `[worker]
version = 'v5'

[logging]
level = 'info'

[worker.extra]
a = 1

[push]
urgency = 'high'
`

	result := sortTOMLSections(input)

	assert.Equal(t,
		[]string{"[logging]", "[push]", "[worker]", "[worker.extra]"},
		sectionHeaders(result))
	assert.True(t, strings.HasSuffix(result, "\n"))
	assert.False(t, strings.HasSuffix(result, "\n\n"))
}

func TestEncodeTOML_MatchesWrittenFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	cfg.Push.Urgency = UrgencyHigh

	require.NoError(t, WriteConfigOrdered(cfg, configPath))
	written, err := os.ReadFile(configPath)
	require.NoError(t, err)

	encoded, err := EncodeTOML(cfg)
	require.NoError(t, err)
	assert.Equal(t, string(written), string(encoded))
	assert.Contains(t, string(encoded), "urgency = 'high'")
}
