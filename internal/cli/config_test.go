package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/annotest/internal/utils"
)

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig(NewViper(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "annotest.yaml", config.Manifest)
	assert.Equal(t, FormatText, config.Format)
	assert.Equal(t, []string{"./..."}, config.Patterns)
	assert.False(t, config.Tests)
	assert.Equal(t, utils.DiagnosticInfo, config.DiagnosticLevel())
}

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".annotest.yaml"), []byte(`
manifest: checks/expectations.yaml
format: yaml
level: debug
patterns: [./internal/...]
tests: true
`), 0o644))

	config, err := LoadConfig(NewViper(), dir)
	require.NoError(t, err)
	assert.Equal(t, "checks/expectations.yaml", config.Manifest)
	assert.Equal(t, FormatYAML, config.Format)
	assert.Equal(t, utils.DiagnosticDebug, config.DiagnosticLevel())
	assert.Equal(t, []string{"./internal/..."}, config.Patterns)
	assert.True(t, config.Tests)
	assert.Equal(t, filepath.Join(dir, "checks", "expectations.yaml"), config.ManifestPath(dir))

	t.Setenv("ANNOTEST_FORMAT", "text")
	config, err = LoadConfig(NewViper(), dir)
	require.NoError(t, err)
	assert.Equal(t, FormatText, config.Format, "environment overrides the config file")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"format":   "format: json\n",
		"level":    "level: loud\n",
		"manifest": "manifest: \"\"\n",
		"syntax":   "format: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, ".annotest.yaml"), []byte(content), 0o644))
			_, err := LoadConfig(NewViper(), dir)
			assert.Error(t, err)
		})
	}
}

func TestConfig_ManifestPathAbsolute(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "m.yaml")
	config := &Config{Manifest: abs}
	assert.Equal(t, abs, config.ManifestPath("elsewhere"))
}
