package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config with all required fields set for testing.
func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Claude.Command = "sh" // present on every test machine
	cfg.Claude.ProjectsDir = t.TempDir()
	cfg.DataDir = t.TempDir()
	return &cfg
}

func TestValidateDeep_ValidConfig(t *testing.T) {
	cfg := validConfig(t)
	cfg.TagScan.ExcludeProjects = []string{"/tmp/**", "**/scratch-*"}

	assert.NoError(t, cfg.ValidateDeep(""))
}

func TestValidateDeep_MissingExecutable(t *testing.T) {
	cfg := validConfig(t)
	cfg.Claude.Command = "nonexistent-claude-12345"

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, "claude.command", fieldErrs[0].Field)
	assert.Contains(t, fieldErrs[0].Err.Error(), "executable not found")
}

func TestValidateDeep_InvalidExcludePattern(t *testing.T) {
	cfg := validConfig(t)
	cfg.TagScan.ExcludeProjects = []string{"/ok/**", "/broken/[a-"}

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, "tag_scan.exclude_projects[1]", fieldErrs[0].Field)
	assert.Contains(t, fieldErrs[0].Err.Error(), "invalid glob")
}

func TestValidateDeep_DataDirIsFile(t *testing.T) {
	cfg := validConfig(t)
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	cfg.DataDir = file

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, "data_dir", fieldErrs[0].Field)
}

func TestValidateDeep_ConfigPathIsDirectory(t *testing.T) {
	cfg := validConfig(t)

	err := cfg.ValidateDeep(t.TempDir())

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, "config_file", fieldErrs[0].Field)
}

func TestWarnings(t *testing.T) {
	cfg := validConfig(t)
	assert.Empty(t, cfg.Warnings())

	cfg.TagScan.RateLimitEnabled = false
	cfg.TagScan.BatchSize = 50

	warnings := cfg.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, "rate_limit_enabled", warnings[0].Item)
	assert.Equal(t, "batch_size", warnings[1].Item)
}
