package config

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration including
// glob patterns and file accessibility. The configPath argument specifies the
// config file location to validate (empty string skips config file check).
// This calls Validate() first for basic structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateExcludePatterns(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if !c.TagScan.RateLimitEnabled {
		warnings = append(warnings, ValidationWarning{
			Category: "TagScan",
			Item:     "rate_limit_enabled",
			Message:  "rate limiting is disabled; every poll tick may invoke the claude CLI",
		})
	}

	if c.TagScan.BatchSize > 20 {
		warnings = append(warnings, ValidationWarning{
			Category: "TagScan",
			Item:     "batch_size",
			Message:  fmt.Sprintf("batch size %d is large and may exceed the batch timeout", c.TagScan.BatchSize),
		})
	}

	if c.TagScan.PollInterval > 0 && c.TagScan.PollInterval < c.Claude.BatchTimeout/10 {
		warnings = append(warnings, ValidationWarning{
			Category: "TagScan",
			Item:     "poll_interval",
			Message:  "poll interval is much shorter than the batch timeout; most ticks will be skipped while a batch runs",
		})
	}

	return warnings
}

// validateFileAccess checks config file, data directory, transcript directory
// and the claude executable.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("claude.command", c.Claude.Command, executableExists),
		criterio.Run("claude.projects_dir", c.Claude.ProjectsDir, isDirectoryOrNotExist),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// executableExists validates that the command resolves on PATH.
func executableExists(path string) error {
	if path == "" {
		return nil
	}
	if _, err := exec.LookPath(path); err != nil {
		return fmt.Errorf("executable not found: %s", path)
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

// validateExcludePatterns checks every exclude pattern is a valid doublestar glob.
func (c *Config) validateExcludePatterns() error {
	var errs criterio.FieldErrorsBuilder
	for i, pattern := range c.TagScan.ExcludeProjects {
		if !doublestar.ValidatePattern(pattern) {
			errs = errs.Append(fmt.Sprintf("tag_scan.exclude_projects[%d]", i), fmt.Errorf("invalid glob %q", pattern))
		}
	}
	return errs.ToError()
}
