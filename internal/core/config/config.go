// Package config handles configuration loading and validation for goodvibes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Claude   ClaudeConfig   `yaml:"claude"`
	TagScan  TagScanConfig  `yaml:"tag_scan"`
	Database DatabaseConfig `yaml:"database"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// ClaudeConfig configures the headless Claude CLI used to generate suggestions
// and the location of its session transcripts.
type ClaudeConfig struct {
	Command      string        `yaml:"command"`       // executable name or path
	ProjectsDir  string        `yaml:"projects_dir"`  // transcript root (~/.claude/projects)
	BatchModel   string        `yaml:"batch_model"`   // model override for batch scans
	AllowedTools []string      `yaml:"allowed_tools"` // read-only tool allowlist
	Timeout      time.Duration `yaml:"timeout"`       // single-session call timeout
	BatchTimeout time.Duration `yaml:"batch_timeout"` // batch call timeout
}

// TagScanConfig configures the background tag scanner.
type TagScanConfig struct {
	PollInterval      time.Duration   `yaml:"poll_interval"`
	BatchSize         int             `yaml:"batch_size"`
	RateLimit         RateLimitConfig `yaml:"rate_limit"`
	RateLimitEnabled  bool            `yaml:"rate_limit_enabled"`
	ScanAgentSessions bool            `yaml:"scan_agent_sessions"`
	// ExcludeProjects holds doublestar glob patterns matched against a
	// session's project path. Matching sessions are never queued.
	ExcludeProjects     []string      `yaml:"exclude_projects"`
	SuggestionRetention time.Duration `yaml:"suggestion_retention"`
	SweepInterval       time.Duration `yaml:"sweep_interval"`
}

// RateLimitConfig configures the scan token bucket.
type RateLimitConfig struct {
	MaxTokens      int           `yaml:"max_tokens"`
	RefillInterval time.Duration `yaml:"refill_interval"`
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Claude: ClaudeConfig{
			Command:      "claude",
			ProjectsDir:  defaultProjectsDir(),
			BatchModel:   "haiku",
			AllowedTools: []string{"Read", "Glob", "Grep"},
			Timeout:      30 * time.Second,
			BatchTimeout: 60 * time.Second,
		},
		TagScan: TagScanConfig{
			PollInterval: 10 * time.Second,
			BatchSize:    5,
			RateLimit: RateLimitConfig{
				MaxTokens:      30,
				RefillInterval: time.Hour,
			},
			RateLimitEnabled:    true,
			SuggestionRetention: 30 * 24 * time.Hour,
			SweepInterval:       5 * time.Minute,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			BusyTimeout:  5000,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	// Apply defaults for zero values
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Claude.Command == "" {
		c.Claude.Command = defaults.Claude.Command
	}
	if c.Claude.ProjectsDir == "" {
		c.Claude.ProjectsDir = defaults.Claude.ProjectsDir
	}
	c.Claude.ProjectsDir = expandHome(c.Claude.ProjectsDir)
	if len(c.Claude.AllowedTools) == 0 {
		c.Claude.AllowedTools = defaults.Claude.AllowedTools
	}
	if c.Claude.Timeout == 0 {
		c.Claude.Timeout = defaults.Claude.Timeout
	}
	if c.Claude.BatchTimeout == 0 {
		c.Claude.BatchTimeout = defaults.Claude.BatchTimeout
	}

	if c.TagScan.PollInterval == 0 {
		c.TagScan.PollInterval = defaults.TagScan.PollInterval
	}
	if c.TagScan.BatchSize == 0 {
		c.TagScan.BatchSize = defaults.TagScan.BatchSize
	}
	if c.TagScan.RateLimit.MaxTokens == 0 {
		c.TagScan.RateLimit.MaxTokens = defaults.TagScan.RateLimit.MaxTokens
	}
	if c.TagScan.RateLimit.RefillInterval == 0 {
		c.TagScan.RateLimit.RefillInterval = defaults.TagScan.RateLimit.RefillInterval
	}
	if c.TagScan.SuggestionRetention == 0 {
		c.TagScan.SuggestionRetention = defaults.TagScan.SuggestionRetention
	}
	if c.TagScan.SweepInterval == 0 {
		c.TagScan.SweepInterval = defaults.TagScan.SweepInterval
	}

	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Claude.Command == "" {
		return fmt.Errorf("claude.command cannot be empty")
	}

	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.Claude.Timeout < 0 || c.Claude.BatchTimeout < 0 {
		return fmt.Errorf("claude timeouts cannot be negative")
	}

	if c.TagScan.PollInterval < 0 {
		return fmt.Errorf("tag_scan.poll_interval cannot be negative")
	}

	if c.TagScan.BatchSize < 1 {
		return fmt.Errorf("tag_scan.batch_size must be at least 1")
	}

	if c.TagScan.RateLimit.MaxTokens < 1 {
		return fmt.Errorf("tag_scan.rate_limit.max_tokens must be at least 1")
	}

	if c.TagScan.RateLimit.RefillInterval < 0 {
		return fmt.Errorf("tag_scan.rate_limit.refill_interval cannot be negative")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}

	return nil
}

// DatabasePath returns the path to the SQLite database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "goodvibes.db")
}

func defaultProjectsDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude", "projects")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
