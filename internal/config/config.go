// Package config loads pipeline configuration from defaults, an optional
// YAML file and FACTORY_* environment variables, in that order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/analyzers"
)

// DefaultStateDir is where pipeline artifacts live, relative to the project root.
const DefaultStateDir = ".factory"

// DefaultFile is the config file looked up inside the state dir.
const DefaultFile = "config.yaml"

// Config holds the pipeline knobs.
type Config struct {
	// MaxTasks bounds one remediation batch
	// Default: 5, Range: 1-100
	MaxTasks int `yaml:"max_tasks"`

	// AutoCommit commits each completed task
	// Default: false
	AutoCommit bool `yaml:"auto_commit"`

	// DryRun plans and validates fixes without writing anything
	// Default: false
	DryRun bool `yaml:"dry_run"`

	// SkipApproval records an automatic approval instead of prompting
	// Default: false
	SkipApproval bool `yaml:"skip_approval"`

	// CommandTimeout bounds each command fix and commit
	// Default: 2m, Range: 1s-1h
	CommandTimeout time.Duration `yaml:"command_timeout"`

	// CommandRate limits command fixes per second, 0 for unlimited
	// Default: 0
	CommandRate float64 `yaml:"command_rate"`

	// AnalyzerTimeout bounds each analyzer run
	// Default: 5m, Range: 1s-1h
	AnalyzerTimeout time.Duration `yaml:"analyzer_timeout"`

	// AnalyzerConcurrency bounds parallel analyzers
	// Default: 4, Range: 1-64
	AnalyzerConcurrency int `yaml:"analyzer_concurrency"`

	// Milestone labels newly created backlogs
	Milestone string `yaml:"milestone"`

	// DeadlineDays sets a new backlog's deadline relative to its creation, 0 for none
	// Default: 14, Range: 0-365
	DeadlineDays int `yaml:"deadline_days"`

	// StateDir holds artifacts, relative to the project root unless absolute
	// Default: .factory
	StateDir string `yaml:"state_dir"`

	// CommitAuthor overrides the git author of fix commits ("Name <email>")
	CommitAuthor string `yaml:"commit_author"`

	// DisableStore skips the sqlite store and persists to files only
	// Default: false
	DisableStore bool `yaml:"disable_store"`

	// LogLevel is one of debug, info, warn, error
	// Default: info
	LogLevel string `yaml:"log_level"`

	// Analyzers run in the execution phase, in this order
	// Default: every built-in monitor
	Analyzers []analyzers.Spec `yaml:"analyzers"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxTasks:            5,
		CommandTimeout:      2 * time.Minute,
		AnalyzerTimeout:     5 * time.Minute,
		AnalyzerConcurrency: 4,
		DeadlineDays:        14,
		StateDir:            DefaultStateDir,
		LogLevel:            "info",
		Analyzers:           analyzers.DefaultSpecs(),
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.MaxTasks < 1 || c.MaxTasks > 100 {
		return fmt.Errorf("max_tasks must be between 1 and 100 (got %d)", c.MaxTasks)
	}
	if c.CommandTimeout < time.Second || c.CommandTimeout > time.Hour {
		return fmt.Errorf("command_timeout must be between 1s and 1h (got %v)", c.CommandTimeout)
	}
	if c.CommandRate < 0 {
		return fmt.Errorf("command_rate cannot be negative (got %v)", c.CommandRate)
	}
	if c.AnalyzerTimeout < time.Second || c.AnalyzerTimeout > time.Hour {
		return fmt.Errorf("analyzer_timeout must be between 1s and 1h (got %v)", c.AnalyzerTimeout)
	}
	if c.AnalyzerConcurrency < 1 || c.AnalyzerConcurrency > 64 {
		return fmt.Errorf("analyzer_concurrency must be between 1 and 64 (got %d)", c.AnalyzerConcurrency)
	}
	if c.DeadlineDays < 0 || c.DeadlineDays > 365 {
		return fmt.Errorf("deadline_days must be between 0 and 365 (got %d)", c.DeadlineDays)
	}
	if strings.TrimSpace(c.StateDir) == "" {
		return fmt.Errorf("state_dir is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error (got %q)", c.LogLevel)
	}
	if len(c.Analyzers) == 0 {
		return fmt.Errorf("at least one analyzer must be configured")
	}
	seen := make(map[string]bool, len(c.Analyzers))
	for _, a := range c.Analyzers {
		if err := a.Validate(); err != nil {
			return err
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate analyzer name %q", a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}

// Deadline returns the deadline for a backlog created at now, or nil.
func (c Config) Deadline(now time.Time) *time.Time {
	if c.DeadlineDays == 0 {
		return nil
	}
	d := now.AddDate(0, 0, c.DeadlineDays)
	return &d
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	names := make([]string, len(c.Analyzers))
	for i, a := range c.Analyzers {
		names[i] = a.Name
	}
	return fmt.Sprintf(
		"Config{MaxTasks: %d, AutoCommit: %t, DryRun: %t, SkipApproval: %t, "+
			"CommandTimeout: %v, AnalyzerTimeout: %v, AnalyzerConcurrency: %d, "+
			"StateDir: %s, Analyzers: [%s]}",
		c.MaxTasks, c.AutoCommit, c.DryRun, c.SkipApproval,
		c.CommandTimeout, c.AnalyzerTimeout, c.AnalyzerConcurrency,
		c.StateDir, strings.Join(names, ", "),
	)
}
