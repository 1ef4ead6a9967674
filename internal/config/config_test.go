package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/analyzers"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.MaxTasks != 5 || cfg.StateDir != ".factory" || len(cfg.Analyzers) != len(analyzers.BuiltinNames) {
		t.Errorf("unexpected defaults: %s", cfg)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.String() != DefaultConfig().String() {
		t.Errorf("got %s, want defaults", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
max_tasks: 3
auto_commit: true
command_timeout: 30s
milestone: v1.2
analyzers:
  - name: lint
    domain: codeQuality
    command: [golangci-lint-report, --json]
    timeout: 1m
  - name: docs
    builtin: docs
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxTasks != 3 || !cfg.AutoCommit || cfg.CommandTimeout != 30*time.Second || cfg.Milestone != "v1.2" {
		t.Errorf("file values not applied: %s", cfg)
	}
	if cfg.AnalyzerTimeout != 5*time.Minute {
		t.Errorf("unset keys should keep defaults, got analyzer_timeout %v", cfg.AnalyzerTimeout)
	}
	if len(cfg.Analyzers) != 2 {
		t.Fatalf("analyzers list should replace the default, got %d", len(cfg.Analyzers))
	}
	lint := cfg.Analyzers[0]
	if lint.Kind() != analyzers.KindCommand || lint.Timeout != time.Minute || len(lint.Command) != 2 {
		t.Errorf("unexpected analyzer spec: %+v", lint)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxTasks != 5 {
		t.Errorf("MaxTasks = %d, want 5", cfg.MaxTasks)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "max_taks: 3\n"))
	if err == nil || !strings.Contains(err.Error(), "max_taks") {
		t.Errorf("expected unknown key error, got %v", err)
	}
}

func TestLoadValidates(t *testing.T) {
	_, err := Load(writeConfig(t, "max_tasks: 0\n"))
	if err == nil || !strings.Contains(err.Error(), "max_tasks must be between 1 and 100") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr string
		check   func(t *testing.T, cfg Config)
	}{
		{
			name: "valid overrides",
			envVars: map[string]string{
				"FACTORY_MAX_TASKS":            "10",
				"FACTORY_AUTO_COMMIT":          "true",
				"FACTORY_DRY_RUN":              "1",
				"FACTORY_SKIP_APPROVAL":        "true",
				"FACTORY_COMMAND_TIMEOUT_SECS": "45",
				"FACTORY_LOG_LEVEL":            "debug",
			},
			check: func(t *testing.T, cfg Config) {
				if cfg.MaxTasks != 10 {
					t.Errorf("MaxTasks = %d, want 10", cfg.MaxTasks)
				}
				if !cfg.AutoCommit || !cfg.DryRun || !cfg.SkipApproval {
					t.Errorf("bool overrides not applied: %s", cfg)
				}
				if cfg.CommandTimeout != 45*time.Second {
					t.Errorf("CommandTimeout = %v, want 45s", cfg.CommandTimeout)
				}
				if cfg.LogLevel != "debug" {
					t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
				}
			},
		},
		{
			name:    "invalid integer",
			envVars: map[string]string{"FACTORY_MAX_TASKS": "many"},
			wantErr: "invalid value for FACTORY_MAX_TASKS",
		},
		{
			name:    "invalid bool",
			envVars: map[string]string{"FACTORY_DRY_RUN": "maybe"},
			wantErr: "invalid value for FACTORY_DRY_RUN",
		},
		{
			name:    "out of range after override",
			envVars: map[string]string{"FACTORY_MAX_TASKS": "500"},
			wantErr: "max_tasks must be between 1 and 100",
		},
		{
			name:    "invalid log level",
			envVars: map[string]string{"FACTORY_LOG_LEVEL": "loud"},
			wantErr: "log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			cfg, err := Load(writeConfig(t, "max_tasks: 2\n"))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{name: "command timeout too short", modify: func(c *Config) { c.CommandTimeout = time.Millisecond }, wantErr: "command_timeout"},
		{name: "negative rate", modify: func(c *Config) { c.CommandRate = -1 }, wantErr: "command_rate"},
		{name: "concurrency zero", modify: func(c *Config) { c.AnalyzerConcurrency = 0 }, wantErr: "analyzer_concurrency"},
		{name: "deadline too far", modify: func(c *Config) { c.DeadlineDays = 400 }, wantErr: "deadline_days"},
		{name: "empty state dir", modify: func(c *Config) { c.StateDir = " " }, wantErr: "state_dir"},
		{name: "no analyzers", modify: func(c *Config) { c.Analyzers = nil }, wantErr: "at least one analyzer"},
		{name: "bad analyzer", modify: func(c *Config) { c.Analyzers = []analyzers.Spec{{Name: "x"}} }, wantErr: "exactly one"},
		{
			name: "duplicate analyzer",
			modify: func(c *Config) {
				c.Analyzers = []analyzers.Spec{{Name: "x", Builtin: "docs"}, {Name: "x", Builtin: "cruft"}}
			},
			wantErr: "duplicate analyzer name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDeadline(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()
	if got := cfg.Deadline(now); got == nil || !got.Equal(now.AddDate(0, 0, 14)) {
		t.Errorf("Deadline = %v, want 14 days out", got)
	}
	cfg.DeadlineDays = 0
	if got := cfg.Deadline(now); got != nil {
		t.Errorf("Deadline = %v, want nil", got)
	}
}
