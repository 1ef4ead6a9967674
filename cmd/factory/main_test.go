package main

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/config"
)

func TestWriteDefaultConfigRoundTrip(t *testing.T) {
	for _, key := range []string{"FACTORY_MAX_TASKS", "FACTORY_AUTO_COMMIT", "FACTORY_DRY_RUN",
		"FACTORY_SKIP_APPROVAL", "FACTORY_COMMAND_TIMEOUT_SECS", "FACTORY_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), ".factory", "config.yaml")

	if err := writeDefaultConfig(path, false); err != nil {
		t.Fatalf("writeDefaultConfig failed: %v", err)
	}
	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(config.DefaultConfig(), loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	if err := writeDefaultConfig(path, false); err == nil {
		t.Error("expected an error when the config already exists")
	}
	if err := writeDefaultConfig(path, true); err != nil {
		t.Errorf("forced overwrite failed: %v", err)
	}
}

func TestApplyRunFlags(t *testing.T) {
	newCmd := func() *cobra.Command {
		c := &cobra.Command{Use: "test"}
		c.Flags().Bool("dry-run", false, "")
		c.Flags().Int("max-tasks", 0, "")
		c.Flags().Bool("auto-commit", false, "")
		c.Flags().Bool("skip-approval", false, "")
		return c
	}

	tests := []struct {
		name    string
		args    []string
		check   func(config.Config) bool
		wantErr bool
	}{
		{
			name:  "unset flags keep config",
			args:  nil,
			check: func(c config.Config) bool { return c.MaxTasks == 5 && !c.DryRun },
		},
		{
			name:  "explicit flags override",
			args:  []string{"--dry-run", "--max-tasks=3", "--skip-approval"},
			check: func(c config.Config) bool { return c.DryRun && c.MaxTasks == 3 && c.SkipApproval },
		},
		{
			name:    "out of range batch",
			args:    []string{"--max-tasks=500"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg = config.DefaultConfig()
			c := newCmd()
			if err := c.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags failed: %v", err)
			}
			err := applyRunFlags(c)
			if (err != nil) != tt.wantErr {
				t.Fatalf("applyRunFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !tt.check(cfg) {
				t.Errorf("unexpected config after flags: %s", cfg.String())
			}
		})
	}
}

func TestPhaseNames(t *testing.T) {
	want := []string{"execution", "evaluation", "decision", "implementation", "approval"}
	if diff := cmp.Diff(want, phaseNames()); diff != "" {
		t.Errorf("phaseNames() mismatch (-want +got):\n%s", diff)
	}
}
