package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/pipeline"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every pipeline phase in order",
	Long: `Run execution, evaluation, decision, implementation and approval.

Examples:
  # Full run with the interactive approval prompt
  factory run

  # Plan fixes without touching the project
  factory run --dry-run

  # Unattended run that commits each fix
  factory run --auto-commit --skip-approval`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyRunFlags(cmd); err != nil {
			return err
		}
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		result, err := s.ctrl.Run(cmd.Context())
		printResult(result)
		return err
	},
}

var phaseCmd = &cobra.Command{
	Use:   "phase <execution|evaluation|decision|implementation|approval>",
	Short: "Run a single pipeline phase",
	Long: `Run one phase. Its predecessor must have completed, and the artifacts of
the phase and every later phase are discarded first.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: phaseNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		phase := types.Phase(args[0])
		if !phase.IsValid() {
			return fmt.Errorf("unknown phase %q (expected one of %s)", args[0], strings.Join(phaseNames(), ", "))
		}
		if err := applyRunFlags(cmd); err != nil {
			return err
		}
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		result, err := s.ctrl.RunPhase(cmd.Context(), phase)
		printResult(result)
		return err
	},
}

func init() {
	for _, c := range []*cobra.Command{runCmd, phaseCmd} {
		c.Flags().Bool("dry-run", false, "Plan and validate fixes without writing anything (can also use FACTORY_DRY_RUN=true)")
		c.Flags().Int("max-tasks", 0, "Maximum tasks per remediation batch (overrides config)")
		c.Flags().Bool("auto-commit", false, "Commit each successful fix (can also use FACTORY_AUTO_COMMIT=true)")
		c.Flags().Bool("skip-approval", false, "Approve without prompting (can also use FACTORY_SKIP_APPROVAL=true)")
		rootCmd.AddCommand(c)
	}
}

func phaseNames() []string {
	names := make([]string, len(types.Phases))
	for i, p := range types.Phases {
		names[i] = string(p)
	}
	return names
}

// applyRunFlags lets explicitly set flags override the loaded configuration.
func applyRunFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("dry-run") {
		cfg.DryRun, _ = flags.GetBool("dry-run")
	}
	if flags.Changed("auto-commit") {
		cfg.AutoCommit, _ = flags.GetBool("auto-commit")
	}
	if flags.Changed("skip-approval") {
		cfg.SkipApproval, _ = flags.GetBool("skip-approval")
	}
	if flags.Changed("max-tasks") {
		cfg.MaxTasks, _ = flags.GetInt("max-tasks")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func printResult(result *pipeline.RunResult) {
	if result == nil {
		return
	}
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("\n%s %s\n", cyan("=== Run"), gray(result.RunID))
	if r := result.Report; r != nil {
		fmt.Printf("  Verdict:    %s (%s confidence)\n", verdictColor(r.Decision.Verdict), r.Decision.Confidence)
		fmt.Printf("  Rule:       %s\n", r.Decision.Justification)
		fmt.Printf("  Score:      %d (%s mode)\n", r.Scores.Overall, r.Scores.Mode)
		c := r.Concerns.Counts()
		fmt.Printf("  Concerns:   %d critical, %d high, %d medium, %d low\n", c.Critical, c.High, c.Medium, c.Low)
		if len(r.Conflicts) > 0 {
			fmt.Printf("  Conflicts:  %d\n", len(r.Conflicts))
		}
	}
	if impl := result.Implementation; impl != nil {
		m := impl.Merge
		fmt.Printf("  Backlog:    +%d new, %d matched, %d in progress, %d already done\n",
			m.Added, m.Matched, m.KeptInProgress, m.SkippedDone)
		if b := impl.Batch; b != nil {
			mode := ""
			if b.DryRun {
				mode = gray(" (dry run)")
			}
			fmt.Printf("  Fixes:      %d done, %d manual review, %d skipped%s\n", b.Done, b.ManualReview, b.Skipped, mode)
		}
	}
	if a := result.Approval; a != nil {
		state := color.New(color.FgRed).Sprint("rejected")
		if a.Approved {
			state = color.New(color.FgGreen).Sprint("approved")
		}
		fmt.Printf("  Approval:   %s (%s)\n", state, a.Method)
	}
	if p := result.Progress; p != nil {
		fmt.Printf("  Progress:   %s\n", p.Phase)
	}
	fmt.Println()
}

func verdictColor(v types.Verdict) string {
	switch v {
	case types.VerdictGo:
		return color.New(color.FgGreen, color.Bold).Sprint(v)
	case types.VerdictGoWithConcerns:
		return color.New(color.FgYellow, color.Bold).Sprint(v)
	default:
		return color.New(color.FgRed, color.Bold).Sprint(v)
	}
}
