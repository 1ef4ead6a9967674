package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/storage"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline progress and the last decision",
	Long: `Display per-phase progress derived from the artifacts in the state dir,
the run lock holder if a run is active, and the last decision.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Factory Status ==="))

		layout := s.ctrl.Layout()
		fmt.Printf("%s\n", yellow("Run Lock:"))
		if lock, err := storage.ReadRunLock(layout.StateDir); err == nil {
			fmt.Printf("  %s run %s (PID %d on %s, started %s)\n", green("●"), lock.RunID, lock.PID, lock.Hostname,
				lock.StartedAt.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Printf("  %s\n", gray("No active run"))
		}
		fmt.Println()

		progress, err := s.ctrl.Progress(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", yellow("Phases:"))
		for _, phase := range types.Phases {
			if progress.Completed(phase) {
				fmt.Printf("  %s %-15s %s\n", green("✓"), phase, gray(progress.Timestamps[phase].Format("2006-01-02 15:04:05")))
			} else {
				fmt.Printf("  %s %s\n", gray("○"), gray(string(phase)))
			}
		}
		fmt.Println()

		fmt.Printf("%s\n", yellow("Decision:"))
		report, err := s.ctrl.LoadDecision()
		switch {
		case errors.Is(err, types.ErrNotFound):
			fmt.Printf("  %s\n", gray("No decision yet"))
		case err != nil:
			return err
		default:
			fmt.Printf("  %s (%s confidence)\n", verdictColor(report.Decision.Verdict), report.Decision.Confidence)
			fmt.Printf("  %s\n", report.Decision.Justification)
			fmt.Printf("  Overall score: %d (%s mode)\n", report.Scores.Overall, report.Scores.Mode)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
