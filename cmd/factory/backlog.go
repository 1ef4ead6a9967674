package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/scheduler"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

var backlogCmd = &cobra.Command{
	Use:   "backlog",
	Short: "Inspect the remediation backlog",
}

var backlogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current backlog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		b, err := store.LoadCurrent(ctx)
		if errors.Is(err, types.ErrNotFound) {
			fmt.Println("No backlog yet. Run 'factory run' first.")
			return nil
		}
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(b)
		}
		printBacklog(b)
		return nil
	},
}

var backlogNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the tasks the next remediation batch would pick",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("max-tasks")
		if limit <= 0 {
			limit = cfg.MaxTasks
		}
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		b, err := store.LoadCurrent(ctx)
		if errors.Is(err, types.ErrNotFound) {
			fmt.Println("No backlog yet. Run 'factory run' first.")
			return nil
		}
		if err != nil {
			return err
		}

		batch := scheduler.NextBatch(b, limit)
		if len(batch) == 0 {
			fmt.Println("No dispatchable tasks.")
			return nil
		}
		for i := range batch {
			printTask(&batch[i], scheduler.HasUnresolvedDependencies(b, &batch[i]))
		}
		return nil
	},
}

var backlogHistoryCmd = &cobra.Command{
	Use:   "history [generation]",
	Short: "List backlog snapshots, or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if len(args) == 1 {
			snap, err := store.LoadSnapshot(ctx, args[0])
			if err != nil {
				return err
			}
			printBacklog(snap)
			return nil
		}

		infos, err := store.ListSnapshots(ctx)
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println("No snapshots yet.")
			return nil
		}
		for _, info := range infos {
			fmt.Printf("%s  %s  %d tasks\n", info.Generation, info.UpdatedAt.Format("2006-01-02 15:04:05"), info.Tasks)
		}
		return nil
	},
}

func init() {
	backlogShowCmd.Flags().Bool("json", false, "Print the backlog as JSON")
	backlogNextCmd.Flags().Int("max-tasks", 0, "Batch size (default from config)")

	backlogCmd.AddCommand(backlogShowCmd, backlogNextCmd, backlogHistoryCmd)
	rootCmd.AddCommand(backlogCmd)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printBacklog(b *types.Backlog) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	header := "=== Backlog ==="
	if b.Generation != "" {
		header = "=== Backlog " + b.Generation + " ==="
	}
	fmt.Printf("\n%s\n", cyan(header))
	if b.Milestone != "" {
		fmt.Printf("  Milestone: %s\n", b.Milestone)
	}
	if b.Deadline != nil {
		fmt.Printf("  Deadline:  %s\n", b.Deadline.Format("2006-01-02"))
	}
	s := b.Summary
	fmt.Printf("  Tasks:     %d (P0 %d, P1 %d, P2 %d, P3 %d)\n", s.Total,
		s.CountsByPriority[types.P0], s.CountsByPriority[types.P1], s.CountsByPriority[types.P2], s.CountsByPriority[types.P3])
	fmt.Printf("  Status:    %d todo, %d in progress, %d done, %d manual review\n",
		s.CountsByStatus[types.TaskTodo], s.CountsByStatus[types.TaskInProgress],
		s.CountsByStatus[types.TaskDone], s.CountsByStatus[types.TaskRequiresManualReview])
	fmt.Printf("  Updated:   %s\n\n", gray(b.UpdatedAt.Format("2006-01-02 15:04:05")))

	for i := range b.Tasks {
		printTask(&b.Tasks[i], scheduler.HasUnresolvedDependencies(b, &b.Tasks[i]))
	}
}

func printTask(t *types.RemediationTask, blocked bool) {
	gray := color.New(color.FgHiBlack).SprintFunc()

	icon := gray("○")
	switch t.Status {
	case types.TaskDone:
		icon = color.New(color.FgGreen).Sprint("✓")
	case types.TaskInProgress:
		icon = color.New(color.FgYellow).Sprint("●")
	case types.TaskRequiresManualReview:
		icon = color.New(color.FgRed).Sprint("!")
	}

	fix := "manual"
	if t.FixKind != "" {
		fix = string(t.FixKind)
	}
	fmt.Printf("  %s %s [%s/%s] %s %s\n", icon, t.ID, t.Priority, t.Effort, t.Title, gray("("+fix+")"))
	if t.TargetPath != "" {
		fmt.Printf("      %s\n", gray(t.TargetPath))
	}
	if blocked {
		fmt.Printf("      %s %v\n", gray("waiting on"), t.Dependencies)
	}
	if t.Error != "" {
		fmt.Printf("      %s\n", color.New(color.FgRed).Sprint(t.Error))
	}
}
