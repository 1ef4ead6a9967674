// Package pipeline sequences the phases of a run and derives progress from
// the artifacts each phase leaves behind.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/analyzers"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/config"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/events"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/gates"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/git"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/storage"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// ErrPhaseOrder is returned when a phase runs before its predecessor completed.
var ErrPhaseOrder = errors.New("phase order violation")

// Store is the persistence the controller needs. *storage.DualStore satisfies it.
type Store interface {
	ProgressCache
	LoadCurrent(ctx context.Context) (*types.Backlog, error)
	SaveCurrent(ctx context.Context, b *types.Backlog) error
	Snapshot(ctx context.Context, b *types.Backlog) (string, error)
}

// Options configures a Controller.
type Options struct {
	Root   string
	Config config.Config
	Store  Store // Required

	Git       git.Operations      // Optional: required for auto-commit and the gitignore analyzer
	Analyzers []analyzers.Analyzer // Optional: overrides Config.Analyzers
	Prompter  gates.Prompter       // Optional: defaults to a terminal prompt
	Sink      events.Sink          // Optional: defaults to the feedback file
	Out       io.Writer            // Optional: defaults to stdout
	Logger    *zap.Logger          // Optional
	Version   string               // Optional: recorded in the run lock
	Now       func() time.Time     // Optional: clock override for tests
}

// Controller runs the pipeline against one project.
type Controller struct {
	opts   Options
	cfg    config.Config
	layout Layout
	store  Store
	sink   events.Sink
	out    io.Writer
	logger *zap.Logger
	now    func() time.Time
}

// RunResult summarizes a full run.
type RunResult struct {
	RunID          string
	Report         *types.DecisionReport
	Implementation *ImplementationResult
	Approval       *gates.ApprovalResult
	Progress       *types.PipelineProgress
}

// New creates a controller.
func New(opts Options) (*Controller, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("project root is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if opts.Config.AutoCommit && !opts.Config.DryRun && opts.Git == nil {
		return nil, fmt.Errorf("auto-commit requires git")
	}

	c := &Controller{
		opts:   opts,
		cfg:    opts.Config,
		layout: NewLayout(opts.Root, opts.Config.StateDir),
		store:  opts.Store,
		sink:   opts.Sink,
		out:    opts.Out,
		logger: opts.Logger,
		now:    opts.Now,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.now == nil {
		c.now = func() time.Time { return time.Now().UTC() }
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.sink == nil {
		file, err := events.NewFileSink(c.layout.Feedback())
		if err != nil {
			return nil, err
		}
		c.sink = events.Multi{file, &events.LogSink{Logger: c.logger}}
	}
	return c, nil
}

// Layout returns the artifact locations.
func (c *Controller) Layout() Layout {
	return c.layout
}

// Run executes every phase in order under the run lock.
func (c *Controller) Run(ctx context.Context) (*RunResult, error) {
	lock, err := c.lock()
	if err != nil {
		return nil, err
	}
	defer c.unlock(lock)

	result := &RunResult{RunID: lock.RunID}
	for _, phase := range types.Phases {
		if err := c.runPhase(ctx, lock.RunID, phase, result); err != nil {
			return result, err
		}
	}
	result.Progress, err = c.Progress(ctx)
	return result, err
}

// RunPhase executes a single phase under the run lock. Its predecessor must
// have completed; artifacts of the phase and every later phase are removed
// first so progress never shows stale completion.
func (c *Controller) RunPhase(ctx context.Context, phase types.Phase) (*RunResult, error) {
	if !phase.IsValid() {
		return nil, fmt.Errorf("unknown phase %q", phase)
	}
	lock, err := c.lock()
	if err != nil {
		return nil, err
	}
	defer c.unlock(lock)

	result := &RunResult{RunID: lock.RunID}
	if err := c.runPhase(ctx, lock.RunID, phase, result); err != nil {
		return result, err
	}
	result.Progress, err = c.Progress(ctx)
	return result, err
}

// Progress returns the artifact-derived progress, refreshing the cache.
func (c *Controller) Progress(ctx context.Context) (*types.PipelineProgress, error) {
	return ReconcileProgress(ctx, c.layout, c.store, c.logger, c.now())
}

func (c *Controller) runPhase(ctx context.Context, runID string, phase types.Phase, result *RunResult) error {
	if err := c.checkPredecessor(phase); err != nil {
		return err
	}
	if err := c.invalidateFrom(phase); err != nil {
		return err
	}

	start := time.Now()
	c.logger.Info("phase started", zap.String("phase", string(phase)), zap.String("run_id", runID))

	var err error
	switch phase {
	case types.PhaseExecution:
		err = c.execute(ctx, runID)
	case types.PhaseEvaluation:
		err = c.evaluate()
	case types.PhaseDecision:
		result.Report, err = c.decide()
	case types.PhaseImplementation:
		result.Implementation, err = c.implement(ctx, runID)
	case types.PhaseApproval:
		result.Approval, err = c.approve(ctx, runID)
	}
	if err != nil {
		c.logger.Error("phase failed", zap.String("phase", string(phase)), zap.Error(err))
		return fmt.Errorf("%s phase: %w", phase, err)
	}

	c.logger.Info("phase completed", zap.String("phase", string(phase)), zap.Duration("elapsed", time.Since(start)))
	if _, err := c.Progress(ctx); err != nil {
		c.logger.Warn("failed to derive progress", zap.Error(err))
	}
	return nil
}

func (c *Controller) checkPredecessor(phase types.Phase) error {
	idx := phase.Index()
	if idx <= 0 {
		return nil
	}
	progress, err := DeriveProgress(c.layout, c.now())
	if err != nil {
		return err
	}
	prev := types.Phases[idx-1]
	if !progress.Completed(prev) {
		return fmt.Errorf("%w: %s requires %s to complete first", ErrPhaseOrder, phase, prev)
	}
	return nil
}

func (c *Controller) invalidateFrom(phase types.Phase) error {
	for _, p := range types.Phases[phase.Index():] {
		if err := os.Remove(c.layout.Artifact(p)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to invalidate %s artifact: %w", p, err)
		}
	}
	if phase == types.PhaseExecution {
		if err := os.RemoveAll(c.layout.ReportsDir()); err != nil {
			return fmt.Errorf("failed to clear reports: %w", err)
		}
	}
	return nil
}

func (c *Controller) lock() (*storage.RunLock, error) {
	return storage.AcquireRunLock(c.layout.StateDir, c.opts.Version)
}

func (c *Controller) unlock(lock *storage.RunLock) {
	if err := storage.ReleaseRunLock(c.layout.StateDir, lock); err != nil {
		c.logger.Warn("failed to release run lock", zap.Error(err))
	}
}
