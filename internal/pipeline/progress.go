package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// ProgressCache persists the progress record for dashboards. It is never
// trusted over the artifacts.
type ProgressCache interface {
	SaveProgress(ctx context.Context, p *types.PipelineProgress) error
	LoadProgress(ctx context.Context) (*types.PipelineProgress, error)
}

// DeriveProgress computes progress from the artifacts on disk. A phase counts
// as completed only when its artifact is non-empty and every earlier phase is
// completed too; the current phase is the last completed one, or idle.
func DeriveProgress(l Layout, now time.Time) (*types.PipelineProgress, error) {
	p := &types.PipelineProgress{
		Phase:              types.PhaseIdle,
		PerComponentStatus: make(map[types.Phase]types.ComponentStatus, len(types.Phases)),
		Timestamps:         make(map[types.Phase]time.Time, len(types.Phases)),
		UpdatedAt:          now,
	}

	prefix := true
	for _, phase := range types.Phases {
		p.PerComponentStatus[phase] = types.ComponentPending
		if !prefix {
			continue
		}
		info, err := os.Stat(l.Artifact(phase))
		switch {
		case errors.Is(err, os.ErrNotExist):
			prefix = false
			continue
		case err != nil:
			return nil, fmt.Errorf("failed to inspect %s artifact: %w", phase, err)
		}
		if info.IsDir() || info.Size() == 0 {
			prefix = false
			continue
		}
		p.PerComponentStatus[phase] = types.ComponentCompleted
		p.Timestamps[phase] = info.ModTime().UTC()
		p.Phase = phase
	}
	return p, nil
}

// ReconcileProgress derives progress from artifacts and refreshes the cache
// when it is missing or disagrees. The derived record is always returned;
// cache failures are logged, not fatal.
func ReconcileProgress(ctx context.Context, l Layout, cache ProgressCache, logger *zap.Logger, now time.Time) (*types.PipelineProgress, error) {
	derived, err := DeriveProgress(l, now)
	if err != nil {
		return nil, err
	}
	if cache == nil {
		return derived, nil
	}

	cached, err := cache.LoadProgress(ctx)
	switch {
	case errors.Is(err, types.ErrNotFound):
	case err != nil:
		logger.Warn("progress cache unreadable", zap.Error(err))
	case cached.SameState(derived):
		return derived, nil
	default:
		logger.Warn("progress cache disagrees with artifacts, using artifacts",
			zap.String("cached_phase", string(cached.Phase)),
			zap.String("derived_phase", string(derived.Phase)))
	}

	if err := cache.SaveProgress(ctx, derived); err != nil {
		logger.Warn("failed to refresh progress cache", zap.Error(err))
	}
	return derived, nil
}
