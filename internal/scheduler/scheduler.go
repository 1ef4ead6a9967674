// Package scheduler picks the next bounded batch of remediation tasks.
package scheduler

import (
	"sort"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/priorities"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// NextBatch returns up to maxTasks dispatchable tasks from the backlog.
//
// Only todo and in-progress tasks are eligible, and P0 tasks are excluded
// unconditionally. The order is priority ascending, then effort ascending,
// then tasks whose dependencies are all done before tasks still waiting on
// one. The sort is stable, so ties keep their backlog order.
//
// The returned tasks are copies; callers update the backlog by id.
func NextBatch(b *types.Backlog, maxTasks int) []types.RemediationTask {
	if b == nil || maxTasks <= 0 {
		return []types.RemediationTask{}
	}

	done := make(map[string]bool, len(b.Tasks))
	for _, t := range b.Tasks {
		if t.Status == types.TaskDone {
			done[t.ID] = true
		}
	}

	candidates := make([]types.RemediationTask, 0, len(b.Tasks))
	for _, t := range b.Tasks {
		if t.Status != types.TaskTodo && t.Status != types.TaskInProgress {
			continue
		}
		if !priorities.IsAutoFixable(t.Priority) {
			continue
		}
		candidates = append(candidates, t.Clone())
	}

	blocked := func(t *types.RemediationTask) bool {
		for _, dep := range t.Dependencies {
			if !done[dep] {
				return true
			}
		}
		return false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, c := &candidates[i], &candidates[j]
		if d := priorities.Compare(a, c); d != 0 {
			return d < 0
		}
		return !blocked(a) && blocked(c)
	})

	if len(candidates) > maxTasks {
		candidates = candidates[:maxTasks]
	}
	return candidates
}

// HasUnresolvedDependencies reports whether any dependency of t is not done.
func HasUnresolvedDependencies(b *types.Backlog, t *types.RemediationTask) bool {
	for _, dep := range t.Dependencies {
		d := b.Task(dep)
		if d == nil || d.Status != types.TaskDone {
			return true
		}
	}
	return false
}
