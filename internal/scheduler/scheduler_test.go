package scheduler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

func task(id string, p types.Priority, e types.Effort, deps ...string) types.RemediationTask {
	if deps == nil {
		deps = []string{}
	}
	return types.RemediationTask{
		ID: id, Title: id, Type: types.TaskChore,
		Priority: p, Effort: e, Status: types.TaskTodo, Dependencies: deps,
	}
}

func backlogOf(tasks ...types.RemediationTask) *types.Backlog {
	b := types.NewBacklog("", nil)
	b.Tasks = tasks
	b.RecomputeSummary()
	return b
}

func keys(batch []types.RemediationTask) []string {
	out := make([]string, len(batch))
	for i, t := range batch {
		out[i] = fmt.Sprintf("%s/%s", t.Priority, t.Effort)
	}
	return out
}

func TestNextBatchOrdering(t *testing.T) {
	b := backlogOf(
		task("a", types.P2, types.EffortL),
		task("b", types.P1, types.EffortM),
		task("c", types.P1, types.EffortS),
	)

	batch := NextBatch(b, 10)
	assert.Equal(t, []string{"P1/S", "P1/M", "P2/L"}, keys(batch))
}

func TestNextBatchNeverIncludesP0(t *testing.T) {
	var tasks []types.RemediationTask
	for i, p := range []types.Priority{types.P0, types.P1, types.P0, types.P3, types.P0} {
		tk := task(fmt.Sprintf("t%d", i), p, types.EffortXS)
		if i == 2 {
			tk.Status = types.TaskInProgress
		}
		tasks = append(tasks, tk)
	}
	b := backlogOf(tasks...)

	for _, limit := range []int{1, 2, 5, 100} {
		for _, got := range NextBatch(b, limit) {
			if got.Priority == types.P0 {
				t.Fatalf("P0 task %s dispatched with maxTasks=%d", got.ID, limit)
			}
		}
	}
	assert.Len(t, NextBatch(b, 100), 2)
}

func TestNextBatchFiltersStatus(t *testing.T) {
	done := task("done", types.P1, types.EffortXS)
	done.Status = types.TaskDone
	review := task("review", types.P1, types.EffortXS)
	review.Status = types.TaskRequiresManualReview
	active := task("active", types.P2, types.EffortXS)
	active.Status = types.TaskInProgress

	batch := NextBatch(backlogOf(done, review, active, task("todo", types.P3, types.EffortXS)), 10)
	require.Len(t, batch, 2)
	assert.Equal(t, "active", batch[0].ID)
	assert.Equal(t, "todo", batch[1].ID)
}

func TestNextBatchDependenciesLast(t *testing.T) {
	base := task("base", types.P3, types.EffortXS)
	waiting := task("waiting", types.P2, types.EffortS, "base")
	free := task("free", types.P2, types.EffortS)
	finished := task("finished", types.P1, types.EffortXL)
	finished.Status = types.TaskDone
	resolved := task("resolved", types.P2, types.EffortS, "finished")

	batch := NextBatch(backlogOf(base, waiting, free, finished, resolved), 10)
	ids := make([]string, len(batch))
	for i, got := range batch {
		ids[i] = got.ID
	}
	assert.Equal(t, []string{"free", "resolved", "waiting", "base"}, ids)
}

func TestNextBatchIsStableAndBounded(t *testing.T) {
	b := backlogOf(
		task("first", types.P2, types.EffortM),
		task("second", types.P2, types.EffortM),
		task("third", types.P2, types.EffortM),
	)

	batch := NextBatch(b, 2)
	require.Len(t, batch, 2)
	assert.Equal(t, "first", batch[0].ID)
	assert.Equal(t, "second", batch[1].ID)

	assert.Empty(t, NextBatch(b, 0))
	assert.Empty(t, NextBatch(b, -1))
	assert.Empty(t, NextBatch(nil, 5))
}

func TestNextBatchReturnsCopies(t *testing.T) {
	b := backlogOf(task("a", types.P1, types.EffortS))
	batch := NextBatch(b, 1)
	batch[0].Status = types.TaskDone
	assert.Equal(t, types.TaskTodo, b.Tasks[0].Status)
}

func TestHasUnresolvedDependencies(t *testing.T) {
	dep := task("dep", types.P1, types.EffortS)
	child := task("child", types.P2, types.EffortS, "dep")
	b := backlogOf(dep, child)

	assert.True(t, HasUnresolvedDependencies(b, b.Task("child")))
	b.Task("dep").Status = types.TaskDone
	assert.False(t, HasUnresolvedDependencies(b, b.Task("child")))

	ghost := task("ghost", types.P2, types.EffortS, "missing")
	assert.True(t, HasUnresolvedDependencies(b, &ghost))
}
