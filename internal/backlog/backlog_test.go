package backlog

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleConcerns() types.ConcernSet {
	return types.ConcernSet{
		Critical: []types.Issue{{Type: "Security", Message: "hardcoded secret", Source: "security"}},
		High: []types.Issue{
			{Type: "Complexity", Message: "Function too complex", Fix: &types.FixSuggestion{Kind: types.FixPatch, Path: "pkg/a.go", FixPayload: types.FixPayload{Content: "package a\n"}}},
			{Type: "Lint", Message: "unused variable", Fix: &types.FixSuggestion{Kind: types.FixRewrite, Path: "pkg/a.go", FixPayload: types.FixPayload{Content: "package a\n"}}},
		},
		Low: []types.Issue{{Type: "MissingReadme", Location: &types.Location{Path: "README.md"}}},
	}
}

func TestSynthesize(t *testing.T) {
	deadline := fixedNow.Add(14 * 24 * time.Hour)
	b := Synthesize(sampleConcerns(), SynthesisOptions{Milestone: "v1", Deadline: &deadline, Now: fixedNow})

	require.NoError(t, b.Validate())
	require.Len(t, b.Tasks, 4)

	ids := []string{b.Tasks[0].ID, b.Tasks[1].ID, b.Tasks[2].ID, b.Tasks[3].ID}
	assert.Equal(t, []string{"TASK-P0-001", "TASK-P1-001", "TASK-P1-002", "TASK-P3-001"}, ids)

	secret := b.Tasks[0]
	assert.Equal(t, types.P0, secret.Priority)
	assert.Equal(t, types.TaskSecurityFix, secret.Type)
	assert.Equal(t, types.EffortM, secret.Effort)
	assert.Equal(t, types.TaskTodo, secret.Status)
	assert.Equal(t, "hardcoded secret", secret.Title)
	assert.NotEmpty(t, secret.AcceptanceCriteria)

	patch := b.Tasks[1]
	assert.Equal(t, types.FixPatch, patch.FixKind)
	assert.Equal(t, "pkg/a.go", patch.TargetPath)
	require.NotNil(t, patch.Payload)
	assert.Equal(t, "package a\n", patch.Payload.Content)

	assert.Equal(t, []string{"TASK-P1-001"}, b.Tasks[2].Dependencies, "same-path tasks apply in priority order")

	readme := b.Tasks[3]
	assert.Equal(t, "MissingReadme", readme.Title, "type is the title fallback")
	assert.Equal(t, "README.md", readme.TargetPath)
	assert.Equal(t, types.FixKind(""), readme.FixKind)

	assert.Equal(t, "v1", b.Milestone)
	assert.Equal(t, 1, b.Summary.CountsByPriority[types.P0])
	assert.Equal(t, 2, b.Summary.CountsByPriority[types.P1])
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	a := Synthesize(sampleConcerns(), SynthesisOptions{Now: fixedNow})
	b := Synthesize(sampleConcerns(), SynthesisOptions{Now: fixedNow})
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("synthesis is not deterministic (-a +b):\n%s", diff)
	}
}

func TestMergeIntoEmpty(t *testing.T) {
	synth := Synthesize(sampleConcerns(), SynthesisOptions{Milestone: "v1", Now: fixedNow})
	merged, stats := Merge(nil, synth, fixedNow)

	assert.Equal(t, MergeStats{Added: 4}, stats)
	assert.Equal(t, types.CurrentBacklogID, merged.BacklogID)
	assert.Equal(t, "v1", merged.Milestone)
	require.NoError(t, merged.Validate())
}

func TestMergeIsIdempotent(t *testing.T) {
	synth := Synthesize(sampleConcerns(), SynthesisOptions{Now: fixedNow})

	existing := types.NewBacklog("v1", nil)
	existing.Tasks = []types.RemediationTask{
		{ID: "TASK-P1-001", Title: "Something else entirely", Type: types.TaskChore, Priority: types.P1, Effort: types.EffortS, Status: types.TaskTodo, Dependencies: []string{}},
	}
	existing.RecomputeSummary()

	once, _ := Merge(existing, synth, fixedNow)
	twice, stats := Merge(once, synth, fixedNow.Add(time.Hour))

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("merge is not idempotent (-once +twice):\n%s", diff)
	}
	assert.Equal(t, 0, stats.Added)

	self, _ := Merge(once, once, fixedNow.Add(2*time.Hour))
	if diff := cmp.Diff(once, self); diff != "" {
		t.Errorf("merging a backlog with itself changed it (-once +self):\n%s", diff)
	}
}

func TestMergeNeverResurrectsDone(t *testing.T) {
	synth := Synthesize(sampleConcerns(), SynthesisOptions{Now: fixedNow})
	merged, _ := Merge(nil, synth, fixedNow)

	merged.Task("TASK-P1-001").Status = types.TaskDone
	merged.Task("TASK-P1-002").Status = types.TaskInProgress
	merged.RecomputeSummary()

	again, stats := Merge(merged, synth, fixedNow)
	assert.Equal(t, 1, stats.SkippedDone)
	assert.Equal(t, 1, stats.KeptInProgress)
	assert.Equal(t, 2, stats.Matched)
	assert.Equal(t, 0, stats.Added)
	assert.Equal(t, types.TaskDone, again.Task("TASK-P1-001").Status)
	assert.Equal(t, types.TaskInProgress, again.Task("TASK-P1-002").Status)
	assert.Len(t, again.Tasks, 4)
	assert.Equal(t, 1, again.Summary.CountsByStatus[types.TaskDone])
}

func TestMergeMatchesByNormalizedTitle(t *testing.T) {
	existing := types.NewBacklog("", nil)
	existing.Tasks = []types.RemediationTask{
		{ID: "LEGACY-7", Title: "  HARDCODED   Secret ", Type: types.TaskSecurityFix, Priority: types.P0, Effort: types.EffortM, Status: types.TaskDone, Dependencies: []string{}},
	}
	existing.RecomputeSummary()

	synth := Synthesize(types.ConcernSet{Critical: []types.Issue{{Type: "Security", Message: "hardcoded secret"}}}, SynthesisOptions{Now: fixedNow})
	merged, stats := Merge(existing, synth, fixedNow)

	assert.Equal(t, 1, stats.SkippedDone)
	assert.Len(t, merged.Tasks, 1)
}

func TestMergeRenumbersCollidingIDs(t *testing.T) {
	existing := types.NewBacklog("", nil)
	existing.Tasks = []types.RemediationTask{
		{ID: "TASK-P1-001", Title: "Old finding", Type: types.TaskChore, Priority: types.P1, Effort: types.EffortS, Status: types.TaskDone, Dependencies: []string{}},
	}
	existing.RecomputeSummary()

	synth := Synthesize(sampleConcerns(), SynthesisOptions{Now: fixedNow})
	merged, stats := Merge(existing, synth, fixedNow)

	require.NoError(t, merged.Validate())
	assert.Equal(t, 4, stats.Added)
	assert.GreaterOrEqual(t, stats.Renumbered, 1)

	var unused *types.RemediationTask
	for i := range merged.Tasks {
		if merged.Tasks[i].Title == "unused variable" {
			unused = &merged.Tasks[i]
		}
	}
	require.NotNil(t, unused)
	require.Len(t, unused.Dependencies, 1)
	dep := merged.Task(unused.Dependencies[0])
	require.NotNil(t, dep)
	assert.Equal(t, "Function too complex", dep.Title, "dependencies follow renumbered ids")
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	synth := Synthesize(sampleConcerns(), SynthesisOptions{Now: fixedNow})
	existing := types.NewBacklog("", nil)
	before := existing.Clone()
	synthBefore := synth.Clone()

	_, _ = Merge(existing, synth, fixedNow)

	if diff := cmp.Diff(before, existing); diff != "" {
		t.Errorf("existing backlog mutated:\n%s", diff)
	}
	if diff := cmp.Diff(synthBefore, synth); diff != "" {
		t.Errorf("synthesized backlog mutated:\n%s", diff)
	}
}

func TestTitleTruncatesOnCharacterBoundary(t *testing.T) {
	long := strings.Repeat("a", 499) + "ééé long finding"
	title := Title(types.Issue{Type: "Lint", Message: long})

	assert.True(t, utf8.ValidString(title))
	assert.Equal(t, types.MaxTitleLength, utf8.RuneCountInString(title))
	assert.Equal(t, strings.Repeat("a", 499)+"é", title)

	broken := Title(types.Issue{Type: "Lint", Message: "bad \xff byte"})
	assert.True(t, utf8.ValidString(broken))
}

func TestLongNonASCIITitleSurvivesJSONRoundTrip(t *testing.T) {
	concerns := types.ConcernSet{High: []types.Issue{{
		Type: "Lint", Message: strings.Repeat("a", 499) + "ééé long finding", Source: "code",
	}}}
	merged, _ := Merge(nil, Synthesize(concerns, SynthesisOptions{Milestone: "v1", Now: fixedNow}), fixedNow)
	require.NoError(t, merged.Validate())

	data, err := json.Marshal(merged)
	require.NoError(t, err)
	var reloaded types.Backlog
	require.NoError(t, json.Unmarshal(data, &reloaded))

	require.NoError(t, reloaded.Validate())
	assert.Equal(t, merged.Tasks[0].Title, reloaded.Tasks[0].Title)
}

func TestMergeIDMatchRequiresSameTitle(t *testing.T) {
	// Ids are positional within a priority, so a reused id with different
	// wording is a new concern and must not be absorbed by the old task.
	existing := types.NewBacklog("", nil)
	existing.Tasks = []types.RemediationTask{
		{ID: "TASK-P1-001", Title: "Old wording", Type: types.TaskChore, Priority: types.P1, Effort: types.EffortS, Status: types.TaskDone, Dependencies: []string{}},
	}
	existing.RecomputeSummary()

	synth := Synthesize(types.ConcernSet{High: []types.Issue{{Type: "Lint", Message: "New wording"}}}, SynthesisOptions{Now: fixedNow})
	require.Equal(t, "TASK-P1-001", synth.Tasks[0].ID)

	merged, stats := Merge(existing, synth, fixedNow)
	assert.Equal(t, MergeStats{Added: 1, Renumbered: 1}, stats)
	require.Len(t, merged.Tasks, 2)
	assert.Equal(t, types.TaskDone, merged.Task("TASK-P1-001").Status)
	assert.Equal(t, "Old wording", merged.Task("TASK-P1-001").Title)
	assert.Equal(t, "New wording", merged.Tasks[1].Title)
	assert.NotEqual(t, "TASK-P1-001", merged.Tasks[1].ID)
}
