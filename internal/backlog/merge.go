package backlog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// MergeStats reports what a merge did with each synthesized task.
type MergeStats struct {
	// Added counts genuinely new tasks appended to the backlog
	Added int `json:"added"`

	// Matched counts tasks already present as todo or requires-manual-review;
	// the existing task is kept unchanged
	Matched int `json:"matched"`

	// KeptInProgress counts matches against an active remediation
	KeptInProgress int `json:"keptInProgress"`

	// SkippedDone counts matches against completed tasks, which are never resurrected
	SkippedDone int `json:"skippedDone"`

	// Renumbered counts new tasks whose synthesized id was already taken
	Renumbered int `json:"renumbered"`
}

// NormalizeTitle is the title identity used for matching: case-folded with
// whitespace runs collapsed.
func NormalizeTitle(title string) string {
	return cases.Fold().String(strings.Join(strings.Fields(title), " "))
}

// Merge folds a synthesized task set into the existing backlog and returns a
// new backlog; neither input is modified.
//
// A synthesized task matches an existing one by id when their normalized
// titles agree, otherwise by normalized title alone. Matched tasks are never
// replaced: done tasks stay done, in-progress tasks are left undisturbed.
// Unmatched tasks are appended, renumbered if their id is already taken.
// The summary is recomputed from the merged set.
//
// Merge is idempotent: Merge(Merge(b, s), s) equals Merge(b, s).
func Merge(existing, synthesized *types.Backlog, now time.Time) (*types.Backlog, MergeStats) {
	var stats MergeStats

	var out *types.Backlog
	if existing == nil {
		out = types.NewBacklog("", nil)
	} else {
		out = existing.Clone()
	}
	if synthesized == nil {
		out.RecomputeSummary()
		return out, stats
	}
	if out.Milestone == "" {
		out.Milestone = synthesized.Milestone
	}
	if out.Deadline == nil && synthesized.Deadline != nil {
		d := *synthesized.Deadline
		out.Deadline = &d
	}

	byID := make(map[string]int, len(out.Tasks))
	byTitle := make(map[string]int, len(out.Tasks))
	for i := range out.Tasks {
		index(byID, byTitle, out.Tasks[i], i)
	}

	idMap := make(map[string]string, len(synthesized.Tasks))
	firstNew := len(out.Tasks)

	for _, s := range synthesized.Tasks {
		title := NormalizeTitle(s.Title)
		pos, ok := byID[s.ID]
		if !ok || NormalizeTitle(out.Tasks[pos].Title) != title {
			pos, ok = byTitle[title]
		}

		if ok {
			matched := &out.Tasks[pos]
			idMap[s.ID] = matched.ID
			switch matched.Status {
			case types.TaskDone:
				stats.SkippedDone++
			case types.TaskInProgress:
				stats.KeptInProgress++
			default:
				stats.Matched++
			}
			continue
		}

		task := s.Clone()
		if _, taken := byID[task.ID]; taken {
			task.ID = nextFreeID(byID, task.Priority)
			stats.Renumbered++
		}
		idMap[s.ID] = task.ID
		out.Tasks = append(out.Tasks, task)
		index(byID, byTitle, task, len(out.Tasks)-1)
		stats.Added++
	}

	for i := firstNew; i < len(out.Tasks); i++ {
		out.Tasks[i].Dependencies = remapDependencies(out.Tasks[i], idMap, byID)
	}

	if stats.Added > 0 {
		out.UpdatedAt = now
	}
	out.RecomputeSummary()
	return out, stats
}

func index(byID, byTitle map[string]int, t types.RemediationTask, pos int) {
	if _, ok := byID[t.ID]; !ok {
		byID[t.ID] = pos
	}
	title := NormalizeTitle(t.Title)
	if _, ok := byTitle[title]; !ok {
		byTitle[title] = pos
	}
}

// nextFreeID returns the first TASK-P<n>-<seq> id above every existing
// sequence number of that priority.
func nextFreeID(byID map[string]int, p types.Priority) string {
	prefix := fmt.Sprintf("TASK-P%d-", p.Ordinal())
	highest := 0
	for id := range byID {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(id, prefix)); err == nil && n > highest {
			highest = n
		}
	}
	for seq := highest + 1; ; seq++ {
		id := TaskID(p, seq)
		if _, taken := byID[id]; !taken {
			return id
		}
	}
}

// remapDependencies rewrites synthesized dependency ids to the ids they
// resolved to in the merged backlog, dropping anything that did not survive.
func remapDependencies(t types.RemediationTask, idMap map[string]string, byID map[string]int) []string {
	deps := make([]string, 0, len(t.Dependencies))
	seen := make(map[string]struct{}, len(t.Dependencies))
	for _, dep := range t.Dependencies {
		if mapped, ok := idMap[dep]; ok {
			dep = mapped
		}
		if dep == t.ID {
			continue
		}
		if _, exists := byID[dep]; !exists {
			continue
		}
		if _, dup := seen[dep]; dup {
			continue
		}
		seen[dep] = struct{}{}
		deps = append(deps, dep)
	}
	return deps
}
