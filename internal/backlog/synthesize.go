// Package backlog turns consolidated concerns into remediation tasks and
// merges them into the persisted backlog.
package backlog

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/classification"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/priorities"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// TaskID builds the deterministic identifier of the seq-th (1-based) task
// of a priority, e.g. TASK-P1-003.
func TaskID(p types.Priority, seq int) string {
	return fmt.Sprintf("TASK-P%d-%03d", p.Ordinal(), seq)
}

// SynthesisOptions carries the backlog-level metadata of a synthesis run.
type SynthesisOptions struct {
	Milestone string
	Deadline  *time.Time
	Now       time.Time
}

// Synthesize maps every issue of the ConcernSet to a remediation task.
// Buckets are walked from critical to low and issues in their consolidated
// order, so identical input always yields identical ids.
func Synthesize(concerns types.ConcernSet, opts SynthesisOptions) *types.Backlog {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	b := types.NewBacklog(opts.Milestone, opts.Deadline)
	lastByPath := make(map[string]string)

	for _, bucket := range types.Buckets {
		priority := priorities.FromBucket(bucket)
		for i, issue := range concerns.Bucket(bucket) {
			task := taskFromIssue(issue, priority, TaskID(priority, i+1), now)
			if task.TargetPath != "" {
				key := filepath.Clean(task.TargetPath)
				if prev, ok := lastByPath[key]; ok {
					task.Dependencies = append(task.Dependencies, prev)
				}
				lastByPath[key] = task.ID
			}
			b.Tasks = append(b.Tasks, task)
		}
	}

	b.UpdatedAt = now
	b.RecomputeSummary()
	return b
}

func taskFromIssue(issue types.Issue, priority types.Priority, id string, now time.Time) types.RemediationTask {
	category := classification.Categorize(issue)
	taskType := classification.TaskTypeFor(category)
	title := Title(issue)

	task := types.RemediationTask{
		ID:                 id,
		Title:              title,
		Description:        describe(issue),
		Type:               taskType,
		Priority:           priority,
		Effort:             classification.EstimateEffort(issue),
		Status:             types.TaskTodo,
		Dependencies:       []string{},
		AcceptanceCriteria: classification.AcceptanceCriteria(taskType, title),
		Category:           category,
		Source:             issue.Source,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if issue.Fix != nil && issue.Fix.Kind.IsValid() && issue.Fix.Kind != "" {
		task.FixKind = issue.Fix.Kind
		task.TargetPath = issue.Fix.Path
		payload := issue.Fix.FixPayload
		payload.Command = append([]string(nil), issue.Fix.Command...)
		task.Payload = &payload
	}
	if task.TargetPath == "" && issue.Location != nil && task.FixKind != types.FixCommand {
		task.TargetPath = issue.Location.Path
	}
	return task
}

// Title derives the task title from an issue: the trimmed message, else the type.
func Title(issue types.Issue) string {
	title := strings.Join(strings.Fields(issue.Message), " ")
	if title == "" {
		title = strings.TrimSpace(issue.Type)
	}
	if title == "" {
		title = "Untitled concern"
	}
	return truncateRunes(title, types.MaxTitleLength)
}

// truncateRunes cuts s to at most n characters, replacing invalid UTF-8
// first so the result survives a JSON round trip unchanged.
func truncateRunes(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func describe(issue types.Issue) string {
	var parts []string
	if issue.Type != "" {
		parts = append(parts, "Type: "+issue.Type)
	}
	if issue.Source != "" {
		parts = append(parts, "Reported by: "+issue.Source)
	}
	if issue.Location != nil && issue.Location.Path != "" {
		loc := issue.Location.Path
		if issue.Location.Line > 0 {
			loc = fmt.Sprintf("%s:%d", loc, issue.Location.Line)
		}
		parts = append(parts, "Location: "+loc)
	}
	return strings.Join(parts, "\n")
}
