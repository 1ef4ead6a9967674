package types

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// CurrentBacklogID is the well-known identifier of the live working backlog.
const CurrentBacklogID = "current"

// MaxTitleLength bounds task titles, in characters. It matches the sqlite
// CHECK(length(title) <= 500) constraint.
const MaxTitleLength = 500

// Effort is a t-shirt size estimate for a remediation task.
type Effort string

const (
	EffortXS Effort = "XS"
	EffortS  Effort = "S"
	EffortM  Effort = "M"
	EffortL  Effort = "L"
	EffortXL Effort = "XL"
)

// IsValid checks if the effort value is valid
func (e Effort) IsValid() bool {
	switch e {
	case EffortXS, EffortS, EffortM, EffortL, EffortXL:
		return true
	}
	return false
}

// Rank orders efforts from smallest (0) to largest (4). Invalid values sort last.
func (e Effort) Rank() int {
	switch e {
	case EffortXS:
		return 0
	case EffortS:
		return 1
	case EffortM:
		return 2
	case EffortL:
		return 3
	case EffortXL:
		return 4
	}
	return 5
}

// TaskStatus represents where a remediation task is in its lifecycle
type TaskStatus string

const (
	TaskTodo                 TaskStatus = "todo"
	TaskInProgress           TaskStatus = "in-progress"
	TaskDone                 TaskStatus = "done"
	TaskRequiresManualReview TaskStatus = "requires-manual-review"
)

// TaskStatuses lists every task status.
var TaskStatuses = []TaskStatus{TaskTodo, TaskInProgress, TaskDone, TaskRequiresManualReview}

// IsValid checks if the status value is valid
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone, TaskRequiresManualReview:
		return true
	}
	return false
}

// IsTerminal reports whether no further automatic transition is allowed.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskDone || s == TaskRequiresManualReview
}

// ValidTransitions defines the forward-only task state machine:
//
//	todo → in-progress → done
//	                   → requires-manual-review
//
// Nothing moves backward and terminal states have no exits, so a failed fix
// is never retried automatically.
func (s TaskStatus) ValidTransitions() []TaskStatus {
	switch s {
	case TaskTodo:
		return []TaskStatus{TaskInProgress}
	case TaskInProgress:
		return []TaskStatus{TaskDone, TaskRequiresManualReview}
	default:
		return []TaskStatus{}
	}
}

// CanTransitionTo checks if a transition from this status to the target is valid
func (s TaskStatus) CanTransitionTo(target TaskStatus) bool {
	for _, valid := range s.ValidTransitions() {
		if valid == target {
			return true
		}
	}
	return false
}

// FixKind selects the remediation strategy the executor applies.
// An empty FixKind means no automated fix is known.
type FixKind string

const (
	FixCreate  FixKind = "create"
	FixPatch   FixKind = "patch"
	FixRewrite FixKind = "rewrite"
	FixCommand FixKind = "command"
	FixConfig  FixKind = "config"
	FixDelete  FixKind = "delete"
)

// IsValid checks if the fix kind is one of the known kinds or empty.
func (k FixKind) IsValid() bool {
	switch k {
	case "", FixCreate, FixPatch, FixRewrite, FixCommand, FixConfig, FixDelete:
		return true
	}
	return false
}

// TaskType categorizes the kind of remediation work
type TaskType string

const (
	TaskSecurityFix      TaskType = "security-fix"
	TaskPerformance      TaskType = "performance"
	TaskRefactor         TaskType = "refactor"
	TaskCleanup          TaskType = "cleanup"
	TaskDocumentation    TaskType = "documentation"
	TaskTest             TaskType = "test"
	TaskDependencyUpdate TaskType = "dependency-update"
	TaskAccessibility    TaskType = "accessibility"
	TaskChore            TaskType = "chore"
)

// FixPayload carries the data a fix strategy needs.
type FixPayload struct {
	Content string   `json:"content,omitempty"`
	Command []string `json:"command,omitempty"`
	Key     string   `json:"key,omitempty"`
	Value   any      `json:"value,omitempty"`
}

// RemediationTask is one unit of remediation work in the backlog.
type RemediationTask struct {
	ID                 string      `json:"id"`
	Title              string      `json:"title"`
	Description        string      `json:"description,omitempty"`
	Type               TaskType    `json:"type"`
	Priority           Priority    `json:"priority"`
	Effort             Effort      `json:"effort"`
	Status             TaskStatus  `json:"status"`
	FixKind            FixKind     `json:"fixKind,omitempty"`
	Dependencies       []string    `json:"dependencies"`
	TargetPath         string      `json:"targetPath,omitempty"`
	Payload            *FixPayload `json:"payload,omitempty"`
	AcceptanceCriteria []string    `json:"acceptanceCriteria,omitempty"`
	Category           Category    `json:"category,omitempty"`
	Source             string      `json:"source,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
	CompletedAt        *time.Time  `json:"completedAt,omitempty"`
	Error              string      `json:"error,omitempty"`
	CommitHash         string      `json:"commitHash,omitempty"`
}

// Validate checks if the task has valid field values
func (t *RemediationTask) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if t.Title == "" {
		return fmt.Errorf("task %s: title is required", t.ID)
	}
	if !utf8.ValidString(t.Title) {
		return fmt.Errorf("task %s: title is not valid UTF-8", t.ID)
	}
	if n := utf8.RuneCountInString(t.Title); n > MaxTitleLength {
		return fmt.Errorf("task %s: title must be %d characters or less (got %d)", t.ID, MaxTitleLength, n)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("task %s: invalid priority: %q", t.ID, t.Priority)
	}
	if !t.Effort.IsValid() {
		return fmt.Errorf("task %s: invalid effort: %q", t.ID, t.Effort)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("task %s: invalid status: %q", t.ID, t.Status)
	}
	if !t.FixKind.IsValid() {
		return fmt.Errorf("task %s: invalid fix kind: %q", t.ID, t.FixKind)
	}
	if t.FixKind != "" && t.FixKind != FixCommand && t.TargetPath == "" {
		return fmt.Errorf("task %s: target path is required for %s fixes", t.ID, t.FixKind)
	}
	for _, dep := range t.Dependencies {
		if dep == t.ID {
			return fmt.Errorf("task %s: depends on itself", t.ID)
		}
	}
	return nil
}

// Summary holds counts derived from a backlog's tasks. It is always
// recomputed from the full task set, never patched incrementally.
type Summary struct {
	Total            int                `json:"total"`
	CountsByPriority map[Priority]int   `json:"countsByPriority"`
	CountsByStatus   map[TaskStatus]int `json:"countsByStatus"`
}

// ComputeSummary derives a Summary from tasks.
func ComputeSummary(tasks []RemediationTask) Summary {
	s := Summary{
		Total:            len(tasks),
		CountsByPriority: make(map[Priority]int, len(Priorities)),
		CountsByStatus:   make(map[TaskStatus]int, len(TaskStatuses)),
	}
	for _, p := range Priorities {
		s.CountsByPriority[p] = 0
	}
	for _, st := range TaskStatuses {
		s.CountsByStatus[st] = 0
	}
	for _, t := range tasks {
		s.CountsByPriority[t.Priority]++
		s.CountsByStatus[t.Status]++
	}
	return s
}

// Equal reports whether two summaries carry the same counts.
func (s Summary) Equal(other Summary) bool {
	if s.Total != other.Total {
		return false
	}
	if len(s.CountsByPriority) != len(other.CountsByPriority) || len(s.CountsByStatus) != len(other.CountsByStatus) {
		return false
	}
	for k, v := range s.CountsByPriority {
		if other.CountsByPriority[k] != v {
			return false
		}
	}
	for k, v := range s.CountsByStatus {
		if other.CountsByStatus[k] != v {
			return false
		}
	}
	return true
}

// Backlog is the persisted queue of remediation tasks.
type Backlog struct {
	BacklogID  string            `json:"backlogId"`
	Generation string            `json:"generation,omitempty"`
	Tasks      []RemediationTask `json:"tasks"`
	Summary    Summary           `json:"summary"`
	Milestone  string            `json:"milestone,omitempty"`
	Deadline   *time.Time        `json:"deadline,omitempty"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// NewBacklog returns an empty current backlog.
func NewBacklog(milestone string, deadline *time.Time) *Backlog {
	b := &Backlog{
		BacklogID: CurrentBacklogID,
		Tasks:     []RemediationTask{},
		Milestone: milestone,
		Deadline:  deadline,
	}
	b.RecomputeSummary()
	return b
}

// RecomputeSummary replaces the summary with one derived from the tasks.
func (b *Backlog) RecomputeSummary() {
	b.Summary = ComputeSummary(b.Tasks)
}

// Task returns a pointer to the task with the given id, or nil.
func (b *Backlog) Task(id string) *RemediationTask {
	for i := range b.Tasks {
		if b.Tasks[i].ID == id {
			return &b.Tasks[i]
		}
	}
	return nil
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (b *Backlog) Clone() *Backlog {
	if b == nil {
		return nil
	}
	out := *b
	out.Tasks = make([]RemediationTask, len(b.Tasks))
	for i, t := range b.Tasks {
		out.Tasks[i] = t.Clone()
	}
	out.Summary = Summary{
		Total:            b.Summary.Total,
		CountsByPriority: make(map[Priority]int, len(b.Summary.CountsByPriority)),
		CountsByStatus:   make(map[TaskStatus]int, len(b.Summary.CountsByStatus)),
	}
	for k, v := range b.Summary.CountsByPriority {
		out.Summary.CountsByPriority[k] = v
	}
	for k, v := range b.Summary.CountsByStatus {
		out.Summary.CountsByStatus[k] = v
	}
	if b.Deadline != nil {
		d := *b.Deadline
		out.Deadline = &d
	}
	return &out
}

// Clone returns a deep copy of the task.
func (t RemediationTask) Clone() RemediationTask {
	out := t
	out.Dependencies = append([]string{}, t.Dependencies...)
	if t.AcceptanceCriteria != nil {
		out.AcceptanceCriteria = append([]string{}, t.AcceptanceCriteria...)
	}
	if t.Payload != nil {
		p := *t.Payload
		p.Command = append([]string(nil), t.Payload.Command...)
		out.Payload = &p
	}
	if t.CompletedAt != nil {
		c := *t.CompletedAt
		out.CompletedAt = &c
	}
	return out
}

// Validate checks the structural contract of a backlog before it is
// persisted. Every failed check is collected into a single ContractViolation.
func (b *Backlog) Validate() error {
	if b == nil {
		return NewContractViolation("backlog", fmt.Errorf("backlog is nil"))
	}
	var errs []error
	if b.BacklogID == "" {
		errs = append(errs, fmt.Errorf("backlogId is required"))
	}
	seen := make(map[string]struct{}, len(b.Tasks))
	for i := range b.Tasks {
		t := &b.Tasks[i]
		if err := t.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("tasks[%d]: %w", i, err))
		}
		if _, dup := seen[t.ID]; dup && t.ID != "" {
			errs = append(errs, fmt.Errorf("tasks[%d]: duplicate id %q", i, t.ID))
		}
		seen[t.ID] = struct{}{}
	}
	for i := range b.Tasks {
		for _, dep := range b.Tasks[i].Dependencies {
			if _, ok := seen[dep]; !ok {
				errs = append(errs, fmt.Errorf("tasks[%d]: unknown dependency %q", i, dep))
			}
		}
	}
	if !b.Summary.Equal(ComputeSummary(b.Tasks)) {
		errs = append(errs, fmt.Errorf("summary does not match tasks"))
	}
	if len(errs) > 0 {
		return NewContractViolation("backlog "+b.BacklogID, errs...)
	}
	return nil
}

// SnapshotInfo describes one immutable historical backlog.
type SnapshotInfo struct {
	Generation string    `json:"generation"`
	Tasks      int       `json:"tasks"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Info summarizes the backlog as a snapshot listing entry.
func (b *Backlog) Info() SnapshotInfo {
	return SnapshotInfo{Generation: b.Generation, Tasks: len(b.Tasks), UpdatedAt: b.UpdatedAt}
}
