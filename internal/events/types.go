// Package events defines the feedback events the pipeline reports to the
// requester that supplied the work, and the sinks that deliver them.
package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// EventType identifies a feedback event.
type EventType string

const (
	// EventTypeWorkflowComplete is emitted once a run has been signed off.
	EventTypeWorkflowComplete EventType = "workflow-complete"
)

// FeedbackEvent tells the requester how a pipeline run ended.
type FeedbackEvent struct {
	// ID is the unique identifier for this event
	ID string `json:"id"`
	// Event is the event type
	Event EventType `json:"event"`
	// Timestamp is when the event was emitted
	Timestamp time.Time `json:"timestamp"`
	// RunID is the pipeline run that produced the event
	RunID string `json:"runId,omitempty"`

	Decision    types.Decision    `json:"decision"`
	Scores      types.ScoreBoard  `json:"scores"`
	IssueCounts types.IssueCounts `json:"issueCounts"`
	// UpdatedBacklog summarizes the current backlog after implementation
	UpdatedBacklog BacklogRef `json:"updatedBacklog"`
	// ReportPath is the decision report artifact
	ReportPath string `json:"reportPath"`
	// Approved records the approval gate outcome
	Approved bool `json:"approved"`
}

// BacklogRef points at a backlog without carrying its tasks.
type BacklogRef struct {
	BacklogID string        `json:"backlogId"`
	Summary   types.Summary `json:"summary"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// NewWorkflowCompleteEvent builds the workflow-complete event for a run.
// b may be nil when implementation never produced a backlog.
func NewWorkflowCompleteEvent(runID string, report *types.DecisionReport, b *types.Backlog, reportPath string, approved bool) (*FeedbackEvent, error) {
	if report == nil {
		return nil, fmt.Errorf("decision report is required")
	}
	event := &FeedbackEvent{
		ID:          uuid.New().String(),
		Event:       EventTypeWorkflowComplete,
		Timestamp:   time.Now().UTC(),
		RunID:       runID,
		Decision:    report.Decision,
		Scores:      report.Scores,
		IssueCounts: report.Concerns.Counts(),
		ReportPath:  reportPath,
		Approved:    approved,
	}
	if b != nil {
		event.UpdatedBacklog = BacklogRef{
			BacklogID: b.BacklogID,
			Summary:   b.Summary,
			UpdatedAt: b.UpdatedAt,
		}
	}
	return event, nil
}
