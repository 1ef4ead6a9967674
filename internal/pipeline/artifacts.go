package pipeline

import (
	"time"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/backlog"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/consolidation"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/remediation"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// ExecutionManifest is the execution phase artifact. Reports themselves live
// in one file per analyzer so no analyzer shares an output slot.
type ExecutionManifest struct {
	RunID      string          `json:"runId"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Analyzers  []AnalyzerEntry `json:"analyzers"`
}

// AnalyzerEntry records where one analyzer's report went, or why it has none.
type AnalyzerEntry struct {
	Name       string `json:"name"`
	Domain     string `json:"domain,omitempty"`
	ReportPath string `json:"reportPath,omitempty"`
	Score      int    `json:"score"`
	Issues     int    `json:"issues"`
	Error      string `json:"error,omitempty"`
}

// EvaluationArtifact is the evaluation phase artifact.
type EvaluationArtifact struct {
	types.Evaluation
	Consolidation consolidation.Stats `json:"consolidation"`
	EvaluatedAt   time.Time           `json:"evaluatedAt"`
}

// ImplementationResult is the implementation phase artifact.
type ImplementationResult struct {
	RunID       string                   `json:"runId"`
	Snapshot    string                   `json:"snapshot,omitempty"`
	Merge       backlog.MergeStats       `json:"merge"`
	Batch       *remediation.BatchResult `json:"batch"`
	Summary     types.Summary            `json:"summary"`
	CompletedAt time.Time                `json:"completedAt"`
}
