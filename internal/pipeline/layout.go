package pipeline

import (
	"path/filepath"
	"regexp"

	"github.com/google/uuid"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// Layout locates every artifact inside the state dir.
type Layout struct {
	Root     string
	StateDir string
}

// NewLayout resolves stateDir against root unless it is absolute.
func NewLayout(root, stateDir string) Layout {
	if !filepath.IsAbs(stateDir) {
		stateDir = filepath.Join(root, stateDir)
	}
	return Layout{Root: root, StateDir: stateDir}
}

func (l Layout) Execution() string      { return filepath.Join(l.StateDir, "execution.json") }
func (l Layout) ReportsDir() string     { return filepath.Join(l.StateDir, "reports") }
func (l Layout) Evaluation() string     { return filepath.Join(l.StateDir, "evaluation.json") }
func (l Layout) Decision() string       { return filepath.Join(l.StateDir, "decision.json") }
func (l Layout) Implementation() string { return filepath.Join(l.StateDir, "implementation.json") }
func (l Layout) Approval() string       { return filepath.Join(l.StateDir, "approval.json") }
func (l Layout) Feedback() string       { return filepath.Join(l.StateDir, "feedback.jsonl") }
func (l Layout) ConfigFile() string     { return filepath.Join(l.StateDir, "config.yaml") }

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Report returns the report file of one analyzer. Names that are not already
// safe file names get a suffix derived from the full name, so "a/b" and "a_b"
// land in different files.
func (l Layout) Report(analyzer string) string {
	name := unsafeName.ReplaceAllString(analyzer, "_")
	if name == "" || name == "." || name == ".." {
		name = "_"
	}
	if name != analyzer {
		name += "-" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(analyzer)).String()[:8]
	}
	return filepath.Join(l.ReportsDir(), name+".json")
}

// Artifact returns the file whose presence marks a phase complete.
func (l Layout) Artifact(phase types.Phase) string {
	switch phase {
	case types.PhaseExecution:
		return l.Execution()
	case types.PhaseEvaluation:
		return l.Evaluation()
	case types.PhaseDecision:
		return l.Decision()
	case types.PhaseImplementation:
		return l.Implementation()
	case types.PhaseApproval:
		return l.Approval()
	}
	return ""
}
