package types

import "time"

// Phase is a stage of the pipeline.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseExecution      Phase = "execution"
	PhaseEvaluation     Phase = "evaluation"
	PhaseDecision       Phase = "decision"
	PhaseImplementation Phase = "implementation"
	PhaseApproval       Phase = "approval"
)

// Phases lists the runnable phases in pipeline order.
var Phases = []Phase{PhaseExecution, PhaseEvaluation, PhaseDecision, PhaseImplementation, PhaseApproval}

// IsValid checks if the phase is a runnable phase.
func (p Phase) IsValid() bool {
	for _, known := range Phases {
		if p == known {
			return true
		}
	}
	return false
}

// Index returns the position of the phase in Phases, or -1.
func (p Phase) Index() int {
	for i, known := range Phases {
		if p == known {
			return i
		}
	}
	return -1
}

// ComponentStatus is the state of one phase in a progress record.
type ComponentStatus string

const (
	ComponentPending   ComponentStatus = "pending"
	ComponentCompleted ComponentStatus = "completed"
)

// PipelineProgress is a snapshot of how far the pipeline got.
type PipelineProgress struct {
	Phase              Phase                     `json:"phase"`
	PerComponentStatus map[Phase]ComponentStatus `json:"perComponentStatus"`
	Timestamps         map[Phase]time.Time       `json:"timestamps"`
	UpdatedAt          time.Time                 `json:"updatedAt"`
}

// Completed reports whether the given phase is marked completed.
func (p *PipelineProgress) Completed(phase Phase) bool {
	return p.PerComponentStatus[phase] == ComponentCompleted
}

// SameState reports whether two records agree on phase and per-component status.
// Timestamps are ignored.
func (p *PipelineProgress) SameState(other *PipelineProgress) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.Phase != other.Phase {
		return false
	}
	for _, phase := range Phases {
		if p.PerComponentStatus[phase] != other.PerComponentStatus[phase] {
			return false
		}
	}
	return true
}
