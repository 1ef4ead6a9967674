package types

// Impact rates how much a conflict between analyzers matters.
type Impact string

const (
	ImpactLow    Impact = "Low"
	ImpactMedium Impact = "Medium"
	ImpactHigh   Impact = "High"
)

// ConflictType identifies which disagreement rule produced a conflict.
type ConflictType string

const (
	ConflictScoreDiscrepancy  ConflictType = "score-discrepancy"
	ConflictOverlappingDomain ConflictType = "overlapping-critical-domain"
)

// Conflict records disagreement between analyzers.
type Conflict struct {
	Type       ConflictType `json:"type"`
	Message    string       `json:"message"`
	Agents     []string     `json:"agents"`
	Impact     Impact       `json:"impact"`
	Resolution string       `json:"resolution"`
}

// ScoreMode says which weighting table produced the overall score.
type ScoreMode string

const (
	ScoreModeBase     ScoreMode = "base"
	ScoreModeExtended ScoreMode = "extended"
)

// ScoreBoard holds per-domain scores (0-100) and the weighted overall score.
// A nil domain score means the domain was absent and did not contribute.
type ScoreBoard struct {
	Mode    ScoreMode       `json:"mode"`
	Domains map[string]*int `json:"domains"`
	Overall int             `json:"overall"`
}

// Present returns the scores of every domain that has a value.
func (s ScoreBoard) Present() map[string]int {
	out := make(map[string]int, len(s.Domains))
	for name, score := range s.Domains {
		if score != nil {
			out[name] = *score
		}
	}
	return out
}

// Verdict is the release-gate outcome.
type Verdict string

const (
	VerdictGo             Verdict = "GO"
	VerdictGoWithConcerns Verdict = "GO_WITH_CONCERNS"
	VerdictNoGo           Verdict = "NO_GO"
)

// Confidence grades how sure the classifier is about a verdict.
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// Decision is the Go/No-Go verdict. Rule names the decision-table row that fired.
type Decision struct {
	Verdict       Verdict    `json:"verdict"`
	Justification string     `json:"justification"`
	Confidence    Confidence `json:"confidence"`
	Rule          string     `json:"rule"`
}

// Evaluation is the output of the evaluation phase.
type Evaluation struct {
	Concerns  ConcernSet       `json:"concerns"`
	Conflicts []Conflict       `json:"conflicts"`
	Scores    ScoreBoard       `json:"scores"`
	Analyzers []AnalyzerResult `json:"analyzers"`
}

// DecisionReport is what an external renderer turns into a human-readable document.
type DecisionReport struct {
	Decision  Decision   `json:"decision"`
	Scores    ScoreBoard `json:"scores"`
	Concerns  ConcernSet `json:"concerns"`
	Conflicts []Conflict `json:"conflicts"`
}
