package gates

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/classification"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// Thresholds used by the decision table.
const (
	// NoGoScoreFloor: any present domain score below it blocks the release.
	NoGoScoreFloor = 40

	// ConcernScoreLow and ConcernScoreHigh bound the [low, high) score band
	// that counts as a concern.
	ConcernScoreLow  = 60
	ConcernScoreHigh = 75

	// HighCountLimit: more high-severity concerns than this counts as a concern.
	HighCountLimit = 3
)

// Rule names, in evaluation order.
const (
	RuleBlocking        = "rule-1-blocking"
	RuleCritical        = "rule-2-non-security-critical"
	RuleMultipleConcern = "rule-3-multiple-concerns"
	RuleSingleConcern   = "rule-3-single-concern"
	RuleClean           = "rule-4-clean"
)

// facts are the measurements every rule is evaluated against. They are
// computed once so that rules stay simple predicates.
type facts struct {
	securityCriticals    int
	nonSecurityCriticals int
	highCount            int
	highImpactConflicts  int
	mediumConflicts      int
	lowScores            []string // domains below NoGoScoreFloor
	bandScores           []string // domains in [ConcernScoreLow, ConcernScoreHigh)
}

func (f facts) concernConditions() int {
	n := 0
	if f.highCount > HighCountLimit {
		n++
	}
	if f.mediumConflicts > 0 {
		n++
	}
	if len(f.bandScores) > 0 {
		n++
	}
	return n
}

func gather(concerns types.ConcernSet, conflicts []types.Conflict, scores types.ScoreBoard) facts {
	var f facts
	for _, issue := range concerns.Critical {
		if classification.IsSecurity(issue) {
			f.securityCriticals++
		} else {
			f.nonSecurityCriticals++
		}
	}
	f.highCount = len(concerns.High)
	for _, c := range conflicts {
		switch c.Impact {
		case types.ImpactHigh:
			f.highImpactConflicts++
		case types.ImpactMedium:
			f.mediumConflicts++
		}
	}
	for domain, score := range scores.Present() {
		if score < NoGoScoreFloor {
			f.lowScores = append(f.lowScores, fmt.Sprintf("%s=%d", domain, score))
		}
		if score >= ConcernScoreLow && score < ConcernScoreHigh {
			f.bandScores = append(f.bandScores, fmt.Sprintf("%s=%d", domain, score))
		}
	}
	sort.Strings(f.lowScores)
	sort.Strings(f.bandScores)
	return f
}

type rule struct {
	name       string
	verdict    types.Verdict
	confidence types.Confidence
	match      func(facts) bool
	explain    func(facts) string
}

// decisionTable is evaluated top to bottom; the first matching row decides.
var decisionTable = []rule{
	{
		name:       RuleBlocking,
		verdict:    types.VerdictNoGo,
		confidence: types.ConfidenceHigh,
		match: func(f facts) bool {
			return f.securityCriticals > 0 || f.highImpactConflicts > 0 || len(f.lowScores) > 0
		},
		explain: func(f facts) string {
			return fmt.Sprintf("%d security-critical concern(s), %d high-impact conflict(s), %d domain score(s) below %d%s",
				f.securityCriticals, f.highImpactConflicts, len(f.lowScores), NoGoScoreFloor, listSuffix(f.lowScores))
		},
	},
	{
		name:       RuleCritical,
		verdict:    types.VerdictGoWithConcerns,
		confidence: types.ConfidenceMedium,
		match:      func(f facts) bool { return f.nonSecurityCriticals > 0 },
		explain: func(f facts) string {
			return fmt.Sprintf("%d non-security critical concern(s) remain", f.nonSecurityCriticals)
		},
	},
	{
		name:       RuleMultipleConcern,
		verdict:    types.VerdictGoWithConcerns,
		confidence: types.ConfidenceMedium,
		match:      func(f facts) bool { return f.concernConditions() >= 2 },
		explain:    explainConcerns,
	},
	{
		name:       RuleSingleConcern,
		verdict:    types.VerdictGoWithConcerns,
		confidence: types.ConfidenceHigh,
		match:      func(f facts) bool { return f.concernConditions() == 1 },
		explain:    explainConcerns,
	},
	{
		name:       RuleClean,
		verdict:    types.VerdictGo,
		confidence: types.ConfidenceHigh,
		match:      func(facts) bool { return true },
		explain: func(f facts) string {
			return fmt.Sprintf("no blocking concerns: %d high-severity concern(s), no conflicts requiring attention", f.highCount)
		},
	},
}

func explainConcerns(f facts) string {
	return fmt.Sprintf("%d of 3 concern conditions hold: %d high-severity concern(s) (limit %d), %d medium-impact conflict(s), %d domain score(s) in [%d,%d)%s",
		f.concernConditions(), f.highCount, HighCountLimit, f.mediumConflicts,
		len(f.bandScores), ConcernScoreLow, ConcernScoreHigh, listSuffix(f.bandScores))
}

func listSuffix(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return " (" + strings.Join(items, ", ") + ")"
}

// Classify renders the Go/No-Go verdict. It is a pure function: identical
// input always yields an identical Decision.
func Classify(concerns types.ConcernSet, conflicts []types.Conflict, scores types.ScoreBoard) types.Decision {
	f := gather(concerns, conflicts, scores)
	for _, r := range decisionTable {
		if !r.match(f) {
			continue
		}
		return types.Decision{
			Verdict:       r.verdict,
			Confidence:    r.confidence,
			Rule:          r.name,
			Justification: fmt.Sprintf("%s: %s", r.name, r.explain(f)),
		}
	}
	// The last row always matches.
	panic("gates: decision table has no catch-all row")
}

// Report bundles a decision with the inputs it was derived from.
func Report(eval types.Evaluation) types.DecisionReport {
	return types.DecisionReport{
		Decision:  Classify(eval.Concerns, eval.Conflicts, eval.Scores),
		Scores:    eval.Scores,
		Concerns:  eval.Concerns,
		Conflicts: eval.Conflicts,
	}
}
