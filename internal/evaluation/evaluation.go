// Package evaluation turns raw analyzer results into an Evaluation:
// consolidated concerns, detected conflicts and the aggregated ScoreBoard.
// Everything here is a pure function of its input.
package evaluation

import (
	"github.com/rfsouza1492/factory-endurance-sub000/internal/consolidation"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// Evaluate consolidates the results and derives conflicts and scores.
func Evaluate(results []types.AnalyzerResult) (types.Evaluation, consolidation.Stats) {
	merged := consolidation.Consolidate(results)
	board := Aggregate(results)
	return types.Evaluation{
		Concerns:  merged.Concerns,
		Conflicts: DetectConflicts(results, board),
		Scores:    board,
		Analyzers: results,
	}, merged.Stats
}
