package evaluation

import (
	"fmt"
	"sort"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/classification"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// ScoreDiscrepancyThreshold is the largest gap between two domain scores
// that is not reported as a conflict.
const ScoreDiscrepancyThreshold = 30

// FlaggedCategories are the categories in which critical findings from
// several analyzers indicate an overlapping-critical-domain conflict.
var FlaggedCategories = []types.Category{types.CategorySecurity}

// DetectConflicts flags disagreement between analyzers. An empty result is
// the common case. Output order is deterministic: score discrepancies sorted
// by domain pair, then domain overlaps in FlaggedCategories order.
func DetectConflicts(results []types.AnalyzerResult, board types.ScoreBoard) []types.Conflict {
	conflicts := []types.Conflict{}
	conflicts = append(conflicts, scoreDiscrepancies(board)...)
	conflicts = append(conflicts, criticalOverlaps(results)...)
	return conflicts
}

func scoreDiscrepancies(board types.ScoreBoard) []types.Conflict {
	present := board.Present()
	names := make([]string, 0, len(present))
	for d := range present {
		names = append(names, d)
	}
	sort.Strings(names)

	var out []types.Conflict
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			a, b := names[i], names[j]
			gap := present[a] - present[b]
			if gap < 0 {
				gap = -gap
			}
			if gap <= ScoreDiscrepancyThreshold {
				continue
			}
			out = append(out, types.Conflict{
				Type:       types.ConflictScoreDiscrepancy,
				Message:    fmt.Sprintf("%s scored %d but %s scored %d (gap %d > %d)", a, present[a], b, present[b], gap, ScoreDiscrepancyThreshold),
				Agents:     []string{a, b},
				Impact:     types.ImpactMedium,
				Resolution: "Review both analyzer reports before trusting the overall score",
			})
		}
	}
	return out
}

func criticalOverlaps(results []types.AnalyzerResult) []types.Conflict {
	var out []types.Conflict
	for _, category := range FlaggedCategories {
		var agents []string
		for _, r := range results {
			if r.Failed() {
				continue
			}
			for _, issue := range r.Report.Issues.Critical {
				if classification.Categorize(issue) == category {
					agents = append(agents, r.Name)
					break
				}
			}
		}
		if len(agents) < 2 {
			continue
		}
		out = append(out, types.Conflict{
			Type:       types.ConflictOverlappingDomain,
			Message:    fmt.Sprintf("%d analyzers report critical %s issues", len(agents), category),
			Agents:     agents,
			Impact:     types.ImpactHigh,
			Resolution: fmt.Sprintf("Resolve the critical %s findings before release", category),
		})
	}
	return out
}
