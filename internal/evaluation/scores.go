package evaluation

import (
	"math"
	"sort"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// Scoring domains. Analyzers report under one of these names via their
// configured domain; unknown domains are recorded but carry no weight.
const (
	DomainArchitecture  = "architecture"
	DomainCodeQuality   = "codeQuality"
	DomainDocumentation = "documentation"
	DomainSecurity      = "security"
	DomainTesting       = "testing"
	DomainPerformance   = "performance"
	DomainDependencies  = "dependencies"
	DomainAccessibility = "accessibility"
	DomainUXDesign      = "uxDesign"
)

// BaseWeights apply when only the minimal analyzer set produced scores.
var BaseWeights = map[string]float64{
	DomainArchitecture:  0.40,
	DomainCodeQuality:   0.35,
	DomainDocumentation: 0.25,
}

// ExtendedWeights apply when any optional analyzer produced a non-zero score.
// Weights of absent domains are redistributed over the present ones.
var ExtendedWeights = map[string]float64{
	DomainArchitecture:  0.20,
	DomainCodeQuality:   0.20,
	DomainDocumentation: 0.10,
	DomainSecurity:      0.15,
	DomainTesting:       0.10,
	DomainPerformance:   0.08,
	DomainDependencies:  0.07,
	DomainAccessibility: 0.05,
	DomainUXDesign:      0.05,
}

// domainScores collects the score of every successful analyzer per domain.
// Several analyzers sharing a domain are averaged.
func domainScores(results []types.AnalyzerResult) map[string]int {
	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, r := range results {
		if r.Failed() {
			continue
		}
		d := r.DomainName()
		sums[d] += r.Report.Score
		counts[d]++
	}
	out := make(map[string]int, len(sums))
	for d, sum := range sums {
		out[d] = int(math.Round(float64(sum) / float64(counts[d])))
	}
	return out
}

func isOptional(domain string) bool {
	_, extended := ExtendedWeights[domain]
	_, base := BaseWeights[domain]
	return extended && !base
}

// Aggregate computes the ScoreBoard for a set of analyzer results.
//
// Base mode: every base domain is present; a missing or failed analyzer
// scores 0. Extended mode (any optional domain scored above 0): absent
// domains are nil and do not contribute, so a failed analyzer cannot drag
// the overall score down.
func Aggregate(results []types.AnalyzerResult) types.ScoreBoard {
	scores := domainScores(results)

	extended := false
	for d, s := range scores {
		if isOptional(d) && s > 0 {
			extended = true
			break
		}
	}

	board := types.ScoreBoard{Domains: make(map[string]*int)}
	if !extended {
		board.Mode = types.ScoreModeBase
		for d := range BaseWeights {
			v := scores[d]
			board.Domains[d] = &v
		}
		board.Overall = weightedSum(board.Domains, BaseWeights)
	} else {
		board.Mode = types.ScoreModeExtended
		for d := range ExtendedWeights {
			if v, ok := scores[d]; ok {
				v := v
				board.Domains[d] = &v
			} else {
				board.Domains[d] = nil
			}
		}
		board.Overall = weightedSum(board.Domains, ExtendedWeights)
	}

	// Scores from domains outside the weight tables are kept for visibility.
	for d, s := range scores {
		if _, known := board.Domains[d]; !known {
			v := s
			board.Domains[d] = &v
		}
	}
	return board
}

// weightedSum returns the rounded weighted average of the present domains,
// renormalizing weights over them.
func weightedSum(domains map[string]*int, weights map[string]float64) int {
	names := make([]string, 0, len(weights))
	for d := range weights {
		names = append(names, d)
	}
	sort.Strings(names)

	var total, weight float64
	for _, d := range names {
		v := domains[d]
		if v == nil {
			continue
		}
		total += float64(*v) * weights[d]
		weight += weights[d]
	}
	if weight == 0 {
		return 0
	}
	return int(math.Round(total / weight))
}
