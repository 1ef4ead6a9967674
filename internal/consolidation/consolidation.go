// Package consolidation merges the findings of several analyzer reports into
// one deduplicated ConcernSet.
//
// Deduplication is exact on a semantic key: the trimmed, case-folded message,
// or the type when the message is blank. It is applied per severity bucket, so
// the same finding reported as critical by one analyzer and low by another
// survives in both buckets. The first occurrence wins and insertion order is
// preserved, which keeps output stable for identical input.
//
// Example usage:
//
//	res := consolidation.Consolidate(results)
//	log.Printf("kept %d of %d issues (%d duplicates)",
//	    res.Stats.Output, res.Stats.Input, res.Stats.Duplicates)
package consolidation

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// Stats reports how much consolidation removed.
type Stats struct {
	// Input is the total number of issues across every analyzer report
	Input int `json:"input"`

	// Output is the number of issues in the consolidated set
	Output int `json:"output"`

	// Duplicates is Input - Output
	Duplicates int `json:"duplicates"`

	// FailedAnalyzers lists analyzers that contributed nothing because they failed
	FailedAnalyzers []string `json:"failedAnalyzers,omitempty"`
}

// Result is the output of Consolidate.
type Result struct {
	Concerns types.ConcernSet `json:"concerns"`
	Stats    Stats            `json:"stats"`
}

// Consolidate merges the reports in the given order. Failed analyzers are
// treated as an empty ConcernSet. Each kept issue carries the name of the
// analyzer that reported it first in Source, unless the analyzer already set one.
func Consolidate(results []types.AnalyzerResult) Result {
	var res Result
	fold := cases.Fold()
	seen := make(map[types.Bucket]map[string]struct{}, len(types.Buckets))
	for _, b := range types.Buckets {
		seen[b] = make(map[string]struct{})
	}

	for _, r := range results {
		if r.Failed() {
			res.Stats.FailedAnalyzers = append(res.Stats.FailedAnalyzers, r.Name)
			continue
		}
		for _, bucket := range types.Buckets {
			for _, issue := range r.Report.Issues.Bucket(bucket) {
				res.Stats.Input++
				key := keyWith(fold, issue)
				if _, dup := seen[bucket][key]; dup {
					res.Stats.Duplicates++
					continue
				}
				seen[bucket][key] = struct{}{}
				if issue.Source == "" {
					issue.Source = r.Name
				}
				res.Concerns.Append(bucket, issue)
			}
		}
	}

	res.Stats.Output = res.Concerns.Total()
	return res
}

// Key returns the semantic dedup key of an issue: the case-folded message
// with whitespace runs collapsed, or the type when the message is blank.
func Key(issue types.Issue) string {
	return keyWith(cases.Fold(), issue)
}

func keyWith(fold cases.Caser, issue types.Issue) string {
	msg := strings.Join(strings.Fields(issue.Message), " ")
	if msg == "" {
		return fold.String(strings.Join(strings.Fields(issue.Type), " "))
	}
	return fold.String(msg)
}

// FromReports converts a name-keyed report mapping into an ordered result
// list. Map iteration order is random, so names are sorted to keep
// consolidation deterministic. A nil report marks a failed analyzer.
func FromReports(reports map[string]*types.AnalyzerReport) []types.AnalyzerResult {
	names := make([]string, 0, len(reports))
	for name := range reports {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]types.AnalyzerResult, 0, len(names))
	for _, name := range names {
		r := types.AnalyzerResult{Name: name, Report: reports[name]}
		if r.Report == nil {
			r.Err = "no report"
		}
		out = append(out, r)
	}
	return out
}
