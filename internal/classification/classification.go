// Package classification holds the versioned lookup tables that turn an
// analyzer finding into task attributes: category, effort, task type and
// acceptance criteria.
//
// Analyzers are expected to set Issue.Category. When they do not, the
// category is derived from an ordered keyword fallback table matched against
// the issue type first, then the message. The fallback is a table, not ad hoc
// string checks, so its behavior is enumerable and tested.
package classification

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// TableVersion identifies the revision of the tables in this file. Bump it
// whenever a row changes so persisted tasks can be traced to the rules that
// produced them.
const TableVersion = "v1.2.0"

func init() {
	if !semver.IsValid(TableVersion) {
		panic(fmt.Sprintf("classification: invalid table version %q", TableVersion))
	}
}

type keywordRule struct {
	keywords []string
	category types.Category
}

// categoryFallback is consulted in order; the first row with a matching
// keyword wins.
var categoryFallback = []keywordRule{
	{[]string{"security", "secret", "credential", "password", "token", "injection", "xss", "csrf", "vulnerab", "cve"}, types.CategorySecurity},
	{[]string{"performance", "slow", "latency", "memory leak", "n+1", "bundle size", "cache"}, types.CategoryPerformance},
	{[]string{"accessibility", "a11y", "aria", "contrast", "alt text", "screen reader"}, types.CategoryAccessibility},
	{[]string{"dependency", "dependencies", "outdated", "deprecated package", "go.mod", "package.json"}, types.CategoryDependency},
	{[]string{"test", "coverage", "assertion", "flaky"}, types.CategoryTesting},
	{[]string{"documentation", "docs", "readme", "comment", "docstring", "changelog"}, types.CategoryDocumentation},
	{[]string{"architecture", "coupling", "circular", "layer", "module boundary", "god object"}, types.CategoryArchitecture},
	{[]string{"code quality", "code-quality", "complexity", "duplicate", "lint", "unused", "naming", "style", "smell"}, types.CategoryCodeQuality},
}

// Categorize returns the issue's category, deriving it from the fallback
// table when the analyzer did not set a valid one.
func Categorize(issue types.Issue) types.Category {
	if issue.Category.IsValid() {
		return issue.Category
	}
	if c, ok := matchCategory(issue.Type); ok {
		return c
	}
	if c, ok := matchCategory(issue.Message); ok {
		return c
	}
	return types.CategoryOther
}

func matchCategory(text string) (types.Category, bool) {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return "", false
	}
	for _, rule := range categoryFallback {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category, true
			}
		}
	}
	return "", false
}

// IsSecurity reports whether the issue belongs to the security category.
func IsSecurity(issue types.Issue) bool {
	return Categorize(issue) == types.CategorySecurity
}

var effortByCategory = map[types.Category]types.Effort{
	types.CategorySecurity:      types.EffortM,
	types.CategoryPerformance:   types.EffortL,
	types.CategoryArchitecture:  types.EffortL,
	types.CategoryCodeQuality:   types.EffortS,
	types.CategoryDocumentation: types.EffortS,
	types.CategoryTesting:       types.EffortM,
	types.CategoryDependency:    types.EffortS,
	types.CategoryAccessibility: types.EffortS,
}

type effortRule struct {
	keywords []string
	effort   types.Effort
}

// effortFallback preserves the keyword-presence heuristic for issues that
// carry no usable category. Order matters: the largest effort is checked first.
var effortFallback = []effortRule{
	{[]string{"rewrite", "migrate", "migration"}, types.EffortXL},
	{[]string{"refactor", "architecture", "restructure"}, types.EffortL},
	{[]string{"test"}, types.EffortM},
	{[]string{"docs", "readme"}, types.EffortS},
	{[]string{"typo", "comment", "rename", "format"}, types.EffortXS},
}

// DefaultEffort is used when neither table yields an estimate.
const DefaultEffort = types.EffortM

// EstimateEffort returns the effort for an issue from the category table,
// falling back to keyword matching on type and message.
func EstimateEffort(issue types.Issue) types.Effort {
	if e, ok := effortByCategory[Categorize(issue)]; ok {
		return e
	}
	text := strings.ToLower(issue.Type + " " + issue.Message)
	for _, rule := range effortFallback {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.effort
			}
		}
	}
	return DefaultEffort
}

var taskTypeByCategory = map[types.Category]types.TaskType{
	types.CategorySecurity:      types.TaskSecurityFix,
	types.CategoryPerformance:   types.TaskPerformance,
	types.CategoryArchitecture:  types.TaskRefactor,
	types.CategoryCodeQuality:   types.TaskCleanup,
	types.CategoryDocumentation: types.TaskDocumentation,
	types.CategoryTesting:       types.TaskTest,
	types.CategoryDependency:    types.TaskDependencyUpdate,
	types.CategoryAccessibility: types.TaskAccessibility,
	types.CategoryOther:         types.TaskChore,
}

// TaskTypeFor returns the task type for a category.
func TaskTypeFor(c types.Category) types.TaskType {
	if tt, ok := taskTypeByCategory[c]; ok {
		return tt
	}
	return types.TaskChore
}

// acceptanceTemplates are rendered with the task title in place of %s.
var acceptanceTemplates = map[types.TaskType][]string{
	types.TaskSecurityFix: {
		"%s is resolved",
		"No secrets or credentials remain in source",
		"Security analyzer no longer reports the finding",
	},
	types.TaskPerformance: {
		"%s is resolved",
		"No measurable regression in the affected path",
	},
	types.TaskRefactor: {
		"%s is resolved",
		"Public behavior is unchanged",
		"Build and tests pass",
	},
	types.TaskCleanup: {
		"%s is resolved",
		"Build and tests pass",
	},
	types.TaskDocumentation: {
		"%s is resolved",
		"Documentation matches current behavior",
	},
	types.TaskTest: {
		"%s is resolved",
		"New or updated tests pass",
	},
	types.TaskDependencyUpdate: {
		"%s is resolved",
		"Dependency manifest parses and resolves",
	},
	types.TaskAccessibility: {
		"%s is resolved",
		"Accessibility analyzer no longer reports the finding",
	},
	types.TaskChore: {
		"%s is resolved",
	},
}

// AcceptanceCriteria renders the criteria template for a task type.
func AcceptanceCriteria(tt types.TaskType, title string) []string {
	tmpl, ok := acceptanceTemplates[tt]
	if !ok {
		tmpl = acceptanceTemplates[types.TaskChore]
	}
	out := make([]string, len(tmpl))
	for i, line := range tmpl {
		if strings.Contains(line, "%s") {
			out[i] = fmt.Sprintf(line, title)
		} else {
			out[i] = line
		}
	}
	return out
}
