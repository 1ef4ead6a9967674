package classification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/mod/semver"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

func TestTableVersionIsSemver(t *testing.T) {
	assert.True(t, semver.IsValid(TableVersion))
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name  string
		issue types.Issue
		want  types.Category
	}{
		{
			name:  "explicit category wins over keywords",
			issue: types.Issue{Type: "Security", Category: types.CategoryDocumentation},
			want:  types.CategoryDocumentation,
		},
		{
			name:  "type keyword",
			issue: types.Issue{Type: "Security", Message: "hardcoded secret"},
			want:  types.CategorySecurity,
		},
		{
			name:  "type checked before message",
			issue: types.Issue{Type: "readme", Message: "password in docs"},
			want:  types.CategoryDocumentation,
		},
		{
			name:  "message fallback when type is unknown",
			issue: types.Issue{Type: "Other", Message: "Cyclomatic complexity too high"},
			want:  types.CategoryCodeQuality,
		},
		{
			name:  "case insensitive",
			issue: types.Issue{Type: "PERFORMANCE"},
			want:  types.CategoryPerformance,
		},
		{
			name:  "invalid explicit category falls back",
			issue: types.Issue{Type: "a11y", Category: "ux"},
			want:  types.CategoryAccessibility,
		},
		{
			name:  "nothing matches",
			issue: types.Issue{Type: "Other"},
			want:  types.CategoryOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.issue))
		})
	}
}

func TestIsSecurity(t *testing.T) {
	assert.True(t, IsSecurity(types.Issue{Type: "Security", Message: "hardcoded secret"}))
	assert.True(t, IsSecurity(types.Issue{Category: types.CategorySecurity}))
	assert.False(t, IsSecurity(types.Issue{Type: "Other"}))
}

func TestEstimateEffort(t *testing.T) {
	tests := []struct {
		name  string
		issue types.Issue
		want  types.Effort
	}{
		{"security category", types.Issue{Category: types.CategorySecurity}, types.EffortM},
		{"architecture category", types.Issue{Category: types.CategoryArchitecture}, types.EffortL},
		{"documentation category", types.Issue{Category: types.CategoryDocumentation}, types.EffortS},
		{"keyword rewrite", types.Issue{Category: types.CategoryOther, Message: "rewrite the module"}, types.EffortXL},
		{"keyword typo", types.Issue{Type: "Other", Message: "fix typo in label"}, types.EffortXS},
		{"default", types.Issue{Type: "Other", Message: "something odd"}, DefaultEffort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateEffort(tt.issue))
		})
	}
}

func TestTaskTypeFor(t *testing.T) {
	assert.Equal(t, types.TaskSecurityFix, TaskTypeFor(types.CategorySecurity))
	assert.Equal(t, types.TaskRefactor, TaskTypeFor(types.CategoryArchitecture))
	assert.Equal(t, types.TaskChore, TaskTypeFor("bogus"))
}

func TestAcceptanceCriteria(t *testing.T) {
	got := AcceptanceCriteria(types.TaskCleanup, "Remove unused imports")
	assert.Equal(t, []string{"Remove unused imports is resolved", "Build and tests pass"}, got)

	fallback := AcceptanceCriteria("unknown", "X")
	assert.Equal(t, []string{"X is resolved"}, fallback)
}
