// Package analyzers adapts external analyzer collaborators and the built-in
// health monitors to one interface, and runs them concurrently.
package analyzers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/health"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// Analyzer produces one Analyzer Report for the target project.
type Analyzer interface {
	Name() string
	Domain() string
	Analyze(ctx context.Context) (*types.AnalyzerReport, error)
}

// Kind selects how an analyzer spec is executed.
type Kind string

const (
	KindBuiltin Kind = "builtin"
	KindCommand Kind = "command"
	KindReport  Kind = "report"
)

// Spec describes one configured analyzer.
type Spec struct {
	Name   string `yaml:"name"`
	Domain string `yaml:"domain,omitempty"`
	// Builtin names a built-in monitor (file-size, cruft, gitignore, docs).
	Builtin string `yaml:"builtin,omitempty"`
	// Command runs a program whose stdout is a report document.
	Command []string `yaml:"command,omitempty"`
	// Report reads a pre-produced report document, relative to the project root.
	Report  string        `yaml:"report,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Kind reports which adapter the spec selects.
func (s Spec) Kind() Kind {
	switch {
	case s.Builtin != "":
		return KindBuiltin
	case len(s.Command) > 0:
		return KindCommand
	default:
		return KindReport
	}
}

// Validate checks that exactly one source is configured.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("analyzer name is required")
	}
	sources := 0
	if s.Builtin != "" {
		sources++
	}
	if len(s.Command) > 0 {
		sources++
	}
	if s.Report != "" {
		sources++
	}
	if sources != 1 {
		return fmt.Errorf("analyzer %s: exactly one of builtin, command or report must be set", s.Name)
	}
	if s.Builtin != "" && !isBuiltin(s.Builtin) {
		return fmt.Errorf("analyzer %s: unknown builtin %q (valid: %s)", s.Name, s.Builtin, strings.Join(BuiltinNames, ", "))
	}
	if len(s.Command) > 0 && strings.TrimSpace(s.Command[0]) == "" {
		return fmt.Errorf("analyzer %s: command is empty", s.Name)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("analyzer %s: timeout must be non-negative", s.Name)
	}
	return nil
}

// BuiltinNames lists the built-in monitors in their default order.
var BuiltinNames = []string{"file-size", "cruft", "gitignore", "docs"}

func isBuiltin(name string) bool {
	for _, n := range BuiltinNames {
		if n == name {
			return true
		}
	}
	return false
}

// DefaultSpecs configures every built-in monitor under its own name.
func DefaultSpecs() []Spec {
	specs := make([]Spec, len(BuiltinNames))
	for i, name := range BuiltinNames {
		specs[i] = Spec{Name: name, Builtin: name}
	}
	return specs
}

// FromSpecs builds the analyzers for a project root. lister is needed only
// by the gitignore monitor; a nil lister makes that analyzer fail at run time.
func FromSpecs(root string, specs []Spec, lister health.TrackedFileLister) ([]Analyzer, error) {
	seen := make(map[string]bool, len(specs))
	out := make([]Analyzer, 0, len(specs))
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate analyzer name %q", s.Name)
		}
		seen[s.Name] = true

		var (
			a   Analyzer
			err error
		)
		switch s.Kind() {
		case KindBuiltin:
			a, err = newBuiltin(root, s, lister)
		case KindCommand:
			a = &Command{AnalyzerName: s.Name, AnalyzerDomain: s.Domain, Args: s.Command, Dir: root, Timeout: s.Timeout}
		case KindReport:
			a = &ReportFile{AnalyzerName: s.Name, AnalyzerDomain: s.Domain, Path: resolve(root, s.Report)}
		}
		if err != nil {
			return nil, fmt.Errorf("analyzer %s: %w", s.Name, err)
		}
		out = append(out, a)
	}
	return out, nil
}
