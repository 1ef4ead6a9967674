package analyzers

import (
	"context"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/health"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// builtin runs a health monitor under a configured name and domain.
type builtin struct {
	name    string
	domain  string
	monitor health.HealthMonitor
}

func newBuiltin(root string, s Spec, lister health.TrackedFileLister) (*builtin, error) {
	var (
		m   health.HealthMonitor
		err error
	)
	switch s.Builtin {
	case "file-size":
		m, err = health.NewFileSizeMonitor(root)
	case "cruft":
		m, err = health.NewCruftDetector(root)
	case "gitignore":
		m, err = health.NewGitignoreDetector(root, lister)
	case "docs":
		m, err = health.NewDocsMonitor(root)
	}
	if err != nil {
		return nil, err
	}

	b := &builtin{name: s.Name, domain: s.Domain, monitor: m}
	if b.domain == "" {
		b.domain = m.Domain()
	}
	return b, nil
}

func (b *builtin) Name() string   { return b.name }
func (b *builtin) Domain() string { return b.domain }

func (b *builtin) Analyze(ctx context.Context) (*types.AnalyzerReport, error) {
	return b.monitor.Analyze(ctx)
}
