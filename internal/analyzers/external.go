package analyzers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// maxStderr bounds how much analyzer stderr is echoed into an error.
const maxStderr = 512

// waitDelay bounds how long a killed analyzer's children may hold its output open.
const waitDelay = 2 * time.Second

// Command runs an external analyzer program. Its stdout must be a single
// Analyzer Report JSON document; stderr is only used for error messages.
type Command struct {
	AnalyzerName   string
	AnalyzerDomain string
	Args           []string
	Dir            string
	// Timeout bounds one run. Zero leaves the caller's deadline in charge.
	Timeout time.Duration
}

func (c *Command) Name() string   { return c.AnalyzerName }
func (c *Command) Domain() string { return c.AnalyzerDomain }

// Analyze runs the program and decodes its report.
func (c *Command) Analyze(ctx context.Context) (*types.AnalyzerReport, error) {
	if len(c.Args) == 0 {
		return nil, fmt.Errorf("no command configured")
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("command %q timed out: %w", strings.Join(c.Args, " "), ctx.Err())
		}
		return nil, fmt.Errorf("command %q failed: %w (stderr: %s)", strings.Join(c.Args, " "), err, truncate(stderr.String(), maxStderr))
	}
	return decodeReport(stdout.Bytes())
}

// ReportFile reads a report another tool already produced.
type ReportFile struct {
	AnalyzerName   string
	AnalyzerDomain string
	Path           string
}

func (r *ReportFile) Name() string   { return r.AnalyzerName }
func (r *ReportFile) Domain() string { return r.AnalyzerDomain }

// Analyze reads and decodes the report file.
func (r *ReportFile) Analyze(ctx context.Context) (*types.AnalyzerReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return decodeReport(data)
}

// decodeReport parses and validates a report document. Unknown fields are
// tolerated; a missing issues object decodes as an empty ConcernSet.
func decodeReport(data []byte) (*types.AnalyzerReport, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("analyzer produced no output")
	}
	var report types.AnalyzerReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	if err := report.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report: %w", err)
	}
	return &report, nil
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
