package gates

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// AutoApproveEnv, when set to "true", approves without prompting.
const AutoApproveEnv = "FACTORY_AUTO_APPROVE"

// ApprovalMethod records how an approval decision was reached.
type ApprovalMethod string

const (
	ApprovalSkipped ApprovalMethod = "skipped"
	ApprovalAuto    ApprovalMethod = "auto"
	ApprovalUser    ApprovalMethod = "user"
)

// ApprovalResult is persisted as the approval phase artifact.
type ApprovalResult struct {
	Approved  bool           `json:"approved"`
	Method    ApprovalMethod `json:"method"`
	Output    string         `json:"output"`
	Verdict   types.Verdict  `json:"verdict"`
	DecidedAt time.Time      `json:"decidedAt"`
}

// Prompter reads one line of user input.
type Prompter interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// ErrApprovalInterrupted is returned when the user aborts the prompt.
var ErrApprovalInterrupted = errors.New("approval interrupted")

// ApprovalGate presents the decision report and remediation outcome to a
// human before the run is signed off.
type ApprovalGate struct {
	report       *types.DecisionReport
	summary      *types.Summary
	prompter     Prompter
	out          io.Writer
	skipApproval bool
	now          func() time.Time
}

// ApprovalConfig holds configuration for the approval gate
type ApprovalConfig struct {
	Report       *types.DecisionReport
	Summary      *types.Summary // Optional: backlog summary after implementation
	Prompter     Prompter       // Optional: defaults to a readline prompter on first use
	Out          io.Writer      // Optional: defaults to stdout
	SkipApproval bool
	Now          func() time.Time // Optional: defaults to the current UTC time
}

// NewApprovalGate creates a new approval gate
func NewApprovalGate(cfg *ApprovalConfig) (*ApprovalGate, error) {
	if cfg.Report == nil {
		return nil, fmt.Errorf("decision report is required")
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &ApprovalGate{
		report:       cfg.Report,
		summary:      cfg.Summary,
		prompter:     cfg.Prompter,
		out:          out,
		skipApproval: cfg.SkipApproval,
		now:          now,
	}, nil
}

// Run presents the approval prompt and returns the result
func (g *ApprovalGate) Run() (*ApprovalResult, error) {
	result := &ApprovalResult{Verdict: g.report.Decision.Verdict}
	defer func() { result.DecidedAt = g.now() }()

	if g.skipApproval {
		result.Approved = true
		result.Method = ApprovalSkipped
		result.Output = "Approval skipped by configuration"
		return result, nil
	}
	if os.Getenv(AutoApproveEnv) == "true" {
		result.Approved = true
		result.Method = ApprovalAuto
		result.Output = "Auto-approved via " + AutoApproveEnv + " environment variable"
		return result, nil
	}

	fmt.Fprintln(g.out, "\n"+strings.Repeat("=", 80))
	fmt.Fprintln(g.out, g.buildSummary())
	fmt.Fprintln(g.out, strings.Repeat("=", 80))

	if g.prompter == nil {
		p, err := NewReadlinePrompter()
		if err != nil {
			return nil, fmt.Errorf("failed to create prompt: %w", err)
		}
		g.prompter = p
	}
	defer func() { _ = g.prompter.Close() }()

	result.Method = ApprovalUser
	for {
		answer, err := g.prompter.Prompt("Approve this run? [y/n]: ")
		if err != nil {
			return nil, fmt.Errorf("failed to get user input: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			result.Approved = true
			result.Output = "Approved by user"
			return result, nil
		case "n", "no":
			result.Approved = false
			result.Output = "Rejected by user"
			return result, nil
		default:
			fmt.Fprintf(g.out, "Invalid input '%s'. Please enter y or n.\n", strings.TrimSpace(answer))
		}
	}
}

// buildSummary renders the decision and backlog state for review
func (g *ApprovalGate) buildSummary() string {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()

	d := g.report.Decision
	verdict := string(d.Verdict)
	switch d.Verdict {
	case types.VerdictGo:
		verdict = green(verdict)
	case types.VerdictGoWithConcerns:
		verdict = yellow(verdict)
	case types.VerdictNoGo:
		verdict = red(verdict)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Verdict: %s (confidence %s)\n", verdict, d.Confidence))
	sb.WriteString(fmt.Sprintf("Justification: %s\n", d.Justification))
	sb.WriteString(fmt.Sprintf("Overall score: %d (%s mode)\n", g.report.Scores.Overall, g.report.Scores.Mode))

	counts := g.report.Concerns.Counts()
	sb.WriteString(fmt.Sprintf("Concerns: %d critical, %d high, %d medium, %d low\n",
		counts.Critical, counts.High, counts.Medium, counts.Low))
	if len(g.report.Conflicts) > 0 {
		sb.WriteString(fmt.Sprintf("Conflicts (%d):\n", len(g.report.Conflicts)))
		for _, c := range g.report.Conflicts {
			sb.WriteString(fmt.Sprintf("  [%s] %s\n", c.Impact, c.Message))
		}
	}

	if g.summary != nil {
		sb.WriteString(fmt.Sprintf("Backlog: %d task(s)", g.summary.Total))
		for _, st := range types.TaskStatuses {
			sb.WriteString(fmt.Sprintf(", %d %s", g.summary.CountsByStatus[st], st))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// readlinePrompter reads answers from the terminal.
type readlinePrompter struct {
	rl *readline.Instance
}

// NewReadlinePrompter creates a terminal prompter.
func NewReadlinePrompter() (Prompter, error) {
	rl, err := readline.NewEx(&readline.Config{
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &readlinePrompter{rl: rl}, nil
}

func (p *readlinePrompter) Prompt(prompt string) (string, error) {
	p.rl.SetPrompt(prompt)
	line, err := p.rl.Readline()
	if err != nil {
		if err == readline.ErrInterrupt || err == io.EOF {
			return "", ErrApprovalInterrupted
		}
		return "", err
	}
	return line, nil
}

func (p *readlinePrompter) Close() error {
	return p.rl.Close()
}
