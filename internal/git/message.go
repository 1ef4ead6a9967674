package git

import (
	"fmt"
	"strings"
)

// maxSubjectLength keeps the subject line readable in `git log --oneline`.
const maxSubjectLength = 72

// TaskCommitMessage builds the commit message for a completed remediation
// task. The subject carries the task id and title; the body lists the
// touched path and fix kind.
func TaskCommitMessage(taskID, title, fixKind, targetPath string) string {
	subject := fmt.Sprintf("fix(%s): %s", taskID, strings.Join(strings.Fields(title), " "))
	if len(subject) > maxSubjectLength {
		subject = subject[:maxSubjectLength-3] + "..."
	}

	var sb strings.Builder
	sb.WriteString(subject)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Task: %s\n", taskID))
	sb.WriteString(fmt.Sprintf("Title: %s\n", title))
	if fixKind != "" {
		sb.WriteString(fmt.Sprintf("Fix: %s\n", fixKind))
	}
	if targetPath != "" {
		sb.WriteString(fmt.Sprintf("Path: %s\n", targetPath))
	}
	return sb.String()
}
