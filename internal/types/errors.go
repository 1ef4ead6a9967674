package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrContractViolation matches any *ContractViolation via errors.Is.
var ErrContractViolation = errors.New("contract violation")

// ContractViolation is returned when a backlog or task fails structural
// validation. It is fatal: callers must refuse to persist the data.
type ContractViolation struct {
	Subject string
	Errors  []error
}

// NewContractViolation wraps one or more failed checks.
func NewContractViolation(subject string, errs ...error) *ContractViolation {
	return &ContractViolation{Subject: subject, Errors: errs}
}

func (e *ContractViolation) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("contract violation in %s: %s", e.Subject, strings.Join(msgs, "; "))
}

// Is makes errors.Is(err, ErrContractViolation) succeed.
func (e *ContractViolation) Is(target error) bool {
	return target == ErrContractViolation
}

// Unwrap exposes the individual failed checks.
func (e *ContractViolation) Unwrap() []error {
	return e.Errors
}

// AnalyzerFailure records an analyzer that produced no report. It is
// tolerated: the analyzer counts as an empty ConcernSet with score 0.
type AnalyzerFailure struct {
	Analyzer string
	Err      error
}

func (e *AnalyzerFailure) Error() string {
	return fmt.Sprintf("analyzer %s failed: %v", e.Analyzer, e.Err)
}

func (e *AnalyzerFailure) Unwrap() error { return e.Err }

// FixApplicationError is raised when a fix fails its preconditions or the
// mutation itself fails. The task moves to requires-manual-review.
type FixApplicationError struct {
	TaskID  string
	FixKind FixKind
	Err     error
}

func (e *FixApplicationError) Error() string {
	return fmt.Sprintf("task %s: %s fix failed: %v", e.TaskID, e.FixKind, e.Err)
}

func (e *FixApplicationError) Unwrap() error { return e.Err }

// ValidationError is raised when the post-mutation structural check fails.
// The mutation is not reverted.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation of %s failed: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistenceError collects per-sink write failures. It is only returned
// when no sink accepted the write.
type PersistenceError struct {
	Op     string
	Failed map[string]error
}

func (e *PersistenceError) Error() string {
	sinks := make([]string, 0, len(e.Failed))
	for sink := range e.Failed {
		sinks = append(sinks, sink)
	}
	sort.Strings(sinks)
	parts := make([]string, 0, len(sinks))
	for _, sink := range sinks {
		parts = append(parts, fmt.Sprintf("%s: %v", sink, e.Failed[sink]))
	}
	return fmt.Sprintf("%s failed on every sink (%s)", e.Op, strings.Join(parts, "; "))
}

func (e *PersistenceError) Unwrap() []error {
	out := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		out = append(out, err)
	}
	return out
}
