package events

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Sink delivers feedback events to the requester.
type Sink interface {
	Emit(ctx context.Context, event *FeedbackEvent) error
}

// FileSink appends events as JSON lines. Each Emit writes one complete line.
type FileSink struct {
	path string
	mu   sync.Mutex
}

// NewFileSink creates a sink writing to path, creating its directory.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create event directory: %w", err)
	}
	return &FileSink{path: path}, nil
}

// Path returns the events file.
func (s *FileSink) Path() string {
	return s.path
}

// Emit appends the event.
func (s *FileSink) Emit(ctx context.Context, event *FeedbackEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write event: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync event: %w", err)
	}
	return f.Close()
}

// ReadEvents returns every event in a JSONL file, oldest first. A missing
// file yields no events. A torn final line from an interrupted write is skipped.
func ReadEvents(path string) ([]*FeedbackEvent, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var out []*FeedbackEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	var pending error
	for scanner.Scan() {
		lineNo++
		if pending != nil {
			return nil, pending
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e FeedbackEvent
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			pending = fmt.Errorf("%s:%d: %w", path, lineNo, err)
			continue
		}
		out = append(out, &e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LogSink writes events to a structured logger.
type LogSink struct {
	Logger *zap.Logger
}

// Emit logs the event at info level.
func (s *LogSink) Emit(_ context.Context, event *FeedbackEvent) error {
	if s.Logger == nil {
		return nil
	}
	s.Logger.Info("feedback event",
		zap.String("event", string(event.Event)),
		zap.String("run_id", event.RunID),
		zap.String("verdict", string(event.Decision.Verdict)),
		zap.Int("overall", event.Scores.Overall),
		zap.Int("critical", event.IssueCounts.Critical),
		zap.Int("high", event.IssueCounts.High),
		zap.Int("backlog_tasks", event.UpdatedBacklog.Summary.Total),
		zap.Bool("approved", event.Approved),
		zap.String("report", event.ReportPath))
	return nil
}

// Multi emits to every sink and joins their errors.
type Multi []Sink

// Emit implements Sink.
func (m Multi) Emit(ctx context.Context, event *FeedbackEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
