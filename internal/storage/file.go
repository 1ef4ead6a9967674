package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// FileStore is the durable local fallback: one JSON document per record.
//
//	<dir>/backlog/current.json
//	<dir>/backlog/history/<generation>.json
//	<dir>/progress.json
type FileStore struct {
	dir string
}

// NewFileStore creates the store directory layout under dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "backlog", "history"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Name identifies the store in logs and persistence errors.
func (s *FileStore) Name() string { return "file" }

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

// CurrentPath returns the path of the current backlog document.
func (s *FileStore) CurrentPath() string {
	return filepath.Join(s.dir, "backlog", "current.json")
}

func (s *FileStore) historyDir() string {
	return filepath.Join(s.dir, "backlog", "history")
}

func (s *FileStore) snapshotPath(generation string) (string, error) {
	if generation == "" || strings.ContainsAny(generation, `/\`) || generation == "." || generation == ".." {
		return "", fmt.Errorf("invalid snapshot generation %q", generation)
	}
	return filepath.Join(s.historyDir(), generation+".json"), nil
}

func (s *FileStore) progressPath() string {
	return filepath.Join(s.dir, "progress.json")
}

// LoadCurrent returns the live backlog, or types.ErrNotFound.
func (s *FileStore) LoadCurrent(_ context.Context) (*types.Backlog, error) {
	var b types.Backlog
	if err := ReadJSON(s.CurrentPath(), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// SaveCurrent atomically replaces the live backlog document.
func (s *FileStore) SaveCurrent(_ context.Context, b *types.Backlog) error {
	return WriteJSON(s.CurrentPath(), b)
}

// SaveSnapshot writes an immutable snapshot. Existing snapshots are never overwritten.
func (s *FileStore) SaveSnapshot(_ context.Context, b *types.Backlog) error {
	path, err := s.snapshotPath(b.Generation)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("snapshot %s already exists", b.Generation)
	}
	return WriteJSON(path, b)
}

// LoadSnapshot returns the snapshot with the given generation, or types.ErrNotFound.
func (s *FileStore) LoadSnapshot(_ context.Context, generation string) (*types.Backlog, error) {
	path, err := s.snapshotPath(generation)
	if err != nil {
		return nil, err
	}
	var b types.Backlog
	if err := ReadJSON(path, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListSnapshots returns every snapshot, oldest first.
func (s *FileStore) ListSnapshots(_ context.Context) ([]types.SnapshotInfo, error) {
	entries, err := os.ReadDir(s.historyDir())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	infos := []types.SnapshotInfo{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		var b types.Backlog
		if err := ReadJSON(filepath.Join(s.historyDir(), entry.Name()), &b); err != nil {
			return nil, err
		}
		infos = append(infos, b.Info())
	}
	sort.SliceStable(infos, func(i, j int) bool {
		if !infos[i].UpdatedAt.Equal(infos[j].UpdatedAt) {
			return infos[i].UpdatedAt.Before(infos[j].UpdatedAt)
		}
		return infos[i].Generation < infos[j].Generation
	})
	return infos, nil
}

// SaveProgress writes the progress cache.
func (s *FileStore) SaveProgress(_ context.Context, p *types.PipelineProgress) error {
	return WriteJSON(s.progressPath(), p)
}

// LoadProgress returns the progress cache, or types.ErrNotFound.
func (s *FileStore) LoadProgress(_ context.Context) (*types.PipelineProgress, error) {
	var p types.PipelineProgress
	if err := ReadJSON(s.progressPath(), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// WriteJSON writes v as indented JSON via a temp file and rename, so readers
// never observe a partial document.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadJSON decodes the document at path into v. A missing file yields an
// error wrapping types.ErrNotFound.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", filepath.Base(path), types.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
