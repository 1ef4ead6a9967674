package storage

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/storage/sqlite"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// BacklogStore persists backlogs, snapshots and the progress cache.
// Load methods return an error wrapping types.ErrNotFound when nothing is stored.
type BacklogStore interface {
	Name() string

	// Current backlog
	LoadCurrent(ctx context.Context) (*types.Backlog, error)
	SaveCurrent(ctx context.Context, b *types.Backlog) error

	// Immutable snapshots keyed by generation
	SaveSnapshot(ctx context.Context, b *types.Backlog) error
	LoadSnapshot(ctx context.Context, generation string) (*types.Backlog, error)
	ListSnapshots(ctx context.Context) ([]types.SnapshotInfo, error)

	// Progress cache
	SaveProgress(ctx context.Context, p *types.PipelineProgress) error
	LoadProgress(ctx context.Context) (*types.PipelineProgress, error)

	// Lifecycle
	Close() error
}

// Config holds storage configuration
type Config struct {
	// StateDir holds the database, the fallback files and the run lock.
	// Default: ".factory"
	StateDir string

	// DisablePrimary skips the sqlite store and runs on the file store only.
	DisablePrimary bool

	Logger *zap.Logger
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		StateDir: ".factory",
	}
}

// DatabasePath returns the sqlite file inside the state dir.
func DatabasePath(stateDir string) string {
	return filepath.Join(stateDir, "store.db")
}

// Open builds the dual store for a state dir. A primary store that cannot be
// opened is logged and skipped; the file store alone still satisfies reads
// and writes.
func Open(ctx context.Context, cfg *Config) (*DualStore, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	stateDir := cfg.StateDir
	if stateDir == "" {
		stateDir = ".factory"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fallback, err := NewFileStore(stateDir)
	if err != nil {
		return nil, err
	}

	var primary BacklogStore
	if !cfg.DisablePrimary {
		db, err := sqlite.New(DatabasePath(stateDir))
		if err != nil {
			logger.Warn("primary store unavailable, using file store only", zap.Error(err))
		} else {
			primary = db
		}
	}

	return NewDualStore(primary, fallback, logger), nil
}
