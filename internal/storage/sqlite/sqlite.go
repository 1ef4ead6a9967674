package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

const (
	kindCurrent  = "current"
	kindSnapshot = "snapshot"

	// Fixed-width so updated_at sorts chronologically as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// SQLiteStorage is the primary backlog store.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// New creates a new SQLite storage backend
func New(path string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: path}, nil
}

// Name identifies the store in logs and persistence errors.
func (s *SQLiteStorage) Name() string { return "sqlite" }

// Path returns the database file path.
func (s *SQLiteStorage) Path() string { return s.path }

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func snapshotKey(generation string) string {
	return kindSnapshot + ":" + generation
}

// LoadCurrent returns the live backlog, or types.ErrNotFound.
func (s *SQLiteStorage) LoadCurrent(ctx context.Context) (*types.Backlog, error) {
	return s.loadBacklog(ctx, kindCurrent)
}

// SaveCurrent replaces the live backlog in one transaction.
func (s *SQLiteStorage) SaveCurrent(ctx context.Context, b *types.Backlog) error {
	return s.saveBacklog(ctx, kindCurrent, kindCurrent, b)
}

// SaveSnapshot stores an immutable snapshot keyed by b.Generation.
// Saving the same generation twice is an error.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, b *types.Backlog) error {
	if b.Generation == "" {
		return fmt.Errorf("snapshot requires a generation")
	}
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM backlogs WHERE key = ?`, snapshotKey(b.Generation)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check snapshot: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("snapshot %s already exists", b.Generation)
	}
	return s.saveBacklog(ctx, snapshotKey(b.Generation), kindSnapshot, b)
}

// LoadSnapshot returns the snapshot with the given generation, or types.ErrNotFound.
func (s *SQLiteStorage) LoadSnapshot(ctx context.Context, generation string) (*types.Backlog, error) {
	return s.loadBacklog(ctx, snapshotKey(generation))
}

// ListSnapshots returns every snapshot, oldest first.
func (s *SQLiteStorage) ListSnapshots(ctx context.Context) ([]types.SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT generation, task_count, updated_at
		FROM backlogs
		WHERE kind = ?
		ORDER BY updated_at ASC, generation ASC
	`, kindSnapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	infos := []types.SnapshotInfo{}
	for rows.Next() {
		var info types.SnapshotInfo
		var updatedAt string
		if err := rows.Scan(&info.Generation, &info.Tasks, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if info.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
			return nil, fmt.Errorf("snapshot %s has invalid updated_at: %w", info.Generation, err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}
	return infos, nil
}

// SaveProgress stores the progress cache.
func (s *SQLiteStorage) SaveProgress(ctx context.Context, p *types.PipelineProgress) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO progress (id, body, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, string(body), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// LoadProgress returns the progress cache, or types.ErrNotFound.
func (s *SQLiteStorage) LoadProgress(ctx context.Context) (*types.PipelineProgress, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM progress WHERE id = 1`).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("progress: %w", types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	var p types.PipelineProgress
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fmt.Errorf("failed to decode progress: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStorage) saveBacklog(ctx context.Context, key, kind string, b *types.Backlog) error {
	header := *b
	header.Tasks = nil
	headerJSON, err := json.Marshal(&header)
	if err != nil {
		return fmt.Errorf("failed to marshal backlog header: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Tasks cascade with the backlog row
	if _, err := tx.ExecContext(ctx, `DELETE FROM backlogs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to clear backlog %s: %w", key, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO backlogs (key, kind, backlog_id, generation, task_count, header, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, key, kind, b.BacklogID, b.Generation, len(b.Tasks), string(headerJSON), b.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert backlog %s: %w", key, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tasks (backlog_key, position, id, title, status, priority, effort, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare task insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, t := range b.Tasks {
		body, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal task %s: %w", t.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, key, i, t.ID, t.Title, t.Status, t.Priority, t.Effort, string(body)); err != nil {
			return fmt.Errorf("failed to insert task %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStorage) loadBacklog(ctx context.Context, key string) (*types.Backlog, error) {
	var headerJSON string
	err := s.db.QueryRowContext(ctx, `SELECT header FROM backlogs WHERE key = ?`, key).Scan(&headerJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("backlog %s: %w", key, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load backlog %s: %w", key, err)
	}

	var b types.Backlog
	if err := json.Unmarshal([]byte(headerJSON), &b); err != nil {
		return nil, fmt.Errorf("failed to decode backlog %s: %w", key, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT body FROM tasks WHERE backlog_key = ? ORDER BY position ASC`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	b.Tasks = []types.RemediationTask{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		var t types.RemediationTask
		if err := json.Unmarshal([]byte(body), &t); err != nil {
			return nil, fmt.Errorf("failed to decode task: %w", err)
		}
		b.Tasks = append(b.Tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return &b, nil
}
