package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/types"
)

// failingStore rejects every write and read.
type failingStore struct {
	name string
	err  error
}

func (f *failingStore) Name() string { return f.name }
func (f *failingStore) LoadCurrent(context.Context) (*types.Backlog, error) {
	return nil, f.err
}
func (f *failingStore) SaveCurrent(context.Context, *types.Backlog) error  { return f.err }
func (f *failingStore) SaveSnapshot(context.Context, *types.Backlog) error { return f.err }
func (f *failingStore) LoadSnapshot(context.Context, string) (*types.Backlog, error) {
	return nil, f.err
}
func (f *failingStore) ListSnapshots(context.Context) ([]types.SnapshotInfo, error) {
	return nil, f.err
}
func (f *failingStore) SaveProgress(context.Context, *types.PipelineProgress) error { return f.err }
func (f *failingStore) LoadProgress(context.Context) (*types.PipelineProgress, error) {
	return nil, f.err
}
func (f *failingStore) Close() error { return nil }

var testTime = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

func backlogWith(ids ...string) *types.Backlog {
	b := types.NewBacklog("M1", nil)
	for _, id := range ids {
		b.Tasks = append(b.Tasks, types.RemediationTask{
			ID: id, Title: "Task " + id, Type: types.TaskCleanup, Priority: types.P2,
			Effort: types.EffortS, Status: types.TaskTodo, Dependencies: []string{},
			CreatedAt: testTime, UpdatedAt: testTime,
		})
	}
	b.UpdatedAt = testTime
	b.RecomputeSummary()
	return b
}

func openTestStore(t *testing.T) (*DualStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(context.Background(), &Config{StateDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, dir
}

func TestOpenWritesBothSinks(t *testing.T) {
	ctx := context.Background()
	store, dir := openTestStore(t)
	require.True(t, store.HasPrimary())

	b := backlogWith("TASK-P2-001")
	require.NoError(t, store.SaveCurrent(ctx, b))

	assert.FileExists(t, filepath.Join(dir, "backlog", "current.json"))
	assert.FileExists(t, DatabasePath(dir))

	got, err := store.LoadCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "TASK-P2-001", got.Tasks[0].ID)
}

func TestDualStoreContractViolationWritesNothing(t *testing.T) {
	ctx := context.Background()
	store, dir := openTestStore(t)

	b := backlogWith("TASK-P2-001")
	b.Tasks[0].Dependencies = []string{"TASK-P9-999"}

	err := store.SaveCurrent(ctx, b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrContractViolation))
	assert.NoFileExists(t, filepath.Join(dir, "backlog", "current.json"))

	_, err = store.LoadCurrent(ctx)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestDualStoreRoundTripsMultibyteTitleAtLimit(t *testing.T) {
	ctx := context.Background()
	store, dir := openTestStore(t)

	b := backlogWith("TASK-P2-001")
	title := strings.Repeat("é", types.MaxTitleLength)
	b.Tasks[0].Title = title
	require.NoError(t, store.SaveCurrent(ctx, b))

	got, err := store.LoadCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, title, got.Tasks[0].Title)

	// The file sink alone must load it back too.
	file, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err = file.LoadCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, title, got.Tasks[0].Title)
}

func TestDualStorePrimaryFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	file, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	primary := &failingStore{name: "sqlite", err: errors.New("database is locked")}
	store := NewDualStore(primary, file, nil)

	b := backlogWith("TASK-P2-001", "TASK-P2-002")
	require.NoError(t, store.SaveCurrent(ctx, b), "fallback success means the write succeeds")

	got, err := store.LoadCurrent(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Tasks, 2)

	p := &types.PipelineProgress{Phase: types.PhaseExecution}
	require.NoError(t, store.SaveProgress(ctx, p))
	gotP, err := store.LoadProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseExecution, gotP.Phase)
}

func TestDualStoreFallbackFailureStillSucceeds(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := Open(ctx, &Config{StateDir: dir})
	require.NoError(t, err)
	defer store.Close()

	// Swap the file sink for one that always fails; the primary carries the write.
	store.fallback = &failingStore{name: "file", err: errors.New("read-only file system")}
	require.NoError(t, store.SaveCurrent(ctx, backlogWith("TASK-P2-001")))

	got, err := store.LoadCurrent(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Tasks, 1)
}

func TestDualStoreAllSinksFail(t *testing.T) {
	ctx := context.Background()
	store := NewDualStore(
		&failingStore{name: "sqlite", err: errors.New("disk I/O error")},
		&failingStore{name: "file", err: errors.New("no space left")},
		nil,
	)

	err := store.SaveCurrent(ctx, backlogWith("TASK-P2-001"))
	var perr *types.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Len(t, perr.Failed, 2)
	assert.Equal(t, "save-current failed on every sink (file: no space left; sqlite: disk I/O error)", err.Error())
}

func TestDualStoreReadPrefersPrimary(t *testing.T) {
	ctx := context.Background()
	store, dir := openTestStore(t)

	require.NoError(t, store.SaveCurrent(ctx, backlogWith("TASK-P2-001")))

	// Diverge the file copy; reads must still come from sqlite.
	require.NoError(t, WriteJSON(filepath.Join(dir, "backlog", "current.json"), backlogWith("TASK-P2-001", "TASK-P2-002")))
	got, err := store.LoadCurrent(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Tasks, 1)
}

func TestDualStoreSkipsPrimaryWhenDisabled(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := Open(ctx, &Config{StateDir: dir, DisablePrimary: true})
	require.NoError(t, err)
	defer store.Close()

	assert.False(t, store.HasPrimary())
	require.NoError(t, store.SaveCurrent(ctx, backlogWith()))
	assert.NoFileExists(t, DatabasePath(dir))
}

func TestLoadCurrentOrEmpty(t *testing.T) {
	store, _ := openTestStore(t)
	b, err := store.LoadCurrentOrEmpty(context.Background(), "M2")
	require.NoError(t, err)
	assert.Equal(t, types.CurrentBacklogID, b.BacklogID)
	assert.Equal(t, "M2", b.Milestone)
	assert.Empty(t, b.Tasks)
}

func TestSnapshotHistory(t *testing.T) {
	ctx := context.Background()
	store, dir := openTestStore(t)

	first := backlogWith("TASK-P2-001")
	gen1, err := store.Snapshot(ctx, first)
	require.NoError(t, err)
	assert.Empty(t, first.Generation, "Snapshot must not mutate the input")

	second := backlogWith("TASK-P2-001", "TASK-P2-002")
	second.UpdatedAt = testTime.Add(time.Hour)
	gen2, err := store.Snapshot(ctx, second)
	require.NoError(t, err)
	assert.NotEqual(t, gen1, gen2)

	assert.FileExists(t, filepath.Join(dir, "backlog", "history", gen1+".json"))

	infos, err := store.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, gen1, infos[0].Generation)
	assert.Equal(t, 2, infos[1].Tasks)

	snap, err := store.LoadSnapshot(ctx, gen2)
	require.NoError(t, err)
	assert.Equal(t, gen2, snap.Generation)
	assert.Len(t, snap.Tasks, 2)
}

func TestFileStoreRejectsBadGeneration(t *testing.T) {
	file, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	b := backlogWith()
	b.Generation = "../escape"
	assert.Error(t, file.SaveSnapshot(context.Background(), b))
}

func TestWriteJSONLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, WriteJSON(path, map[string]int{"a": 1}))
	require.NoError(t, WriteJSON(path, map[string]int{"a": 2}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	var got map[string]int
	require.NoError(t, ReadJSON(path, &got))
	assert.Equal(t, 2, got["a"])

	err = ReadJSON(filepath.Join(dir, "missing.json"), &got)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestRunLock(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireRunLock(dir, "test")
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), lock.PID)

	_, err = AcquireRunLock(dir, "test")
	assert.ErrorContains(t, err, "another pipeline run is in progress")

	require.NoError(t, ReleaseRunLock(dir, lock))
	assert.NoFileExists(t, LockPath(dir))

	// Releasing twice is harmless
	require.NoError(t, ReleaseRunLock(dir, lock))
}

func TestRunLockOverwritesStaleLock(t *testing.T) {
	dir := t.TempDir()
	hostname, err := os.Hostname()
	require.NoError(t, err)

	stale := RunLock{Holder: "factory", RunID: "old", PID: -1, Hostname: hostname, StartedAt: testTime}
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(LockPath(dir), data, 0644))

	lock, err := AcquireRunLock(dir, "test")
	require.NoError(t, err)
	assert.NotEqual(t, "old", lock.RunID)

	// A lock that now belongs to someone else is left in place
	require.NoError(t, ReleaseRunLock(dir, &RunLock{RunID: "other"}))
	assert.FileExists(t, LockPath(dir))
}
