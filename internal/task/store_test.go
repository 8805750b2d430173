package task

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strmsync/internal/services"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleTask() Task {
	return Task{
		Name:        "anime",
		RemoteRoot:  "/media/anime",
		LocalRoot:   "/srv/strm/anime",
		Incremental: true,
		RenameRule:  `\.CHS$|.chinese`,
		Scrape:      ScrapeOptions{Descriptors: true, Images: true},
	}
}

func TestCreateAndGetTask(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	created, err := store.CreateTask(ctx, sampleTask())
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := store.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "anime", got.Name)
	assert.True(t, got.Incremental)
	assert.True(t, got.Scrape.Descriptors)
	assert.False(t, got.Scrape.DownloadVideo)
}

func TestCreateTaskValidation(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	bad := sampleTask()
	bad.RemoteRoot = "  "
	_, err := store.CreateTask(ctx, bad)
	assert.ErrorIs(t, err, services.ErrValidation)

	bad = sampleTask()
	bad.IntervalMinutes = -5
	_, err = store.CreateTask(ctx, bad)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestGetTaskNotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.GetTask(context.Background(), 9999)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestUpdateAndDeleteTask(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	created, err := store.CreateTask(ctx, sampleTask())
	require.NoError(t, err)

	created.Name = "anime-v2"
	created.IntervalMinutes = 30
	updated, err := store.UpdateTask(ctx, *created)
	require.NoError(t, err)
	assert.Equal(t, "anime-v2", updated.Name)
	assert.Equal(t, 30, updated.IntervalMinutes)

	require.NoError(t, store.DeleteTask(ctx, created.ID))
	_, err = store.GetTask(ctx, created.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	assert.ErrorIs(t, store.DeleteTask(ctx, created.ID), services.ErrNotFound)
}

func TestRunLifecycle(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	created, err := store.CreateTask(ctx, sampleTask())
	require.NoError(t, err)

	run, err := store.StartRun(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunRunning, run.Status)

	require.NoError(t, store.FinishRun(ctx, run.ID, RunSucceeded, `{"processed":3}`, ""))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunSucceeded, got.Status)
	require.NotNil(t, got.FinishedAt)
	assert.Equal(t, `{"processed":3}`, got.StatsJSON)

	runs, err := store.ListRuns(ctx, created.ID, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	latest, err := store.LatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, run.ID, latest.ID)
}

func TestDeleteTaskCascadesRuns(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	created, err := store.CreateTask(ctx, sampleTask())
	require.NoError(t, err)
	run, err := store.StartRun(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, store.DeleteTask(ctx, created.ID))

	_, err = store.GetRun(ctx, run.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}
