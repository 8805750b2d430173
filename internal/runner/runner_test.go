package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strmsync/internal/services"
	"strmsync/internal/task"
	"strmsync/internal/testsupport"
)

func newTestStore(t *testing.T) *task.Store {
	t.Helper()
	return testsupport.MustOpenStore(t, testsupport.NewConfig(t))
}

func createTask(t *testing.T, store *task.Store, name string) task.Task {
	t.Helper()
	return testsupport.NewTask(t, store, name, "/media/"+name, t.TempDir())
}

func waitForRun(t *testing.T, store *task.Store, runID string) task.Run {
	t.Helper()
	var finished task.Run
	require.Eventually(t, func() bool {
		run, err := store.GetRun(context.Background(), runID)
		if err != nil || run.FinishedAt == nil {
			return false
		}
		finished = *run
		return true
	}, 5*time.Second, 10*time.Millisecond, "run never finished")
	return finished
}

func TestRunnerExecutesSubmittedTask(t *testing.T) {
	store := newTestStore(t)
	created := createTask(t, store, "movies")

	var gotTaskID int64
	var gotRunID string
	execute := func(ctx context.Context, tsk task.Task, runID string) (string, error) {
		gotTaskID = tsk.ID
		gotRunID = runID
		// The worker threads the run identity through context for logging
		// and per-run state scoping.
		ctxRunID, ok := services.RunIDFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, runID, ctxRunID)
		return `{"pipeline":{"total_files":3}}`, nil
	}

	r := New(store, execute, 4, nil)
	r.Start(context.Background())

	run, err := r.Submit(context.Background(), created)
	require.NoError(t, err)
	require.Equal(t, task.RunRunning, run.Status)

	finished := waitForRun(t, store, run.ID)
	r.Stop()

	assert.Equal(t, task.RunSucceeded, finished.Status)
	assert.Equal(t, `{"pipeline":{"total_files":3}}`, finished.StatsJSON)
	assert.Empty(t, finished.ErrorMessage)
	assert.Equal(t, created.ID, gotTaskID)
	assert.Equal(t, run.ID, gotRunID)
}

func TestRunnerRecordsExecutionFailure(t *testing.T) {
	store := newTestStore(t)
	created := createTask(t, store, "shows")

	execute := func(context.Context, task.Task, string) (string, error) {
		return `{"pipeline":{"failed":1}}`, errors.New("gateway listing timed out")
	}

	r := New(store, execute, 4, nil)
	r.Start(context.Background())

	run, err := r.Submit(context.Background(), created)
	require.NoError(t, err)

	finished := waitForRun(t, store, run.ID)
	r.Stop()

	assert.Equal(t, task.RunFailed, finished.Status)
	assert.Contains(t, finished.ErrorMessage, "gateway listing timed out")
	// Partial stats from a failed run are still recorded.
	assert.Equal(t, `{"pipeline":{"failed":1}}`, finished.StatsJSON)
}

func TestSubmitRejectsDuplicateInFlightTask(t *testing.T) {
	store := newTestStore(t)
	created := createTask(t, store, "anime")

	release := make(chan struct{})
	running := make(chan struct{})
	execute := func(context.Context, task.Task, string) (string, error) {
		close(running)
		<-release
		return "{}", nil
	}

	r := New(store, execute, 4, nil)
	r.Start(context.Background())

	first, err := r.Submit(context.Background(), created)
	require.NoError(t, err)
	<-running

	_, err = r.Submit(context.Background(), created)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrValidation)

	close(release)
	waitForRun(t, store, first.ID)
	r.Stop()

	// Once the first run finishes the task can be queued again.
	second, err := New(store, execute, 4, nil).Submit(context.Background(), created)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSubmitQueueFullMarksRunFailed(t *testing.T) {
	store := newTestStore(t)
	first := createTask(t, store, "first")
	second := createTask(t, store, "second")

	// Never started, so the single slot stays occupied.
	r := New(store, func(context.Context, task.Task, string) (string, error) {
		return "{}", nil
	}, 1, nil)

	_, err := r.Submit(context.Background(), first)
	require.NoError(t, err)

	_, err = r.Submit(context.Background(), second)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrValidation)

	runs, err := store.ListRuns(context.Background(), second.ID, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, task.RunFailed, runs[0].Status)
	assert.Equal(t, "queue full", runs[0].ErrorMessage)
}

func TestStatReflectsLastRun(t *testing.T) {
	store := newTestStore(t)
	created := createTask(t, store, "docs")

	execute := func(context.Context, task.Task, string) (string, error) {
		return "{}", nil
	}
	r := New(store, execute, 4, nil)

	idle := r.Stat()
	assert.False(t, idle.Running)
	assert.Zero(t, idle.QueueDepth)
	assert.Empty(t, idle.LastRunID)

	r.Start(context.Background())
	run, err := r.Submit(context.Background(), created)
	require.NoError(t, err)
	waitForRun(t, store, run.ID)
	r.Stop()

	st := r.Stat()
	assert.True(t, st.Running)
	assert.Equal(t, run.ID, st.LastRunID)
	assert.Equal(t, string(task.RunSucceeded), st.LastRunStatus)
	assert.Zero(t, st.ActiveTaskID)
}
