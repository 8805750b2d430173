package testsupport

import (
	"context"
	"testing"

	"strmsync/internal/config"
	"strmsync/internal/task"
)

// MustOpenStore opens a task.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *task.Store {
	t.Helper()

	store, err := task.Open(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("task.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewTask creates a sync task for tests using the provided store.
func NewTask(t testing.TB, store *task.Store, name, remoteRoot, localRoot string) task.Task {
	t.Helper()

	created, err := store.CreateTask(context.Background(), task.Task{
		Name:       name,
		RemoteRoot: remoteRoot,
		LocalRoot:  localRoot,
	})
	if err != nil {
		t.Fatalf("store.CreateTask: %v", err)
	}
	return *created
}
