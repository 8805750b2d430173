// Package runner executes sync tasks one at a time through a bounded queue.
// Serializing executions bounds remote API load and keeps per-run state
// (dedup statistics, episode claims) trivially run-scoped.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"strmsync/internal/logging"
	"strmsync/internal/services"
	"strmsync/internal/task"
)

// ExecuteFunc runs one task to completion and returns a JSON stats payload
// for the run record.
type ExecuteFunc func(ctx context.Context, t task.Task, runID string) (statsJSON string, err error)

// job pairs a task with its already-recorded run row.
type job struct {
	task task.Task
	run  task.Run
}

// Status describes the runner for the health endpoint.
type Status struct {
	Running       bool   `json:"running"`
	QueueDepth    int    `json:"queue_depth"`
	ActiveTaskID  int64  `json:"active_task_id,omitempty"`
	ActiveRunID   string `json:"active_run_id,omitempty"`
	LastRunID     string `json:"last_run_id,omitempty"`
	LastRunStatus string `json:"last_run_status,omitempty"`
}

// Runner owns the execution queue.
type Runner struct {
	store   *task.Store
	execute ExecuteFunc
	logger  *slog.Logger

	jobs chan job

	mu       sync.Mutex
	pending  map[int64]struct{}
	active   *job
	last     *task.Run
	started  bool
	stopOnce sync.Once
	done     chan struct{}
}

// New builds a runner with the given queue capacity.
func New(store *task.Store, execute ExecuteFunc, queueSize int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	if queueSize < 1 {
		queueSize = 8
	}
	return &Runner{
		store:   store,
		execute: execute,
		logger:  logger.With(logging.String(logging.FieldComponent, "runner")),
		jobs:    make(chan job, queueSize),
		pending: make(map[int64]struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the single worker. It returns immediately; the worker exits
// when ctx is canceled or Stop is called.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	go r.work(ctx)
}

// Stop closes the queue; queued jobs are still drained before the worker
// exits.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.jobs) })
	r.mu.Lock()
	started := r.started
	r.mu.Unlock()
	if started {
		<-r.done
	}
}

// Submit records a run for the task and enqueues it. Submitting a task that
// is already queued or running is a validation error, as is a full queue.
func (r *Runner) Submit(ctx context.Context, t task.Task) (*task.Run, error) {
	r.mu.Lock()
	if _, dup := r.pending[t.ID]; dup {
		r.mu.Unlock()
		return nil, services.Wrap(services.ErrValidation, "runner", "submit",
			fmt.Sprintf("task %d already queued", t.ID), nil)
	}
	r.pending[t.ID] = struct{}{}
	r.mu.Unlock()

	run, err := r.store.StartRun(ctx, t.ID)
	if err != nil {
		r.clearPending(t.ID)
		return nil, err
	}

	select {
	case r.jobs <- job{task: t, run: *run}:
		return run, nil
	default:
		r.clearPending(t.ID)
		finishErr := r.store.FinishRun(ctx, run.ID, task.RunFailed, "", "queue full")
		if finishErr != nil {
			r.logger.Warn("mark rejected run failed", logging.Error(finishErr))
		}
		return nil, services.Wrap(services.ErrValidation, "runner", "submit", "queue full", nil)
	}
}

// Stat reports the runner's current state.
func (r *Runner) Stat() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Status{Running: r.started, QueueDepth: len(r.jobs)}
	if r.active != nil {
		st.ActiveTaskID = r.active.task.ID
		st.ActiveRunID = r.active.run.ID
	}
	if r.last != nil {
		st.LastRunID = r.last.ID
		st.LastRunStatus = string(r.last.Status)
	}
	return st
}

func (r *Runner) work(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case next, ok := <-r.jobs:
			if !ok {
				return
			}
			r.runJob(ctx, next)
		}
	}
}

func (r *Runner) runJob(ctx context.Context, current job) {
	r.mu.Lock()
	r.active = &current
	r.mu.Unlock()
	defer func() {
		r.clearPending(current.task.ID)
		r.mu.Lock()
		r.active = nil
		r.mu.Unlock()
	}()

	runCtx := services.WithTaskID(services.WithRunID(ctx, current.run.ID), current.task.ID)
	logger := r.logger.With(
		logging.Int64(logging.FieldTaskID, current.task.ID),
		logging.String(logging.FieldRunID, current.run.ID))
	logger.Info("task execution starting", logging.String("task", current.task.Name))

	statsJSON, err := r.execute(runCtx, current.task, current.run.ID)

	status := task.RunSucceeded
	message := ""
	if err != nil {
		status = task.RunFailed
		message = err.Error()
		logger.Error("task execution failed", logging.Error(err))
	} else {
		logger.Info("task execution finished")
	}
	if finishErr := r.store.FinishRun(ctx, current.run.ID, status, statsJSON, message); finishErr != nil {
		logger.Warn("record run outcome", logging.Error(finishErr))
	}

	finished := current.run
	finished.Status = status
	finished.StatsJSON = statsJSON
	r.mu.Lock()
	r.last = &finished
	r.mu.Unlock()
}

func (r *Runner) clearPending(taskID int64) {
	r.mu.Lock()
	delete(r.pending, taskID)
	r.mu.Unlock()
}

// marshalStats is a helper executors share to serialize their run summary.
func marshalStats(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
