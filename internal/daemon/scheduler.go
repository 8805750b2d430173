package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"strmsync/internal/logging"
	"strmsync/internal/services"
	"strmsync/internal/task"
)

// scheduler re-submits tasks that carry an interval. A task is due on the
// first tick after startup and whenever its interval has elapsed since the
// last successful submission.
type scheduler struct {
	store  *task.Store
	submit Submitter
	tick   time.Duration
	logger *slog.Logger

	lastSubmit map[int64]time.Time
}

func newScheduler(store *task.Store, submit Submitter, tick time.Duration, logger *slog.Logger) *scheduler {
	return &scheduler{
		store:      store,
		submit:     submit,
		tick:       tick,
		logger:     logger,
		lastSubmit: make(map[int64]time.Time),
	}
}

func (s *scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *scheduler) sweep(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		s.logger.Warn("list tasks for scheduling", logging.Error(err))
		return
	}
	now := time.Now()
	for _, t := range tasks {
		if t.IntervalMinutes <= 0 {
			continue
		}
		last, seen := s.lastSubmit[t.ID]
		if seen && now.Sub(last) < time.Duration(t.IntervalMinutes)*time.Minute {
			continue
		}
		run, err := s.submit.Submit(ctx, t)
		if err != nil {
			// Already queued or still running; try again next tick.
			if errors.Is(err, services.ErrValidation) {
				s.logger.Debug("scheduled task not queued",
					logging.Int64(logging.FieldTaskID, t.ID), logging.Error(err))
				continue
			}
			s.logger.Warn("submit scheduled task",
				logging.Int64(logging.FieldTaskID, t.ID), logging.Error(err))
			continue
		}
		s.lastSubmit[t.ID] = now
		s.logger.Info("scheduled task queued",
			logging.Int64(logging.FieldTaskID, t.ID),
			logging.String(logging.FieldRunID, run.ID))
	}
}
