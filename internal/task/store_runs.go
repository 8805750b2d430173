package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"strmsync/internal/services"
)

const runColumns = `id, task_id, status, started_at, finished_at, stats_json, error_message`

// StartRun records a new running execution for a task and returns it. The
// run id doubles as the scope key for per-run state (dedup statistics, the
// claimed-episode set).
func (s *Store) StartRun(ctx context.Context, taskID int64) (*Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, task_id, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.TaskID, run.Status, run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &run, nil
}

// FinishRun records the terminal status, stats payload, and error message of
// a run.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, statsJSON, errorMessage string) error {
	if statsJSON == "" {
		statsJSON = "{}"
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sync_runs SET status = ?, finished_at = ?, stats_json = ?, error_message = ? WHERE id = ?`,
		status, time.Now().UTC().Format(time.RFC3339Nano), statsJSON, errorMessage, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "task", "finish-run", runID, nil)
	}
	return nil
}

// GetRun fetches one run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM sync_runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "task", "get-run", runID, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs for a task, newest first.
func (s *Store) ListRuns(ctx context.Context, taskID int64, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM sync_runs WHERE task_id = ? ORDER BY started_at DESC LIMIT ?`,
		taskID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

// LatestRun returns the most recent run across all tasks, or nil when no run
// was ever recorded.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM sync_runs ORDER BY started_at DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run        Run
		startedAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(&run.ID, &run.TaskID, &run.Status, &startedAt,
		&finishedAt, &run.StatsJSON, &run.ErrorMessage); err != nil {
		return nil, err
	}
	run.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		ts := parseTimestamp(finishedAt.String)
		run.FinishedAt = &ts
	}
	return &run, nil
}
