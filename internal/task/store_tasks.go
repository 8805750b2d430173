package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"strmsync/internal/services"
)

const taskColumns = `id, name, remote_root, local_root, incremental, rename_rule,
	interval_minutes, scrape_json, created_at, updated_at`

// CreateTask validates and inserts a task, returning it with its assigned id.
func (s *Store) CreateTask(ctx context.Context, t Task) (*Task, error) {
	if err := validateTask(t); err != nil {
		return nil, err
	}
	scrapeJSON, err := json.Marshal(t.Scrape)
	if err != nil {
		return nil, fmt.Errorf("marshal scrape options: %w", err)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_tasks (
			name, remote_root, local_root, incremental, rename_rule,
			interval_minutes, scrape_json, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.RemoteRoot, t.LocalRoot, boolToInt(t.Incremental), t.RenameRule,
		t.IntervalMinutes, string(scrapeJSON), timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetTask(ctx, id)
}

// GetTask fetches a task by id. Missing tasks return ErrNotFound.
func (s *Store) GetTask(ctx context.Context, id int64) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM sync_tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "task", "get",
			fmt.Sprintf("task %d", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListTasks returns all tasks ordered by name.
func (s *Store) ListTasks(ctx context.Context) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM sync_tasks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// UpdateTask rewrites every mutable field of the task.
func (s *Store) UpdateTask(ctx context.Context, t Task) (*Task, error) {
	if err := validateTask(t); err != nil {
		return nil, err
	}
	scrapeJSON, err := json.Marshal(t.Scrape)
	if err != nil {
		return nil, fmt.Errorf("marshal scrape options: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE sync_tasks SET
			name = ?, remote_root = ?, local_root = ?, incremental = ?,
			rename_rule = ?, interval_minutes = ?, scrape_json = ?, updated_at = ?
		WHERE id = ?`,
		t.Name, t.RemoteRoot, t.LocalRoot, boolToInt(t.Incremental),
		t.RenameRule, t.IntervalMinutes, string(scrapeJSON),
		time.Now().UTC().Format(time.RFC3339Nano), t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, services.Wrap(services.ErrNotFound, "task", "update",
			fmt.Sprintf("task %d", t.ID), nil)
	}
	return s.GetTask(ctx, t.ID)
}

// DeleteTask removes a task and, via cascade, its run history.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sync_tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "task", "delete",
			fmt.Sprintf("task %d", id), nil)
	}
	return nil
}

func validateTask(t Task) error {
	if strings.TrimSpace(t.Name) == "" {
		return services.Wrap(services.ErrValidation, "task", "validate", "task name required", nil)
	}
	if strings.TrimSpace(t.RemoteRoot) == "" {
		return services.Wrap(services.ErrValidation, "task", "validate", "remote root required", nil)
	}
	if strings.TrimSpace(t.LocalRoot) == "" {
		return services.Wrap(services.ErrValidation, "task", "validate", "local root required", nil)
	}
	if t.IntervalMinutes < 0 {
		return services.Wrap(services.ErrValidation, "task", "validate", "interval must not be negative", nil)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var (
		t           Task
		incremental int
		scrapeJSON  string
		createdAt   string
		updatedAt   string
	)
	if err := row.Scan(&t.ID, &t.Name, &t.RemoteRoot, &t.LocalRoot, &incremental,
		&t.RenameRule, &t.IntervalMinutes, &scrapeJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.Incremental = incremental != 0
	if scrapeJSON != "" {
		if err := json.Unmarshal([]byte(scrapeJSON), &t.Scrape); err != nil {
			return nil, fmt.Errorf("decode scrape options: %w", err)
		}
	}
	t.CreatedAt = parseTimestamp(createdAt)
	t.UpdatedAt = parseTimestamp(updatedAt)
	return &t, nil
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
