// Package task persists sync task configuration and run history in SQLite.
package task

import "time"

// ScrapeOptions controls which artifacts a task produces beyond the STRM
// pointer itself.
type ScrapeOptions struct {
	Descriptors   bool `json:"descriptors"`
	Images        bool `json:"images"`
	Subtitles     bool `json:"subtitles"`
	DownloadVideo bool `json:"download_video"`
	EncodeURL     bool `json:"encode_url"`
}

// Task is one configured sync: a remote root mirrored into a local STRM
// root. Read-only to the sync engine.
type Task struct {
	ID              int64         `json:"id"`
	Name            string        `json:"name"`
	RemoteRoot      string        `json:"remote_root"`
	LocalRoot       string        `json:"local_root"`
	Incremental     bool          `json:"incremental"`
	RenameRule      string        `json:"rename_rule,omitempty"`
	IntervalMinutes int           `json:"interval_minutes,omitempty"`
	Scrape          ScrapeOptions `json:"scrape"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// RunStatus is the lifecycle state of a recorded run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one recorded execution of a task.
type Run struct {
	ID           string     `json:"id"`
	TaskID       int64      `json:"task_id"`
	Status       RunStatus  `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	StatsJSON    string     `json:"stats,omitempty"`
	ErrorMessage string     `json:"error,omitempty"`
}
