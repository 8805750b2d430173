package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"strmsync/internal/logging"
	"strmsync/internal/services"
)

// Status is the tri-state outcome of a stage or an entry.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// StageFunc runs one stage against one item.
type StageFunc func(ctx context.Context, item *Item) (Status, error)

// Stage is a registered pipeline step. Stages run in ascending Order and
// only against items whose kind the stage declared.
type Stage struct {
	Name  string
	Order int
	Kinds KindSet
	Run   StageFunc
}

// Orchestrator dispatches items through the sorted stage chain.
type Orchestrator struct {
	stages []Stage
	logger *slog.Logger
}

// NewOrchestrator sorts the stages by order once and returns the dispatcher.
func NewOrchestrator(stages []Stage, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	sorted := append([]Stage(nil), stages...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	return &Orchestrator{
		stages: sorted,
		logger: logger.With(logging.String(logging.FieldComponent, "pipeline")),
	}
}

// Execute drives one item through every applicable stage in order. A failed
// stage degrades the entry result but does not stop the chain: downstream
// stages still run, so a broken sidecar download never prevents the STRM
// write. Panics are recovered at the stage boundary and count as a failure
// of that stage only. A filter stage may mark the item Filtered, which ends
// the chain with a skipped entry.
func (o *Orchestrator) Execute(ctx context.Context, item *Item) Status {
	overall := StatusSkipped
	for _, stage := range o.stages {
		if !stage.Kinds.Contains(item.Kind) {
			continue
		}
		status, err := o.runStage(ctx, stage, item)
		switch status {
		case StatusFailed:
			overall = StatusFailed
			o.logger.Warn("stage failed",
				logging.String(logging.FieldStage, stage.Name),
				logging.String(logging.FieldRemotePath, item.Entry.Path),
				logging.Error(err))
		case StatusSuccess:
			if overall != StatusFailed {
				overall = StatusSuccess
			}
		}
		if item.Filtered {
			overall = StatusSkipped
			break
		}
	}
	if item.Stats != nil {
		item.Stats.record(overall)
	}
	return overall
}

func (o *Orchestrator) runStage(ctx context.Context, stage Stage, item *Item) (status Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			status = StatusFailed
			err = services.Wrap(services.ErrTransient, "pipeline", stage.Name,
				fmt.Sprintf("stage panicked: %v", r), nil)
		}
	}()
	status, err = stage.Run(ctx, item)
	if err != nil && status != StatusFailed {
		status = StatusFailed
	}
	return status, err
}
