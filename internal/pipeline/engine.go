package pipeline

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"strmsync/internal/logging"
	"strmsync/internal/strm"
)

// RunSpec describes one engine run.
type RunSpec struct {
	RemoteRoot string
	LocalRoot  string
}

// Outcome is the result of one engine run. Tree is handed to the reconciler
// as ground truth for the orphan pass.
type Outcome struct {
	Tree   *Tree
	Stats  StatsSnapshot
	Status Status
}

// Engine discovers the remote tree once per run and drives every file entry
// through the stage chain.
type Engine struct {
	walker *Walker
	orch   *Orchestrator
	rename *strm.RenameRule
	logger *slog.Logger
}

// NewEngine assembles an engine from a walker, an orchestrator, and an
// optional rename rule.
func NewEngine(walker *Walker, orch *Orchestrator, rename *strm.RenameRule, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		walker: walker,
		orch:   orch,
		rename: rename,
		logger: logger.With(logging.String(logging.FieldComponent, "engine")),
	}
}

// Run executes one full sync pass. A root listing failure is fatal; every
// other failure degrades the outcome status without stopping the run.
func (e *Engine) Run(ctx context.Context, spec RunSpec) (*Outcome, error) {
	tree, err := e.walker.Walk(ctx, spec.RemoteRoot)
	if err != nil {
		return nil, err
	}

	stats := &RunStats{}
	failed := false
	e.walkDir(ctx, tree, tree.Root(), spec, stats, &failed)

	snapshot := stats.Snapshot()
	status := StatusSuccess
	switch {
	case failed:
		status = StatusFailed
	case snapshot.Processed == 0:
		status = StatusSkipped
	}
	e.logger.Info("run complete",
		logging.Int("total", snapshot.TotalFiles),
		logging.Int("processed", snapshot.Processed),
		logging.Int("skipped", snapshot.Skipped),
		logging.Int("failed", snapshot.Failed))
	return &Outcome{Tree: tree, Stats: snapshot, Status: status}, nil
}

// walkDir dispatches the files of one listed directory, then recurses into
// its listed subdirectories in pre-order.
func (e *Engine) walkDir(ctx context.Context, tree *Tree, dir string, spec RunSpec, stats *RunStats, failed *bool) {
	entries, ok := tree.Entries(dir)
	if !ok {
		return
	}
	relDir := strings.TrimPrefix(strings.TrimPrefix(dir, tree.Root()), "/")
	saveDir := filepath.Join(spec.LocalRoot, filepath.FromSlash(relDir))

	for _, entry := range entries {
		if entry.IsDir {
			continue
		}
		item := &Item{
			Entry:    entry,
			Kind:     KindOf(entry.Name),
			RelPath:  path.Join(relDir, entry.Name),
			SaveDir:  saveDir,
			Base:     strm.ArtifactBase(e.rename, entry.Name),
			Siblings: entries,
			Stats:    stats,
		}
		if e.orch.Execute(ctx, item) == StatusFailed {
			*failed = true
		}
	}
	for _, entry := range entries {
		if entry.IsDir {
			e.walkDir(ctx, tree, path.Join(dir, entry.Name), spec, stats, failed)
		}
	}
}
