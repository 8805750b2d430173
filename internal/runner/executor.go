package runner

import (
	"context"
	"log/slog"
	"net/url"

	"strmsync/internal/dedup"
	"strmsync/internal/gateway"
	"strmsync/internal/logging"
	"strmsync/internal/lookup"
	"strmsync/internal/mediaserver"
	"strmsync/internal/pipeline"
	"strmsync/internal/reconcile"
	"strmsync/internal/services"
	"strmsync/internal/sidecar"
	"strmsync/internal/strm"
	"strmsync/internal/task"
)

// ExecOptions carries the deployment-level knobs the executor applies to
// every task.
type ExecOptions struct {
	HashAlgorithm        string
	MaxHashSizeBytes     int64
	DiscoveryConcurrency int
	// URLParams are appended to every playback URL (deployment auth).
	URLParams url.Values
}

// SyncExecutor runs one task end to end: discovery, stage chain,
// reconciliation, media-server refresh.
type SyncExecutor struct {
	lister   gateway.Lister
	fetcher  gateway.Fetcher
	searcher lookup.Searcher
	images   pipeline.ImageDownloader
	notifier mediaserver.Notifier
	opts     ExecOptions
	logger   *slog.Logger
}

// NewSyncExecutor assembles the executor. Searcher, images, and notifier may
// be nil; the corresponding steps are skipped.
func NewSyncExecutor(
	lister gateway.Lister,
	fetcher gateway.Fetcher,
	searcher lookup.Searcher,
	images pipeline.ImageDownloader,
	notifier mediaserver.Notifier,
	opts ExecOptions,
	logger *slog.Logger,
) *SyncExecutor {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = mediaserver.New("", "")
	}
	return &SyncExecutor{
		lister:   lister,
		fetcher:  fetcher,
		searcher: searcher,
		images:   images,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
	}
}

// runSummary is the stats payload stored on the run record.
type runSummary struct {
	Pipeline pipeline.StatsSnapshot   `json:"pipeline"`
	Dedup    dedup.Snapshot           `json:"dedup"`
	Cleanup  *reconcile.CleanupCounts `json:"cleanup,omitempty"`
}

// Execute implements ExecuteFunc.
func (e *SyncExecutor) Execute(ctx context.Context, t task.Task, runID string) (string, error) {
	rename, err := strm.ParseRenameRule(t.RenameRule)
	if err != nil {
		// Bad task configuration aborts before the walk starts.
		return "", services.Wrap(services.ErrConfiguration, "runner", "execute",
			"parse rename rule", err)
	}

	dedupStats := dedup.NewStats()
	deps := pipeline.Deps{
		Fetcher:  e.fetcher,
		Resolver: sidecar.NewResolver(sidecar.Options{
			Descriptors: t.Scrape.Descriptors,
			Images:      t.Scrape.Images,
			Subtitles:   t.Scrape.Subtitles,
		}, e.logger),
		Searcher:   e.searcher,
		Images:     e.images,
		Comparator: dedup.NewComparator(e.opts.HashAlgorithm, e.opts.MaxHashSizeBytes, e.logger),
		DedupStats: dedupStats,
		URLOpts: strm.URLOptions{
			ExtraParams: e.opts.URLParams,
			EncodePath:  t.Scrape.EncodeURL,
		},
		DownloadVideo: t.Scrape.DownloadVideo,
		Logger:        e.logger,
	}

	walker := pipeline.NewWalker(e.lister, e.opts.DiscoveryConcurrency, e.logger)
	orch := pipeline.NewOrchestrator(pipeline.DefaultStages(deps), e.logger)
	engine := pipeline.NewEngine(walker, orch, rename, e.logger)

	outcome, err := engine.Run(ctx, pipeline.RunSpec{
		RemoteRoot: t.RemoteRoot,
		LocalRoot:  t.LocalRoot,
	})
	if err != nil {
		return "", err
	}

	summary := runSummary{
		Pipeline: outcome.Stats,
		Dedup:    dedupStats.Snapshot(),
	}

	if t.Incremental {
		counts := reconcile.New(rename, e.logger).Reconcile(t.LocalRoot, t.RemoteRoot, outcome.Tree)
		summary.Cleanup = &counts
	}

	if outcome.Status == pipeline.StatusFailed {
		return marshalStats(summary), services.Wrap(services.ErrTransient, "runner", "execute",
			"one or more entries failed", nil)
	}

	if err := e.notifier.Refresh(ctx); err != nil {
		// A refresh failure never fails the run; the artifacts are written.
		e.logger.Warn("media server refresh failed", logging.Error(err))
	}
	return marshalStats(summary), nil
}
