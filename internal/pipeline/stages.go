package pipeline

import (
	"context"
	"log/slog"

	"strmsync/internal/classify"
	"strmsync/internal/dedup"
	"strmsync/internal/gateway"
	"strmsync/internal/logging"
	"strmsync/internal/lookup"
	"strmsync/internal/sidecar"
	"strmsync/internal/strm"
)

// ImageDownloader fetches raw image bytes for a metadata-service image path.
type ImageDownloader interface {
	DownloadImage(ctx context.Context, imagePath string) ([]byte, error)
}

// Deps bundles the collaborators the default stage chain needs. Searcher and
// Images may be nil, in which case the enrichment stage reports skipped.
type Deps struct {
	Fetcher  gateway.Fetcher
	Resolver *sidecar.Resolver
	Searcher lookup.Searcher
	Images   ImageDownloader

	Comparator *dedup.Comparator
	DedupStats *dedup.Stats

	URLOpts       strm.URLOptions
	DownloadVideo bool

	MovieRules  []classify.Rule
	TVDirRules  []classify.Rule
	TVFileRules []classify.Rule

	Logger *slog.Logger
}

// Stage orders. The chain is filter, sidecar passthrough, STRM target,
// sidecar acquisition, enrichment, video copy.
const (
	orderFilter      = 10
	orderPassthrough = 20
	orderStrmTarget  = 30
	orderSidecar     = 40
	orderEnrich      = 50
	orderVideoCopy   = 60
)

// DefaultStages assembles the standard chain for one task run.
func DefaultStages(deps Deps) []Stage {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if len(deps.MovieRules) == 0 {
		deps.MovieRules = classify.DefaultMovieRules()
	}
	if len(deps.TVDirRules) == 0 {
		deps.TVDirRules = classify.DefaultTVDirRules()
	}
	if len(deps.TVFileRules) == 0 {
		deps.TVFileRules = classify.DefaultTVFileRules()
	}

	stages := []Stage{
		newFilterStage(),
		newPassthroughStage(),
		newStrmStage(deps.URLOpts),
		newSidecarStage(deps.Resolver, deps.Fetcher, logger),
		newEnrichStage(deps, logger),
	}
	if deps.DownloadVideo {
		stages = append(stages, newVideoCopyStage(deps.Fetcher, deps.Comparator, deps.DedupStats, logger))
	}
	return stages
}
