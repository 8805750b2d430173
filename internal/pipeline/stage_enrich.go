package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"strmsync/internal/classify"
	"strmsync/internal/fileutil"
	"strmsync/internal/logging"
	"strmsync/internal/lookup"
	"strmsync/internal/services"
	"strmsync/internal/sidecar"
)

// newEnrichStage serves the DERIVE tier: sidecars that exist neither locally
// nor remotely are derived from the metadata lookup service, driven by a
// filename classification of the video entry.
func newEnrichStage(deps Deps, logger *slog.Logger) Stage {
	enricher := &enricher{
		deps:     deps,
		logger:   logger.With(logging.String(logging.FieldComponent, "enrich")),
		assigned: make(map[string]map[string]classify.Assignment),
	}
	return Stage{
		Name:  "enrichment",
		Order: orderEnrich,
		Kinds: Kinds(EntryVideo),
		Run:   enricher.run,
	}
}

type enricher struct {
	deps   Deps
	logger *slog.Logger

	// assigned caches the batch episode assignment per remote directory so
	// sibling files share one candidate pool for the whole run: an episode
	// claimed by one file is never handed to another.
	assigned map[string]map[string]classify.Assignment
}

func (e *enricher) run(ctx context.Context, item *Item) (Status, error) {
	raw, ok := item.Attr(AttrPendingDerive)
	if !ok {
		return StatusSkipped, nil
	}
	pending, _ := raw.([]sidecar.Kind)
	if len(pending) == 0 || e.deps.Searcher == nil {
		return StatusSkipped, nil
	}

	desc := classify.Classify(item.Entry.Name, path.Dir(item.Entry.Path),
		e.deps.MovieRules, e.deps.TVDirRules, e.deps.TVFileRules)
	item.SetAttr(AttrDescriptor, desc)
	if desc.IsLowConfidence(0) {
		item.SetAttr(AttrLowConfidence, true)
		e.logger.Info("low confidence classification",
			logging.String(logging.FieldRemotePath, item.Entry.Path),
			logging.String("title", desc.Title),
			logging.Int("confidence", desc.Confidence))
	}

	switch desc.Kind {
	case classify.KindMovie:
		return e.enrichMovie(ctx, item, desc, pending)
	case classify.KindTVShow:
		return e.enrichTV(ctx, item, desc, pending)
	default:
		return StatusSkipped, nil
	}
}

func (e *enricher) enrichMovie(ctx context.Context, item *Item, desc classify.Descriptor, pending []sidecar.Kind) (Status, error) {
	resp, err := e.deps.Searcher.SearchMovie(ctx, desc.CleanTitle, desc.Year)
	if err != nil {
		return StatusFailed, services.Wrap(services.ErrTransient, "enrich", "search-movie", desc.CleanTitle, err)
	}
	best := lookup.BestMatch(resp, desc.Year)
	if best == nil {
		return StatusSkipped, nil
	}
	details, err := e.deps.Searcher.GetMovieDetails(ctx, best.ID)
	if err != nil {
		return StatusFailed, services.Wrap(services.ErrTransient, "enrich", "movie-details", desc.CleanTitle, err)
	}

	var wrote int
	var firstErr error
	for _, kind := range pending {
		var werr error
		switch kind {
		case sidecar.KindDescriptor:
			var doc []byte
			if doc, werr = sidecar.EncodeMovieNFO(*details); werr == nil {
				werr = e.writeOnce(item.SaveDir, sidecar.DescriptorName(item.Base), doc)
			}
		case sidecar.KindPoster:
			werr = e.writeImage(ctx, details.PosterPath, item.SaveDir, sidecar.ImageName(item.Base, kind))
		case sidecar.KindFanart:
			werr = e.writeImage(ctx, details.BackdropPath, item.SaveDir, sidecar.ImageName(item.Base, kind))
		case sidecar.KindThumb:
			werr = e.writeImage(ctx, details.PosterPath, item.SaveDir, sidecar.ImageName(item.Base, kind))
		default:
			continue
		}
		if werr != nil {
			if firstErr == nil {
				firstErr = werr
			}
			continue
		}
		wrote++
	}
	return deriveStatus(wrote, firstErr)
}

func (e *enricher) enrichTV(ctx context.Context, item *Item, desc classify.Descriptor, pending []sidecar.Kind) (Status, error) {
	resp, err := e.deps.Searcher.SearchTV(ctx, desc.CleanTitle, desc.Year)
	if err != nil {
		return StatusFailed, services.Wrap(services.ErrTransient, "enrich", "search-tv", desc.CleanTitle, err)
	}
	best := lookup.BestMatch(resp, desc.Year)
	if best == nil {
		return StatusSkipped, nil
	}
	show, err := e.deps.Searcher.GetTVDetails(ctx, best.ID)
	if err != nil {
		return StatusFailed, services.Wrap(services.ErrTransient, "enrich", "tv-details", desc.CleanTitle, err)
	}

	season, err := e.deps.Searcher.GetSeasonDetails(ctx, show.ID, desc.Season)
	if err != nil {
		return StatusFailed, services.Wrap(services.ErrTransient, "enrich", "season-details", desc.CleanTitle, err)
	}
	episode := e.matchEpisode(item, desc, season.Episodes)

	var wrote int
	var firstErr error
	for _, kind := range pending {
		var werr error
		switch kind {
		case sidecar.KindDescriptor:
			werr = e.writeTVDescriptors(item, show, episode)
		case sidecar.KindPoster:
			// Show-level shared poster, written once per show directory.
			werr = e.writeImageOnce(ctx, show.PosterPath, item.SaveDir, sidecar.ShowPosterName)
		case sidecar.KindFanart:
			werr = e.writeImageOnce(ctx, show.BackdropPath, item.SaveDir, sidecar.ShowFanartName)
		case sidecar.KindThumb:
			if episode != nil {
				werr = e.writeImage(ctx, episode.StillPath, item.SaveDir, sidecar.ImageName(item.Base, kind))
			}
		default:
			continue
		}
		if werr != nil {
			if firstErr == nil {
				firstErr = werr
			}
			continue
		}
		wrote++
	}
	return deriveStatus(wrote, firstErr)
}

// matchEpisode picks the season episode this file represents: an explicit
// season/episode from the filename wins; everything else goes through the
// shared per-directory assignment so no two files claim the same episode.
func (e *enricher) matchEpisode(item *Item, desc classify.Descriptor, episodes []lookup.Episode) *lookup.Episode {
	if len(episodes) == 0 {
		return nil
	}
	if desc.HasSeasonEpisode {
		return episodeByNumber(episodes, desc.Episode)
	}
	assigned, ok := e.directoryAssignments(item, episodes)[item.Entry.Name]
	if !ok {
		return nil
	}
	for idx := range episodes {
		if episodes[idx].EpisodeNumber == assigned.Episode && episodes[idx].SeasonNumber == assigned.Season {
			return &episodes[idx]
		}
	}
	return nil
}

func episodeByNumber(episodes []lookup.Episode, number int) *lookup.Episode {
	for idx := range episodes {
		if episodes[idx].EpisodeNumber == number {
			return &episodes[idx]
		}
	}
	return nil
}

// directoryAssignments runs the batch matcher once per remote directory. All
// sibling videos without an explicit episode number compete for one shared
// candidate pool; episodes named explicitly by a sibling are withheld from it.
func (e *enricher) directoryAssignments(item *Item, episodes []lookup.Episode) map[string]classify.Assignment {
	dir := path.Dir(item.Entry.Path)
	if cached, ok := e.assigned[dir]; ok {
		return cached
	}

	taken := make(map[int]struct{})
	var files []classify.MatchFile
	for _, sib := range item.Siblings {
		if sib.IsDir || !sidecar.IsVideoFile(sib.Name) {
			continue
		}
		sibDesc := classify.Classify(sib.Name, dir,
			e.deps.MovieRules, e.deps.TVDirRules, e.deps.TVFileRules)
		if sibDesc.HasSeasonEpisode {
			taken[sibDesc.Episode] = struct{}{}
			continue
		}
		files = append(files, classify.MatchFile{Name: sib.Name, ModifiedAt: sib.ModifiedAt})
	}

	pool := make([]classify.Candidate, 0, len(episodes))
	for _, ep := range episodes {
		if _, claimed := taken[ep.EpisodeNumber]; claimed {
			continue
		}
		pool = append(pool, classify.Candidate{
			Season:   ep.SeasonNumber,
			Episode:  ep.EpisodeNumber,
			Title:    ep.Name,
			Overview: ep.Overview,
			AirDate:  ep.AirDate,
		})
	}

	assignments := make(map[string]classify.Assignment, len(files))
	for _, a := range classify.AssignEpisodes(files, pool) {
		// The sequential fallback can collide with an explicitly numbered
		// sibling; dropping the assignment beats a duplicate claim.
		if _, claimed := taken[a.Episode]; claimed {
			continue
		}
		assignments[a.FileName] = a
	}
	e.assigned[dir] = assignments
	return assignments
}

func (e *enricher) writeTVDescriptors(item *Item, show *lookup.Result, episode *lookup.Episode) error {
	doc, err := sidecar.EncodeTVShowNFO(*show)
	if err != nil {
		return err
	}
	if err := e.writeOnce(item.SaveDir, sidecar.ShowDescriptorName, doc); err != nil {
		return err
	}
	if episode == nil {
		return nil
	}
	epDoc, err := sidecar.EncodeEpisodeNFO(*episode)
	if err != nil {
		return err
	}
	return e.writeOnce(item.SaveDir, sidecar.DescriptorName(item.Base), epDoc)
}

func (e *enricher) writeImage(ctx context.Context, imagePath, saveDir, target string) error {
	if imagePath == "" || e.deps.Images == nil {
		return nil
	}
	data, err := e.deps.Images.DownloadImage(ctx, imagePath)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(filepath.Join(saveDir, target), data, 0o644)
}

func (e *enricher) writeImageOnce(ctx context.Context, imagePath, saveDir, target string) error {
	if _, err := os.Stat(filepath.Join(saveDir, target)); err == nil {
		return nil
	}
	return e.writeImage(ctx, imagePath, saveDir, target)
}

func (e *enricher) writeOnce(saveDir, name string, data []byte) error {
	target := filepath.Join(saveDir, name)
	if _, err := os.Stat(target); err == nil {
		return nil
	}
	return fileutil.WriteFileAtomic(target, data, 0o644)
}

func deriveStatus(wrote int, firstErr error) (Status, error) {
	switch {
	case firstErr != nil:
		return StatusFailed, firstErr
	case wrote > 0:
		return StatusSuccess, nil
	default:
		return StatusSkipped, nil
	}
}
