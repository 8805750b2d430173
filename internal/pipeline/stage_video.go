package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"strmsync/internal/dedup"
	"strmsync/internal/fileutil"
	"strmsync/internal/gateway"
	"strmsync/internal/logging"
	"strmsync/internal/services"
)

// newVideoCopyStage downloads the video bytes themselves next to the STRM
// artifact. The dedup comparator runs first: an identical local copy skips
// the transfer entirely.
func newVideoCopyStage(fetcher gateway.Fetcher, comparator *dedup.Comparator, stats *dedup.Stats, logger *slog.Logger) Stage {
	return Stage{
		Name:  "video-copy",
		Order: orderVideoCopy,
		Kinds: Kinds(EntryVideo),
		Run: func(ctx context.Context, item *Item) (Status, error) {
			ext := strings.ToLower(filepath.Ext(item.Entry.Name))
			target := filepath.Join(item.SaveDir, item.Base+ext)

			if comparator != nil {
				if result := comparator.ShouldSkip(item.Entry, target, stats); result.Matched {
					logger.Debug("video copy skipped",
						logging.String(logging.FieldLocalPath, target),
						logging.String("reason", result.Reason))
					return StatusSkipped, nil
				}
			}

			data, err := fetcher.Fetch(ctx, item.Entry.SignedURL)
			if err != nil {
				return StatusFailed, services.Wrap(services.ErrTransient, "pipeline", "video-copy",
					"fetch video bytes", err)
			}
			if err := fileutil.WriteFileAtomic(target, data, 0o644); err != nil {
				return StatusFailed, services.Wrap(services.ErrTransient, "pipeline", "video-copy",
					"write video file", err)
			}
			return StatusSuccess, nil
		},
	}
}
