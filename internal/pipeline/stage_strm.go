package pipeline

import (
	"context"
	"path/filepath"

	"strmsync/internal/services"
	"strmsync/internal/strm"
)

// newStrmStage writes the STRM pointer artifact for a video entry. The write
// is idempotent: unchanged content produces no filesystem write and reports
// skipped.
func newStrmStage(urlOpts strm.URLOptions) Stage {
	return Stage{
		Name:  "strm-target",
		Order: orderStrmTarget,
		Kinds: Kinds(EntryVideo),
		Run: func(_ context.Context, item *Item) (Status, error) {
			playbackURL, err := strm.BuildURL(item.Entry.SignedURL, urlOpts)
			if err != nil {
				return StatusFailed, services.Wrap(services.ErrValidation, "pipeline", "strm-target",
					"build playback url", err)
			}
			target := filepath.Join(item.SaveDir, strm.Name(item.Base))
			changed, err := strm.WriteIfChanged(target, playbackURL)
			if err != nil {
				return StatusFailed, services.Wrap(services.ErrTransient, "pipeline", "strm-target",
					"write strm artifact", err)
			}
			if !changed {
				return StatusSkipped, nil
			}
			return StatusSuccess, nil
		},
	}
}
