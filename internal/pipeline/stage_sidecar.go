package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"strmsync/internal/fileutil"
	"strmsync/internal/gateway"
	"strmsync/internal/logging"
	"strmsync/internal/sidecar"
)

// sidecarKinds is the resolution order for a video entry's sidecars.
var sidecarKinds = []sidecar.Kind{
	sidecar.KindDescriptor,
	sidecar.KindPoster,
	sidecar.KindFanart,
	sidecar.KindThumb,
	sidecar.KindSubtitle,
}

// newSidecarStage resolves every sidecar kind for a video entry and downloads
// the REMOTE decisions. DERIVE decisions are queued for the enrichment stage
// through the item attributes. One failing sidecar does not stop the others.
func newSidecarStage(resolver *sidecar.Resolver, fetcher gateway.Fetcher, logger *slog.Logger) Stage {
	return Stage{
		Name:  "sidecar-acquisition",
		Order: orderSidecar,
		Kinds: Kinds(EntryVideo),
		Run: func(ctx context.Context, item *Item) (Status, error) {
			if resolver == nil {
				return StatusSkipped, nil
			}

			var (
				pending  []sidecar.Kind
				fetched  int
				failed   int
				firstErr error
			)
			req := sidecar.Request{
				BaseName: item.Base,
				SaveDir:  item.SaveDir,
				Siblings: sidecar.SiblingSlice(item.Siblings),
			}
			for _, kind := range sidecarKinds {
				decision := resolver.Resolve(kind, req)
				switch decision.Tier {
				case sidecar.TierLocal, sidecar.TierSkipped:
					continue
				case sidecar.TierDerive:
					pending = append(pending, kind)
				case sidecar.TierRemote:
					if err := downloadSidecar(ctx, fetcher, item.SaveDir, decision); err != nil {
						failed++
						if firstErr == nil {
							firstErr = err
						}
						logger.Warn("sidecar download failed",
							logging.String("kind", string(kind)),
							logging.String(logging.FieldRemotePath, item.Entry.Path),
							logging.Error(err))
						continue
					}
					fetched++
				}
			}
			if len(pending) > 0 {
				item.SetAttr(AttrPendingDerive, pending)
			}

			switch {
			case failed > 0:
				return StatusFailed, firstErr
			case fetched > 0:
				return StatusSuccess, nil
			default:
				return StatusSkipped, nil
			}
		},
	}
}

func downloadSidecar(ctx context.Context, fetcher gateway.Fetcher, saveDir string, decision sidecar.Decision) error {
	data, err := fetcher.Fetch(ctx, decision.Source.SignedURL)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(filepath.Join(saveDir, decision.Target), data, 0o644)
}
