package sidecar

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"strmsync/internal/gateway"
	"strmsync/internal/logging"
	"strmsync/internal/textutil"
)

// Tier is the outcome class of a priority resolution.
type Tier string

const (
	TierLocal   Tier = "LOCAL"
	TierRemote  Tier = "REMOTE"
	TierDerive  Tier = "DERIVE"
	TierSkipped Tier = "SKIPPED"
)

// Decision is the result of resolving one sidecar kind for one video entry.
// LOCAL and REMOTE are terminal; DERIVE hands the kind to the enrichment
// stage; SKIPPED means configuration disabled it or no tier applies.
type Decision struct {
	Tier   Tier
	Target string         // local file name to write (empty for LOCAL/SKIPPED)
	Source *gateway.Entry // remote sibling to fetch, set for REMOTE
	Reason string
}

// Options enables or disables sidecar acquisition per kind.
type Options struct {
	Descriptors bool
	Images      bool
	Subtitles   bool
}

// SiblingLister exposes the already-fetched remote listing of the directory
// containing the current entry. The resolver consults it only after the
// local tier has missed.
type SiblingLister interface {
	Siblings() []gateway.Entry
}

// SiblingSlice adapts a plain entry slice to SiblingLister.
type SiblingSlice []gateway.Entry

func (s SiblingSlice) Siblings() []gateway.Entry { return s }

// Request carries everything the resolver needs for one decision.
type Request struct {
	BaseName string
	SaveDir  string
	Siblings SiblingLister
}

// Resolver applies the fixed SKIPPED -> LOCAL -> REMOTE -> DERIVE order.
type Resolver struct {
	opts   Options
	logger *slog.Logger
}

// NewResolver builds a resolver with the given per-kind acquisition options.
func NewResolver(opts Options, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{opts: opts, logger: logger.With(logging.String(logging.FieldComponent, "sidecar"))}
}

// Resolve decides where the sidecar of the given kind comes from. The order
// is fixed and stops at the first hit:
//
//  1. SKIPPED when configuration disables the kind (before any filesystem or
//     listing check).
//  2. LOCAL when a matching file already exists in the save directory.
//  3. REMOTE when a matching file exists among the remote siblings.
//  4. DERIVE for descriptors and images; subtitles have no derive tier and
//     come back SKIPPED instead.
func (r *Resolver) Resolve(kind Kind, req Request) Decision {
	if !r.enabled(kind) {
		return Decision{Tier: TierSkipped, Reason: "disabled by configuration"}
	}

	if name, ok := matchLocal(kind, req.BaseName, req.SaveDir); ok {
		r.logger.Debug("sidecar already present",
			logging.String("kind", string(kind)),
			logging.String("file", name))
		return Decision{Tier: TierLocal, Reason: "local copy exists"}
	}

	if req.Siblings != nil {
		if entry, ok := matchSibling(kind, req.BaseName, req.Siblings.Siblings()); ok {
			target := TargetName(kind, req.BaseName)
			if target == "" {
				// Subtitle and video targets keep the source extension.
				target = req.BaseName + strings.ToLower(filepath.Ext(entry.Name))
			}
			return Decision{Tier: TierRemote, Target: target, Source: &entry, Reason: "remote sibling exists"}
		}
	}

	if kind == KindSubtitle {
		return Decision{Tier: TierSkipped, Reason: "no derive tier for subtitles"}
	}
	return Decision{Tier: TierDerive, Target: TargetName(kind, req.BaseName), Reason: "no local or remote copy"}
}

func (r *Resolver) enabled(kind Kind) bool {
	switch kind {
	case KindDescriptor:
		return r.opts.Descriptors
	case KindPoster, KindFanart, KindThumb:
		return r.opts.Images
	case KindSubtitle:
		return r.opts.Subtitles
	}
	return false
}

// matchLocal checks the save directory for an existing sidecar. Comparison
// is case-insensitive and ignores punctuation (NormalizeKey). The rule
// differs per kind: descriptors match by base-name prefix, images and
// subtitles by exact suffixed name, video by prefix plus a known extension.
func matchLocal(kind Kind, base, saveDir string) (string, bool) {
	entries, err := os.ReadDir(saveDir)
	if err != nil {
		return "", false
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return matchName(kind, base, names)
}

func matchSibling(kind Kind, base string, siblings []gateway.Entry) (gateway.Entry, bool) {
	names := make([]string, 0, len(siblings))
	byName := make(map[string]gateway.Entry, len(siblings))
	for _, sib := range siblings {
		if sib.IsDir {
			continue
		}
		names = append(names, sib.Name)
		byName[sib.Name] = sib
	}
	name, ok := matchName(kind, base, names)
	if !ok {
		return gateway.Entry{}, false
	}
	return byName[name], true
}

func matchName(kind Kind, base string, names []string) (string, bool) {
	normBase := textutil.NormalizeKey(base)
	if normBase == "" {
		return "", false
	}
	for _, name := range names {
		switch kind {
		case KindDescriptor:
			if IsDescriptorFile(name) && strings.HasPrefix(textutil.NormalizeKey(Stem(name)), normBase) {
				return name, true
			}
		case KindPoster, KindFanart, KindThumb:
			if IsImageFile(name) && textutil.NormalizeKey(Stem(name)) == textutil.NormalizeKey(Stem(ImageName(base, kind))) {
				return name, true
			}
		case KindSubtitle:
			if IsSubtitleFile(name) && textutil.NormalizeKey(Stem(name)) == normBase {
				return name, true
			}
		case KindVideo:
			if IsVideoFile(name) && strings.HasPrefix(textutil.NormalizeKey(Stem(name)), normBase) {
				return name, true
			}
		}
	}
	return "", false
}
