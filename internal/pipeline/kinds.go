// Package pipeline drives discovered remote entries through an ordered chain
// of stages: filter, STRM target generation, sidecar acquisition, metadata
// enrichment, and the optional video copy. Stages declare which entry kinds
// they handle and are dispatched by a single loop with per-stage panic
// recovery; one failing entry never blocks the rest of the tree.
package pipeline

import "strmsync/internal/sidecar"

// EntryKind classifies a remote file entry for stage dispatch.
type EntryKind string

const (
	EntryVideo      EntryKind = "video"
	EntryDescriptor EntryKind = "descriptor"
	EntryImage      EntryKind = "image"
	EntrySubtitle   EntryKind = "subtitle"
	EntryOther      EntryKind = "other"
	// EntryAll marks a stage as applicable to every entry kind.
	EntryAll EntryKind = "all"
)

// KindSet is the set of entry kinds a stage declares it handles.
type KindSet map[EntryKind]struct{}

// Kinds builds a KindSet.
func Kinds(kinds ...EntryKind) KindSet {
	set := make(KindSet, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return set
}

// Contains reports whether the set admits the given kind. A set holding
// EntryAll admits everything.
func (s KindSet) Contains(kind EntryKind) bool {
	if _, ok := s[EntryAll]; ok {
		return true
	}
	_, ok := s[kind]
	return ok
}

// KindOf classifies a file name by extension.
func KindOf(name string) EntryKind {
	switch {
	case sidecar.IsVideoFile(name):
		return EntryVideo
	case sidecar.IsDescriptorFile(name):
		return EntryDescriptor
	case sidecar.IsImageFile(name):
		return EntryImage
	case sidecar.IsSubtitleFile(name):
		return EntrySubtitle
	default:
		return EntryOther
	}
}
