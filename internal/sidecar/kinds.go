// Package sidecar implements the naming conventions for descriptor, image,
// and subtitle files attached to a video artifact, and the priority resolver
// that decides where each sidecar comes from.
package sidecar

import (
	"path/filepath"
	"strings"
)

// Kind identifies a sidecar variant. Video is included because the resolver
// shares its local-match rules with the optional video copy path.
type Kind string

const (
	KindDescriptor Kind = "descriptor"
	KindPoster     Kind = "poster"
	KindFanart     Kind = "fanart"
	KindThumb      Kind = "thumb"
	KindSubtitle   Kind = "subtitle"
	KindVideo      Kind = "video"
)

// ImageKinds lists the per-item image sidecars in their conventional order.
var ImageKinds = []Kind{KindPoster, KindFanart, KindThumb}

// Show-level shared files live at the show directory root without a base
// name prefix.
const (
	ShowPosterName     = "poster.jpg"
	ShowFanartName     = "fanart.jpg"
	ShowDescriptorName = "tvshow.nfo"
)

// DescriptorName is the descriptor file name for a base name.
func DescriptorName(base string) string { return base + ".nfo" }

// ImageName is the suffixed image file name for a base name and image kind.
// Non-image kinds return an empty string.
func ImageName(base string, kind Kind) string {
	switch kind {
	case KindPoster:
		return base + "-poster.jpg"
	case KindFanart:
		return base + "-fanart.jpg"
	case KindThumb:
		return base + "-thumb.jpg"
	}
	return ""
}

// TargetName is the conventional local file name a resolved sidecar is
// written as. Subtitles and video keep the remote file's extension, so their
// target depends on the matched source and is filled in by the resolver.
func TargetName(kind Kind, base string) string {
	switch kind {
	case KindDescriptor:
		return DescriptorName(base)
	case KindPoster, KindFanart, KindThumb:
		return ImageName(base, kind)
	}
	return ""
}

var subtitleExtensions = map[string]struct{}{
	".srt": {}, ".ass": {}, ".ssa": {}, ".sub": {}, ".vtt": {}, ".smi": {},
}

var videoExtensions = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {},
	".ts": {}, ".m2ts": {}, ".webm": {}, ".mpg": {}, ".mpeg": {}, ".iso": {},
	".rmvb": {}, ".m4v": {},
}

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {},
}

// IsSubtitleFile reports whether the name carries a known subtitle extension.
func IsSubtitleFile(name string) bool {
	_, ok := subtitleExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// IsVideoFile reports whether the name carries a known video extension.
func IsVideoFile(name string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// IsImageFile reports whether the name carries a known image extension.
func IsImageFile(name string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// IsDescriptorFile reports whether the name is an NFO descriptor.
func IsDescriptorFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".nfo")
}

// Stem strips the extension from a file name.
func Stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
