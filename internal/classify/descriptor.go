package classify

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MediaKind is the classified type of a video file.
type MediaKind string

const (
	KindMovie   MediaKind = "movie"
	KindTVShow  MediaKind = "tv_show"
	KindUnknown MediaKind = "unknown"
)

// DefaultConfidenceThreshold is the score below which a classification is
// considered low confidence. Callers may substitute their own threshold.
const DefaultConfidenceThreshold = 70

// Descriptor is the result of classifying a single video file. It is always
// usable: when nothing matches, Kind is KindUnknown, the title falls back to
// the original file name, and Confidence is zero.
type Descriptor struct {
	Kind             MediaKind
	Title            string
	CleanTitle       string
	Year             int
	HasYear          bool
	Season           int
	Episode          int
	HasSeasonEpisode bool
	Confidence       int
	OriginalFileName string
}

// IsLowConfidence reports whether the descriptor scored below the threshold.
// A non-positive threshold falls back to the default.
func (d Descriptor) IsLowConfidence(threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return d.Confidence < threshold
}

// Confidence weights. The score is monotone in the set of present signals:
// every additional signal can only add points.
const (
	confidenceBase        = 50
	confidenceTitle       = 20
	confidenceYear        = 15
	confidenceEpisode     = 15
	confidenceTitleLength = 10
)

func (d *Descriptor) scoreConfidence() {
	if d.Kind == KindUnknown {
		d.Confidence = 0
		return
	}
	score := confidenceBase
	if strings.TrimSpace(d.Title) != "" {
		score += confidenceTitle
	}
	if d.HasYear {
		score += confidenceYear
	}
	if d.HasSeasonEpisode {
		score += confidenceEpisode
	}
	if plausibleTitleLength(d.CleanTitle) {
		score += confidenceTitleLength
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	d.Confidence = score
}

// plausibleTitleLength rejects titles that are degenerate (single rune) or
// suspiciously long for a real release title.
func plausibleTitleLength(title string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	return n >= 2 && n <= 60
}

// CleanTitle normalizes a raw extracted title for search queries: separator
// runes become spaces and runs of whitespace collapse.
func CleanTitle(raw string) string {
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '.', '_', '-', '[', ']', '(', ')':
			return ' '
		}
		return r
	}, raw)
	return strings.Join(strings.Fields(replaced), " ")
}

// BaseName strips the extension from a file name.
func BaseName(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
