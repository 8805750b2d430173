package textutil

import "strings"

// SanitizeFileName rewrites a name so any mainstream filesystem accepts it.
// Separators and other structural characters become dashes, characters with
// no sensible stand-in are dropped, and surrounding whitespace is trimmed.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '*':
			b.WriteRune('-')
		case '?', '"', '<', '>', '|':
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
