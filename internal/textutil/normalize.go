package textutil

import (
	"strings"
	"unicode"
)

// NormalizeKey lowercases the input and strips every non-alphanumeric rune.
// Sidecar and artifact name comparisons go through this so that punctuation,
// spacing, and case differences never defeat a match.
func NormalizeKey(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range strings.ToLower(input) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tokens splits the input into lowercase word tokens, treating any run of
// non-alphanumeric runes as a separator. Tokens shorter than two runes are
// dropped; they carry no signal for fuzzy matching.
func Tokens(input string) []string {
	fields := strings.FieldsFunc(strings.ToLower(input), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

// TokenOverlap counts how many tokens of a appear in b.
func TokenOverlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(b))
	for _, t := range b {
		set[t] = struct{}{}
	}
	overlap := 0
	for _, t := range a {
		if _, ok := set[t]; ok {
			overlap++
		}
	}
	return overlap
}
