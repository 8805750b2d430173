// Package strm builds and writes STRM pointer artifacts: one-line files
// holding the playback URL for a remote video.
package strm

import (
	"fmt"
	"regexp"
	"strings"

	"strmsync/internal/sidecar"
	"strmsync/internal/textutil"
)

// RenameRule rewrites file base names during sync. The textual form is
// "pattern|replacement" where pattern is a regular expression and replacement
// may reference capture groups ($1, ${name}).
type RenameRule struct {
	raw         string
	pattern     *regexp.Regexp
	replacement string
}

// ParseRenameRule parses the textual rule form. An empty input yields a nil
// rule; Apply on a nil rule is the identity.
func ParseRenameRule(raw string) (*RenameRule, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	pattern, replacement, found := strings.Cut(raw, "|")
	if !found {
		return nil, fmt.Errorf("rename rule %q: missing '|' separator", raw)
	}
	if pattern == "" {
		return nil, fmt.Errorf("rename rule %q: empty pattern", raw)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("rename rule %q: %w", raw, err)
	}
	return &RenameRule{raw: raw, pattern: re, replacement: replacement}, nil
}

// Apply rewrites name according to the rule. Names the pattern does not
// match pass through unchanged.
func (r *RenameRule) Apply(name string) string {
	if r == nil || r.pattern == nil {
		return name
	}
	return r.pattern.ReplaceAllString(name, r.replacement)
}

// Matches reports whether the rule's pattern matches name at all.
func (r *RenameRule) Matches(name string) bool {
	return r != nil && r.pattern != nil && r.pattern.MatchString(name)
}

// ArtifactBase derives the local base name for a remote file: the remote
// stem run through the rename rule, with characters the filesystem cannot
// take replaced or dropped. Every local artifact of the file (pointer,
// descriptor, images) shares this base.
func ArtifactBase(rule *RenameRule, remoteName string) string {
	return textutil.SanitizeFileName(rule.Apply(sidecar.Stem(remoteName)))
}

// String returns the original textual form.
func (r *RenameRule) String() string {
	if r == nil {
		return ""
	}
	return r.raw
}
