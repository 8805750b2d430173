package strm

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"strmsync/internal/fileutil"
)

// Extension is the STRM artifact file extension.
const Extension = ".strm"

// Name returns the STRM file name for a base name.
func Name(base string) string { return base + Extension }

// IsArtifact reports whether the file name is a STRM artifact.
func IsArtifact(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Extension)
}

// URLOptions controls playback URL assembly.
type URLOptions struct {
	// ExtraParams are auth/signing query parameters appended to the URL.
	ExtraParams url.Values
	// EncodePath re-escapes every path segment per RFC 3986. When false the
	// signed URL's path is carried through verbatim.
	EncodePath bool
}

// BuildURL assembles the playback URL written into a STRM artifact from the
// remote entry's signed URL. Without EncodePath the signed URL is carried
// through verbatim; re-serializing it would silently escape characters some
// gateways sign literally.
func BuildURL(signedURL string, opts URLOptions) (string, error) {
	signedURL = strings.TrimSpace(signedURL)
	if signedURL == "" {
		return "", errors.New("signed url is empty")
	}

	out := signedURL
	if opts.EncodePath {
		u, err := url.Parse(signedURL)
		if err != nil {
			return "", fmt.Errorf("parse signed url: %w", err)
		}
		if u.Path != "" {
			segments := strings.Split(u.Path, "/")
			for i, seg := range segments {
				segments[i] = url.PathEscape(seg)
			}
			u.RawPath = strings.Join(segments, "/")
			// Keep Path in sync so RawPath stays a valid encoding of it.
			if decoded, err := url.PathUnescape(u.RawPath); err == nil {
				u.Path = decoded
			}
		}
		out = u.String()
	}

	if len(opts.ExtraParams) > 0 {
		sep := "?"
		if strings.Contains(out, "?") {
			sep = "&"
		}
		out += sep + opts.ExtraParams.Encode()
	}
	return out, nil
}

// WriteIfChanged writes the playback URL to path as a single line, skipping
// the write entirely when the existing content is already identical. The
// boolean reports whether the file was written, so repeat runs against an
// unchanged remote tree produce zero filesystem writes.
func WriteIfChanged(path, playbackURL string) (bool, error) {
	content := []byte(playbackURL + "\n")
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, content) {
		return false, nil
	}
	if err := fileutil.WriteFileAtomic(path, content, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
