package strm

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRenameRule(t *testing.T) {
	rule, err := ParseRenameRule(`\.CHS$|.chinese`)
	require.NoError(t, err)
	require.NotNil(t, rule)

	assert.Equal(t, "Movie.chinese", rule.Apply("Movie.CHS"))
	assert.Equal(t, "Movie", rule.Apply("Movie"), "non-matching names pass through")
	assert.True(t, rule.Matches("Movie.CHS"))
	assert.False(t, rule.Matches("Movie"))
}

func TestParseRenameRuleEmptyAndInvalid(t *testing.T) {
	rule, err := ParseRenameRule("  ")
	require.NoError(t, err)
	assert.Nil(t, rule)
	assert.Equal(t, "name", rule.Apply("name"), "nil rule is the identity")

	_, err = ParseRenameRule("no separator")
	assert.Error(t, err)

	_, err = ParseRenameRule(`([|replacement`)
	assert.Error(t, err)
}

func TestParseRenameRuleCaptureGroups(t *testing.T) {
	rule, err := ParseRenameRule(`^(.*) - RAW$|$1`)
	require.NoError(t, err)

	assert.Equal(t, "Show E01", rule.Apply("Show E01 - RAW"))
}

func TestArtifactBase(t *testing.T) {
	assert.Equal(t, "Heat (1995)", ArtifactBase(nil, "Heat (1995).mkv"))
	assert.Equal(t, "What If- Part 1", ArtifactBase(nil, "What If: Part 1.mkv"),
		"unsafe characters never reach the filesystem")

	rule, err := ParseRenameRule(`\.RAW$|`)
	require.NoError(t, err)
	assert.Equal(t, "movie", ArtifactBase(rule, "movie.RAW.mkv"),
		"the rename rule sees the stem before sanitizing")
}

func TestBuildURLAppendsAuthParams(t *testing.T) {
	got, err := BuildURL("https://cdn.example.com/media/file.mkv?sign=abc", URLOptions{
		ExtraParams: url.Values{"token": {"xyz"}},
	})
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "abc", u.Query().Get("sign"))
	assert.Equal(t, "xyz", u.Query().Get("token"))
	assert.Equal(t, "/media/file.mkv", u.Path)
}

func TestBuildURLEncodePathSegments(t *testing.T) {
	raw := "https://cdn.example.com/media/Show Name/第1集.mkv?sign=abc"

	plain, err := BuildURL(raw, URLOptions{})
	require.NoError(t, err)
	encoded, err := BuildURL(raw, URLOptions{EncodePath: true})
	require.NoError(t, err)

	assert.Contains(t, encoded, "/media/Show%20Name/")
	assert.Equal(t, raw, plain, "without the encoding policy the signed url is verbatim")

	// Round trip: the encoded form still parses to the same logical path.
	u, err := url.Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, "/media/Show Name/第1集.mkv", u.Path)
}

func TestBuildURLEmpty(t *testing.T) {
	_, err := BuildURL("   ", URLOptions{})
	assert.Error(t, err)
}

func TestWriteIfChangedIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "movie.strm")

	changed, err := WriteIfChanged(path, "https://cdn/movie.mkv?sign=abc")
	require.NoError(t, err)
	assert.True(t, changed)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/movie.mkv?sign=abc\n", string(content))

	changed, err = WriteIfChanged(path, "https://cdn/movie.mkv?sign=abc")
	require.NoError(t, err)
	assert.False(t, changed, "identical content must not be rewritten")

	changed, err = WriteIfChanged(path, "https://cdn/movie.mkv?sign=def")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestNameAndIsArtifact(t *testing.T) {
	assert.Equal(t, "movie.strm", Name("movie"))
	assert.True(t, IsArtifact("Movie.STRM"))
	assert.False(t, IsArtifact("movie.mkv"))
}
