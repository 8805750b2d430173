package sidecar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strmsync/internal/gateway"
)

type spyLister struct {
	entries []gateway.Entry
	calls   int
}

func (s *spyLister) Siblings() []gateway.Entry {
	s.calls++
	return s.entries
}

func allEnabled() Options {
	return Options{Descriptors: true, Images: true, Subtitles: true}
}

func writeFixture(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestResolveSkippedBeforeAnyCheck(t *testing.T) {
	resolver := NewResolver(Options{}, nil)
	spy := &spyLister{}

	got := resolver.Resolve(KindDescriptor, Request{
		BaseName: "Movie",
		SaveDir:  "/definitely/not/a/dir",
		Siblings: spy,
	})

	assert.Equal(t, TierSkipped, got.Tier)
	assert.Zero(t, spy.calls, "disabled kinds must short-circuit before the sibling search")
}

func TestResolveLocalNeverSearchesSiblings(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "Movie.nfo")

	resolver := NewResolver(allEnabled(), nil)
	spy := &spyLister{entries: []gateway.Entry{{Name: "Movie.nfo"}}}

	got := resolver.Resolve(KindDescriptor, Request{BaseName: "Movie", SaveDir: dir, Siblings: spy})

	assert.Equal(t, TierLocal, got.Tier)
	assert.Zero(t, spy.calls, "a local hit must not trigger the remote sibling search")
}

func TestResolveRemoteWhenSiblingMatches(t *testing.T) {
	dir := t.TempDir()
	resolver := NewResolver(allEnabled(), nil)
	spy := &spyLister{entries: []gateway.Entry{
		{Name: "Movie-poster.jpg", SignedURL: "https://cdn/poster", Size: 12},
		{Name: "Movie.mkv"},
	}}

	got := resolver.Resolve(KindPoster, Request{BaseName: "Movie", SaveDir: dir, Siblings: spy})

	require.Equal(t, TierRemote, got.Tier)
	require.NotNil(t, got.Source)
	assert.Equal(t, "Movie-poster.jpg", got.Source.Name)
	assert.Equal(t, "Movie-poster.jpg", got.Target)
	assert.Equal(t, 1, spy.calls)
}

func TestResolveDeriveForDescriptorAndImages(t *testing.T) {
	dir := t.TempDir()
	resolver := NewResolver(allEnabled(), nil)

	for _, kind := range []Kind{KindDescriptor, KindPoster, KindFanart, KindThumb} {
		got := resolver.Resolve(kind, Request{
			BaseName: "Movie",
			SaveDir:  dir,
			Siblings: SiblingSlice{{Name: "Movie.mkv"}},
		})
		assert.Equal(t, TierDerive, got.Tier, "kind %s", kind)
		assert.NotEmpty(t, got.Target, "kind %s", kind)
	}
}

func TestResolveSubtitleHasNoDeriveTier(t *testing.T) {
	dir := t.TempDir()
	resolver := NewResolver(allEnabled(), nil)

	got := resolver.Resolve(KindSubtitle, Request{
		BaseName: "Movie",
		SaveDir:  dir,
		Siblings: SiblingSlice{{Name: "Movie.mkv"}},
	})

	assert.Equal(t, TierSkipped, got.Tier)
	assert.Equal(t, "no derive tier for subtitles", got.Reason)
}

func TestResolveSubtitleRemoteKeepsSourceExtension(t *testing.T) {
	dir := t.TempDir()
	resolver := NewResolver(allEnabled(), nil)

	got := resolver.Resolve(KindSubtitle, Request{
		BaseName: "Movie",
		SaveDir:  dir,
		Siblings: SiblingSlice{{Name: "Movie.ASS", SignedURL: "https://cdn/sub"}},
	})

	require.Equal(t, TierRemote, got.Tier)
	assert.Equal(t, "Movie.ass", got.Target)
}

func TestMatchLocalRules(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "The.Movie.2009.nfo")     // descriptor by prefix
	writeFixture(t, dir, "The Movie-poster.jpg")   // image exact suffixed
	writeFixture(t, dir, "the_movie.srt")          // subtitle exact
	writeFixture(t, dir, "The Movie (2009).mkv")   // video prefix + extension
	writeFixture(t, dir, "Completely Unrelated.nfo")

	resolver := NewResolver(allEnabled(), nil)
	for _, kind := range []Kind{KindDescriptor, KindPoster, KindSubtitle} {
		got := resolver.Resolve(kind, Request{BaseName: "The Movie", SaveDir: dir, Siblings: SiblingSlice{}})
		assert.Equal(t, TierLocal, got.Tier, "kind %s", kind)
	}

	// Fanart has no local or remote copy; it falls through to DERIVE.
	got := resolver.Resolve(KindFanart, Request{BaseName: "The Movie", SaveDir: dir, Siblings: SiblingSlice{}})
	assert.Equal(t, TierDerive, got.Tier)

	name, ok := matchName(KindVideo, "The Movie", []string{"notes.txt", "The Movie (2009).mkv"})
	require.True(t, ok)
	assert.Equal(t, "The Movie (2009).mkv", name)
}

func TestMatchNameNeverFuzzy(t *testing.T) {
	_, ok := matchName(KindSubtitle, "Movie", []string{"Movie Part Two.srt"})
	assert.False(t, ok, "subtitle matching is exact, not prefix")

	_, ok = matchName(KindPoster, "Movie", []string{"Movie-thumb.jpg"})
	assert.False(t, ok, "image kinds match only their own suffix")
}
