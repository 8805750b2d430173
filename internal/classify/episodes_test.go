package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreEpisodeTitleContained(t *testing.T) {
	score := ScoreEpisode("Breaking.Bad.The.Pilot.1080p.mkv", time.Time{}, Candidate{
		Season: 1, Episode: 1, Title: "Pilot",
	})
	assert.Equal(t, 50, score)
}

func TestScoreEpisodeAirDateInFileName(t *testing.T) {
	cand := Candidate{Season: 1, Episode: 1, Title: "Pilot", AirDate: "2008-01-20"}

	withDate := ScoreEpisode("Show 2008.01.20 pilot.mkv", time.Time{}, cand)
	withoutDate := ScoreEpisode("Show pilot.mkv", time.Time{}, cand)

	assert.Equal(t, 95, withDate)
	assert.Equal(t, 50, withoutDate)
}

func TestScoreEpisodeAirDateFromModTime(t *testing.T) {
	cand := Candidate{Season: 2, Episode: 3, Title: "Salud", AirDate: "2011-09-18"}
	modTime := time.Date(2011, 9, 18, 20, 30, 0, 0, time.UTC)

	assert.Equal(t, 45, ScoreEpisode("episode three.mkv", modTime, cand))
	assert.Equal(t, 0, ScoreEpisode("episode three.mkv", time.Time{}, cand))
}

func TestScoreEpisodeSynopsisOverlapCapped(t *testing.T) {
	cand := Candidate{
		Season: 1, Episode: 4,
		Title:    "Unrelated",
		Overview: "walter cooks in the desert while jesse watches the money burn",
	}
	score := ScoreEpisode("walter desert money.mkv", time.Time{}, cand)

	assert.Greater(t, score, 0)
	assert.LessOrEqual(t, score, synopsisOverlapMax)
}

func TestScoreEpisodeBounds(t *testing.T) {
	cand := Candidate{
		Season: 1, Episode: 1,
		Title:    "pilot",
		Overview: "pilot pilot pilot",
		AirDate:  "2008-01-20",
	}
	score := ScoreEpisode("pilot 2008-01-20.mkv", time.Time{}, cand)

	assert.LessOrEqual(t, score, 100)
	assert.GreaterOrEqual(t, score, 95)
}

func TestAssignEpisodesClaimExclusivity(t *testing.T) {
	files := []MatchFile{
		{Name: "The Pilot.mkv"},
		{Name: "Cats in the Bag.mkv"},
		{Name: "Pilot copy.mkv"},
	}
	candidates := []Candidate{
		{Season: 1, Episode: 1, Title: "Pilot"},
		{Season: 1, Episode: 2, Title: "Cats in the Bag"},
	}

	got := AssignEpisodes(files, candidates)
	require.Len(t, got, 3)

	assert.Equal(t, Assignment{FileName: "The Pilot.mkv", Season: 1, Episode: 1, Score: 50, Source: "match"}, got[0])
	assert.Equal(t, Assignment{FileName: "Cats in the Bag.mkv", Season: 1, Episode: 2, Score: 50, Source: "match"}, got[1])

	// The duplicate cannot reclaim episode 1; it is numbered after the
	// claimed episodes instead.
	assert.Equal(t, "sequence", got[2].Source)
	assert.Equal(t, 1, got[2].Season)
	assert.Equal(t, 3, got[2].Episode)

	seen := map[string]int{}
	for _, a := range got {
		seen[claimKey(a.Season, a.Episode)]++
	}
	for key, count := range seen {
		assert.Equal(t, 1, count, "episode %s claimed more than once", key)
	}
}

func TestAssignEpisodesStrongPassWinsBeforeRelaxed(t *testing.T) {
	// The second file scores 95 against episode 1 (title + air date) and
	// must claim it even though the first file also matches it weakly.
	files := []MatchFile{
		{Name: "pilot rerun.mkv"},
		{Name: "pilot 2008.01.20.mkv"},
	}
	candidates := []Candidate{
		{Season: 1, Episode: 1, Title: "Pilot", AirDate: "2008-01-20"},
		{Season: 1, Episode: 2, Title: "Pilot Rerun Special"},
	}

	got := AssignEpisodes(files, candidates)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[1].Episode)
	assert.Equal(t, 95, got[1].Score)
	assert.Equal(t, 2, got[0].Episode)
}

func TestAssignEpisodesPatternFallbackUsesPoolSeason(t *testing.T) {
	files := []MatchFile{{Name: "第5集.mkv"}}
	candidates := []Candidate{
		{Season: 3, Episode: 1, Title: "opener"},
		{Season: 3, Episode: 5, Title: "midpoint"},
	}

	got := AssignEpisodes(files, candidates)
	require.Len(t, got, 1)

	assert.Equal(t, "pattern", got[0].Source)
	assert.Equal(t, 3, got[0].Season)
	assert.Equal(t, 5, got[0].Episode)
}

func TestAssignEpisodesSequentialWithoutCandidates(t *testing.T) {
	files := []MatchFile{
		{Name: "part one.mkv"},
		{Name: "part two.mkv"},
	}

	got := AssignEpisodes(files, nil)
	require.Len(t, got, 2)

	assert.Equal(t, Assignment{FileName: "part one.mkv", Season: 1, Episode: 1, Source: "sequence"}, got[0])
	assert.Equal(t, Assignment{FileName: "part two.mkv", Season: 1, Episode: 2, Source: "sequence"}, got[1])
}

func TestExtractEpisodeNumber(t *testing.T) {
	tests := []struct {
		name    string
		season  int
		episode int
		ok      bool
	}{
		{"Show.S02E08.mkv", 2, 8, true},
		{"s1e3.mkv", 1, 3, true},
		{"03 - opening.mkv", 0, 3, true},
		{"第12集.mkv", 0, 12, true},
		{"第３話.mkv", 0, 3, true},
		{"2021 recap.mkv", 0, 0, false},
		{"no numbers here.mkv", 0, 0, false},
	}
	for _, tt := range tests {
		season, episode, ok := ExtractEpisodeNumber(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.season, season, tt.name)
		assert.Equal(t, tt.episode, episode, tt.name)
	}
}
