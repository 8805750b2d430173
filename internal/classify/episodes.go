package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"

	"strmsync/internal/textutil"
)

// Candidate is a remote-service episode record offered to the matcher.
type Candidate struct {
	Season   int
	Episode  int
	Title    string
	Overview string
	AirDate  string // YYYY-MM-DD, may be empty
}

// Assignment pairs a file with the episode it was matched to.
type Assignment struct {
	FileName string
	Season   int
	Episode  int
	Score    int
	Source   string // "match", "pattern", or "sequence"
}

// MatchFile is a local video file offered to the batch matcher.
type MatchFile struct {
	Name       string
	ModifiedAt time.Time
}

// Scoring weights for the fuzzy episode matcher.
const (
	titleOverlapMax    = 50
	airDatePoints      = 45
	synopsisOverlapMax = 10

	strongMatchThreshold  = 70
	relaxedMatchThreshold = 40
)

// ScoreEpisode scores how well a file name matches an episode candidate on a
// [0,100] scale. Three independent signals contribute: keyword overlap with
// the episode title (up to 50), an exact air-date match (45), and keyword
// overlap with the synopsis (up to 10).
func ScoreEpisode(fileName string, fileDate time.Time, cand Candidate) int {
	base := foldWidth(BaseName(fileName))
	fileTokens := textutil.Tokens(base)
	score := 0

	if titleTokens := textutil.Tokens(cand.Title); len(titleTokens) > 0 {
		if normTitle := textutil.NormalizeKey(cand.Title); normTitle != "" &&
			strings.Contains(textutil.NormalizeKey(base), normTitle) {
			score += titleOverlapMax
		} else {
			overlap := textutil.TokenOverlap(titleTokens, fileTokens)
			score += titleOverlapMax * overlap / len(titleTokens)
		}
	}

	if cand.AirDate != "" && airDateMatches(base, fileDate, cand.AirDate) {
		score += airDatePoints
	}

	if overviewTokens := textutil.Tokens(cand.Overview); len(overviewTokens) > 0 && len(fileTokens) > 0 {
		overlap := textutil.TokenOverlap(fileTokens, overviewTokens)
		bonus := synopsisOverlapMax * overlap / len(fileTokens)
		if bonus > synopsisOverlapMax {
			bonus = synopsisOverlapMax
		}
		score += bonus
	}

	if score > 100 {
		score = 100
	}
	return score
}

var fileDatePattern = regexp.MustCompile(`(?:^|[^\d])((?:19|20)\d{2})[.\-_ ]?(\d{2})[.\-_ ]?(\d{2})(?:[^\d]|$)`)

func airDateMatches(base string, fileDate time.Time, airDate string) bool {
	want, err := time.Parse("2006-01-02", airDate)
	if err != nil {
		return false
	}
	if m := fileDatePattern.FindStringSubmatch(base); m != nil {
		got, err := time.Parse("2006-01-02", fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3]))
		if err == nil {
			return got.Equal(want)
		}
	}
	if !fileDate.IsZero() {
		y1, m1, d1 := fileDate.Date()
		y2, m2, d2 := want.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	}
	return false
}

// AssignEpisodes maps a batch of files to episode candidates. Two passes run
// over the unmatched files: the first accepts only strong matches (>=70) and
// claims the winning episode immediately so later files cannot steal it; the
// second relaxes the threshold to >=40. Files still unmatched fall back to
// extracting an episode number from filename patterns, and finally to
// sequential auto-numbering, so every file leaves with some assignment.
func AssignEpisodes(files []MatchFile, candidates []Candidate) []Assignment {
	assignments := make(map[string]Assignment, len(files))
	claimed := make(map[string]struct{}, len(candidates))
	pool := append([]Candidate(nil), candidates...)

	for _, threshold := range []int{strongMatchThreshold, relaxedMatchThreshold} {
		for _, file := range files {
			if _, done := assignments[file.Name]; done {
				continue
			}
			bestIdx, bestScore := -1, -1
			for idx, cand := range pool {
				if _, taken := claimed[claimKey(cand.Season, cand.Episode)]; taken {
					continue
				}
				score := ScoreEpisode(file.Name, file.ModifiedAt, cand)
				if score > bestScore {
					bestIdx, bestScore = idx, score
				}
			}
			if bestIdx < 0 || bestScore < threshold {
				continue
			}
			cand := pool[bestIdx]
			claimed[claimKey(cand.Season, cand.Episode)] = struct{}{}
			assignments[file.Name] = Assignment{
				FileName: file.Name,
				Season:   cand.Season,
				Episode:  cand.Episode,
				Score:    bestScore,
				Source:   "match",
			}
		}
	}

	defaultSeason := poolSeason(candidates)
	for _, file := range files {
		if _, done := assignments[file.Name]; done {
			continue
		}
		if season, episode, ok := ExtractEpisodeNumber(file.Name); ok {
			if season == 0 {
				season = defaultSeason
			}
			if _, taken := claimed[claimKey(season, episode)]; !taken {
				claimed[claimKey(season, episode)] = struct{}{}
				assignments[file.Name] = Assignment{
					FileName: file.Name,
					Season:   season,
					Episode:  episode,
					Source:   "pattern",
				}
				continue
			}
		}
		episode := nextFreeEpisode(claimed, defaultSeason)
		claimed[claimKey(defaultSeason, episode)] = struct{}{}
		assignments[file.Name] = Assignment{
			FileName: file.Name,
			Season:   defaultSeason,
			Episode:  episode,
			Source:   "sequence",
		}
	}

	out := make([]Assignment, 0, len(files))
	for _, file := range files {
		out = append(out, assignments[file.Name])
	}
	return out
}

func claimKey(season, episode int) string {
	return strconv.Itoa(season) + ":" + strconv.Itoa(episode)
}

// poolSeason returns the season shared by all candidates, or 1 when the pool
// is empty or mixed.
func poolSeason(candidates []Candidate) int {
	season := 0
	for _, cand := range candidates {
		if season == 0 {
			season = cand.Season
			continue
		}
		if cand.Season != season {
			return 1
		}
	}
	if season == 0 {
		return 1
	}
	return season
}

func nextFreeEpisode(claimed map[string]struct{}, season int) int {
	taken := make([]int, 0, len(claimed))
	prefix := strconv.Itoa(season) + ":"
	for key := range claimed {
		if rest, ok := strings.CutPrefix(key, prefix); ok {
			if n, err := strconv.Atoi(rest); err == nil {
				taken = append(taken, n)
			}
		}
	}
	sort.Ints(taken)
	next := 1
	for _, n := range taken {
		if n == next {
			next++
		}
	}
	return next
}

var (
	sxxEyyPattern        = regexp.MustCompile(`(?i)S(\d{1,2})[\s._-]*E(\d{1,3})`)
	leadingNumberPattern = regexp.MustCompile(`^\s*(\d{1,4})(?:[^\d]|$)`)
	cjkEpisodePattern    = regexp.MustCompile(`第\s*(\d{1,4})\s*[期集話话回]`)
)

// ExtractEpisodeNumber pulls a season/episode pair directly out of a file
// name. Recognized shapes, tried in order: SxxEyy, a leading number, and the
// CJK counter forms 第N期/第N集. Fullwidth digits are folded to ASCII before
// matching. A zero season means the pattern carried no season information.
func ExtractEpisodeNumber(fileName string) (season, episode int, ok bool) {
	base := foldWidth(BaseName(fileName))

	if m := sxxEyyPattern.FindStringSubmatch(base); m != nil {
		return parseNumber(m[1]), parseNumber(m[2]), true
	}
	if m := cjkEpisodePattern.FindStringSubmatch(base); m != nil {
		if n := parseNumber(m[1]); n > 0 {
			return 0, n, true
		}
	}
	if m := leadingNumberPattern.FindStringSubmatch(base); m != nil {
		if n := parseNumber(m[1]); n > 0 && n < 1900 {
			return 0, n, true
		}
	}
	return 0, 0, false
}

func foldWidth(input string) string {
	return width.Fold.String(input)
}
