package classify

import (
	"strconv"
	"strings"
)

// Classify derives a typed media descriptor from a file name and its
// containing directory path. Evaluation order:
//
//  1. TV directory rules against directoryPath (title, year, maybe season).
//  2. TV file rules against the file name (season/episode).
//     When a title and a season number were both obtained the result is a
//     TV show.
//  3. Movie rules against the file name; first match wins.
//
// When nothing matches the descriptor is KindUnknown with confidence 0 and
// the original file name as the title. Classify never fails.
func Classify(fileName, directoryPath string, movieRules, tvDirRules, tvFileRules []Rule) Descriptor {
	desc := Descriptor{
		Kind:             KindUnknown,
		Title:            fileName,
		OriginalFileName: fileName,
	}
	base := BaseName(fileName)

	var (
		tvTitle  string
		tvYear   int
		tvSeason int
		tvEp     int
	)
	for _, rule := range tvDirRules {
		m := rule.match(directoryPath)
		if !m.ok {
			continue
		}
		tvTitle = strings.TrimSpace(m.title)
		tvYear = parseNumber(m.year)
		tvSeason = parseNumber(m.season)
		break
	}
	for _, rule := range tvFileRules {
		m := rule.match(base)
		if !m.ok {
			continue
		}
		if s := parseNumber(m.season); s > 0 {
			tvSeason = s
		}
		tvEp = parseNumber(m.episode)
		break
	}

	if tvTitle != "" && tvSeason > 0 {
		desc.Kind = KindTVShow
		desc.Title = tvTitle
		desc.CleanTitle = CleanTitle(tvTitle)
		desc.Season = tvSeason
		if tvYear > 0 {
			desc.Year = tvYear
			desc.HasYear = true
		}
		if tvEp > 0 {
			desc.Episode = tvEp
			desc.HasSeasonEpisode = true
		}
		desc.scoreConfidence()
		return desc
	}

	for _, rule := range movieRules {
		m := rule.match(base)
		if !m.ok {
			continue
		}
		desc.Kind = KindMovie
		desc.Title = strings.TrimSpace(m.title)
		desc.CleanTitle = CleanTitle(desc.Title)
		if year := parseNumber(m.year); year > 0 {
			desc.Year = year
			desc.HasYear = true
		}
		desc.scoreConfidence()
		return desc
	}

	desc.scoreConfidence()
	return desc
}

func parseNumber(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
