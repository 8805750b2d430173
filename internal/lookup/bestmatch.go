package lookup

import "strings"

// BestMatch selects the preferred result from a search response. Selection
// prefers an exact year match among results, else the highest rated result,
// else the first result. Returns nil when the response holds no results.
func BestMatch(resp *Response, year int) *Result {
	if resp == nil || len(resp.Results) == 0 {
		return nil
	}

	if year > 0 {
		for idx := range resp.Results {
			if ReleaseYear(resp.Results[idx]) == year {
				return &resp.Results[idx]
			}
		}
	}

	best := &resp.Results[0]
	for idx := 1; idx < len(resp.Results); idx++ {
		if resp.Results[idx].VoteAverage > best.VoteAverage {
			best = &resp.Results[idx]
		}
	}
	if best.VoteAverage > 0 {
		return best
	}
	return &resp.Results[0]
}

// ReleaseYear parses the four-digit year out of a result's release or first
// air date. Returns 0 when no date is present.
func ReleaseYear(res Result) int {
	date := res.ReleaseDate
	if date == "" {
		date = res.FirstAirDate
	}
	if len(date) < 4 {
		return 0
	}
	year := 0
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		year = year*10 + int(r-'0')
	}
	return year
}

// DisplayTitle returns the movie title or TV name, whichever is set.
func DisplayTitle(res Result) string {
	if strings.TrimSpace(res.Title) != "" {
		return res.Title
	}
	return res.Name
}
