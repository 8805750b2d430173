package classify

import "regexp"

// Rule is a single classification pattern. Captures are extracted through the
// named groups "title", "year", "season", and "episode"; absent groups simply
// contribute nothing. Rule lists are evaluated in caller-supplied order and
// the first match wins, so ordering is a caller contract.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// MustRule compiles a rule, panicking on an invalid pattern. Intended for
// package-level defaults and tests.
func MustRule(name, pattern string) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(pattern)}
}

type ruleMatch struct {
	title   string
	year    string
	season  string
	episode string
	ok      bool
}

func (r Rule) match(input string) ruleMatch {
	if r.Pattern == nil {
		return ruleMatch{}
	}
	sub := r.Pattern.FindStringSubmatch(input)
	if sub == nil {
		return ruleMatch{}
	}
	m := ruleMatch{ok: true}
	for idx, name := range r.Pattern.SubexpNames() {
		if idx == 0 || idx >= len(sub) {
			continue
		}
		switch name {
		case "title":
			m.title = sub[idx]
		case "year":
			m.year = sub[idx]
		case "season":
			m.season = sub[idx]
		case "episode":
			m.episode = sub[idx]
		}
	}
	return m
}

// DefaultMovieRules matches "Title (Year)" shapes first, then titles delimited
// by a release-quality token.
func DefaultMovieRules() []Rule {
	return []Rule{
		MustRule("title-year", `^(?P<title>.+?)[.\s_\-(\[]+(?P<year>(?:19|20)\d{2})(?:[)\]._\s-]|$)`),
		MustRule("title-quality", `(?i)^(?P<title>.+?)[.\s_-]+(?:2160p|1080p|720p|480p|4k|bluray|blu-ray|web-?dl|webrip|hdtv|remux|x264|x265|hevc|av1)`),
	}
}

// DefaultTVDirRules extracts the show title (and optional year or season)
// from the containing directory path.
func DefaultTVDirRules() []Rule {
	return []Rule{
		MustRule("show-season-dir", `(?i)(?P<title>[^/\\]+?)(?:[.\s(\[]+(?P<year>(?:19|20)\d{2})[)\]]?)?[/\\]+Season[\s._-]*(?P<season>\d{1,3})[/\\]*$`),
		MustRule("show-sxx-dir", `(?i)(?P<title>[^/\\]+?)(?:[.\s(\[]+(?P<year>(?:19|20)\d{2})[)\]]?)?[/\\]+S(?P<season>\d{1,2})[/\\]*$`),
		MustRule("show-dir", `(?P<title>[^/\\]+?)(?:[.\s(\[]+(?P<year>(?:19|20)\d{2})[)\]]?)?[/\\]*$`),
	}
}

// DefaultTVFileRules extracts season/episode numbers from the file name.
func DefaultTVFileRules() []Rule {
	return []Rule{
		MustRule("sxxeyy", `(?i)S(?P<season>\d{1,2})[\s._-]*E(?P<episode>\d{1,3})`),
		MustRule("nxm", `(?i)(?:^|[^\d])(?P<season>\d{1,2})x(?P<episode>\d{2,3})(?:[^\d]|$)`),
		MustRule("season-episode-words", `(?i)Season[\s._-]*(?P<season>\d{1,3}).{0,12}?Episode[\s._-]*(?P<episode>\d{1,4})`),
	}
}
