package sidecar

import (
	"encoding/xml"
	"strings"

	"strmsync/internal/lookup"
)

type movieNFO struct {
	XMLName xml.Name `xml:"movie"`

	Title     string `xml:"title"`
	SortTitle string `xml:"sorttitle,omitempty"`
	Plot      string `xml:"plot,omitempty"`

	Year      int    `xml:"year,omitempty"`
	Premiered string `xml:"premiered,omitempty"`

	Rating float64 `xml:"rating,omitempty"`
	Votes  int64   `xml:"votes,omitempty"`

	UniqueID uniqueID `xml:"uniqueid"`

	Genres  []string `xml:"genre,omitempty"`
	Studios []string `xml:"studio,omitempty"`

	Poster string `xml:"poster,omitempty"`
	Fanart string `xml:"fanart,omitempty"`
}

type tvshowNFO struct {
	XMLName xml.Name `xml:"tvshow"`

	Title     string `xml:"title"`
	Plot      string `xml:"plot,omitempty"`
	Year      int    `xml:"year,omitempty"`
	Premiered string `xml:"premiered,omitempty"`

	Rating float64 `xml:"rating,omitempty"`
	Votes  int64   `xml:"votes,omitempty"`

	UniqueID uniqueID `xml:"uniqueid"`

	Genres  []string `xml:"genre,omitempty"`
	Studios []string `xml:"studio,omitempty"`
}

type episodeNFO struct {
	XMLName xml.Name `xml:"episodedetails"`

	Title   string `xml:"title"`
	Plot    string `xml:"plot,omitempty"`
	Season  int    `xml:"season"`
	Episode int    `xml:"episode"`
	Aired   string `xml:"aired,omitempty"`
}

type uniqueID struct {
	Type    string `xml:"type,attr"`
	Default bool   `xml:"default,attr"`
	Value   int64  `xml:",chardata"`
}

// EncodeMovieNFO renders a movie descriptor document from a lookup result.
func EncodeMovieNFO(res lookup.Result) ([]byte, error) {
	doc := movieNFO{
		Title:     strings.TrimSpace(lookup.DisplayTitle(res)),
		Plot:      strings.TrimSpace(res.Overview),
		Year:      lookup.ReleaseYear(res),
		Premiered: strings.TrimSpace(res.ReleaseDate),
		Rating:    res.VoteAverage,
		Votes:     res.VoteCount,
		UniqueID:  uniqueID{Type: "tmdb", Default: true, Value: res.ID},
		Genres:    genreNames(res.Genres),
		Studios:   studioNames(res.Studios),
	}
	return encodeNFO(doc)
}

// EncodeTVShowNFO renders the show-level tvshow.nfo document.
func EncodeTVShowNFO(res lookup.Result) ([]byte, error) {
	doc := tvshowNFO{
		Title:     strings.TrimSpace(lookup.DisplayTitle(res)),
		Plot:      strings.TrimSpace(res.Overview),
		Year:      lookup.ReleaseYear(res),
		Premiered: strings.TrimSpace(res.FirstAirDate),
		Rating:    res.VoteAverage,
		Votes:     res.VoteCount,
		UniqueID:  uniqueID{Type: "tmdb", Default: true, Value: res.ID},
		Genres:    genreNames(res.Genres),
		Studios:   studioNames(res.Studios),
	}
	return encodeNFO(doc)
}

// EncodeEpisodeNFO renders the per-episode descriptor document.
func EncodeEpisodeNFO(ep lookup.Episode) ([]byte, error) {
	doc := episodeNFO{
		Title:   strings.TrimSpace(ep.Name),
		Plot:    strings.TrimSpace(ep.Overview),
		Season:  ep.SeasonNumber,
		Episode: ep.EpisodeNumber,
		Aired:   strings.TrimSpace(ep.AirDate),
	}
	return encodeNFO(doc)
}

func encodeNFO(doc any) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	const header = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>` + "\n"
	out := append([]byte(header), body...)
	return append(out, '\n'), nil
}

func genreNames(genres []lookup.Genre) []string {
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		if name := strings.TrimSpace(g.Name); name != "" {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func studioNames(studios []lookup.Studio) []string {
	out := make([]string, 0, len(studios))
	for _, s := range studios {
		if name := strings.TrimSpace(s.Name); name != "" {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
