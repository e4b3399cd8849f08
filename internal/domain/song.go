package domain

import "strings"

type SongQuery struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Limit  int    `json:"limit,omitempty"`
}

// Normalized trims the query fields and clamps Limit into [1, maxLimit].
func (q SongQuery) Normalized(defaultLimit, maxLimit int) SongQuery {
	q.Title = strings.TrimSpace(q.Title)
	q.Artist = strings.TrimSpace(q.Artist)
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return q
}

// Track is a single catalog hit before lyrics are attached.
type Track struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	URL    string `json:"url"`
}

type SongResult struct {
	Name         string       `json:"name"`
	Artist       string       `json:"artist"`
	URL          string       `json:"url"`
	Lyrics       *string      `json:"lyrics"`
	LyricsStatus LyricsStatus `json:"lyrics_status"`
}

func (s *SongResult) HasLyrics() bool {
	return s != nil && s.Lyrics != nil
}
