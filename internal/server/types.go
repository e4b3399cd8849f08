package server

import "github.com/kapu/lyricsense-go/internal/domain"

// SongsRequest is the body of POST /songs. Query is accepted as an alias of Title.
type SongsRequest struct {
	Title  string `json:"title"`
	Query  string `json:"query"`
	Artist string `json:"artist"`
	Limit  int    `json:"limit"`
}

type SongsResponse struct {
	Songs []domain.SongResult `json:"songs"`
}

type LyricsResponse struct {
	Status domain.LyricsStatus `json:"status"`
	Lyrics *string             `json:"lyrics"`
	URL    string              `json:"url,omitempty"`
}

// TranslateRequest accepts both target_lang and targetLang.
type TranslateRequest struct {
	Text            string `json:"text"`
	TargetLang      string `json:"target_lang"`
	TargetLangCamel string `json:"targetLang"`
}

func (r TranslateRequest) Target() string {
	if r.TargetLang != "" {
		return r.TargetLang
	}
	return r.TargetLangCamel
}

type RomanizeRequest struct {
	Text string `json:"text"`
}

type ExplainWordRequest struct {
	Word    string `json:"word"`
	Context string `json:"context"`
}

type ExplainWordResponse struct {
	Explanation string `json:"explanation"`
}

type AnalyzeSongRequest struct {
	SongTitle string `json:"song_title"`
	Artist    string `json:"artist"`
	Lyrics    string `json:"lyrics"`
}

type AnalysisFailedResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status   string            `json:"status"`
	Time     string            `json:"time"`
	Circuits map[string]string `json:"circuits"`
}
