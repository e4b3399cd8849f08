package domain

type LyricsStatus string

const (
	LyricsStatusFound            LyricsStatus = "found"
	LyricsStatusNotFound         LyricsStatus = "not_found"
	LyricsStatusExtractionFailed LyricsStatus = "extraction_failed"
	// LyricsStatusError marks a song whose lyrics lookup failed at the provider.
	LyricsStatusError LyricsStatus = "error"
)

func (s LyricsStatus) String() string {
	return string(s)
}

func (s LyricsStatus) IsValid() bool {
	switch s {
	case LyricsStatusFound, LyricsStatusNotFound, LyricsStatusExtractionFailed, LyricsStatusError:
		return true
	default:
		return false
	}
}

// LyricsDocument is the outcome of a lyrics lookup. Text is only meaningful when
// Status is found; an empty Text with status found is a genuinely blank lyric.
type LyricsDocument struct {
	Status    LyricsStatus `json:"status"`
	Text      string       `json:"lyrics"`
	SourceURL string       `json:"url,omitempty"`
	Title     string       `json:"title,omitempty"`
	Artist    string       `json:"artist,omitempty"`
}

func (d LyricsDocument) Found() bool {
	return d.Status == LyricsStatusFound
}

// LyricsPtr returns the text for response shaping, nil unless found.
func (d LyricsDocument) LyricsPtr() *string {
	if !d.Found() {
		return nil
	}
	text := d.Text
	return &text
}

// LyricsHit is a lyrics-host search hit.
type LyricsHit struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	URL    string `json:"url"`
}
