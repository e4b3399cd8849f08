package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/lyricsense-go/internal/domain"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

// handleSongsQuery handles GET /songs?query=&artist=&limit=
func (s *Server) handleSongsQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	title := q.Get("query")
	if title == "" {
		title = q.Get("title")
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, errors.NewValidationError("limit must be an integer", "limit", raw))
			return
		}
		limit = parsed
	}

	s.discoverSongs(w, r, domain.SongQuery{Title: title, Artist: q.Get("artist"), Limit: limit})
}

// handleSongsBody handles POST /songs
func (s *Server) handleSongsBody(w http.ResponseWriter, r *http.Request) {
	var req SongsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	title := req.Title
	if title == "" {
		title = req.Query
	}
	s.discoverSongs(w, r, domain.SongQuery{Title: title, Artist: req.Artist, Limit: req.Limit})
}

func (s *Server) discoverSongs(w http.ResponseWriter, r *http.Request, query domain.SongQuery) {
	songs, err := s.service.DiscoverSongs(r.Context(), query)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if songs == nil {
		songs = []domain.SongResult{}
	}
	s.respondJSON(w, http.StatusOK, SongsResponse{Songs: songs})
}

// handleLyrics handles GET /lyrics?title=&artist=
func (s *Server) handleLyrics(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		s.respondError(w, errors.NewValidationError("title is required", "title", title))
		return
	}

	doc, err := s.service.ResolveLyrics(r.Context(), title, r.URL.Query().Get("artist"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, LyricsResponse{
		Status: doc.Status,
		Lyrics: doc.LyricsPtr(),
		URL:    doc.SourceURL,
	})
}

// handleTranslate handles POST /translate
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.service.Translate(r.Context(), req.Text, req.Target())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// handleRomanize handles POST /romanize
func (s *Server) handleRomanize(w http.ResponseWriter, r *http.Request) {
	var req RomanizeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.service.Romanize(req.Text)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// handleExplainWord handles POST /explain_word
func (s *Server) handleExplainWord(w http.ResponseWriter, r *http.Request) {
	var req ExplainWordRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	explanation, err := s.service.ExplainWord(r.Context(), req.Word, req.Context)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, ExplainWordResponse{Explanation: explanation.Text})
}

// handleAnalyzeSong handles POST /analyze_song_comprehensive
func (s *Server) handleAnalyzeSong(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeSongRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	analysis, err := s.service.AnalyzeSongComprehensive(r.Context(), req.SongTitle, req.Artist, req.Lyrics)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if analysis.Failed {
		s.logger.Warn("Song analysis returned unusable output",
			zap.String("title", req.SongTitle),
			zap.String("reason", analysis.FailureReason),
		)
		s.respondJSON(w, http.StatusOK, AnalysisFailedResponse{Error: domain.AnalysisFailedMessage})
		return
	}
	s.respondJSON(w, http.StatusOK, analysis)
}

// handleEnrich handles POST /enrich
func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req domain.EnrichmentRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.service.Enrich(r.Context(), req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// handleTTS handles GET /tts?text=&lang= and streams the MP3 bytes.
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	audio, err := s.service.Synthesize(r.Context(), q.Get("text"), q.Get("lang"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", audio.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(audio.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio.Data); err != nil {
		s.logger.Warn("Failed to write audio response", zap.Error(err))
	}
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	circuits := s.circuits()

	status := "healthy"
	for _, state := range circuits {
		if state == "open" {
			status = "degraded"
			break
		}
	}

	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:   status,
		Time:     time.Now().Format(time.RFC3339),
		Circuits: circuits,
	})
}
