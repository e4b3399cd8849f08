package server

import (
	"net/http"
)

// Handler builds the routed handler wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /songs", s.handleSongsQuery)
	mux.HandleFunc("POST /songs", s.handleSongsBody)
	mux.HandleFunc("GET /lyrics", s.handleLyrics)
	mux.HandleFunc("POST /translate", s.handleTranslate)
	mux.HandleFunc("POST /romanize", s.handleRomanize)
	mux.HandleFunc("POST /explain_word", s.handleExplainWord)
	mux.HandleFunc("POST /analyze_song_comprehensive", s.handleAnalyzeSong)
	mux.HandleFunc("POST /enrich", s.handleEnrich)
	mux.HandleFunc("GET /tts", s.handleTTS)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.config.Metrics.Handler())

	return s.requestMiddleware(corsMiddleware(s.config.AllowedOrigins)(mux))
}
