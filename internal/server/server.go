package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/kapu/lyricsense-go/internal/constants"
	"github.com/kapu/lyricsense-go/internal/domain"
	"github.com/kapu/lyricsense-go/internal/metrics"
	"github.com/kapu/lyricsense-go/internal/orchestrator"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

// Service is the orchestrator surface the handlers call.
type Service interface {
	DiscoverSongs(ctx context.Context, query domain.SongQuery) ([]domain.SongResult, error)
	ResolveLyrics(ctx context.Context, title, artist string) (domain.LyricsDocument, error)
	Translate(ctx context.Context, text, targetLang string) (domain.TranslationResult, error)
	Romanize(text string) (domain.RomanizationResult, error)
	ExplainWord(ctx context.Context, word, wordContext string) (domain.WordExplanation, error)
	AnalyzeSongComprehensive(ctx context.Context, title, artist, lyrics string) (domain.ComprehensiveAnalysis, error)
	Enrich(ctx context.Context, req domain.EnrichmentRequest) (domain.EnrichmentResult, error)
	Synthesize(ctx context.Context, text, lang string) (domain.AudioStream, error)
}

type Config struct {
	Port           int
	AllowedOrigins []string
	Metrics        *metrics.Metrics
	// Circuits reports breaker states by provider name for /health.
	Circuits func() map[string]string
}

const maxBodyBytes = 1 << 20

// Server exposes the enrichment operations over HTTP JSON.
type Server struct {
	service    Service
	config     Config
	logger     *zap.Logger
	httpServer *http.Server
}

func New(service Service, config Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: service,
		config:  config,
		logger:  logger,
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: constants.Timeouts.ReadHeader,
		WriteTimeout:      constants.Timeouts.ServerWrite,
	}
	return s
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// respondError maps an operation error to its status code and envelope.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	s.respondJSON(w, statusFor(err), orchestrator.Envelope(err))
}

func statusFor(err error) int {
	if _, ok := errors.AsValidationError(err); ok {
		return http.StatusBadRequest
	}
	pe, ok := errors.AsProviderError(err)
	if !ok {
		return http.StatusServiceUnavailable
	}
	switch pe.Kind {
	case errors.KindRateLimited:
		return http.StatusTooManyRequests
	case errors.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		s.logger.Debug("Rejected request body", zap.String("path", r.URL.Path), zap.Error(err))
		s.respondError(w, errors.NewValidationError("request body must be valid JSON", "body", nil))
		return false
	}
	return true
}

func (s *Server) circuits() map[string]string {
	if s.config.Circuits == nil {
		return map[string]string{}
	}
	return s.config.Circuits()
}
