package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/lyricsense-go/internal/constants"
	"github.com/kapu/lyricsense-go/internal/domain"
	"github.com/kapu/lyricsense-go/internal/metrics"
	"github.com/kapu/lyricsense-go/internal/prompt"
	"github.com/kapu/lyricsense-go/internal/service/ai"
	"github.com/kapu/lyricsense-go/internal/service/romanize"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

type CatalogSearcher interface {
	SearchTracks(ctx context.Context, query domain.SongQuery) ([]domain.Track, error)
}

type LyricsResolver interface {
	ResolveLyrics(ctx context.Context, title, artist string) (domain.LyricsDocument, error)
}

type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (domain.TranslationResult, error)
}

type Romanizer interface {
	Romanize(text string) domain.RomanizationResult
}

// TextGenerator is the language-model surface; *ai.ModelManager implements it.
type TextGenerator interface {
	Generate(ctx context.Context, prompt ai.Prompt, preset ai.ModelPreset, opts *ai.GenerateOptions) (ai.ProviderResult, *ai.GenerateMetadata, error)
	GenerateJSON(ctx context.Context, prompt ai.Prompt, preset ai.ModelPreset, dest any, opts *ai.GenerateOptions) (*ai.GenerateMetadata, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) (domain.AudioStream, error)
}

// Dependencies lists the collaborators. A nil network collaborator makes the
// operations that need it fail with an unavailable ProviderError.
type Dependencies struct {
	Catalog    CatalogSearcher
	Lyrics     LyricsResolver
	Translator Translator
	Romanizer  Romanizer
	Models     TextGenerator
	Speech     Synthesizer
	Prompts    *prompt.PromptBuilder
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

type Options struct {
	ExplainModel  string
	AnalysisModel string
	// CallTimeout bounds every single outbound attempt.
	CallTimeout time.Duration
	Retry       RetryPolicy
}

func DefaultOptions() Options {
	return Options{
		ExplainModel:  "gpt-4o-mini",
		AnalysisModel: "gpt-4-turbo",
		CallTimeout:   constants.Timeouts.ProviderCall,
		Retry:         DefaultRetryPolicy(),
	}
}

// Orchestrator coordinates the provider adapters for every enrichment operation.
// It holds no per-request state.
type Orchestrator struct {
	catalog    CatalogSearcher
	lyrics     LyricsResolver
	translator Translator
	romanizer  Romanizer
	models     TextGenerator
	speech     Synthesizer
	prompts    *prompt.PromptBuilder
	metrics    *metrics.Metrics
	logger     *zap.Logger

	opts     Options
	registry *Registry
}

func New(deps Dependencies, opts Options) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Romanizer == nil {
		deps.Romanizer = romanize.NewRomanizer()
	}
	if deps.Prompts == nil {
		deps.Prompts = prompt.NewPromptBuilder()
	}
	defaults := DefaultOptions()
	if opts.ExplainModel == "" {
		opts.ExplainModel = defaults.ExplainModel
	}
	if opts.AnalysisModel == "" {
		opts.AnalysisModel = defaults.AnalysisModel
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaults.CallTimeout
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = defaults.Retry
	}

	o := &Orchestrator{
		catalog:    deps.Catalog,
		lyrics:     deps.Lyrics,
		translator: deps.Translator,
		romanizer:  deps.Romanizer,
		models:     deps.Models,
		speech:     deps.Speech,
		prompts:    deps.Prompts,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		opts:       opts,
	}
	o.registry = newDefaultRegistry(o)
	return o
}

// observe records the latency and outcome of one operation.
func (o *Orchestrator) observe(operation string, start time.Time, err error) {
	elapsed := time.Since(start)
	o.metrics.ObserveOperation(operation, elapsed, err)
	if err != nil {
		o.logger.Warn("Operation failed",
			zap.String("operation", operation),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return
	}
	o.logger.Debug("Operation completed",
		zap.String("operation", operation),
		zap.Duration("elapsed", elapsed),
	)
}

func notConfigured(provider string) error {
	return errors.NewProviderError(errors.KindUnavailable, provider, "provider not configured")
}
