package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/lyricsense-go/internal/config"
	"github.com/kapu/lyricsense-go/internal/constants"
	"github.com/kapu/lyricsense-go/internal/metrics"
	"github.com/kapu/lyricsense-go/internal/orchestrator"
	"github.com/kapu/lyricsense-go/internal/prompt"
	"github.com/kapu/lyricsense-go/internal/server"
	"github.com/kapu/lyricsense-go/internal/service/ai"
	"github.com/kapu/lyricsense-go/internal/service/catalog"
	"github.com/kapu/lyricsense-go/internal/service/lyrics"
	"github.com/kapu/lyricsense-go/internal/service/romanize"
	"github.com/kapu/lyricsense-go/internal/service/speech"
	"github.com/kapu/lyricsense-go/internal/service/translate"
)

// stateReporter is any component guarded by a circuit breaker.
type stateReporter interface {
	State() string
}

// Container bundles the assembled services.
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
	Orchestrator *orchestrator.Orchestrator

	circuits map[string]stateReporter
	models   *ai.ModelManager
}

// NewServer instantiates the HTTP server over the pre-built dependency graph.
func (c *Container) NewServer() (*server.Server, error) {
	if c == nil || c.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator not initialized")
	}
	return server.New(c.Orchestrator, server.Config{
		Port:           c.Config.Server.Port,
		AllowedOrigins: c.Config.Server.AllowedOrigins,
		Metrics:        c.Metrics,
		Circuits:       c.CircuitStates,
	}, c.Logger), nil
}

// CircuitStates reports every breaker as "closed", "half-open" or "open".
func (c *Container) CircuitStates() map[string]string {
	states := make(map[string]string, len(c.circuits)+1)
	for name, reporter := range c.circuits {
		states[name] = reporter.State()
	}
	if c.models != nil {
		state := c.models.GetCircuitStatus().State.String()
		states["llm"] = strings.ReplaceAll(strings.ToLower(state), "_", "-")
	}
	return states
}

// Build constructs every provider adapter explicitly and wires them into the
// orchestrator. Nothing is held in package-level singletons.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	circuits := make(map[string]stateReporter)

	// Catalog and lyrics
	spotify := catalog.NewSpotifyClient(catalog.SpotifyOptions{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
	}, logger)
	circuits[constants.ProviderNames.Spotify] = spotify

	genius := lyrics.NewGeniusResolver(lyrics.GeniusOptions{
		APIToken: cfg.Genius.APIToken,
	}, logger)
	circuits[constants.ProviderNames.Genius] = genius

	// Translation
	translator, err := translate.NewGoogleTranslator(ctx, translate.GoogleOptions{
		APIKey:          cfg.Google.TranslateAPIKey,
		CredentialsFile: cfg.Google.CredentialsFile,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create translator: %w", err)
	}
	circuits[constants.ProviderNames.GoogleTranslate] = translator

	// AI stack
	openAI := ai.NewOpenAIProvider(ai.OpenAIOptions{
		APIKey:       cfg.OpenAI.APIKey,
		DefaultModel: cfg.OpenAI.ExplainModel,
	}, logger)
	if openAI == nil {
		return nil, fmt.Errorf("openai provider requires an API key")
	}

	mmConfig := ai.ModelManagerConfig{Primary: openAI}
	if cfg.Gemini.EnableFallback && cfg.Gemini.APIKey != "" {
		geminiClient, geminiErr := ai.NewGeminiClient(ctx, cfg.Gemini.APIKey)
		if geminiErr != nil {
			logger.Warn("Failed to initialize Gemini fallback (optional feature)", zap.Error(geminiErr))
		} else {
			mmConfig.Fallback = ai.NewGeminiProvider(geminiClient, cfg.Gemini.Model, logger)
			mmConfig.EnableFallback = true
		}
	}

	modelManager, err := ai.NewModelManager(mmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model manager: %w", err)
	}

	// Speech
	googleTTS := speech.NewGoogleTTS(speech.GoogleOptions{}, logger)
	circuits[constants.ProviderNames.GoogleTTS] = googleTTS

	var synthesizer speech.Synthesizer = googleTTS
	ttsFallback := false
	if cfg.Speech.EnableOpenAIFallback {
		if openAITTS := speech.NewOpenAITTS(openAI.Client(), cfg.Speech.OpenAIModel, cfg.Speech.OpenAIVoice, logger); openAITTS != nil {
			circuits[constants.ProviderNames.OpenAITTS] = openAITTS
			synthesizer = speech.NewFallbackSynthesizer(googleTTS, openAITTS, logger)
			ttsFallback = true
		}
	}

	m := metrics.New()

	go prompt.PreloadTokenizer(cfg.OpenAI.AnalysisModel, logger)

	orch := orchestrator.New(orchestrator.Dependencies{
		Catalog:    spotify,
		Lyrics:     genius,
		Translator: translator,
		Romanizer:  romanize.NewRomanizer(),
		Models:     modelManager,
		Speech:     synthesizer,
		Prompts:    prompt.NewPromptBuilder(),
		Metrics:    m,
		Logger:     logger,
	}, orchestrator.Options{
		ExplainModel:  cfg.OpenAI.ExplainModel,
		AnalysisModel: cfg.OpenAI.AnalysisModel,
		CallTimeout:   cfg.Providers.Timeout,
	})

	logger.Info("Providers initialized",
		zap.Bool("llm_fallback", mmConfig.EnableFallback),
		zap.Bool("tts_fallback", ttsFallback),
		zap.Duration("call_timeout", cfg.Providers.Timeout),
	)

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Metrics:      m,
		Orchestrator: orch,
		circuits:     circuits,
		models:       modelManager,
	}, nil
}
