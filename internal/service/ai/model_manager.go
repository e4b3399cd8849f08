package ai

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kapu/lyricsense-go/internal/constants"
	"github.com/kapu/lyricsense-go/internal/util"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

// ErrInvalidJSON marks model output that could not be decoded as JSON. It is the
// cause of the malformed_response error GenerateJSON returns in that case.
var ErrInvalidJSON = stderrors.New("model output is not valid JSON")

// ModelManager routes generation to a primary provider, falling back to a second one,
// behind a shared circuit breaker.
type ModelManager struct {
	primary        TextProvider
	fallback       TextProvider
	enableFallback bool
	circuitBreaker *util.CircuitBreaker
	logger         *zap.Logger
}

type ModelManagerConfig struct {
	Primary        TextProvider
	Fallback       TextProvider
	EnableFallback bool
}

func NewModelManager(cfg ModelManagerConfig, logger *zap.Logger) (*ModelManager, error) {
	if cfg.Primary == nil {
		return nil, errors.NewAppError("primary model provider is required", errors.CodeInternal, 500, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mm := &ModelManager{
		primary: cfg.Primary,
		logger:  logger,
	}
	mm.enableFallback = cfg.EnableFallback && cfg.Fallback != nil
	if mm.enableFallback {
		mm.fallback = cfg.Fallback
		logger.Info("Model fallback enabled",
			zap.String("primary", cfg.Primary.Name()),
			zap.String("fallback", cfg.Fallback.Name()),
		)
	} else {
		logger.Info("Model fallback disabled", zap.String("primary", cfg.Primary.Name()))
	}

	mm.circuitBreaker = util.NewCircuitBreaker(
		"llm",
		constants.CircuitBreakerConfig.FailureThreshold,
		constants.CircuitBreakerConfig.ResetTimeout,
		constants.CircuitBreakerConfig.HealthCheckInterval,
		mm.healthCheckPing,
		logger,
	)

	return mm, nil
}

// Generate returns raw model text. Failures are ProviderErrors attributed to the
// primary provider unless only the fallback was tried.
func (mm *ModelManager) Generate(ctx context.Context, prompt Prompt, preset ModelPreset, opts *GenerateOptions) (ProviderResult, *GenerateMetadata, error) {
	if !mm.circuitBreaker.CanExecute() {
		status := mm.circuitBreaker.GetStatus()
		mm.logger.Error("AI service unavailable (Circuit OPEN)",
			zap.String("state", status.State.String()),
			zap.Int("failure_count", status.FailureCount),
		)
		return ProviderResult{}, nil, errors.NewProviderError(errors.KindUnavailable, mm.primary.Name(), "model circuit open")
	}

	primaryResult, primaryErr := mm.primary.Generate(ctx, prompt, preset, opts)
	if primaryErr == nil {
		mm.circuitBreaker.RecordSuccess()
		return primaryResult, &GenerateMetadata{
			Provider: mm.primary.Name(),
			Model:    primaryResult.Model,
		}, nil
	}

	if mm.enableFallback && ctx.Err() == nil {
		mm.logger.Warn("Primary model failed, trying fallback",
			zap.String("primary", mm.primary.Name()),
			zap.Error(primaryErr),
		)
		fallbackResult, fallbackErr := mm.fallback.Generate(ctx, prompt, preset, opts)
		if fallbackErr == nil {
			mm.circuitBreaker.RecordSuccess()
			return fallbackResult, &GenerateMetadata{
				Provider:     mm.fallback.Name(),
				Model:        fallbackResult.Model,
				UsedFallback: true,
			}, nil
		}

		mm.recordFailure(primaryErr)
		mm.recordFailure(fallbackErr)
		mm.logger.Error("All model providers failed",
			zap.NamedError("primary_error", primaryErr),
			zap.NamedError("fallback_error", fallbackErr),
		)
		return ProviderResult{}, nil, primaryErr
	}

	mm.recordFailure(primaryErr)
	return ProviderResult{}, nil, primaryErr
}

// GenerateJSON runs the request in JSON mode and decodes the reply into dest. Output
// that is not valid JSON is a malformed_response ProviderError.
func (mm *ModelManager) GenerateJSON(ctx context.Context, prompt Prompt, preset ModelPreset, dest any, opts *GenerateOptions) (*GenerateMetadata, error) {
	var options GenerateOptions
	if opts != nil {
		options = *opts
	}
	options.JSONMode = true

	result, metadata, err := mm.Generate(ctx, prompt, preset, &options)
	if err != nil {
		return nil, err
	}
	return mm.decodeJSON(result.Text, metadata, dest)
}

func (mm *ModelManager) decodeJSON(text string, metadata *GenerateMetadata, dest any) (*GenerateMetadata, error) {
	cleaned := util.StripCodeFence(text)
	if cleaned == "" {
		return metadata, errors.NewProviderError(errors.KindMalformedResponse, metadata.Provider, "empty response").WithCause(ErrInvalidJSON)
	}

	if err := json.Unmarshal([]byte(cleaned), dest); err != nil {
		mm.logger.Error("Failed to unmarshal JSON response",
			zap.String("provider", metadata.Provider),
			zap.Error(err),
			zap.String("response_preview", util.TruncateString(cleaned, 200)),
		)
		return metadata, errors.NewProviderError(errors.KindMalformedResponse, metadata.Provider, "invalid JSON in model response").
			WithCause(fmt.Errorf("%w: %v", ErrInvalidJSON, err))
	}

	return metadata, nil
}

func (mm *ModelManager) recordFailure(err error) {
	pe, ok := errors.AsProviderError(err)
	if !ok || !pe.Kind.Retryable() {
		return
	}
	if stderrors.Is(err, context.Canceled) {
		return
	}

	timeout := constants.CircuitBreakerConfig.ResetTimeout
	if pe.Kind == errors.KindRateLimited {
		timeout = constants.CircuitBreakerConfig.RateLimitTimeout
	}

	mm.circuitBreaker.RecordFailure(timeout)
}

func (mm *ModelManager) healthCheckPing() bool {
	mm.logger.Info("Health Check: Testing AI services...")

	ctx, cancel := context.WithTimeout(context.Background(), 2*constants.Timeouts.HealthCheckPing)
	defer cancel()

	primaryOK := mm.primary.Ping(ctx)

	fallbackOK := false
	if mm.enableFallback {
		fallbackOK = mm.fallback.Ping(ctx)
	}

	isHealthy := primaryOK || fallbackOK

	mm.logger.Info("Health Check: Result",
		zap.Bool("primary", primaryOK),
		zap.Bool("fallback", fallbackOK),
		zap.Bool("healthy", isHealthy),
	)

	return isHealthy
}

func (mm *ModelManager) GetCircuitStatus() util.CircuitBreakerStatus {
	return mm.circuitBreaker.GetStatus()
}

func (mm *ModelManager) ResetCircuit() {
	mm.circuitBreaker.Reset()
}
