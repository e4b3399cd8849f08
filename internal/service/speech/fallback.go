package speech

import (
	"context"

	"go.uber.org/zap"

	"github.com/kapu/lyricsense-go/internal/domain"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

// FallbackSynthesizer tries the primary backend and, when it fails, the fallback.
// The primary error is reported if both fail.
type FallbackSynthesizer struct {
	primary  Synthesizer
	fallback Synthesizer
	logger   *zap.Logger
}

// NewFallbackSynthesizer returns primary unchanged when fallback is nil.
func NewFallbackSynthesizer(primary, fallback Synthesizer, logger *zap.Logger) Synthesizer {
	if fallback == nil {
		return primary
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackSynthesizer{primary: primary, fallback: fallback, logger: logger}
}

func (f *FallbackSynthesizer) Name() string {
	return f.primary.Name()
}

func (f *FallbackSynthesizer) Synthesize(ctx context.Context, text, lang string) (domain.AudioStream, error) {
	audio, primaryErr := f.primary.Synthesize(ctx, text, lang)
	if primaryErr == nil {
		return audio, nil
	}
	if _, ok := errors.AsValidationError(primaryErr); ok || ctx.Err() != nil {
		return domain.AudioStream{}, primaryErr
	}

	f.logger.Warn("Primary speech provider failed, using fallback",
		zap.String("primary", f.primary.Name()),
		zap.String("fallback", f.fallback.Name()),
		zap.Error(primaryErr),
	)

	audio, err := f.fallback.Synthesize(ctx, text, lang)
	if err != nil {
		f.logger.Error("Fallback speech provider failed",
			zap.String("fallback", f.fallback.Name()),
			zap.Error(err),
		)
		return domain.AudioStream{}, primaryErr
	}
	return audio, nil
}
