package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kapu/lyricsense-go/internal/constants"
	"github.com/kapu/lyricsense-go/internal/domain"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

// Synthesize renders text as MP3 audio in memory. Empty text and lang fall back to
// the demo defaults. Audio is generated fresh on every call.
func (o *Orchestrator) Synthesize(ctx context.Context, text, lang string) (audio domain.AudioStream, err error) {
	defer func(start time.Time) { o.observe("synthesize", start, err) }(time.Now())

	text = strings.TrimSpace(text)
	if text == "" {
		text = constants.SpeechLimits.DefaultText
	}
	if utf8.RuneCountInString(text) > constants.SpeechLimits.MaxTextRunes {
		return domain.AudioStream{}, errors.NewValidationError(
			fmt.Sprintf("text must be at most %d characters", constants.SpeechLimits.MaxTextRunes), "text", nil)
	}

	lang = strings.TrimSpace(lang)
	if lang == "" {
		lang = constants.SpeechLimits.DefaultLang
	}
	if _, parseErr := normalizeLanguage(lang); parseErr != nil {
		return domain.AudioStream{}, errors.NewValidationError("lang is not a valid language tag", "lang", lang)
	}
	if o.speech == nil {
		return domain.AudioStream{}, notConfigured(constants.ProviderNames.GoogleTTS)
	}

	return callWithRetry(ctx, o, "synthesize", func(ctx context.Context) (domain.AudioStream, error) {
		return o.speech.Synthesize(ctx, text, lang)
	})
}
