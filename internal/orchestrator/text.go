package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/kapu/lyricsense-go/internal/constants"
	"github.com/kapu/lyricsense-go/internal/domain"
	"github.com/kapu/lyricsense-go/internal/prompt"
	"github.com/kapu/lyricsense-go/internal/service/ai"
	"github.com/kapu/lyricsense-go/internal/util"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

// Translate translates text into targetLang, "en" when empty.
func (o *Orchestrator) Translate(ctx context.Context, text, targetLang string) (result domain.TranslationResult, err error) {
	defer func(start time.Time) { o.observe("translate", start, err) }(time.Now())

	text = strings.TrimSpace(text)
	if text == "" {
		return domain.TranslationResult{}, errors.NewValidationError("text is required", "text", text)
	}
	if utf8.RuneCountInString(text) > constants.DiscoveryConfig.MaxTranslateLength {
		return domain.TranslationResult{}, errors.NewValidationError(
			fmt.Sprintf("text must be at most %d characters", constants.DiscoveryConfig.MaxTranslateLength), "text", nil)
	}

	target, err := normalizeLanguage(targetLang)
	if err != nil {
		return domain.TranslationResult{}, err
	}
	if o.translator == nil {
		return domain.TranslationResult{}, notConfigured(constants.ProviderNames.GoogleTranslate)
	}

	result, err = callWithRetry(ctx, o, "translate", func(ctx context.Context) (domain.TranslationResult, error) {
		return o.translator.Translate(ctx, text, target)
	})
	if err != nil {
		return domain.TranslationResult{}, err
	}
	if result.TargetLang == "" {
		result.TargetLang = target
	}
	return result, nil
}

// normalizeLanguage validates a BCP-47 tag and returns its canonical form.
func normalizeLanguage(lang string) (string, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return constants.DiscoveryConfig.DefaultTargetLang, nil
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return "", errors.NewValidationError("target_lang is not a valid language tag", "target_lang", lang)
	}
	return tag.String(), nil
}

// Romanize is local and never touches the network.
func (o *Orchestrator) Romanize(text string) (result domain.RomanizationResult, err error) {
	defer func(start time.Time) { o.observe("romanize", start, err) }(time.Now())

	if strings.TrimSpace(text) == "" {
		return domain.RomanizationResult{}, errors.NewValidationError("text is required", "text", text)
	}
	return o.romanizer.Romanize(text), nil
}

type generation struct {
	result   ai.ProviderResult
	metadata *ai.GenerateMetadata
}

// ExplainWord asks the model for a short explanation of word as used in context.
// The answer is cut back to its last complete sentence.
func (o *Orchestrator) ExplainWord(ctx context.Context, word, wordContext string) (explanation domain.WordExplanation, err error) {
	defer func(start time.Time) { o.observe("explain_word", start, err) }(time.Now())

	word = strings.TrimSpace(word)
	wordContext = strings.TrimSpace(wordContext)
	if word == "" {
		return domain.WordExplanation{}, errors.NewValidationError("word is required", "word", word)
	}
	if utf8.RuneCountInString(word) > constants.LLMLimits.MaxWordLength {
		return domain.WordExplanation{}, errors.NewValidationError("word is too long", "word", nil)
	}
	if utf8.RuneCountInString(wordContext) > constants.LLMLimits.MaxContextLength {
		return domain.WordExplanation{}, errors.NewValidationError("context is too long", "context", nil)
	}
	if o.models == nil {
		return domain.WordExplanation{}, notConfigured(constants.ProviderNames.OpenAI)
	}

	msg, err := o.prompts.ExplainWord(word, wordContext)
	if err != nil {
		return domain.WordExplanation{}, errors.NewAppError("failed to build prompt", errors.CodeInternal, 500, nil).WithCause(err)
	}

	gen, err := callOnce(ctx, o.opts.CallTimeout, func(ctx context.Context) (generation, error) {
		result, metadata, err := o.models.Generate(ctx, toPrompt(msg), ai.PresetExplain, &ai.GenerateOptions{
			Model: o.opts.ExplainModel,
		})
		return generation{result: result, metadata: metadata}, err
	})
	if err != nil {
		return domain.WordExplanation{}, err
	}

	text, truncated := util.TruncateAtSentenceEnd(strings.TrimSpace(gen.result.Text))
	explanation = domain.WordExplanation{
		Word:      word,
		Context:   wordContext,
		Text:      text,
		Truncated: truncated,
		Model:     gen.result.Model,
	}
	if gen.metadata != nil && gen.metadata.UsedFallback {
		o.logger.Info("Explanation served by fallback model",
			zap.String("provider", gen.metadata.Provider),
			zap.String("model", gen.metadata.Model),
		)
	}
	return explanation, nil
}

type analysisPayload struct {
	CulturalAnalysis *domain.CulturalAnalysis `json:"cultural_analysis"`
	SlangTerms       []domain.SlangTerm       `json:"slang_terms"`
}

// AnalyzeSongComprehensive requests cultural analysis and slang terms in one JSON
// completion. Output that does not parse is reported as a failed analysis, not an
// error; provider failures remain errors.
func (o *Orchestrator) AnalyzeSongComprehensive(ctx context.Context, title, artist, lyrics string) (analysis domain.ComprehensiveAnalysis, err error) {
	defer func(start time.Time) { o.observe("analyze_song", start, err) }(time.Now())

	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)
	if title == "" {
		return domain.ComprehensiveAnalysis{}, errors.NewValidationError("song_title is required", "song_title", title)
	}
	if strings.TrimSpace(lyrics) == "" {
		return domain.ComprehensiveAnalysis{}, errors.NewValidationError("lyrics are required", "lyrics", nil)
	}
	if o.models == nil {
		return domain.ComprehensiveAnalysis{}, notConfigured(constants.ProviderNames.OpenAI)
	}

	budget := prompt.LyricsBudget{
		Model:         o.opts.AnalysisModel,
		MaxTokens:     constants.LLMLimits.MaxLyricsTokens,
		RuneThreshold: constants.LLMLimits.MaxLyricsRunesPrompt,
	}
	lyrics, cut := budget.Fit(lyrics)
	if cut {
		o.logger.Debug("Lyrics trimmed to token budget", zap.String("title", title))
	}

	msg, err := o.prompts.SongAnalysis(title, artist, lyrics)
	if err != nil {
		return domain.ComprehensiveAnalysis{}, errors.NewAppError("failed to build prompt", errors.CodeInternal, 500, nil).WithCause(err)
	}

	var payload analysisPayload
	_, err = callOnce(ctx, o.opts.CallTimeout, func(ctx context.Context) (*ai.GenerateMetadata, error) {
		return o.models.GenerateJSON(ctx, toPrompt(msg), ai.PresetAnalysis, &payload, &ai.GenerateOptions{
			Model: o.opts.AnalysisModel,
		})
	})
	if err != nil {
		if stderrors.Is(err, ai.ErrInvalidJSON) {
			return failedAnalysis(err.Error()), nil
		}
		return domain.ComprehensiveAnalysis{}, err
	}
	if payload.CulturalAnalysis == nil {
		return failedAnalysis("missing cultural_analysis"), nil
	}

	slang := payload.SlangTerms
	if slang == nil {
		slang = []domain.SlangTerm{}
	}
	if len(slang) > constants.LLMLimits.MaxSlangTerms {
		slang = slang[:constants.LLMLimits.MaxSlangTerms]
	}

	return domain.ComprehensiveAnalysis{
		CulturalAnalysis: *payload.CulturalAnalysis,
		SlangTerms:       slang,
	}, nil
}

func failedAnalysis(reason string) domain.ComprehensiveAnalysis {
	return domain.ComprehensiveAnalysis{
		Failed:        true,
		FailureReason: reason,
		SlangTerms:    []domain.SlangTerm{},
	}
}

func toPrompt(msg prompt.Message) ai.Prompt {
	return ai.Prompt{System: msg.System, User: msg.User}
}
