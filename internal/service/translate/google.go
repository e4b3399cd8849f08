package translate

import (
	"context"
	stderrors "errors"
	"html"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	translatev2 "google.golang.org/api/translate/v2"

	"github.com/kapu/lyricsense-go/internal/constants"
	"github.com/kapu/lyricsense-go/internal/domain"
	"github.com/kapu/lyricsense-go/internal/service/provider"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

// Translator translates text into a target language.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (domain.TranslationResult, error)
}

type GoogleOptions struct {
	APIKey          string
	CredentialsFile string
	// Endpoint and HTTPClient override the production service, mainly for tests.
	Endpoint   string
	HTTPClient *http.Client
}

// GoogleTranslator wraps the Cloud Translation v2 API.
type GoogleTranslator struct {
	service *translatev2.Service
	breaker *provider.Breaker
	name    string
	logger  *zap.Logger
}

func NewGoogleTranslator(ctx context.Context, opts GoogleOptions, logger *zap.Logger) (*GoogleTranslator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOpts := make([]option.ClientOption, 0, 3)
	switch {
	case opts.HTTPClient != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	case opts.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	service, err := translatev2.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, errors.NewAppError("failed to create translate service", errors.CodeInternal, 500, nil).WithCause(err)
	}

	name := constants.ProviderNames.GoogleTranslate
	return &GoogleTranslator{
		service: service,
		breaker: provider.NewBreaker(name, logger),
		name:    name,
		logger:  logger,
	}, nil
}

func (t *GoogleTranslator) Translate(ctx context.Context, text, targetLang string) (domain.TranslationResult, error) {
	var resp *translatev2.TranslationsListResponse
	err := t.breaker.Execute(func() error {
		var err error
		resp, err = t.service.Translations.List([]string{text}, targetLang).
			Format("text").
			Context(ctx).
			Do()
		if err != nil {
			return t.classify(err)
		}
		return nil
	})
	if err != nil {
		t.logger.Warn("Translation failed",
			zap.String("target", targetLang),
			zap.Error(err),
		)
		return domain.TranslationResult{}, err
	}

	if resp == nil || len(resp.Translations) == 0 || resp.Translations[0] == nil {
		return domain.TranslationResult{}, errors.NewProviderError(errors.KindMalformedResponse, t.name, "response contained no translations")
	}

	first := resp.Translations[0]
	return domain.TranslationResult{
		TranslatedText: html.UnescapeString(first.TranslatedText),
		SourceLang:     first.DetectedSourceLanguage,
		TargetLang:     targetLang,
	}, nil
}

func (t *GoogleTranslator) Name() string {
	return t.name
}

func (t *GoogleTranslator) State() string {
	return t.breaker.State()
}

func (t *GoogleTranslator) classify(err error) error {
	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		detail := strings.TrimSpace(apiErr.Message)
		if detail == "" {
			detail = "translate request failed"
		}
		pe := errors.FromStatus(t.name, apiErr.Code, detail).WithCause(err)
		// The v2 API answers 400 "API key not valid" for bad keys.
		if apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(detail), "api key") {
			pe.Kind = errors.KindUnauthorized
		}
		return pe
	}
	return provider.Classify(t.name, err)
}
