package speech

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/openai/openai-go/v3"
	"go.uber.org/zap"

	"github.com/kapu/lyricsense-go/internal/constants"
	"github.com/kapu/lyricsense-go/internal/domain"
	"github.com/kapu/lyricsense-go/internal/service/provider"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

// OpenAITTS synthesizes speech with the SDK's audio speech endpoint.
type OpenAITTS struct {
	client  *openai.Client
	breaker *provider.Breaker
	model   string
	voice   string
	logger  *zap.Logger
}

func NewOpenAITTS(client *openai.Client, model, voice string, logger *zap.Logger) *OpenAITTS {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if model == "" {
		model = constants.SpeechLimits.OpenAIModel
	}
	if voice == "" {
		voice = constants.SpeechLimits.OpenAIVoice
	}

	return &OpenAITTS{
		client:  client,
		breaker: provider.NewBreaker(constants.ProviderNames.OpenAITTS, logger),
		model:   model,
		voice:   voice,
		logger:  logger,
	}
}

func (o *OpenAITTS) Name() string {
	return constants.ProviderNames.OpenAITTS
}

func (o *OpenAITTS) State() string {
	return o.breaker.State()
}

// Synthesize ignores lang; the model detects the language from the input.
func (o *OpenAITTS) Synthesize(ctx context.Context, text, _ string) (domain.AudioStream, error) {
	var data []byte
	err := o.breaker.Execute(func() error {
		res, err := o.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
			Model:          openai.SpeechModel(o.model),
			Input:          text,
			Voice:          openai.AudioSpeechNewParamsVoice(o.voice),
			ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		})
		if err != nil {
			return o.classify(err)
		}
		defer res.Body.Close()

		var readErr error
		data, readErr = io.ReadAll(io.LimitReader(res.Body, constants.SpeechLimits.MaxAudioBytes))
		if readErr != nil {
			return provider.Classify(o.Name(), readErr)
		}
		if len(data) == 0 {
			return errors.NewProviderError(errors.KindMalformedResponse, o.Name(), "empty audio response")
		}
		return nil
	})
	if err != nil {
		return domain.AudioStream{}, err
	}

	return domain.AudioStream{
		Data:     data,
		MIMEType: constants.SpeechLimits.AudioMIMEType,
		Provider: o.Name(),
	}, nil
}

func (o *OpenAITTS) classify(err error) error {
	var apiErr *openai.Error
	if stderrors.As(err, &apiErr) {
		return errors.FromStatus(o.Name(), apiErr.StatusCode, apiErr.Message).WithCause(err)
	}
	return provider.Classify(o.Name(), err)
}
