package speech

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/kapu/lyricsense-go/internal/constants"
	"github.com/kapu/lyricsense-go/internal/domain"
	"github.com/kapu/lyricsense-go/internal/service/provider"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

// Synthesizer turns text into audio.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text, lang string) (domain.AudioStream, error)
}

type GoogleOptions struct {
	BaseURL    string
	HTTPClient *http.Client
}

// GoogleTTS uses the public Google Translate speech endpoint. The endpoint only
// accepts short inputs, so longer text is fetched in chunks and concatenated.
type GoogleTTS struct {
	client  *provider.Client
	baseURL string
	logger  *zap.Logger
}

func NewGoogleTTS(opts GoogleOptions, logger *zap.Logger) *GoogleTTS {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = constants.APIConfig.GoogleTTSBaseURL
	}

	return &GoogleTTS{
		client:  provider.NewClient(constants.ProviderNames.GoogleTTS, opts.HTTPClient, logger),
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

func (g *GoogleTTS) Name() string {
	return constants.ProviderNames.GoogleTTS
}

// State reports the breaker state of the endpoint.
func (g *GoogleTTS) State() string {
	return g.client.State()
}

func (g *GoogleTTS) Synthesize(ctx context.Context, text, lang string) (domain.AudioStream, error) {
	chunks := SplitText(text, constants.SpeechLimits.ChunkRunes)
	if len(chunks) == 0 {
		return domain.AudioStream{}, errors.NewValidationError("text is required", "text", text)
	}

	var audio bytes.Buffer
	for idx, chunk := range chunks {
		params := url.Values{}
		params.Set("ie", "UTF-8")
		params.Set("client", "tw-ob")
		params.Set("tl", lang)
		params.Set("q", chunk)
		params.Set("total", strconv.Itoa(len(chunks)))
		params.Set("idx", strconv.Itoa(idx))
		params.Set("textlen", strconv.Itoa(len([]rune(chunk))))

		body, err := g.client.Get(ctx, g.baseURL+"/translate_tts?"+params.Encode(), nil)
		if err != nil {
			return domain.AudioStream{}, err
		}
		if len(body) == 0 {
			return domain.AudioStream{}, errors.NewProviderError(errors.KindMalformedResponse, g.Name(), "empty audio chunk")
		}
		audio.Write(body)
	}

	g.logger.Debug("Speech synthesized",
		zap.String("provider", g.Name()),
		zap.Int("chunks", len(chunks)),
		zap.Int("bytes", audio.Len()),
	)

	return domain.AudioStream{
		Data:     audio.Bytes(),
		MIMEType: constants.SpeechLimits.AudioMIMEType,
		Provider: g.Name(),
	}, nil
}

// SplitText breaks text into pieces of at most maxRunes runes, preferring word
// boundaries. A single word longer than maxRunes is cut mid-word.
func SplitText(text string, maxRunes int) []string {
	words := strings.FieldsFunc(text, unicode.IsSpace)
	if len(words) == 0 || maxRunes <= 0 {
		return nil
	}

	var chunks []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, string(current))
			current = current[:0]
		}
	}

	for _, word := range words {
		w := []rune(word)
		for len(w) > maxRunes {
			flush()
			chunks = append(chunks, string(w[:maxRunes]))
			w = w[maxRunes:]
		}

		need := len(w)
		if len(current) > 0 {
			need++
		}
		if len(current)+need > maxRunes {
			flush()
		}
		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, w...)
	}
	flush()

	return chunks
}
