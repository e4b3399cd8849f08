package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/lyricsense-go/internal/domain"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

func TestGoogleTTSSynthesize(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/translate_tts", r.URL.Path)
		assert.Equal(t, "tw-ob", r.URL.Query().Get("client"))
		assert.Equal(t, "ko", r.URL.Query().Get("tl"))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("[" + r.URL.Query().Get("idx") + "]"))
	}))
	defer server.Close()

	tts := NewGoogleTTS(GoogleOptions{BaseURL: server.URL}, zap.NewNop())

	audio, err := tts.Synthesize(context.Background(), "사랑", "ko")
	require.NoError(t, err)
	assert.Equal(t, []byte("[0]"), audio.Data)
	assert.Equal(t, "audio/mpeg", audio.MIMEType)
	assert.Equal(t, "google-tts", audio.Provider)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGoogleTTSConcatenatesChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[" + r.URL.Query().Get("idx") + "]"))
	}))
	defer server.Close()

	tts := NewGoogleTTS(GoogleOptions{BaseURL: server.URL}, zap.NewNop())
	text := strings.Repeat("사랑해 ", 60)

	audio, err := tts.Synthesize(context.Background(), text, "ko")
	require.NoError(t, err)
	assert.Equal(t, "[0][1][2]", string(audio.Data))
}

func TestGoogleTTSErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	tts := NewGoogleTTS(GoogleOptions{BaseURL: server.URL}, zap.NewNop())

	_, err := tts.Synthesize(context.Background(), "사랑", "ko")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindRateLimited))

	_, err = tts.Synthesize(context.Background(), "   ", "ko")
	_, ok := errors.AsValidationError(err)
	assert.True(t, ok)
}

func TestSplitText(t *testing.T) {
	assert.Nil(t, SplitText("  ", 10))
	assert.Equal(t, []string{"one two", "three"}, SplitText("one two three", 8))
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, SplitText("abcdefghij", 4))

	for _, chunk := range SplitText(strings.Repeat("사랑해 ", 60), 100) {
		assert.LessOrEqual(t, len([]rune(chunk)), 100)
	}
}

func newOpenAIClient(t *testing.T, server *httptest.Server) *openai.Client {
	t.Helper()
	client := openai.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(server.URL+"/v1/"),
		option.WithMaxRetries(0),
	)
	return &client
}

func TestOpenAITTSSynthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		assert.Equal(t, "application/octet-stream", r.Header.Get("Accept"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tts-1", body["model"])
		assert.Equal(t, "alloy", body["voice"])
		assert.Equal(t, "사랑", body["input"])
		assert.Equal(t, "mp3", body["response_format"])
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	tts := NewOpenAITTS(newOpenAIClient(t, server), "", "", zap.NewNop())

	audio, err := tts.Synthesize(context.Background(), "사랑", "ko")
	require.NoError(t, err)
	assert.Equal(t, "mp3-bytes", string(audio.Data))
	assert.Equal(t, "openai-tts", audio.Provider)
}

func TestOpenAITTSUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	tts := NewOpenAITTS(newOpenAIClient(t, server), "", "", zap.NewNop())

	_, err := tts.Synthesize(context.Background(), "사랑", "ko")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnauthorized))
}

func TestNewOpenAITTSWithoutClient(t *testing.T) {
	assert.Nil(t, NewOpenAITTS(nil, "", "", zap.NewNop()))
}

type fakeSynthesizer struct {
	name  string
	audio domain.AudioStream
	err   error
	calls int
}

func (f *fakeSynthesizer) Name() string { return f.name }

func (f *fakeSynthesizer) Synthesize(context.Context, string, string) (domain.AudioStream, error) {
	f.calls++
	return f.audio, f.err
}

func TestFallbackSynthesizer(t *testing.T) {
	primaryErr := errors.NewProviderError(errors.KindUnavailable, "google-tts", "down")

	t.Run("primary succeeds", func(t *testing.T) {
		primary := &fakeSynthesizer{name: "p", audio: domain.AudioStream{Data: []byte("a"), Provider: "p"}}
		fallback := &fakeSynthesizer{name: "f"}
		audio, err := NewFallbackSynthesizer(primary, fallback, zap.NewNop()).Synthesize(context.Background(), "x", "ko")
		require.NoError(t, err)
		assert.Equal(t, "p", audio.Provider)
		assert.Equal(t, 0, fallback.calls)
	})

	t.Run("fallback used", func(t *testing.T) {
		primary := &fakeSynthesizer{name: "p", err: primaryErr}
		fallback := &fakeSynthesizer{name: "f", audio: domain.AudioStream{Data: []byte("b"), Provider: "f"}}
		audio, err := NewFallbackSynthesizer(primary, fallback, zap.NewNop()).Synthesize(context.Background(), "x", "ko")
		require.NoError(t, err)
		assert.Equal(t, "f", audio.Provider)
	})

	t.Run("both fail reports primary", func(t *testing.T) {
		primary := &fakeSynthesizer{name: "p", err: primaryErr}
		fallback := &fakeSynthesizer{name: "f", err: errors.NewProviderError(errors.KindUnauthorized, "f", "bad key")}
		_, err := NewFallbackSynthesizer(primary, fallback, zap.NewNop()).Synthesize(context.Background(), "x", "ko")
		assert.Same(t, primaryErr, err)
	})

	t.Run("nil fallback returns primary", func(t *testing.T) {
		primary := &fakeSynthesizer{name: "p"}
		assert.Same(t, primary, NewFallbackSynthesizer(primary, nil, zap.NewNop()))
	})
}
