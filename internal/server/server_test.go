package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/lyricsense-go/internal/domain"
	"github.com/kapu/lyricsense-go/internal/metrics"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

type fakeService struct {
	songs       []domain.SongResult
	lyrics      domain.LyricsDocument
	translation domain.TranslationResult
	explanation domain.WordExplanation
	analysis    domain.ComprehensiveAnalysis
	enrichment  domain.EnrichmentResult
	audio       domain.AudioStream
	err         error

	lastQuery  domain.SongQuery
	lastTarget string
	lastText   string
	lastLang   string
}

func (f *fakeService) DiscoverSongs(_ context.Context, query domain.SongQuery) ([]domain.SongResult, error) {
	f.lastQuery = query
	return f.songs, f.err
}

func (f *fakeService) ResolveLyrics(context.Context, string, string) (domain.LyricsDocument, error) {
	return f.lyrics, f.err
}

func (f *fakeService) Translate(_ context.Context, text, targetLang string) (domain.TranslationResult, error) {
	f.lastText, f.lastTarget = text, targetLang
	return f.translation, f.err
}

func (f *fakeService) Romanize(text string) (domain.RomanizationResult, error) {
	if text == "" {
		return domain.RomanizationResult{}, errors.NewValidationError("text is required", "text", text)
	}
	return domain.RomanizationResult{RomanizedText: "saranghae"}, nil
}

func (f *fakeService) ExplainWord(context.Context, string, string) (domain.WordExplanation, error) {
	return f.explanation, f.err
}

func (f *fakeService) AnalyzeSongComprehensive(context.Context, string, string, string) (domain.ComprehensiveAnalysis, error) {
	return f.analysis, f.err
}

func (f *fakeService) Enrich(context.Context, domain.EnrichmentRequest) (domain.EnrichmentResult, error) {
	return f.enrichment, f.err
}

func (f *fakeService) Synthesize(_ context.Context, text, lang string) (domain.AudioStream, error) {
	f.lastText, f.lastLang = text, lang
	return f.audio, f.err
}

func newTestServer(svc Service, m *metrics.Metrics) http.Handler {
	return New(svc, Config{
		Port:           8000,
		AllowedOrigins: []string{"*"},
		Metrics:        m,
		Circuits: func() map[string]string {
			return map[string]string{"spotify": "closed", "llm": "closed"}
		},
	}, zap.NewNop()).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(&fakeService{}, nil)

	rec := do(t, h, http.MethodOptions, "/translate", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSongsQueryEmptyList(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(svc, nil)

	rec := do(t, h, http.MethodGet, "/songs?query=Love&artist=Artist&limit=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"songs":[]}`, rec.Body.String())
	assert.Equal(t, domain.SongQuery{Title: "Love", Artist: "Artist", Limit: 3}, svc.lastQuery)
}

func TestSongsBodyShape(t *testing.T) {
	lyrics := "그대여 사랑해"
	svc := &fakeService{songs: []domain.SongResult{
		{Name: "Love", Artist: "IU", URL: "https://open.spotify.com/track/1", Lyrics: &lyrics, LyricsStatus: domain.LyricsStatusFound},
		{Name: "Love 2", Artist: "IU", URL: "https://open.spotify.com/track/2", LyricsStatus: domain.LyricsStatusError},
	}}
	h := newTestServer(svc, nil)

	rec := do(t, h, http.MethodPost, "/songs", `{"query":"Love","artist":"IU"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"songs":[
		{"name":"Love","artist":"IU","url":"https://open.spotify.com/track/1","lyrics":"그대여 사랑해","lyrics_status":"found"},
		{"name":"Love 2","artist":"IU","url":"https://open.spotify.com/track/2","lyrics":null,"lyrics_status":"error"}
	]}`, rec.Body.String())
	assert.Equal(t, "Love", svc.lastQuery.Title)
}

func TestSongsInvalidLimit(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{}, nil), http.MethodGet, "/songs?query=Love&limit=many", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decode(t, rec)["error"])
}

func TestLyricsRoute(t *testing.T) {
	h := newTestServer(&fakeService{lyrics: domain.LyricsDocument{Status: domain.LyricsStatusNotFound}}, nil)

	rec := do(t, h, http.MethodGet, "/lyrics?title=Love&artist=Artist", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"not_found","lyrics":null}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/lyrics", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTranslateAcceptsCamelCaseTarget(t *testing.T) {
	svc := &fakeService{translation: domain.TranslationResult{TranslatedText: "love", TargetLang: "en"}}
	h := newTestServer(svc, nil)

	rec := do(t, h, http.MethodPost, "/translate", `{"text":"사랑","targetLang":"ja"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ja", svc.lastTarget)
	assert.Equal(t, "love", decode(t, rec)["translation"])
}

func TestProviderErrorStatusMapping(t *testing.T) {
	tests := []struct {
		kind   errors.Kind
		status int
	}{
		{errors.KindRateLimited, http.StatusTooManyRequests},
		{errors.KindUnavailable, http.StatusServiceUnavailable},
		{errors.KindUnauthorized, http.StatusBadGateway},
		{errors.KindNotFound, http.StatusBadGateway},
		{errors.KindMalformedResponse, http.StatusBadGateway},
		{errors.KindRejected, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			svc := &fakeService{err: errors.NewProviderError(tt.kind, "google-translate", "detail text")}
			rec := do(t, newTestServer(svc, nil), http.MethodPost, "/translate", `{"text":"사랑"}`)

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.kind.String(), body["error"])
			assert.Equal(t, "detail text", body["detail"])
			assert.Equal(t, "google-translate", body["provider"])
		})
	}
}

func TestInvalidJSONBody(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{}, nil), http.MethodPost, "/romanize", `{"text":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decode(t, rec)["error"])
}

func TestRomanizeRoute(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{}, nil), http.MethodPost, "/romanize", `{"text":"사랑해"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"romanization":"saranghae"}`, rec.Body.String())
}

func TestExplainWordRoute(t *testing.T) {
	svc := &fakeService{explanation: domain.WordExplanation{Text: "Love means deep affection. It is often used in romantic contexts."}}
	rec := do(t, newTestServer(svc, nil), http.MethodPost, "/explain_word", `{"word":"사랑","context":"그대여 사랑해"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"explanation":"Love means deep affection. It is often used in romantic contexts."}`, rec.Body.String())
}

func TestAnalyzeSongRoute(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeService{analysis: domain.ComprehensiveAnalysis{
			CulturalAnalysis: domain.CulturalAnalysis{Roots: "r", Metaphors: "m", Impact: "i"},
			SlangTerms:       []domain.SlangTerm{{Term: "t", Meaning: "m", Origin: "o", Example: "e"}},
		}}
		rec := do(t, newTestServer(svc, nil), http.MethodPost, "/analyze_song_comprehensive", `{"song_title":"Love","artist":"IU","lyrics":"..."}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"cultural_analysis":{"roots":"r","metaphors":"m","impact":"i"},
			"slang_terms":[{"term":"t","meaning":"m","origin":"o","example":"e"}]}`, rec.Body.String())
	})

	t.Run("unparseable output", func(t *testing.T) {
		svc := &fakeService{analysis: domain.ComprehensiveAnalysis{Failed: true, FailureReason: "invalid JSON"}}
		rec := do(t, newTestServer(svc, nil), http.MethodPost, "/analyze_song_comprehensive", `{"song_title":"Love","artist":"IU","lyrics":"..."}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"error":"Analysis failed - invalid response format"}`, rec.Body.String())
	})
}

func TestEnrichRoute(t *testing.T) {
	svc := &fakeService{enrichment: domain.EnrichmentResult{
		Romanization: &domain.RomanizationResult{RomanizedText: "sarang"},
		Errors: map[domain.EnrichmentKind]domain.ErrorEnvelope{
			domain.EnrichmentTranslate: {Error: "unauthorized", Detail: "bad key", Provider: "google-translate"},
		},
	}}
	rec := do(t, newTestServer(svc, nil), http.MethodPost, "/enrich", `{"text":"사랑","kinds":["translate","romanize"]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"romanization":{"romanization":"sarang"},
		"errors":{"translate":{"error":"unauthorized","detail":"bad key","provider":"google-translate"}}}`, rec.Body.String())
}

func TestTTSRoute(t *testing.T) {
	svc := &fakeService{audio: domain.AudioStream{Data: []byte("ID3mp3"), MIMEType: "audio/mpeg", Provider: "google-tts"}}
	rec := do(t, newTestServer(svc, nil), http.MethodGet, "/tts?text=%EC%82%AC%EB%9E%91&lang=ko", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "6", rec.Header().Get("Content-Length"))
	assert.Equal(t, []byte("ID3mp3"), rec.Body.Bytes())
	assert.Equal(t, "사랑", svc.lastText)
	assert.Equal(t, "ko", svc.lastLang)
}

func TestHealthRoute(t *testing.T) {
	h := New(&fakeService{}, Config{
		Circuits: func() map[string]string { return map[string]string{"spotify": "open"} },
	}, zap.NewNop()).Handler()

	rec := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"spotify": "open"}, body["circuits"])
}

func TestMetricsRecordedPerRoute(t *testing.T) {
	m := metrics.New()
	h := newTestServer(&fakeService{}, m)

	do(t, h, http.MethodGet, "/songs?query=Love", "")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCount.WithLabelValues(http.MethodGet, "GET /songs", "2xx")))

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lyricsense_http_requests_total")
}

func TestUnknownRoute(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{}, nil), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
