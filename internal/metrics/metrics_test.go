package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapu/lyricsense-go/pkg/errors"
)

func TestObserveOperation(t *testing.T) {
	m := New()

	m.ObserveOperation("translate", 10*time.Millisecond, nil)
	m.ObserveOperation("translate", 10*time.Millisecond, errors.NewProviderError(errors.KindRateLimited, "google-translate", "slow down"))
	m.ObserveOperation("translate", time.Millisecond, errors.NewValidationError("text is required", "text", ""))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationCount.WithLabelValues("translate", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationCount.WithLabelValues("translate", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationCount.WithLabelValues("translate", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderErrors.WithLabelValues("google-translate", "rate_limited")))
}

func TestObserveRequestAndRetry(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodGet, "/songs", http.StatusOK, time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/songs", http.StatusServiceUnavailable, time.Millisecond)
	m.ObserveRetry("discover_songs")
	m.ObserveLyrics("found")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCount.WithLabelValues(http.MethodGet, "/songs", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCount.WithLabelValues(http.MethodGet, "/songs", "5xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Retries.WithLabelValues("discover_songs")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LyricsOutcomes.WithLabelValues("found")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.ObserveOperation("x", time.Millisecond, nil)
		m.ObserveRetry("x")
		m.ObserveLyrics("found")
	})
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveRetry("translate")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `lyricsense_provider_retries_total{operation="translate"} 1`)
}
