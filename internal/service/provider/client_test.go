package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/lyricsense-go/pkg/errors"
)

func TestClientGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	}))
	defer server.Close()

	client := NewClient("test", server.Client(), zap.NewNop())

	var out struct {
		Value string `json:"value"`
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer token")
	require.NoError(t, client.GetJSON(context.Background(), server.URL, header, &out))
	assert.Equal(t, "ok", out.Value)
}

func TestClientStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   errors.Kind
	}{
		{http.StatusUnauthorized, errors.KindUnauthorized},
		{http.StatusForbidden, errors.KindUnauthorized},
		{http.StatusNotFound, errors.KindNotFound},
		{http.StatusTooManyRequests, errors.KindRateLimited},
		{http.StatusBadGateway, errors.KindUnavailable},
		{http.StatusTeapot, errors.KindRejected},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			client := NewClient("test", server.Client(), zap.NewNop())
			_, err := client.Get(context.Background(), server.URL, nil)
			require.Error(t, err)

			pe, ok := errors.AsProviderError(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, pe.Kind)
			assert.Equal(t, tt.status, pe.StatusCode)
			assert.Equal(t, "test", pe.Provider)
		})
	}
}

func TestClientMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	client := NewClient("test", server.Client(), zap.NewNop())
	var out map[string]any
	err := client.GetJSON(context.Background(), server.URL, nil, &out)
	assert.True(t, errors.IsKind(err, errors.KindMalformedResponse))
}

func TestClientDeadlineIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient("test", server.Client(), zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, server.URL, nil)
	assert.True(t, errors.IsKind(err, errors.KindUnavailable))
}

func TestClientBreakerOpensOnOutage(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient("test", server.Client(), zap.NewNop())
	for i := 0; i < 10; i++ {
		_, _ = client.Get(context.Background(), server.URL, nil)
	}

	assert.Equal(t, "open", client.State())
	assert.Less(t, calls.Load(), int32(10))
}

func TestClientBreakerIgnoresNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient("test", server.Client(), zap.NewNop())
	for i := 0; i < 10; i++ {
		_, _ = client.Get(context.Background(), server.URL, nil)
	}
	assert.Equal(t, "closed", client.State())
}

func TestClassifyPassesProviderErrorsThrough(t *testing.T) {
	original := errors.NewProviderError(errors.KindRateLimited, "x", "slow down")
	assert.Same(t, original, Classify("y", original))
	assert.True(t, errors.IsKind(Classify("y", context.DeadlineExceeded), errors.KindUnavailable))
	assert.Nil(t, Classify("y", nil))
}
