package provider

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/kapu/lyricsense-go/internal/constants"
	"github.com/kapu/lyricsense-go/internal/util"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

// Client is a small HTTP helper shared by the REST-style adapters. Every failure it
// returns is a *errors.ProviderError tagged with the adapter's name.
type Client struct {
	name       string
	httpClient *http.Client
	breaker    *Breaker
	userAgent  string
	maxBytes   int64
	logger     *zap.Logger
}

func NewClient(name string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.Timeouts.ProviderCall}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		name:       name,
		httpClient: httpClient,
		breaker:    NewBreaker(name, logger),
		userAgent:  constants.APIConfig.UserAgent,
		maxBytes:   constants.DiscoveryConfig.MaxPageBytes,
		logger:     logger.With(zap.String("provider", name)),
	}
}

func (c *Client) Name() string {
	return c.name
}

// State reports the breaker state ("closed", "half-open", "open").
func (c *Client) State() string {
	return c.breaker.State()
}

// Get performs a GET and returns the body of a 2xx response.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	var body []byte
	err := c.breaker.Execute(func() error {
		var err error
		body, err = c.do(ctx, http.MethodGet, rawURL, header)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// GetJSON performs a GET and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, header http.Header, out any) error {
	body, err := c.Get(ctx, rawURL, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.NewProviderError(errors.KindMalformedResponse, c.name, "failed to decode response").WithCause(err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, rawURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, errors.NewProviderError(errors.KindMalformedResponse, c.name, "failed to create request").WithCause(err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Provider request failed",
			zap.String("url", redactQuery(rawURL)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, Classify(c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, Classify(c.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Provider returned error status",
			zap.String("url", redactQuery(rawURL)),
			zap.Int("status", resp.StatusCode),
		)
		detail := fmt.Sprintf("upstream status %d", resp.StatusCode)
		if snippet := strings.TrimSpace(string(body)); snippet != "" {
			detail = fmt.Sprintf("%s: %s", detail, util.TruncateString(snippet, 200))
		}
		return nil, errors.FromStatus(c.name, resp.StatusCode, detail)
	}

	c.logger.Debug("Provider request completed",
		zap.String("url", redactQuery(rawURL)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return body, nil
}

// Classify converts a transport or context error into a ProviderError. Errors that
// already are ProviderErrors pass through unchanged.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsProviderError(err); ok {
		return err
	}

	var retrieveErr *oauth2.RetrieveError
	if stderrors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		status := retrieveErr.Response.StatusCode
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return errors.NewProviderError(errors.KindUnauthorized, provider, "token exchange rejected").
				WithStatus(status).WithCause(err)
		}
		return errors.FromStatus(provider, status, "token exchange failed").WithCause(err)
	}

	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewProviderError(errors.KindUnavailable, provider, "request timed out").WithCause(err)
	case stderrors.Is(err, context.Canceled):
		return errors.NewProviderError(errors.KindUnavailable, provider, "request canceled").WithCause(err)
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.NewProviderError(errors.KindUnavailable, provider, "request timed out").WithCause(err)
	}

	return errors.NewProviderError(errors.KindUnavailable, provider, "request failed").WithCause(err)
}

func redactQuery(rawURL string) string {
	if idx := strings.IndexByte(rawURL, '?'); idx >= 0 {
		return rawURL[:idx]
	}
	return rawURL
}
