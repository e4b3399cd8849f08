package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/kapu/lyricsense-go/internal/constants"
	"github.com/kapu/lyricsense-go/internal/domain"
	"github.com/kapu/lyricsense-go/internal/service/provider"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

// Searcher finds catalog tracks for a song query.
type Searcher interface {
	SearchTracks(ctx context.Context, query domain.SongQuery) ([]domain.Track, error)
}

type SpotifyOptions struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
	// HTTPClient is used for both the token exchange and the API calls.
	HTTPClient *http.Client
}

// SpotifyClient searches the Spotify catalog with an app-only (client credentials) token.
type SpotifyClient struct {
	baseURL     string
	credentials *clientcredentials.Config
	tokenClient *http.Client
	client      *provider.Client
	logger      *zap.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

func NewSpotifyClient(opts SpotifyOptions, logger *zap.Logger) *SpotifyClient {
	if opts.BaseURL == "" {
		opts.BaseURL = constants.APIConfig.SpotifyBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = constants.APIConfig.SpotifyTokenURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: constants.Timeouts.ProviderCall}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SpotifyClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		credentials: &clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
		},
		tokenClient: opts.HTTPClient,
		client:      provider.NewClient(constants.ProviderNames.Spotify, opts.HTTPClient, logger),
		logger:      logger,
	}
}

// accessToken returns the cached token, exchanging credentials on ctx when it is
// missing or expired.
func (c *SpotifyClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.Valid() {
		return c.token.AccessToken, nil
	}

	token, err := c.credentials.Token(context.WithValue(ctx, oauth2.HTTPClient, c.tokenClient))
	if err != nil {
		c.logger.Warn("Spotify token exchange failed", zap.Error(err))
		return "", provider.Classify(c.client.Name(), err)
	}
	c.token = token
	return token.AccessToken, nil
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

type spotifyTrack struct {
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

// SearchTracks runs a field-scoped track search. Zero hits is an empty slice, not an error.
func (c *SpotifyClient) SearchTracks(ctx context.Context, query domain.SongQuery) ([]domain.Track, error) {
	if strings.TrimSpace(query.Title) == "" {
		return nil, errors.NewValidationError("title is required", "title", query.Title)
	}
	limit := query.Limit
	if limit <= 0 {
		limit = constants.DiscoveryConfig.DefaultLimit
	}

	params := url.Values{}
	params.Set("q", BuildSearchQuery(query.Title, query.Artist))
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	var resp spotifySearchResponse
	if err := c.client.GetJSON(ctx, c.baseURL+"/search?"+params.Encode(), header, &resp); err != nil {
		return nil, err
	}

	tracks := make([]domain.Track, 0, len(resp.Tracks.Items))
	for _, item := range resp.Tracks.Items {
		track := domain.Track{
			Name: item.Name,
			URL:  item.ExternalURLs.Spotify,
		}
		if len(item.Artists) > 0 {
			track.Artist = item.Artists[0].Name
		}
		tracks = append(tracks, track)
	}

	c.logger.Debug("Spotify search completed",
		zap.String("title", query.Title),
		zap.String("artist", query.Artist),
		zap.Int("hits", len(tracks)),
	)
	return tracks, nil
}

func (c *SpotifyClient) Name() string {
	return c.client.Name()
}

func (c *SpotifyClient) State() string {
	return c.client.State()
}

// BuildSearchQuery scopes the search to exact title and artist phrases.
func BuildSearchQuery(title, artist string) string {
	q := fmt.Sprintf("track:%q", strings.TrimSpace(title))
	if artist = strings.TrimSpace(artist); artist != "" {
		q += fmt.Sprintf(" artist:%q", artist)
	}
	return q
}
