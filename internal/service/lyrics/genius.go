package lyrics

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/lyricsense-go/internal/constants"
	"github.com/kapu/lyricsense-go/internal/domain"
	"github.com/kapu/lyricsense-go/internal/service/provider"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

// Resolver turns a title and artist into a lyrics document. A missing song or a
// page without lyric markup is a document status, never an error.
type Resolver interface {
	ResolveLyrics(ctx context.Context, title, artist string) (domain.LyricsDocument, error)
}

type GeniusOptions struct {
	APIToken   string
	BaseURL    string
	HTTPClient *http.Client
}

type GeniusResolver struct {
	baseURL string
	token   string
	client  *provider.Client
	logger  *zap.Logger
}

func NewGeniusResolver(opts GeniusOptions, logger *zap.Logger) *GeniusResolver {
	if opts.BaseURL == "" {
		opts.BaseURL = constants.APIConfig.GeniusBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.Timeouts.PageFetch}
	}

	return &GeniusResolver{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.APIToken,
		client:  provider.NewClient(constants.ProviderNames.Genius, httpClient, logger),
		logger:  logger,
	}
}

type geniusSearchResponse struct {
	Response struct {
		Hits []struct {
			Type   string `json:"type"`
			Result struct {
				Title         string `json:"title"`
				URL           string `json:"url"`
				PrimaryArtist struct {
					Name string `json:"name"`
				} `json:"primary_artist"`
			} `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

// Search returns the lyrics host's first hit, or nil when there are no hits.
func (r *GeniusResolver) Search(ctx context.Context, title, artist string) (*domain.LyricsHit, error) {
	params := url.Values{}
	params.Set("q", strings.TrimSpace(title+" "+artist))

	header := http.Header{}
	header.Set("Authorization", "Bearer "+r.token)

	var resp geniusSearchResponse
	if err := r.client.GetJSON(ctx, r.baseURL+"/search?"+params.Encode(), header, &resp); err != nil {
		return nil, withStage(err, "search failed")
	}

	for _, hit := range resp.Response.Hits {
		if hit.Result.URL == "" {
			continue
		}
		return &domain.LyricsHit{
			Title:  hit.Result.Title,
			Artist: hit.Result.PrimaryArtist.Name,
			URL:    hit.Result.URL,
		}, nil
	}
	return nil, nil
}

func (r *GeniusResolver) ResolveLyrics(ctx context.Context, title, artist string) (domain.LyricsDocument, error) {
	if strings.TrimSpace(title) == "" {
		return domain.LyricsDocument{}, errors.NewValidationError("title is required", "title", title)
	}

	hit, err := r.Search(ctx, title, artist)
	if err != nil {
		return domain.LyricsDocument{}, err
	}
	if hit == nil {
		r.logger.Debug("No lyrics search hits",
			zap.String("title", title),
			zap.String("artist", artist),
		)
		return domain.LyricsDocument{Status: domain.LyricsStatusNotFound, Title: title, Artist: artist}, nil
	}

	doc := domain.LyricsDocument{
		SourceURL: hit.URL,
		Title:     hit.Title,
		Artist:    hit.Artist,
	}

	page, err := r.client.Get(ctx, hit.URL, nil)
	if err != nil {
		return domain.LyricsDocument{}, withStage(err, "page fetch failed")
	}

	text, found, err := ExtractLyrics(page)
	if err != nil {
		return domain.LyricsDocument{}, errors.NewProviderError(errors.KindMalformedResponse, r.client.Name(), "page parse failed").WithCause(err)
	}
	if !found {
		r.logger.Warn("Lyrics page has no lyric containers",
			zap.String("url", hit.URL),
		)
		doc.Status = domain.LyricsStatusExtractionFailed
		return doc, nil
	}

	doc.Status = domain.LyricsStatusFound
	doc.Text = text
	return doc, nil
}

func (r *GeniusResolver) Name() string {
	return r.client.Name()
}

func (r *GeniusResolver) State() string {
	return r.client.State()
}

// withStage prefixes a provider error's detail with the step that failed.
func withStage(err error, stage string) error {
	pe, ok := errors.AsProviderError(err)
	if !ok {
		return err
	}
	staged := errors.NewProviderError(pe.Kind, pe.Provider, stage+": "+pe.Detail).WithCause(pe)
	if pe.StatusCode != 0 {
		staged = staged.WithStatus(pe.StatusCode)
	}
	return staged
}
