package orchestrator

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/lyricsense-go/internal/constants"
	"github.com/kapu/lyricsense-go/internal/domain"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

// DiscoverSongs searches the catalog and attaches lyrics to every hit. Catalog
// failures are returned; a lyrics failure only degrades that song.
func (o *Orchestrator) DiscoverSongs(ctx context.Context, query domain.SongQuery) (songs []domain.SongResult, err error) {
	defer func(start time.Time) { o.observe("discover_songs", start, err) }(time.Now())

	query = query.Normalized(constants.DiscoveryConfig.DefaultLimit, constants.DiscoveryConfig.MaxLimit)
	if query.Title == "" {
		return nil, errors.NewValidationError("title is required", "title", query.Title)
	}
	if o.catalog == nil {
		return nil, notConfigured(constants.ProviderNames.Spotify)
	}

	tracks, err := callWithRetry(ctx, o, "discover_songs", func(ctx context.Context) ([]domain.Track, error) {
		return o.catalog.SearchTracks(ctx, query)
	})
	if err != nil {
		return nil, err
	}

	songs = make([]domain.SongResult, len(tracks))
	if len(tracks) == 0 {
		return songs, nil
	}

	p := pool.New().WithMaxGoroutines(constants.DiscoveryConfig.LyricsConcurrency)
	for idx, track := range tracks {
		p.Go(func() {
			songs[idx] = o.songWithLyrics(ctx, track)
		})
	}
	p.Wait()

	return songs, nil
}

func (o *Orchestrator) songWithLyrics(ctx context.Context, track domain.Track) domain.SongResult {
	song := domain.SongResult{
		Name:   track.Name,
		Artist: track.Artist,
		URL:    track.URL,
	}

	doc, err := o.ResolveLyrics(ctx, track.Name, track.Artist)
	if err != nil {
		o.logger.Warn("Lyrics lookup failed, returning song without lyrics",
			zap.String("title", track.Name),
			zap.String("artist", track.Artist),
			zap.Error(err),
		)
		song.LyricsStatus = domain.LyricsStatusError
		return song
	}

	song.Lyrics = doc.LyricsPtr()
	song.LyricsStatus = doc.Status
	return song
}

// ResolveLyrics returns the tri-state lyrics document for one song.
func (o *Orchestrator) ResolveLyrics(ctx context.Context, title, artist string) (doc domain.LyricsDocument, err error) {
	defer func(start time.Time) { o.observe("resolve_lyrics", start, err) }(time.Now())

	if o.lyrics == nil {
		return domain.LyricsDocument{}, notConfigured(constants.ProviderNames.Genius)
	}

	doc, err = callWithRetry(ctx, o, "resolve_lyrics", func(ctx context.Context) (domain.LyricsDocument, error) {
		return o.lyrics.ResolveLyrics(ctx, title, artist)
	})
	if err != nil {
		return domain.LyricsDocument{}, err
	}

	o.metrics.ObserveLyrics(doc.Status.String())
	return doc, nil
}
