package saavn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"music-gateway-go/logcolors"
	"music-gateway-go/stats"

	log "github.com/sirupsen/logrus"
)

// Store is the cache surface the service needs. Values are serialized
// JSON; a Set failure is logged by the store and never fails a request.
type Store interface {
	Get(key string) (string, bool)
	Set(key string, value string, ttl time.Duration) error
}

// Service resolves music metadata from the upstream, caching successful
// responses per TTL class.
type Service struct {
	client      *Client
	cache       Store
	songTTL     time.Duration // song, album, artist, lyrics
	searchTTL   time.Duration // search, related
	trendingTTL time.Duration // trending, charts
}

// NewService wires the metadata resolver.
func NewService(client *Client, cache Store, songTTL, searchTTL, trendingTTL time.Duration) *Service {
	return &Service{
		client:      client,
		cache:       cache,
		songTTL:     songTTL,
		searchTTL:   searchTTL,
		trendingTTL: trendingTTL,
	}
}

// SongTTL exposes the long-lived TTL class for response headers.
func (s *Service) SongTTL() time.Duration { return s.songTTL }

// SearchTTL exposes the short-lived TTL class for response headers.
func (s *Service) SearchTTL() time.Duration { return s.searchTTL }

// TrendingTTL exposes the browse TTL class for response headers.
func (s *Service) TrendingTTL() time.Duration { return s.trendingTTL }

// cached looks up key and decodes the stored JSON into out.
func (s *Service) cached(key string, out interface{}) bool {
	raw, ok := s.cache.Get(key)
	if !ok {
		stats.Get().RecordCacheMiss()
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Warnf("%s Dropping undecodable entry for %s: %v", logcolors.LogCache, key, err)
		stats.Get().RecordCacheMiss()
		return false
	}
	stats.Get().RecordCacheHit()
	return true
}

// store serializes value under key. Only successful results reach here;
// failures are never cached.
func (s *Service) store(key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Warnf("%s Failed to encode entry for %s: %v", logcolors.LogCache, key, err)
		return
	}
	if err := s.cache.Set(key, string(data), ttl); err != nil {
		log.Warnf("%s Failed to store entry for %s: %v", logcolors.LogCache, key, err)
	}
}

// Search runs a song search. Blank queries return an empty result
// without touching the upstream.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Song, error) {
	if query == "" {
		return []Song{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	// Queries differing only in case share one entry.
	key := fmt.Sprintf("search:%s:%d", strings.ToLower(query), limit)
	var songs []Song
	if s.cached(key, &songs) {
		return songs, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))
	data, err := s.client.Get(ctx, "/search/songs", params)
	if err != nil {
		return nil, err
	}

	var results rawSearchResults
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("%w: decoding search results: %v", ErrUpstreamPermanent, err)
	}

	songs = normalizeSongs(results.Results)
	if len(songs) > limit {
		songs = songs[:limit]
	}
	log.Infof("%s %q returned %d songs", logcolors.LogSearch, query, len(songs))

	s.store(key, songs, s.searchTTL)
	s.cacheSongsFromList(results.Results)
	return songs, nil
}

// SearchArtists runs an artist search.
func (s *Service) SearchArtists(ctx context.Context, query string, limit int) ([]ArtistResult, error) {
	if query == "" {
		return []ArtistResult{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	key := fmt.Sprintf("search_artist:%s:%d", strings.ToLower(query), limit)
	var artists []ArtistResult
	if s.cached(key, &artists) {
		return artists, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))
	data, err := s.client.Get(ctx, "/search/artists", params)
	if err != nil {
		return nil, err
	}

	var results rawArtistSearchResults
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("%w: decoding artist results: %v", ErrUpstreamPermanent, err)
	}

	artists = normalizeArtistResults(results.Results)
	if len(artists) > limit {
		artists = artists[:limit]
	}
	s.store(key, artists, s.searchTTL)
	return artists, nil
}

// fetchSongData returns the raw upstream song record for id, consulting
// the cache first. The raw record is cached rather than the normalized
// shape so the stream resolver can reuse the download variants.
func (s *Service) fetchSongData(ctx context.Context, id string) (*rawSong, error) {
	if !validID(id) {
		return nil, ErrInvalidID
	}

	key := "song:" + id
	var song rawSong
	if s.cached(key, &song) {
		return &song, nil
	}

	data, err := s.client.Get(ctx, "/songs/"+id, nil)
	if err != nil {
		return nil, err
	}

	// The song endpoint returns a one-element array.
	var list []rawSong
	if err := json.Unmarshal(data, &list); err != nil {
		if err := json.Unmarshal(data, &song); err != nil {
			return nil, fmt.Errorf("%w: decoding song: %v", ErrUpstreamPermanent, err)
		}
		list = []rawSong{song}
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	song = list[0]

	s.store(key, &song, s.songTTL)
	return &song, nil
}

// cacheSongsFromList opportunistically caches full song records from a
// list response. Records without download variants are skipped so a
// later detail fetch is not answered with a degraded entry.
func (s *Service) cacheSongsFromList(raws []rawSong) {
	cached := 0
	for i := range raws {
		r := &raws[i]
		if r.ID == "" || len(r.DownloadURL) == 0 {
			continue
		}
		s.store("song:"+r.ID, r, s.songTTL)
		cached++
	}
	if cached > 0 {
		log.Debugf("%s Cached %d songs from list response", logcolors.LogCacheSongs, cached)
	}
}

// GetSongDetails returns the normalized song for id.
func (s *Service) GetSongDetails(ctx context.Context, id string) (*Song, error) {
	raw, err := s.fetchSongData(ctx, id)
	if err != nil {
		return nil, err
	}
	song := normalizeSong(raw)
	return &song, nil
}

// GetAlbum returns the album with its full track list.
func (s *Service) GetAlbum(ctx context.Context, id string) (*Album, error) {
	if !validID(id) {
		return nil, ErrInvalidID
	}

	key := "album:" + id
	var album Album
	if s.cached(key, &album) {
		return &album, nil
	}

	params := url.Values{}
	params.Set("id", id)
	data, err := s.client.Get(ctx, "/albums", params)
	if err != nil {
		return nil, err
	}

	var raw rawAlbum
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding album: %v", ErrUpstreamPermanent, err)
	}

	album = normalizeAlbum(&raw)
	s.store(key, &album, s.songTTL)
	s.cacheSongsFromList(raw.Songs)
	return &album, nil
}

// GetArtist returns the artist with top songs and albums.
func (s *Service) GetArtist(ctx context.Context, id string) (*Artist, error) {
	if !validID(id) {
		return nil, ErrInvalidID
	}

	key := "artist:" + id
	var artist Artist
	if s.cached(key, &artist) {
		return &artist, nil
	}

	params := url.Values{}
	params.Set("id", id)
	data, err := s.client.Get(ctx, "/artists", params)
	if err != nil {
		return nil, err
	}

	var raw rawArtist
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding artist: %v", ErrUpstreamPermanent, err)
	}

	artist = normalizeArtist(&raw)
	s.store(key, &artist, s.songTTL)
	s.cacheSongsFromList(raw.TopSongs)
	return &artist, nil
}

// GetLyrics returns lyrics for a song. When the lyrics endpoint has
// nothing, the song's own hasLyrics flag decides the response shape
// instead of surfacing an error.
func (s *Service) GetLyrics(ctx context.Context, id string) (*Lyrics, error) {
	if !validID(id) {
		return nil, ErrInvalidID
	}

	key := "lyrics:" + id
	var lyrics Lyrics
	if s.cached(key, &lyrics) {
		return &lyrics, nil
	}

	data, err := s.client.Get(ctx, "/songs/"+id+"/lyrics", nil)
	if err != nil {
		// The song's own flag decides whether this is a definitive
		// "no lyrics" answer or a genuine failure. A song that claims
		// lyrics but whose fetch failed stays a failure: failures are
		// never cached.
		song, serr := s.fetchSongData(ctx, id)
		if serr == nil && !bool(song.HasLyrics) {
			lyrics = Lyrics{HasLyrics: false}
			s.store(key, &lyrics, s.songTTL)
			return &lyrics, nil
		}
		return nil, err
	}

	var raw rawLyrics
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding lyrics: %v", ErrUpstreamPermanent, err)
	}

	lyrics = Lyrics{
		HasLyrics: raw.Lyrics != "",
		Lyrics:    stripHTMLBreaks(raw.Lyrics),
		Snippet:   raw.Snippet,
		Copyright: raw.Copyright,
	}
	log.Infof("%s Resolved lyrics for %s (has_lyrics=%t)", logcolors.LogLyrics, id, lyrics.HasLyrics)
	s.store(key, &lyrics, s.songTTL)
	return &lyrics, nil
}

// GetSyncedLyrics returns line-timed lyrics. Real LRC data from the
// upstream wins; otherwise plain lyrics get estimated timing at a fixed
// pace per line.
func (s *Service) GetSyncedLyrics(ctx context.Context, id string) (*SyncedLyrics, error) {
	if !validID(id) {
		return nil, ErrInvalidID
	}

	key := "synced_lyrics:" + id
	var synced SyncedLyrics
	if s.cached(key, &synced) {
		return &synced, nil
	}

	data, err := s.client.Get(ctx, "/songs/"+id+"/lyrics", nil)
	if err != nil {
		return nil, err
	}

	var raw rawLyrics
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding lyrics: %v", ErrUpstreamPermanent, err)
	}

	if raw.SyncedLyrics != "" {
		if lines := parseLRC(raw.SyncedLyrics); len(lines) > 0 {
			synced = SyncedLyrics{Source: SyncedSourceUpstream, Lines: lines}
			s.store(key, &synced, s.songTTL)
			return &synced, nil
		}
	}
	if raw.Lyrics == "" {
		return nil, ErrNotFound
	}

	synced = SyncedLyrics{
		Source: SyncedSourceEstimated,
		Lines:  estimateSyncedLines(stripHTMLBreaks(raw.Lyrics)),
	}
	log.Infof("%s No timed lyrics for %s, estimating %d lines", logcolors.LogLyrics, id, len(synced.Lines))
	s.store(key, &synced, s.songTTL)
	return &synced, nil
}

// GetTrending returns trending songs, optionally filtered by language.
func (s *Service) GetTrending(ctx context.Context, language string, limit int) ([]Song, error) {
	if limit <= 0 {
		limit = 20
	}
	lang := language
	if lang == "" {
		lang = "any"
	}

	key := fmt.Sprintf("trending:%s:%d", lang, limit)
	var songs []Song
	if s.cached(key, &songs) {
		return songs, nil
	}

	params := url.Values{}
	if language != "" {
		params.Set("language", language)
	}
	data, err := s.client.Get(ctx, "/modules", params)
	if err == nil {
		var modules rawModules
		if jerr := json.Unmarshal(data, &modules); jerr == nil && len(modules.Trending.Data) > 0 {
			songs = normalizeSongs(modules.Trending.Data)
			if len(songs) > limit {
				songs = songs[:limit]
			}
			s.store(key, songs, s.trendingTTL)
			s.cacheSongsFromList(modules.Trending.Data)
			return songs, nil
		}
	}

	// Browse modules are flaky upstream; fall back to a popular query.
	log.Warnf("%s Modules endpoint unusable, falling back to search", logcolors.LogTrending)
	query := "top hits"
	if language != "" {
		query = "top " + language + " songs"
	}
	songs, err = s.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	s.store(key, songs, s.trendingTTL)
	return songs, nil
}

// GetCharts returns the upstream's featured charts.
func (s *Service) GetCharts(ctx context.Context) ([]Chart, error) {
	key := "charts:top"
	var charts []Chart
	if s.cached(key, &charts) {
		return charts, nil
	}

	data, err := s.client.Get(ctx, "/modules", nil)
	if err != nil {
		return nil, err
	}

	var modules rawModules
	if err := json.Unmarshal(data, &modules); err != nil {
		return nil, fmt.Errorf("%w: decoding modules: %v", ErrUpstreamPermanent, err)
	}

	charts = make([]Chart, 0, len(modules.Charts))
	for i := range modules.Charts {
		charts = append(charts, normalizeChart(&modules.Charts[i]))
	}
	log.Infof("%s Resolved %d charts", logcolors.LogCharts, len(charts))
	s.store(key, charts, s.trendingTTL)
	return charts, nil
}
