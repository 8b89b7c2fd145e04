package saavn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"music-gateway-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// relatedScore ranks a candidate against the source song's release
// year. Closer years score higher; candidates from other languages
// never get this far.
func relatedScore(sourceYear, candidateYear int) int {
	diff := sourceYear - candidateYear
	if diff < 0 {
		diff = -diff
	}
	return 100 - diff
}

// firstPrimaryArtist picks the artist used for the broadening search.
func firstPrimaryArtist(s *rawSong) string {
	if s.Artists != nil && len(s.Artists.Primary) > 0 && s.Artists.Primary[0].Name != "" {
		return s.Artists.Primary[0].Name
	}
	if s.PrimaryArtists != "" {
		if idx := strings.Index(s.PrimaryArtists, ","); idx >= 0 {
			return strings.TrimSpace(s.PrimaryArtists[:idx])
		}
		return s.PrimaryArtists
	}
	return ""
}

// GetRelated returns songs related to id, ranked by release-year
// proximity within the source song's language. When the upstream's
// suggestions run thin, an artist+language search broadens the pool.
func (s *Service) GetRelated(ctx context.Context, id string, limit int) ([]Song, error) {
	if !validID(id) {
		return nil, ErrInvalidID
	}
	if limit <= 0 {
		limit = 10
	}

	key := fmt.Sprintf("related:%s:%d", id, limit)
	var songs []Song
	if s.cached(key, &songs) {
		return songs, nil
	}

	source, err := s.fetchSongData(ctx, id)
	if err != nil {
		return nil, err
	}
	sourceLang := source.Language
	sourceYear := int(source.Year)

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit*2))
	data, err := s.client.Get(ctx, "/songs/"+id+"/suggestions", params)

	var pool []rawSong
	if err == nil {
		if jerr := json.Unmarshal(data, &pool); jerr != nil {
			var wrapped rawSearchResults
			if jerr := json.Unmarshal(data, &wrapped); jerr == nil {
				pool = wrapped.Results
			}
		}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	type scored struct {
		song  Song
		score int
	}
	seen := map[string]bool{id: true}
	var ranked []scored
	for i := range pool {
		r := &pool[i]
		if r.ID == "" || seen[r.ID] {
			continue
		}
		if sourceLang != "" && !strings.EqualFold(r.Language, sourceLang) {
			continue
		}
		seen[r.ID] = true
		ranked = append(ranked, scored{song: normalizeSong(r), score: relatedScore(sourceYear, int(r.Year))})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	songs = make([]Song, 0, limit)
	for _, r := range ranked {
		if len(songs) == limit {
			break
		}
		songs = append(songs, r.song)
	}

	// Thin suggestion pools get broadened with an artist search in the
	// same language. Broadened songs go after the ranked survivors, not
	// into the ranking.
	if len(ranked) < 5 {
		if artist := firstPrimaryArtist(source); artist != "" {
			query := strings.TrimSpace(artist + " " + sourceLang)
			extra, serr := s.Search(ctx, query, 10)
			if serr == nil {
				for i := range extra {
					e := &extra[i]
					if len(songs) == limit {
						break
					}
					if seen[e.ID] {
						continue
					}
					if sourceLang != "" && !strings.EqualFold(e.Language, sourceLang) {
						continue
					}
					seen[e.ID] = true
					songs = append(songs, *e)
				}
			}
		}
	}

	log.Infof("%s %d songs for %s (pool %d, lang %q)", logcolors.LogRelated, len(songs), id, len(ranked), sourceLang)
	s.store(key, songs, s.searchTTL)
	s.cacheSongsFromList(pool)
	return songs, nil
}
