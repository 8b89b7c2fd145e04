package saavn

import (
	"context"
	"strings"

	"music-gateway-go/logcolors"
	"music-gateway-go/utils"

	log "github.com/sirupsen/logrus"
)

func validID(id string) bool {
	return utils.ValidateID(id)
}

// qualityLadder is the fallback order when the preferred quality has no
// download variant.
var qualityLadder = []string{"320kbps", "160kbps", "96kbps", "48kbps", "12kbps"}

// normalizeQuality maps "320" and "320kbps" onto the ladder's form.
func normalizeQuality(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return ""
	}
	if !strings.HasSuffix(q, "kbps") {
		q += "kbps"
	}
	return q
}

// ResolveStreamURL picks the download URL for id at the preferred
// quality, walking the quality ladder when the preferred variant is
// missing. The song record comes from the same cached fetch the
// metadata path uses, so resolving a stream never costs a second
// upstream call for a warm song.
func (s *Service) ResolveStreamURL(ctx context.Context, id, preferredQuality string) (string, error) {
	if !validID(id) {
		return "", ErrInvalidID
	}

	song, err := s.fetchSongData(ctx, id)
	if err != nil {
		return "", err
	}

	variants := make(map[string]string, len(song.DownloadURL))
	for _, d := range song.DownloadURL {
		if d.URL != "" {
			variants[normalizeQuality(d.Quality)] = d.URL
		}
	}
	if len(variants) == 0 {
		return "", ErrNotFound
	}

	preferred := normalizeQuality(preferredQuality)
	if preferred != "" {
		if u, ok := variants[preferred]; ok {
			return u, nil
		}
	}
	for _, q := range qualityLadder {
		if q == preferred {
			continue
		}
		if u, ok := variants[q]; ok {
			if preferred != "" {
				log.Infof("%s %s not available for %s, serving %s", logcolors.LogFallback, preferred, id, q)
			}
			return u, nil
		}
	}
	return "", ErrNotFound
}
