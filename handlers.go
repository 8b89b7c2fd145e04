package main

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"music-gateway-go/cache"
	"music-gateway-go/logcolors"
	"music-gateway-go/notifier"
	"music-gateway-go/services/saavn"
	"music-gateway-go/stats"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// serviceError maps resolver errors onto HTTP status codes.
func (a *app) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, saavn.ErrInvalidID):
		Respond(w, r).Error(http.StatusBadRequest, "Invalid identifier")
	case errors.Is(err, saavn.ErrNotFound):
		Respond(w, r).Error(http.StatusNotFound, "Not found")
	case errors.Is(err, saavn.ErrUpstreamTimeout):
		Respond(w, r).Error(http.StatusGatewayTimeout, "Upstream timed out")
	case errors.Is(err, saavn.ErrUpstreamPermanent):
		Respond(w, r).Error(http.StatusBadGateway, "Upstream rejected the request")
	default:
		Respond(w, r).Error(http.StatusBadGateway, "Upstream temporarily unavailable")
	}
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > 50 {
		return 50
	}
	return n
}

func (a *app) searchSongs(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("search")

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		query = strings.TrimSpace(r.URL.Query().Get("query"))
	}
	if query == "" {
		Respond(w, r).Error(http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	songs, err := a.svc.Search(r.Context(), query, parseLimit(r, 10))
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	Respond(w, r).SetCacheTTL(a.svc.SearchTTL()).JSON(map[string]interface{}{
		"query":   query,
		"count":   len(songs),
		"results": songs,
	})
}

func (a *app) searchArtists(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("search")

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		Respond(w, r).Error(http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	artists, err := a.svc.SearchArtists(r.Context(), query, parseLimit(r, 10))
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	Respond(w, r).SetCacheTTL(a.svc.SearchTTL()).JSON(map[string]interface{}{
		"query":   query,
		"count":   len(artists),
		"results": artists,
	})
}

func (a *app) getSong(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("song")

	song, err := a.svc.GetSongDetails(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	Respond(w, r).SetCacheTTL(a.svc.SongTTL()).JSON(song)
}

func (a *app) getAlbum(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("browse")

	album, err := a.svc.GetAlbum(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	Respond(w, r).SetCacheTTL(a.svc.SongTTL()).JSON(album)
}

func (a *app) getArtist(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("browse")

	artist, err := a.svc.GetArtist(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	Respond(w, r).SetCacheTTL(a.svc.SongTTL()).JSON(artist)
}

func (a *app) getLyrics(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("lyrics")

	lyrics, err := a.svc.GetLyrics(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	Respond(w, r).SetCacheTTL(a.svc.SongTTL()).JSON(lyrics)
}

func (a *app) getSyncedLyrics(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("lyrics")

	synced, err := a.svc.GetSyncedLyrics(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	Respond(w, r).SetCacheTTL(a.svc.SongTTL()).JSON(synced)
}

func (a *app) getRelated(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("related")

	id := mux.Vars(r)["id"]
	songs, err := a.svc.GetRelated(r.Context(), id, parseLimit(r, 10))
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	Respond(w, r).SetCacheTTL(a.svc.SearchTTL()).JSON(map[string]interface{}{
		"song_id": id,
		"count":   len(songs),
		"results": songs,
	})
}

func (a *app) getTrending(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("browse")

	language := strings.TrimSpace(r.URL.Query().Get("lang"))
	songs, err := a.svc.GetTrending(r.Context(), language, parseLimit(r, 20))
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	Respond(w, r).SetCacheTTL(a.svc.TrendingTTL()).JSON(map[string]interface{}{
		"language": language,
		"count":    len(songs),
		"results":  songs,
	})
}

func (a *app) getCharts(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("browse")

	charts, err := a.svc.GetCharts(r.Context())
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	Respond(w, r).SetCacheTTL(a.svc.TrendingTTL()).JSON(map[string]interface{}{
		"count":   len(charts),
		"results": charts,
	})
}

// authorizeCacheAccess gates the cache management endpoints behind the
// cache access token. An unset token disables the endpoints entirely.
func (a *app) authorizeCacheAccess(w http.ResponseWriter, r *http.Request) bool {
	token := a.conf.Configuration.CacheAccessToken
	if token == "" || r.Header.Get("Authorization") != token {
		Respond(w, r).Error(http.StatusUnauthorized, "Unauthorized")
		return false
	}
	return true
}

func (a *app) getCacheDump(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("admin")
	if !a.authorizeCacheAccess(w, r) {
		return
	}

	numKeys, sizeKB := a.cache.Stats()
	resp := CacheDumpResponse{NumberOfKeys: numKeys, SizeInKB: sizeKB}
	a.cache.Range(func(key string, _ cache.Entry) bool {
		resp.Keys = append(resp.Keys, key)
		return true
	})
	Respond(w, r).JSON(resp)
}

func (a *app) backupCache(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("admin")
	if !a.authorizeCacheAccess(w, r) {
		return
	}

	path, err := a.cache.Backup()
	if err != nil {
		log.Errorf("%s Backup failed: %v", logcolors.LogCacheBackup, err)
		notifier.PublishCacheBackupFailed(err)
		Respond(w, r).Error(http.StatusInternalServerError, "Backup failed")
		return
	}
	Respond(w, r).JSON(map[string]interface{}{"status": "ok", "backup": path})
}

func (a *app) listBackups(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("admin")
	if !a.authorizeCacheAccess(w, r) {
		return
	}

	backups, err := a.cache.ListBackups()
	if err != nil {
		Respond(w, r).Error(http.StatusInternalServerError, "Failed to list backups")
		return
	}
	Respond(w, r).JSON(map[string]interface{}{"backups": backups})
}

func (a *app) restoreCache(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("admin")
	if !a.authorizeCacheAccess(w, r) {
		return
	}

	file := r.URL.Query().Get("file")
	if file == "" {
		Respond(w, r).Error(http.StatusBadRequest, "Query parameter 'file' is required")
		return
	}
	if err := a.cache.RestoreFromBackup(file); err != nil {
		log.Errorf("%s Restore failed: %v", logcolors.LogCacheRestore, err)
		Respond(w, r).Error(http.StatusInternalServerError, "Restore failed")
		return
	}
	Respond(w, r).JSON(map[string]interface{}{"status": "ok", "restored": file})
}

func (a *app) clearCache(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("admin")
	if !a.authorizeCacheAccess(w, r) {
		return
	}

	// Safety backup before clearing
	backupPath, err := a.cache.Backup()
	if err != nil {
		log.Warnf("%s Pre-clear backup failed: %v", logcolors.LogCacheClear, err)
	}
	if err := a.cache.Clear(); err != nil {
		Respond(w, r).Error(http.StatusInternalServerError, "Clear failed")
		return
	}
	notifier.PublishCacheCleared(backupPath)
	Respond(w, r).JSON(map[string]interface{}{"status": "ok", "backup": backupPath})
}

func (a *app) sweepCache(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("admin")
	if !a.authorizeCacheAccess(w, r) {
		return
	}

	removed := a.cache.Sweep()
	Respond(w, r).JSON(map[string]interface{}{"status": "ok", "removed": removed})
}

func (a *app) getCacheStats(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("admin")
	if !a.authorizeCacheAccess(w, r) {
		return
	}

	numKeys, sizeKB := a.cache.Stats()
	Respond(w, r).JSON(map[string]interface{}{
		"number_of_keys": numKeys,
		"size_in_kb":     sizeKB,
		"hits":           stats.Get().CacheHits.Load(),
		"misses":         stats.Get().CacheMisses.Load(),
		"hit_rate":       stats.Get().CacheHitRate(),
	})
}

func (a *app) getHealthStatus(w http.ResponseWriter, r *http.Request) {
	numKeys, sizeKB := a.cache.Stats()
	state, failures, _ := a.breaker.Stats()

	status := "ok"
	code := http.StatusOK
	if a.breaker.IsOpen() {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":         status,
		"uptime":         stats.Get().Uptime().String(),
		"cache_keys":     numKeys,
		"cache_size_kb":  sizeKB,
		"breaker_state":  state.String(),
		"breaker_errors": failures,
	})
}

// getStats exposes the counters. When an admin token is configured the
// endpoint requires it; an unset token leaves stats open, matching the
// cache endpoints' inverse default of locked-when-unset.
func (a *app) getStats(w http.ResponseWriter, r *http.Request) {
	if a.conf.Configuration.AdminAccessToken != "" && !a.authorizeAdmin(w, r) {
		return
	}
	Respond(w, r).JSON(stats.Get().Snapshot())
}

func (a *app) getCircuitBreakerStatus(w http.ResponseWriter, r *http.Request) {
	state, failures, lastFailure := a.breaker.Stats()
	resp := map[string]interface{}{
		"state":     state.String(),
		"failures":  failures,
		"threshold": a.breaker.Threshold(),
	}
	if !lastFailure.IsZero() {
		resp["last_failure"] = lastFailure.Format(time.RFC3339)
		resp["retry_in"] = a.breaker.TimeUntilRetry().String()
	}
	Respond(w, r).JSON(resp)
}

func (a *app) resetCircuitBreaker(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("admin")
	if !a.authorizeAdmin(w, r) {
		return
	}
	a.breaker.Reset()
	Respond(w, r).JSON(map[string]interface{}{"status": "ok", "state": a.breaker.State().String()})
}

func (a *app) authorizeAdmin(w http.ResponseWriter, r *http.Request) bool {
	token := a.conf.Configuration.AdminAccessToken
	provided := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
		Respond(w, r).Error(http.StatusUnauthorized, "Unauthorized")
		return false
	}
	return true
}

// adminLogin validates the admin access token. The endpoint sits behind
// the stricter admin rate limit so token guessing burns the budget
// fast.
func (a *app) adminLogin(w http.ResponseWriter, r *http.Request) {
	stats.Get().RecordRequest("admin")

	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Respond(w, r).Error(http.StatusBadRequest, "Invalid request body")
		return
	}

	token := a.conf.Configuration.AdminAccessToken
	if token == "" || subtle.ConstantTimeCompare([]byte(req.Token), []byte(token)) != 1 {
		log.Warnf("%s Failed admin login attempt", logcolors.LogAPIKey)
		Respond(w, r).Error(http.StatusUnauthorized, "Invalid credentials")
		return
	}
	Respond(w, r).JSON(map[string]interface{}{"authenticated": true})
}

func (a *app) helpHandler(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"name": "music-gateway",
		"endpoints": map[string]string{
			"GET /api/search?q=":               "Search songs",
			"GET /api/search/artists?q=":       "Search artists",
			"GET /api/song/{id}":               "Song details",
			"GET /api/song/{id}/lyrics":        "Song lyrics",
			"GET /api/song/{id}/lyrics/synced": "Line-timed lyrics",
			"GET /api/song/{id}/related":       "Related songs",
			"GET /api/album/{id}":              "Album with tracks",
			"GET /api/artist/{id}":             "Artist details",
			"GET /api/trending?lang=":          "Trending songs",
			"GET /api/charts":                  "Featured charts",
			"GET /api/stream/{id}?quality=320": "Stream audio (supports Range)",
			"GET /api/health":                  "Health status",
			"GET /api/stats":                   "Gateway statistics",
		},
	})
}
