package main

import (
	"net/http"

	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the gateway
func (a *app) setupRoutes(router *mux.Router) {
	// Metadata endpoints
	router.HandleFunc("/api/search", a.searchSongs).Methods(http.MethodGet)
	router.HandleFunc("/api/search/artists", a.searchArtists).Methods(http.MethodGet)
	router.HandleFunc("/api/song/{id}", a.getSong).Methods(http.MethodGet)
	router.HandleFunc("/api/song/{id}/lyrics", a.getLyrics).Methods(http.MethodGet)
	router.HandleFunc("/api/song/{id}/lyrics/synced", a.getSyncedLyrics).Methods(http.MethodGet)
	router.HandleFunc("/api/song/{id}/related", a.getRelated).Methods(http.MethodGet)
	router.HandleFunc("/api/album/{id}", a.getAlbum).Methods(http.MethodGet)
	router.HandleFunc("/api/artist/{id}", a.getArtist).Methods(http.MethodGet)
	router.HandleFunc("/api/trending", a.getTrending).Methods(http.MethodGet)
	router.HandleFunc("/api/charts", a.getCharts).Methods(http.MethodGet)

	// Stream proxy (exempt from admission control)
	router.HandleFunc("/api/stream/{id}", a.streamSong).Methods(http.MethodGet, http.MethodHead)

	// Cache management endpoints
	router.HandleFunc("/api/cache", a.getCacheDump).Methods(http.MethodGet)
	router.HandleFunc("/api/cache/stats", a.getCacheStats).Methods(http.MethodGet)
	router.HandleFunc("/api/cache/backup", a.backupCache).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/api/cache/backups", a.listBackups).Methods(http.MethodGet)
	router.HandleFunc("/api/cache/restore", a.restoreCache).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/api/cache/clear", a.clearCache).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/api/cache/sweep", a.sweepCache).Methods(http.MethodGet, http.MethodPost)

	// Health and stats endpoints
	router.HandleFunc("/api/health", a.getHealthStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/stats", a.getStats).Methods(http.MethodGet)

	// Circuit breaker endpoints
	router.HandleFunc("/api/circuit-breaker", a.getCircuitBreakerStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/circuit-breaker/reset", a.resetCircuitBreaker).Methods(http.MethodGet, http.MethodPost)

	// Admin authentication
	router.HandleFunc("/api/admin/login", a.adminLogin).Methods(http.MethodPost)

	// Help endpoint
	router.HandleFunc("/", a.helpHandler).Methods(http.MethodGet)
}
