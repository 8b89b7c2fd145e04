package main

import (
	"net/http"
	"os"
	"time"

	"music-gateway-go/cache"
	"music-gateway-go/circuitbreaker"
	"music-gateway-go/config"
	"music-gateway-go/logcolors"
	"music-gateway-go/middleware"
	"music-gateway-go/notifier"
	"music-gateway-go/services/saavn"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

// app holds the wired gateway components. Everything is injected so
// tests can stand up an app against a fake upstream.
type app struct {
	conf         config.Config
	cache        *cache.Cache
	svc          *saavn.Service
	breaker      *circuitbreaker.CircuitBreaker
	limiter      *middleware.SlidingWindowLimiter
	adminLimiter *middleware.SlidingWindowLimiter
	media        *http.Client
}

func init() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

// newApp wires the service graph from configuration.
func newApp(conf config.Config, store *cache.Cache) *app {
	cfg := conf.Configuration

	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:      "upstream",
		Threshold: cfg.CircuitBreakerThreshold,
		Cooldown:  time.Duration(cfg.CircuitBreakerCooldownSecs) * time.Second,
	})

	client := saavn.NewClient(saavn.ClientConfig{
		BaseURL:        cfg.UpstreamBaseURL,
		Timeout:        time.Duration(cfg.UpstreamTimeoutInSeconds) * time.Second,
		MaxRetries:     cfg.UpstreamMaxRetries,
		BackoffBase:    time.Duration(cfg.UpstreamBackoffBaseMs) * time.Millisecond,
		BackoffCap:     time.Duration(cfg.UpstreamBackoffCapMs) * time.Millisecond,
		RequestsPerSec: cfg.UpstreamRequestsPerSec,
		BurstLimit:     cfg.UpstreamBurstLimit,
		Breaker:        breaker,
	})

	svc := saavn.NewService(client, store,
		time.Duration(cfg.SongCacheTTLInSeconds)*time.Second,
		time.Duration(cfg.SearchCacheTTLInSeconds)*time.Second,
		time.Duration(cfg.TrendingCacheTTLInSeconds)*time.Second,
	)

	return &app{
		conf:    conf,
		cache:   store,
		svc:     svc,
		breaker: breaker,
		limiter: middleware.NewSlidingWindowLimiter(middleware.Policy{
			Limit:  cfg.RateLimitRequests,
			Window: time.Duration(cfg.RateLimitWindowInSeconds) * time.Second,
		}),
		adminLimiter: middleware.NewSlidingWindowLimiter(middleware.Policy{
			Limit:  cfg.AdminRateLimitRequests,
			Window: time.Duration(cfg.AdminRateLimitWindowSeconds) * time.Second,
		}),
		// The stream proxy holds connections open for the length of a
		// track, so it gets its own client with a header timeout
		// instead of a whole-request timeout.
		media: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: time.Duration(cfg.MediaTimeoutInSeconds) * time.Second,
				MaxIdleConns:          20,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// handler builds the full middleware chain around the router.
func (a *app) handler() http.Handler {
	router := mux.NewRouter()
	a.setupRoutes(router)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Range", "X-API-Key"},
		AllowCredentials: false,
	})

	loggedRouter := middleware.LoggingMiddleware(router)
	corsHandler := c.Handler(loggedRouter)
	return a.limitMiddleware(corsHandler)
}

func main() {
	conf := config.Get()
	cfg := conf.Configuration

	store, err := cache.New(cfg.CacheDBPath, cfg.CacheBackupPath, conf.FeatureFlags.CacheCompression)
	if err != nil {
		notifier.PublishServerStartupFailed("cache", err)
		log.Fatalf("%s Failed to open cache: %v", logcolors.LogCacheInit, err)
	}
	defer store.Close()

	go store.Janitor(time.Duration(cfg.CacheInvalidationIntervalInSeconds) * time.Second)

	a := newApp(conf, store)

	// Expired limiter windows pile up per identity; sweep them hourly.
	go func() {
		for {
			time.Sleep(time.Hour)
			pruned := a.limiter.Prune() + a.adminLimiter.Prune()
			if pruned > 0 {
				log.Debugf("%s Pruned %d idle rate limit windows", logcolors.LogRateLimit, pruned)
			}
		}
	}()

	notifier.RegisterAlerts(setupNotifiers(conf))

	log.Infof("%s Listening on port %s", logcolors.LogServer, cfg.Port)
	notifier.PublishServerStarted(cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, a.handler()))
}
