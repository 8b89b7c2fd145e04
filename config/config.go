package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		Port string `envconfig:"PORT" default:"8080"`

		// Upstream API
		UpstreamBaseURL          string  `envconfig:"UPSTREAM_BASE_URL" default:"https://jiosavan-api-pi.vercel.app/api"`
		UpstreamTimeoutInSeconds int     `envconfig:"UPSTREAM_TIMEOUT_IN_SECONDS" default:"10"`
		MediaTimeoutInSeconds    int     `envconfig:"MEDIA_TIMEOUT_IN_SECONDS" default:"60"` // Stream proxy needs a longer timeout than metadata calls
		UpstreamMaxRetries       int     `envconfig:"UPSTREAM_MAX_RETRIES" default:"3"`
		UpstreamBackoffBaseMs    int     `envconfig:"UPSTREAM_BACKOFF_BASE_MS" default:"500"`
		UpstreamBackoffCapMs     int     `envconfig:"UPSTREAM_BACKOFF_CAP_MS" default:"5000"`
		UpstreamRequestsPerSec   float64 `envconfig:"UPSTREAM_REQUESTS_PER_SEC" default:"8"`
		UpstreamBurstLimit       int     `envconfig:"UPSTREAM_BURST_LIMIT" default:"4"`

		// Cache TTL classes
		SongCacheTTLInSeconds     int `envconfig:"SONG_CACHE_TTL_IN_SECONDS" default:"21600"`
		SearchCacheTTLInSeconds   int `envconfig:"SEARCH_CACHE_TTL_IN_SECONDS" default:"1800"`
		TrendingCacheTTLInSeconds int `envconfig:"TRENDING_CACHE_TTL_IN_SECONDS" default:"3600"`

		// Cache storage
		CacheDBPath                        string `envconfig:"CACHE_DB_PATH" default:"/data/cache.db"`
		CacheBackupPath                    string `envconfig:"CACHE_BACKUP_PATH" default:"/data/backups"`
		CacheInvalidationIntervalInSeconds int    `envconfig:"CACHE_INVALIDATION_INTERVAL_IN_SECONDS" default:"3600"`
		CacheAccessToken                   string `envconfig:"CACHE_ACCESS_TOKEN" default:""`

		// Admission control
		RateLimitRequests           int    `envconfig:"RATE_LIMIT_REQUESTS" default:"120"`
		RateLimitWindowInSeconds    int    `envconfig:"RATE_LIMIT_WINDOW_IN_SECONDS" default:"60"`
		AdminRateLimitRequests      int    `envconfig:"ADMIN_RATE_LIMIT_REQUESTS" default:"10"`
		AdminRateLimitWindowSeconds int    `envconfig:"ADMIN_RATE_LIMIT_WINDOW_IN_SECONDS" default:"900"`
		APIKey                      string `envconfig:"API_KEY" default:""`
		AdminAccessToken            string `envconfig:"ADMIN_ACCESS_TOKEN" default:""`

		// Circuit breaker
		CircuitBreakerThreshold    int `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`
		CircuitBreakerCooldownSecs int `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"300"`

		// Notifiers
		NtfyTopic        string `envconfig:"NOTIFIER_NTFY_TOPIC" default:""`
		NtfyServer       string `envconfig:"NOTIFIER_NTFY_SERVER" default:"https://ntfy.sh"`
		TelegramBotToken string `envconfig:"NOTIFIER_TELEGRAM_BOT_TOKEN" default:""`
		TelegramChatID   string `envconfig:"NOTIFIER_TELEGRAM_CHAT_ID" default:""`
	}

	FeatureFlags struct {
		CacheCompression bool `envconfig:"FF_CACHE_COMPRESSION" default:"true"`
	}
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("Error loading env config: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}
