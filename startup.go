package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"music-gateway-go/config"
	"music-gateway-go/logcolors"
	"music-gateway-go/middleware"
	"music-gateway-go/notifier"
	"music-gateway-go/stats"

	log "github.com/sirupsen/logrus"
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setupNotifiers(conf config.Config) []notifier.Notifier {
	var notifiers []notifier.Notifier
	cfg := conf.Configuration

	if smtpHost := os.Getenv("NOTIFIER_SMTP_HOST"); smtpHost != "" {
		notifiers = append(notifiers, &notifier.EmailNotifier{
			SMTPHost:     smtpHost,
			SMTPPort:     getEnvOrDefault("NOTIFIER_SMTP_PORT", "587"),
			SMTPUsername: os.Getenv("NOTIFIER_SMTP_USERNAME"),
			SMTPPassword: os.Getenv("NOTIFIER_SMTP_PASSWORD"),
			FromEmail:    os.Getenv("NOTIFIER_FROM_EMAIL"),
			ToEmail:      os.Getenv("NOTIFIER_TO_EMAIL"),
		})
		log.Infof("%s Email notifier enabled", logcolors.LogNotifier)
	}

	if cfg.TelegramBotToken != "" {
		notifiers = append(notifiers, &notifier.TelegramNotifier{
			BotToken: cfg.TelegramBotToken,
			ChatID:   cfg.TelegramChatID,
		})
		log.Infof("%s Telegram notifier enabled", logcolors.LogNotifier)
	}

	if cfg.NtfyTopic != "" {
		notifiers = append(notifiers, &notifier.NtfyNotifier{
			Topic:  cfg.NtfyTopic,
			Server: cfg.NtfyServer,
		})
		log.Infof("%s Ntfy.sh notifier enabled", logcolors.LogNotifier)
	}

	return notifiers
}

// exempt prefixes bypass admission control entirely. Media streaming is
// long-lived and byte-heavy; counting it against the request budget
// would starve clients mid-track.
var rateLimitExemptPrefixes = []string{
	"/api/stream/",
	"/media/",
	"/static/",
	"/download/",
}

func isRateLimitExempt(path string) bool {
	for _, prefix := range rateLimitExemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// limitMiddleware applies sliding-window admission control per client
// identity. The admin login endpoint gets a stricter limiter; stream
// paths are exempt; a valid X-API-Key bypasses limits.
func (a *app) limitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if isRateLimitExempt(path) || !strings.HasPrefix(path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := r.Header.Get("X-API-Key")
		if apiKey != "" && a.conf.Configuration.APIKey != "" && apiKey == a.conf.Configuration.APIKey {
			stats.Get().RecordRateLimit("bypassed")
			w.Header().Set("X-RateLimit-Bypass", "true")
			ctx := context.WithValue(r.Context(), apiKeyBypassKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		limiter := a.limiter
		limitType := "general"
		if path == "/api/admin/login" {
			limiter = a.adminLimiter
			limitType = "admin"
		}

		identity := middleware.ClientIP(r)
		if !limiter.Allow(identity) {
			stats.Get().RecordRateLimit("rejected")
			log.Warnf("%s %s exceeded %s rate limit", logcolors.LogRateLimit, identity, limitType)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.Policy().Limit))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(limiter.Policy().Window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintf(w, `{"error": "Rate limit exceeded. Try again later."}`+"\n")
			return
		}

		stats.Get().RecordRateLimit("admitted")
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.Policy().Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", limiter.Remaining(identity)))
		ctx := context.WithValue(r.Context(), rateLimitTypeKey, limitType)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
