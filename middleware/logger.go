package middleware

import (
	"net/http"
	"time"

	"music-gateway-go/stats"

	log "github.com/sirupsen/logrus"
)

// getStatusColor returns the ANSI color code for a status code class
func getStatusColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "\033[32m" // Green
	case statusCode >= 300 && statusCode < 400:
		return "\033[36m" // Cyan
	case statusCode >= 400 && statusCode < 500:
		return "\033[33m" // Yellow
	case statusCode >= 500:
		return "\033[31m" // Red
	default:
		return "\033[0m"
	}
}

// ResponseRecorder wraps http.ResponseWriter to capture the status code
// and response size for logging.
type ResponseRecorder struct {
	http.ResponseWriter
	StatusCode int
	BodySize   int
}

// NewResponseRecorder creates a recorder defaulting to 200 OK.
func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{ResponseWriter: w, StatusCode: http.StatusOK}
}

func (r *ResponseRecorder) WriteHeader(statusCode int) {
	r.StatusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *ResponseRecorder) Write(data []byte) (int, error) {
	n, err := r.ResponseWriter.Write(data)
	r.BodySize += n
	return n, err
}

// LoggingMiddleware logs each request with a status-colored line.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := NewResponseRecorder(w)

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		stats.Get().RecordStatusCode(rec.StatusCode)
		stats.Get().RecordResponseTime(duration)

		color := getStatusColor(rec.StatusCode)
		log.Infof("%s%d\033[0m %s %s %dB %v from %s",
			color, rec.StatusCode, r.Method, r.URL.Path, rec.BodySize, duration, ClientIP(r))
	})
}
