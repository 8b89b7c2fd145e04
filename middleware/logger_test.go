package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetStatusColor(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		expected   string
	}{
		{"2xx Success - Green", http.StatusOK, "\033[32m"},
		{"3xx Redirect - Cyan", http.StatusFound, "\033[36m"},
		{"404 Not Found - Yellow", http.StatusNotFound, "\033[33m"},
		{"429 Too Many Requests - Yellow", http.StatusTooManyRequests, "\033[33m"},
		{"502 Bad Gateway - Red", http.StatusBadGateway, "\033[31m"},
		{"504 Gateway Timeout - Red", http.StatusGatewayTimeout, "\033[31m"},
		{"Edge case - 100 Continue", http.StatusContinue, "\033[0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := getStatusColor(tt.statusCode)
			if result != tt.expected {
				t.Errorf("Expected color code %q for status %d, got %q", tt.expected, tt.statusCode, result)
			}
		})
	}
}

func TestResponseRecorder(t *testing.T) {
	w := httptest.NewRecorder()
	rec := NewResponseRecorder(w)

	if rec.StatusCode != http.StatusOK {
		t.Errorf("Expected default status code %d, got %d", http.StatusOK, rec.StatusCode)
	}

	rec.WriteHeader(http.StatusBadGateway)
	if rec.StatusCode != http.StatusBadGateway {
		t.Errorf("Expected recorded status %d, got %d", http.StatusBadGateway, rec.StatusCode)
	}
	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected underlying writer status %d, got %d", http.StatusBadGateway, w.Code)
	}

	writes := [][]byte{[]byte(`{"error":`), []byte(`"bad gateway"}`)}
	total := 0
	for _, data := range writes {
		n, err := rec.Write(data)
		if err != nil {
			t.Fatalf("Unexpected error writing response: %v", err)
		}
		total += n
	}
	if rec.BodySize != total {
		t.Errorf("Expected body size %d, got %d", total, rec.BodySize)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"Success", http.StatusOK, `{"results":[]}`},
		{"Not Found", http.StatusNotFound, `{"error":"Song not found"}`},
		{"Too Many Requests", http.StatusTooManyRequests, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			})

			wrapped := LoggingMiddleware(handler)
			req := httptest.NewRequest("GET", "/api/song/abc123", nil)
			rec := httptest.NewRecorder()

			wrapped.ServeHTTP(rec, req)

			if rec.Code != tt.statusCode {
				t.Errorf("Expected status code %d, got %d", tt.statusCode, rec.Code)
			}
			if rec.Body.String() != tt.body {
				t.Errorf("Expected body %q, got %q", tt.body, rec.Body.String())
			}
		})
	}
}
