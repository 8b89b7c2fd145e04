package main

// contextKey is a private type for request context values.
type contextKey string

const (
	rateLimitTypeKey contextKey = "rateLimitType"
	apiKeyBypassKey  contextKey = "apiKeyBypass"
)

// errorResponse is the uniform error body for non-2xx JSON responses.
type errorResponse struct {
	Error string `json:"error"`
}

// adminLoginRequest is the POST body for admin authentication.
type adminLoginRequest struct {
	Token string `json:"token"`
}

// CacheDumpResponse summarizes the cache contents for the dump endpoint.
type CacheDumpResponse struct {
	NumberOfKeys int      `json:"number_of_keys"`
	SizeInKB     int      `json:"size_in_kb"`
	Keys         []string `json:"keys"`
}
