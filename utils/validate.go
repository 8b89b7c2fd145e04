package utils

import "regexp"

// idPattern matches upstream identifiers: alphanumeric plus _ and -,
// 2 to 30 characters. Anything else is rejected before it can reach a
// cache key or an upstream path segment.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,30}$`)

// ValidateID reports whether id is a well-formed upstream identifier.
func ValidateID(id string) bool {
	return idPattern.MatchString(id)
}
