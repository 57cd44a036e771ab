package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

var (
	ErrMissingHeader = errors.New("missing Authorization header")
	ErrInvalidFormat = errors.New("invalid Authorization header format")
)

// ExtractBearerToken returns the token from an "Authorization: Bearer <token>"
// header. The prefix is case-sensitive and the token is returned verbatim.
func ExtractBearerToken(h http.Header) (string, error) {
	value := h.Get("Authorization")
	if value == "" {
		return "", ErrMissingHeader
	}
	if !strings.HasPrefix(value, bearerPrefix) {
		return "", ErrInvalidFormat
	}
	return strings.TrimPrefix(value, bearerPrefix), nil
}

// HasBearerPrefix reports whether the header value starts with "Bearer ".
func HasBearerPrefix(value string) bool {
	return strings.HasPrefix(value, bearerPrefix)
}

func constantTimeEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Authenticate checks the request's bearer token against the shared secret.
// An empty secret never authenticates.
func Authenticate(h http.Header, secret string) bool {
	token, err := ExtractBearerToken(h)
	if err != nil {
		return false
	}
	return constantTimeEqual(token, secret)
}
