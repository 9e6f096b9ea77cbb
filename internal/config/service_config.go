package config

import (
	"strings"
	"time"
)

// DefaultAuthURL is the production Comma Central Auth endpoint.
const DefaultAuthURL = "https://auth.comma.cm"

type ServiceConfig interface {
	GetAuthURL() string
	GetHTTPTimeout() time.Duration
	GetVerifyTimeout() time.Duration
}

type Service struct{}

var _ ServiceConfig = Service{}

// GetAuthURL returns the auth service base URL without a trailing slash
// (e.g. "http://localhost:8000" for development).
func (Service) GetAuthURL() string {
	return strings.TrimRight(GetEnv("COMMA_AUTH_URL", DefaultAuthURL), "/")
}

func (Service) GetHTTPTimeout() time.Duration {
	return GetDuration("COMMA_AUTH_HTTP_TIMEOUT", 30*time.Second)
}

// GetVerifyTimeout bounds a single token verification made by the server middleware.
func (Service) GetVerifyTimeout() time.Duration {
	return GetDuration("COMMA_AUTH_VERIFY_TIMEOUT", 5*time.Second)
}
