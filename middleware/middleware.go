// Package middleware verifies Comma bearer tokens on incoming HTTP requests
// and exposes the verified user to downstream handlers.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/commasconnect/comma-auth/authservice"
	"github.com/commasconnect/comma-auth/internal/config"
	"github.com/commasconnect/comma-auth/oauth2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUser stores the verified *oauth2.UserInfo
	ContextKeyUser ContextKey = "comma_user"
	// ContextKeyToken stores the bearer token the user was verified with
	ContextKeyToken ContextKey = "comma_token"
)

// DefaultSkipPaths are never authenticated.
var DefaultSkipPaths = []string{
	"/admin/login/",
	"/auth/login/",
	"/health/",
	"/static/",
	"/media/",
}

// Verifier checks a bearer token with the auth service. authservice.Client
// implements it.
type Verifier interface {
	Verify(ctx context.Context, accessToken string) (*oauth2.VerifyResponse, error)
}

// Middleware authenticates requests against the Comma Central Auth service.
type Middleware struct {
	verifier      Verifier
	authURL       string
	skipPaths     []string
	verifyTimeout time.Duration
	logger        zerolog.Logger
}

type Option func(*Middleware)

// WithAuthURL sets the service base URL advertised in 401 and 403 responses.
func WithAuthURL(authURL string) Option {
	return func(m *Middleware) {
		m.authURL = strings.TrimRight(authURL, "/")
	}
}

// WithSkipPaths replaces DefaultSkipPaths. Paths are matched by prefix.
func WithSkipPaths(paths ...string) Option {
	return func(m *Middleware) {
		m.skipPaths = paths
	}
}

// WithVerifyTimeout overrides COMMA_AUTH_VERIFY_TIMEOUT (default 5s).
func WithVerifyTimeout(timeout time.Duration) Option {
	return func(m *Middleware) {
		m.verifyTimeout = timeout
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Middleware) {
		m.logger = logger
	}
}

func New(verifier Verifier, options ...Option) *Middleware {
	m := &Middleware{
		verifier:      verifier,
		skipPaths:     DefaultSkipPaths,
		verifyTimeout: config.New().GetVerifyTimeout(),
		logger:        log.With().Str("component", "middleware").Logger(),
	}
	if c, ok := verifier.(*authservice.Client); ok {
		m.authURL = c.BaseURL()
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// UserFromContext returns the user verified for the request, if any.
func UserFromContext(ctx context.Context) (*oauth2.UserInfo, bool) {
	user, ok := ctx.Value(ContextKeyUser).(*oauth2.UserInfo)
	return user, ok && user != nil
}

// TokenFromContext returns the bearer token the request was verified with.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(ContextKeyToken).(string)
	return token, ok && token != ""
}

// Authenticate attaches the verified user to the request context when the
// request carries a valid bearer token. It never rejects a request.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next(w, m.authenticate(r))
	}
}

// RequireAuth rejects requests without a valid bearer token with 401.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.skipped(r.URL.Path) {
			next(w, r)
			return
		}
		r = m.authenticate(r)
		if _, ok := UserFromContext(r.Context()); !ok {
			m.unauthorized(w)
			return
		}
		next(w, r)
	}
}

// Require2FA additionally rejects users whose second factor is still pending
// with 403.
func (m *Middleware) Require2FA(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.skipped(r.URL.Path) {
			next(w, r)
			return
		}
		r = m.authenticate(r)
		user, ok := UserFromContext(r.Context())
		if !ok {
			m.unauthorized(w)
			return
		}
		if user.Requires2FA {
			writeJSON(w, http.StatusForbidden, map[string]string{
				"error":   "2FA required",
				"otp_url": m.authURL + authservice.RouteOTPSend,
			})
			return
		}
		next(w, r)
	}
}

// authenticate returns r with the verified user attached. Requests that were
// already authenticated further up the chain are not verified again.
func (m *Middleware) authenticate(r *http.Request) *http.Request {
	if _, ok := UserFromContext(r.Context()); ok {
		return r
	}
	if m.skipped(r.URL.Path) {
		return r
	}
	token, ok := bearerToken(r)
	if !ok {
		return r
	}

	ctx, cancel := context.WithTimeout(r.Context(), m.verifyTimeout)
	defer cancel()
	resp, err := m.verifier.Verify(ctx, token)
	if err != nil {
		m.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Bearer token verification failed")
		return r
	}
	if resp == nil || !resp.Valid || resp.UserInfo == nil {
		return r
	}

	reqCtx := context.WithValue(r.Context(), ContextKeyUser, resp.UserInfo)
	reqCtx = context.WithValue(reqCtx, ContextKeyToken, token)
	return r.WithContext(reqCtx)
}

func (m *Middleware) skipped(path string) bool {
	for _, p := range m.skipPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (m *Middleware) unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"error":    "Authentication required",
		"auth_url": m.authURL + authservice.RouteGoogleLogin,
	})
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
