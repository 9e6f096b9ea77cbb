package auth

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	xoauth2 "golang.org/x/oauth2"
)

var _ xoauth2.TokenSource = (*Manager)(nil)

// Token returns the current access token for use with golang.org/x/oauth2.
// The expiry is read from the token's exp claim when it is a JWT.
func (m *Manager) Token() (*xoauth2.Token, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if !m.session.HasToken() {
		return nil, errors.Wrap(UnauthenticatedErr, "[Manager.Token]")
	}
	return &xoauth2.Token{
		AccessToken:  m.session.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: m.session.RefreshToken,
		Expiry:       m.session.ExpiresAt,
	}, nil
}

// Transport returns a RoundTripper that adds the current bearer credential to
// every request. The token is looked up per request, so a logout takes effect
// on the next call. A nil base uses http.DefaultTransport.
func (m *Manager) Transport(base http.RoundTripper) http.RoundTripper {
	return &xoauth2.Transport{Source: m, Base: base}
}

// HTTPClient returns a client for calling Comma services as the current user.
func (m *Manager) HTTPClient() *http.Client {
	return &http.Client{Transport: m.Transport(nil)}
}

// tokenExpiry reads the exp claim without verifying the signature; the auth
// service remains the authority on validity. Non-JWT tokens yield the zero time.
func tokenExpiry(rawToken string) time.Time {
	if rawToken == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
