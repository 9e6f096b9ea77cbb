package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/commasconnect/comma-auth/auth"
	"github.com/commasconnect/comma-auth/oauth2"
	"github.com/commasconnect/comma-auth/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signedTestToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":          "jane@comma.cm",
		"requires_2fa": false,
		"iss":          "comma-auth",
		"aud":          "comma-apps",
		"exp":          exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestManager_TokenWithoutSession(t *testing.T) {
	f := setupTestFixture(t, nil)

	_, err := f.manager.Token()
	require.ErrorIs(t, err, auth.UnauthenticatedErr)
}

func TestManager_TokenExpiryFromJWT(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	raw := signedTestToken(t, exp)
	f := setupTestFixture(t, map[string]string{
		storage.AccessTokenKey:  raw,
		storage.RefreshTokenKey: "r1",
	})

	tok, err := f.manager.Token()
	require.NoError(t, err)
	require.Equal(t, raw, tok.AccessToken)
	require.Equal(t, "r1", tok.RefreshToken)
	require.Equal(t, "Bearer", tok.Type())
	require.Equal(t, exp.Unix(), tok.Expiry.Unix())
	require.Equal(t, exp.Unix(), f.manager.Snapshot().ExpiresAt.Unix())
}

func TestManager_OpaqueTokenHasNoExpiry(t *testing.T) {
	f := setupTestFixture(t, map[string]string{storage.AccessTokenKey: "tok2"})

	tok, err := f.manager.Token()
	require.NoError(t, err)
	require.True(t, tok.Expiry.IsZero())
	require.True(t, tok.Valid())
}

func TestManager_HTTPClientStampsCurrentToken(t *testing.T) {
	f := setupTestFixture(t, nil)
	var seen []string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(api.Close)
	client := f.manager.HTTPClient()

	require.NoError(t, f.manager.HandleAuthCallback(context.Background(), "tok2", false))
	resp, err := client.Get(api.URL)
	require.NoError(t, err)
	resp.Body.Close()

	f.server.VerifyTokens(map[string]*oauth2.UserInfo{"tok1": partialUser()})
	require.NoError(t, f.manager.HandleAuthCallback(context.Background(), "tok1", true))
	resp, err = client.Get(api.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, []string{"Bearer tok2", "Bearer tok1"}, seen)

	f.manager.Logout()
	_, err = client.Get(api.URL)
	require.ErrorIs(t, err, auth.UnauthenticatedErr)
	require.Len(t, seen, 2)
}
