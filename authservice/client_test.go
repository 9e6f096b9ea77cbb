package authservice_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/commasconnect/comma-auth/authservice"
	"github.com/commasconnect/comma-auth/authservice/fakeserver"
	errs "github.com/commasconnect/comma-auth/internal/errors"
	"github.com/commasconnect/comma-auth/oauth2"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T) (*fakeserver.Server, *authservice.Client) {
	t.Helper()

	srv := fakeserver.New()
	t.Cleanup(srv.Close)

	c, err := authservice.New(srv.URL + "/")
	require.NoError(t, err)
	return srv, c
}

func TestNew_InvalidBaseURL(t *testing.T) {
	for _, u := range []string{"", "auth.comma.cm", "ftp://auth.comma.cm", "://bad"} {
		_, err := authservice.New(u)
		require.Error(t, err, u)
	}
}

func TestClient_BaseURLTrimmed(t *testing.T) {
	c, err := authservice.New("https://auth.comma.cm/")
	require.NoError(t, err)
	require.Equal(t, "https://auth.comma.cm", c.BaseURL())
}

func TestClient_GetAuthorizationURL(t *testing.T) {
	srv, c := setupClient(t)
	srv.Respond(authservice.RouteGoogleLogin, http.StatusOK, oauth2.AuthorizationURLResponse{
		AuthorizationURL: "https://accounts.google.com/o/oauth2/auth?state=abc",
		State:            "abc",
	})

	resp, err := c.GetAuthorizationURL(context.Background())
	require.NoError(t, err)
	require.Equal(t, "https://accounts.google.com/o/oauth2/auth?state=abc", resp.AuthorizationURL)
	require.Equal(t, "abc", resp.State)

	calls := srv.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, http.MethodGet, calls[0].Method)
	require.Empty(t, calls[0].Authorization)
	require.NotEmpty(t, calls[0].RequestID)
}

func TestClient_GetAuthorizationURL_MissingURL(t *testing.T) {
	srv, c := setupClient(t)
	srv.Respond(authservice.RouteGoogleLogin, http.StatusOK, map[string]string{})

	_, err := c.GetAuthorizationURL(context.Background())
	require.ErrorIs(t, err, errs.ErrMalformedResponse)
}

func TestClient_Verify(t *testing.T) {
	srv, c := setupClient(t)
	srv.VerifyTokens(map[string]*oauth2.UserInfo{
		"tok1": {Email: "jane@comma.cm", Name: "Jane", Domain: "comma.cm", Provider: oauth2.ProviderGoogle, Requires2FA: true},
	})

	resp, err := c.Verify(context.Background(), "tok1")
	require.NoError(t, err)
	require.True(t, resp.Valid)
	require.Equal(t, "jane@comma.cm", resp.UserInfo.Email)
	require.True(t, resp.UserInfo.Requires2FA)
	require.Equal(t, "Bearer tok1", srv.Calls()[0].Authorization)
	require.Equal(t, http.MethodPost, srv.Calls()[0].Method)

	_, err = c.Verify(context.Background(), "other")
	require.ErrorIs(t, err, errs.ErrServerRejected)

	var se *authservice.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusUnauthorized, se.StatusCode)
	require.Equal(t, "Not authenticated", se.Detail)
	require.Contains(t, se.Error(), "401")
}

func TestClient_SendOTP_ReturnsBodyVerbatim(t *testing.T) {
	srv, c := setupClient(t)
	srv.Respond(authservice.RouteOTPSend, http.StatusOK, map[string]string{"status": "sent", "message": "Verification code sent"})

	raw, err := c.SendOTP(context.Background(), "tok1", "555-1234")
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"sent","message":"Verification code sent"}`, string(raw))
	require.JSONEq(t, `{"phone_number":"555-1234"}`, srv.Calls()[0].Body)
}

func TestClient_VerifyOTP(t *testing.T) {
	srv, c := setupClient(t)
	srv.Respond(authservice.RouteOTPVerify, http.StatusOK, oauth2.TokenResponse{
		AccessToken:  "tok2",
		RefreshToken: "r1",
		TokenType:    "bearer",
		ExpiresIn:    1800,
	})

	tr, err := c.VerifyOTP(context.Background(), "tok1", "555-1234", "000000")
	require.NoError(t, err)
	require.Equal(t, "tok2", tr.AccessToken)
	require.Equal(t, "r1", tr.RefreshToken)
	require.False(t, tr.Requires2FA)

	var sent oauth2.OTPVerifyRequest
	require.NoError(t, json.Unmarshal([]byte(srv.Calls()[0].Body), &sent))
	require.Equal(t, oauth2.OTPVerifyRequest{PhoneNumber: "555-1234", Code: "000000"}, sent)
}

func TestClient_VerifyOTP_Rejected(t *testing.T) {
	srv, c := setupClient(t)
	srv.Respond(authservice.RouteOTPVerify, http.StatusBadRequest, map[string]string{"detail": "Invalid verification code"})

	_, err := c.VerifyOTP(context.Background(), "tok1", "555-1234", "999999")
	require.ErrorIs(t, err, errs.ErrServerRejected)
	require.Contains(t, err.Error(), "Invalid verification code")
}

func TestClient_TransportFailure(t *testing.T) {
	srv, c := setupClient(t)
	srv.Close()

	_, err := c.Health(context.Background())
	require.ErrorIs(t, err, errs.ErrTransport)
}

func TestClient_Timeout(t *testing.T) {
	srv := fakeserver.New()
	t.Cleanup(srv.Close)
	srv.Handle(authservice.RouteHealth, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	c, err := authservice.New(srv.URL, authservice.WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	require.NoError(t, err)

	_, err = c.Health(context.Background())
	require.ErrorIs(t, err, errs.ErrTransport)
}

func TestClient_Health(t *testing.T) {
	srv, c := setupClient(t)
	srv.Respond(authservice.RouteHealth, http.StatusOK, oauth2.HealthResponse{Status: "healthy", Service: "comma-auth"})

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, "healthy", h.Status)
}

func TestClient_VerifyOTP_MissingAccessToken(t *testing.T) {
	srv, c := setupClient(t)
	srv.Respond(authservice.RouteOTPVerify, http.StatusOK, map[string]string{"token_type": "bearer"})

	_, err := c.VerifyOTP(context.Background(), "tok1", "555-1234", "000000")
	require.ErrorIs(t, err, errs.ErrMalformedResponse)
}

func TestClient_UndecodableBody(t *testing.T) {
	srv, c := setupClient(t)
	srv.Handle(authservice.RouteVerify, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	})

	_, err := c.Verify(context.Background(), "tok1")
	require.ErrorIs(t, err, errs.ErrMalformedResponse)
	require.NotErrorIs(t, err, errs.ErrTransport)

	var syntaxErr *json.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
}

func TestClient_VerifyNaiveExpiresAt(t *testing.T) {
	srv, c := setupClient(t)
	srv.Handle(authservice.RouteVerify, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"valid":true,"user_info":{"email":"jane@comma.cm","name":"Jane","picture":null,"domain":"comma.cm","provider":"google","requires_2fa":true},"scopes":["read"],"expires_at":"2026-10-14T12:30:00"}`))
	})

	resp, err := c.Verify(context.Background(), "tok1")
	require.NoError(t, err)
	require.Nil(t, resp.UserInfo.Picture)
	require.Equal(t, time.Date(2026, 10, 14, 12, 30, 0, 0, time.UTC), resp.ExpiresAt.Time)
}

func TestClient_CanceledContextKeepsCause(t *testing.T) {
	srv, c := setupClient(t)
	srv.Respond(authservice.RouteHealth, http.StatusOK, oauth2.HealthResponse{Status: "healthy"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Health(ctx)
	require.ErrorIs(t, err, errs.ErrTransport)
	require.ErrorIs(t, err, context.Canceled)
}
