package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/commasconnect/comma-auth/auth"
	"github.com/commasconnect/comma-auth/authservice"
	"github.com/commasconnect/comma-auth/authservice/fakeserver"
	"github.com/commasconnect/comma-auth/oauth2"
	"github.com/commasconnect/comma-auth/sessions"
	"github.com/commasconnect/comma-auth/storage/repofake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testAuthorizationURL = "https://accounts.google.com/o/oauth2/auth?state=abc"
	testPhone            = "555-1234"
	testCode             = "000000"
	testRedirect         = "https://app.comma.cm/dashboard"
)

func partialUser() *oauth2.UserInfo {
	return &oauth2.UserInfo{
		Email:       "jane@comma.cm",
		Name:        "Jane Doe",
		Domain:      "comma.cm",
		Provider:    oauth2.ProviderGoogle,
		Requires2FA: true,
	}
}

func fullUser() *oauth2.UserInfo {
	u := partialUser()
	u.Requires2FA = false
	return u
}

// recordingNavigator remembers every URL it was asked to visit
type recordingNavigator struct {
	lock sync.Mutex
	urls []string
}

func (n *recordingNavigator) Navigate(_ context.Context, url string) error {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.urls = append(n.urls, url)
	return nil
}

func (n *recordingNavigator) URLs() []string {
	n.lock.Lock()
	defer n.lock.Unlock()
	return append([]string(nil), n.urls...)
}

// testFixture wires a Manager to a fake auth service over HTTP
type testFixture struct {
	server    *fakeserver.Server
	store     *repofake.FakeStore
	navigator *recordingNavigator
	manager   *auth.Manager
	snapshots []sessions.Snapshot
	lock      sync.Mutex
}

func setupTestFixture(t *testing.T, stored map[string]string) *testFixture {
	t.Helper()

	srv := fakeserver.New()
	t.Cleanup(srv.Close)

	srv.Respond(authservice.RouteGoogleLogin, http.StatusOK, oauth2.AuthorizationURLResponse{
		AuthorizationURL: testAuthorizationURL,
		State:            "abc",
	})
	srv.VerifyTokens(map[string]*oauth2.UserInfo{
		"tok1": partialUser(),
		"tok2": fullUser(),
	})
	srv.Respond(authservice.RouteOTPSend, http.StatusOK, map[string]string{"status": "sent", "message": "Verification code sent"})
	srv.Respond(authservice.RouteOTPVerify, http.StatusOK, oauth2.TokenResponse{
		AccessToken:  "tok2",
		RefreshToken: "r1",
		TokenType:    "bearer",
		ExpiresIn:    1800,
		Requires2FA:  false,
	})

	client, err := authservice.New(srv.URL, authservice.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	f := &testFixture{
		server:    srv,
		store:     repofake.NewFakeStoreWith(stored),
		navigator: &recordingNavigator{},
	}
	f.manager, err = auth.New(client, f.store,
		auth.WithNavigator(f.navigator),
		auth.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)

	f.manager.Subscribe(func(s sessions.Snapshot) {
		f.lock.Lock()
		defer f.lock.Unlock()
		f.snapshots = append(f.snapshots, s)
	})
	return f
}

func (f *testFixture) Snapshots() []sessions.Snapshot {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]sessions.Snapshot(nil), f.snapshots...)
}

// requireLoggedOut checks the post-logout state: nothing in memory, nothing persisted
func (f *testFixture) requireLoggedOut(t *testing.T) {
	t.Helper()

	require.False(t, f.manager.IsAuthenticated())
	require.False(t, f.manager.IsPartiallyAuthenticated())
	require.False(t, f.manager.RequiresSecondFactor())
	require.Nil(t, f.manager.CurrentUser())
	require.Empty(t, f.manager.AuthHeader())
	require.Equal(t, sessions.Unauthenticated, f.manager.State())
	require.Empty(t, f.store.Keys())
}

// stubService is a programmable auth.Service for tests that need to control
// timing or count calls without HTTP.
type stubService struct {
	lock      sync.Mutex
	calls     int
	verify    func(ctx context.Context, token string) (*oauth2.VerifyResponse, error)
	verifyOTP func(ctx context.Context, token, phone, code string) (*oauth2.TokenResponse, error)
	sendOTP   func(ctx context.Context, token, phone string) ([]byte, error)
	authURL   func(ctx context.Context) (*oauth2.AuthorizationURLResponse, error)
}

var _ auth.Service = (*stubService)(nil)

func (s *stubService) count() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.calls++
}

func (s *stubService) Calls() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.calls
}

func (s *stubService) GetAuthorizationURL(ctx context.Context) (*oauth2.AuthorizationURLResponse, error) {
	s.count()
	if s.authURL == nil {
		return &oauth2.AuthorizationURLResponse{AuthorizationURL: testAuthorizationURL}, nil
	}
	return s.authURL(ctx)
}

func (s *stubService) Verify(ctx context.Context, token string) (*oauth2.VerifyResponse, error) {
	s.count()
	if s.verify == nil {
		return &oauth2.VerifyResponse{Valid: true, UserInfo: fullUser()}, nil
	}
	return s.verify(ctx, token)
}

func (s *stubService) SendOTP(ctx context.Context, token, phone string) (json.RawMessage, error) {
	s.count()
	if s.sendOTP == nil {
		return json.RawMessage(`{"status":"sent"}`), nil
	}
	b, err := s.sendOTP(ctx, token, phone)
	return json.RawMessage(b), err
}

func (s *stubService) VerifyOTP(ctx context.Context, token, phone, code string) (*oauth2.TokenResponse, error) {
	s.count()
	if s.verifyOTP == nil {
		return &oauth2.TokenResponse{AccessToken: "tok2", RefreshToken: "r1"}, nil
	}
	return s.verifyOTP(ctx, token, phone, code)
}
