package auth

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/commasconnect/comma-auth/internal/utils"
	"github.com/commasconnect/comma-auth/oauth2"
	"github.com/commasconnect/comma-auth/sessions"
	"github.com/commasconnect/comma-auth/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Observer is notified with a snapshot after every change to the session.
type Observer func(sessions.Snapshot)

type observerEntry struct {
	id uint64
	fn Observer
}

// Manager owns a user's authentication state. It keeps the session in memory,
// writes the tokens through to the persistent store on every change, and
// reconciles the session with the remote auth service.
//
// A Manager is safe for concurrent use. Network calls are made without holding
// the session lock, so overlapping operations are not serialised; a response is
// only applied if the session it was issued for is still current.
type Manager struct {
	service   Service
	store     storage.Repo
	navigator Navigator
	validator *Validator
	logger    zerolog.Logger
	nowTime   func() time.Time

	lock    sync.RWMutex
	session sessions.Session

	observersLock sync.Mutex
	observers     []observerEntry
	nextObserver  uint64
	delivered     atomic.Uint64 // highest revision handed to an observer
}

// Option modifies a Manager at construction.
type Option func(*Manager)

// WithNavigator sets how the hosting environment is sent to another URL.
// Without one, navigation requests are only logged.
func WithNavigator(navigator Navigator) Option {
	return func(m *Manager) {
		m.navigator = navigator
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// New creates a Manager and restores the tokens held in store. No network call
// is made; call Resume to verify a restored token.
func New(service Service, store storage.Repo, options ...Option) (*Manager, error) {
	if service == nil {
		return nil, errors.New("[auth.New] service is required")
	}
	if store == nil {
		return nil, errors.New("[auth.New] store is required")
	}

	m := &Manager{
		service:   service,
		store:     store,
		validator: NewValidator(),
		logger:    log.With().Str("component", "auth").Logger(),
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.navigator == nil {
		m.navigator = NavigatorFunc(func(_ context.Context, url string) error {
			m.logger.Info().Str("url", url).Msg("navigation requested but no navigator configured")
			return nil
		})
	}

	accessToken, _, err := store.Get(storage.AccessTokenKey)
	if err != nil {
		return nil, errors.Wrap(err, "[auth.New] reading access token")
	}
	refreshToken, _, err := store.Get(storage.RefreshTokenKey)
	if err != nil {
		return nil, errors.Wrap(err, "[auth.New] reading refresh token")
	}
	m.session = sessions.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    tokenExpiry(accessToken),
	}
	return m, nil
}

// Resume verifies a token restored from the store. It is a no-op when the
// store held no token. A token that fails verification is cleared.
func (m *Manager) Resume(ctx context.Context) error {
	if !m.hasToken() {
		return nil
	}
	return m.VerifyToken(ctx)
}

// IsAuthenticated reports whether a token is held and no second factor is outstanding.
func (m *Manager) IsAuthenticated() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.session.IsAuthenticated()
}

// IsPartiallyAuthenticated reports whether a token is held but OTP verification is pending.
func (m *Manager) IsPartiallyAuthenticated() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.session.IsPartiallyAuthenticated()
}

// RequiresSecondFactor reports the current second factor flag
func (m *Manager) RequiresSecondFactor() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.session.RequiresSecondFactor
}

// CurrentUser returns a copy of the verified user profile, or nil.
func (m *Manager) CurrentUser() *oauth2.UserInfo {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.session.User.Clone()
}

func (m *Manager) State() sessions.State {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.session.State()
}

func (m *Manager) Snapshot() sessions.Snapshot {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.session.Snapshot()
}

// AuthHeader returns the headers to authenticate a request to a Comma service:
// empty without a token, otherwise a single bearer Authorization entry.
func (m *Manager) AuthHeader() map[string]string {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if !m.session.HasToken() {
		return map[string]string{}
	}
	return map[string]string{"Authorization": "Bearer " + m.session.AccessToken}
}

// InitiateLogin asks the auth service for an authorization URL and navigates to
// it. A non-empty redirectURL is remembered and visited once the callback has
// been handled. The session is never modified.
func (m *Manager) InitiateLogin(ctx context.Context, redirectURL string) error {
	if err := m.validator.ValidateRedirectURL(redirectURL); err != nil {
		return errors.Wrap(err, "[Manager.InitiateLogin]")
	}

	resp, err := m.service.GetAuthorizationURL(ctx)
	if err != nil {
		m.logger.Err(err).Msg("Failed to initiate login")
		return errors.Wrap(err, "[Manager.InitiateLogin]")
	}

	if redirectURL != "" {
		if err := m.store.Set(storage.PendingRedirectKey, redirectURL); err != nil {
			m.logger.Err(err).Msg("Failed to store login redirect")
		}
	}

	if err := m.navigator.Navigate(ctx, resp.AuthorizationURL); err != nil {
		return errors.Wrap(err, "[Manager.InitiateLogin] navigate")
	}
	return nil
}

// HandleAuthCallback installs the token delivered by the login callback and
// verifies it. requiresSecondFactor is provisional; the verification response
// is authoritative. Once verification has completed a pending redirect, if
// any, is consumed and navigated to. The verification result is returned.
func (m *Manager) HandleAuthCallback(ctx context.Context, token string, requiresSecondFactor bool) error {
	if strings.TrimSpace(token) == "" {
		return errors.Wrap(InvalidTokenErr, "[Manager.HandleAuthCallback] empty token")
	}

	m.lock.Lock()
	m.session.AccessToken = token
	m.session.RequiresSecondFactor = requiresSecondFactor
	m.session.User = nil
	m.session.ExpiresAt = tokenExpiry(token)
	m.session.Generation++
	m.persist(storage.AccessTokenKey, token)
	snap := m.changedLocked()
	m.lock.Unlock()
	m.notify(snap)

	verifyErr := m.VerifyToken(ctx)
	if errors.Is(verifyErr, StaleResponseErr) {
		return verifyErr
	}

	m.consumePendingRedirect(ctx)
	return verifyErr
}

// HandleCallbackURL parses the URL the auth service redirected to and hands
// its token to HandleAuthCallback.
func (m *Manager) HandleCallbackURL(ctx context.Context, callbackURL string) error {
	token, requires2FA, err := ParseCallbackURL(callbackURL)
	if err != nil {
		return err
	}
	return m.HandleAuthCallback(ctx, token, requires2FA)
}

// VerifyToken checks the current token with the auth service. On success the
// user profile and second factor flag are taken from the response. Any other
// outcome logs out and returns the reason. Without a token it returns
// UnauthenticatedErr and changes nothing.
func (m *Manager) VerifyToken(ctx context.Context) error {
	m.lock.RLock()
	token, generation := m.session.AccessToken, m.session.Generation
	m.lock.RUnlock()

	if token == "" {
		return errors.Wrap(UnauthenticatedErr, "[Manager.VerifyToken]")
	}

	resp, err := m.service.Verify(ctx, token)

	m.lock.Lock()
	if m.session.Generation != generation || m.session.AccessToken != token {
		m.lock.Unlock()
		m.logger.Debug().Msg("Ignoring verification response for a replaced session")
		return errors.Wrap(StaleResponseErr, "[Manager.VerifyToken]")
	}

	if err == nil && (resp == nil || !resp.Valid) {
		err = InvalidTokenErr
	}
	if err != nil {
		m.clearLocked()
		snap := m.changedLocked()
		m.lock.Unlock()
		m.notify(snap)
		m.logger.Err(err).Msg("Token verification failed")
		return errors.Wrap(err, "[Manager.VerifyToken]")
	}

	m.session.User = resp.UserInfo.Clone()
	m.session.RequiresSecondFactor = utils.Value(resp.UserInfo).Requires2FA
	snap := m.changedLocked()
	m.lock.Unlock()
	m.notify(snap)
	return nil
}

// Logout clears the session and every persisted key. It never fails; store
// errors are logged.
func (m *Manager) Logout() {
	m.lock.Lock()
	m.clearLocked()
	snap := m.changedLocked()
	m.lock.Unlock()
	m.notify(snap)
}

// Subscribe registers an observer. Observers are called in subscription order
// after each change, outside the manager's lock. A snapshot is not delivered
// once a newer revision has been, so an observer that triggers a change from
// its callback never sees the older state afterwards. Changes made
// concurrently from several goroutines may still be delivered in any order;
// compare Snapshot.Revision to keep the latest. Call the returned function to
// unsubscribe.
func (m *Manager) Subscribe(observer Observer) (unsubscribe func()) {
	m.observersLock.Lock()
	defer m.observersLock.Unlock()

	m.nextObserver++
	id := m.nextObserver
	m.observers = append(m.observers, observerEntry{id: id, fn: observer})

	var once sync.Once
	return func() {
		once.Do(func() {
			m.observersLock.Lock()
			defer m.observersLock.Unlock()
			for i, o := range m.observers {
				if o.id == id {
					m.observers = append(m.observers[:i:i], m.observers[i+1:]...)
					return
				}
			}
		})
	}
}

func (m *Manager) notify(snap sessions.Snapshot) {
	m.observersLock.Lock()
	observers := append([]observerEntry(nil), m.observers...)
	m.observersLock.Unlock()

	for _, o := range observers {
		if !m.advanceDelivered(snap.Revision) {
			return
		}
		o.fn(snap)
	}
}

// advanceDelivered records revision as delivered unless a newer one already was.
func (m *Manager) advanceDelivered(revision uint64) bool {
	for {
		current := m.delivered.Load()
		if current > revision {
			return false
		}
		if current == revision || m.delivered.CompareAndSwap(current, revision) {
			return true
		}
	}
}

// changedLocked bumps the revision and returns the snapshot to notify.
// It must be called with m.lock held.
func (m *Manager) changedLocked() sessions.Snapshot {
	m.session.Revision++
	return m.session.Snapshot()
}

func (m *Manager) hasToken() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.session.HasToken()
}

// clearLocked must be called with m.lock held.
func (m *Manager) clearLocked() {
	m.session.Clear()
	for _, key := range storage.SessionKeys {
		if err := m.store.Delete(key); err != nil {
			m.logger.Err(err).Str("key", key).Msg("Failed to clear persisted session key")
		}
	}
}

// persist must be called with m.lock held.
func (m *Manager) persist(key, value string) {
	if err := m.store.Set(key, value); err != nil {
		m.logger.Err(err).Str("key", key).Msg("Failed to persist session key")
	}
}

func (m *Manager) consumePendingRedirect(ctx context.Context) {
	redirectURL, ok, err := m.store.Get(storage.PendingRedirectKey)
	if err != nil {
		m.logger.Err(err).Msg("Failed to read login redirect")
		return
	}
	if !ok || redirectURL == "" {
		return
	}
	if err := m.store.Delete(storage.PendingRedirectKey); err != nil {
		m.logger.Err(err).Msg("Failed to remove login redirect")
	}
	if err := m.navigator.Navigate(ctx, redirectURL); err != nil {
		m.logger.Err(err).Str("url", redirectURL).Msg("Failed to navigate to login redirect")
	}
}
