package storage

// Keys under which the session is persisted. The names match the local storage
// keys used by the browser integrations so that a store can be shared with them.
const (
	AccessTokenKey     = "comma_access_token"
	RefreshTokenKey    = "comma_refresh_token"
	PendingRedirectKey = "comma_auth_redirect"
)

// SessionKeys lists every key the auth client owns.
var SessionKeys = []string{AccessTokenKey, RefreshTokenKey, PendingRedirectKey}

// Repo defines the persistent key-value surface the auth state is mirrored into.
// Writes are synchronous from the caller's perspective and not transactional
// across keys.
type Repo interface {
	// Get returns the value for key. ok is false if the key is not set.
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}
