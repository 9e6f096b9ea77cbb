package oauth2

import "time"

// TokenType is the token scheme the auth service issues.
const TokenType = "bearer"

// TokenResponse represents the token pair issued by the auth service.
// Returned from /auth/otp/verify once the second factor is completed, and from
// /auth/google/callback when no redirect URL was supplied.
type TokenResponse struct {
	// AccessToken is the JWT used to call Comma services.
	// Example: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."
	// Usage: Include in Authorization header: "Bearer <access_token>"
	// Lifespan: Short-lived (30 minutes by default)
	AccessToken string `json:"access_token"`

	// RefreshToken is a long-lived JWT identifying the user.
	// Lifespan: 7 days by default
	// Security: Persisted next to the access token, cleared on logout
	RefreshToken string `json:"refresh_token"`

	// TokenType indicates how to use the access token (always "bearer").
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Example: 1800
	// Note: This is a hint - actual expiration is in the JWT's "exp" claim
	ExpiresIn int `json:"expires_in,omitempty"`

	// Requires2FA is true while the token only carries first-factor permissions.
	// After /auth/otp/verify succeeds it is always false.
	Requires2FA bool `json:"requires_2fa"`
}

// ExpiresAt converts ExpiresIn to an absolute time relative to now.
// The zero time is returned when the server sent no lifetime.
func (tr TokenResponse) ExpiresAt(now time.Time) time.Time {
	if tr.ExpiresIn <= 0 {
		return time.Time{}
	}
	return now.Add(time.Duration(tr.ExpiresIn) * time.Second)
}
