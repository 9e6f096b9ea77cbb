package oauth2

// Provider identifies the identity provider a user signed in with.
type Provider string

const (
	// ProviderGoogle is currently the only provider the auth service accepts.
	// Endpoint: GET /auth/google
	ProviderGoogle Provider = "google"

	// ProviderApple is reserved; the endpoint answers 501 Not Implemented.
	ProviderApple Provider = "apple"

	// ProviderMicrosoft is reserved; the endpoint answers 501 Not Implemented.
	ProviderMicrosoft Provider = "microsoft"
)

// UserInfo is the user profile the auth service reports for a token.
type UserInfo struct {
	// Email is the verified address of the signed-in account.
	// Example: "jane@comma.cm"
	Email string `json:"email"`

	// Name is the display name from the identity provider.
	Name string `json:"name"`

	// Picture is the avatar URL, absent for accounts without one.
	Picture *string `json:"picture,omitempty"`

	// Domain is the hosted domain of the account (e.g. "comma.cm").
	// The server only admits accounts from its allowed domain list.
	Domain string `json:"domain"`

	// Provider is the identity provider that authenticated the user.
	Provider Provider `json:"provider"`

	// Requires2FA is the server-reported second factor flag.
	// True: the token is partial, the user must complete OTP verification.
	Requires2FA bool `json:"requires_2fa,omitempty"`
}

// Clone returns a deep copy of u, or nil.
func (u *UserInfo) Clone() *UserInfo {
	if u == nil {
		return nil
	}
	c := *u
	if u.Picture != nil {
		picture := *u.Picture
		c.Picture = &picture
	}
	return &c
}

// AuthorizationURLResponse is returned from GET /auth/{provider}.
type AuthorizationURLResponse struct {
	// AuthorizationURL is where the user agent must navigate to sign in.
	AuthorizationURL string `json:"authorization_url"`

	// State is the CSRF state the server generated for this login round-trip.
	State string `json:"state,omitempty"`
}

// VerifyResponse is returned from POST /auth/verify.
type VerifyResponse struct {
	// Valid reports whether the presented token is currently accepted.
	Valid bool `json:"valid"`

	// UserInfo is present when Valid is true.
	UserInfo *UserInfo `json:"user_info,omitempty"`

	// Scopes granted to the token. "read" before 2FA, "read write admin" after.
	Scopes []string `json:"scopes,omitempty"`

	// ExpiresAt is the token expiry as reported by the server, in UTC.
	ExpiresAt *Time `json:"expires_at,omitempty"`
}

// OTPSendRequest is the body of POST /auth/otp/send.
type OTPSendRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// OTPVerifyRequest is the body of POST /auth/otp/verify.
type OTPVerifyRequest struct {
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"code"`
}

// HealthResponse is returned from GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
