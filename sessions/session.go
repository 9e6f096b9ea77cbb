package sessions

import (
	"time"

	"github.com/commasconnect/comma-auth/oauth2"
)

// State is the coarse authentication state derived from a Session.
type State int

const (
	// Unauthenticated: no access token is held.
	Unauthenticated State = iota
	// PartiallyAuthenticated: a first-factor token is held, OTP verification pending.
	PartiallyAuthenticated
	// Authenticated: a token is held and no second factor is outstanding.
	Authenticated
)

func (s State) String() string {
	switch s {
	case PartiallyAuthenticated:
		return "partially_authenticated"
	case Authenticated:
		return "authenticated"
	}
	return "unauthenticated"
}

// Session is the client-side authentication state. Empty token strings mean absent.
// AccessToken and RefreshToken are persisted; RequiresSecondFactor and User are
// transient and recomputed by token verification.
type Session struct {
	AccessToken          string
	RefreshToken         string
	RequiresSecondFactor bool
	User                 *oauth2.UserInfo
	ExpiresAt            time.Time // zero when unknown
	Generation           uint64    // bumped by every state-clearing operation
	Revision             uint64    // bumped by every change
}

func (s *Session) HasToken() bool {
	return s.AccessToken != ""
}

func (s *Session) IsAuthenticated() bool {
	return s.HasToken() && !s.RequiresSecondFactor
}

func (s *Session) IsPartiallyAuthenticated() bool {
	return s.HasToken() && s.RequiresSecondFactor
}

func (s *Session) State() State {
	switch {
	case s.IsAuthenticated():
		return Authenticated
	case s.IsPartiallyAuthenticated():
		return PartiallyAuthenticated
	}
	return Unauthenticated
}

// Clear drops every field except the counters; the generation is advanced.
func (s *Session) Clear() {
	*s = Session{Generation: s.Generation + 1, Revision: s.Revision}
}

// Snapshot is an immutable view of a Session handed to observers.
// It never carries the raw tokens. Revision orders snapshots of one manager.
type Snapshot struct {
	State      State
	User       *oauth2.UserInfo
	ExpiresAt  time.Time
	Generation uint64
	Revision   uint64
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		State:      s.State(),
		User:       s.User.Clone(),
		ExpiresAt:  s.ExpiresAt,
		Generation: s.Generation,
		Revision:   s.Revision,
	}
}
