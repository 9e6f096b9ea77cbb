package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/commasconnect/comma-auth/storage"
	"github.com/pkg/errors"
)

// OTPOutcome is the result of VerifyOTP.
type OTPOutcome int

const (
	// OTPFailed: the code exchange did not succeed; the session is unchanged.
	OTPFailed OTPOutcome = iota
	// OTPVerified: new tokens were installed and verified.
	OTPVerified
	// OTPVerifiedSessionLost: the code was accepted and new tokens installed,
	// but verifying them failed and the session was logged out.
	OTPVerifiedSessionLost
)

func (o OTPOutcome) String() string {
	switch o {
	case OTPVerified:
		return "verified"
	case OTPVerifiedSessionLost:
		return "verified_session_lost"
	}
	return "failed"
}

// SendOTP asks the auth service to send a verification code to phoneNumber and
// returns the service's response unmodified. It fails with UnauthenticatedErr,
// without contacting the service, when no token is held.
func (m *Manager) SendOTP(ctx context.Context, phoneNumber string) (json.RawMessage, error) {
	m.lock.RLock()
	token := m.session.AccessToken
	m.lock.RUnlock()

	if token == "" {
		return nil, errors.Wrap(UnauthenticatedErr, "[Manager.SendOTP]")
	}
	if err := m.validator.ValidatePhoneNumber(phoneNumber); err != nil {
		return nil, errors.Wrap(err, "[Manager.SendOTP]")
	}

	resp, err := m.service.SendOTP(ctx, token, phoneNumber)
	if err != nil {
		m.logger.Err(err).Msg("Failed to send OTP")
		if errors.Is(err, ServerRejectedErr) {
			return nil, fmt.Errorf("[Manager.SendOTP] %w: %w", OTPSendFailedErr, err)
		}
		return nil, errors.Wrap(err, "[Manager.SendOTP]")
	}
	return resp, nil
}

// VerifyOTP exchanges code for a fully authenticated token pair, persists both
// tokens and verifies the new access token. See OTPOutcome for the results.
func (m *Manager) VerifyOTP(ctx context.Context, phoneNumber, code string) (OTPOutcome, error) {
	m.lock.RLock()
	token, generation := m.session.AccessToken, m.session.Generation
	m.lock.RUnlock()

	if token == "" {
		return OTPFailed, errors.Wrap(UnauthenticatedErr, "[Manager.VerifyOTP]")
	}
	if err := m.validator.ValidatePhoneNumber(phoneNumber); err != nil {
		return OTPFailed, errors.Wrap(err, "[Manager.VerifyOTP]")
	}
	if err := m.validator.ValidateOTPCode(code); err != nil {
		return OTPFailed, errors.Wrap(err, "[Manager.VerifyOTP]")
	}

	resp, err := m.service.VerifyOTP(ctx, token, phoneNumber, code)
	if err != nil {
		m.logger.Err(err).Msg("OTP verification failed")
		return OTPFailed, errors.Wrap(err, "[Manager.VerifyOTP]")
	}

	m.lock.Lock()
	if m.session.Generation != generation || m.session.AccessToken != token {
		m.lock.Unlock()
		m.logger.Debug().Msg("Ignoring OTP verification response for a replaced session")
		return OTPFailed, errors.Wrap(StaleResponseErr, "[Manager.VerifyOTP]")
	}
	m.session.AccessToken = resp.AccessToken
	m.session.RefreshToken = resp.RefreshToken
	m.session.RequiresSecondFactor = false
	m.session.ExpiresAt = tokenExpiry(resp.AccessToken)
	if m.session.ExpiresAt.IsZero() {
		m.session.ExpiresAt = resp.ExpiresAt(m.nowTime())
	}
	m.persist(storage.AccessTokenKey, resp.AccessToken)
	m.persist(storage.RefreshTokenKey, resp.RefreshToken)
	snap := m.changedLocked()
	m.lock.Unlock()
	m.notify(snap)

	if err := m.VerifyToken(ctx); err != nil {
		return OTPVerifiedSessionLost, errors.Wrap(err, "[Manager.VerifyOTP]")
	}
	return OTPVerified, nil
}
