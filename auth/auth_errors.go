package auth

import errs "github.com/commasconnect/comma-auth/internal/errors"

var (
	// UnauthenticatedErr: the operation needs an access token and none is held.
	UnauthenticatedErr = errs.ErrUnauthenticated
	// InvalidTokenErr: the auth service reported the token as not valid.
	InvalidTokenErr = errs.ErrInvalidToken
	// TransportErr: the auth service could not be reached.
	TransportErr = errs.ErrTransport
	// ServerRejectedErr: the auth service answered with a non-success status.
	ServerRejectedErr = errs.ErrServerRejected
	// MalformedResponseErr: the auth service answered 2xx with an unusable body.
	MalformedResponseErr = errs.ErrMalformedResponse
	// OTPSendFailedErr wraps a rejected OTP send request.
	OTPSendFailedErr = errs.ErrOTPSendFailed
	// StaleResponseErr: a response arrived after the session it was issued for was replaced.
	StaleResponseErr = errs.ErrStaleResponse
	// InvalidInputErr: an argument was rejected before contacting the auth service.
	InvalidInputErr = errs.ErrInvalidInput
	// StoreUnavailableErr: the persistent store could not be read or written.
	StoreUnavailableErr = errs.ErrStoreUnavailable
)
