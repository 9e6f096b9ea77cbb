package errors

import "errors"

// Error taxonomy shared by the auth client packages
var (
	// Session errors
	ErrUnauthenticated = errors.New("not authenticated")
	ErrInvalidToken    = errors.New("invalid token")
	ErrStaleResponse   = errors.New("response belongs to a previous session")

	// Remote service errors
	ErrTransport      = errors.New("auth service unreachable")
	ErrServerRejected = errors.New("auth service rejected request")
	ErrOTPSendFailed  = errors.New("failed to send OTP")

	// A 2xx answer whose body is not what the endpoint promises
	ErrMalformedResponse = errors.New("malformed auth service response")

	// Input errors
	ErrInvalidInput = errors.New("invalid input")

	// Storage errors
	ErrStoreUnavailable = errors.New("persistent store unavailable")
)
