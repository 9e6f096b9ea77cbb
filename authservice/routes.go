package authservice

// Endpoint paths of the Comma Central Auth service
const (
	RouteGoogleLogin = "/auth/google"
	RouteVerify      = "/auth/verify"
	RouteOTPSend     = "/auth/otp/send"
	RouteOTPVerify   = "/auth/otp/verify"
	RouteHealth      = "/health"
)

const (
	headerRequestID   = "X-Request-ID"
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"

	maxResponseBytes = 1 << 20
)
