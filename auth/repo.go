package auth

import (
	"context"
	"encoding/json"

	"github.com/commasconnect/comma-auth/oauth2"
)

// Service is the remote auth service the Manager synchronises with.
// authservice.Client is the HTTP implementation.
type Service interface {
	GetAuthorizationURL(ctx context.Context) (*oauth2.AuthorizationURLResponse, error)
	Verify(ctx context.Context, accessToken string) (*oauth2.VerifyResponse, error)
	SendOTP(ctx context.Context, accessToken, phoneNumber string) (json.RawMessage, error)
	VerifyOTP(ctx context.Context, accessToken, phoneNumber, code string) (*oauth2.TokenResponse, error)
}

// Navigator performs a full navigation of the hosting environment to url,
// e.g. a browser redirect or opening the system browser from a CLI.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(ctx context.Context, url string) error

func (f NavigatorFunc) Navigate(ctx context.Context, url string) error {
	return f(ctx, url)
}
