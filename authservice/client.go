package authservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	errs "github.com/commasconnect/comma-auth/internal/errors"
	"github.com/commasconnect/comma-auth/oauth2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	xoauth2 "golang.org/x/oauth2"
)

const defaultTimeout = 30 * time.Second

// Client talks to the remote Comma Central Auth service. It never retries;
// callers decide what to do with a failure.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (30s timeout).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the service at baseURL (e.g. "https://auth.comma.cm").
func New(baseURL string, options ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, errors.Wrap(err, "[authservice.New] invalid base URL")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Errorf("[authservice.New] base URL must be absolute http(s): %q", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log.With().Str("component", "authservice").Logger(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service base URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetAuthorizationURL asks the service to start a Google OAuth round-trip.
func (c *Client) GetAuthorizationURL(ctx context.Context) (*oauth2.AuthorizationURLResponse, error) {
	var resp oauth2.AuthorizationURLResponse
	if err := c.do(ctx, "GetAuthorizationURL", http.MethodGet, RouteGoogleLogin, "", nil, &resp); err != nil {
		return nil, err
	}
	if resp.AuthorizationURL == "" {
		return nil, errors.Wrap(errs.ErrMalformedResponse, "[authservice.GetAuthorizationURL] response has no authorization_url")
	}
	return &resp, nil
}

// Verify reports whether accessToken is valid and who it belongs to.
func (c *Client) Verify(ctx context.Context, accessToken string) (*oauth2.VerifyResponse, error) {
	var resp oauth2.VerifyResponse
	if err := c.do(ctx, "Verify", http.MethodPost, RouteVerify, accessToken, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendOTP requests a verification code for phoneNumber. The response body is
// returned unmodified.
func (c *Client) SendOTP(ctx context.Context, accessToken, phoneNumber string) (json.RawMessage, error) {
	var resp json.RawMessage
	body := oauth2.OTPSendRequest{PhoneNumber: phoneNumber}
	if err := c.do(ctx, "SendOTP", http.MethodPost, RouteOTPSend, accessToken, body, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// VerifyOTP exchanges a verification code for a fully authenticated token pair.
func (c *Client) VerifyOTP(ctx context.Context, accessToken, phoneNumber, code string) (*oauth2.TokenResponse, error) {
	var resp oauth2.TokenResponse
	body := oauth2.OTPVerifyRequest{PhoneNumber: phoneNumber, Code: code}
	if err := c.do(ctx, "VerifyOTP", http.MethodPost, RouteOTPVerify, accessToken, body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, errors.Wrap(errs.ErrMalformedResponse, "[authservice.VerifyOTP] response has no access_token")
	}
	return &resp, nil
}

// Health returns the service health document.
func (c *Client) Health(ctx context.Context) (*oauth2.HealthResponse, error) {
	var resp oauth2.HealthResponse
	if err := c.do(ctx, "Health", http.MethodGet, RouteHealth, "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, op, method, path, accessToken string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "[authservice.%s] json.Marshal", op)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrapf(err, "[authservice.%s] http.NewRequest", op)
	}
	requestID := uuid.New().String()
	req.Header.Set(headerContentType, contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set(headerRequestID, requestID)
	if accessToken != "" {
		(&xoauth2.Token{AccessToken: accessToken, TokenType: oauth2.TokenType}).SetAuthHeader(req)
	}

	logger := c.logger.With().Str("op", op).Str("request_id", requestID).Logger()
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Err(err).Msg("auth service request failed")
		return fmt.Errorf("[authservice.%s] %w: %w", op, errs.ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		logger.Err(err).Msg("reading auth service response failed")
		return fmt.Errorf("[authservice.%s] reading body: %w: %w", op, errs.ErrTransport, err)
	}
	logger.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("auth service response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(op, resp.StatusCode, respBody)
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("[authservice.%s] decoding response: %w: %w", op, errs.ErrMalformedResponse, err)
	}
	return nil
}
