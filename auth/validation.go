package auth

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

const maxOTPCodeLength = 10

// Validator checks caller-supplied arguments before they are sent to the auth service.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidatePhoneNumber rejects blank numbers. Format checks are left to the
// auth service, which knows which regions it can deliver to.
func (v *Validator) ValidatePhoneNumber(phoneNumber string) error {
	if strings.TrimSpace(phoneNumber) == "" {
		return errors.Wrap(InvalidInputErr, "phone number is required")
	}
	return nil
}

// ValidateOTPCode rejects blank or implausibly long codes.
func (v *Validator) ValidateOTPCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return errors.Wrap(InvalidInputErr, "verification code is required")
	}
	if len(code) > maxOTPCodeLength {
		return errors.Wrapf(InvalidInputErr, "verification code must be at most %d characters", maxOTPCodeLength)
	}
	return nil
}

// Schemes that execute or read content in the host instead of navigating.
var blockedRedirectSchemes = map[string]bool{
	"javascript": true,
	"vbscript":   true,
	"data":       true,
	"file":       true,
}

// ValidateRedirectURL is stricter than the auth service, which stores any
// string. It accepts an absolute URL or a path starting with a single "/".
// http(s) URLs need a host; custom app schemes ("comma://done") are allowed,
// script-capable schemes are not. Document-relative references ("dashboard",
// "?tab=2") are rejected because they resolve differently once the browser
// has visited the identity provider. An empty URL means "no redirect".
func (v *Validator) ValidateRedirectURL(redirectURL string) error {
	if redirectURL == "" {
		return nil
	}
	u, err := url.Parse(redirectURL)
	if err != nil {
		return errors.Wrapf(InvalidInputErr, "redirect URL: %v", err)
	}
	if u.IsAbs() {
		scheme := strings.ToLower(u.Scheme)
		if blockedRedirectSchemes[scheme] {
			return errors.Wrapf(InvalidInputErr, "redirect URL scheme %q is not allowed", u.Scheme)
		}
		if (scheme == "http" || scheme == "https") && u.Host == "" {
			return errors.Wrap(InvalidInputErr, "redirect URL has no host")
		}
		return nil
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(redirectURL, "//") {
		return errors.Wrap(InvalidInputErr, "redirect URL must be absolute or start with a single /")
	}
	return nil
}
