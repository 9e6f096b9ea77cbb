package auth

import (
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

// ParseCallbackURL extracts the token and second factor flag the auth service
// appends to the login redirect: "<redirect>?token=<jwt>&requires_2fa=true".
func ParseCallbackURL(callbackURL string) (token string, requiresSecondFactor bool, err error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return "", false, errors.Wrapf(InvalidInputErr, "[auth.ParseCallbackURL] %v", err)
	}
	q := u.Query()
	token = q.Get("token")
	if token == "" {
		return "", false, errors.Wrap(InvalidInputErr, "[auth.ParseCallbackURL] no token parameter")
	}
	if v := q.Get("requires_2fa"); v != "" {
		requiresSecondFactor, _ = strconv.ParseBool(v)
	}
	return token, requiresSecondFactor, nil
}
