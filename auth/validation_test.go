package auth_test

import (
	"strings"
	"testing"

	"github.com/commasconnect/comma-auth/auth"
	"github.com/stretchr/testify/require"
)

func TestValidator_ValidateRedirectURL(t *testing.T) {
	v := auth.NewValidator()

	for _, ok := range []string{"", "https://app.comma.cm/dashboard", "http://localhost:3000/", "/settings?tab=2fa", "comma://done", "com.comma.app:/oauth"} {
		require.NoError(t, v.ValidateRedirectURL(ok), ok)
	}
	for _, bad := range []string{"javascript:alert(1)", "JavaScript:alert(1)", "data:text/html,hi", "//evil.example", "relative/path", "dashboard", "?tab=2", "https:///nohost"} {
		err := v.ValidateRedirectURL(bad)
		require.ErrorIs(t, err, auth.InvalidInputErr, bad)
	}
}

func TestValidator_ValidatePhoneNumber(t *testing.T) {
	v := auth.NewValidator()

	require.NoError(t, v.ValidatePhoneNumber("+1 555-1234"))
	require.ErrorIs(t, v.ValidatePhoneNumber(""), auth.InvalidInputErr)
	require.ErrorIs(t, v.ValidatePhoneNumber("\t"), auth.InvalidInputErr)
}

func TestValidator_ValidateOTPCode(t *testing.T) {
	v := auth.NewValidator()

	require.NoError(t, v.ValidateOTPCode("000000"))
	require.ErrorIs(t, v.ValidateOTPCode(" "), auth.InvalidInputErr)

	err := v.ValidateOTPCode(strings.Repeat("1", 11))
	require.ErrorIs(t, err, auth.InvalidInputErr)
	require.Contains(t, err.Error(), "at most 10")
}
