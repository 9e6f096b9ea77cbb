package authservice

import (
	"encoding/json"
	"fmt"
	"strings"

	errs "github.com/commasconnect/comma-auth/internal/errors"
)

// StatusError is returned when the auth service answers with a non-success status.
// It matches errs.ErrServerRejected with errors.Is.
type StatusError struct {
	Op         string
	StatusCode int
	Detail     string // "detail" field of the error body, if any
	Body       string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[authservice.%s] status %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("[authservice.%s] status %d", e.Op, e.StatusCode)
}

func (e *StatusError) Is(target error) bool {
	return target == errs.ErrServerRejected
}

func newStatusError(op string, statusCode int, body []byte) *StatusError {
	se := &StatusError{
		Op:         op,
		StatusCode: statusCode,
		Body:       strings.TrimSpace(string(body)),
	}
	var detail struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(body, &detail) == nil {
		switch d := detail.Detail.(type) {
		case string:
			se.Detail = d
		case nil:
		default:
			b, _ := json.Marshal(d)
			se.Detail = string(b)
		}
	}
	return se
}
