package oauth2

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Timestamp layouts the auth service emits. Naive datetimes (no offset) are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// Time is a time.Time that also accepts the offset-less ISO 8601 form the
// auth service produces for expires_at, e.g. "2026-10-14T12:30:00".
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.Wrap(err, "[oauth2.Time] expected a string")
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return errors.Errorf("[oauth2.Time] unrecognised timestamp %q", s)
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}
