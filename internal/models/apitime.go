package models

import (
	"strings"
	"time"
)

// Layouts ServiceTitan uses across its v2 endpoints. Most timestamps come
// back as RFC 3339 UTC, but a few older endpoints emit naive timestamps
// with no zone suffix.
var apiTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// APITime is a timestamp as returned by the ServiceTitan API.
//
// Unmarshaling is tolerant: null, empty strings, and unparseable values
// all decode to the zero time rather than failing the surrounding record.
// A single malformed timestamp must not discard a whole page of results.
type APITime struct {
	time.Time
}

// NewAPITime wraps a time.Time, mostly useful in tests.
func NewAPITime(t time.Time) APITime {
	return APITime{Time: t}
}

func (t *APITime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range apiTimeLayouts {
		parsed, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.Time = time.Time{}
	return nil
}

func (t APITime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339) + `"`), nil
}

// DateKey returns the UTC calendar date as YYYY-MM-DD, or "" for the
// zero time. Used to group records by day.
func (t APITime) DateKey() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

// YearMonth returns the UTC year and month, or (0, 0) for the zero time.
func (t APITime) YearMonth() (int, int) {
	if t.IsZero() {
		return 0, 0
	}
	u := t.UTC()
	return u.Year(), int(u.Month())
}
