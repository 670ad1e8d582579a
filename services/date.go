package services

import (
	"strings"
	"time"
)

// ParseDate reads a date input value (YYYY-MM-DD). API clients may send a
// full RFC 3339 timestamp instead.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, NewValidationError("Enter a valid date (YYYY-MM-DD).")
}
