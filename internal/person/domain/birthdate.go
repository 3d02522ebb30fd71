package domain

import (
	"strings"
	"time"
)

// ParseBirthDate parses a DD/MM/YYYY form value. Empty or malformed input yields
// nil, matching how the forms treat the field as optional.
func ParseBirthDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse("02/01/2006", s)
	if err != nil {
		return nil
	}
	return &t
}

// BirthDateUpdate converts a parsed birth date into an Update value that clears
// the column when the date is absent.
func BirthDateUpdate(d *time.Time) *time.Time {
	if d == nil {
		return &time.Time{}
	}
	return d
}
