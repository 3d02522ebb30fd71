package domain

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Event is a campaign event with a public page at /eventos/{slug}.
type Event struct {
	ID          string
	Name        string
	Slug        string
	Date        time.Time
	Description string
	CreatedAt   time.Time
}

// Registration records a person's attendance, with the leader whose link
// brought them, if any.
type Registration struct {
	ID        string
	EventID   string
	PersonID  string
	LeaderID  string
	CreatedAt time.Time
}

// Slugify derives the URL slug of an event name: lowercased, accents
// stripped, only a-z, 0-9 and dashes kept, whitespace runs turned into one dash.
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	s, _, err := transform.String(t, strings.ToLower(name))
	if err != nil {
		s = strings.ToLower(name)
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	s = strings.Join(strings.Fields(b.String()), "-")

	b.Reset()
	prevDash := false
	for _, r := range s {
		if r == '-' {
			if prevDash {
				continue
			}
			prevDash = true
		} else {
			prevDash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// ParseDate accepts RFC 3339, datetime-local (YYYY-MM-DDTHH:MM) and plain
// dates. Values without an offset are taken as UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
