package domain

import "time"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MustDate parses a YYYY-MM-DD literal and panics on failure. Intended for fixtures.
func MustDate(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// DaysBetween returns the number of whole calendar days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// IsAfterDate compares calendar dates only.
func IsAfterDate(a, b time.Time) bool {
	return DateOf(a).After(DateOf(b))
}

// WithinDates reports whether d lies in [from, to] by calendar date.
func WithinDates(d, from, to time.Time) bool {
	day := DateOf(d)
	return !day.Before(DateOf(from)) && !day.After(DateOf(to))
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
