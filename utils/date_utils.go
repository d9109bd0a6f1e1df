package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// The backing service serializes every timestamp it emits as a millisecond
// epoch wrapped in "/Date(...)/". Some transports escape the slashes, so the
// pattern tolerates both forms.
var serviceDatePattern = regexp.MustCompile(`\\?/Date\((\d+)\)\\?/`)

// ParseServiceDate parses the service wire format into a local time. The
// second return value is false for empty input, input that does not match
// the wire pattern, or a timestamp too large to represent. Upstream records
// are frequently incomplete, so unparseable input is never an error.
func ParseServiceDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	m := serviceDatePattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// FormatAPIDate renders a date the way the service expects it on writes: a
// plain calendar date. Reads use the wire format, writes never do.
func FormatAPIDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// FormatAPIDateTime renders a timestamp for status-change submissions.
func FormatAPIDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02T15:04:05")
}

// FormatServiceDate renders a time in the read-side wire format. The live
// service only ever emits this shape; the encoder exists for fixtures and
// round-trip checks.
func FormatServiceDate(t time.Time) string {
	return fmt.Sprintf("/Date(%d)/", t.UnixMilli())
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay moves t to the last representable instant of its day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
