package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid date")

// Accepted input layouts, most specific first. Layouts without an offset
// are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// NormalizeSlot parses raw and truncates it to the start of its hour.
func NormalizeSlot(raw string) (time.Time, error) {
	t, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	return StartOfHour(t), nil
}

func StartOfHour(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// IsPast reports whether instant strictly precedes now.
func IsPast(instant, now time.Time) bool {
	return instant.Before(now)
}

// IsLeadWindowElapsed reports whether now has reached date minus window.
// The boundary itself counts as elapsed.
func IsLeadWindowElapsed(date, now time.Time, window time.Duration) bool {
	return !date.Add(-window).After(now)
}
