package utils

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2024-06-10T14:00:00Z", time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)},
		{"2024-06-10T14:30:15.250Z", time.Date(2024, 6, 10, 14, 30, 15, 250e6, time.UTC)},
		{"2024-06-10T11:00:00-03:00", time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)},
		{"2024-06-10T14:00:00", time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)},
		{"2024-06-10T14:00", time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)},
		{" 2024-06-10 ", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.raw)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.raw, err)
			continue
		}
		if !got.Equal(tt.want) || got.Location() != time.UTC {
			t.Errorf("%q: expected %s, got %s", tt.raw, tt.want, got)
		}
	}

	for _, raw := range []string{"", "   ", "tomorrow", "10/06/2024", "2024-13-01"} {
		if _, err := ParseDate(raw); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("%q: expected ErrInvalidDate, got %v", raw, err)
		}
	}
}

func TestNormalizeSlot(t *testing.T) {
	tests := map[string]string{
		"2024-06-10T14:00:00Z":      "2024-06-10T14:00:00Z",
		"2024-06-10T14:59:59.999Z":  "2024-06-10T14:00:00Z",
		"2024-06-10T11:45:00-03:00": "2024-06-10T14:00:00Z",
		// Half-hour offsets still land on a UTC hour.
		"2024-06-10T20:15:00+05:30": "2024-06-10T14:00:00Z",
	}

	for raw, want := range tests {
		got, err := NormalizeSlot(raw)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", raw, err)
			continue
		}
		if FormatTime(got) != want {
			t.Errorf("%q: expected %s, got %s", raw, want, FormatTime(got))
		}
	}

	if _, err := NormalizeSlot("nope"); err == nil {
		t.Error("expected error")
	}
}

func TestIsPast(t *testing.T) {
	now := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

	if IsPast(now, now) {
		t.Error("expected now not to be past")
	}
	if !IsPast(now.Add(-time.Nanosecond), now) {
		t.Error("expected an instant before now to be past")
	}
	if IsPast(now.Add(time.Hour), now) {
		t.Error("expected the future not to be past")
	}
}

func TestIsLeadWindowElapsed(t *testing.T) {
	date := time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)
	window := 2 * time.Hour

	tests := []struct {
		now  time.Time
		want bool
	}{
		{date.Add(-3 * time.Hour), false},
		{date.Add(-window - time.Second), false},
		{date.Add(-window), true},
		{date.Add(-time.Hour), true},
		{date.Add(time.Hour), true},
	}

	for _, tt := range tests {
		if got := IsLeadWindowElapsed(date, tt.now, window); got != tt.want {
			t.Errorf("now %s: expected %t, got %t", FormatTime(tt.now), tt.want, got)
		}
	}
}

func TestClockFunc(t *testing.T) {
	fixed := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	var clock Clock = ClockFunc(func() time.Time { return fixed })
	if !clock.Now().Equal(fixed) {
		t.Errorf("expected %s, got %s", fixed, clock.Now())
	}
	if (SystemClock{}).Now().Location() != time.UTC {
		t.Error("expected system clock in UTC")
	}
}
