package cli

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Deref returns *s, or "-" for nil and empty strings.
func Deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:n-3]) + "..."
}

// FormatTime renders t in local time. All-day values drop the clock.
func FormatTime(t time.Time, allDay bool) string {
	if t.IsZero() {
		return "-"
	}
	if allDay {
		return t.Local().Format("2006-01-02")
	}
	return t.Local().Format("2006-01-02 15:04")
}

// Mark returns marker when on is set and a blank of the same width otherwise.
func Mark(on bool, marker string) string {
	if on {
		return marker
	}
	return strings.Repeat(" ", utf8.RuneCountInString(marker))
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

// ParseTime accepts RFC 3339 or a local "2006-01-02 15:04" / "2006-01-02".
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for i, layout := range timeLayouts {
		var (
			t   time.Time
			err error
		)
		if i == 0 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 or 2006-01-02 15:04", s)
}
