package helpers

import (
	"strings"
	"time"
)

var dateTimeLayouts = []string{
	"2006-01-02 15:04",
	"2006-1-2 15:04",
	"02.01.2006 15:04",
	"2.1.2006 15:04",
}

// ParseDateTime parses a date with a 24-hour time of day in loc.
func ParseDateTime(input string, loc *time.Location) (time.Time, bool) {
	s := strings.Join(strings.Fields(input), " ")
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseClock parses a 24-hour "HH:MM" (or "H:MM") time of day.
func ParseClock(input string) (hour, minute int, ok bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(input))
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

// NextClock returns the first moment strictly after now at hour:minute in now's location.
func NextClock(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
