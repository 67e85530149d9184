package repository

import (
	"strings"
	"time"
)

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM"}

// ParseClock reads a wall-clock time such as "08:00", "8:00" or "2:30 PM"
// and returns the offset from midnight.
func ParseClock(s string) (time.Duration, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, true
		}
	}
	return 0, false
}

// CompareClock orders two clock strings chronologically when both parse,
// and by plain string comparison otherwise.
func CompareClock(a, b string) int {
	da, okA := ParseClock(a)
	db, okB := ParseClock(b)
	if okA && okB {
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

// ClockSpan is end minus start, or zero when either side does not parse or
// end is not after start.
func ClockSpan(start, end string) time.Duration {
	s, ok1 := ParseClock(start)
	e, ok2 := ParseClock(end)
	if !ok1 || !ok2 || e <= s {
		return 0
	}
	return e - s
}
