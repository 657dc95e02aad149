// Package scheduling holds the pure weekly class model: entry validation,
// the day-indexed grid and teacher double-booking detection. Nothing here
// performs I/O; callers own the entry slices they pass in.
package scheduling

import (
	"fmt"
	"strings"
)

// MinutesPerDay bounds Clock values.
const MinutesPerDay = 24 * 60

// Clock is a wall-clock time of day in minutes after midnight, studio-local.
type Clock int

// ParseClock accepts "H:MM", "HH:MM" and "HH:MM:SS" (seconds are dropped).
func ParseClock(raw string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
	}
	hour, ok := digits(parts[0], 1, 2)
	if !ok || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
	}
	minute, ok := digits(parts[1], 2, 2)
	if !ok || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
	}
	if len(parts) == 3 {
		if sec, ok := digits(parts[2], 2, 2); !ok || sec > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
		}
	}
	return Clock(hour*60 + minute), nil
}

// MinuteOf returns the minute of day for raw, or false when it does not parse.
func MinuteOf(raw string) (int, bool) {
	c, err := ParseClock(raw)
	if err != nil {
		return 0, false
	}
	return int(c), true
}

// String renders the clock as zero padded HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// NormalizeClock re-renders raw as HH:MM.
func NormalizeClock(raw string) (string, error) {
	c, err := ParseClock(raw)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

func digits(s string, minLen, maxLen int) (int, bool) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
