// Package clock holds the time-of-day rules shared by post capture and the scheduler.
package clock

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"
)

// Layout is the stored form of a post's scheduled time.
const Layout = "15:04"

// ErrInvalidTimeOfDay is returned for anything but zero-padded 24h HH:MM.
var ErrInvalidTimeOfDay = errors.New("clock: time of day must be HH:MM (00:00-23:59)")

var timeOfDayRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ParseTimeOfDay validates operator input and returns the canonical HH:MM key.
func ParseTimeOfDay(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !timeOfDayRe.MatchString(s) {
		return "", ErrInvalidTimeOfDay
	}
	return s, nil
}

// Valid reports whether s is already a canonical HH:MM key.
func Valid(s string) bool {
	return timeOfDayRe.MatchString(s)
}

// Key returns the HH:MM of t in loc. Seconds are dropped, so every instant
// within one wall-clock minute maps to the same key.
func Key(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(Layout)
}

// LoadLocation resolves an IANA zone name; empty means UTC.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("clock: load location %q: %w", name, err)
	}
	return loc, nil
}
