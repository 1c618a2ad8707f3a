// Package profile assigns each calendar month a response personality
// based on its offset from the current month. The selection is pure:
// the same (target month, now) pair always yields the same profile.
package profile

import (
	"fmt"
	"time"
)

type Profile int

const (
	// Standard serves stored data with the availability overlay applied.
	Standard Profile = iota
	// JSONOnly serves only a condensed list of open dates.
	JSONOnly
	// Delayed piles extra latency on top of the base delay.
	Delayed
	// AllUnavailable reports every day closed regardless of stored data.
	AllUnavailable
	// AllFull reports every day full regardless of stored data.
	AllFull
	// Randomized draws a fresh misbehavior on every query.
	Randomized
)

const cycle = 6

func (p Profile) String() string {
	switch p {
	case Standard:
		return "standard"
	case JSONOnly:
		return "json-only"
	case Delayed:
		return "delayed"
	case AllUnavailable:
		return "all-unavailable"
	case AllFull:
		return "all-full"
	case Randomized:
		return "randomized"
	}
	return fmt.Sprintf("profile(%d)", int(p))
}

// MonthDiff returns the whole calendar months from ref to target:
// 12*(year delta) + (month delta). Days of month are ignored.
func MonthDiff(target, ref time.Time) int {
	return 12*(target.Year()-ref.Year()) + int(target.Month()) - int(ref.Month())
}

// Select maps the month offset to a profile. The current month and
// everything before it are Standard; from there the six profiles cycle.
func Select(target, ref time.Time) Profile {
	diff := MonthDiff(target, ref)
	if diff <= 0 {
		return Standard
	}
	return Profile(diff % cycle)
}

// ForMonthKey parses a YYYY-MM month key and selects its profile
// relative to now.
func ForMonthKey(monthKey string, now time.Time) (Profile, error) {
	target, err := time.Parse("2006-01", monthKey)
	if err != nil {
		return Standard, fmt.Errorf("profile: invalid month key %q: %w", monthKey, err)
	}
	return Select(target, now), nil
}
