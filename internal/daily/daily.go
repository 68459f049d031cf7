// internal/daily/daily.go
//
// Calendar helpers for the daily puzzle.
// A day is identified by its YYYY-MM-DD key in the configured puzzle time
// zone; the key doubles as the generator seed.

package daily

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate is returned for keys that are not a YYYY-MM-DD calendar date.
var ErrInvalidDate = errors.New("daily: invalid date")

// Key returns the YYYY-MM-DD key of t in loc (UTC if loc is nil).
func Key(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(time.DateOnly)
}

// ParseKey validates a date key.
func ParseKey(key string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q, want YYYY-MM-DD", ErrInvalidDate, key)
	}
	return t, nil
}

// NextReset is the next local midnight after t in loc.
func NextReset(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day()+1, 0, 0, 0, 0, loc)
}
