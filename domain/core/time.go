package core

import (
	"time"
)

// Clock returns the current time; injected so forecasts and cache expiry are testable
type Clock func() time.Time

// SystemClock is the wall clock
func SystemClock() time.Time {
	return time.Now()
}

// FixedClock returns a clock that always reports t
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// MonthStart truncates t to the first day of its month
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
