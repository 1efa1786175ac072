package shared

import "time"

// Clock supplies the current time to the domain. Age computation and
// date_added defaults go through it so tests can freeze the calendar.
type Clock interface {
	// Now returns the current instant
	Now() time.Time
	// Today returns the current calendar date normalized to UTC midnight
	Today() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns the current instant
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Today returns the current calendar date
func (SystemClock) Today() time.Time {
	return DateOf(time.Now())
}

// FixedClock always reports the instant it was created with.
// Used by tests that need deterministic ages.
type FixedClock struct {
	Instant time.Time
}

// NewFixedClock creates a clock frozen at the given instant
func NewFixedClock(instant time.Time) FixedClock {
	return FixedClock{Instant: instant}
}

// Now returns the frozen instant
func (c FixedClock) Now() time.Time {
	return c.Instant
}

// Today returns the frozen instant's calendar date
func (c FixedClock) Today() time.Time {
	return DateOf(c.Instant)
}

// DateOf normalizes an instant to its calendar date at UTC midnight.
// Storing and comparing dates at UTC midnight keeps day arithmetic exact
// regardless of the server's zone or DST transitions.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days elapsed from one calendar date to
// another. Both arguments are normalized first, so time-of-day never
// contributes: a batch added earlier today is 0 days old.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}
