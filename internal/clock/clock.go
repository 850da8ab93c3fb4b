package clock

import "time"

// Clock abstracts time.Now so day-of-year selection and cache expiry are
// testable without waiting for real calendar days.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Fixed always returns the same instant. For tests.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }

// DayOfYear returns the number of whole days elapsed since January 1 of t's
// year, so January 1 is day 0. Selection indexes are dayOfYear mod pool size.
func DayOfYear(t time.Time) int {
	return t.YearDay() - 1
}
