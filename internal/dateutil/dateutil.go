// Package dateutil holds the calendar helpers the accounting engine is built
// on: day boundaries, month boundaries and clamped month arithmetic. All
// helpers preserve the location of their input.
package dateutil

import "time"

// endOfDayNanos is 23:59:59.999999 expressed in nanoseconds past the second.
const endOfDayNanos = 999999 * int(time.Microsecond)

// StartOfDay returns t truncated to 00:00:00 in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's day at microsecond
// precision, 23:59:59.999999.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, endOfDayNanos, t.Location())
}

// StartOfMonth returns midnight on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns the end of the last day of t's month.
func EndOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	// Day 0 of the next month is the last day of this one.
	last := time.Date(y, m+1, 0, 0, 0, 0, 0, t.Location())
	return EndOfDay(last)
}

// DaysInMonth returns the number of days in t's month.
func DaysInMonth(t time.Time) int {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// AddMonths moves t forward by n calendar months, clamping the day of month
// to the target month's length. Unlike time.AddDate, Jan 31 + 1 month is
// Feb 28 (or 29), not Mar 2/3.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if max := DaysInMonth(target); d > max {
		d = max
	}
	h, min, sec := t.Clock()
	return time.Date(target.Year(), target.Month(), d, h, min, sec, t.Nanosecond(), t.Location())
}

// NormalizeRange applies the whole-day convention to an optional date range:
// a bound sitting exactly on midnight is taken to mean the whole day, so the
// start stays at 00:00:00 and the end is widened to 23:59:59.999999. Without
// this a single-day range would exclude every transaction of its own day.
// Bounds carrying a time of day are used as-is. Nil bounds stay nil.
func NormalizeRange(start, end *time.Time) (*time.Time, *time.Time) {
	if end != nil && isMidnight(*end) {
		e := EndOfDay(*end)
		end = &e
	}
	return start, end
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}
