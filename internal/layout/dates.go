// Package layout computes calendar geometry: where an event sits on the
// week time grid, how overlapping events share a day column, where a
// dropped event lands, and which days make up a month grid.
//
// Every function here is pure. Inputs are never mutated and nothing is
// cached between calls, so recomputing from the full event set on every
// render is always correct.
package layout

import "time"

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns Monday 00:00 of the week containing t. Sunday
// belongs to the week that started six days earlier.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t).AddDate(0, 0, -offset)
}

// AddDays shifts t by n calendar days, keeping the wall clock across DST
// changes.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// SameDay reports whether t falls on day's calendar date, judged in day's
// location.
func SameDay(t, day time.Time) bool {
	ty, tm, td := t.In(day.Location()).Date()
	dy, dm, dd := day.Date()
	return ty == dy && tm == dm && td == dd
}

// WeekDays returns the seven days (Monday first) of anchor's week.
func WeekDays(anchor time.Time) []time.Time {
	start := StartOfWeek(anchor)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = AddDays(start, i)
	}
	return days
}

// WeekNumber returns the ISO 8601 week number of t.
func WeekNumber(t time.Time) int {
	_, w := t.ISOWeek()
	return w
}
