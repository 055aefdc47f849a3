package recur

import (
	"fmt"
	"time"
)

// Kind names how often a series repeats.
type Kind string

const (
	Daily   Kind = "daily"
	Weekly  Kind = "weekly"
	Monthly Kind = "monthly"
)

// ParseKind converts user input into a Kind.
func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case Daily, Weekly, Monthly:
		return Kind(raw), nil
	}
	return "", fmt.Errorf("unknown recurrence kind %q", raw)
}

func (k Kind) Valid() bool {
	return k == Daily || k == Weekly || k == Monthly
}

// AddMonthsClamped advances t by the given number of months, keeping the
// day-of-month when it exists in the target month and clamping to the last
// day otherwise (Jan 31 -> Feb 28/29 -> Mar 31). The target month is
// resolved from the 1st plus the offset so that an oversized day can never
// spill into the month after it.
func AddMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	shifted := first.AddDate(0, months, 0)

	day := t.Day()
	if last := daysInMonth(shifted.Month(), shifted.Year()); day > last {
		day = last
	}
	return time.Date(shifted.Year(), shifted.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysInMonth moves to the next month and rolls back a day.
func daysInMonth(month time.Month, year int) int {
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 1, 0).AddDate(0, 0, -1).Day()
}

// Schedule lazily yields the due dates of a series. The first value is the
// anchor itself; every later value advances by one period, always measured
// from the anchor so monthly clamping does not drift. Iteration ends once
// a value would pass the inclusive bound. A Schedule is single-use; build
// a new one with the same arguments to restart the sequence.
type Schedule struct {
	kind   Kind
	anchor time.Time
	until  time.Time
	step   int
	done   bool
}

func New(anchor, until time.Time, kind Kind) *Schedule {
	return &Schedule{kind: kind, anchor: anchor, until: until, done: !kind.Valid()}
}

// Next returns the next due date; ok is false once the sequence is exhausted.
func (s *Schedule) Next() (time.Time, bool) {
	if s.done {
		return time.Time{}, false
	}

	var t time.Time
	switch s.kind {
	case Daily:
		t = s.anchor.AddDate(0, 0, s.step)
	case Weekly:
		t = s.anchor.AddDate(0, 0, 7*s.step)
	case Monthly:
		t = AddMonthsClamped(s.anchor, s.step)
	}

	if t.After(s.until) {
		s.done = true
		return time.Time{}, false
	}
	s.step++
	return t, true
}
