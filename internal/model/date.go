package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the textual form of a CalendarDate (e.g. "2024-02-15").
const DateLayout = "2006-01-02"

// CalendarDate is a date truncated to day granularity. It carries no time of
// day and no location, so two CalendarDates compare equal iff they name the
// same calendar day. The zero value is "no date".
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the CalendarDate for the given components, normalizing
// overflow the way time.Date does (e.g. 2024-01-32 becomes 2024-02-01).
func NewDate(year int, month time.Month, day int) CalendarDate {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf truncates t to the calendar day it falls on in t's own location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// ParseDate parses a "2006-01-02" string.
func ParseDate(s string) (CalendarDate, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return CalendarDate{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// IsZero reports whether d is the zero CalendarDate.
func (d CalendarDate) IsZero() bool {
	return d == CalendarDate{}
}

// Time returns midnight of d in UTC.
func (d CalendarDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// In returns midnight of d in loc.
func (d CalendarDate) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns d shifted by n days (n may be negative).
func (d CalendarDate) AddDays(n int) CalendarDate {
	return NewDate(d.Year, d.Month, d.Day+n)
}

// Weekday returns the day of the week d falls on.
func (d CalendarDate) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after other.
func (d CalendarDate) Compare(other CalendarDate) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

func (d CalendarDate) Before(other CalendarDate) bool { return d.Compare(other) < 0 }
func (d CalendarDate) After(other CalendarDate) bool  { return d.Compare(other) > 0 }

// Between reports whether d lies in [lo, hi] inclusive.
func (d CalendarDate) Between(lo, hi CalendarDate) bool {
	return !d.Before(lo) && !d.After(hi)
}

// DaysUntil returns the number of days from d to other (negative if other is
// earlier).
func (d CalendarDate) DaysUntil(other CalendarDate) int {
	return int(other.Time().Sub(d.Time()).Hours() / 24)
}

// FirstOfMonth returns the first day of d's month.
func (d CalendarDate) FirstOfMonth() CalendarDate {
	return CalendarDate{Year: d.Year, Month: d.Month, Day: 1}
}

// LastOfMonth returns the last day of d's month.
func (d CalendarDate) LastOfMonth() CalendarDate {
	return NewDate(d.Year, d.Month+1, 0)
}

func (d CalendarDate) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (d CalendarDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input yields
// the zero date.
func (d *CalendarDate) UnmarshalText(b []byte) error {
	if len(strings.TrimSpace(string(b))) == 0 {
		*d = CalendarDate{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MinDate and MaxDate return the earlier and later of a and b.
func MinDate(a, b CalendarDate) CalendarDate {
	if b.Before(a) {
		return b
	}
	return a
}

func MaxDate(a, b CalendarDate) CalendarDate {
	if b.After(a) {
		return b
	}
	return a
}

// DateSpan returns every day in [lo, hi] in ascending order. It returns nil
// when hi is before lo.
func DateSpan(lo, hi CalendarDate) []CalendarDate {
	if hi.Before(lo) {
		return nil
	}
	out := make([]CalendarDate, 0, lo.DaysUntil(hi)+1)
	for d := lo; !d.After(hi); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
