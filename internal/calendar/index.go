package calendar

import (
	"time"

	"gridcal/internal/model"
)

// section is one precomputed month section. Cells are consecutive days, so
// the date of item i is gridStart + i days.
type section struct {
	month     model.SectionRange
	gridStart model.CalendarDate
	count     int
	// offset is the weekday column of item 0 (non-zero only when padding is
	// hidden).
	offset int
}

// Index maps calendar dates to (section, item) coordinates and back. An
// Index is immutable once built; reconfiguring a calendar builds a new one.
type Index struct {
	params   Params
	sections []section
}

// NewIndex validates p and precomputes the month sections from p.Start's
// month through p.End's month.
func NewIndex(p Params) (*Index, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	first := p.Start.FirstOfMonth()
	n := monthsBetween(p.Start, p.End) + 1
	sections := make([]section, 0, n)

	for i := 0; i < n; i++ {
		monthFirst := model.NewDate(first.Year, first.Month+time.Month(i), 1)
		monthLast := monthFirst.LastOfMonth()
		days := monthLast.Day
		leading := (int(monthFirst.Weekday()) - int(p.FirstDayOfWeek) + daysPerWeek) % daysPerWeek

		s := section{
			month: model.SectionRange{
				Year:  monthFirst.Year,
				Month: monthFirst.Month,
				First: monthFirst,
				Last:  monthLast,
			},
		}

		if p.OutOfMonth == OutOfMonthHidden {
			s.gridStart = monthFirst
			s.count = days
			s.offset = leading
		} else {
			trailing := (daysPerWeek - (leading+days)%daysPerWeek) % daysPerWeek
			if p.OutDates == OutDatesEndOfGrid {
				trailing = cellsPerGrid - leading - days
			}
			s.gridStart = monthFirst.AddDays(-leading)
			s.count = leading + days + trailing
		}
		sections = append(sections, s)
	}

	return &Index{params: p, sections: sections}, nil
}

// Params returns the parameters the index was built from.
func (x *Index) Params() Params { return x.params }

// SectionCount returns the number of month sections.
func (x *Index) SectionCount() int { return len(x.sections) }

// ItemCount returns the number of cells in the given section.
func (x *Index) ItemCount(sec int) (int, error) {
	s, err := x.section(sec)
	if err != nil {
		return 0, err
	}
	return s.count, nil
}

// MonthBoundaries returns the month a section displays.
func (x *Index) MonthBoundaries(sec int) (model.SectionRange, error) {
	s, err := x.section(sec)
	if err != nil {
		return model.SectionRange{}, err
	}
	return s.month, nil
}

// Contains reports whether d lies within the configured [Start, End] range.
func (x *Index) Contains(d model.CalendarDate) bool {
	return d.Between(x.params.Start, x.params.End)
}

// Date returns the date backing c. Coordinates that do not exist, and
// padding cells whose day lies outside the configured range, have no
// backing date.
func (x *Index) Date(c model.Coordinate) (model.CalendarDate, error) {
	d, err := x.cellDate(c)
	if err != nil {
		return model.CalendarDate{}, err
	}
	if !x.Contains(d) {
		return model.CalendarDate{}, &InvalidCoordinateError{Coordinate: c, Reason: "cell day " + d.String() + " is outside the configured range"}
	}
	return d, nil
}

// Coordinate returns the canonical coordinate for d. It returns false when d
// is outside the configured range. A day rendered in two sections resolves
// according to the index's OwnershipPolicy; the other rendering is reachable
// through a Resolver.
func (x *Index) Coordinate(d model.CalendarDate) (model.Coordinate, bool) {
	if !x.Contains(d) {
		return model.Coordinate{}, false
	}
	apps := x.Appearances(d)
	if len(apps) == 0 {
		return model.Coordinate{}, false
	}

	switch x.params.Ownership {
	case OwnerEarliest:
		return apps[0], true
	case OwnerLatest:
		return apps[len(apps)-1], true
	default:
		for _, c := range apps {
			if x.sections[c.Section].month.Month == d.Month && x.sections[c.Section].month.Year == d.Year {
				return c, true
			}
		}
		return apps[0], true
	}
}

// Appearances returns every coordinate rendering d, ordered by section. Days
// outside every section's grid yield nil.
func (x *Index) Appearances(d model.CalendarDate) []model.Coordinate {
	if len(x.sections) == 0 {
		return nil
	}
	home := monthsBetween(x.sections[0].month.First, d)

	var out []model.Coordinate
	for sec := home - 1; sec <= home+1; sec++ {
		if sec < 0 || sec >= len(x.sections) {
			continue
		}
		s := x.sections[sec]
		item := s.gridStart.DaysUntil(d)
		if item >= 0 && item < s.count {
			out = append(out, model.Coordinate{Section: sec, Item: item})
		}
	}
	return out
}

// Owner classifies the date shown at c.
func (x *Index) Owner(c model.Coordinate) (model.DateOwnership, error) {
	d, err := x.cellDate(c)
	if err != nil {
		return 0, err
	}
	return x.ownerOf(x.sections[c.Section], d), nil
}

// Position returns the zero-based week row and weekday column of c.
func (x *Index) Position(c model.Coordinate) (row, col int, err error) {
	if _, err := x.cellDate(c); err != nil {
		return 0, 0, err
	}
	n := x.sections[c.Section].offset + c.Item
	return n / daysPerWeek, n % daysPerWeek, nil
}

// cellDate returns the day rendered at c without the range check Date
// applies.
func (x *Index) cellDate(c model.Coordinate) (model.CalendarDate, error) {
	s, err := x.section(c.Section)
	if err != nil {
		return model.CalendarDate{}, &InvalidCoordinateError{Coordinate: c, Reason: err.Error()}
	}
	if c.Item < 0 || c.Item >= s.count {
		return model.CalendarDate{}, &InvalidCoordinateError{Coordinate: c, Reason: "item out of range"}
	}
	return s.gridStart.AddDays(c.Item), nil
}

func (x *Index) ownerOf(s section, d model.CalendarDate) model.DateOwnership {
	switch {
	case d.Before(s.month.First):
		if !d.Before(x.params.Start) {
			return model.PreviousMonthWithinBoundary
		}
		return model.PreviousMonthOutsideBoundary
	case d.After(s.month.Last):
		if !d.After(x.params.End) {
			return model.FollowingMonthWithinBoundary
		}
		return model.FollowingMonthOutsideBoundary
	default:
		return model.ThisMonth
	}
}

func (x *Index) section(sec int) (*section, error) {
	if sec < 0 || sec >= len(x.sections) {
		return nil, &InvalidSectionError{Section: sec, Count: len(x.sections)}
	}
	return &x.sections[sec], nil
}
