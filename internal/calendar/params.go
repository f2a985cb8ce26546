package calendar

import (
	"fmt"
	"strings"
	"time"

	"gridcal/internal/model"
)

// OutOfMonthPolicy controls the padding days shown before and after a month.
type OutOfMonthPolicy int

const (
	// OutOfMonthHidden generates no padding cells; a section holds only its
	// month's days.
	OutOfMonthHidden OutOfMonthPolicy = iota
	// OutOfMonthDimmed shows padding days but does not let them be selected.
	OutOfMonthDimmed
	// OutOfMonthSelectable shows padding days and selecting one selects the
	// underlying date.
	OutOfMonthSelectable
)

// OutDatesPolicy controls how many trailing padding days a section gets.
type OutDatesPolicy int

const (
	// OutDatesEndOfRow pads to the end of the last week row.
	OutDatesEndOfRow OutDatesPolicy = iota
	// OutDatesEndOfGrid pads every section to a fixed six-row grid.
	OutDatesEndOfGrid
)

// OwnershipPolicy picks the canonical coordinate of a date that is rendered
// in two sections.
type OwnershipPolicy int

const (
	// OwnerMonth resolves to the section displaying the date's own month.
	OwnerMonth OwnershipPolicy = iota
	// OwnerEarliest resolves to the earliest section showing the date.
	OwnerEarliest
	// OwnerLatest resolves to the latest section showing the date.
	OwnerLatest
)

const (
	daysPerWeek  = 7
	rowsPerGrid  = 6
	maxSections  = 12 * 200
	cellsPerGrid = daysPerWeek * rowsPerGrid
)

// Params configures an Index. Start and End are inclusive.
type Params struct {
	Start          model.CalendarDate
	End            model.CalendarDate
	FirstDayOfWeek time.Weekday
	OutOfMonth     OutOfMonthPolicy
	OutDates       OutDatesPolicy
	Ownership      OwnershipPolicy
}

// Validate checks p and returns a *ConfigurationError describing the first
// problem found.
func (p Params) Validate() error {
	switch {
	case p.Start.IsZero():
		return &ConfigurationError{Field: "start", Reason: "start date is required"}
	case p.End.IsZero():
		return &ConfigurationError{Field: "end", Reason: "end date is required"}
	case p.End.Before(p.Start):
		return &ConfigurationError{Field: "end", Reason: fmt.Sprintf("end %s is before start %s", p.End, p.Start)}
	case p.FirstDayOfWeek < time.Sunday || p.FirstDayOfWeek > time.Saturday:
		return &ConfigurationError{Field: "first_day_of_week", Reason: fmt.Sprintf("unknown weekday %d", p.FirstDayOfWeek)}
	case p.OutOfMonth < OutOfMonthHidden || p.OutOfMonth > OutOfMonthSelectable:
		return &ConfigurationError{Field: "out_of_month", Reason: fmt.Sprintf("unknown policy %d", p.OutOfMonth)}
	case p.OutDates < OutDatesEndOfRow || p.OutDates > OutDatesEndOfGrid:
		return &ConfigurationError{Field: "out_dates", Reason: fmt.Sprintf("unknown policy %d", p.OutDates)}
	case p.Ownership < OwnerMonth || p.Ownership > OwnerLatest:
		return &ConfigurationError{Field: "ownership", Reason: fmt.Sprintf("unknown policy %d", p.Ownership)}
	}
	if n := monthsBetween(p.Start, p.End) + 1; n > maxSections {
		return &ConfigurationError{Field: "end", Reason: fmt.Sprintf("range spans %d months (max %d)", n, maxSections)}
	}
	return nil
}

// ParseOutOfMonth maps "hidden", "dimmed" or "selectable" to a policy.
func ParseOutOfMonth(s string) (OutOfMonthPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hidden", "":
		return OutOfMonthHidden, nil
	case "dimmed":
		return OutOfMonthDimmed, nil
	case "selectable":
		return OutOfMonthSelectable, nil
	}
	return 0, &ConfigurationError{Field: "out_of_month", Reason: fmt.Sprintf("unknown policy %q", s)}
}

func (p OutOfMonthPolicy) String() string {
	switch p {
	case OutOfMonthHidden:
		return "hidden"
	case OutOfMonthDimmed:
		return "dimmed"
	case OutOfMonthSelectable:
		return "selectable"
	}
	return fmt.Sprintf("OutOfMonthPolicy(%d)", int(p))
}

// ParseOutDates maps "end_of_row" or "end_of_grid" to a policy.
func ParseOutDates(s string) (OutDatesPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "end_of_row", "":
		return OutDatesEndOfRow, nil
	case "end_of_grid":
		return OutDatesEndOfGrid, nil
	}
	return 0, &ConfigurationError{Field: "out_dates", Reason: fmt.Sprintf("unknown policy %q", s)}
}

func (p OutDatesPolicy) String() string {
	if p == OutDatesEndOfGrid {
		return "end_of_grid"
	}
	return "end_of_row"
}

// ParseOwnership maps "month", "earliest" or "latest" to a policy.
func ParseOwnership(s string) (OwnershipPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "month", "":
		return OwnerMonth, nil
	case "earliest":
		return OwnerEarliest, nil
	case "latest":
		return OwnerLatest, nil
	}
	return 0, &ConfigurationError{Field: "ownership", Reason: fmt.Sprintf("unknown policy %q", s)}
}

func (p OwnershipPolicy) String() string {
	switch p {
	case OwnerEarliest:
		return "earliest"
	case OwnerLatest:
		return "latest"
	}
	return "month"
}

// ParseWeekday maps an English weekday name ("sunday", "Mon", ...) to a
// time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if len(name) >= 3 {
		for d := time.Sunday; d <= time.Saturday; d++ {
			full := strings.ToLower(d.String())
			if name == full || name == full[:3] {
				return d, nil
			}
		}
	}
	return 0, &ConfigurationError{Field: "first_day_of_week", Reason: fmt.Sprintf("unknown weekday %q", s)}
}

// monthsBetween returns the number of whole months from a's month to b's.
func monthsBetween(a, b model.CalendarDate) int {
	return (b.Year-a.Year)*12 + int(b.Month) - int(a.Month)
}
