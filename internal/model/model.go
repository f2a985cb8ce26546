package model

import (
	"fmt"
	"time"
)

// Coordinate addresses a single grid cell. It is independent of the date the
// cell currently shows and is only valid for the index that issued it.
type Coordinate struct {
	Section int `json:"section"`
	Item    int `json:"item"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.Section, c.Item)
}

// Less orders coordinates by section, then item.
func (c Coordinate) Less(other Coordinate) bool {
	if c.Section != other.Section {
		return c.Section < other.Section
	}
	return c.Item < other.Item
}

// DateOwnership classifies a cell's date relative to the month its section
// displays and to the configured date range.
type DateOwnership int

const (
	ThisMonth DateOwnership = iota
	PreviousMonthWithinBoundary
	FollowingMonthWithinBoundary
	PreviousMonthOutsideBoundary
	FollowingMonthOutsideBoundary
)

var ownershipNames = map[DateOwnership]string{
	ThisMonth:                     "this_month",
	PreviousMonthWithinBoundary:   "previous_month_within_boundary",
	FollowingMonthWithinBoundary:  "following_month_within_boundary",
	PreviousMonthOutsideBoundary:  "previous_month_outside_boundary",
	FollowingMonthOutsideBoundary: "following_month_outside_boundary",
}

func (o DateOwnership) String() string {
	if s, ok := ownershipNames[o]; ok {
		return s
	}
	return fmt.Sprintf("DateOwnership(%d)", int(o))
}

func (o DateOwnership) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *DateOwnership) UnmarshalText(b []byte) error {
	for k, v := range ownershipNames {
		if v == string(b) {
			*o = k
			return nil
		}
	}
	return fmt.Errorf("unknown date ownership %q", b)
}

// IsThisMonth reports whether the date belongs to the section's own month.
func (o DateOwnership) IsThisMonth() bool { return o == ThisMonth }

// WithinBoundary reports whether an adjacent-month date lies inside the
// configured range. ThisMonth always reports true; in-month days cut off by a
// mid-month start or end show up as CellState.IsSelectable == false.
func (o DateOwnership) WithinBoundary() bool {
	return o == ThisMonth || o == PreviousMonthWithinBoundary || o == FollowingMonthWithinBoundary
}

// SectionRange describes the month a section displays.
type SectionRange struct {
	Year  int          `json:"year"`
	Month time.Month   `json:"month"`
	First CalendarDate `json:"first"`
	Last  CalendarDate `json:"last"`
}

// SelectionPosition describes where a selected day sits within a run of
// consecutive selected days. Renderers use it to draw joined range pills.
type SelectionPosition int

const (
	PositionNone SelectionPosition = iota
	PositionFull
	PositionLeft
	PositionMiddle
	PositionRight
)

func (p SelectionPosition) String() string {
	switch p {
	case PositionFull:
		return "full"
	case PositionLeft:
		return "left"
	case PositionMiddle:
		return "middle"
	case PositionRight:
		return "right"
	default:
		return "none"
	}
}

func (p SelectionPosition) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *SelectionPosition) UnmarshalText(b []byte) error {
	for c := PositionNone; c <= PositionRight; c++ {
		if c.String() == string(b) {
			*p = c
			return nil
		}
	}
	return fmt.Errorf("unknown selection position %q", b)
}

// CellState is the immutable descriptor of one cell. It is derived from the
// engine state on every query and must not be stored.
type CellState struct {
	Date       CalendarDate  `json:"date"`
	Coordinate Coordinate    `json:"coordinate"`
	Owner      DateOwnership `json:"owner"`
	Row        int           `json:"row"`
	Column     int           `json:"column"`
	Weekday    time.Weekday  `json:"weekday"`

	IsSelected       bool              `json:"selected"`
	InSelectedRange  bool              `json:"in_range"`
	SelectedPosition SelectionPosition `json:"position"`
	IsSelectable     bool              `json:"selectable"`
	IsBlocked        bool              `json:"blocked,omitempty"`
	IsToday          bool              `json:"today,omitempty"`

	Section SectionRange `json:"section"`

	// Counterpart is the other cell rendering Date, valid when HasCounterpart.
	Counterpart    Coordinate `json:"counterpart"`
	HasCounterpart bool       `json:"has_counterpart"`
}
