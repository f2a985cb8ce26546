package calendar

import (
	"slices"

	"gridcal/internal/model"
)

// RangeState is the state of the range-selection state machine.
type RangeState int

const (
	Idle RangeState = iota
	RangeAnchored
)

func (s RangeState) String() string {
	if s == RangeAnchored {
		return "range_anchored"
	}
	return "idle"
}

// Delta lists the dates a mutation selected and deselected, in ascending
// order.
type Delta struct {
	Selected   []model.CalendarDate
	Deselected []model.CalendarDate
}

// Empty reports whether the delta changed nothing.
func (d Delta) Empty() bool {
	return len(d.Selected) == 0 && len(d.Deselected) == 0
}

func (d *Delta) merge(other Delta) {
	d.Selected = append(d.Selected, other.Selected...)
	d.Deselected = append(d.Deselected, other.Deselected...)
}

// Selection is the set of selected dates plus range-selection bookkeeping.
// The set is the single source of truth: a date is selected iff it is in
// the set. Selection is not safe for concurrent use.
type Selection struct {
	dates map[model.CalendarDate]struct{}

	state  RangeState
	anchor model.CalendarDate
	extent model.CalendarDate
	// owned holds the days the active range selected itself. Shrinking the
	// range only deselects these, so earlier selections survive.
	owned map[model.CalendarDate]struct{}

	gate func(model.CalendarDate) bool
}

// NewSelection returns an empty selection in the Idle state.
func NewSelection() *Selection {
	return &Selection{dates: make(map[model.CalendarDate]struct{})}
}

// SetGate installs a predicate that range extension consults before
// selecting a day. A nil gate admits every day.
func (s *Selection) SetGate(gate func(model.CalendarDate) bool) {
	s.gate = gate
}

func (s *Selection) IsSelected(d model.CalendarDate) bool {
	_, ok := s.dates[d]
	return ok
}

// Select inserts d and reports whether the set changed.
func (s *Selection) Select(d model.CalendarDate) bool {
	if s.IsSelected(d) {
		return false
	}
	s.dates[d] = struct{}{}
	return true
}

// Deselect removes d and reports whether the set changed.
func (s *Selection) Deselect(d model.CalendarDate) bool {
	if !s.IsSelected(d) {
		return false
	}
	delete(s.dates, d)
	delete(s.owned, d)
	return true
}

// Toggle flips d and returns its new membership.
func (s *Selection) Toggle(d model.CalendarDate) bool {
	if s.Deselect(d) {
		return false
	}
	s.Select(d)
	return true
}

// Len returns the number of selected dates.
func (s *Selection) Len() int { return len(s.dates) }

// Selected returns the selected dates in ascending order.
func (s *Selection) Selected() []model.CalendarDate {
	out := make([]model.CalendarDate, 0, len(s.dates))
	for d := range s.dates {
		out = append(out, d)
	}
	sortDates(out)
	return out
}

// Clear deselects everything, ends any active range and returns the removed
// dates in ascending order.
func (s *Selection) Clear() []model.CalendarDate {
	removed := s.Selected()
	s.dates = make(map[model.CalendarDate]struct{})
	s.endRange()
	return removed
}

// State returns the range state.
func (s *Selection) State() RangeState { return s.state }

// Anchor returns the active range's anchor and extent.
func (s *Selection) Anchor() (anchor, extent model.CalendarDate, ok bool) {
	if s.state != RangeAnchored {
		return model.CalendarDate{}, model.CalendarDate{}, false
	}
	return s.anchor, s.extent, true
}

// InRange reports whether d lies between the active range's anchor and
// extent, inclusive. It is always false when Idle.
func (s *Selection) InRange(d model.CalendarDate) bool {
	if s.state != RangeAnchored {
		return false
	}
	lo, hi := bounds(s.anchor, s.extent)
	return d.Between(lo, hi)
}

// BeginRange anchors a new range at anchor and selects it. A range already
// in progress is committed first.
func (s *Selection) BeginRange(anchor model.CalendarDate) Delta {
	s.endRange()
	s.state = RangeAnchored
	s.anchor = anchor
	s.extent = anchor
	s.owned = make(map[model.CalendarDate]struct{})

	var delta Delta
	if s.admits(anchor) && s.Select(anchor) {
		s.owned[anchor] = struct{}{}
		delta.Selected = append(delta.Selected, anchor)
	}
	return delta
}

// ExtendRange moves the range's free end to `to`. The range always spans
// [min(anchor, to), max(anchor, to)], so moving back past the anchor flips
// direction: days that fall out of the range are deselected and newly
// covered days are selected.
func (s *Selection) ExtendRange(to model.CalendarDate) (Delta, error) {
	if s.state != RangeAnchored {
		return Delta{}, ErrNoActiveRange
	}

	oldLo, oldHi := bounds(s.anchor, s.extent)
	newLo, newHi := bounds(s.anchor, to)

	var delta Delta
	for _, d := range model.DateSpan(oldLo, oldHi) {
		if d.Between(newLo, newHi) {
			continue
		}
		if _, mine := s.owned[d]; mine && s.Deselect(d) {
			delta.Deselected = append(delta.Deselected, d)
		}
	}
	for _, d := range model.DateSpan(newLo, newHi) {
		if d.Between(oldLo, oldHi) || !s.admits(d) {
			continue
		}
		if s.Select(d) {
			s.owned[d] = struct{}{}
			delta.Selected = append(delta.Selected, d)
		}
	}

	s.extent = to
	return delta, nil
}

// EndRange commits the active range and returns to Idle.
func (s *Selection) EndRange() {
	s.endRange()
}

// CancelRange deselects every day the active range selected and returns to
// Idle.
func (s *Selection) CancelRange() Delta {
	var delta Delta
	for d := range s.owned {
		if s.Deselect(d) {
			delta.Deselected = append(delta.Deselected, d)
		}
	}
	sortDates(delta.Deselected)
	s.endRange()
	return delta
}

func (s *Selection) endRange() {
	s.state = Idle
	s.anchor = model.CalendarDate{}
	s.extent = model.CalendarDate{}
	s.owned = nil
}

func (s *Selection) admits(d model.CalendarDate) bool {
	return s.gate == nil || s.gate(d)
}

func bounds(a, b model.CalendarDate) (lo, hi model.CalendarDate) {
	return model.MinDate(a, b), model.MaxDate(a, b)
}

func sortDates(ds []model.CalendarDate) {
	slices.SortFunc(ds, func(a, b model.CalendarDate) int { return a.Compare(b) })
}
