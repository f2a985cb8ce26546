package calendar

import "gridcal/internal/model"

// StateFactory derives CellStates from an index, a selection and the set of
// blocked days. It never mutates what it reads.
type StateFactory struct {
	index     *Index
	selection *Selection
	blocked   map[model.CalendarDate]struct{}
	today     model.CalendarDate
}

// NewStateFactory composes a factory. blocked may be nil; a zero today
// disables IsToday.
func NewStateFactory(idx *Index, sel *Selection, blocked map[model.CalendarDate]struct{}, today model.CalendarDate) StateFactory {
	return StateFactory{index: idx, selection: sel, blocked: blocked, today: today}
}

// State returns the descriptor for the cell at c.
func (f StateFactory) State(c model.Coordinate) (model.CellState, error) {
	d, err := f.index.cellDate(c)
	if err != nil {
		return model.CellState{}, err
	}
	sec := f.index.sections[c.Section]
	owner := f.index.ownerOf(sec, d)
	row, col, _ := f.index.Position(c)

	st := model.CellState{
		Date:             d,
		Coordinate:       c,
		Owner:            owner,
		Row:              row,
		Column:           col,
		Weekday:          d.Weekday(),
		IsSelected:       f.selection.IsSelected(d),
		InSelectedRange:  f.selection.InRange(d),
		SelectedPosition: f.position(d),
		IsBlocked:        f.isBlocked(d),
		IsToday:          !f.today.IsZero() && d == f.today,
		Section:          sec.month,
	}
	st.IsSelectable = f.Selectable(d, owner)
	st.Counterpart, st.HasCounterpart = NewResolver(f.index).Counterpart(c, d, owner)
	return st, nil
}

// Selectable reports whether a day rendered with the given ownership may be
// selected: it must be in range and not blocked, and adjacent-month
// renderings additionally need the selectable out-of-month policy.
func (f StateFactory) Selectable(d model.CalendarDate, owner model.DateOwnership) bool {
	if !owner.WithinBoundary() || !f.index.Contains(d) || f.isBlocked(d) {
		return false
	}
	return owner.IsThisMonth() || f.index.params.OutOfMonth == OutOfMonthSelectable
}

func (f StateFactory) isBlocked(d model.CalendarDate) bool {
	_, ok := f.blocked[d]
	return ok
}

func (f StateFactory) position(d model.CalendarDate) model.SelectionPosition {
	if !f.selection.IsSelected(d) {
		return model.PositionNone
	}
	prev := f.selection.IsSelected(d.AddDays(-1))
	next := f.selection.IsSelected(d.AddDays(1))
	switch {
	case prev && next:
		return model.PositionMiddle
	case prev:
		return model.PositionRight
	case next:
		return model.PositionLeft
	default:
		return model.PositionFull
	}
}
