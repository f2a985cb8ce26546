package calendar

import "gridcal/internal/model"

// Resolver finds the second rendering of a day shown in two overlapping
// month sections (the tail of one month and the head of the next).
//
// The ThisMonth rendering is always the primary one; the adjacent-month
// rendering is its counterpart. The resolver knows nothing about which
// sections a display has realised, so callers decide whether a counterpart
// needs refreshing.
type Resolver struct {
	index *Index
}

// NewResolver returns a resolver over idx.
func NewResolver(idx *Index) Resolver {
	return Resolver{index: idx}
}

// Counterpart returns the other coordinate rendering date, given that c
// renders it with the given ownership. It returns false when the date has a
// single rendering.
func (r Resolver) Counterpart(c model.Coordinate, date model.CalendarDate, owner model.DateOwnership) (model.Coordinate, bool) {
	for _, other := range r.index.Appearances(date) {
		if other == c {
			continue
		}
		otherOwner, err := r.index.Owner(other)
		if err != nil {
			continue
		}
		// A primary rendering pairs with an adjacent one and vice versa.
		if owner.IsThisMonth() != otherOwner.IsThisMonth() {
			return other, true
		}
	}
	return model.Coordinate{}, false
}
