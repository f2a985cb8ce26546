package calendar

import (
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	appLog "gridcal/internal/log"
	"gridcal/internal/model"
)

// SelectionMode chooses between one selected day and many.
type SelectionMode int

const (
	SelectMultiple SelectionMode = iota
	SelectSingle
)

// ParseSelectionMode maps "multiple" or "single" to a mode.
func ParseSelectionMode(s string) (SelectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "multiple", "":
		return SelectMultiple, nil
	case "single":
		return SelectSingle, nil
	}
	return 0, &ConfigurationError{Field: "selection", Reason: fmt.Sprintf("unknown mode %q", s)}
}

func (m SelectionMode) String() string {
	if m == SelectSingle {
		return "single"
	}
	return "multiple"
}

// Change is the result of a selection mutation: the dates that changed and
// every coordinate whose CellState may differ afterwards. Adapters refresh
// exactly Refresh.
type Change struct {
	Selected   []model.CalendarDate `json:"selected"`
	Deselected []model.CalendarDate `json:"deselected"`
	Refresh    []model.Coordinate   `json:"refresh"`
}

// Empty reports whether nothing changed.
func (c Change) Empty() bool {
	return len(c.Selected) == 0 && len(c.Deselected) == 0
}

// Option customizes an Engine.
type Option func(*Engine)

// WithSelectionMode sets single or multiple selection (default multiple).
func WithSelectionMode(m SelectionMode) Option {
	return func(e *Engine) { e.mode = m }
}

// WithHeaders installs the section header registry.
func WithHeaders(r *HeaderRegistry) Option {
	return func(e *Engine) {
		if r != nil {
			e.headers = r
		}
	}
}

// WithClock overrides the wall clock used for IsToday.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocation sets the timezone "today" is computed in (default time.Local).
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// Engine binds an Index, a Selection, a Resolver and a StateFactory into the
// surface a grid adapter consumes.
//
// Engine is driven from a single control thread and does no locking of its
// own; callers that share it across goroutines must serialize access.
// Configure swaps in a freshly built Index, so an *Index obtained earlier
// stays internally consistent.
type Engine struct {
	index     atomic.Pointer[Index]
	selection *Selection
	blocked   map[model.CalendarDate]struct{}

	mode    SelectionMode
	headers *HeaderRegistry
	now     func() time.Time
	loc     *time.Location
}

// New builds an engine over a new Index for p.
func New(p Params, opts ...Option) (*Engine, error) {
	idx, err := NewIndex(p)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		selection: NewSelection(),
		blocked:   make(map[model.CalendarDate]struct{}),
		mode:      SelectMultiple,
		headers:   DefaultHeaders(),
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.index.Store(idx)
	e.selection.SetGate(e.admits)

	appLog.Debug("calendar engine created",
		"start", p.Start,
		"end", p.End,
		"sections", idx.SectionCount(),
		"selection", e.mode,
	)
	return e, nil
}

// Configure rebuilds the index for p. On error the previous index stays in
// place. Selected dates survive reconfiguration; an active range is
// committed, and every previously issued Coordinate becomes invalid.
func (e *Engine) Configure(p Params) error {
	idx, err := NewIndex(p)
	if err != nil {
		appLog.Error("calendar reconfiguration rejected", err, "start", p.Start, "end", p.End)
		return err
	}
	e.index.Store(idx)
	e.selection.EndRange()

	appLog.Info("calendar index rebuilt",
		"start", p.Start,
		"end", p.End,
		"first_day_of_week", p.FirstDayOfWeek,
		"out_of_month", p.OutOfMonth,
		"sections", idx.SectionCount(),
	)
	return nil
}

// Index returns the current index.
func (e *Engine) Index() *Index { return e.index.Load() }

// Mode returns the selection mode.
func (e *Engine) Mode() SelectionMode { return e.mode }

func (e *Engine) SectionCount() int { return e.Index().SectionCount() }

func (e *Engine) ItemCount(section int) (int, error) { return e.Index().ItemCount(section) }

// State returns the CellState of the cell at c.
func (e *Engine) State(c model.Coordinate) (model.CellState, error) {
	return e.factory(e.Index()).State(c)
}

// MustState is State for call sites that treat an invalid coordinate as a
// bug; it panics instead of returning the error.
func (e *Engine) MustState(c model.Coordinate) model.CellState {
	st, err := e.State(c)
	if err != nil {
		panic(err)
	}
	return st
}

// Header resolves the header source for a section.
func (e *Engine) Header(section int) (Header, error) {
	rng, err := e.Index().MonthBoundaries(section)
	if err != nil {
		return Header{}, err
	}
	ctx := HeaderContext{Section: section, Range: rng}
	return Header{Section: section, Range: rng, Source: e.headers.Resolve(ctx)}, nil
}

// Today returns the current day in the engine's location.
func (e *Engine) Today() model.CalendarDate {
	return model.DateOf(e.now().In(e.loc))
}

func (e *Engine) IsSelected(d model.CalendarDate) bool { return e.selection.IsSelected(d) }

// Selected returns the selected dates in ascending order.
func (e *Engine) Selected() []model.CalendarDate { return e.selection.Selected() }

// RangeState reports whether a range selection is in progress.
func (e *Engine) RangeState() RangeState { return e.selection.State() }

// RangeAnchor returns the anchor of the active range, if any.
func (e *Engine) RangeAnchor() (model.CalendarDate, bool) {
	anchor, _, ok := e.selection.Anchor()
	return anchor, ok
}

// Restore replaces the selection with dates, e.g. when loading persisted
// state. It does not validate against the range; out-of-range dates stay
// selected but have no coordinate.
func (e *Engine) Restore(dates []model.CalendarDate) {
	e.selection.Clear()
	for _, d := range dates {
		e.selection.Select(d)
	}
}

// Select selects d. In single selection mode any other selected day is
// deselected.
func (e *Engine) Select(d model.CalendarDate) (Change, error) {
	idx := e.Index()
	if !idx.Contains(d) {
		return Change{}, ErrOutOfRange
	}
	if e.isBlocked(d) {
		return Change{}, ErrNotSelectable
	}

	before := e.activeSpan()
	var delta Delta
	if e.mode == SelectSingle {
		e.selection.EndRange()
		for _, other := range e.selection.Selected() {
			if other != d && e.selection.Deselect(other) {
				delta.Deselected = append(delta.Deselected, other)
			}
		}
	}
	if e.selection.Select(d) {
		delta.Selected = append(delta.Selected, d)
	}
	appLog.Debug("date selected", "date", d, "changed", !delta.Empty())
	return e.spanChange(idx, delta, before), nil
}

// Deselect deselects d. Deselecting works outside the range so stale
// selections can always be removed.
func (e *Engine) Deselect(d model.CalendarDate) (Change, error) {
	var delta Delta
	if e.selection.Deselect(d) {
		delta.Deselected = append(delta.Deselected, d)
	}
	appLog.Debug("date deselected", "date", d, "changed", !delta.Empty())
	return e.change(e.Index(), delta), nil
}

// Toggle flips d.
func (e *Engine) Toggle(d model.CalendarDate) (Change, error) {
	if e.selection.IsSelected(d) {
		return e.Deselect(d)
	}
	return e.Select(d)
}

// SelectCell is the gesture path: it selects the day shown at c if that
// cell is selectable. The change covers the counterpart cell as well.
func (e *Engine) SelectCell(c model.Coordinate) (Change, error) {
	st, err := e.State(c)
	if err != nil {
		return Change{}, err
	}
	if !st.IsSelectable {
		return Change{}, ErrNotSelectable
	}
	return e.Select(st.Date)
}

// DeselectCell deselects the day shown at c.
func (e *Engine) DeselectCell(c model.Coordinate) (Change, error) {
	d, err := e.Index().Date(c)
	if err != nil {
		return Change{}, err
	}
	return e.Deselect(d)
}

// ToggleCell flips the day shown at c.
func (e *Engine) ToggleCell(c model.Coordinate) (Change, error) {
	st, err := e.State(c)
	if err != nil {
		return Change{}, err
	}
	if st.IsSelected {
		return e.DeselectCell(c)
	}
	return e.SelectCell(c)
}

// BeginRange anchors a range selection at anchor.
func (e *Engine) BeginRange(anchor model.CalendarDate) (Change, error) {
	if err := e.checkRangeDate(anchor); err != nil {
		return Change{}, err
	}
	if e.isBlocked(anchor) {
		return Change{}, ErrNotSelectable
	}
	before := e.activeSpan()
	delta := e.selection.BeginRange(anchor)
	appLog.Debug("range anchored", "anchor", anchor)
	return e.spanChange(e.Index(), delta, before), nil
}

// ExtendRange moves the free end of the active range to `to`.
func (e *Engine) ExtendRange(to model.CalendarDate) (Change, error) {
	if err := e.checkRangeDate(to); err != nil {
		return Change{}, err
	}
	before := e.activeSpan()
	delta, err := e.selection.ExtendRange(to)
	if err != nil {
		return Change{}, err
	}
	appLog.Debug("range extended", "to", to, "selected", len(delta.Selected), "deselected", len(delta.Deselected))
	return e.spanChange(e.Index(), delta, before), nil
}

// EndRange commits the active range. Nothing is selected or deselected,
// but every cell of the range leaves InSelectedRange, so the Change still
// carries their coordinates.
func (e *Engine) EndRange() Change {
	before := e.activeSpan()
	e.selection.EndRange()
	return e.spanChange(e.Index(), Delta{}, before)
}

// CancelRange reverts the active range.
func (e *Engine) CancelRange() Change {
	before := e.activeSpan()
	return e.spanChange(e.Index(), e.selection.CancelRange(), before)
}

// Clear deselects everything.
func (e *Engine) Clear() Change {
	before := e.activeSpan()
	return e.spanChange(e.Index(), Delta{Deselected: e.selection.Clear()}, before)
}

// SelectRule selects every selectable day in range matched by an RRULE.
func (e *Engine) SelectRule(rule string) (Change, error) {
	if e.mode == SelectSingle {
		return Change{}, ErrRangeUnavailable
	}
	idx := e.Index()
	p := idx.Params()
	dates, err := RuleDates(rule, p.Start, p.End)
	if err != nil {
		return Change{}, err
	}

	var delta Delta
	for _, d := range dates {
		if e.admits(d) && e.selection.Select(d) {
			delta.Selected = append(delta.Selected, d)
		}
	}
	appLog.Info("rule selection applied", "rule", rule, "matched", len(dates), "selected", len(delta.Selected))
	return e.change(idx, delta), nil
}

// SetBlocked replaces the set of blocked days. Blocked days that were
// selected are deselected.
func (e *Engine) SetBlocked(dates []model.CalendarDate) Change {
	blocked := make(map[model.CalendarDate]struct{}, len(dates))
	var delta Delta
	for _, d := range dates {
		blocked[d] = struct{}{}
	}
	for _, d := range e.selection.Selected() {
		if _, ok := blocked[d]; ok && e.selection.Deselect(d) {
			delta.Deselected = append(delta.Deselected, d)
		}
	}
	// Days whose blocked flag flips need a refresh too.
	var flipped []model.CalendarDate
	for d := range blocked {
		if _, was := e.blocked[d]; !was {
			flipped = append(flipped, d)
		}
	}
	for d := range e.blocked {
		if _, still := blocked[d]; !still {
			flipped = append(flipped, d)
		}
	}
	e.blocked = blocked

	ch := e.change(e.Index(), delta)
	ch.Refresh = mergeCoordinates(ch.Refresh, e.refreshFor(e.Index(), flipped))
	appLog.Info("blocked dates updated", "blocked", len(blocked), "deselected", len(delta.Deselected))
	return ch
}

// Blocked returns the blocked days in ascending order.
func (e *Engine) Blocked() []model.CalendarDate {
	out := make([]model.CalendarDate, 0, len(e.blocked))
	for d := range e.blocked {
		out = append(out, d)
	}
	sortDates(out)
	return out
}

func (e *Engine) checkRangeDate(d model.CalendarDate) error {
	if e.mode == SelectSingle {
		return ErrRangeUnavailable
	}
	if !e.Index().Contains(d) {
		return ErrOutOfRange
	}
	return nil
}

func (e *Engine) admits(d model.CalendarDate) bool {
	return e.Index().Contains(d) && !e.isBlocked(d)
}

func (e *Engine) isBlocked(d model.CalendarDate) bool {
	_, ok := e.blocked[d]
	return ok
}

func (e *Engine) factory(idx *Index) StateFactory {
	return NewStateFactory(idx, e.selection, e.blocked, e.Today())
}

func (e *Engine) change(idx *Index, delta Delta) Change {
	changed := make([]model.CalendarDate, 0, len(delta.Selected)+len(delta.Deselected))
	changed = append(changed, delta.Selected...)
	changed = append(changed, delta.Deselected...)
	sortDates(delta.Selected)
	sortDates(delta.Deselected)
	return Change{
		Selected:   delta.Selected,
		Deselected: delta.Deselected,
		Refresh:    e.refreshFor(idx, changed),
	}
}

// activeSpan returns the days of the active range, or nil when Idle.
func (e *Engine) activeSpan() []model.CalendarDate {
	anchor, extent, ok := e.selection.Anchor()
	if !ok {
		return nil
	}
	lo, hi := bounds(anchor, extent)
	return model.DateSpan(lo, hi)
}

// spanChange is change plus the days whose InSelectedRange flipped because
// the active range moved from before to its current span.
func (e *Engine) spanChange(idx *Index, delta Delta, before []model.CalendarDate) Change {
	ch := e.change(idx, delta)
	if flipped := symmetricDifference(before, e.activeSpan()); len(flipped) > 0 {
		ch.Refresh = mergeCoordinates(ch.Refresh, e.refreshFor(idx, flipped))
	}
	return ch
}

func symmetricDifference(a, b []model.CalendarDate) []model.CalendarDate {
	in := make(map[model.CalendarDate]int, len(a)+len(b))
	for _, d := range a {
		in[d] |= 1
	}
	for _, d := range b {
		in[d] |= 2
	}
	var out []model.CalendarDate
	for d, m := range in {
		if m != 3 {
			out = append(out, d)
		}
	}
	return out
}

// refreshFor returns every rendering of each day and of its neighbours,
// since a neighbour's SelectedPosition depends on the day.
func (e *Engine) refreshFor(idx *Index, days []model.CalendarDate) []model.Coordinate {
	seen := make(map[model.Coordinate]struct{})
	var out []model.Coordinate
	for _, d := range days {
		for _, n := range []model.CalendarDate{d.AddDays(-1), d, d.AddDays(1)} {
			for _, c := range idx.Appearances(n) {
				if _, dup := seen[c]; dup {
					continue
				}
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
	}
	sortCoordinates(out)
	return out
}

func mergeCoordinates(a, b []model.Coordinate) []model.Coordinate {
	out := append(append([]model.Coordinate(nil), a...), b...)
	sortCoordinates(out)
	return slices.Compact(out)
}

func sortCoordinates(cs []model.Coordinate) {
	slices.SortFunc(cs, func(a, b model.Coordinate) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
}
