package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridcal/internal/model"
)

func date(y int, m time.Month, d int) model.CalendarDate {
	return model.NewDate(y, m, d)
}

func coord(section, item int) model.Coordinate {
	return model.Coordinate{Section: section, Item: item}
}

// firstQuarter2024 is the reference configuration: Jan-Mar 2024, weeks
// starting on Sunday, padding shown dimmed.
func firstQuarter2024() Params {
	return Params{
		Start:          date(2024, time.January, 1),
		End:            date(2024, time.March, 31),
		FirstDayOfWeek: time.Sunday,
		OutOfMonth:     OutOfMonthDimmed,
	}
}

func mustIndex(t *testing.T, p Params) *Index {
	t.Helper()
	idx, err := NewIndex(p)
	require.NoError(t, err)
	return idx
}

func TestIndex_SectionsAndCounts(t *testing.T) {
	idx := mustIndex(t, firstQuarter2024())

	assert.Equal(t, 3, idx.SectionCount())

	// Jan: 1 leading (Dec 31) + 31 + 3 trailing. Feb: 4 + 29 + 2. Mar: 5 + 31 + 6.
	for sec, want := range []int{35, 35, 42} {
		n, err := idx.ItemCount(sec)
		require.NoError(t, err)
		assert.Equal(t, want, n, "section %d", sec)
	}
}

func TestIndex_ItemCount_InvalidSection(t *testing.T) {
	idx := mustIndex(t, firstQuarter2024())

	for _, sec := range []int{-1, 3} {
		_, err := idx.ItemCount(sec)
		var se *InvalidSectionError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, sec, se.Section)
		assert.Equal(t, 3, se.Count)
		assert.True(t, IsProgrammerError(err))
	}
}

func TestIndex_CoordinateScenario(t *testing.T) {
	idx := mustIndex(t, firstQuarter2024())

	c, ok := idx.Coordinate(date(2024, time.February, 15))
	require.True(t, ok)
	assert.Equal(t, coord(1, 18), c)

	row, col, err := idx.Position(c)
	require.NoError(t, err)
	assert.Equal(t, 2, row)
	assert.Equal(t, int(time.Thursday), col)
}

func TestIndex_RoundTrip(t *testing.T) {
	configs := map[string]Params{
		"dimmed sunday": firstQuarter2024(),
		"hidden monday": {
			Start:          date(2023, time.November, 17),
			End:            date(2024, time.March, 3),
			FirstDayOfWeek: time.Monday,
			OutOfMonth:     OutOfMonthHidden,
		},
		"grid earliest": {
			Start:          date(2024, time.January, 1),
			End:            date(2024, time.December, 31),
			FirstDayOfWeek: time.Wednesday,
			OutOfMonth:     OutOfMonthSelectable,
			OutDates:       OutDatesEndOfGrid,
			Ownership:      OwnerEarliest,
		},
		"grid latest": {
			Start:          date(2024, time.January, 1),
			End:            date(2024, time.June, 30),
			FirstDayOfWeek: time.Saturday,
			OutOfMonth:     OutOfMonthDimmed,
			OutDates:       OutDatesEndOfGrid,
			Ownership:      OwnerLatest,
		},
	}

	for name, p := range configs {
		t.Run(name, func(t *testing.T) {
			idx := mustIndex(t, p)
			for _, d := range model.DateSpan(p.Start, p.End) {
				c, ok := idx.Coordinate(d)
				require.True(t, ok, "no coordinate for %s", d)
				got, err := idx.Date(c)
				require.NoError(t, err, "date for %s", c)
				assert.Equal(t, d, got)
			}
		})
	}
}

func TestIndex_CoordinateOutsideRange(t *testing.T) {
	p := firstQuarter2024()
	p.Start = date(2024, time.January, 10)
	p.End = date(2024, time.March, 20)
	idx := mustIndex(t, p)

	for _, d := range []model.CalendarDate{
		date(2023, time.December, 31),
		date(2024, time.January, 9),
		date(2024, time.March, 21),
		date(2025, time.January, 1),
	} {
		_, ok := idx.Coordinate(d)
		assert.False(t, ok, "expected no coordinate for %s", d)
	}
}

func TestIndex_Date_Padding(t *testing.T) {
	idx := mustIndex(t, firstQuarter2024())

	// Leading padding inside the range resolves.
	d, err := idx.Date(coord(1, 3))
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.January, 31), d)

	// Dec 31 and Apr 1 are padding beyond the configured range.
	for _, c := range []model.Coordinate{coord(0, 0), coord(2, 36)} {
		_, err := idx.Date(c)
		var ce *InvalidCoordinateError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, c, ce.Coordinate)
	}

	for _, c := range []model.Coordinate{coord(0, 35), coord(0, -1), coord(5, 0)} {
		_, err := idx.Date(c)
		assert.True(t, IsProgrammerError(err), "coordinate %s", c)
	}
}

func TestIndex_Owner(t *testing.T) {
	idx := mustIndex(t, firstQuarter2024())

	cases := map[model.Coordinate]model.DateOwnership{
		coord(0, 0):  model.PreviousMonthOutsideBoundary,
		coord(0, 1):  model.ThisMonth,
		coord(0, 32): model.FollowingMonthWithinBoundary,
		coord(1, 3):  model.PreviousMonthWithinBoundary,
		coord(2, 36): model.FollowingMonthOutsideBoundary,
	}
	for c, want := range cases {
		got, err := idx.Owner(c)
		require.NoError(t, err)
		assert.Equal(t, want, got, "owner of %s", c)
	}
}

func TestIndex_Appearances(t *testing.T) {
	idx := mustIndex(t, firstQuarter2024())

	assert.Equal(t, []model.Coordinate{coord(0, 31), coord(1, 3)}, idx.Appearances(date(2024, time.January, 31)))
	assert.Equal(t, []model.Coordinate{coord(0, 32), coord(1, 4)}, idx.Appearances(date(2024, time.February, 1)))
	assert.Equal(t, []model.Coordinate{coord(1, 18)}, idx.Appearances(date(2024, time.February, 15)))
	assert.Equal(t, []model.Coordinate{coord(0, 0)}, idx.Appearances(date(2023, time.December, 31)))
	assert.Empty(t, idx.Appearances(date(2023, time.December, 30)))
	assert.Empty(t, idx.Appearances(date(2024, time.May, 1)))
}

func TestIndex_MonthBoundaries(t *testing.T) {
	idx := mustIndex(t, firstQuarter2024())

	rng, err := idx.MonthBoundaries(1)
	require.NoError(t, err)
	assert.Equal(t, model.SectionRange{
		Year:  2024,
		Month: time.February,
		First: date(2024, time.February, 1),
		Last:  date(2024, time.February, 29),
	}, rng)

	_, err = idx.MonthBoundaries(3)
	assert.Error(t, err)
}

func TestIndex_HiddenPolicy(t *testing.T) {
	p := firstQuarter2024()
	p.OutOfMonth = OutOfMonthHidden
	idx := mustIndex(t, p)

	n, err := idx.ItemCount(1)
	require.NoError(t, err)
	assert.Equal(t, 29, n)

	c, ok := idx.Coordinate(date(2024, time.February, 15))
	require.True(t, ok)
	assert.Equal(t, coord(1, 14), c)

	// Feb 1 is a Thursday, so item 0 sits in column 4.
	row, col, err := idx.Position(coord(1, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, row)
	assert.Equal(t, 4, col)

	assert.Equal(t, []model.Coordinate{coord(0, 30)}, idx.Appearances(date(2024, time.January, 31)))
}

func TestIndex_EndOfGrid(t *testing.T) {
	p := firstQuarter2024()
	p.OutDates = OutDatesEndOfGrid
	idx := mustIndex(t, p)

	for sec := 0; sec < idx.SectionCount(); sec++ {
		n, err := idx.ItemCount(sec)
		require.NoError(t, err)
		assert.Equal(t, 42, n)
	}
	assert.Equal(t, []model.Coordinate{coord(0, 41), coord(1, 13)}, idx.Appearances(date(2024, time.February, 10)))
}

func TestIndex_FirstDayOfWeekMonday(t *testing.T) {
	p := firstQuarter2024()
	p.FirstDayOfWeek = time.Monday
	idx := mustIndex(t, p)

	d, err := idx.Date(coord(0, 0))
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.January, 1), d)

	d, err = idx.Date(coord(1, 0))
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.January, 29), d)
}

func TestIndex_OwnershipPolicies(t *testing.T) {
	jan31 := date(2024, time.January, 31)
	feb1 := date(2024, time.February, 1)

	p := firstQuarter2024()
	c, _ := mustIndex(t, p).Coordinate(feb1)
	assert.Equal(t, coord(1, 4), c, "month owner")

	p.Ownership = OwnerEarliest
	c, _ = mustIndex(t, p).Coordinate(feb1)
	assert.Equal(t, coord(0, 32), c, "earliest owner")

	p.Ownership = OwnerLatest
	c, _ = mustIndex(t, p).Coordinate(jan31)
	assert.Equal(t, coord(1, 3), c, "latest owner")
}

func TestParams_Validate(t *testing.T) {
	base := firstQuarter2024()

	cases := map[string]func(*Params){
		"missing start":  func(p *Params) { p.Start = model.CalendarDate{} },
		"missing end":    func(p *Params) { p.End = model.CalendarDate{} },
		"end before":     func(p *Params) { p.End = date(2023, time.December, 31) },
		"bad weekday":    func(p *Params) { p.FirstDayOfWeek = 7 },
		"bad policy":     func(p *Params) { p.OutOfMonth = 9 },
		"bad out dates":  func(p *Params) { p.OutDates = -1 },
		"bad ownership":  func(p *Params) { p.Ownership = 3 },
		"too many years": func(p *Params) { p.End = date(2300, time.January, 1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := base
			mutate(&p)
			_, err := NewIndex(p)
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err))
		})
	}

	single := base
	single.End = single.Start
	idx := mustIndex(t, single)
	assert.Equal(t, 1, idx.SectionCount())
}

func TestParsePolicies(t *testing.T) {
	wd, err := ParseWeekday("Mon")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, wd)
	wd, err = ParseWeekday("sunday")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, wd)
	_, err = ParseWeekday("mo")
	assert.Error(t, err)

	oom, err := ParseOutOfMonth("Selectable")
	require.NoError(t, err)
	assert.Equal(t, OutOfMonthSelectable, oom)
	_, err = ParseOutOfMonth("blurred")
	assert.True(t, IsConfigurationError(err))

	od, err := ParseOutDates("end_of_grid")
	require.NoError(t, err)
	assert.Equal(t, OutDatesEndOfGrid, od)

	own, err := ParseOwnership("latest")
	require.NoError(t, err)
	assert.Equal(t, OwnerLatest, own)
}
