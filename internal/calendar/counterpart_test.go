package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gridcal/internal/model"
)

func TestResolver_Counterpart(t *testing.T) {
	r := NewResolver(mustIndex(t, firstQuarter2024()))
	jan31 := date(2024, time.January, 31)

	c, ok := r.Counterpart(coord(0, 31), jan31, model.ThisMonth)
	assert.True(t, ok)
	assert.Equal(t, coord(1, 3), c)

	c, ok = r.Counterpart(coord(1, 3), jan31, model.PreviousMonthWithinBoundary)
	assert.True(t, ok)
	assert.Equal(t, coord(0, 31), c)

	c, ok = r.Counterpart(coord(0, 32), date(2024, time.February, 1), model.FollowingMonthWithinBoundary)
	assert.True(t, ok)
	assert.Equal(t, coord(1, 4), c)
}

func TestResolver_SingleRendering(t *testing.T) {
	r := NewResolver(mustIndex(t, firstQuarter2024()))

	_, ok := r.Counterpart(coord(1, 18), date(2024, time.February, 15), model.ThisMonth)
	assert.False(t, ok)

	_, ok = r.Counterpart(coord(0, 0), date(2023, time.December, 31), model.PreviousMonthOutsideBoundary)
	assert.False(t, ok)

	p := firstQuarter2024()
	p.OutOfMonth = OutOfMonthHidden
	hidden := NewResolver(mustIndex(t, p))
	_, ok = hidden.Counterpart(coord(0, 30), date(2024, time.January, 31), model.ThisMonth)
	assert.False(t, ok, "no overlap when padding is hidden")
}
