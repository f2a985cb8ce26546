package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinate_Less(t *testing.T) {
	assert.True(t, Coordinate{0, 40}.Less(Coordinate{1, 0}))
	assert.True(t, Coordinate{1, 2}.Less(Coordinate{1, 3}))
	assert.False(t, Coordinate{1, 3}.Less(Coordinate{1, 3}))
	assert.Equal(t, "(1,3)", Coordinate{1, 3}.String())
}

func TestDateOwnership_Boundary(t *testing.T) {
	assert.True(t, ThisMonth.IsThisMonth())
	assert.True(t, PreviousMonthWithinBoundary.WithinBoundary())
	assert.False(t, FollowingMonthOutsideBoundary.WithinBoundary())
}

func TestCellState_JSONEnums(t *testing.T) {
	in := CellState{
		Date:             NewDate(2024, 1, 31),
		Owner:            PreviousMonthWithinBoundary,
		SelectedPosition: PositionRight,
	}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"owner":"previous_month_within_boundary"`)
	assert.Contains(t, string(b), `"position":"right"`)

	var out CellState
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)

	var o DateOwnership
	assert.Error(t, o.UnmarshalText([]byte("sideways")))
	var p SelectionPosition
	assert.Error(t, p.UnmarshalText([]byte("diagonal")))
}
