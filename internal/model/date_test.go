package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewDate_Normalizes(t *testing.T) {
	assert.Equal(t, CalendarDate{2024, time.February, 1}, NewDate(2024, time.January, 32))
	assert.Equal(t, CalendarDate{2023, time.December, 31}, NewDate(2024, time.January, 0))
	assert.Equal(t, CalendarDate{2024, time.February, 29}, NewDate(2024, time.March, 0))
}

func TestDateOf_UsesLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	ts := time.Date(2024, 2, 14, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, CalendarDate{2024, time.February, 14}, DateOf(ts))
	assert.Equal(t, CalendarDate{2024, time.February, 15}, DateOf(ts.In(seoul)))

	mid := NewDate(2024, time.February, 15).In(seoul)
	assert.Equal(t, time.Date(2024, 2, 14, 15, 0, 0, 0, time.UTC), mid.UTC())
	assert.Equal(t, NewDate(2024, time.February, 15).Time(), NewDate(2024, time.February, 15).In(nil))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-15 ")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.February, 15), d)
	assert.Equal(t, "2024-02-15", d.String())

	_, err = ParseDate("2024-02-30")
	assert.Error(t, err)
	_, err = ParseDate("15/02/2024")
	assert.Error(t, err)
}

func TestCalendarDate_Arithmetic(t *testing.T) {
	d := NewDate(2024, time.February, 28)

	assert.Equal(t, NewDate(2024, time.February, 29), d.AddDays(1))
	assert.Equal(t, NewDate(2024, time.March, 1), d.AddDays(2))
	assert.Equal(t, NewDate(2023, time.December, 31), NewDate(2024, time.January, 1).AddDays(-1))
	assert.Equal(t, 2, d.DaysUntil(NewDate(2024, time.March, 1)))
	assert.Equal(t, -59, NewDate(2024, time.February, 29).DaysUntil(NewDate(2024, time.January, 1)))
	assert.Equal(t, NewDate(2023, time.February, 28), NewDate(2023, time.February, 3).LastOfMonth())
	assert.Equal(t, NewDate(2024, time.February, 1), d.FirstOfMonth())
	assert.Equal(t, NewDate(2024, time.February, 29), d.LastOfMonth())
}

func TestCalendarDate_Weekday(t *testing.T) {
	assert.Equal(t, time.Monday, NewDate(2024, time.January, 1).Weekday())
	assert.Equal(t, time.Thursday, NewDate(2024, time.February, 1).Weekday())
	assert.Equal(t, time.Wednesday, NewDate(2024, time.January, 10).Weekday())
}

func TestCalendarDate_Compare(t *testing.T) {
	a := NewDate(2024, time.January, 31)
	b := NewDate(2024, time.February, 1)

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.Between(a, b))
	assert.False(t, NewDate(2023, time.December, 31).Between(a, b))
	assert.Equal(t, a, MinDate(b, a))
	assert.Equal(t, b, MaxDate(b, a))
}

func TestDateSpan(t *testing.T) {
	span := DateSpan(NewDate(2024, time.February, 27), NewDate(2024, time.March, 2))
	require.Len(t, span, 5)
	assert.Equal(t, NewDate(2024, time.February, 29), span[2])
	assert.Nil(t, DateSpan(NewDate(2024, time.March, 2), NewDate(2024, time.March, 1)))
}

func TestCalendarDate_TextEncoding(t *testing.T) {
	type doc struct {
		Start CalendarDate `json:"start" yaml:"start"`
		End   CalendarDate `json:"end" yaml:"end"`
	}

	var fromYAML doc
	require.NoError(t, yaml.Unmarshal([]byte("start: 2024-01-01\nend: \"\"\n"), &fromYAML))
	assert.Equal(t, NewDate(2024, time.January, 1), fromYAML.Start)
	assert.True(t, fromYAML.End.IsZero())

	out, err := json.Marshal(doc{Start: NewDate(2024, time.March, 31)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2024-03-31","end":""}`, string(out))
}
