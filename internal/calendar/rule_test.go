package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleDates(t *testing.T) {
	from := date(2024, time.February, 1)
	to := date(2024, time.February, 29)

	got, err := RuleDates("FREQ=WEEKLY;BYDAY=TU,TH", from, to)
	require.NoError(t, err)
	assert.Len(t, got, 9)
	assert.Equal(t, from, got[0], "Feb 1 2024 is a Thursday")
	assert.Equal(t, date(2024, time.February, 29), got[len(got)-1])

	got, err = RuleDates("RRULE:FREQ=DAILY;COUNT=3", from, to)
	require.NoError(t, err)
	assert.Equal(t, span(from, date(2024, time.February, 3)), got)
}

func TestRuleDates_ClipsToRange(t *testing.T) {
	got, err := RuleDates("FREQ=MONTHLY;BYMONTHDAY=31", date(2024, time.January, 1), date(2024, time.June, 30))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5}, []int{int(got[0].Month), int(got[1].Month), int(got[2].Month)})
	assert.Len(t, got, 3)
}

func TestRuleDates_Errors(t *testing.T) {
	_, err := RuleDates("  ", date(2024, time.January, 1), date(2024, time.January, 31))
	assert.Error(t, err)
	_, err = RuleDates("FREQ=FORTNIGHTLY", date(2024, time.January, 1), date(2024, time.January, 31))
	assert.Error(t, err)

	for _, rule := range []string{
		"FREQ=SECONDLY",
		"FREQ=MINUTELY;INTERVAL=30",
		"FREQ=HOURLY",
		"FREQ=DAILY;BYHOUR=0,12",
		"FREQ=DAILY;BYMINUTE=0,1,2",
		"FREQ=WEEKLY;BYSECOND=5",
	} {
		_, err := RuleDates(rule, date(2024, time.January, 1), date(2223, time.December, 31))
		assert.Error(t, err, rule)
	}
}

func TestRuleDates_DailyStopsAtRangeEnd(t *testing.T) {
	days, err := RuleDates("FREQ=DAILY", date(2024, time.January, 1), date(2024, time.March, 31))
	require.NoError(t, err)
	require.Len(t, days, 91)
	assert.Equal(t, date(2024, time.January, 1), days[0])
	assert.Equal(t, date(2024, time.March, 31), days[90])
}
