package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRegistry_SingleSourceAlwaysWins(t *testing.T) {
	r, err := NewHeaderRegistry(func(HeaderContext) string { return "other" }, HeaderSource{ID: "plain"})
	require.NoError(t, err)

	assert.Equal(t, "plain", r.Resolve(HeaderContext{}).ID)
}

func TestHeaderRegistry_SelectorLookup(t *testing.T) {
	selector := MonthSelector(map[time.Month]string{
		time.January: "quarter",
		time.April:   "quarter",
		time.March:   "missing",
	}, "plain")
	r, err := NewHeaderRegistry(selector,
		HeaderSource{ID: "plain", Template: "month.tmpl"},
		HeaderSource{ID: "quarter", Template: "quarter.tmpl"},
	)
	require.NoError(t, err)

	e := newEngine(t, firstQuarter2024(), WithHeaders(r))

	h, err := e.Header(0)
	require.NoError(t, err)
	assert.Equal(t, "quarter", h.Source.ID)
	assert.Equal(t, time.January, h.Range.Month)

	h, err = e.Header(1)
	require.NoError(t, err)
	assert.Equal(t, "plain", h.Source.ID)

	h, err = e.Header(2)
	require.NoError(t, err)
	assert.Equal(t, "plain", h.Source.ID, "unknown IDs fall back to the first source")

	_, err = e.Header(3)
	assert.True(t, IsProgrammerError(err))
}

func TestHeaderRegistry_NormalizesIDs(t *testing.T) {
	// "é" precomposed vs. "e" + combining acute accent.
	composed := "f\u00e9vrier"
	decomposed := "fe\u0301vrier"

	r, err := NewHeaderRegistry(func(HeaderContext) string { return decomposed },
		HeaderSource{ID: "plain"},
		HeaderSource{ID: composed},
	)
	require.NoError(t, err)
	assert.Equal(t, composed, r.Resolve(HeaderContext{}).ID)

	_, err = NewHeaderRegistry(nil, HeaderSource{ID: composed}, HeaderSource{ID: decomposed})
	assert.Error(t, err, "duplicate after normalization")
}

func TestHeaderRegistry_Validation(t *testing.T) {
	_, err := NewHeaderRegistry(nil)
	assert.Error(t, err)
	_, err = NewHeaderRegistry(nil, HeaderSource{ID: "  "})
	assert.Error(t, err)

	assert.Equal(t, []HeaderSource{{ID: "month"}}, DefaultHeaders().Sources())
}
