package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"gridcal/internal/model"
)

// RuleDates expands an RFC 5545 recurrence rule (e.g. "FREQ=WEEKLY;BYDAY=MO,WE")
// into the days it hits within [from, to]. Without an explicit DTSTART the
// rule starts at from. Rules finer than DAILY are rejected.
func RuleDates(rule string, from, to model.CalendarDate) ([]model.CalendarDate, error) {
	rule = strings.TrimSpace(rule)
	rule = strings.TrimPrefix(rule, "RRULE:")
	if rule == "" {
		return nil, fmt.Errorf("rule is empty")
	}

	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, fmt.Errorf("parse rule %q: %w", rule, err)
	}
	// Occurrences fold into days, so finer frequencies only add work.
	if opt.Freq > rrule.DAILY || len(opt.Byhour) > 0 || len(opt.Byminute) > 0 || len(opt.Bysecond) > 0 {
		return nil, fmt.Errorf("rule %q: only day-granular rules are supported", rule)
	}
	if opt.Dtstart.IsZero() {
		opt.Dtstart = from.Time()
	}
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("build rule %q: %w", rule, err)
	}

	endOfDay := to.Time().Add(24*time.Hour - time.Nanosecond)
	var out []model.CalendarDate
	seen := make(map[model.CalendarDate]struct{})
	next := r.Iterator()
	for t, ok := next(); ok && !t.After(endOfDay); t, ok = next() {
		d := model.DateOf(t)
		if _, dup := seen[d]; dup || !d.Between(from, to) {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out, nil
}
