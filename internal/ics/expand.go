package ics

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	appLog "gridcal/internal/log"
	"gridcal/internal/model"
)

const defaultMaxOccurrencesPerEvent = 5000

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// From / To bound the days that are reported, inclusive.
	From model.CalendarDate
	To   model.CalendarDate

	// Location is the zone timed events are converted to before their days
	// are taken. Nil means time.Local. All-day events keep their own date.
	Location *time.Location

	// MaxOccurrencesPerEvent caps runaway rules. Zero means 5000.
	MaxOccurrencesPerEvent int
}

// Days expands events into the sorted set of days they cover within
// [cfg.From, cfg.To]. It handles single events, RRULE recurrences, EXDATE
// and RECURRENCE-ID overrides. Multi-day events cover every day they touch;
// all-day DTEND is exclusive.
func Days(events []Event, cfg ExpandConfig) ([]model.CalendarDate, error) {
	if cfg.To.Before(cfg.From) {
		return nil, errors.New("expand: To is before From")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	overrides := make(map[string][]Event)
	for _, ev := range events {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
		}
	}

	seen := make(map[model.CalendarDate]struct{})
	add := func(ev Event, start time.Time) {
		for _, d := range coveredDays(ev, start, cfg.Location) {
			if d.Between(cfg.From, cfg.To) {
				seen[d] = struct{}{}
			}
		}
	}

	for _, ev := range events {
		if ev.IsOverride() || ev.RRule == "" {
			add(ev, ev.Start)
			continue
		}
		starts, truncated := occurrences(ev, overrides[ev.UID], cfg)
		if truncated {
			appLog.Error("expand: occurrences truncated", errors.New("max occurrences reached"),
				"uid", ev.UID, "cap", cfg.MaxOccurrencesPerEvent)
		}
		for _, s := range starts {
			add(ev, s)
		}
	}

	out := make([]model.CalendarDate, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	slices.SortFunc(out, model.CalendarDate.Compare)
	return out, nil
}

// occurrences returns the instance starts of a recurring event that can
// touch the window, minus EXDATEs and instances replaced by an override.
func occurrences(ev Event, overrides []Event, cfg ExpandConfig) ([]time.Time, bool) {
	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	loc := ev.Start.Location()
	// Widen by the event length so instances starting before From but
	// running into it are kept.
	lo := cfg.From.In(loc).Add(-duration(ev) - 24*time.Hour)
	hi := cfg.To.AddDays(1).In(loc)
	starts := set.Between(lo, hi, true)

	truncated := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		truncated = true
	}

	out := starts[:0]
	for _, s := range starts {
		if !replaced(s, overrides) {
			out = append(out, s)
		}
	}
	return out, truncated
}

func replaced(start time.Time, overrides []Event) bool {
	for _, ov := range overrides {
		if ov.RecurrenceID.Equal(start) {
			return true
		}
		// All-day RECURRENCE-IDs match by date.
		if ov.AllDay && model.DateOf(*ov.RecurrenceID) == model.DateOf(start) {
			return true
		}
	}
	return false
}

func duration(ev Event) time.Duration {
	if ev.End.IsZero() || !ev.End.After(ev.Start) {
		if ev.AllDay {
			return 24 * time.Hour
		}
		return 0
	}
	return ev.End.Sub(ev.Start)
}

// coveredDays lists the days an instance starting at start touches.
func coveredDays(ev Event, start time.Time, loc *time.Location) []model.CalendarDate {
	if ev.AllDay {
		first := model.DateOf(start)
		days := int(duration(ev).Round(24*time.Hour) / (24 * time.Hour))
		if days < 1 {
			days = 1
		}
		return model.DateSpan(first, first.AddDays(days-1))
	}

	s := start.In(loc)
	e := start.Add(duration(ev)).In(loc)
	first := model.DateOf(s)
	if !e.After(s) {
		return []model.CalendarDate{first}
	}
	last := model.DateOf(e)
	if e.Equal(last.In(loc)) {
		// Ending exactly at midnight does not touch that day.
		last = last.AddDays(-1)
	}
	if last.Before(first) {
		last = first
	}
	return model.DateSpan(first, last)
}

// Blocked fetches, parses and expands every source into the days they
// cover. Failing sources are skipped and reported; the days of the others
// are still returned.
func (f *Fetcher) Blocked(ctx context.Context, sources []Source, cfg ExpandConfig) ([]model.CalendarDate, []error) {
	results, errs := f.FetchAll(ctx, sources)

	var events []Event
	for _, res := range results {
		evs, err := Parse(res.Source, res.Body)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		events = append(events, evs...)
	}

	days, err := Days(events, cfg)
	if err != nil {
		return nil, append(errs, err)
	}
	appLog.Info("blocked days collected", "sources", len(sources), "events", len(events), "days", len(days))
	return days, errs
}
