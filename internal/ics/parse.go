package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "gridcal/internal/log"
)

// Event is the part of a VEVENT that decides which days it blocks.
// Recurrences are recorded here and expanded in expand.go.
type Event struct {
	Source Source

	UID     string
	Summary string

	Start  time.Time
	End    time.Time // zero when the event has no DTEND
	AllDay bool

	RRule        string
	ExDates      []time.Time
	RecurrenceID *time.Time // set on overrides of one recurring instance
}

// IsOverride reports whether ev replaces a single instance of a recurring
// event.
func (ev Event) IsOverride() bool { return ev.RecurrenceID != nil }

// Parse parses an ICS payload. Events that cannot be parsed are logged and
// skipped.
func Parse(src Source, body []byte) ([]Event, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	var events []Event
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(src, ve)
		if err != nil {
			appLog.Error("ics vevent skipped", err, "id", src.ID)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "id", src.ID, "events", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (Event, error) {
	out := Event{Source: src}

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid.Value
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	out.AllDay = isDateValue(dtStart)

	var err error
	if out.AllDay {
		out.Start, err = ve.GetAllDayStartAt()
	} else {
		out.Start, err = ve.GetStartAt()
	}
	if err != nil {
		return out, err
	}

	if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
		if isDateValue(dtEnd) {
			out.End, err = ve.GetAllDayEndAt()
		} else {
			out.End, err = ve.GetEndAt()
		}
		if err != nil {
			return out, err
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}

	// EXDATE may repeat and may hold a comma-separated list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, tzOf(p.ICalParameters, out.Start.Location())); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRecurrenceId); p != nil {
		t, err := parseICSTime(p.Value, tzOf(p.ICalParameters, out.Start.Location()))
		if err != nil {
			return out, err
		}
		out.RecurrenceID = &t
	}

	return out, nil
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func tzOf(params map[string][]string, fallback *time.Location) *time.Location {
	if tz, ok := params["TZID"]; ok && len(tz) == 1 {
		if loc, err := time.LoadLocation(tz[0]); err == nil {
			return loc
		}
	}
	if fallback == nil {
		return time.Local
	}
	return fallback
}

// parseICSTime parses a DATE or DATE-TIME value as used in EXDATE and
// RECURRENCE-ID.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
