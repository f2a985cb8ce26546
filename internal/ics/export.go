package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"gridcal/internal/model"
)

// uidNamespace makes exported event UIDs stable: the same run of days
// always gets the same UID.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://gridcal.invalid/selection"))

// ExportOptions tunes the exported calendar.
type ExportOptions struct {
	Name    string    // X-WR-CALNAME; "gridcal selection" if empty
	Summary string    // event SUMMARY; "Selected" if empty
	Now     time.Time // DTSTAMP; time.Now() if zero
}

// Run is a stretch of consecutive days.
type Run struct {
	First model.CalendarDate
	Last  model.CalendarDate
}

// Runs coalesces dates into runs of consecutive days. dates must be sorted
// ascending; duplicates are ignored.
func Runs(dates []model.CalendarDate) []Run {
	var out []Run
	for _, d := range dates {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if !d.After(last.Last) {
				continue
			}
			if last.Last.AddDays(1) == d {
				last.Last = d
				continue
			}
		}
		out = append(out, Run{First: d, Last: d})
	}
	return out
}

// Export writes dates as an iCalendar file with one all-day VEVENT per run
// of consecutive days.
func Export(w io.Writer, dates []model.CalendarDate, opts ExportOptions) error {
	if opts.Name == "" {
		opts.Name = "gridcal selection"
	}
	if opts.Summary == "" {
		opts.Summary = "Selected"
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	cal := ical.NewCalendarFor("gridcal")
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(opts.Name)

	for _, run := range Runs(dates) {
		key := run.First.String() + "/" + run.Last.String()
		ev := cal.AddEvent(uuid.NewSHA1(uidNamespace, []byte(key)).String())
		ev.SetDtStampTime(opts.Now)
		ev.SetSummary(opts.Summary)
		ev.SetAllDayStartAt(run.First.Time())
		// DTEND of an all-day event is exclusive.
		ev.SetAllDayEndAt(run.Last.AddDays(1).Time())
		if n := run.First.DaysUntil(run.Last) + 1; n > 1 {
			ev.SetDescription(fmt.Sprintf("%d days", n))
		}
	}

	return cal.SerializeTo(w)
}
