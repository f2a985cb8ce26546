// Package textgrid renders calendar sections and the selection for the
// terminal.
package textgrid

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"gridcal/internal/calendar"
	"gridcal/internal/ics"
	"gridcal/internal/model"
)

const cellWidth = 4 // "%3d" plus one marker column

var (
	selectedStyle = color.New(color.Bold, color.FgHiGreen)
	blockedStyle  = color.New(color.FgRed)
	paddingStyle  = color.New(color.Faint)
	todayStyle    = color.New(color.Underline)
	titleStyle    = color.New(color.FgWhite, color.Italic)
	headStyle     = color.New(color.Bold)
)

// Markers after the day number, so the grid reads without color too.
const (
	markSelected = '*'
	markBlocked  = 'x'
	markPadding  = '.'
	markOutside  = '-'
)

// Section writes one section as a month grid: a centred title, the weekday
// header and one line per row.
func Section(w io.Writer, e *calendar.Engine, section int) error {
	h, err := e.Header(section)
	if err != nil {
		return err
	}
	n, err := e.ItemCount(section)
	if err != nil {
		return err
	}
	first := e.Index().Params().FirstDayOfWeek
	width := cellWidth * 7

	title := fmt.Sprintf("%s %d", h.Range.Month, h.Range.Year)
	mid := (width - len(title)) / 2
	if mid < 0 {
		mid = 0
	}
	lines := []string{strings.Repeat(" ", mid) + titleStyle.Sprint(title)}

	var head strings.Builder
	for i := 0; i < 7; i++ {
		day := (first + time.Weekday(i)) % 7
		head.WriteString(headStyle.Sprintf("%3s ", day.String()[:2]))
	}
	lines = append(lines, head.String())

	var row strings.Builder
	current := -1
	for item := 0; item < n; item++ {
		st, err := e.State(model.Coordinate{Section: section, Item: item})
		if err != nil {
			return err
		}
		if st.Row != current {
			if current >= 0 {
				lines = append(lines, row.String())
				row.Reset()
			}
			current = st.Row
			// Hidden padding leaves the leading columns empty.
			row.WriteString(strings.Repeat(" ", cellWidth*st.Column))
		}
		row.WriteString(cell(st))
	}
	if current >= 0 {
		lines = append(lines, row.String())
	}

	for _, l := range lines {
		if _, err := fmt.Fprintln(w, strings.TrimRight(l, " ")); err != nil {
			return err
		}
	}
	return nil
}

// All writes every section, separated by blank lines.
func All(w io.Writer, e *calendar.Engine) error {
	for i := 0; i < e.SectionCount(); i++ {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := Section(w, e, i); err != nil {
			return err
		}
	}
	return nil
}

func cell(st model.CellState) string {
	mark := ' '
	style := color.New()
	switch {
	case st.IsSelected:
		mark, style = markSelected, selectedStyle
	case st.IsBlocked:
		mark, style = markBlocked, blockedStyle
	case !st.Owner.IsThisMonth():
		mark, style = markPadding, paddingStyle
	case !st.IsSelectable:
		mark, style = markOutside, paddingStyle
	}
	num := style.Sprintf("%3d", st.Date.Day)
	if st.IsToday {
		num = todayStyle.Sprint(num)
	}
	return num + string(mark)
}

// SelectionTable lists the selection as runs of consecutive days with the
// cell each run starts at.
func SelectionTable(w io.Writer, e *calendar.Engine) error {
	selected := e.Selected()
	if len(selected) == 0 {
		_, err := fmt.Fprintln(w, "no days selected")
		return err
	}

	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("FROM"), bold.Sprint("TO"), bold.Sprint("DAYS"), bold.Sprint("CELL"))
	for _, run := range ics.Runs(selected) {
		where := "-"
		if c, ok := e.Index().Coordinate(run.First); ok {
			where = c.String()
		}
		tbl.AddRow(run.First, run.Last, run.First.DaysUntil(run.Last)+1, where)
	}
	tbl.RightAlign(2)

	_, err := fmt.Fprintln(w, tbl)
	return err
}
