package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gridcal/internal/calendar"
	"gridcal/internal/model"
)

// mutate opens the app, applies fn, saves the selection and reports what
// changed.
func mutate(cmd *cobra.Command, ro *rootOptions, fn func(a *app) (calendar.Change, error)) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, ro)
	if err != nil {
		return err
	}
	defer a.Close()

	ch, err := fn(a)
	if err != nil {
		return err
	}
	if err := a.save(ctx); err != nil {
		return err
	}
	return printChange(cmd.OutOrStdout(), ch)
}

func printChange(w io.Writer, ch calendar.Change) error {
	_, err := fmt.Fprintf(w, "selected %d, deselected %d\n", len(ch.Selected), len(ch.Deselected))
	return err
}

func addSelect(topLevel *cobra.Command, ro *rootOptions) {
	var rule string

	cmd := &cobra.Command{
		Use:   "select DATE...",
		Short: "Select days, or every day an RRULE produces.",
		Example: `
gridcal select 2024-02-14 2024-02-15
gridcal select --rule "FREQ=WEEKLY;BYDAY=MO,WE"
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rule == "" && len(args) == 0 {
				return fmt.Errorf("select needs dates or --rule")
			}
			if rule != "" && len(args) > 0 {
				return fmt.Errorf("select takes dates or --rule, not both")
			}
			dates, err := parseDates(args)
			if err != nil {
				return err
			}
			return mutate(cmd, ro, func(a *app) (calendar.Change, error) {
				e := a.engine
				if rule != "" {
					return e.SelectRule(rule)
				}
				return each(dates, e.Select)
			})
		},
	}
	cmd.Flags().StringVar(&rule, "rule", "", `RRULE whose occurrences are selected, e.g. "FREQ=WEEKLY;BYDAY=MO".`)

	topLevel.AddCommand(cmd)
}

func addDeselect(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "deselect DATE...",
		Short: "Deselect days.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dates, err := parseDates(args)
			if err != nil {
				return err
			}
			return mutate(cmd, ro, func(a *app) (calendar.Change, error) {
				return each(dates, a.engine.Deselect)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addRange(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "range FROM TO",
		Short: "Select every day from FROM to TO, in either order.",
		Example: `
gridcal range 2024-02-10 2024-02-20
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dates, err := parseDates(args)
			if err != nil {
				return err
			}
			return mutate(cmd, ro, func(a *app) (calendar.Change, error) {
				e := a.engine
				begin, err := e.BeginRange(dates[0])
				if err != nil {
					return calendar.Change{}, err
				}
				ext, err := e.ExtendRange(dates[1])
				if err != nil {
					e.CancelRange()
					return calendar.Change{}, err
				}
				e.EndRange()
				return merge(begin, ext), nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addClear(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Deselect every day.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return mutate(cmd, ro, func(a *app) (calendar.Change, error) {
				return a.engine.Clear(), nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}

// each applies op to every date and stops at the first error.
func each(dates []model.CalendarDate, op func(model.CalendarDate) (calendar.Change, error)) (calendar.Change, error) {
	var total calendar.Change
	for _, d := range dates {
		ch, err := op(d)
		if err != nil {
			return calendar.Change{}, fmt.Errorf("%s: %w", d, err)
		}
		total = merge(total, ch)
	}
	return total, nil
}

// merge combines two consecutive changes. Refresh coordinates are not
// needed on the command line and are dropped.
func merge(a, b calendar.Change) calendar.Change {
	return calendar.Change{
		Selected:   append(a.Selected, b.Selected...),
		Deselected: append(a.Deselected, b.Deselected...),
	}
}
