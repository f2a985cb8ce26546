package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gridcal/internal/calendar"
	"gridcal/internal/textgrid"
)

func addShow(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "show [YYYY-MM]",
		Short: "Print the month grids, or a single month.",
		Example: `
gridcal show
gridcal show 2024-02
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), ro)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				return textgrid.All(out, a.engine)
			}
			sec, err := sectionOf(a.engine, args[0])
			if err != nil {
				return err
			}
			return textgrid.Section(out, a.engine, sec)
		},
	}

	topLevel.AddCommand(cmd)
}

func addList(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the selected days as runs.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), ro)
			if err != nil {
				return err
			}
			defer a.Close()
			return textgrid.SelectionTable(cmd.OutOrStdout(), a.engine)
		},
	}

	topLevel.AddCommand(cmd)
}

// sectionOf finds the section displaying the "2006-01" month.
func sectionOf(e *calendar.Engine, month string) (int, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return 0, fmt.Errorf("parse month %q: %w", month, err)
	}
	idx := e.Index()
	for i := 0; i < idx.SectionCount(); i++ {
		r, err := idx.MonthBoundaries(i)
		if err != nil {
			return 0, err
		}
		if r.Year == t.Year() && r.Month == t.Month() {
			return i, nil
		}
	}
	return 0, fmt.Errorf("month %s: %w", month, calendar.ErrOutOfRange)
}
