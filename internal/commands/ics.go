package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gridcal/internal/calendar"
	"gridcal/internal/ics"
	appLog "gridcal/internal/log"
)

func addImport(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "import FILE.ics",
		Short: "Select every day covered by the events of an ICS file.",
		Long: `Select every day covered by the events of an ICS file.

Days outside the configured range or blocked by a feed are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			events, err := ics.Parse(ics.Source{ID: "import", URL: args[0]}, body)
			if err != nil {
				return err
			}

			return mutate(cmd, ro, func(a *app) (calendar.Change, error) {
				cfg, err := a.expandConfig()
				if err != nil {
					return calendar.Change{}, err
				}
				days, err := ics.Days(events, cfg)
				if err != nil {
					return calendar.Change{}, err
				}
				var total calendar.Change
				for _, d := range days {
					ch, err := a.engine.Select(d)
					if errors.Is(err, calendar.ErrNotSelectable) || errors.Is(err, calendar.ErrOutOfRange) {
						appLog.Debug("import skipped day", "date", d.String(), "reason", err.Error())
						continue
					}
					if err != nil {
						return calendar.Change{}, err
					}
					total = merge(total, ch)
				}
				return total, nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addExport(topLevel *cobra.Command, ro *rootOptions) {
	var name string

	cmd := &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write the selection as an ICS file, or to stdout.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), ro)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := ics.ExportOptions{Name: name}
			if len(args) == 0 {
				return ics.Export(cmd.OutOrStdout(), a.engine.Selected(), opts)
			}
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := ics.Export(f, a.engine.Selected(), opts); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Calendar name written as X-WR-CALNAME.")

	topLevel.AddCommand(cmd)
}

func addRefresh(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the feeds once and store the blocked days.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, ro)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := a.fetcher()
			if err != nil {
				return err
			}
			days, ok, err := a.fetchBlocked(ctx, f)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no feed could be refreshed")
			}
			ch := a.engine.SetBlocked(days)
			if err := a.save(ctx); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "blocked %d, deselected %d\n", len(days), len(ch.Deselected))
			return err
		},
	}

	topLevel.AddCommand(cmd)
}
