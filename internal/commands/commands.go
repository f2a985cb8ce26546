// Package commands wires the gridcal command line.
package commands

import (
	"github.com/spf13/cobra"

	"gridcal/internal/config"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

func New() *cobra.Command {
	ro := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "gridcal",
		Short:         "Month grid calendar with day and range selection.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVarP(&ro.configPath, "config", "c", config.DefaultPath,
		"Path to the YAML config; created with defaults if missing.")
	cmd.PersistentFlags().StringVar(&ro.logLevel, "log-level", "",
		`Override the configured log level ("debug", "info" or "error").`)

	addCommands(cmd, ro)
	return cmd
}

func addCommands(topLevel *cobra.Command, ro *rootOptions) {
	addServe(topLevel, ro)
	addShow(topLevel, ro)
	addList(topLevel, ro)
	addSelect(topLevel, ro)
	addDeselect(topLevel, ro)
	addRange(topLevel, ro)
	addClear(topLevel, ro)
	addImport(topLevel, ro)
	addExport(topLevel, ro)
	addRefresh(topLevel, ro)
	addVersion(topLevel)
}
