package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"gridcal/internal/ics"
	appLog "gridcal/internal/log"
	"gridcal/internal/web"
)

func addServe(topLevel *cobra.Command, ro *rootOptions) {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calendar API and refresh blocked days on a schedule.",
		Example: `
gridcal serve
gridcal serve --listen 0.0.0.0:8080
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, ro)
			if err != nil {
				return err
			}
			defer a.Close()

			if listen != "" {
				a.cfg.Listen = listen
			}
			appLog.Info("effective config",
				"listen", a.cfg.Listen,
				"timezone", a.cfg.Timezone,
				"range", a.params.Start.String()+".."+a.params.End.String(),
				"sections", a.engine.SectionCount(),
				"selection", a.engine.Mode().String(),
				"feeds", len(a.cfg.Feeds),
				"refresh", a.cfg.RefreshCron,
			)

			srv := web.NewServer(a.engine, web.Options{BasicAuth: a.cfg.BasicAuth, Persister: a.store})
			f, err := a.fetcher()
			if err != nil {
				return err
			}
			refresh := func() { refreshServer(ctx, a, f, srv) }

			c := cron.New()
			if len(a.cfg.Feeds) > 0 {
				if _, err := c.AddFunc(a.cfg.RefreshCron, refresh); err != nil {
					return err
				}
				go refresh()
			}
			c.Start()
			defer func() { <-c.Stop().Done() }()

			err = srv.ListenAndServe(ctx, a.cfg.Listen)
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			appLog.Info("gridcal exiting")
			return err
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Override the configured listen address.")

	topLevel.AddCommand(cmd)
}

func refreshServer(ctx context.Context, a *app, f *ics.Fetcher, srv *web.Server) {
	if ctx.Err() != nil {
		return
	}
	days, ok, err := a.fetchBlocked(ctx, f)
	if err != nil {
		appLog.Error("refresh blocked days", err)
		return
	}
	if !ok {
		appLog.Info("all feeds failed, keeping blocked days")
		return
	}
	ch := srv.ApplyBlocked(ctx, days)
	appLog.Info("blocked days refreshed", "blocked", len(days), "deselected", len(ch.Deselected))
}
