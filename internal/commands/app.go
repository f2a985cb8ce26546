package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gridcal/internal/calendar"
	"gridcal/internal/config"
	"gridcal/internal/ics"
	appLog "gridcal/internal/log"
	"gridcal/internal/model"
	"gridcal/internal/store"
)

// app is the engine restored from the state database, plus the config it
// was built from.
type app struct {
	cfg    *config.Config
	params calendar.Params
	engine *calendar.Engine
	store  *store.Store
}

func openApp(ctx context.Context, ro *rootOptions) (*app, error) {
	cfg, err := config.Load(ro.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if ro.logLevel != "" {
		level = ro.logLevel
	}
	if l, ok := appLog.ParseLevel(level); ok {
		appLog.SetLevel(l)
	} else {
		appLog.Info("unknown log level, using info", "log_level", level)
	}

	p, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}
	e, err := calendar.New(p, opts...)
	if err != nil {
		return nil, err
	}

	path, err := cfg.ResolvedStatePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}

	selected, err := st.LoadSelection(ctx)
	if err != nil {
		st.Close()
		return nil, err
	}
	blocked, err := st.LoadBlocked(ctx)
	if err != nil {
		st.Close()
		return nil, err
	}
	e.Restore(selected)
	e.SetBlocked(blocked)
	appLog.Debug("state restored", "path", path, "selected", len(selected), "blocked", len(blocked))

	return &app{cfg: cfg, params: p, engine: e, store: st}, nil
}

func (a *app) save(ctx context.Context) error {
	return a.store.SaveSelection(ctx, a.engine.Selected())
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) sources() []ics.Source {
	out := make([]ics.Source, 0, len(a.cfg.Feeds))
	for _, f := range a.cfg.Feeds {
		out = append(out, ics.Source{ID: f.ID, URL: f.URL})
	}
	return out
}

func (a *app) expandConfig() (ics.ExpandConfig, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return ics.ExpandConfig{}, err
	}
	return ics.ExpandConfig{From: a.params.Start, To: a.params.End, Location: loc}, nil
}

// fetchBlocked collects the days covered by the configured feeds and stores
// them. When feeds failed and nothing was collected the previous blocked
// days are kept and ok is false.
func (a *app) fetchBlocked(ctx context.Context, f *ics.Fetcher) (days []model.CalendarDate, ok bool, err error) {
	sources := a.sources()
	cfg, err := a.expandConfig()
	if err != nil {
		return nil, false, err
	}
	days, errs := f.Blocked(ctx, sources, cfg)
	for _, e := range errs {
		appLog.Error("feed refresh", e)
	}
	if len(errs) > 0 && len(days) == 0 {
		return nil, false, nil
	}
	if err := a.store.SaveBlocked(ctx, days); err != nil {
		return nil, false, err
	}
	return days, true, nil
}

func (a *app) fetcher() (*ics.Fetcher, error) {
	dir, err := a.cfg.ResolvedCacheDir()
	if err != nil {
		return nil, err
	}
	return ics.NewFetcher(dir, nil), nil
}

// parseDates parses YYYY-MM-DD arguments.
func parseDates(args []string) ([]model.CalendarDate, error) {
	out := make([]model.CalendarDate, 0, len(args))
	for _, s := range args {
		d, err := model.ParseDate(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
