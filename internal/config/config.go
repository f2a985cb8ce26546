package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"gridcal/internal/calendar"
	"gridcal/internal/model"
)

// DefaultPath is where the CLI looks for its configuration when no --config
// flag is given.
const DefaultPath = "~/.config/gridcal/config.yaml"

// FeedConfig describes a single ICS subscription whose events block days.
type FeedConfig struct {
	// URL is the ICS subscription endpoint. http(s) URLs are fetched; anything
	// else is read as a local path.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup, caching and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// HeaderConfig registers one section header variant. Months lists the
// months (1-12) that select it; a header without months is only used as
// the fallback when it is registered first.
type HeaderConfig struct {
	ID       string `yaml:"id" json:"id"`
	Template string `yaml:"template,omitempty" json:"template,omitempty"`
	Months   []int  `yaml:"months,omitempty" json:"months,omitempty"`
}

// CalendarConfig is the grid layout. Dates use YYYY-MM-DD.
type CalendarConfig struct {
	StartDate model.CalendarDate `yaml:"start_date" json:"start_date"`
	EndDate   model.CalendarDate `yaml:"end_date" json:"end_date"`

	// WeekStart is the weekday name shown in the first column ("sunday",
	// "monday", ...).
	WeekStart string `yaml:"week_start" json:"week_start"`

	// OutOfMonth is "hidden", "dimmed" or "selectable".
	OutOfMonth string `yaml:"out_of_month" json:"out_of_month"`

	// OutDates is "end_of_row" or "end_of_grid".
	OutDates string `yaml:"out_dates" json:"out_dates"`

	// Ownership picks the canonical section of a day shown twice:
	// "month", "earliest" or "latest".
	Ownership string `yaml:"ownership" json:"ownership"`

	// Selection is "multiple" or "single".
	Selection string `yaml:"selection" json:"selection"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used to decide which day is today.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is "debug", "info" or "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	Calendar CalendarConfig `yaml:"calendar" json:"calendar"`

	Headers []HeaderConfig `yaml:"headers" json:"headers"`

	// RefreshCron is a cron schedule (e.g. "*/15 * * * *") for re-fetching
	// the blocked-date feeds while serving.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Feeds are ICS subscriptions; every day they cover is blocked.
	Feeds []FeedConfig `yaml:"feeds" json:"feeds"`

	// StatePath is the sqlite database holding the selection. "~" expands
	// to the home directory.
	StatePath string `yaml:"state_path" json:"state_path"`

	// CacheDir holds fetched feed bodies and their ETags.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration covering the
// current calendar year.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	cal := &c.Calendar
	if cal.StartDate.IsZero() {
		year := time.Now().Year()
		if !cal.EndDate.IsZero() {
			year = cal.EndDate.Year
		}
		cal.StartDate = model.NewDate(year, time.January, 1)
	}
	if cal.EndDate.IsZero() {
		cal.EndDate = model.NewDate(cal.StartDate.Year, time.December, 31)
	}
	if cal.WeekStart == "" {
		cal.WeekStart = "sunday"
	}
	if cal.OutOfMonth == "" {
		cal.OutOfMonth = "dimmed"
	}
	if cal.OutDates == "" {
		cal.OutDates = "end_of_row"
	}
	if cal.Ownership == "" {
		cal.Ownership = "month"
	}
	if cal.Selection == "" {
		cal.Selection = "multiple"
	}

	if c.Headers == nil {
		c.Headers = []HeaderConfig{}
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
	for i := range c.Feeds {
		if c.Feeds[i].ID == "" {
			c.Feeds[i].ID = fmt.Sprintf("feed-%d", i+1)
		}
	}
	if c.StatePath == "" {
		c.StatePath = "~/.local/share/gridcal/state.db"
	}
	if c.CacheDir == "" {
		c.CacheDir = "~/.cache/gridcal"
	}
}

// Params converts the calendar section into engine parameters.
func (c *Config) Params() (calendar.Params, error) {
	cal := c.Calendar
	week, err := calendar.ParseWeekday(cal.WeekStart)
	if err != nil {
		return calendar.Params{}, err
	}
	oom, err := calendar.ParseOutOfMonth(cal.OutOfMonth)
	if err != nil {
		return calendar.Params{}, err
	}
	od, err := calendar.ParseOutDates(cal.OutDates)
	if err != nil {
		return calendar.Params{}, err
	}
	own, err := calendar.ParseOwnership(cal.Ownership)
	if err != nil {
		return calendar.Params{}, err
	}
	p := calendar.Params{
		Start:          cal.StartDate,
		End:            cal.EndDate,
		FirstDayOfWeek: week,
		OutOfMonth:     oom,
		OutDates:       od,
		Ownership:      own,
	}
	return p, p.Validate()
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// HeaderRegistry builds the section header registry. Without configured
// headers the engine default is used.
func (c *Config) HeaderRegistry() (*calendar.HeaderRegistry, error) {
	if len(c.Headers) == 0 {
		return calendar.DefaultHeaders(), nil
	}
	sources := make([]calendar.HeaderSource, 0, len(c.Headers))
	byMonth := make(map[time.Month]string)
	for _, h := range c.Headers {
		sources = append(sources, calendar.HeaderSource{ID: h.ID, Template: h.Template})
		for _, m := range h.Months {
			if m < 1 || m > 12 {
				return nil, fmt.Errorf("header %q: month %d out of range", h.ID, m)
			}
			byMonth[time.Month(m)] = h.ID
		}
	}
	return calendar.NewHeaderRegistry(calendar.MonthSelector(byMonth, c.Headers[0].ID), sources...)
}

// EngineOptions collects the engine options implied by the configuration.
func (c *Config) EngineOptions() ([]calendar.Option, error) {
	mode, err := calendar.ParseSelectionMode(c.Calendar.Selection)
	if err != nil {
		return nil, err
	}
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	headers, err := c.HeaderRegistry()
	if err != nil {
		return nil, err
	}
	return []calendar.Option{
		calendar.WithSelectionMode(mode),
		calendar.WithLocation(loc),
		calendar.WithHeaders(headers),
	}, nil
}

// ResolvedStatePath returns StatePath with "~" expanded.
func (c *Config) ResolvedStatePath() (string, error) {
	return homedir.Expand(c.StatePath)
}

// ResolvedCacheDir returns CacheDir with "~" expanded.
func (c *Config) ResolvedCacheDir() (string, error) {
	return homedir.Expand(c.CacheDir)
}

// Load loads configuration from the given YAML path. "~" in path is
// expanded.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is read, unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".gridcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
