package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"leaderflow/internal/layout"
	appLog "leaderflow/internal/log"
	"leaderflow/internal/model"
)

// ICSConfig describes a single subscribed calendar feed.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier; it becomes the SourceID of every event
	// imported from this feed.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// Type is the event type assigned to imported events (e.g. "meeting").
	Type string `yaml:"type" json:"type"`
}

// SourceID returns ID, falling back to Name and then URL.
func (c ICSConfig) SourceID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Name != "":
		return c.Name
	default:
		return c.URL
	}
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// GridConfig is the week grid's visible window and scale.
type GridConfig struct {
	StartHour      int     `yaml:"start_hour" json:"start_hour"`
	EndHour        int     `yaml:"end_hour" json:"end_hour"`
	HourHeight     float64 `yaml:"hour_height" json:"hour_height"`
	MinEventHeight float64 `yaml:"min_event_height" json:"min_event_height"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone all days and events are shown in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Grid GridConfig `yaml:"grid" json:"grid"`

	// MonthVisibleEvents caps events per month cell before "+N more".
	MonthVisibleEvents int `yaml:"month_visible_events" json:"month_visible_events"`

	// Overlap selects the column strategy: "per-event" or "greedy".
	Overlap string `yaml:"overlap" json:"overlap"`

	// RefreshCron is a cron schedule (e.g. "*/15 * * * *") for ICS refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays / BackfillDays bound the recurrence expansion window
	// around now.
	HorizonDays  int `yaml:"horizon_days" json:"horizon_days"`
	BackfillDays int `yaml:"backfill_days" json:"backfill_days"`

	// ShowAllDay keeps whole-day feed events; when false they are dropped
	// on import.
	ShowAllDay bool `yaml:"show_all_day" json:"show_all_day"`

	// CacheDir stores ICS bodies and their HTTP validators.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// Seed loads the demo agenda at startup.
	Seed bool `yaml:"seed" json:"seed"`

	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if set, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "Asia/Ho_Chi_Minh"
	defaultRefreshCron = "*/15 * * * *"
	defaultHorizonDays = 60
	defaultBackfill    = 30
	defaultCacheDir    = "./var/ics-cache"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	b := layout.DefaultBounds()
	return &Config{
		Listen:   defaultListen,
		Timezone: defaultTimezone,
		LogLevel: "info",
		Grid: GridConfig{
			StartHour:      b.StartHour,
			EndHour:        b.EndHour,
			HourHeight:     b.UnitHeight,
			MinEventHeight: b.MinHeight,
		},
		MonthVisibleEvents: layout.DefaultVisiblePerDay,
		Overlap:            string(layout.PerEvent),
		RefreshCron:        defaultRefreshCron,
		HorizonDays:        defaultHorizonDays,
		BackfillDays:       defaultBackfill,
		ShowAllDay:         true,
		CacheDir:           defaultCacheDir,
		Seed:               true,
		ICS:                []ICSConfig{},
	}
}

// Normalize fills in missing or out-of-range values so that partially
// written files still produce a usable grid.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if _, ok := appLog.ParseLevel(c.LogLevel); !ok {
		c.LogLevel = def.LogLevel
	}

	g := &c.Grid
	if g.StartHour < 0 || g.StartHour > 23 {
		g.StartHour = def.Grid.StartHour
	}
	if g.EndHour < g.StartHour || g.EndHour > 23 {
		g.EndHour = def.Grid.EndHour
		if g.EndHour < g.StartHour {
			g.EndHour = g.StartHour
		}
	}
	if g.HourHeight <= 0 {
		g.HourHeight = def.Grid.HourHeight
	}
	if g.MinEventHeight <= 0 {
		g.MinEventHeight = def.Grid.MinEventHeight
	}

	if c.MonthVisibleEvents <= 0 {
		c.MonthVisibleEvents = def.MonthVisibleEvents
	}
	if _, err := layout.ParseStrategy(c.Overlap); err != nil || c.Overlap == "" {
		c.Overlap = def.Overlap
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = def.HorizonDays
	}
	if c.BackfillDays < 0 {
		c.BackfillDays = def.BackfillDays
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// Validate reports problems Normalize cannot repair.
func (c *Config) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	seen := make(map[string]bool)
	for i, src := range c.ICS {
		if src.URL == "" {
			errs = append(errs, fmt.Errorf("ics[%d]: url is empty", i))
			continue
		}
		id := src.SourceID()
		if seen[id] {
			errs = append(errs, fmt.Errorf("ics[%d]: duplicate id %q", i, id))
		}
		seen[id] = true
		if _, err := model.ParseEventType(src.Type); err != nil {
			errs = append(errs, fmt.Errorf("ics[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Bounds converts the grid section into layout bounds.
func (c *Config) Bounds() layout.Bounds {
	return layout.Bounds{
		StartHour:  c.Grid.StartHour,
		EndHour:    c.Grid.EndHour,
		UnitHeight: c.Grid.HourHeight,
		MinHeight:  c.Grid.MinEventHeight,
	}
}

// Strategy returns the configured overlap strategy.
func (c *Config) Strategy() layout.Strategy {
	s, err := layout.ParseStrategy(c.Overlap)
	if err != nil {
		return layout.PerEvent
	}
	return s
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written there with
//     0600 perms and returned.
//   - Otherwise the YAML is unmarshalled, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Still hand back the defaults so the caller can decide.
				return cfg, err
			}
			appLog.Info("wrote default config", "path", path)
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	return cfg, nil
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

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".leaderflow-config-*.tmp")
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

func (c *Config) Save(path string) error {
	return Save(path, c)
}
