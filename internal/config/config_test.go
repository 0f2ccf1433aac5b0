package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"leaderflow/internal/layout"
)

func TestLoad_CreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen != defaultListen || !cfg.Seed {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perms = %o, want 600", perm)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if again.Bounds() != layout.DefaultBounds() {
		t.Errorf("Bounds() = %+v, want defaults", again.Bounds())
	}
}

func TestLoad_PartialFileIsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
timezone: UTC
grid:
  start_hour: 6
  hour_height: -5
overlap: GREEDY
month_visible_events: 0
ics:
  - url: https://example.com/team.ics
    name: team
    type: business-trip
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	b := cfg.Bounds()
	if b.StartHour != 6 || b.EndHour != layout.DefaultEndHour || b.UnitHeight != layout.DefaultUnitHeight {
		t.Errorf("Bounds() = %+v", b)
	}
	if cfg.Strategy() != layout.Greedy {
		t.Errorf("Strategy() = %q, want greedy", cfg.Strategy())
	}
	if cfg.MonthVisibleEvents != layout.DefaultVisiblePerDay {
		t.Errorf("MonthVisibleEvents = %d", cfg.MonthVisibleEvents)
	}
	if cfg.Listen != defaultListen {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if len(cfg.ICS) != 1 || cfg.ICS[0].SourceID() != "team" {
		t.Errorf("ICS = %+v", cfg.ICS)
	}
	if cfg.Location().String() != "UTC" {
		t.Errorf("Location() = %v", cfg.Location())
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad yaml", "listen: [", "parse"},
		{"bad timezone", "timezone: Mars/Olympus", "timezone"},
		{"missing url", "ics:\n  - id: a\n", "url is empty"},
		{"duplicate id", "ics:\n  - id: a\n    url: http://x/a.ics\n  - id: a\n    url: http://x/b.ics\n", "duplicate id"},
		{"bad type", "ics:\n  - id: a\n    url: http://x/a.ics\n    type: party\n", "unknown type"},
	}
	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(tt.body), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: Load() error = %v, want containing %q", tt.name, err, tt.want)
		}
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.BasicAuth = &BasicAuthConfig{Username: "chief", Password: "s3cret"}
	cfg.ICS = append(cfg.ICS, ICSConfig{ID: "work", URL: "https://example.com/w.ics", Type: "meeting"})

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.BasicAuth == nil || got.BasicAuth.Username != "chief" {
		t.Errorf("BasicAuth = %+v", got.BasicAuth)
	}
	if len(got.ICS) != 1 || got.ICS[0].ID != "work" {
		t.Errorf("ICS = %+v", got.ICS)
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".leaderflow-config-*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestSave_Errors(t *testing.T) {
	if err := Save("", DefaultConfig()); err == nil {
		t.Error("Save(empty path) should fail")
	}
	if err := Save(filepath.Join(t.TempDir(), "c.yaml"), nil); err == nil {
		t.Error("Save(nil) should fail")
	}
}
