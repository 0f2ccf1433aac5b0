package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseAnchor(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	now := time.Date(2025, 3, 10, 20, 30, 0, 0, time.UTC) // 03:30 on the 11th in ICT

	got, err := parseAnchor("", now, loc)
	if err != nil {
		t.Fatalf("parseAnchor(\"\") error = %v", err)
	}
	if want := time.Date(2025, 3, 11, 0, 0, 0, 0, loc); !got.Equal(want) {
		t.Errorf("parseAnchor(\"\") = %v, want %v", got, want)
	}

	got, err = parseAnchor("2025-01-15", now, loc)
	if err != nil {
		t.Fatalf("parseAnchor error = %v", err)
	}
	if got.Location() != loc || got.Day() != 15 {
		t.Errorf("parseAnchor = %v", got)
	}

	if _, err := parseAnchor("15/01/2025", now, loc); err == nil {
		t.Error("parseAnchor accepted a non-ISO date")
	}
}

func TestGetEnvAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("LEADERFLOW_TEST_LISTEN=0.0.0.0:9999\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LEADERFLOW_TEST_LISTEN", "")
	os.Unsetenv("LEADERFLOW_TEST_LISTEN")

	loadDotEnv(filepath.Join(dir, "missing.env"))
	if got := getEnv("LEADERFLOW_TEST_LISTEN", "fallback"); got != "fallback" {
		t.Errorf("getEnv before load = %q, want fallback", got)
	}

	loadDotEnv(path)
	if got := getEnv("LEADERFLOW_TEST_LISTEN", "fallback"); got != "0.0.0.0:9999" {
		t.Errorf("getEnv after load = %q", got)
	}
}

func TestNewApp_WritesDefaultsAndSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderflow.yaml")

	a, err := newApp(path)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config not written: %v", err)
	}
	if n := len(a.store.List()); n != 3 {
		t.Errorf("seeded store has %d events, want 3", n)
	}
	if a.refresher != nil {
		t.Error("refresher built with no feeds configured")
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, map[string]int{"rows": 5}); err != nil {
		t.Fatal(err)
	}
	var got map[string]int
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil || got["rows"] != 5 {
		t.Errorf("printJSON output %q", buf.String())
	}
}
