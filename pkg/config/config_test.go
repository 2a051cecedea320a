package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies the out-of-the-box configuration works
// without credentials.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Source.Type != "mock" {
		t.Errorf("Expected mock source by default, got %s", cfg.Source.Type)
	}
	if cfg.Source.MockAircraft != 20 {
		t.Errorf("Expected 20 mock aircraft, got %d", cfg.Source.MockAircraft)
	}
	if cfg.Tracking.RadiusKm <= 0 {
		t.Errorf("Expected positive tracking radius, got %v", cfg.Tracking.RadiusKm)
	}
	if cfg.Tracking.IntervalSeconds <= 0 {
		t.Errorf("Expected positive poll interval, got %v", cfg.Tracking.IntervalSeconds)
	}
	if cfg.Database.Enabled {
		t.Error("Expected database persistence disabled by default")
	}
	if !cfg.Alerts.Bell || !cfg.Alerts.Log {
		t.Error("Expected bell and log alerts enabled by default")
	}
}

// TestLoadMissingFile verifies a missing config file falls back to
// defaults rather than failing.
func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.Type != "mock" {
		t.Errorf("Expected default config, got source %s", cfg.Source.Type)
	}
}

// TestSaveLoadRoundTrip verifies Save followed by Load preserves values.
func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "config.json")

	cfg := DefaultConfig()
	cfg.Observer.Latitude = 51.4700
	cfg.Observer.Longitude = -0.4543
	cfg.Tracking.RadiusKm = 10
	cfg.Tracking.Highlights = []string{"BAW123"}
	cfg.Source.Type = "opensky"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Observer.Latitude != 51.4700 {
		t.Errorf("Latitude = %v, want 51.4700", loaded.Observer.Latitude)
	}
	if loaded.Source.Type != "opensky" {
		t.Errorf("Source type = %s, want opensky", loaded.Source.Type)
	}
	if len(loaded.Tracking.Highlights) != 1 || loaded.Tracking.Highlights[0] != "BAW123" {
		t.Errorf("Highlights = %v, want [BAW123]", loaded.Tracking.Highlights)
	}
}

// TestLoadMalformedFile verifies invalid JSON fails loudly.
func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed config")
	}
}

// TestEnvironmentOverrides verifies credentials can be injected via the
// environment.
func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SKYWATCH_API_KEY", "env-key")
	t.Setenv("SKYWATCH_DB_PASSWORD", "env-pass")

	path := filepath.Join(t.TempDir(), "config.json")
	data, _ := json.Marshal(DefaultConfig())
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env override", cfg.Source.APIKey)
	}
	if cfg.Database.Password != "env-pass" {
		t.Errorf("DB password = %q, want env override", cfg.Database.Password)
	}
}
