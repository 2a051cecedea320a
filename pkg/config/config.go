// Package config loads and saves the application configuration.
// Configuration lives in a JSON file, with environment overrides for
// secrets so API keys and passwords stay out of version control.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the complete application configuration.
type Config struct {
	Observer Observer `json:"observer"`
	Tracking Tracking `json:"tracking"`
	Source   Source   `json:"source"`
	Alerts   Alerts   `json:"alerts"`
	Database Database `json:"database"`
}

// Observer is the fixed ground location the radar is centered on.
type Observer struct {
	// Name is a friendly identifier for this location
	Name string `json:"name"`

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64 `json:"latitude"`

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64 `json:"longitude"`
}

// Tracking configures the polling engine.
type Tracking struct {
	// RadiusKm is the tracking radius in kilometers
	RadiusKm float64 `json:"radius_km"`

	// DisplayRadiusKm is the distance mapped to the radar's outer edge.
	// 0 means "same as the tracking radius".
	DisplayRadiusKm float64 `json:"display_radius_km"`

	// IntervalSeconds is how often to poll the data source
	IntervalSeconds float64 `json:"interval_seconds"`

	// TimeoutSeconds bounds each fetch call; 0 derives it from the interval
	TimeoutSeconds float64 `json:"timeout_seconds"`

	// Highlights are callsigns to flag on the radar and in alerts
	Highlights []string `json:"highlights"`
}

// Source selects and configures the aircraft data provider.
type Source struct {
	// Type is "opensky", "adsbexchange" or "mock"
	Type string `json:"type"`

	// BaseURL overrides the provider's default endpoint (mainly for tests)
	BaseURL string `json:"base_url,omitempty"`

	// Username and Password authenticate against OpenSky (optional)
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// APIKey authenticates against ADS-B Exchange
	APIKey string `json:"api_key,omitempty"`

	// RequestsPerMinute bounds the client-side call rate (0 = provider default)
	RequestsPerMinute int `json:"requests_per_minute,omitempty"`

	// MockAircraft is the fleet size for the synthetic source
	MockAircraft int `json:"mock_aircraft,omitempty"`

	// MockSeed fixes the synthetic source's random stream (0 = time-based)
	MockSeed int64 `json:"mock_seed,omitempty"`
}

// Alerts configures the alert sinks.
type Alerts struct {
	// Bell rings the terminal bell on new aircraft
	Bell bool `json:"bell"`

	// Log writes one structured log line per alert event
	Log bool `json:"log"`
}

// Database contains the optional alert-log database settings.
type Database struct {
	// Enabled turns on alert persistence
	Enabled bool `json:"enabled"`

	// Host is the database server hostname
	Host string `json:"host"`

	// Port is the database server port
	Port int `json:"port"`

	// Database is the database name
	Database string `json:"database"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication (prefer the environment override)
	Password string `json:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns"`

	// RetentionDays is how long stored alert events are kept before the
	// periodic sweep removes them; 0 disables the sweep
	RetentionDays int `json:"retention_days"`
}

// Load reads configuration from a JSON file. If the file doesn't exist,
// returns the default configuration.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvironmentOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	return &cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults: the
// synthetic source around Zurich airport, so the radar works out of the
// box without credentials.
func DefaultConfig() *Config {
	return &Config{
		Observer: Observer{
			Name:      "home",
			Latitude:  47.4582,
			Longitude: 8.5555,
		},
		Tracking: Tracking{
			RadiusKm:        25.0,
			IntervalSeconds: 5.0,
		},
		Source: Source{
			Type:         "mock",
			MockAircraft: 20,
		},
		Alerts: Alerts{
			Bell: true,
			Log:  true,
		},
		Database: Database{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "skywatch",
			Username:      "skywatch",
			SSLMode:       "disable",
			MaxOpenConns:  10,
			MaxIdleConns:  2,
			RetentionDays: 7,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides.
// This keeps credentials out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if apiKey := os.Getenv("SKYWATCH_API_KEY"); apiKey != "" {
		c.Source.APIKey = apiKey
	}
	if username := os.Getenv("SKYWATCH_SOURCE_USERNAME"); username != "" {
		c.Source.Username = username
	}
	if password := os.Getenv("SKYWATCH_SOURCE_PASSWORD"); password != "" {
		c.Source.Password = password
	}
	if dbPassword := os.Getenv("SKYWATCH_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
}
