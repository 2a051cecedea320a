// scope-board is a tview dashboard showing the live contact table and
// alert feed side by side. It is the "ops console" counterpart to the
// skywatch radar scope.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/skywatchers/skywatch/pkg/adsb"
	"github.com/skywatchers/skywatch/pkg/config"
	"github.com/skywatchers/skywatch/pkg/tracking"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to config file")
	lat := flag.Float64("lat", 0, "Observer latitude override")
	lon := flag.Float64("lon", 0, "Observer longitude override")
	radius := flag.Float64("radius", 0, "Tracking radius in km override")
	sourceType := flag.String("source", "", "Data source override (opensky|adsbexchange|mock)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *lat != 0 {
		cfg.Observer.Latitude = *lat
	}
	if *lon != 0 {
		cfg.Observer.Longitude = *lon
	}
	if *radius > 0 {
		cfg.Tracking.RadiusKm = *radius
	}
	if *sourceType != "" {
		cfg.Source.Type = *sourceType
	}

	source, err := newSource(cfg)
	if err != nil {
		log.Fatalf("Failed to create data source: %v", err)
	}
	defer source.Close()

	observer, err := tracking.NewObserver(cfg.Observer.Latitude, cfg.Observer.Longitude, cfg.Tracking.RadiusKm)
	if err != nil {
		log.Fatalf("Invalid observer: %v", err)
	}

	sched := tracking.NewScheduler(tracking.SchedulerConfig{
		Source:   source,
		Manager:  tracking.NewManager(observer),
		Interval: time.Duration(cfg.Tracking.IntervalSeconds * float64(time.Second)),
		Timeout:  time.Duration(cfg.Tracking.TimeoutSeconds * float64(time.Second)),
	})

	app := NewApp(cfg, sched)
	if err := app.Run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func newSource(cfg *config.Config) (adsb.DataSource, error) {
	switch cfg.Source.Type {
	case "opensky", "":
		return adsb.NewOpenSkyClient(cfg.Source.BaseURL, cfg.Source.Username, cfg.Source.Password), nil
	case "adsbexchange":
		if cfg.Source.APIKey == "" {
			return nil, fmt.Errorf("adsbexchange source requires an API key (set SKYWATCH_API_KEY)")
		}
		return adsb.NewADSBExchangeClient(cfg.Source.BaseURL, cfg.Source.APIKey, cfg.Source.RequestsPerMinute), nil
	case "mock":
		count := cfg.Source.MockAircraft
		if count <= 0 {
			count = 20
		}
		return adsb.NewMockSource(count, cfg.Source.MockSeed), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Source.Type)
	}
}
