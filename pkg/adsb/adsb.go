// Package adsb defines the data source contract the tracking engine polls,
// plus concrete clients for online ADS-B providers and a synthetic traffic
// generator. All position data is in WGS84 and metric units.
package adsb

import (
	"context"
	"time"

	"github.com/skywatchers/skywatch/pkg/geo"
)

// Aircraft is one raw position report from a data source.
type Aircraft struct {
	// ICAO is the unique 24-bit ICAO aircraft address (e.g., "a12345")
	ICAO string

	// Callsign is the flight number or aircraft registration (may be empty)
	Callsign string

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64

	// Altitude in meters above mean sea level
	// Note: some aircraft report geometric altitude, others barometric
	Altitude float64

	// GroundSpeed in km/h
	GroundSpeed float64

	// Track is the ground track (heading) in degrees (0-359)
	// 0 = North, 90 = East, 180 = South, 270 = West
	Track float64

	// VerticalRate in m/s (positive = climbing, negative = descending)
	VerticalRate float64

	// ObservedAt is the timestamp of the position report
	ObservedAt time.Time
}

// Position returns the aircraft's location as a geo.Point.
func (a Aircraft) Position() geo.Point {
	return geo.Point{Latitude: a.Latitude, Longitude: a.Longitude}
}

// DataSource is the interface all aircraft data providers implement.
// This abstraction allows switching between online services (OpenSky,
// ADS-B Exchange, etc.) and the synthetic generator used for demos and
// tests.
//
// Fetch failures are reported as *Error values so callers can distinguish
// timeouts, transport problems, auth rejections and malformed payloads.
type DataSource interface {
	// FetchInRadius returns all currently tracked aircraft within radiusKm
	// of center.
	FetchInRadius(ctx context.Context, center geo.Point, radiusKm float64) ([]Aircraft, error)

	// FetchByID returns a specific aircraft by its ICAO address.
	// Fails with a KindNotFound error if the aircraft is not currently
	// tracked by the provider.
	FetchByID(ctx context.Context, icao string) (*Aircraft, error)

	// Close cleanly shuts down the data source connection.
	Close() error
}
