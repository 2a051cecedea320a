// Package tracking maintains the authoritative table of aircraft currently
// visible around an observer point. A Manager turns each raw poll result
// into a fresh table plus the entered/exited/updated diff against the
// previous cycle, and a Scheduler drives the polling loop and publishes
// the results to display and alerting consumers.
package tracking

import (
	"fmt"
	"strings"
	"time"

	"github.com/skywatchers/skywatch/pkg/adsb"
	"github.com/skywatchers/skywatch/pkg/geo"
)

// Observer is the fixed ground location radar distances are measured
// from, with its tracking radius. Set once at startup.
type Observer struct {
	// Latitude in decimal degrees (-90 to +90)
	Latitude float64

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64

	// RadiusKm is the tracking radius in kilometers; always > 0
	RadiusKm float64
}

// NewObserver validates and constructs an observer point.
func NewObserver(latitude, longitude, radiusKm float64) (Observer, error) {
	o := Observer{Latitude: latitude, Longitude: longitude, RadiusKm: radiusKm}
	if err := o.Point().Validate(); err != nil {
		return Observer{}, fmt.Errorf("observer: %w", err)
	}
	if radiusKm <= 0 {
		return Observer{}, fmt.Errorf("observer: tracking radius must be > 0, got %v", radiusKm)
	}
	return o, nil
}

// Point returns the observer's location as a geo.Point.
func (o Observer) Point() geo.Point {
	return geo.Point{Latitude: o.Latitude, Longitude: o.Longitude}
}

// Snapshot is one aircraft's state as of one poll cycle, with the
// observer-relative measurements already derived. Snapshots are immutable:
// a new poll produces new instances, never in-place updates.
type Snapshot struct {
	ICAO     string
	Callsign string

	Latitude  float64
	Longitude float64

	// Altitude in meters MSL
	Altitude float64

	// GroundSpeed in km/h
	GroundSpeed float64

	// Track is the ground track in degrees
	Track float64

	// VerticalRate in m/s
	VerticalRate float64

	// ObservedAt is the timestamp of the underlying position report
	ObservedAt time.Time

	// DistanceKm is the great-circle distance from the observer
	DistanceKm float64

	// BearingDeg is the initial bearing from the observer, [0, 360)
	BearingDeg float64
}

// Position returns the snapshot's location as a geo.Point.
func (s Snapshot) Position() geo.Point {
	return geo.Point{Latitude: s.Latitude, Longitude: s.Longitude}
}

// Label returns the callsign, falling back to the ICAO address when the
// aircraft transmits no callsign.
func (s Snapshot) Label() string {
	if s.Callsign != "" {
		return s.Callsign
	}
	return s.ICAO
}

// Table maps aircraft identifiers to their most recent snapshot. Every
// entry satisfied DistanceKm <= the observer radius when it was inserted.
//
// Tables are treated as immutable once published: the Manager builds a new
// table per cycle and no consumer may modify one it receives.
type Table map[string]Snapshot

// IDs returns the identifiers currently tracked, in no particular order.
func (t Table) IDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	return ids
}

// HighlightSet is the set of callsigns the operator wants flagged.
// Callsigns are normalized (trimmed, upper-cased) on insertion and lookup.
type HighlightSet map[string]struct{}

// NewHighlightSet builds a highlight set from the given callsigns.
func NewHighlightSet(callsigns ...string) HighlightSet {
	h := make(HighlightSet, len(callsigns))
	for _, cs := range callsigns {
		if normalized := normalizeCallsign(cs); normalized != "" {
			h[normalized] = struct{}{}
		}
	}
	return h
}

// Contains reports whether the callsign is highlighted.
func (h HighlightSet) Contains(callsign string) bool {
	_, ok := h[normalizeCallsign(callsign)]
	return ok
}

func normalizeCallsign(callsign string) string {
	return strings.ToUpper(strings.TrimSpace(callsign))
}

// newSnapshot derives a snapshot from a raw record and the observer point.
func newSnapshot(rec adsb.Aircraft, observer Observer) Snapshot {
	return Snapshot{
		ICAO:         rec.ICAO,
		Callsign:     strings.TrimSpace(rec.Callsign),
		Latitude:     rec.Latitude,
		Longitude:    rec.Longitude,
		Altitude:     rec.Altitude,
		GroundSpeed:  rec.GroundSpeed,
		Track:        rec.Track,
		VerticalRate: rec.VerticalRate,
		ObservedAt:   rec.ObservedAt,
		DistanceKm:   geo.Distance(observer.Point(), rec.Position()),
		BearingDeg:   geo.Bearing(observer.Point(), rec.Position()),
	}
}
