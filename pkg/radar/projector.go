// Package radar projects a tracking table into polar render coordinates
// ready for a display layer to draw. The projection is pure computation;
// drawing primitives live with the consumers.
package radar

import (
	"sort"

	"github.com/skywatchers/skywatch/pkg/tracking"
)

// Contact is one renderable aircraft in polar coordinates around the
// observer.
type Contact struct {
	// ID is the aircraft identifier
	ID string

	// Callsign may be empty
	Callsign string

	// AngleDegrees is the bearing from the observer, [0, 360)
	AngleDegrees float64

	// NormalizedRadius is distance / display radius, clamped to [0, 1]
	NormalizedRadius float64

	// DistanceKm is the real distance, for labels and info panels
	DistanceKm float64

	// AltitudeM is the altitude in meters MSL
	AltitudeM float64

	// GroundSpeedKmh and TrackDegrees feed velocity vector drawing
	GroundSpeedKmh float64
	TrackDegrees   float64

	// Highlighted marks callsigns the operator flagged
	Highlighted bool
}

// Model is the renderable radar picture for one poll cycle. Contacts are
// sorted by distance ascending so closer aircraft are drawn last and end
// up on top when labels overlap.
type Model struct {
	// DisplayRadiusKm is the distance mapped to the outer radar edge
	DisplayRadiusKm float64

	Contacts []Contact
}

// Project converts a tracking table into a render model. Aircraft beyond
// displayRadiusKm are omitted from the model (they remain tracked); one
// exactly at the boundary projects to NormalizedRadius == 1.0.
func Project(table tracking.Table, displayRadiusKm float64, highlights tracking.HighlightSet) Model {
	model := Model{
		DisplayRadiusKm: displayRadiusKm,
		Contacts:        make([]Contact, 0, len(table)),
	}
	if displayRadiusKm <= 0 {
		return model
	}

	for _, snap := range table {
		if snap.DistanceKm > displayRadiusKm {
			continue
		}
		normalized := snap.DistanceKm / displayRadiusKm
		if normalized > 1 {
			normalized = 1
		}
		model.Contacts = append(model.Contacts, Contact{
			ID:               snap.ICAO,
			Callsign:         snap.Callsign,
			AngleDegrees:     snap.BearingDeg,
			NormalizedRadius: normalized,
			DistanceKm:       snap.DistanceKm,
			AltitudeM:        snap.Altitude,
			GroundSpeedKmh:   snap.GroundSpeed,
			TrackDegrees:     snap.Track,
			Highlighted:      highlights.Contains(snap.Callsign),
		})
	}

	sort.Slice(model.Contacts, func(i, j int) bool {
		a, b := model.Contacts[i], model.Contacts[j]
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		// Stable order for equidistant contacts
		return a.ID < b.ID
	})

	return model
}
