package geo

import (
	"math"
	"time"
)

// Approach describes an aircraft's closest approach to the observer,
// assuming it holds its current ground track and speed.
type Approach struct {
	// ClosestKm is the estimated minimum distance in kilometers
	ClosestKm float64

	// TimeToClosest is the duration until closest approach
	// (zero when the aircraft is not approaching)
	TimeToClosest time.Duration

	// Approaching is true if the aircraft is currently closing on the observer
	Approaching bool
}

// ClosestApproach estimates when an aircraft will be closest to the observer.
// speedKmh is ground speed in km/h, trackDegrees the ground track in degrees.
// The estimate assumes straight-line flight, which is reasonable over the
// short ranges a radar view covers.
func ClosestApproach(observer, aircraft Point, speedKmh, trackDegrees float64) Approach {
	currentKm := Distance(observer, aircraft)

	if speedKmh <= 0 {
		return Approach{ClosestKm: currentKm}
	}

	// Relative angle between the aircraft's track and the bearing back
	// to the observer. 0 = flying straight at the observer.
	bearingToObserver := Bearing(aircraft, observer)
	relativeAngle := math.Abs(trackDegrees - bearingToObserver)
	if relativeAngle > 180 {
		relativeAngle = 360 - relativeAngle
	}
	relativeAngleRad := relativeAngle * DegreesToRadians

	// Component of velocity toward the observer (km/h)
	velocityToward := speedKmh * math.Cos(relativeAngleRad)
	if velocityToward < 0.1 {
		// Moving away or perpendicular: current range is the minimum
		return Approach{ClosestKm: currentKm}
	}

	// Closest range is the cross-track distance; time to reach it is the
	// along-track distance over ground speed.
	closestKm := currentKm * math.Sin(relativeAngleRad)
	timeHours := currentKm * math.Cos(relativeAngleRad) / speedKmh

	return Approach{
		ClosestKm:     closestKm,
		TimeToClosest: time.Duration(timeHours * float64(time.Hour)),
		Approaching:   true,
	}
}
