package geo

import (
	"errors"
	"math"
	"testing"
)

// TestDistance tests great-circle distance against known reference values.
func TestDistance(t *testing.T) {
	tests := []struct {
		name      string
		from      Point
		to        Point
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "Same point",
			from:      Point{Latitude: 47.4582, Longitude: 8.5555},
			to:        Point{Latitude: 47.4582, Longitude: 8.5555},
			wantKm:    0.0,
			tolerance: 0.001,
		},
		{
			name: "One degree of latitude",
			from: Point{Latitude: 40.0, Longitude: -74.0},
			to:   Point{Latitude: 41.0, Longitude: -74.0},
			// One degree of latitude on a 6371 km sphere
			wantKm:    6371.0 * math.Pi / 180.0,
			tolerance: 0.01,
		},
		{
			name: "Zurich airport to Bern",
			from: Point{Latitude: 47.4582, Longitude: 8.5555},
			to:   Point{Latitude: 46.9480, Longitude: 7.4474},
			// Reference value from geodesic calculators, within haversine's
			// spherical-model error
			wantKm:    100.4,
			tolerance: 0.5,
		},
		{
			name:      "Across the antimeridian",
			from:      Point{Latitude: 0.0, Longitude: 179.5},
			to:        Point{Latitude: 0.0, Longitude: -179.5},
			wantKm:    6371.0 * math.Pi / 180.0,
			tolerance: 0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.from, tt.to)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("Distance() = %.4f km, want %.4f (±%.4f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

// TestDistanceSymmetry verifies d(a,b) == d(b,a).
func TestDistanceSymmetry(t *testing.T) {
	a := Point{Latitude: 47.4582, Longitude: 8.5555}
	b := Point{Latitude: 48.1351, Longitude: 11.5820}

	if d1, d2 := Distance(a, b), Distance(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Errorf("Distance not symmetric: %v vs %v", d1, d2)
	}
}

// TestBearing tests initial bearing for the four cardinal directions.
func TestBearing(t *testing.T) {
	origin := Point{Latitude: 47.0, Longitude: 8.0}

	tests := []struct {
		name      string
		to        Point
		want      float64
		tolerance float64
	}{
		{"North", Point{Latitude: 48.0, Longitude: 8.0}, 0.0, 0.01},
		{"East", Point{Latitude: 47.0, Longitude: 9.0}, 90.0, 0.5},
		{"South", Point{Latitude: 46.0, Longitude: 8.0}, 180.0, 0.01},
		{"West", Point{Latitude: 47.0, Longitude: 7.0}, 270.0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(origin, tt.to)
			diff := math.Abs(got - tt.want)
			if diff > 180 {
				diff = 360 - diff
			}
			if diff > tt.tolerance {
				t.Errorf("Bearing() = %.3f, want %.3f (±%.3f)", got, tt.want, tt.tolerance)
			}
			if got < 0 || got >= 360 {
				t.Errorf("Bearing() = %.3f, outside [0, 360)", got)
			}
		})
	}
}

// TestWithinRadius verifies the containment test matches the distance
// comparison exactly, including at the boundary.
func TestWithinRadius(t *testing.T) {
	observer := Point{Latitude: 47.4582, Longitude: 8.5555}

	tests := []struct {
		name     string
		point    Point
		radiusKm float64
		want     bool
	}{
		{"Well inside", Point{Latitude: 47.47, Longitude: 8.56}, 5.0, true},
		{"Well outside", Point{Latitude: 48.5, Longitude: 8.5555}, 5.0, false},
		{"Same point zero radius", observer, 0.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinRadius(observer, tt.point, tt.radiusKm); got != tt.want {
				t.Errorf("WithinRadius() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("Inclusive at exact boundary", func(t *testing.T) {
		point := Point{Latitude: 47.48, Longitude: 8.60}
		radius := Distance(observer, point)
		if !WithinRadius(observer, point, radius) {
			t.Error("WithinRadius() = false at distance == radius, want true")
		}
		if WithinRadius(observer, point, radius-1e-9) {
			t.Error("WithinRadius() = true just beyond radius, want false")
		}
	})
}

// TestNormalizeBearing tests bearing normalization edge cases.
func TestNormalizeBearing(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{360, 0},
		{-90, 270},
		{450, 90},
		{-720, 0},
	}

	for _, tt := range tests {
		if got := NormalizeBearing(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeBearing(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestPointValidate tests coordinate range validation.
func TestPointValidate(t *testing.T) {
	tests := []struct {
		name    string
		point   Point
		wantErr bool
	}{
		{"Valid", Point{Latitude: 47.4582, Longitude: 8.5555}, false},
		{"North pole", Point{Latitude: 90, Longitude: 0}, false},
		{"Antimeridian", Point{Latitude: 0, Longitude: -180}, false},
		{"Latitude too high", Point{Latitude: 90.01, Longitude: 0}, true},
		{"Latitude too low", Point{Latitude: -91, Longitude: 0}, true},
		{"Longitude too high", Point{Latitude: 0, Longitude: 180.5}, true},
		{"Longitude NaN", Point{Latitude: 0, Longitude: math.NaN()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidCoordinate) {
				t.Errorf("Validate() error = %v, want ErrInvalidCoordinate", err)
			}
		})
	}
}

// TestClosestApproach tests the approach estimate for head-on,
// perpendicular and receding tracks.
func TestClosestApproach(t *testing.T) {
	observer := Point{Latitude: 47.0, Longitude: 8.0}
	// Aircraft due east of the observer
	aircraft := Point{Latitude: 47.0, Longitude: 8.5}
	currentKm := Distance(observer, aircraft)

	t.Run("Head-on", func(t *testing.T) {
		// Flying due west, straight at the observer
		ap := ClosestApproach(observer, aircraft, 500.0, 270.0)
		if !ap.Approaching {
			t.Fatal("expected approaching aircraft")
		}
		if ap.ClosestKm > 1.0 {
			t.Errorf("ClosestKm = %.2f, want near 0", ap.ClosestKm)
		}
		wantHours := currentKm / 500.0
		gotHours := ap.TimeToClosest.Hours()
		if math.Abs(gotHours-wantHours) > 0.02 {
			t.Errorf("TimeToClosest = %.3fh, want %.3fh", gotHours, wantHours)
		}
	})

	t.Run("Receding", func(t *testing.T) {
		// Flying due east, directly away
		ap := ClosestApproach(observer, aircraft, 500.0, 90.0)
		if ap.Approaching {
			t.Error("expected receding aircraft")
		}
		if math.Abs(ap.ClosestKm-currentKm) > 0.01 {
			t.Errorf("ClosestKm = %.2f, want current range %.2f", ap.ClosestKm, currentKm)
		}
	})

	t.Run("Stationary", func(t *testing.T) {
		ap := ClosestApproach(observer, aircraft, 0, 0)
		if ap.Approaching {
			t.Error("expected non-approaching for zero speed")
		}
	})
}
