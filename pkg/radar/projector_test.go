package radar

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/skywatchers/skywatch/pkg/tracking"
)

func snapshotAt(icao, callsign string, distanceKm, bearing float64) tracking.Snapshot {
	return tracking.Snapshot{
		ICAO:       icao,
		Callsign:   callsign,
		DistanceKm: distanceKm,
		BearingDeg: bearing,
		ObservedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// TestProjectScenario checks the reference scenario: an aircraft 2 km out
// at bearing 90° on a 5 km display projects to (90°, 0.4).
func TestProjectScenario(t *testing.T) {
	table := tracking.Table{
		"a": snapshotAt("a", "SWR1", 2.0, 90.0),
	}

	model := Project(table, 5.0, nil)

	if len(model.Contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(model.Contacts))
	}
	c := model.Contacts[0]
	if c.ID != "a" {
		t.Errorf("ID = %s, want a", c.ID)
	}
	if math.Abs(c.AngleDegrees-90.0) > 1e-9 {
		t.Errorf("AngleDegrees = %v, want 90", c.AngleDegrees)
	}
	if math.Abs(c.NormalizedRadius-0.4) > 1e-9 {
		t.Errorf("NormalizedRadius = %v, want 0.4", c.NormalizedRadius)
	}
}

// TestProjectBoundary verifies an aircraft exactly at the display radius
// is kept with NormalizedRadius == 1.0 and one just beyond is omitted.
func TestProjectBoundary(t *testing.T) {
	const display = 5.0
	table := tracking.Table{
		"edge":   snapshotAt("edge", "SWR1", display, 0),
		"beyond": snapshotAt("beyond", "DLH2", display+1e-6, 0),
	}

	model := Project(table, display, nil)

	if len(model.Contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(model.Contacts))
	}
	c := model.Contacts[0]
	if c.ID != "edge" {
		t.Errorf("kept contact = %s, want edge", c.ID)
	}
	if c.NormalizedRadius != 1.0 {
		t.Errorf("NormalizedRadius = %v, want exactly 1.0", c.NormalizedRadius)
	}
}

// TestProjectOrdering verifies contacts are sorted by distance ascending.
func TestProjectOrdering(t *testing.T) {
	table := tracking.Table{
		"far":  snapshotAt("far", "", 4.5, 10),
		"near": snapshotAt("near", "", 0.5, 20),
		"mid":  snapshotAt("mid", "", 2.0, 30),
	}

	model := Project(table, 5.0, nil)

	if len(model.Contacts) != 3 {
		t.Fatalf("contacts = %d, want 3", len(model.Contacts))
	}
	if !sort.SliceIsSorted(model.Contacts, func(i, j int) bool {
		return model.Contacts[i].DistanceKm < model.Contacts[j].DistanceKm
	}) {
		t.Errorf("contacts not sorted by distance: %+v", model.Contacts)
	}
	if model.Contacts[0].ID != "near" || model.Contacts[2].ID != "far" {
		t.Errorf("order = [%s %s %s], want [near mid far]",
			model.Contacts[0].ID, model.Contacts[1].ID, model.Contacts[2].ID)
	}
}

// TestProjectHighlights verifies the highlight flag follows the
// normalized callsign set.
func TestProjectHighlights(t *testing.T) {
	table := tracking.Table{
		"a": snapshotAt("a", "SWR330", 1.0, 0),
		"b": snapshotAt("b", "DLH8PX", 2.0, 0),
		"c": snapshotAt("c", "", 3.0, 0),
	}
	highlights := tracking.NewHighlightSet("swr330")

	model := Project(table, 5.0, highlights)

	flagged := make(map[string]bool)
	for _, c := range model.Contacts {
		flagged[c.ID] = c.Highlighted
	}
	if !flagged["a"] {
		t.Error("SWR330 not highlighted")
	}
	if flagged["b"] || flagged["c"] {
		t.Error("unexpected highlight on non-matching contact")
	}
}

// TestProjectEmptyAndDegenerate covers the empty table and a
// non-positive display radius.
func TestProjectEmptyAndDegenerate(t *testing.T) {
	if model := Project(nil, 5.0, nil); len(model.Contacts) != 0 {
		t.Errorf("empty table produced %d contacts", len(model.Contacts))
	}

	table := tracking.Table{"a": snapshotAt("a", "", 1.0, 0)}
	if model := Project(table, 0, nil); len(model.Contacts) != 0 {
		t.Errorf("zero display radius produced %d contacts", len(model.Contacts))
	}
}
