// Package alert turns tracking diffs into alert events and fans them out
// to sinks (terminal bell, structured log, database). Event evaluation is
// pure; all side effects live in the sinks.
package alert

import (
	"fmt"
	"time"

	"github.com/skywatchers/skywatch/pkg/tracking"
)

// Kind identifies the type of an alert event.
type Kind int

const (
	// KindNewAircraft fires once for every aircraft entering the radius
	KindNewAircraft Kind = iota

	// KindHighlight fires, in addition to KindNewAircraft, for entering
	// aircraft whose callsign the operator flagged
	KindHighlight

	// KindSourceDegraded fires when the polling loop escalates to
	// source-unavailable after repeated failures
	KindSourceDegraded
)

// String returns a short label for the kind.
func (k Kind) String() string {
	switch k {
	case KindNewAircraft:
		return "new-aircraft"
	case KindHighlight:
		return "highlight"
	case KindSourceDegraded:
		return "source-degraded"
	default:
		return "unknown"
	}
}

// Event is one alert raised by a poll cycle. Consumers decide what a
// given kind means (sound, log line, banner).
type Event struct {
	Kind Kind

	// ICAO identifies the aircraft; empty for source-level events
	ICAO string

	// Callsign may be empty
	Callsign string

	// DistanceKm and BearingDeg locate the aircraft at alert time
	DistanceKm float64
	BearingDeg float64

	// At is when the event was raised
	At time.Time
}

// Evaluate derives the alert events for one cycle's diff. It emits one
// NewAircraft event per entered identifier, plus one Highlight event for
// each entered aircraft whose callsign is in highlights. Updated and
// exited aircraft raise nothing; exits are informational only. at is the
// cycle timestamp the events are stamped with.
//
// Evaluate is a pure function: no I/O, no side effects, no clock reads.
//
// A diff naming an identifier absent from the table it was produced with
// indicates a bug in the ingest step, not an environmental condition, and
// panics.
func Evaluate(diff tracking.Diff, table tracking.Table, highlights tracking.HighlightSet, at time.Time) []Event {
	if len(diff.Entered) == 0 {
		return nil
	}

	events := make([]Event, 0, len(diff.Entered))

	for _, id := range diff.Entered {
		snap, ok := table[id]
		if !ok {
			panic(fmt.Sprintf("alert: diff entered %q absent from tracking table", id))
		}

		events = append(events, Event{
			Kind:       KindNewAircraft,
			ICAO:       snap.ICAO,
			Callsign:   snap.Callsign,
			DistanceKm: snap.DistanceKm,
			BearingDeg: snap.BearingDeg,
			At:         at,
		})

		if highlights.Contains(snap.Callsign) {
			events = append(events, Event{
				Kind:       KindHighlight,
				ICAO:       snap.ICAO,
				Callsign:   snap.Callsign,
				DistanceKm: snap.DistanceKm,
				BearingDeg: snap.BearingDeg,
				At:         at,
			})
		}
	}

	return events
}

// Degraded builds the source-unavailable event the scheduler escalation
// publishes alongside the failed update.
func Degraded(at time.Time) Event {
	return Event{Kind: KindSourceDegraded, At: at}
}
