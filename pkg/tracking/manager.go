package tracking

import (
	"sort"

	"github.com/skywatchers/skywatch/pkg/adsb"
)

// Diff is the delta between two consecutive tracking tables. The three
// sets are disjoint, sorted, and valid only for the cycle that produced
// them.
type Diff struct {
	// Entered holds identifiers present now but absent previously
	Entered []string

	// Exited holds identifiers present previously but absent now
	Exited []string

	// Updated holds identifiers present in both with a changed
	// latitude, longitude or altitude
	Updated []string
}

// Empty reports whether the diff carries no changes.
func (d Diff) Empty() bool {
	return len(d.Entered) == 0 && len(d.Exited) == 0 && len(d.Updated) == 0
}

// Manager owns the ingest step: it filters a raw poll result against the
// observer radius, derives snapshots, and diffs them against the previous
// table. Manager performs no I/O and holds no mutable state of its own;
// the scheduler owns the previous-table reference.
type Manager struct {
	observer Observer
}

// NewManager creates a manager for the given observer point.
func NewManager(observer Observer) *Manager {
	return &Manager{observer: observer}
}

// Observer returns the observer point the manager filters against.
func (m *Manager) Observer() Observer {
	return m.observer
}

// Ingest consumes one raw poll result and produces the new tracking table
// plus the diff against prev. Records outside the tracking radius are
// discarded (if previously tracked they show up as exited). When a poll
// contains duplicate identifiers the later record wins.
//
// An empty raw list means "no aircraft observed this cycle" and evicts
// everything previously tracked; callers wanting hysteresis must wrap the
// data source, not this method.
//
// Records with out-of-range coordinates are dropped; a provider glitch on
// one aircraft must not poison the cycle.
func (m *Manager) Ingest(records []adsb.Aircraft, prev Table) (Table, Diff) {
	next := make(Table, len(records))

	for _, rec := range records {
		if rec.Position().Validate() != nil || rec.ICAO == "" {
			continue
		}
		snap := newSnapshot(rec, m.observer)
		if snap.DistanceKm > m.observer.RadiusKm {
			continue
		}
		// Later records overwrite earlier ones (last-write-wins)
		next[rec.ICAO] = snap
	}

	var diff Diff
	for id, snap := range next {
		prevSnap, ok := prev[id]
		switch {
		case !ok:
			diff.Entered = append(diff.Entered, id)
		case positionChanged(prevSnap, snap):
			diff.Updated = append(diff.Updated, id)
		}
	}
	for id := range prev {
		if _, ok := next[id]; !ok {
			diff.Exited = append(diff.Exited, id)
		}
	}

	sort.Strings(diff.Entered)
	sort.Strings(diff.Exited)
	sort.Strings(diff.Updated)

	return next, diff
}

func positionChanged(a, b Snapshot) bool {
	return a.Latitude != b.Latitude || a.Longitude != b.Longitude || a.Altitude != b.Altitude
}
