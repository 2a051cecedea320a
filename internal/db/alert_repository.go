package db

import (
	"context"
	"fmt"
	"time"

	"github.com/skywatchers/skywatch/pkg/alert"
)

// AlertRepository stores alert events. It satisfies alert.Sink so it can
// be fanned into the dispatcher alongside the log and bell sinks.
type AlertRepository struct {
	db *DB
}

// NewAlertRepository creates a new alert repository.
func NewAlertRepository(db *DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Notify inserts the batch of events inside a single transaction.
func (r *AlertRepository) Notify(events []alert.Event) error {
	if len(events) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return r.InsertEvents(ctx, events)
}

// InsertEvents writes the events transactionally. Either the whole batch
// lands or none of it does.
func (r *AlertRepository) InsertEvents(ctx context.Context, events []alert.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO alert_events (kind, icao, callsign, distance_km, bearing_deg, raised_at)
		VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx,
			ev.Kind.String(),
			ev.ICAO,
			ev.Callsign,
			ev.DistanceKm,
			ev.BearingDeg,
			ev.At.UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert alert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit alert events: %w", err)
	}
	return nil
}

// StoredEvent is a persisted alert event row.
type StoredEvent struct {
	ID         int64
	Kind       string
	ICAO       string
	Callsign   string
	DistanceKm float64
	BearingDeg float64
	RaisedAt   time.Time
}

// RecentEvents returns the most recent events, newest first.
func (r *AlertRepository) RecentEvents(ctx context.Context, limit int) ([]StoredEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, icao, callsign, distance_km, bearing_deg, raised_at
		FROM alert_events
		ORDER BY raised_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert events: %w", err)
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var ev StoredEvent
		if err := rows.Scan(
			&ev.ID,
			&ev.Kind,
			&ev.ICAO,
			&ev.Callsign,
			&ev.DistanceKm,
			&ev.BearingDeg,
			&ev.RaisedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert events: %w", err)
	}

	return events, nil
}

// EventsForAircraft returns all stored events for a given ICAO identifier.
func (r *AlertRepository) EventsForAircraft(ctx context.Context, icao string, limit int) ([]StoredEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, icao, callsign, distance_km, bearing_deg, raised_at
		FROM alert_events
		WHERE icao = $1
		ORDER BY raised_at DESC
		LIMIT $2`, icao, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert events for %s: %w", icao, err)
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var ev StoredEvent
		if err := rows.Scan(
			&ev.ID,
			&ev.Kind,
			&ev.ICAO,
			&ev.Callsign,
			&ev.DistanceKm,
			&ev.BearingDeg,
			&ev.RaisedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert events: %w", err)
	}

	return events, nil
}
