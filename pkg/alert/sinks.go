package alert

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Sink consumes alert events. Sinks run outside the pure evaluation path
// and are free to do I/O; errors are reported back so callers can log
// them without stopping the poll loop.
type Sink interface {
	Notify(events []Event) error
}

// LogSink writes one structured log line per event.
type LogSink struct {
	Log logrus.FieldLogger
}

// Notify logs every event with its kind, aircraft and geometry.
func (s LogSink) Notify(events []Event) error {
	for _, ev := range events {
		entry := s.Log.WithFields(logrus.Fields{
			"kind":     ev.Kind.String(),
			"icao":     ev.ICAO,
			"callsign": ev.Callsign,
		})
		switch ev.Kind {
		case KindSourceDegraded:
			entry.Warn("data source unavailable")
		case KindHighlight:
			entry.WithFields(logrus.Fields{
				"distance_km": fmt.Sprintf("%.1f", ev.DistanceKm),
				"bearing":     fmt.Sprintf("%.0f", ev.BearingDeg),
			}).Warn("highlighted aircraft entered radius")
		default:
			entry.WithFields(logrus.Fields{
				"distance_km": fmt.Sprintf("%.1f", ev.DistanceKm),
				"bearing":     fmt.Sprintf("%.0f", ev.BearingDeg),
			}).Info("aircraft entered radius")
		}
	}
	return nil
}

// BellSink rings the terminal bell (ASCII BEL) for new-aircraft and
// highlight events. Rings are rate-limited so a busy cycle produces one
// audible alert, not a burst.
type BellSink struct {
	// Out is the terminal writer, typically os.Stdout
	Out io.Writer

	// MinInterval between rings (default: 2s)
	MinInterval time.Duration

	mu       sync.Mutex
	lastRing time.Time
}

// Notify rings at most once per call and at most once per MinInterval.
func (s *BellSink) Notify(events []Event) error {
	ring := false
	for _, ev := range events {
		if ev.Kind == KindNewAircraft || ev.Kind == KindHighlight {
			ring = true
			break
		}
	}
	if !ring {
		return nil
	}

	minInterval := s.MinInterval
	if minInterval == 0 {
		minInterval = 2 * time.Second
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.lastRing) < minInterval {
		return nil
	}
	s.lastRing = time.Now()

	_, err := s.Out.Write([]byte("\a"))
	return err
}

// MultiSink fans events out to several sinks, returning the first error
// after notifying all of them.
type MultiSink []Sink

func (m MultiSink) Notify(events []Event) error {
	var firstErr error
	for _, sink := range m {
		if err := sink.Notify(events); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
