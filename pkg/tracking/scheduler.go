package tracking

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/skywatchers/skywatch/pkg/adsb"
)

// degradedThreshold is the number of consecutive poll failures after
// which the source is reported unavailable.
const degradedThreshold = 3

// Status describes the health of the polling loop. It is informational
// only; the scheduler keeps running through failures.
type Status struct {
	// ConsecutiveFailures counts poll cycles failed since the last success
	ConsecutiveFailures int

	// Degraded is true once degradedThreshold consecutive cycles failed.
	// Cleared by the next successful poll.
	Degraded bool

	// LastSuccess is when the last poll succeeded (zero until the first)
	LastSuccess time.Time

	// LastError describes the most recent poll failure, empty after a
	// successful cycle
	LastError string
}

// Stale reports whether the latest displayable data predates a poll
// failure.
func (s Status) Stale() bool {
	return s.ConsecutiveFailures > 0
}

// Update is one published poll cycle result. Failed cycles carry the
// previous (unchanged) table, an empty diff and a populated status so
// displays can show a staleness indicator.
type Update struct {
	// Table is the current tracking table; never modified after publish
	Table Table

	// Diff is the delta this cycle produced (zero-valued on failure)
	Diff Diff

	// Failed is true when this cycle's fetch did not complete
	Failed bool

	// Status is the poll-loop health after this cycle
	Status Status

	// JustDegraded is true only on the cycle that escalated the source
	// to degraded, so consumers can raise a one-shot alert without
	// tracking the previous status themselves
	JustDegraded bool

	// At is when the cycle completed
	At time.Time
}

// Scheduler drives periodic polls of a data source, feeds results through
// a Manager, and publishes immutable updates. Exactly one fetch is in
// flight at any time: a cycle waits for the previous fetch to resolve or
// time out before starting.
//
// The render loop reads updates via Latest or the single-slot Updates
// channel; neither path ever blocks the polling loop.
type Scheduler struct {
	source   adsb.DataSource
	manager  *Manager
	interval time.Duration
	timeout  time.Duration
	log      logrus.FieldLogger

	mu     sync.RWMutex
	latest Update
	seq    uint64

	updates chan Update
}

// RateHinter is implemented by data sources that enforce a client-side
// minimum spacing between fetches. The scheduler stretches its interval
// to the hint so polls do not queue up behind the source's limiter and
// time out.
type RateHinter interface {
	MinInterval() time.Duration
}

// SchedulerConfig configures a polling scheduler.
type SchedulerConfig struct {
	// Source is the data source polled each cycle
	Source adsb.DataSource

	// Manager performs the ingest step
	Manager *Manager

	// Interval between poll cycles (default: 5s)
	Interval time.Duration

	// Timeout bounds each fetch call (default: Interval, capped at 30s)
	Timeout time.Duration

	// Log receives per-cycle diagnostics; nil discards them
	Log logrus.FieldLogger
}

// NewScheduler creates a scheduler. Run must be called to start polling.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if h, ok := cfg.Source.(RateHinter); ok {
		if min := h.MinInterval(); min > cfg.Interval {
			cfg.Interval = min
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
		if cfg.Timeout > 30*time.Second {
			cfg.Timeout = 30 * time.Second
		}
	}
	log := cfg.Log
	if log == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		logger.SetLevel(logrus.PanicLevel)
		log = logger
	}
	return &Scheduler{
		source:   cfg.Source,
		manager:  cfg.Manager,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		log:      log,
		updates:  make(chan Update, 1),
	}
}

// Updates returns the single-slot update channel. Only the most recent
// update is retained: a slow consumer observes the latest state, never a
// backlog.
func (s *Scheduler) Updates() <-chan Update {
	return s.updates
}

// Latest returns the most recently published update. ok is false before
// the first cycle completes. Consumers may receive the same update twice
// between cycles and must tolerate that.
func (s *Scheduler) Latest() (Update, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.seq > 0
}

// Status returns the current poll-loop health.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest.Status
}

// Run polls until ctx is cancelled, then returns ctx.Err(). The first
// poll happens immediately. Cancellation is cooperative: it takes effect
// at the top of the next cycle, so an in-flight fetch completes or hits
// its own timeout before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.poll()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.poll()
		}
	}
}

// poll runs exactly one fetch-ingest-publish cycle.
func (s *Scheduler) poll() {
	// The fetch deadline is independent of Run's context: shutdown must
	// not cancel an in-flight fetch destructively.
	fetchCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	prev, prevStatus := s.current()

	records, err := s.source.FetchInRadius(fetchCtx, s.manager.Observer().Point(), s.manager.Observer().RadiusKm)
	now := time.Now().UTC()

	if err != nil {
		status := prevStatus
		status.ConsecutiveFailures++
		status.LastError = err.Error()
		justDegraded := !status.Degraded && status.ConsecutiveFailures >= degradedThreshold
		if justDegraded {
			status.Degraded = true
		}

		entry := s.log.WithFields(logrus.Fields{
			"kind":     adsb.KindOf(err).String(),
			"failures": status.ConsecutiveFailures,
		})
		if justDegraded {
			entry.Warn("source unavailable after repeated poll failures")
		} else {
			entry.WithError(err).Debug("poll failed")
		}

		// Tracking state is left untouched on failure
		s.publish(Update{Table: prev, Failed: true, Status: status, JustDegraded: justDegraded, At: now})
		return
	}

	table, diff := s.manager.Ingest(records, prev)
	status := Status{LastSuccess: now}
	if prevStatus.Degraded {
		s.log.Info("source recovered")
	}

	s.log.WithFields(logrus.Fields{
		"tracked": len(table),
		"entered": len(diff.Entered),
		"exited":  len(diff.Exited),
		"updated": len(diff.Updated),
	}).Debug("poll cycle complete")

	s.publish(Update{Table: table, Diff: diff, Status: status, At: now})
}

// current returns the previous table and status under the lock.
func (s *Scheduler) current() (Table, Status) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest.Table, s.latest.Status
}

// publish stores the update as the latest value and replaces whatever is
// pending in the single-slot channel.
func (s *Scheduler) publish(u Update) {
	s.mu.Lock()
	s.latest = u
	s.seq++
	s.mu.Unlock()

	// Drop the stale pending update, if any, then offer the new one.
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- u:
	default:
	}
}
