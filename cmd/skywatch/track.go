package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skywatchers/skywatch/internal/db"
	"github.com/skywatchers/skywatch/pkg/alert"
	"github.com/skywatchers/skywatch/pkg/tracking"
)

// trackCmd runs the polling engine headless and writes alerts to the
// configured sinks. Suitable for running under a process supervisor.
var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Poll the data source and log alerts (no UI)",
	RunE:  runTrack,
}

func runTrack(cmd *cobra.Command, args []string) error {
	source, err := buildSource(cfg)
	if err != nil {
		return err
	}
	defer source.Close()

	sched, err := buildScheduler(cfg, source, log)
	if err != nil {
		return err
	}
	highlights := tracking.NewHighlightSet(cfg.Tracking.Highlights...)

	var sinks alert.MultiSink
	if cfg.Alerts.Log {
		sinks = append(sinks, alert.LogSink{Log: log})
	}
	if cfg.Alerts.Bell {
		sinks = append(sinks, &alert.BellSink{Out: os.Stdout})
	}
	var database *db.DB
	if cfg.Database.Enabled {
		var err error
		database, err = db.Connect(cfg.Database)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.InitSchema(cmd.Context()); err != nil {
			return err
		}
		sinks = append(sinks, db.NewAlertRepository(database))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if database != nil && cfg.Database.RetentionDays > 0 {
		go sweepStoredEvents(ctx, database, time.Duration(cfg.Database.RetentionDays)*24*time.Hour)
	}

	log.WithFields(logrus.Fields{
		"observer": cfg.Observer.Name,
		"lat":      cfg.Observer.Latitude,
		"lon":      cfg.Observer.Longitude,
		"radiusKm": cfg.Tracking.RadiusKm,
		"source":   cfg.Source.Type,
	}).Info("Starting tracker")

	return consumeUpdates(ctx, sched, highlights, sinks)
}

// sweepStoredEvents periodically removes stored alert events older than
// maxAge, so a long-running tracker does not grow the table forever.
func sweepStoredEvents(ctx context.Context, database *db.DB, maxAge time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := database.CleanupOldEvents(ctx, maxAge); err != nil {
				log.WithError(err).Warn("Alert retention sweep failed")
			}
		}
	}
}

// consumeUpdates runs the scheduler and dispatches its alert events
// until ctx is cancelled.
func consumeUpdates(ctx context.Context, sched *tracking.Scheduler, highlights tracking.HighlightSet, sinks alert.MultiSink) error {
	done := make(chan error, 1)
	go func() {
		done <- sched.Run(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			<-done
			log.Info("Tracker stopped")
			return nil

		case u := <-sched.Updates():
			events := alert.Evaluate(u.Diff, u.Table, highlights, u.At)
			if u.JustDegraded {
				events = append(events, alert.Degraded(u.At))
			}

			if len(events) == 0 {
				continue
			}
			if err := sinks.Notify(events); err != nil {
				log.WithError(err).Warn("Alert sink failed")
			}
		}
	}
}
