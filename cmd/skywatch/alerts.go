package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skywatchers/skywatch/internal/db"
)

var (
	alertsLimit int
	alertsICAO  string
)

// alertsCmd lists alert events persisted by "skywatch track" when the
// database sink is enabled.
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List stored alert events, newest first",
	RunE:  runAlerts,
}

func init() {
	alertsCmd.Flags().IntVar(&alertsLimit, "limit", 20, "maximum number of events to list")
	alertsCmd.Flags().StringVar(&alertsICAO, "icao", "", "only show events for this ICAO address")
}

func runAlerts(cmd *cobra.Command, args []string) error {
	if !cfg.Database.Enabled {
		return fmt.Errorf("alert persistence is disabled; enable the database section in %s", cfgFile)
	}

	database, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close()

	repo := db.NewAlertRepository(database)

	var events []db.StoredEvent
	if alertsICAO != "" {
		events, err = repo.EventsForAircraft(cmd.Context(), alertsICAO, alertsLimit)
	} else {
		events, err = repo.RecentEvents(cmd.Context(), alertsLimit)
	}
	if err != nil {
		return err
	}

	if len(events) == 0 {
		fmt.Println("no stored alert events")
		return nil
	}

	fmt.Printf("%-20s %-16s %-8s %-10s %8s %6s\n", "RAISED", "KIND", "ICAO", "CALLSIGN", "DIST KM", "BRG")
	for _, ev := range events {
		fmt.Printf("%-20s %-16s %-8s %-10s %8.1f %5.0f°\n",
			ev.RaisedAt.Local().Format("2006-01-02 15:04:05"),
			ev.Kind,
			ev.ICAO,
			ev.Callsign,
			ev.DistanceKm,
			ev.BearingDeg,
		)
	}
	return nil
}
