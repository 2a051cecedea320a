package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/skywatchers/skywatch/pkg/tracking"
)

// radarCmd launches the interactive terminal radar scope.
var radarCmd = &cobra.Command{
	Use:   "radar",
	Short: "Show the interactive radar scope",
	RunE:  runRadar,
}

func runRadar(cmd *cobra.Command, args []string) error {
	// Log lines would corrupt the alternate screen, so silence them while
	// the scope owns the terminal.
	log.SetOutput(io.Discard)

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

	displayRadius := cfg.Tracking.DisplayRadiusKm
	if displayRadius <= 0 {
		displayRadius = cfg.Tracking.RadiusKm
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	m := newScopeModel(cfg, sched, highlights, displayRadius)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return nil
}
