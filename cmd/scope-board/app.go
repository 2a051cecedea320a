package main

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/skywatchers/skywatch/pkg/alert"
	"github.com/skywatchers/skywatch/pkg/config"
	"github.com/skywatchers/skywatch/pkg/tracking"
)

// App is the dashboard application. A goroutine consumes scheduler
// updates and pushes redraws into the tview event loop; keyboard input
// stays on the tview side.
type App struct {
	cfg        *config.Config
	sched      *tracking.Scheduler
	highlights tracking.HighlightSet

	tviewApp *tview.Application
	contacts *tview.Table
	status   *tview.TextView
	alerts   *tview.TextView

	mu         sync.RWMutex
	lastUpdate tracking.Update

	cancel context.CancelFunc
}

// NewApp creates the dashboard and wires its panels.
func NewApp(cfg *config.Config, sched *tracking.Scheduler) *App {
	a := &App{
		cfg:        cfg,
		sched:      sched,
		highlights: tracking.NewHighlightSet(cfg.Tracking.Highlights...),
	}
	a.setupUI()
	return a
}

func (a *App) setupUI() {
	a.tviewApp = tview.NewApplication()

	a.contacts = tview.NewTable().
		SetFixed(1, 0).
		SetSelectable(true, false)
	a.contacts.SetBorder(true).SetTitle(" Contacts ")

	a.status = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	a.status.SetBorder(true).SetTitle(" Status ")

	a.alerts = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetMaxLines(200)
	a.alerts.SetBorder(true).SetTitle(" Alerts ")

	sidebar := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.status, 0, 2, false).
		AddItem(a.alerts, 0, 3, false)

	layout := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.contacts, 0, 7, true).
		AddItem(sidebar, 0, 3, false)

	a.tviewApp.SetRoot(layout, true)
	a.tviewApp.SetInputCapture(a.handleKeyboard)

	a.renderHeader()
	a.renderStatus()
}

func (a *App) handleKeyboard(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyEscape || event.Rune() == 'q' {
		a.Stop()
		return nil
	}
	return event
}

// Run starts the polling scheduler and the tview event loop. Blocks
// until the user quits.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	go a.sched.Run(ctx)
	go a.consumeUpdates(ctx)

	a.addAlertLine("white", fmt.Sprintf("Watching %.0f km around %.4f°, %.4f° via %s",
		a.cfg.Tracking.RadiusKm, a.cfg.Observer.Latitude, a.cfg.Observer.Longitude, a.cfg.Source.Type))

	return a.tviewApp.Run()
}

// Stop shuts down the scheduler and the UI.
func (a *App) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	a.tviewApp.Stop()
}

func (a *App) consumeUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-a.sched.Updates():
			a.applyUpdate(u)
		}
	}
}

func (a *App) applyUpdate(u tracking.Update) {
	a.mu.Lock()
	a.lastUpdate = u
	a.mu.Unlock()

	events := alert.Evaluate(u.Diff, u.Table, a.highlights, u.At)
	if u.JustDegraded {
		events = append(events, alert.Degraded(u.At))
	}

	a.tviewApp.QueueUpdateDraw(func() {
		a.renderContacts(u.Table)
		a.renderStatus()
		for _, ev := range events {
			a.renderAlert(ev)
		}
	})
}

func (a *App) renderHeader() {
	headers := []string{"CALLSIGN", "ICAO", "DIST KM", "BRG °", "ALT M", "SPD KM/H", "SEEN"}
	for col, h := range headers {
		cell := tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false).
			SetExpansion(1)
		a.contacts.SetCell(0, col, cell)
	}
}

func (a *App) renderContacts(table tracking.Table) {
	// Clear old rows, keep the header
	for row := a.contacts.GetRowCount() - 1; row > 0; row-- {
		a.contacts.RemoveRow(row)
	}

	snapshots := make([]tracking.Snapshot, 0, len(table))
	for _, s := range table {
		snapshots = append(snapshots, s)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].DistanceKm != snapshots[j].DistanceKm {
			return snapshots[i].DistanceKm < snapshots[j].DistanceKm
		}
		return snapshots[i].ICAO < snapshots[j].ICAO
	})

	for i, s := range snapshots {
		row := i + 1
		color := tcell.ColorWhite
		if a.highlights.Contains(s.Callsign) {
			color = tcell.ColorGreen
		}

		cells := []string{
			s.Label(),
			s.ICAO,
			fmt.Sprintf("%.1f", s.DistanceKm),
			fmt.Sprintf("%.0f", s.BearingDeg),
			fmt.Sprintf("%.0f", s.Altitude),
			fmt.Sprintf("%.0f", s.GroundSpeed),
			s.ObservedAt.Format("15:04:05"),
		}
		for col, text := range cells {
			a.contacts.SetCell(row, col, tview.NewTableCell(text).SetTextColor(color).SetExpansion(1))
		}
	}
}

func (a *App) renderStatus() {
	a.mu.RLock()
	u := a.lastUpdate
	a.mu.RUnlock()

	var text string
	text += fmt.Sprintf("[yellow]OBSERVER[-]  [white]%s[-]\n", a.cfg.Observer.Name)
	text += fmt.Sprintf("[gray]Pos:[-]  [white]%.4f°, %.4f°[-]\n", a.cfg.Observer.Latitude, a.cfg.Observer.Longitude)
	text += fmt.Sprintf("[gray]Radius:[-] [white]%.0f km[-]\n", a.cfg.Tracking.RadiusKm)
	text += "\n"

	text += fmt.Sprintf("[yellow]SOURCE[-]  [white]%s[-]\n", a.cfg.Source.Type)
	switch {
	case u.Status.Degraded:
		text += fmt.Sprintf("[gray]State:[-] [red]DEGRADED (%d failures)[-]\n", u.Status.ConsecutiveFailures)
	case u.Status.Stale():
		text += "[gray]State:[-] [orange]STALE[-]\n"
	case !u.At.IsZero():
		text += "[gray]State:[-] [green]OK[-]\n"
	default:
		text += "[gray]State:[-] [white]waiting[-]\n"
	}
	if !u.At.IsZero() {
		text += fmt.Sprintf("[gray]Last poll:[-] [white]%s[-]\n", u.At.Format("15:04:05"))
	}
	if u.Status.LastError != "" {
		text += fmt.Sprintf("[gray]Error:[-] [red]%s[-]\n", tview.Escape(u.Status.LastError))
	}
	text += fmt.Sprintf("[gray]Contacts:[-] [white]%d[-]\n", len(u.Table))

	a.status.SetText(text)
}

func (a *App) renderAlert(ev alert.Event) {
	switch ev.Kind {
	case alert.KindHighlight:
		a.addAlertLine("green", fmt.Sprintf("HIGHLIGHT %s (%s) %.1f km brg %.0f°",
			ev.Callsign, ev.ICAO, ev.DistanceKm, ev.BearingDeg))
	case alert.KindNewAircraft:
		a.addAlertLine("white", fmt.Sprintf("NEW %s (%s) %.1f km brg %.0f°",
			ev.Callsign, ev.ICAO, ev.DistanceKm, ev.BearingDeg))
	case alert.KindSourceDegraded:
		a.addAlertLine("red", "SOURCE DEGRADED")
	}
}

func (a *App) addAlertLine(color, message string) {
	timestamp := time.Now().Format("15:04:05")
	fmt.Fprintf(a.alerts, "[gray]%s[-] [%s]%s[-]\n", timestamp, color, message)
}
