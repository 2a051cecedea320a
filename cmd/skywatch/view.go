package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/skywatchers/skywatch/pkg/alert"
	"github.com/skywatchers/skywatch/pkg/config"
	"github.com/skywatchers/skywatch/pkg/geo"
	"github.com/skywatchers/skywatch/pkg/radar"
	"github.com/skywatchers/skywatch/pkg/tracking"
)

// Character aspect ratio correction: terminal characters are ~2:1
// (height:width), so X distances are scaled by 0.5 to keep circles round.
const aspectRatio = 0.5

const maxRecentAlerts = 6

type scopeModel struct {
	cfg        *config.Config
	sched      *tracking.Scheduler
	highlights tracking.HighlightSet

	displayRadiusKm float64

	table  tracking.Table
	scope  radar.Model
	status tracking.Status
	lastAt time.Time
	recent []alert.Event

	selected int
	width    int
	height   int
}

type updateMsg tracking.Update

func newScopeModel(cfg *config.Config, sched *tracking.Scheduler, highlights tracking.HighlightSet, displayRadiusKm float64) scopeModel {
	return scopeModel{
		cfg:             cfg,
		sched:           sched,
		highlights:      highlights,
		displayRadiusKm: displayRadiusKm,
		scope:           radar.Model{DisplayRadiusKm: displayRadiusKm},
		width:           140,
		height:          40,
	}
}

// waitForUpdate blocks on the scheduler's single-slot channel, delivering
// the newest poll result as a bubbletea message.
func waitForUpdate(updates <-chan tracking.Update) tea.Cmd {
	return func() tea.Msg {
		return updateMsg(<-updates)
	}
}

func (m scopeModel) Init() tea.Cmd {
	return waitForUpdate(m.sched.Updates())
}

func (m scopeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.scope.Contacts)-1 {
				m.selected++
			}
		case "+", "=":
			if m.displayRadiusKm < m.cfg.Tracking.RadiusKm*2 {
				m.displayRadiusKm *= 1.5
				if m.displayRadiusKm > m.cfg.Tracking.RadiusKm*2 {
					m.displayRadiusKm = m.cfg.Tracking.RadiusKm * 2
				}
				m.reproject()
			}
		case "-", "_":
			if m.displayRadiusKm > 1 {
				m.displayRadiusKm /= 1.5
				if m.displayRadiusKm < 1 {
					m.displayRadiusKm = 1
				}
				m.reproject()
			}
		case "0":
			m.displayRadiusKm = m.cfg.Tracking.RadiusKm
			m.reproject()
		}

	case updateMsg:
		u := tracking.Update(msg)
		m.table = u.Table
		m.status = u.Status
		m.lastAt = u.At
		m.reproject()

		events := alert.Evaluate(u.Diff, u.Table, m.highlights, u.At)
		if u.JustDegraded {
			events = append(events, alert.Degraded(u.At))
		}
		if len(events) > 0 {
			m.recent = append(m.recent, events...)
			if len(m.recent) > maxRecentAlerts {
				m.recent = m.recent[len(m.recent)-maxRecentAlerts:]
			}
		}
		return m, waitForUpdate(m.sched.Updates())
	}

	return m, nil
}

func (m *scopeModel) reproject() {
	m.scope = radar.Project(m.table, m.displayRadiusKm, m.highlights)
	if m.selected >= len(m.scope.Contacts) {
		m.selected = len(m.scope.Contacts) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m scopeModel) observerPoint() geo.Point {
	return geo.Point{Latitude: m.cfg.Observer.Latitude, Longitude: m.cfg.Observer.Longitude}
}

// scopeSize returns the grid dimensions, reserving room for the info
// panel on the right and the contact list below.
func (m scopeModel) scopeSize() (int, int) {
	w := m.width - 44
	if w < 60 {
		w = 60
	}
	h := m.height - 12
	if h < 20 {
		h = 20
	}
	return w, h
}

// polarToScreen converts a contact's angle and normalized radius to grid
// coordinates. Bearing 0 is north (up, negative Y), 90 is east.
func polarToScreen(angleDeg, normRadius float64, centerX, centerY int, maxScreenRadius float64) (int, int) {
	rad := angleDeg * math.Pi / 180.0
	dist := normRadius * maxScreenRadius

	dx := int(dist * math.Sin(rad) / aspectRatio)
	dy := -int(dist * math.Cos(rad))
	return centerX + dx, centerY + dy
}

func (m scopeModel) View() string {
	var s strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)
	s.WriteString(titleStyle.Render("SKYWATCH RADAR"))
	s.WriteString("\n\n")

	scope := m.renderScope()
	info := m.renderInfo()

	scopeLines := strings.Split(scope, "\n")
	infoLines := strings.Split(info, "\n")
	scopeWidth, _ := m.scopeSize()

	maxLines := len(scopeLines)
	if len(infoLines) > maxLines {
		maxLines = len(infoLines)
	}
	for i := 0; i < maxLines; i++ {
		if i < len(scopeLines) {
			s.WriteString(scopeLines[i])
		} else {
			s.WriteString(strings.Repeat(" ", scopeWidth))
		}
		s.WriteString("  ")
		if i < len(infoLines) {
			s.WriteString(infoLines[i])
		}
		s.WriteString("\n")
	}

	s.WriteString(m.renderContacts())
	s.WriteString("\n")

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	s.WriteString(helpStyle.Render("↑/↓: Select  +/-: Range  0: Reset  Q: Quit"))
	s.WriteString("\n")

	return s.String()
}

func (m scopeModel) renderScope() string {
	var out strings.Builder

	scopeWidth, scopeHeight := m.scopeSize()

	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	out.WriteString(borderStyle.Render("┌" + strings.Repeat("─", scopeWidth-2) + "┐"))
	out.WriteString("\n")

	grid := make([][]rune, scopeHeight)
	for i := range grid {
		grid[i] = make([]rune, scopeWidth)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}

	centerX := (scopeWidth - 2) / 2
	centerY := scopeHeight / 2

	maxScreenRadiusY := float64(scopeHeight/2 - 2)
	maxScreenRadiusX := float64(scopeWidth/2-3) * aspectRatio
	maxScreenRadius := maxScreenRadiusY
	if maxScreenRadiusX < maxScreenRadiusY {
		maxScreenRadius = maxScreenRadiusX
	}

	m.drawRangeRings(grid, centerX, centerY, maxScreenRadius)

	// Cardinal directions at the scope edge
	if centerY-int(maxScreenRadius) >= 0 {
		grid[centerY-int(maxScreenRadius)][centerX] = 'N'
	}
	if eastX := centerX + int(maxScreenRadius/aspectRatio); eastX < scopeWidth-2 {
		grid[centerY][eastX] = 'E'
	}
	if centerY+int(maxScreenRadius) < scopeHeight {
		grid[centerY+int(maxScreenRadius)][centerX] = 'S'
	}
	if westX := centerX - int(maxScreenRadius/aspectRatio); westX >= 0 {
		grid[centerY][westX] = 'W'
	}

	// Observer at the center
	grid[centerY][centerX] = '✈'

	type contactLabel struct {
		x, y  int
		label string
	}
	var labels []contactLabel

	for i, c := range m.scope.Contacts {
		x, y := polarToScreen(c.AngleDegrees, c.NormalizedRadius, centerX, centerY, maxScreenRadius)
		if x < 0 || x >= scopeWidth-2 || y < 0 || y >= scopeHeight {
			continue
		}

		symbol := '○'
		labelled := false
		if c.Highlighted {
			symbol = '◉'
			labelled = true
		}
		if i == m.selected {
			symbol = '●'
			labelled = true
		}
		grid[y][x] = symbol

		if labelled {
			text := c.Callsign
			if text == "" {
				text = c.ID
			}
			labels = append(labels, contactLabel{x: x + 2, y: y, label: text})
		}

		// Velocity vector for anything moving faster than a hover
		if c.GroundSpeedKmh > 90 {
			drawVelocityVector(grid, x, y, c.TrackDegrees, c.GroundSpeedKmh)
		}
	}

	for _, label := range labels {
		for i, ch := range label.label {
			lx := label.x + i
			if label.y >= 0 && label.y < scopeHeight && lx >= 0 && lx < scopeWidth-2 {
				if grid[label.y][lx] == ' ' || grid[label.y][lx] == '─' {
					grid[label.y][lx] = ch
				}
			}
		}
	}

	for y := 0; y < scopeHeight; y++ {
		out.WriteString(borderStyle.Render("│"))
		for x := 0; x < scopeWidth-2; x++ {
			char := grid[y][x]
			switch char {
			case '✈':
				out.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true).Render(string(char)))
			case '◉':
				out.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true).Render(string(char)))
			case '●':
				out.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Render(string(char)))
			case '○':
				out.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Render(string(char)))
			case 'N', 'E', 'S', 'W':
				out.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Bold(true).Render(string(char)))
			case '─':
				out.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render(string(char)))
			case '→', '-':
				out.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Render(string(char)))
			case '.', 'k':
				out.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("248")).Render(string(char)))
			default:
				if char >= '0' && char <= '9' {
					out.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("248")).Render(string(char)))
				} else if (char >= 'A' && char <= 'Z') || (char >= 'a' && char <= 'z') {
					out.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Render(string(char)))
				} else {
					out.WriteRune(char)
				}
			}
		}
		out.WriteString(borderStyle.Render("│"))
		out.WriteString("\n")
	}

	out.WriteString(borderStyle.Render("└" + strings.Repeat("─", scopeWidth-2) + "┘"))

	return out.String()
}

// drawRangeRings draws concentric distance rings with labels. Ring
// spacing picks the first interval that keeps the scope readable.
func (m scopeModel) drawRangeRings(grid [][]rune, centerX, centerY int, maxScreenRadius float64) {
	scale := maxScreenRadius / m.displayRadiusKm

	intervals := []float64{1, 2, 5, 10, 25, 50, 100, 250}
	var ringKm []float64
	for _, interval := range intervals {
		ringKm = ringKm[:0]
		for dist := interval; dist < m.displayRadiusKm; dist += interval {
			ringKm = append(ringKm, dist)
		}
		if len(ringKm) <= 4 {
			break
		}
	}

	scopeHeight := len(grid)
	scopeWidth := len(grid[0])

	for _, dist := range ringKm {
		screenRadius := int(dist * scale)
		drawCircle(grid, centerX, centerY, screenRadius, '─')

		label := fmt.Sprintf("%.0fk", dist)
		labelY := centerY - screenRadius
		labelX := centerX - len(label)/2
		if labelY >= 0 && labelY < scopeHeight && labelX >= 0 && labelX+len(label) < scopeWidth-2 {
			for j, ch := range label {
				grid[labelY][labelX+j] = ch
			}
		}
	}
}

// drawCircle draws a circle using Bresenham's circle algorithm with
// aspect ratio correction on the X coordinates.
func drawCircle(grid [][]rune, cx, cy, radius int, char rune) {
	x := radius
	y := 0
	err := 0

	for x >= y {
		xScaled := int(float64(x) / aspectRatio)
		yScaled := int(float64(y) / aspectRatio)

		setPixel(grid, cx+xScaled, cy+y, char)
		setPixel(grid, cx+yScaled, cy+x, char)
		setPixel(grid, cx-yScaled, cy+x, char)
		setPixel(grid, cx-xScaled, cy+y, char)
		setPixel(grid, cx-xScaled, cy-y, char)
		setPixel(grid, cx-yScaled, cy-x, char)
		setPixel(grid, cx+yScaled, cy-x, char)
		setPixel(grid, cx+xScaled, cy-y, char)

		y++
		err += 1 + 2*y
		if 2*(err-x)+1 > 0 {
			x--
			err += 1 - 2*x
		}
	}
}

// setPixel sets a grid cell if it is in bounds, only overwriting empty
// space or ring pixels.
func setPixel(grid [][]rune, x, y int, char rune) {
	if y >= 0 && y < len(grid) && x >= 0 && x < len(grid[0]) {
		if grid[y][x] == ' ' || grid[y][x] == '─' {
			grid[y][x] = char
		}
	}
}

// drawVelocityVector draws a short arrow in the direction of travel. The
// length scales with ground speed, capped so vectors stay local.
func drawVelocityVector(grid [][]rune, x, y int, trackDeg, speedKmh float64) {
	length := int(speedKmh/280.0) + 1
	if length > 4 {
		length = 4
	}

	trackRad := trackDeg * math.Pi / 180.0

	for i := 1; i <= length; i++ {
		dx := int(float64(i) * math.Sin(trackRad) / aspectRatio)
		dy := -int(float64(i) * math.Cos(trackRad))

		nx, ny := x+dx, y+dy
		if ny >= 0 && ny < len(grid) && nx >= 0 && nx < len(grid[0]) {
			if grid[ny][nx] == ' ' || grid[ny][nx] == '─' {
				if i == length {
					grid[ny][nx] = '→'
				} else {
					grid[ny][nx] = '-'
				}
			}
		}
	}
}

func (m scopeModel) renderInfo() string {
	var info strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	info.WriteString(headerStyle.Render("OBSERVER"))
	info.WriteString("\n\n")

	info.WriteString(fmt.Sprintf("Site: %s\n", m.cfg.Observer.Name))
	info.WriteString(fmt.Sprintf("Position: %.4f°, %.4f°\n", m.cfg.Observer.Latitude, m.cfg.Observer.Longitude))
	info.WriteString(fmt.Sprintf("Range: %.0f km (tracking %.0f km)\n", m.displayRadiusKm, m.cfg.Tracking.RadiusKm))
	info.WriteString(fmt.Sprintf("Contacts: %d\n", len(m.scope.Contacts)))
	info.WriteString("\n")

	info.WriteString(headerStyle.Render("SOURCE"))
	info.WriteString("\n\n")
	info.WriteString(fmt.Sprintf("Feed: %s\n", m.cfg.Source.Type))

	switch {
	case m.status.Degraded:
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
		info.WriteString(style.Render(fmt.Sprintf("Status: DEGRADED (%d failures)", m.status.ConsecutiveFailures)))
		info.WriteString("\n")
	case m.status.Stale():
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
		info.WriteString(style.Render("Status: STALE"))
		info.WriteString("\n")
	case !m.lastAt.IsZero():
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
		info.WriteString(style.Render("Status: OK"))
		info.WriteString("\n")
	default:
		info.WriteString("Status: waiting for first poll\n")
	}
	if !m.lastAt.IsZero() {
		info.WriteString(fmt.Sprintf("Last poll: %s\n", m.lastAt.Format("15:04:05")))
	}
	info.WriteString("\n")

	if m.selected >= 0 && m.selected < len(m.scope.Contacts) {
		c := m.scope.Contacts[m.selected]
		info.WriteString(headerStyle.Render("SELECTED"))
		info.WriteString("\n\n")

		label := c.Callsign
		if label == "" {
			label = c.ID
		}
		info.WriteString(fmt.Sprintf("%s (%s)\n", label, c.ID))
		info.WriteString(fmt.Sprintf("Dist: %.1f km  Brg: %.0f°\n", c.DistanceKm, c.AngleDegrees))
		info.WriteString(fmt.Sprintf("Alt: %.0f m  Spd: %.0f km/h\n", c.AltitudeM, c.GroundSpeedKmh))

		if s, ok := m.table[c.ID]; ok {
			approach := geo.ClosestApproach(m.observerPoint(), s.Position(), s.GroundSpeed, s.Track)
			if approach.Approaching {
				info.WriteString(fmt.Sprintf("CPA: %.1f km in %s\n",
					approach.ClosestKm, approach.TimeToClosest.Round(time.Second)))
			} else {
				info.WriteString(fmt.Sprintf("CPA: %.1f km (receding)\n", approach.ClosestKm))
			}
		}
		info.WriteString("\n")
	}

	info.WriteString(headerStyle.Render("ALERTS"))
	info.WriteString("\n\n")
	if len(m.recent) == 0 {
		dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
		info.WriteString(dimStyle.Render("none yet"))
		info.WriteString("\n")
	}
	for i := len(m.recent) - 1; i >= 0; i-- {
		ev := m.recent[i]
		line := fmt.Sprintf("%s %s %s %.1fkm", ev.At.Format("15:04:05"), ev.Kind, ev.Callsign, ev.DistanceKm)
		if ev.Kind == alert.KindSourceDegraded {
			line = fmt.Sprintf("%s %s", ev.At.Format("15:04:05"), ev.Kind)
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
		if ev.Kind == alert.KindHighlight || ev.Kind == alert.KindSourceDegraded {
			style = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
		}
		info.WriteString(style.Render(line))
		info.WriteString("\n")
	}

	return info.String()
}

func (m scopeModel) renderContacts() string {
	var list strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	list.WriteString(headerStyle.Render(fmt.Sprintf("%-3s %-10s %-8s %9s %8s %9s %10s",
		"", "CALLSIGN", "ICAO", "DIST", "BRG", "ALT", "SPEED")))
	list.WriteString("\n")

	maxRows := 8
	for i, c := range m.scope.Contacts {
		if i >= maxRows {
			dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
			list.WriteString(dimStyle.Render(fmt.Sprintf("... and %d more", len(m.scope.Contacts)-maxRows)))
			list.WriteString("\n")
			break
		}

		marker := " "
		if i == m.selected {
			marker = ">"
		}
		callsign := c.Callsign
		if callsign == "" {
			callsign = "-"
		}

		row := fmt.Sprintf("%-3s %-10s %-8s %7.1fkm %6.0f° %7.0fm %8.0fkm/h",
			marker, callsign, c.ID, c.DistanceKm, c.AngleDegrees, c.AltitudeM, c.GroundSpeedKmh)

		switch {
		case i == m.selected:
			list.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Render(row))
		case c.Highlighted:
			list.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render(row))
		default:
			list.WriteString(row)
		}
		list.WriteString("\n")
	}

	return list.String()
}
