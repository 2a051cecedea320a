package adsb

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/skywatchers/skywatch/pkg/geo"
)

// Sample airline prefixes for generating realistic callsigns.
var mockAirlines = []string{"SWR", "DLH", "BAW", "AFR", "KLM", "UAE", "QTR", "SIA", "AAL", "UAL"}

// MockSource is a synthetic traffic generator implementing DataSource.
// It maintains a fleet of simulated aircraft flying straight tracks,
// dead-reckoning their positions between fetches, despawning aircraft
// that wander far away and spawning replacements around the query center.
//
// With a fixed seed and clock the generated traffic is deterministic,
// which makes it suitable for demos and tests without network access.
type MockSource struct {
	mu       sync.Mutex
	fleet    map[string]Aircraft
	count    int
	rng      *rand.Rand
	now      func() time.Time
	lastTick time.Time
}

// NewMockSource creates a generator holding count simulated aircraft.
// seed fixes the random stream; pass 0 for time-based seeding.
func NewMockSource(count int, seed int64) *MockSource {
	if count <= 0 {
		count = 20
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &MockSource{
		fleet: make(map[string]Aircraft),
		count: count,
		rng:   rand.New(rand.NewSource(seed)),
		now:   time.Now,
	}
}

// FetchInRadius advances the simulation and returns the aircraft
// currently within radiusKm of center.
func (m *MockSource) FetchInRadius(ctx context.Context, center geo.Point, radiusKm float64) ([]Aircraft, error) {
	if err := ctx.Err(); err != nil {
		return nil, classifyTransportErr("mock", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.advance(center, radiusKm)

	var result []Aircraft
	for _, ac := range m.fleet {
		if geo.WithinRadius(center, ac.Position(), radiusKm) {
			result = append(result, ac)
		}
	}
	return result, nil
}

// FetchByID returns a simulated aircraft by ICAO address.
func (m *MockSource) FetchByID(ctx context.Context, icao string) (*Aircraft, error) {
	if err := ctx.Err(); err != nil {
		return nil, classifyTransportErr("mock", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if ac, ok := m.fleet[strings.ToLower(icao)]; ok {
		return &ac, nil
	}
	return nil, newError(KindNotFound, "mock", fmt.Errorf("aircraft %s not tracked", icao))
}

// Close cleanly shuts down the generator.
func (m *MockSource) Close() error {
	return nil
}

// advance moves every aircraft along its track for the elapsed wall time,
// removes ones that left the area and tops the fleet back up.
// Caller holds m.mu.
func (m *MockSource) advance(center geo.Point, radiusKm float64) {
	now := m.now().UTC()
	if m.lastTick.IsZero() {
		m.lastTick = now
	}
	elapsed := now.Sub(m.lastTick)
	m.lastTick = now

	for icao, ac := range m.fleet {
		distanceKm := ac.GroundSpeed * elapsed.Hours()
		lat, lon := offsetPosition(ac.Latitude, ac.Longitude, ac.Track, distanceKm)
		ac.Latitude = lat
		ac.Longitude = lon
		ac.ObservedAt = now

		// Despawn traffic that has flown well clear of the area
		if geo.Distance(center, ac.Position()) > radiusKm*2 {
			delete(m.fleet, icao)
			continue
		}
		m.fleet[icao] = ac
	}

	for len(m.fleet) < m.count {
		ac := m.spawn(center, radiusKm, now)
		m.fleet[ac.ICAO] = ac
	}
}

// spawn creates a new simulated aircraft somewhere around the center.
// Caller holds m.mu.
func (m *MockSource) spawn(center geo.Point, radiusKm float64, now time.Time) Aircraft {
	// Spawn between 30% and 150% of the radius out so the radar sees a
	// mix of visible contacts and traffic about to enter.
	distanceKm := radiusKm * (0.3 + m.rng.Float64()*1.2)
	bearing := m.rng.Float64() * 360.0
	lat, lon := offsetPosition(center.Latitude, center.Longitude, bearing, distanceKm)

	return Aircraft{
		ICAO:         m.randomICAO(),
		Callsign:     m.randomCallsign(),
		Latitude:     lat,
		Longitude:    lon,
		Altitude:     3000 + m.rng.Float64()*9000, // meters
		GroundSpeed:  400 + m.rng.Float64()*500,   // km/h
		Track:        m.rng.Float64() * 360.0,
		VerticalRate: -5 + m.rng.Float64()*10, // m/s
		ObservedAt:   now,
	}
}

func (m *MockSource) randomCallsign() string {
	airline := mockAirlines[m.rng.Intn(len(mockAirlines))]
	return fmt.Sprintf("%s%d", airline, 100+m.rng.Intn(9900))
}

func (m *MockSource) randomICAO() string {
	const hexDigits = "0123456789abcdef"
	b := make([]byte, 6)
	for i := range b {
		b[i] = hexDigits[m.rng.Intn(len(hexDigits))]
	}
	return string(b)
}

// offsetPosition moves a lat/lon point along a bearing by a distance,
// using the per-degree approximation. Fine for the short hops the
// simulation takes between polls.
func offsetPosition(lat, lon, bearingDeg, distanceKm float64) (float64, float64) {
	bearingRad := bearingDeg * geo.DegreesToRadians
	latKmPerDeg := 110.574
	lonKmPerDeg := 111.320 * math.Cos(lat*geo.DegreesToRadians)

	newLat := lat + distanceKm*math.Cos(bearingRad)/latKmPerDeg
	newLon := lon + distanceKm*math.Sin(bearingRad)/math.Max(lonKmPerDeg, 1e-6)
	return newLat, newLon
}
