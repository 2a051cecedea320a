package adsb

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/skywatchers/skywatch/pkg/geo"
)

const (
	// OpenSkyBaseURL is the OpenSky Network REST API base URL
	OpenSkyBaseURL = "https://opensky-network.org/api"

	// openSkySource is the provider name used in classified errors
	openSkySource = "opensky"

	// openSkyAnonymousInterval is the minimum spacing between anonymous
	// requests. OpenSky allows authenticated users a higher rate.
	openSkyAnonymousInterval = 10 * time.Second
	openSkyAuthInterval      = 5 * time.Second
)

// OpenSkyClient implements DataSource against the OpenSky Network API.
// API Documentation: https://openskynetwork.github.io/opensky-api/rest.html
//
// The /states/all endpoint only supports bounding-box queries, so the
// client over-fetches a box around the center and post-filters with the
// precise great-circle distance.
type OpenSkyClient struct {
	baseURL     string
	username    string
	password    string
	httpClient  *http.Client
	limiter     *rate.Limiter
	minInterval time.Duration
}

// NewOpenSkyClient creates an OpenSky API client. Username and password
// are optional; anonymous access works with a lower rate limit.
func NewOpenSkyClient(baseURL, username, password string) *OpenSkyClient {
	if baseURL == "" {
		baseURL = OpenSkyBaseURL
	}
	interval := openSkyAnonymousInterval
	if username != "" {
		interval = openSkyAuthInterval
	}
	return &OpenSkyClient{
		baseURL:  baseURL,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter:     rate.NewLimiter(rate.Every(interval), 1),
		minInterval: interval,
	}
}

// MinInterval returns the minimum spacing the client's rate limiter
// enforces between requests. Polling faster just queues behind it.
func (c *OpenSkyClient) MinInterval() time.Duration {
	return c.minInterval
}

// openSkyResponse is the JSON envelope of /states/all.
// Each state vector is a heterogeneous array; see parseStateVector for
// the index layout.
type openSkyResponse struct {
	Time   int64               `json:"time"`
	States [][]json.RawMessage `json:"states"`
}

// FetchInRadius returns all aircraft within radiusKm of center.
func (c *OpenSkyClient) FetchInRadius(ctx context.Context, center geo.Point, radiusKm float64) ([]Aircraft, error) {
	// Bounding box around the center. One degree of latitude is ~111 km;
	// longitude degrees shrink with cos(lat).
	latDelta := radiusKm / 110.574
	lonScale := 111.320 * math.Cos(center.Latitude*geo.DegreesToRadians)
	lonDelta := radiusKm / math.Max(lonScale, 1e-6)

	params := url.Values{}
	params.Set("lamin", fmt.Sprintf("%.6f", center.Latitude-latDelta))
	params.Set("lamax", fmt.Sprintf("%.6f", center.Latitude+latDelta))
	params.Set("lomin", fmt.Sprintf("%.6f", center.Longitude-lonDelta))
	params.Set("lomax", fmt.Sprintf("%.6f", center.Longitude+lonDelta))

	resp, err := c.get(ctx, "/states/all", params)
	if err != nil {
		return nil, err
	}

	// The box over-fetches the corners; keep only true radius hits.
	aircraft := make([]Aircraft, 0, len(resp.States))
	for _, state := range resp.States {
		ac, ok := parseStateVector(state, resp.Time)
		if !ok {
			continue
		}
		if geo.WithinRadius(center, ac.Position(), radiusKm) {
			aircraft = append(aircraft, ac)
		}
	}
	return aircraft, nil
}

// FetchByID returns a specific aircraft by ICAO hex address.
func (c *OpenSkyClient) FetchByID(ctx context.Context, icao string) (*Aircraft, error) {
	params := url.Values{}
	params.Set("icao24", strings.ToLower(icao))

	resp, err := c.get(ctx, "/states/all", params)
	if err != nil {
		return nil, err
	}
	if len(resp.States) == 0 {
		return nil, newError(KindNotFound, openSkySource, fmt.Errorf("aircraft %s not tracked", icao))
	}
	ac, ok := parseStateVector(resp.States[0], resp.Time)
	if !ok {
		return nil, newError(KindMalformed, openSkySource, fmt.Errorf("state vector for %s missing position", icao))
	}
	return &ac, nil
}

// Close cleanly shuts down the client. OpenSky uses plain HTTP requests,
// so there are no persistent connections to tear down.
func (c *OpenSkyClient) Close() error {
	return nil
}

// get performs a rate-limited GET and decodes the response envelope.
func (c *OpenSkyClient) get(ctx context.Context, endpoint string, params url.Values) (*openSkyResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, classifyTransportErr(openSkySource, err)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, newError(KindNetwork, openSkySource, err)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportErr(openSkySource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(openSkySource, resp.StatusCode)
	}

	var envelope openSkyResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, newError(KindMalformed, openSkySource, err)
	}
	return &envelope, nil
}

// State vector indices, per the OpenSky REST documentation.
const (
	osIdxICAO         = 0
	osIdxCallsign     = 1
	osIdxLongitude    = 5
	osIdxLatitude     = 6
	osIdxBaroAltitude = 7
	osIdxVelocity     = 9
	osIdxTrueTrack    = 10
	osIdxVerticalRate = 11
)

// parseStateVector converts one OpenSky state vector into an Aircraft.
// Returns ok=false when the vector has no usable position.
func parseStateVector(state []json.RawMessage, fetchTime int64) (Aircraft, bool) {
	lat, latOK := jsonFloat(state, osIdxLatitude)
	lon, lonOK := jsonFloat(state, osIdxLongitude)
	icao, icaoOK := jsonString(state, osIdxICAO)
	if !latOK || !lonOK || !icaoOK {
		return Aircraft{}, false
	}

	ac := Aircraft{
		ICAO:       icao,
		Latitude:   lat,
		Longitude:  lon,
		ObservedAt: time.Unix(fetchTime, 0).UTC(),
	}
	if callsign, ok := jsonString(state, osIdxCallsign); ok {
		ac.Callsign = strings.TrimSpace(callsign)
	}
	if alt, ok := jsonFloat(state, osIdxBaroAltitude); ok {
		ac.Altitude = alt
	}
	if vel, ok := jsonFloat(state, osIdxVelocity); ok {
		ac.GroundSpeed = vel * 3.6 // m/s to km/h
	}
	if track, ok := jsonFloat(state, osIdxTrueTrack); ok {
		ac.Track = track
	}
	if vr, ok := jsonFloat(state, osIdxVerticalRate); ok {
		ac.VerticalRate = vr
	}
	return ac, true
}

// jsonFloat extracts a float field from a state vector, tolerating nulls
// and short vectors.
func jsonFloat(state []json.RawMessage, idx int) (float64, bool) {
	if idx >= len(state) || state[idx] == nil {
		return 0, false
	}
	var v *float64
	if err := json.Unmarshal(state[idx], &v); err != nil || v == nil {
		return 0, false
	}
	return *v, true
}

// jsonString extracts a string field from a state vector.
func jsonString(state []json.RawMessage, idx int) (string, bool) {
	if idx >= len(state) || state[idx] == nil {
		return "", false
	}
	var v *string
	if err := json.Unmarshal(state[idx], &v); err != nil || v == nil {
		return "", false
	}
	return *v, true
}
