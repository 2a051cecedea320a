package adsb

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/skywatchers/skywatch/pkg/geo"
)

const (
	// ADSBExchangeBaseURL is the RapidAPI endpoint for ADS-B Exchange v2
	ADSBExchangeBaseURL = "https://adsbexchange-com1.p.rapidapi.com/v2"

	adsbxSource = "adsbexchange"

	// Unit conversions for the feet/knots-native readsb schema
	feetToMeters   = 0.3048
	knotsToKmh     = 1.852
	fpmToMps       = feetToMeters / 60.0
	maxQueryDistNM = 250.0
)

// ADSBExchangeClient implements DataSource against the ADS-B Exchange
// API (RapidAPI edition). Requests carry the API key in RapidAPI headers.
type ADSBExchangeClient struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	minInterval time.Duration
}

// NewADSBExchangeClient creates an ADS-B Exchange API client.
// requestsPerMinute bounds the client-side call rate; 0 selects a
// conservative default of one request every two seconds.
func NewADSBExchangeClient(baseURL, apiKey string, requestsPerMinute int) *ADSBExchangeClient {
	if baseURL == "" {
		baseURL = ADSBExchangeBaseURL
	}
	interval := 2 * time.Second
	if requestsPerMinute > 0 {
		interval = time.Minute / time.Duration(requestsPerMinute)
	}
	return &ADSBExchangeClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter:     rate.NewLimiter(rate.Every(interval), 1),
		minInterval: interval,
	}
}

// MinInterval returns the minimum spacing the client's rate limiter
// enforces between requests.
func (c *ADSBExchangeClient) MinInterval() time.Duration {
	return c.minInterval
}

// FetchInRadius returns all aircraft within radiusKm of center.
// Uses the /lat/{lat}/lon/{lon}/dist/{nm} endpoint and post-filters with
// the precise great-circle distance.
func (c *ADSBExchangeClient) FetchInRadius(ctx context.Context, center geo.Point, radiusKm float64) ([]Aircraft, error) {
	distNM := math.Ceil(radiusKm / geo.KmPerNauticalMile)
	if distNM > maxQueryDistNM {
		distNM = maxQueryDistNM
	}

	path := fmt.Sprintf("/lat/%.4f/lon/%.4f/dist/%.0f/", center.Latitude, center.Longitude, distNM)
	envelope, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	aircraft := make([]Aircraft, 0, len(envelope.Aircraft))
	for _, raw := range envelope.Aircraft {
		ac, ok := convertADSBXAircraft(raw, envelope.Now)
		if !ok {
			continue
		}
		if geo.WithinRadius(center, ac.Position(), radiusKm) {
			aircraft = append(aircraft, ac)
		}
	}
	return aircraft, nil
}

// FetchByID returns a specific aircraft by ICAO hex address via the
// /hex/{hex} endpoint.
func (c *ADSBExchangeClient) FetchByID(ctx context.Context, icao string) (*Aircraft, error) {
	envelope, err := c.get(ctx, fmt.Sprintf("/hex/%s/", strings.ToLower(icao)))
	if err != nil {
		return nil, err
	}
	for _, raw := range envelope.Aircraft {
		if ac, ok := convertADSBXAircraft(raw, envelope.Now); ok {
			return &ac, nil
		}
	}
	return nil, newError(KindNotFound, adsbxSource, fmt.Errorf("aircraft %s not tracked", icao))
}

// Close cleanly shuts down the client. No persistent connections.
func (c *ADSBExchangeClient) Close() error {
	return nil
}

func (c *ADSBExchangeClient) get(ctx context.Context, path string) (*adsbxResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, classifyTransportErr(adsbxSource, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, newError(KindNetwork, adsbxSource, err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", "adsbexchange-com1.p.rapidapi.com")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportErr(adsbxSource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(adsbxSource, resp.StatusCode)
	}

	var envelope adsbxResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, newError(KindMalformed, adsbxSource, err)
	}
	return &envelope, nil
}

// adsbxResponse is the JSON envelope of the v2 endpoints.
type adsbxResponse struct {
	Aircraft []adsbxAircraft `json:"ac"`
	Total    int             `json:"total"`
	Now      int64           `json:"now"` // epoch milliseconds
}

// adsbxAircraft is one aircraft in the readsb-style response. Optional
// fields are pointers; alt_baro can be the string "ground".
type adsbxAircraft struct {
	Hex      string      `json:"hex"`
	Flight   *string     `json:"flight"`
	Lat      *float64    `json:"lat"`
	Lon      *float64    `json:"lon"`
	AltBaro  interface{} `json:"alt_baro"`
	AltGeom  interface{} `json:"alt_geom"`
	Gs       *float64    `json:"gs"`
	Track    *float64    `json:"track"`
	BaroRate *float64    `json:"baro_rate"`
	Seen     *float64    `json:"seen"`
}

// convertADSBXAircraft converts a readsb record to the common Aircraft
// shape, translating feet/knots to metric. Returns ok=false for records
// without a position.
func convertADSBXAircraft(raw adsbxAircraft, nowMillis int64) (Aircraft, bool) {
	if raw.Lat == nil || raw.Lon == nil || raw.Hex == "" {
		return Aircraft{}, false
	}

	ac := Aircraft{
		ICAO:      raw.Hex,
		Latitude:  *raw.Lat,
		Longitude: *raw.Lon,
	}
	if raw.Flight != nil {
		ac.Callsign = strings.TrimSpace(*raw.Flight)
	}

	// Prefer geometric (GPS) altitude over barometric
	if alt, ok := parseAltitudeFeet(raw.AltGeom); ok {
		ac.Altitude = alt * feetToMeters
	} else if alt, ok := parseAltitudeFeet(raw.AltBaro); ok {
		ac.Altitude = alt * feetToMeters
	}

	if raw.Gs != nil {
		ac.GroundSpeed = *raw.Gs * knotsToKmh
	}
	if raw.Track != nil {
		ac.Track = *raw.Track
	}
	if raw.BaroRate != nil {
		ac.VerticalRate = *raw.BaroRate * fpmToMps
	}

	// Observation time = server time minus "seen" seconds
	observed := time.Now().UTC()
	if nowMillis > 0 {
		observed = time.UnixMilli(nowMillis).UTC()
	}
	if raw.Seen != nil {
		observed = observed.Add(-time.Duration(*raw.Seen * float64(time.Second)))
	}
	ac.ObservedAt = observed

	return ac, true
}

// parseAltitudeFeet extracts altitude from a field that can be a float
// or the string "ground".
func parseAltitudeFeet(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case string:
		if v == "ground" {
			return 0, true
		}
		return 0, false
	default:
		return 0, false
	}
}
