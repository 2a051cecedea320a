package adsb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/skywatchers/skywatch/pkg/geo"
)

// stateVector builds an OpenSky-style heterogeneous state array.
func stateVector(t *testing.T, icao, callsign string, lon, lat, alt, vel, track float64) []json.RawMessage {
	t.Helper()
	fields := []interface{}{
		icao, callsign, "Switzerland", nil, nil,
		lon, lat, alt, false, vel, track, 0.0,
	}
	out := make([]json.RawMessage, len(fields))
	for i, f := range fields {
		b, err := json.Marshal(f)
		if err != nil {
			t.Fatalf("marshal state field %d: %v", i, err)
		}
		out[i] = b
	}
	return out
}

// TestOpenSkyFetchInRadius tests the bounding-box query plus precise
// radius post-filter.
func TestOpenSkyFetchInRadius(t *testing.T) {
	center := geo.Point{Latitude: 47.4582, Longitude: 8.5555}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/states/all" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		for _, param := range []string{"lamin", "lamax", "lomin", "lomax"} {
			if r.URL.Query().Get(param) == "" {
				t.Errorf("missing query param %s", param)
			}
		}
		resp := openSkyResponse{
			Time: 1700000000,
			States: [][]json.RawMessage{
				// ~2 km east of center: inside a 5 km radius
				stateVector(t, "4b1234", "SWR330 ", 8.582, 47.4582, 3000, 200, 90),
				// A degree of latitude away: inside the box corner test below
				stateVector(t, "4b9999", "DLH8PX", 8.5555, 48.4582, 9000, 250, 180),
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewOpenSkyClient(server.URL, "", "")
	aircraft, err := client.FetchInRadius(context.Background(), center, 5.0)
	if err != nil {
		t.Fatalf("FetchInRadius: %v", err)
	}

	if len(aircraft) != 1 {
		t.Fatalf("expected 1 aircraft after radius filter, got %d", len(aircraft))
	}
	ac := aircraft[0]
	if ac.ICAO != "4b1234" {
		t.Errorf("ICAO = %s, want 4b1234", ac.ICAO)
	}
	if ac.Callsign != "SWR330" {
		t.Errorf("Callsign = %q, want trimmed SWR330", ac.Callsign)
	}
	if ac.GroundSpeed != 200*3.6 {
		t.Errorf("GroundSpeed = %.1f km/h, want %.1f", ac.GroundSpeed, 200*3.6)
	}
	if !ac.ObservedAt.Equal(time.Unix(1700000000, 0).UTC()) {
		t.Errorf("ObservedAt = %v, want fetch time", ac.ObservedAt)
	}
}

// TestOpenSkyFetchByID tests lookup by ICAO address, including the
// not-found case.
func TestOpenSkyFetchByID(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("icao24"); got != "4b1234" {
				t.Errorf("icao24 = %q, want lowercased 4b1234", got)
			}
			resp := openSkyResponse{
				Time: 1700000000,
				States: [][]json.RawMessage{
					stateVector(t, "4b1234", "SWR330", 8.58, 47.46, 3000, 200, 90),
				},
			}
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		client := NewOpenSkyClient(server.URL, "", "")
		ac, err := client.FetchByID(context.Background(), "4B1234")
		if err != nil {
			t.Fatalf("FetchByID: %v", err)
		}
		if ac.ICAO != "4b1234" {
			t.Errorf("ICAO = %s, want 4b1234", ac.ICAO)
		}
	})

	t.Run("Not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(openSkyResponse{Time: 1700000000})
		}))
		defer server.Close()

		client := NewOpenSkyClient(server.URL, "", "")
		_, err := client.FetchByID(context.Background(), "deadbe")
		if err == nil {
			t.Fatal("expected error for unknown aircraft")
		}
		if !IsNotFound(err) {
			t.Errorf("KindOf(err) = %v, want not found", KindOf(err))
		}
	})
}

// TestOpenSkyErrorClassification tests mapping of HTTP failures onto
// error kinds.
func TestOpenSkyErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    ErrorKind
	}{
		{
			name: "Auth rejected",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			want: KindAuth,
		},
		{
			name: "Server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			want: KindNetwork,
		},
		{
			name: "Malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json at all"))
			},
			want: KindMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewOpenSkyClient(server.URL, "user", "pass")
			_, err := client.FetchInRadius(context.Background(), geo.Point{Latitude: 47, Longitude: 8}, 10)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := KindOf(err); got != tt.want {
				t.Errorf("KindOf(err) = %v, want %v (err: %v)", got, tt.want, err)
			}
		})
	}

	t.Run("Timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
		}))
		defer server.Close()

		client := NewOpenSkyClient(server.URL, "", "")
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := client.FetchInRadius(ctx, geo.Point{Latitude: 47, Longitude: 8}, 10)
		if err == nil {
			t.Fatal("expected timeout error")
		}
		if got := KindOf(err); got != KindTimeout {
			t.Errorf("KindOf(err) = %v, want timeout (err: %v)", got, err)
		}
	})
}

// TestErrorString sanity-checks the classified error message format.
func TestErrorString(t *testing.T) {
	err := newError(KindAuth, "opensky", nil)
	if !strings.Contains(err.Error(), "auth") {
		t.Errorf("Error() = %q, want kind label included", err.Error())
	}
}
