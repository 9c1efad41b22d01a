package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/venskies/flightwatch/internal/config"
)

const defaultBaseURL = "https://opensky-network.org/api"

// State is one live aircraft position from the regional snapshot. Only the
// fields the ghost check reads are decoded.
type State struct {
	ICAO24   string
	Callsign string
	OnGround bool
}

// Snapshotter fetches one live-telemetry snapshot for the tracked region.
// The snapshot is taken once per verification run, not once per candidate,
// to bound external call volume.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]State, error)
}

// Client queries the OpenSky /states/all endpoint with the configured
// bounding box.
type Client struct {
	baseURL string
	bounds  config.TelemetryConfig
	client  *http.Client
}

func NewClient(bounds config.TelemetryConfig) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		bounds:  bounds,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a fake server.
func NewClientWithBaseURL(bounds config.TelemetryConfig, baseURL string) *Client {
	c := NewClient(bounds)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *Client) Snapshot(ctx context.Context) ([]State, error) {
	url := fmt.Sprintf("%s/states/all?lamin=%g&lomin=%g&lamax=%g&lomax=%g",
		c.baseURL, c.bounds.LatMin, c.bounds.LonMin, c.bounds.LatMax, c.bounds.LonMax)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telemetry: unexpected status %d", resp.StatusCode)
	}

	// OpenSky serves state vectors as positional arrays:
	// index 0 icao24, 1 callsign, 8 on_ground.
	var payload struct {
		States [][]json.RawMessage `json:"states"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("telemetry: decode response: %w", err)
	}

	states := make([]State, 0, len(payload.States))
	for _, raw := range payload.States {
		if len(raw) < 9 {
			continue
		}
		var s State
		if err := json.Unmarshal(raw[0], &s.ICAO24); err != nil {
			continue
		}
		_ = json.Unmarshal(raw[1], &s.Callsign)
		_ = json.Unmarshal(raw[8], &s.OnGround)
		s.Callsign = strings.TrimSpace(s.Callsign)
		states = append(states, s)
	}
	return states, nil
}

// MatchesCallsign reports whether the snapshot contains the callsign.
// Callsigns in the feed are padded and occasionally truncated, so matching
// is normalized (whitespace stripped, uppercased) and accepts substrings.
// A match on the ground still counts: for ghost detection, seen is enough.
func MatchesCallsign(states []State, callsign string) bool {
	target := normalizeCallsign(callsign)
	if target == "" {
		return false
	}
	for _, s := range states {
		source := normalizeCallsign(s.Callsign)
		if source == "" {
			continue
		}
		if source == target || strings.Contains(source, target) {
			return true
		}
	}
	return false
}

func normalizeCallsign(callsign string) string {
	return strings.ToUpper(strings.Join(strings.Fields(callsign), ""))
}
