package aviationstack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/venskies/flightwatch/internal/clock"
	"github.com/venskies/flightwatch/internal/flight/domain"
	providerdomain "github.com/venskies/flightwatch/internal/provider/domain"
)

const defaultBaseURL = "http://api.aviationstack.com/v1"

// statusVocab maps AviationStack statuses onto the canonical enum. The feed
// already uses the canonical words; anything outside the table degrades to
// unknown rather than passing through.
var statusVocab = map[string]domain.Status{
	"scheduled": domain.StatusScheduled,
	"active":    domain.StatusActive,
	"landed":    domain.StatusLanded,
	"cancelled": domain.StatusCancelled,
	"incident":  domain.StatusIncident,
	"diverted":  domain.StatusDiverted,
}

// Adapter fetches flight movements from the AviationStack API.
type Adapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
	clock   clock.Clock
}

func New(apiKey string, clk clock.Clock) *Adapter {
	return &Adapter{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		clock:   clk,
	}
}

// NewWithBaseURL is used by tests to point the adapter at a fake server.
func NewWithBaseURL(apiKey, baseURL string, clk clock.Clock) *Adapter {
	a := New(apiKey, clk)
	a.baseURL = strings.TrimRight(baseURL, "/")
	return a
}

func (a *Adapter) Name() string { return "AviationStack" }

func (a *Adapter) FetchByAirport(ctx context.Context, iata string) ([]*domain.FlightRecord, error) {
	params := url.Values{}
	params.Set("access_key", a.apiKey)
	params.Set("dep_iata", iata)
	params.Set("limit", "100")
	return a.fetch(ctx, params)
}

func (a *Adapter) FetchByNumber(ctx context.Context, flightNum string) ([]*domain.FlightRecord, error) {
	params := url.Values{}
	params.Set("access_key", a.apiKey)
	params.Set("flight_iata", flightNum)
	params.Set("limit", "10")
	return a.fetch(ctx, params)
}

func (a *Adapter) fetch(ctx context.Context, params url.Values) ([]*domain.FlightRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/flights?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aviationstack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &providerdomain.RateLimitError{Provider: a.Name(), StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aviationstack: unexpected status %d", resp.StatusCode)
	}

	var payload flightsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("aviationstack: decode response: %w", err)
	}

	return a.mapRecords(payload.Data), nil
}

func (a *Adapter) mapRecords(data []rawFlight) []*domain.FlightRecord {
	now := a.clock.Now()
	records := make([]*domain.FlightRecord, 0, len(data))

	for _, f := range data {
		flightNum := firstNonEmpty(f.Flight.IATA, f.Flight.ICAO, f.Flight.Number)
		airline := firstNonEmpty(f.Airline.Name, f.Airline.IATA, "Unknown Airline")
		origin := firstNonEmpty(f.Departure.IATA, f.Departure.ICAO)
		arrivalIATA := firstNonEmpty(f.Arrival.IATA, f.Arrival.ICAO)

		status, ok := statusVocab[strings.ToLower(f.FlightStatus)]
		if !ok {
			status = domain.StatusUnknown
		}

		departureScheduled := providerdomain.ParseTime(f.Departure.Scheduled)
		departureActual := providerdomain.ParseTime(f.Departure.Actual)
		arrivalEstimated := providerdomain.ParseTime(firstNonEmpty(f.Arrival.Estimated, f.Arrival.Scheduled))
		arrivalActual := providerdomain.ParseTime(f.Arrival.Actual)

		// The feed sometimes reports a landed flight still as active; an
		// actual arrival time is authoritative.
		if arrivalActual != nil {
			status = domain.StatusLanded
		}

		flightDate := f.FlightDate
		if flightDate == "" {
			flightDate = providerdomain.CivilDate(departureScheduled, now)
		}

		rec := &domain.FlightRecord{
			FlightNum:          flightNum,
			FlightDate:         flightDate,
			Airline:            airline,
			Origin:             origin,
			ArrivalIATA:        arrivalIATA,
			Status:             status,
			DelayMinutes:       providerdomain.DelayMinutes(departureScheduled, departureActual, f.Departure.Delay),
			DepartureScheduled: departureScheduled,
			DepartureActual:    departureActual,
			ArrivalEstimated:   arrivalEstimated,
			ArrivalActual:      arrivalActual,
			TailNumber:         optional(f.Aircraft.Registration),
			ICAO24:             optional(f.Aircraft.ICAO24),
			CapturedAt:         now,
		}

		if providerdomain.Usable(rec) {
			records = append(records, rec)
		}
	}

	return records
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

type flightsResponse struct {
	Data []rawFlight `json:"data"`
}

type rawFlight struct {
	FlightDate   string `json:"flight_date"`
	FlightStatus string `json:"flight_status"`
	Departure    struct {
		IATA      string `json:"iata"`
		ICAO      string `json:"icao"`
		Scheduled string `json:"scheduled"`
		Actual    string `json:"actual"`
		Delay     int    `json:"delay"`
	} `json:"departure"`
	Arrival struct {
		IATA      string `json:"iata"`
		ICAO      string `json:"icao"`
		Scheduled string `json:"scheduled"`
		Estimated string `json:"estimated"`
		Actual    string `json:"actual"`
	} `json:"arrival"`
	Airline struct {
		Name string `json:"name"`
		IATA string `json:"iata"`
	} `json:"airline"`
	Flight struct {
		Number string `json:"number"`
		IATA   string `json:"iata"`
		ICAO   string `json:"icao"`
	} `json:"flight"`
	Aircraft struct {
		Registration string `json:"registration"`
		ICAO24       string `json:"icao24"`
	} `json:"aircraft"`
}
