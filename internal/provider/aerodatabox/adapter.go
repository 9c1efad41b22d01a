package aerodatabox

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

const (
	defaultBaseURL = "https://aerodatabox.p.rapidapi.com"
	rapidAPIHost   = "aerodatabox.p.rapidapi.com"

	// FIDS window: 2 hours back, 12 hours forward, both directions.
	fidsOffsetMinutes   = -120
	fidsDurationMinutes = 720
)

// statusVocab translates the AeroDataBox status vocabulary. Pre-departure
// ground states collapse into scheduled; in-air states into active.
var statusVocab = map[string]domain.Status{
	"scheduled":         domain.StatusScheduled,
	"expected":          domain.StatusScheduled,
	"checkin":           domain.StatusScheduled,
	"boarding":          domain.StatusScheduled,
	"gateclosed":        domain.StatusScheduled,
	"delayed":           domain.StatusScheduled,
	"active":            domain.StatusActive,
	"enroute":           domain.StatusActive,
	"departed":          domain.StatusActive,
	"approaching":       domain.StatusActive,
	"landed":            domain.StatusLanded,
	"arrived":           domain.StatusLanded,
	"canceled":          domain.StatusCancelled,
	"canceleduncertain": domain.StatusCancelled,
	"diverted":          domain.StatusDiverted,
}

type direction int

const (
	directionAny direction = iota
	directionDeparture
	directionArrival
)

// Adapter fetches flight movements from the AeroDataBox API via RapidAPI.
// AeroDataBox serves departures and arrivals as separate lists in one FIDS
// response; each list resolves the queried airport to the matching side.
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
		client:  &http.Client{Timeout: 15 * time.Second},
		clock:   clk,
	}
}

// NewWithBaseURL is used by tests to point the adapter at a fake server.
func NewWithBaseURL(apiKey, baseURL string, clk clock.Clock) *Adapter {
	a := New(apiKey, clk)
	a.baseURL = strings.TrimRight(baseURL, "/")
	return a
}

func (a *Adapter) Name() string { return "AeroDataBox" }

func (a *Adapter) FetchByAirport(ctx context.Context, iata string) ([]*domain.FlightRecord, error) {
	params := url.Values{}
	params.Set("offsetMinutes", fmt.Sprint(fidsOffsetMinutes))
	params.Set("durationMinutes", fmt.Sprint(fidsDurationMinutes))
	params.Set("withLeg", "true")
	params.Set("direction", "Both")
	params.Set("withCancelled", "true")
	params.Set("withCodeshared", "true")
	params.Set("withCargo", "true")
	params.Set("withPrivate", "true")
	params.Set("withLocation", "false")

	var payload fidsResponse
	if err := a.get(ctx, "/flights/airports/iata/"+iata+"?"+params.Encode(), &payload); err != nil {
		return nil, err
	}

	records := a.mapRecords(payload.Departures, iata, directionDeparture)
	records = append(records, a.mapRecords(payload.Arrivals, iata, directionArrival)...)
	return records, nil
}

func (a *Adapter) FetchByNumber(ctx context.Context, flightNum string) ([]*domain.FlightRecord, error) {
	var payload []rawFlight
	if err := a.get(ctx, "/flights/number/"+url.PathEscape(flightNum), &payload); err != nil {
		return nil, err
	}
	return a.mapRecords(payload, "", directionAny), nil
}

func (a *Adapter) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-rapidapi-key", a.apiKey)
	req.Header.Set("x-rapidapi-host", rapidAPIHost)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("aerodatabox: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &providerdomain.RateLimitError{Provider: a.Name(), StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("aerodatabox: unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("aerodatabox: decode response: %w", err)
	}
	return nil
}

func (a *Adapter) mapRecords(data []rawFlight, contextIATA string, dir direction) []*domain.FlightRecord {
	now := a.clock.Now()
	records := make([]*domain.FlightRecord, 0, len(data))

	for _, f := range data {
		airline := f.Airline.Name
		if airline == "" {
			airline = "Unknown Airline"
		}

		var origin, arrivalIATA string
		switch dir {
		case directionDeparture:
			origin = contextIATA
			arrivalIATA = f.Arrival.Airport.IATA
		case directionArrival:
			origin = f.Departure.Airport.IATA
			arrivalIATA = contextIATA
		default:
			origin = f.Departure.Airport.IATA
			arrivalIATA = f.Arrival.Airport.IATA
		}

		status, ok := statusVocab[strings.ToLower(f.Status)]
		if !ok {
			status = domain.StatusUnknown
		}

		departureScheduled := providerdomain.ParseTime(f.Departure.ScheduledTime.Local)
		departureActual := providerdomain.ParseTime(f.Departure.RevisedTime.Local)
		arrivalEstimated := providerdomain.ParseTime(f.Arrival.ScheduledTime.Local)
		arrivalActual := providerdomain.ParseTime(f.Arrival.RevisedTime.Local)

		rec := &domain.FlightRecord{
			FlightNum:          f.Number,
			FlightDate:         providerdomain.CivilDate(departureScheduled, now),
			Airline:            airline,
			Origin:             origin,
			ArrivalIATA:        arrivalIATA,
			Status:             status,
			DelayMinutes:       providerdomain.DelayMinutes(departureScheduled, departureActual, 0),
			DepartureScheduled: departureScheduled,
			DepartureActual:    departureActual,
			ArrivalEstimated:   arrivalEstimated,
			ArrivalActual:      arrivalActual,
			TailNumber:         optional(f.Aircraft.Reg),
			ICAO24:             optional(f.Aircraft.ModeS),
			CapturedAt:         now,
		}

		if providerdomain.Usable(rec) {
			records = append(records, rec)
		}
	}

	return records
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

type fidsResponse struct {
	Departures []rawFlight `json:"departures"`
	Arrivals   []rawFlight `json:"arrivals"`
}

type rawTime struct {
	Local string `json:"local"`
	UTC   string `json:"utc"`
}

type rawFlight struct {
	Number  string `json:"number"`
	Status  string `json:"status"`
	Airline struct {
		Name string `json:"name"`
	} `json:"airline"`
	Departure struct {
		Airport struct {
			IATA string `json:"iata"`
		} `json:"airport"`
		ScheduledTime rawTime `json:"scheduledTime"`
		RevisedTime   rawTime `json:"revisedTime"`
	} `json:"departure"`
	Arrival struct {
		Airport struct {
			IATA string `json:"iata"`
		} `json:"airport"`
		ScheduledTime rawTime `json:"scheduledTime"`
		RevisedTime   rawTime `json:"revisedTime"`
	} `json:"arrival"`
	Aircraft struct {
		Reg   string `json:"reg"`
		ModeS string `json:"modeS"`
	} `json:"aircraft"`
}
