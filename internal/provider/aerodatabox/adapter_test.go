package aerodatabox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/venskies/flightwatch/internal/clock"
	"github.com/venskies/flightwatch/internal/flight/domain"
	providerdomain "github.com/venskies/flightwatch/internal/provider/domain"
	"github.com/stretchr/testify/assert"
)

const fidsPayload = `{
  "departures": [
    {
      "number": "V0 1402",
      "status": "Boarding",
      "airline": {"name": "Conviasa"},
      "departure": {"scheduledTime": {"local": "2025-03-01 10:00-04:00"}, "revisedTime": {"local": "2025-03-01 10:30-04:00"}},
      "arrival": {"airport": {"iata": "PMV"}, "scheduledTime": {"local": "2025-03-01 11:00-04:00"}},
      "aircraft": {"reg": "YV3016", "modeS": "0d8a2f"}
    }
  ],
  "arrivals": [
    {
      "number": "LA 5678",
      "status": "Arrived",
      "airline": {"name": "LATAM"},
      "departure": {"airport": {"iata": "BOG"}, "scheduledTime": {"local": "2025-03-01 08:00-05:00"}},
      "arrival": {"scheduledTime": {"local": "2025-03-01 10:10-04:00"}, "revisedTime": {"local": "2025-03-01 10:05-04:00"}},
      "aircraft": {}
    },
    {
      "number": "",
      "status": "Expected",
      "departure": {"airport": {"iata": "MIA"}},
      "arrival": {}
    }
  ]
}`

func TestFetchByAirport_ResolvesBothDirections(t *testing.T) {
	var gotHeader, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("x-rapidapi-key")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fidsPayload))
	}))
	defer srv.Close()

	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC))
	adapter := NewWithBaseURL("rapid-key", srv.URL, clk)

	records, err := adapter.FetchByAirport(context.Background(), "CCS")
	assert.NoError(t, err)
	assert.Equal(t, "rapid-key", gotHeader)
	assert.Equal(t, "/flights/airports/iata/CCS", gotPath)

	// The record without a flight number is dropped.
	assert.Len(t, records, 2)

	dep := records[0]
	assert.Equal(t, "V0 1402", dep.FlightNum)
	assert.Equal(t, "CCS", dep.Origin)
	assert.Equal(t, "PMV", dep.ArrivalIATA)
	assert.Equal(t, domain.StatusScheduled, dep.Status)
	assert.Equal(t, 30, dep.DelayMinutes)
	assert.Equal(t, "2025-03-01", dep.FlightDate)
	assert.NotNil(t, dep.TailNumber)
	assert.Equal(t, "YV3016", *dep.TailNumber)
	assert.NotNil(t, dep.ICAO24)
	assert.Equal(t, "0d8a2f", *dep.ICAO24)

	arr := records[1]
	assert.Equal(t, "LA 5678", arr.FlightNum)
	assert.Equal(t, "BOG", arr.Origin)
	assert.Equal(t, "CCS", arr.ArrivalIATA)
	assert.Equal(t, domain.StatusLanded, arr.Status)
	assert.Nil(t, arr.TailNumber)
}

func TestStatusVocabulary(t *testing.T) {
	cases := map[string]domain.Status{
		"Expected":          domain.StatusScheduled,
		"CheckIn":           domain.StatusScheduled,
		"GateClosed":        domain.StatusScheduled,
		"Delayed":           domain.StatusScheduled,
		"EnRoute":           domain.StatusActive,
		"Departed":          domain.StatusActive,
		"Approaching":       domain.StatusActive,
		"Arrived":           domain.StatusLanded,
		"Canceled":          domain.StatusCancelled,
		"CanceledUncertain": domain.StatusCancelled,
		"Diverted":          domain.StatusDiverted,
		"SomethingElse":     domain.StatusUnknown,
	}

	clk := clock.NewFakeClock(time.Now())
	adapter := New("k", clk)

	for raw, want := range cases {
		var f rawFlight
		payload := fmt.Sprintf(`{"number":"XX 100","status":%q,"departure":{"airport":{"iata":"CCS"}}}`, raw)
		assert.NoError(t, json.Unmarshal([]byte(payload), &f))

		records := adapter.mapRecords([]rawFlight{f}, "MAR", directionArrival)
		assert.Len(t, records, 1, raw)
		assert.Equal(t, want, records[0].Status, raw)
	}
}

func TestFetchByAirport_EveningFlightKeepsLocalDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"departures": [{
				"number": "9V1234",
				"status": "Expected",
				"departure": {"scheduledTime": {"local": "2025-03-01 23:30-04:00"}},
				"arrival": {"airport": {"iata": "MAR"}}
			}]
		}`))
	}))
	defer srv.Close()

	// Capture time is past midnight UTC; the key still carries the local
	// calendar day, matching what a flight_date-bearing source reports.
	clk := clock.NewFakeClock(time.Date(2025, 3, 2, 3, 45, 0, 0, time.UTC))
	adapter := NewWithBaseURL("k", srv.URL, clk)

	records, err := adapter.FetchByAirport(context.Background(), "CCS")
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "2025-03-01", records[0].FlightDate)
	assert.Equal(t, "9V1234|2025-03-01", records[0].Key())
}

func TestFetchByNumber_RateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	adapter := NewWithBaseURL("k", srv.URL, clock.NewFakeClock(time.Now()))
	_, err := adapter.FetchByNumber(context.Background(), "V0 1402")
	assert.Error(t, err)
	assert.True(t, providerdomain.IsRateLimit(err))
}
