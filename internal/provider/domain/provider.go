package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	flightdomain "github.com/venskies/flightwatch/internal/flight/domain"
)

// Provider is one external flight-movement source. Each implementation owns
// its transport and credentials and translates its own status vocabulary
// into the canonical enum before records leave the adapter.
type Provider interface {
	Name() string
	FetchByAirport(ctx context.Context, iata string) ([]*flightdomain.FlightRecord, error)
	FetchByNumber(ctx context.Context, flightNum string) ([]*flightdomain.FlightRecord, error)
}

// RateLimitError marks an upstream quota rejection. It is a recoverable,
// expected condition and is excluded from alerting.
type RateLimitError struct {
	Provider   string
	StatusCode int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("provider %s rate limited (status %d)", e.Provider, e.StatusCode)
}

// IsRateLimit reports whether err is a provider rate-limit rejection.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// DelayMinutes derives the departure delay. When both scheduled and actual
// times are known the delay is their difference in rounded minutes, clamped
// at zero; otherwise the source's own delay value is used as-is.
func DelayMinutes(scheduled, actual *time.Time, sourceDelay int) int {
	if scheduled != nil && actual != nil {
		d := int(actual.Sub(*scheduled).Round(time.Minute) / time.Minute)
		if d < 0 {
			return 0
		}
		return d
	}
	if sourceDelay < 0 {
		return 0
	}
	return sourceDelay
}

// CivilDate renders the flight-date key component from the scheduled
// departure, falling back to the capture time. The date is taken in the
// timestamp's own offset: an evening departure in a western zone belongs
// to its local calendar day, not the UTC one.
func CivilDate(departureScheduled *time.Time, capturedAt time.Time) string {
	if departureScheduled != nil {
		return departureScheduled.Format("2006-01-02")
	}
	return capturedAt.Format("2006-01-02")
}

// Usable filters records missing a resolvable flight number, origin, or
// arrival airport. Such records are expected noise and are dropped before
// they enter the pipeline.
func Usable(rec *flightdomain.FlightRecord) bool {
	return rec.FlightNum != "" && rec.FlightNum != "UNKNOWN" &&
		rec.Origin != "" && rec.Origin != "UNKNOWN" &&
		rec.ArrivalIATA != "" && rec.ArrivalIATA != "UNKNOWN"
}
