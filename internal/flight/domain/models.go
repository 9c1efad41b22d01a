package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the canonical flight status every provider vocabulary
// normalizes into.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusLanded    Status = "landed"
	StatusCancelled Status = "cancelled"
	StatusIncident  Status = "incident"
	StatusDiverted  Status = "diverted"

	// StatusUnknown is both the fallback for unmapped provider vocabulary
	// and the terminal state every resolver heuristic closes to. Providers
	// never report it as a real status of their own.
	StatusUnknown Status = "unknown"
)

// Terminal reports whether s belongs to the closed subset.
func (s Status) Terminal() bool {
	switch s {
	case StatusLanded, StatusCancelled, StatusIncident, StatusDiverted, StatusUnknown:
		return true
	}
	return false
}

// Open reports whether s is one of the open states resolvers scan.
func (s Status) Open() bool {
	return s == StatusScheduled || s == StatusActive
}

// FlightRecord is one observed leg of a flight. The composite key
// (flight_num, flight_date) is unique; upserts overwrite the whole row
// (last write wins), never merge per field. Rows are never deleted.
type FlightRecord struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	FlightNum  string       `gorm:"column:flight_num;not null;uniqueIndex:ux_flights_history_num_date" json:"flight_num"`
	FlightDate string       `gorm:"column:flight_date;not null;uniqueIndex:ux_flights_history_num_date" json:"flight_date"`
	Airline    string       `gorm:"not null" json:"airline"`
	Origin     string       `gorm:"not null;index" json:"origin"`
	// ArrivalIATA is matched exactly against the next leg's origin by the
	// next-leg resolver; no fuzzy airport matching.
	ArrivalIATA string `gorm:"column:arrival_iata;not null" json:"arrival_iata"`

	Status Status `gorm:"not null;index" json:"status"`
	// DelayMinutes is never negative; early departures count as zero delay.
	DelayMinutes int `gorm:"not null;default:0" json:"delay_minutes"`

	DepartureScheduled *time.Time `gorm:"index" json:"departure_scheduled,omitempty"`
	DepartureActual    *time.Time `json:"departure_actual,omitempty"`
	ArrivalEstimated   *time.Time `json:"arrival_estimated,omitempty"`
	ArrivalActual      *time.Time `json:"arrival_actual,omitempty"`

	TailNumber *string `gorm:"index" json:"tail_number,omitempty"`
	ICAO24     *string `gorm:"column:icao24" json:"icao24,omitempty"`

	CapturedAt time.Time `gorm:"not null" json:"captured_at"`

	// IsSystemClosed marks a terminal status assigned by a resolver
	// heuristic rather than observed from a provider.
	IsSystemClosed bool `gorm:"not null;default:false" json:"is_system_closed"`

	EnrichmentAttempts    int        `gorm:"not null;default:0" json:"enrichment_attempts"`
	LastEnrichmentAttempt *time.Time `json:"last_enrichment_attempt,omitempty"`
}

func (FlightRecord) TableName() string {
	return "flights_history"
}

// Key identifies a record within one reconciliation pass.
func (r *FlightRecord) Key() string {
	return r.FlightNum + "|" + r.FlightDate
}

// HasTailNumber reports whether the record already carries a usable
// aircraft identity.
func (r *FlightRecord) HasTailNumber() bool {
	return r.TailNumber != nil && *r.TailNumber != "" && *r.TailNumber != "UNKNOWN"
}

// AircraftRegistration caches a resolved flight-number to tail-number
// mapping. Consulted before any external lookup; refreshed on every
// successful resolution.
type AircraftRegistration struct {
	FlightIATA string    `gorm:"column:flight_iata;primaryKey" json:"flight_iata"`
	TailNumber string    `gorm:"not null" json:"tail_number"`
	LastSeen   time.Time `gorm:"not null" json:"last_seen"`
}

func (AircraftRegistration) TableName() string {
	return "aircraft_cache"
}
