package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// BulkUpsert writes records with upsert-on-conflict semantics on
	// (flight_num, flight_date). Conflicting rows are overwritten whole.
	BulkUpsert(ctx context.Context, db *gorm.DB, records []*FlightRecord) error

	FindByKey(ctx context.Context, db *gorm.DB, flightNum, flightDate string) (*FlightRecord, error)

	// CloseStaleActive closes active records whose estimated arrival is
	// older than cutoff to unknown/system-closed.
	CloseStaleActive(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)

	// CloseStaleScheduled closes scheduled records whose scheduled
	// departure is older than cutoff to unknown/system-closed.
	CloseStaleScheduled(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)

	// FindOpenWithTail returns open records with a known tail number whose
	// scheduled departure is older than departedBefore.
	FindOpenWithTail(ctx context.Context, db *gorm.DB, departedBefore time.Time) ([]*FlightRecord, error)

	// HasOnwardLeg reports whether another record shares rec's tail number,
	// departs later, and originates exactly at rec's arrival airport.
	HasOnwardLeg(ctx context.Context, db *gorm.DB, rec *FlightRecord) (bool, error)

	MarkLanded(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	// FindActiveDepartedBefore returns active records with a scheduled
	// departure older than cutoff, the ghost-check candidate set.
	FindActiveDepartedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]*FlightRecord, error)

	CloseUnknown(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	// FindEnrichmentCandidates selects records missing a tail number but
	// carrying a transponder hex id, with fewer than maxAttempts attempts,
	// never attempted or last attempted before retryBefore, most recent
	// scheduled departure first.
	FindEnrichmentCandidates(ctx context.Context, db *gorm.DB, retryBefore time.Time, maxAttempts, limit int) ([]*FlightRecord, error)

	// SetTailNumber records a successful resolution together with the
	// attempt bookkeeping.
	SetTailNumber(ctx context.Context, db *gorm.DB, id snowflake.ID, tailNumber string, attempts int, at time.Time) error

	// RecordEnrichmentAttempt bumps the attempt counter without touching
	// the tail number.
	RecordEnrichmentAttempt(ctx context.Context, db *gorm.DB, id snowflake.ID, attempts int, at time.Time) error

	CachedRegistration(ctx context.Context, db *gorm.DB, flightIATA string) (*AircraftRegistration, error)
	UpsertRegistration(ctx context.Context, db *gorm.DB, entry *AircraftRegistration) error
}
