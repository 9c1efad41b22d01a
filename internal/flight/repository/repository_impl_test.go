package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/venskies/flightwatch/internal/flight/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) (*gorm.DB, *snowflake.Node) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&domain.FlightRecord{}, &domain.AircraftRegistration{}))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)
	return db, node
}

func tp(v time.Time) *time.Time { return &v }

func sp(v string) *string { return &v }

func seedRecord(t *testing.T, db *gorm.DB, node *snowflake.Node, mutate func(*domain.FlightRecord)) *domain.FlightRecord {
	t.Helper()
	rec := &domain.FlightRecord{
		ID:          node.Generate(),
		FlightNum:   "9V1234",
		FlightDate:  "2025-03-01",
		Airline:     "Avior Airlines",
		Origin:      "CCS",
		ArrivalIATA: "MAR",
		Status:      domain.StatusScheduled,
		CapturedAt:  time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	if mutate != nil {
		mutate(rec)
	}
	assert.NoError(t, db.Create(rec).Error)
	return rec
}

func TestBulkUpsert_Idempotent(t *testing.T) {
	db, node := setupDB(t)
	repo := Provide()
	ctx := context.Background()

	rec := &domain.FlightRecord{
		ID:          node.Generate(),
		FlightNum:   "9V1234",
		FlightDate:  "2025-03-01",
		Airline:     "Avior Airlines",
		Origin:      "CCS",
		ArrivalIATA: "MAR",
		Status:      domain.StatusScheduled,
		CapturedAt:  time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	assert.NoError(t, repo.BulkUpsert(ctx, db, []*domain.FlightRecord{rec}))

	// Same key again with a new id and updated status: no second row.
	update := &domain.FlightRecord{
		ID:          node.Generate(),
		FlightNum:   "9V1234",
		FlightDate:  "2025-03-01",
		Airline:     "Avior Airlines",
		Origin:      "CCS",
		ArrivalIATA: "MAR",
		Status:      domain.StatusActive,
		CapturedAt:  time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	assert.NoError(t, repo.BulkUpsert(ctx, db, []*domain.FlightRecord{update}))

	var count int64
	assert.NoError(t, db.Model(&domain.FlightRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	got, err := repo.FindByKey(ctx, db, "9V1234", "2025-03-01")
	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, domain.StatusActive, got.Status)
	// The original row id survives the overwrite.
	assert.Equal(t, rec.ID, got.ID)
}

func TestBulkUpsert_DistinctDatesAreDistinctRows(t *testing.T) {
	db, node := setupDB(t)
	repo := Provide()
	ctx := context.Background()

	for _, date := range []string{"2025-03-01", "2025-03-02"} {
		rec := &domain.FlightRecord{
			ID:          node.Generate(),
			FlightNum:   "9V1234",
			FlightDate:  date,
			Origin:      "CCS",
			ArrivalIATA: "MAR",
			Status:      domain.StatusScheduled,
			CapturedAt:  time.Now().UTC(),
		}
		assert.NoError(t, repo.BulkUpsert(ctx, db, []*domain.FlightRecord{rec}))
	}

	var count int64
	assert.NoError(t, db.Model(&domain.FlightRecord{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestCloseStaleActive(t *testing.T) {
	db, node := setupDB(t)
	repo := Provide()
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

	stale := seedRecord(t, db, node, func(r *domain.FlightRecord) {
		r.Status = domain.StatusActive
		r.ArrivalEstimated = tp(now.Add(-5 * time.Hour))
	})
	fresh := seedRecord(t, db, node, func(r *domain.FlightRecord) {
		r.FlightNum = "9V5678"
		r.Status = domain.StatusActive
		r.ArrivalEstimated = tp(now.Add(-1 * time.Hour))
	})

	n, err := repo.CloseStaleActive(ctx, db, now.Add(-4*time.Hour))
	assert.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var got domain.FlightRecord
	assert.NoError(t, db.First(&got, "id = ?", stale.ID).Error)
	assert.Equal(t, domain.StatusUnknown, got.Status)
	assert.True(t, got.IsSystemClosed)

	got = domain.FlightRecord{}
	assert.NoError(t, db.First(&got, "id = ?", fresh.ID).Error)
	assert.Equal(t, domain.StatusActive, got.Status)
	assert.False(t, got.IsSystemClosed)
}

func TestCloseStaleScheduled(t *testing.T) {
	db, node := setupDB(t)
	repo := Provide()
	ctx := context.Background()
	now := time.Date(2025, 3, 2, 6, 0, 0, 0, time.UTC)

	stale := seedRecord(t, db, node, func(r *domain.FlightRecord) {
		r.DepartureScheduled = tp(now.Add(-13 * time.Hour))
	})
	seedRecord(t, db, node, func(r *domain.FlightRecord) {
		r.FlightNum = "9V5678"
		r.DepartureScheduled = tp(now.Add(-2 * time.Hour))
	})

	n, err := repo.CloseStaleScheduled(ctx, db, now.Add(-12*time.Hour))
	assert.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var got domain.FlightRecord
	assert.NoError(t, db.First(&got, "id = ?", stale.ID).Error)
	assert.Equal(t, domain.StatusUnknown, got.Status)
}

func TestHasOnwardLeg_ExactAirportMatchOnly(t *testing.T) {
	db, node := setupDB(t)
	repo := Provide()
	ctx := context.Background()
	departed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	stuck := seedRecord(t, db, node, func(r *domain.FlightRecord) {
		r.Status = domain.StatusActive
		r.TailNumber = sp("YV3032")
		r.DepartureScheduled = tp(departed)
		r.ArrivalIATA = "MAR"
	})

	// Later leg by the same tail, departing from a different airport.
	seedRecord(t, db, node, func(r *domain.FlightRecord) {
		r.FlightNum = "9V9001"
		r.TailNumber = sp("YV3032")
		r.Origin = "CCS"
		r.ArrivalIATA = "PMV"
		r.DepartureScheduled = tp(departed.Add(3 * time.Hour))
	})

	ok, err := repo.HasOnwardLeg(ctx, db, stuck)
	assert.NoError(t, err)
	assert.False(t, ok)

	// A later leg departing exactly from the stuck record's arrival airport.
	seedRecord(t, db, node, func(r *domain.FlightRecord) {
		r.FlightNum = "9V9002"
		r.TailNumber = sp("YV3032")
		r.Origin = "MAR"
		r.ArrivalIATA = "CCS"
		r.DepartureScheduled = tp(departed.Add(4 * time.Hour))
	})

	ok, err = repo.HasOnwardLeg(ctx, db, stuck)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestFindEnrichmentCandidates(t *testing.T) {
	db, node := setupDB(t)
	repo := Provide()
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	retryBefore := now.Add(-24 * time.Hour)

	eligible := seedRecord(t, db, node, func(r *domain.FlightRecord) {
		r.ICAO24 = sp("0d86c0")
		r.DepartureScheduled = tp(now.Add(-1 * time.Hour))
	})
	// Already has a tail number.
	seedRecord(t, db, node, func(r *domain.FlightRecord) {
		r.FlightNum = "9V0001"
		r.ICAO24 = sp("0d86c1")
		r.TailNumber = sp("YV1000")
	})
	// No hex id to look up.
	seedRecord(t, db, node, func(r *domain.FlightRecord) {
		r.FlightNum = "9V0002"
	})
	// Exhausted its attempts.
	seedRecord(t, db, node, func(r *domain.FlightRecord) {
		r.FlightNum = "9V0003"
		r.ICAO24 = sp("0d86c2")
		r.EnrichmentAttempts = 3
	})
	// Attempted too recently.
	seedRecord(t, db, node, func(r *domain.FlightRecord) {
		r.FlightNum = "9V0004"
		r.ICAO24 = sp("0d86c3")
		r.EnrichmentAttempts = 1
		r.LastEnrichmentAttempt = tp(now.Add(-1 * time.Hour))
	})
	// Cooled down, eligible again.
	cooled := seedRecord(t, db, node, func(r *domain.FlightRecord) {
		r.FlightNum = "9V0005"
		r.ICAO24 = sp("0d86c4")
		r.EnrichmentAttempts = 2
		r.LastEnrichmentAttempt = tp(now.Add(-30 * time.Hour))
		r.DepartureScheduled = tp(now.Add(-6 * time.Hour))
	})

	got, err := repo.FindEnrichmentCandidates(ctx, db, retryBefore, 3, 20)
	assert.NoError(t, err)
	assert.Len(t, got, 2)
	// Most recent scheduled departure first.
	assert.Equal(t, eligible.ID, got[0].ID)
	assert.Equal(t, cooled.ID, got[1].ID)

	limited, err := repo.FindEnrichmentCandidates(ctx, db, retryBefore, 3, 1)
	assert.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRegistrationRoundTrip(t *testing.T) {
	db, _ := setupDB(t)
	repo := Provide()
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	missing, err := repo.CachedRegistration(ctx, db, "9V1234")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	assert.NoError(t, repo.UpsertRegistration(ctx, db, &domain.AircraftRegistration{
		FlightIATA: "9V1234",
		TailNumber: "YV3032",
		LastSeen:   now,
	}))
	assert.NoError(t, repo.UpsertRegistration(ctx, db, &domain.AircraftRegistration{
		FlightIATA: "9V1234",
		TailNumber: "YV3099",
		LastSeen:   now.Add(time.Hour),
	}))

	got, err := repo.CachedRegistration(ctx, db, "9V1234")
	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, "YV3099", got.TailNumber)
}
