package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/venskies/flightwatch/internal/flight/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// flightConflict targets the composite key; the whole row is replaced on
// conflict so a later pass always wins over an earlier one.
var flightConflict = clause.OnConflict{
	Columns: []clause.Column{{Name: "flight_num"}, {Name: "flight_date"}},
	DoUpdates: clause.AssignmentColumns([]string{
		"airline",
		"origin",
		"arrival_iata",
		"status",
		"delay_minutes",
		"departure_scheduled",
		"departure_actual",
		"arrival_estimated",
		"arrival_actual",
		"tail_number",
		"icao24",
		"captured_at",
		"is_system_closed",
	}),
}

func (r *repo) BulkUpsert(ctx context.Context, db *gorm.DB, records []*domain.FlightRecord) error {
	if len(records) == 0 {
		return nil
	}
	return db.WithContext(ctx).Clauses(flightConflict).Create(&records).Error
}

func (r *repo) FindByKey(ctx context.Context, db *gorm.DB, flightNum, flightDate string) (*domain.FlightRecord, error) {
	var rec domain.FlightRecord
	err := db.WithContext(ctx).
		Where("flight_num = ? AND flight_date = ?", flightNum, flightDate).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repo) CloseStaleActive(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.FlightRecord{}).
		Where("status = ?", domain.StatusActive).
		Where("arrival_estimated IS NOT NULL AND arrival_estimated < ?", cutoff).
		Updates(map[string]any{
			"status":           domain.StatusUnknown,
			"is_system_closed": true,
		})
	return res.RowsAffected, res.Error
}

func (r *repo) CloseStaleScheduled(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.FlightRecord{}).
		Where("status = ?", domain.StatusScheduled).
		Where("departure_scheduled IS NOT NULL AND departure_scheduled < ?", cutoff).
		Updates(map[string]any{
			"status":           domain.StatusUnknown,
			"is_system_closed": true,
		})
	return res.RowsAffected, res.Error
}

func (r *repo) FindOpenWithTail(ctx context.Context, db *gorm.DB, departedBefore time.Time) ([]*domain.FlightRecord, error) {
	var recs []*domain.FlightRecord
	err := db.WithContext(ctx).
		Where("status IN ?", []domain.Status{domain.StatusScheduled, domain.StatusActive}).
		Where("tail_number IS NOT NULL AND tail_number <> ''").
		Where("departure_scheduled IS NOT NULL AND departure_scheduled < ?", departedBefore).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *repo) HasOnwardLeg(ctx context.Context, db *gorm.DB, rec *domain.FlightRecord) (bool, error) {
	if rec.TailNumber == nil || rec.DepartureScheduled == nil {
		return false, nil
	}
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.FlightRecord{}).
		Where("id <> ?", rec.ID).
		Where("tail_number = ?", *rec.TailNumber).
		Where("departure_scheduled > ?", *rec.DepartureScheduled).
		Where("origin = ?", rec.ArrivalIATA).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) MarkLanded(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.FlightRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":           domain.StatusLanded,
			"is_system_closed": true,
		}).Error
}

func (r *repo) FindActiveDepartedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]*domain.FlightRecord, error) {
	var recs []*domain.FlightRecord
	err := db.WithContext(ctx).
		Where("status = ?", domain.StatusActive).
		Where("departure_scheduled IS NOT NULL AND departure_scheduled < ?", cutoff).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *repo) CloseUnknown(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.FlightRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":           domain.StatusUnknown,
			"is_system_closed": true,
		}).Error
}

func (r *repo) FindEnrichmentCandidates(ctx context.Context, db *gorm.DB, retryBefore time.Time, maxAttempts, limit int) ([]*domain.FlightRecord, error) {
	var recs []*domain.FlightRecord
	err := db.WithContext(ctx).
		Where("tail_number IS NULL OR tail_number = ''").
		Where("icao24 IS NOT NULL AND icao24 <> ''").
		Where("enrichment_attempts < ?", maxAttempts).
		Where("last_enrichment_attempt IS NULL OR last_enrichment_attempt < ?", retryBefore).
		Order("departure_scheduled DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *repo) SetTailNumber(ctx context.Context, db *gorm.DB, id snowflake.ID, tailNumber string, attempts int, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.FlightRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"tail_number":             tailNumber,
			"enrichment_attempts":     attempts,
			"last_enrichment_attempt": at,
		}).Error
}

func (r *repo) RecordEnrichmentAttempt(ctx context.Context, db *gorm.DB, id snowflake.ID, attempts int, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.FlightRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"enrichment_attempts":     attempts,
			"last_enrichment_attempt": at,
		}).Error
}

func (r *repo) CachedRegistration(ctx context.Context, db *gorm.DB, flightIATA string) (*domain.AircraftRegistration, error) {
	var entry domain.AircraftRegistration
	err := db.WithContext(ctx).
		Where("flight_iata = ?", flightIATA).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repo) UpsertRegistration(ctx context.Context, db *gorm.DB, entry *domain.AircraftRegistration) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "flight_iata"}},
		DoUpdates: clause.AssignmentColumns([]string{"tail_number", "last_seen"}),
	}).Create(entry).Error
}
