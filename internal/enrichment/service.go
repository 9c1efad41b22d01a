package enrichment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/venskies/flightwatch/internal/alerting"
	"github.com/venskies/flightwatch/internal/cache"
	"github.com/venskies/flightwatch/internal/clock"
	"github.com/venskies/flightwatch/internal/config"
	"github.com/venskies/flightwatch/internal/flight/domain"
	"github.com/venskies/flightwatch/internal/metrics"
	"github.com/venskies/flightwatch/internal/registry"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Outcome tags one record's result in an enrichment pass.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeNoData  Outcome = "NO_DATA"
	OutcomeSkipped Outcome = "SKIPPED"
	OutcomeError   Outcome = "ERROR"
)

// Detail is the per-record outcome of the pass.
type Detail struct {
	FlightID   string  `json:"flight_id"`
	FlightNum  string  `json:"flight_num"`
	Outcome    Outcome `json:"outcome"`
	TailNumber string  `json:"tail_number,omitempty"`
	ICAO24     string  `json:"icao24,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// Report is the structured result of one batch pass.
type Report struct {
	Processed int      `json:"processed"`
	Enriched  int      `json:"enriched"`
	Details   []Detail `json:"details"`
}

// Service runs the expensive registration-resolution tier: a bounded batch
// of external hex-id lookups with monotonic attempt caps so retries are
// never unbounded.
type Service interface {
	Run(ctx context.Context) (Report, error)
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Cfg      config.Config
	Clock    clock.Clock
	Repo     domain.Repository
	Registry registry.Lookup
	RegCache cache.RegistrationCache
	Reporter alerting.Reporter
	Metrics  *metrics.Metrics
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	cfg      config.EnrichmentConfig
	clock    clock.Clock
	repo     domain.Repository
	registry registry.Lookup
	regCache cache.RegistrationCache
	reporter alerting.Reporter
	metrics  *metrics.Metrics
	pace     func(context.Context, time.Duration)
}

func New(p Params) Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("enrichment"),
		cfg:      p.Cfg.Enrichment,
		clock:    p.Clock,
		repo:     p.Repo,
		registry: p.Registry,
		regCache: p.RegCache,
		reporter: p.Reporter,
		metrics:  p.Metrics,
		pace:     clock.SleepContext,
	}
}

// Run selects the eligible records and resolves each against the registry.
// Counters are bumped on every attempt, success or not: after MaxAttempts
// failures a record is skipped until the cool-down passes.
func (s *service) Run(ctx context.Context) (Report, error) {
	now := s.clock.Now()
	retryBefore := now.Add(-s.cfg.RetryCooldown)

	candidates, err := s.repo.FindEnrichmentCandidates(ctx, s.db, retryBefore, s.cfg.MaxAttempts, s.cfg.BatchSize)
	if err != nil {
		s.reporter.CaptureException(err)
		return Report{}, fmt.Errorf("select enrichment candidates: %w", err)
	}
	if len(candidates) == 0 {
		return Report{Details: []Detail{}}, nil
	}

	report := Report{Processed: len(candidates), Details: make([]Detail, 0, len(candidates))}

	for i, rec := range candidates {
		if i > 0 {
			s.pace(ctx, s.cfg.LookupPacing)
		}
		detail := s.resolve(ctx, rec)
		if detail.Outcome == OutcomeSuccess {
			report.Enriched++
		}
		s.metrics.EnrichmentOutcomes.WithLabelValues(string(detail.Outcome)).Inc()
		report.Details = append(report.Details, detail)
	}

	s.log.Info("enrichment pass complete",
		zap.Int("processed", report.Processed),
		zap.Int("enriched", report.Enriched),
	)
	return report, nil
}

func (s *service) resolve(ctx context.Context, rec *domain.FlightRecord) Detail {
	detail := Detail{FlightID: rec.ID.String(), FlightNum: rec.FlightNum}

	if rec.FlightNum == "" || rec.ICAO24 == nil || *rec.ICAO24 == "" {
		detail.Outcome = OutcomeSkipped
		detail.Reason = "missing metadata"
		return detail
	}
	hex := *rec.ICAO24
	detail.ICAO24 = hex

	attempts := rec.EnrichmentAttempts + 1
	now := s.clock.Now()

	tail, err := s.registry.Registration(ctx, hex)
	switch {
	case err == nil:
		if err := s.repo.SetTailNumber(ctx, s.db, rec.ID, tail, attempts, now); err != nil {
			s.reporter.CaptureException(err)
			detail.Outcome = OutcomeError
			detail.Reason = err.Error()
			return detail
		}
		if err := s.repo.UpsertRegistration(ctx, s.db, &domain.AircraftRegistration{
			FlightIATA: rec.FlightNum,
			TailNumber: tail,
			LastSeen:   now,
		}); err != nil {
			s.log.Warn("registration cache upsert failed",
				zap.String("flight", rec.FlightNum),
				zap.Error(err),
			)
		}
		s.regCache.Set(rec.FlightNum, tail)
		detail.Outcome = OutcomeSuccess
		detail.TailNumber = tail
		return detail

	case errors.Is(err, registry.ErrNotFound):
		s.recordAttempt(ctx, rec, attempts, now)
		detail.Outcome = OutcomeNoData
		detail.Reason = "registration not found"
		return detail

	default:
		s.log.Warn("registry lookup failed",
			zap.String("flight", rec.FlightNum),
			zap.String("icao24", hex),
			zap.Error(err),
		)
		s.recordAttempt(ctx, rec, attempts, now)
		detail.Outcome = OutcomeError
		detail.Reason = err.Error()
		return detail
	}
}

func (s *service) recordAttempt(ctx context.Context, rec *domain.FlightRecord, attempts int, now time.Time) {
	if err := s.repo.RecordEnrichmentAttempt(ctx, s.db, rec.ID, attempts, now); err != nil {
		s.log.Warn("attempt bookkeeping failed",
			zap.String("flight", rec.FlightNum),
			zap.Error(err),
		)
	}
}
