package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/venskies/flightwatch/internal/airports"
	"github.com/venskies/flightwatch/internal/alerting"
	"github.com/venskies/flightwatch/internal/cache"
	"github.com/venskies/flightwatch/internal/clock"
	"github.com/venskies/flightwatch/internal/config"
	"github.com/venskies/flightwatch/internal/flight/domain"
	"github.com/venskies/flightwatch/internal/metrics"
	"github.com/venskies/flightwatch/internal/provider"
	providerdomain "github.com/venskies/flightwatch/internal/provider/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Result is the structured outcome of one sync pass. It is returned even
// under partial failure; only a store-write error aborts a pass.
type Result struct {
	Success       bool     `json:"success"`
	Count         int      `json:"count"`
	ProvidersUsed []string `json:"providers_used"`
}

// TrackedResult aggregates the outer loop over the tracked airport set.
type TrackedResult struct {
	Airports      map[string]Result `json:"airports"`
	TotalCount    int               `json:"total_count"`
	ProvidersUsed []string          `json:"providers_used"`
}

// Service is the reconciliation engine: it queries every configured
// provider in order, enriches and deduplicates the records, and writes them
// in one idempotent bulk upsert.
type Service interface {
	SyncAirport(ctx context.Context, iata string) (Result, error)
	SyncFlight(ctx context.Context, flightNum string) (Result, error)
	SyncTracked(ctx context.Context) (TrackedResult, error)
}

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Cfg       config.Config
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Providers provider.List
	RegCache  cache.RegistrationCache
	Reporter  alerting.Reporter
	Metrics   *metrics.Metrics
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	cfg       config.Config
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	providers []providerdomain.Provider
	regCache  cache.RegistrationCache
	reporter  alerting.Reporter
	metrics   *metrics.Metrics
	airports  []string
	pace      func(context.Context, time.Duration)
}

func New(p Params) Service {
	tracked := p.Cfg.TrackedAirports
	if len(tracked) == 0 {
		tracked = airports.Tracked
	}
	return &service{
		db:        p.DB,
		log:       p.Log.Named("reconcile"),
		cfg:       p.Cfg,
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		providers: p.Providers.Providers,
		regCache:  p.RegCache,
		reporter:  p.Reporter,
		metrics:   p.Metrics,
		airports:  tracked,
		pace:      clock.SleepContext,
	}
}

func (s *service) SyncAirport(ctx context.Context, iata string) (Result, error) {
	return s.sync(ctx, iata, func(p providerdomain.Provider) ([]*domain.FlightRecord, error) {
		return p.FetchByAirport(ctx, iata)
	})
}

func (s *service) SyncFlight(ctx context.Context, flightNum string) (Result, error) {
	return s.sync(ctx, flightNum, func(p providerdomain.Provider) ([]*domain.FlightRecord, error) {
		return p.FetchByNumber(ctx, flightNum)
	})
}

// SyncTracked loops the fixed airport set with a pacing delay between
// airports. The delay respects third-party rate limits; it is scheduling
// policy, not a correctness requirement. One airport's failure does not
// stop the loop unless the store itself rejected a write.
func (s *service) SyncTracked(ctx context.Context) (TrackedResult, error) {
	out := TrackedResult{Airports: make(map[string]Result, len(s.airports))}
	used := make(map[string]bool)

	for i, iata := range s.airports {
		if i > 0 {
			s.pace(ctx, s.cfg.Sync.AirportPacing)
		}

		res, err := s.SyncAirport(ctx, iata)
		if err != nil {
			return out, fmt.Errorf("sync %s: %w", iata, err)
		}
		s.log.Debug("tracked airport synced",
			zap.String("airport", iata),
			zap.String("airport_name", airports.Name(iata)),
			zap.Int("records", res.Count),
		)
		out.Airports[iata] = res
		out.TotalCount += res.Count
		for _, name := range res.ProvidersUsed {
			if !used[name] {
				used[name] = true
				out.ProvidersUsed = append(out.ProvidersUsed, name)
			}
		}
	}

	return out, nil
}

// sync runs one reconciliation pass. Providers are queried strictly in
// configuration order; the dedup map keeps the last record seen per
// (flight_num, flight_date), so a later-configured provider overrides an
// earlier one for a shared key.
func (s *service) sync(ctx context.Context, target string, fetch func(providerdomain.Provider) ([]*domain.FlightRecord, error)) (Result, error) {
	var all []*domain.FlightRecord
	var providersUsed []string

	for _, prov := range s.providers {
		records, err := fetch(prov)
		if err != nil {
			if providerdomain.IsRateLimit(err) {
				s.metrics.ProviderRateLimits.WithLabelValues(prov.Name()).Inc()
				s.log.Warn("provider rate limited",
					zap.String("provider", prov.Name()),
					zap.String("target", target),
				)
				continue
			}
			s.metrics.ProviderFailures.WithLabelValues(prov.Name()).Inc()
			s.log.Warn("provider failed, skipping",
				zap.String("provider", prov.Name()),
				zap.String("target", target),
				zap.Error(err),
			)
			s.reporter.CaptureException(err)
			continue
		}
		if len(records) == 0 {
			continue
		}

		for _, rec := range records {
			s.enrich(ctx, rec)
		}
		all = append(all, records...)
		providersUsed = append(providersUsed, prov.Name())
	}

	if len(all) == 0 {
		return Result{Success: false, Count: 0, ProvidersUsed: providersUsed}, nil
	}

	unique := dedupe(all)
	for _, rec := range unique {
		rec.ID = s.genID.Generate()
	}

	if err := s.repo.BulkUpsert(ctx, s.db, unique); err != nil {
		return Result{ProvidersUsed: providersUsed}, fmt.Errorf("bulk upsert: %w", err)
	}

	s.metrics.RecordsUpserted.WithLabelValues(target).Add(float64(len(unique)))
	s.log.Info("sync pass complete",
		zap.String("target", target),
		zap.Int("records", len(unique)),
		zap.Strings("providers", providersUsed),
	)
	return Result{Success: true, Count: len(unique), ProvidersUsed: providersUsed}, nil
}

// enrich is the cheap inline tier: it only ever consults the registration
// cache. External lookups are deferred to the batch pass so the ingestion
// path stays fast and costly calls stay independently rate limited.
func (s *service) enrich(ctx context.Context, rec *domain.FlightRecord) {
	if rec.HasTailNumber() {
		return
	}
	if rec.FlightNum == "" {
		return
	}

	if tail, ok := s.regCache.Get(rec.FlightNum); ok {
		rec.TailNumber = &tail
		return
	}

	entry, err := s.repo.CachedRegistration(ctx, s.db, rec.FlightNum)
	if err != nil {
		s.log.Warn("registration cache lookup failed",
			zap.String("flight", rec.FlightNum),
			zap.Error(err),
		)
		return
	}
	if entry == nil {
		rec.TailNumber = nil
		return
	}

	rec.TailNumber = &entry.TailNumber
	s.regCache.Set(rec.FlightNum, entry.TailNumber)
}

func dedupe(records []*domain.FlightRecord) []*domain.FlightRecord {
	index := make(map[string]int, len(records))
	unique := make([]*domain.FlightRecord, 0, len(records))
	for _, rec := range records {
		if i, ok := index[rec.Key()]; ok {
			unique[i] = rec
			continue
		}
		index[rec.Key()] = len(unique)
		unique = append(unique, rec)
	}
	return unique
}
