package resolver

import (
	"context"

	"github.com/venskies/flightwatch/internal/clock"
	"github.com/venskies/flightwatch/internal/config"
	"github.com/venskies/flightwatch/internal/flight/domain"
	"github.com/venskies/flightwatch/internal/metrics"
	"github.com/venskies/flightwatch/internal/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Report is the structured outcome of one cleanup pass, per rule.
type Report struct {
	ActiveClosed      int64 `json:"active_closed"`
	ScheduledClosed   int64 `json:"scheduled_closed"`
	NextLegResolved   int64 `json:"next_leg_resolved"`
	GhostsClosed      int64 `json:"ghosts_closed"`
	GhostCheckSkipped bool  `json:"ghost_check_skipped"`
}

// Total is the number of records the pass closed or resolved.
func (r Report) Total() int64 {
	return r.ActiveClosed + r.ScheduledClosed + r.NextLegResolved + r.GhostsClosed
}

// Service runs the staleness rules and the ghost check over the store.
type Service interface {
	Cleanup(ctx context.Context) (Report, error)
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Cfg      config.Config
	Clock    clock.Clock
	Repo     domain.Repository
	Snapshot telemetry.Snapshotter
	Metrics  *metrics.Metrics
}

type service struct {
	log     *zap.Logger
	rules   []Rule
	ghost   *ghostCheck
	metrics *metrics.Metrics
}

func New(p Params) Service {
	return &service{
		log: p.Log,
		rules: []Rule{
			&staleActiveRule{db: p.DB, repo: p.Repo, clock: p.Clock, after: p.Cfg.Resolver},
			&staleScheduledRule{db: p.DB, repo: p.Repo, clock: p.Clock, after: p.Cfg.Resolver},
			&nextLegRule{db: p.DB, log: p.Log, repo: p.Repo, clock: p.Clock, after: p.Cfg.Resolver},
		},
		ghost: &ghostCheck{
			db:       p.DB,
			log:      p.Log,
			repo:     p.Repo,
			snapshot: p.Snapshot,
			clock:    p.Clock,
			cfg:      p.Cfg.Resolver,
		},
		metrics: p.Metrics,
	}
}

// Cleanup applies every rule and the ghost check in a fixed order. A rule
// failure aborts the pass; rules are idempotent, so a retried pass picks up
// where the failed one left off.
func (s *service) Cleanup(ctx context.Context) (Report, error) {
	var report Report
	for _, rule := range s.rules {
		n, err := rule.Apply(ctx)
		if err != nil {
			return report, err
		}
		if n > 0 {
			s.metrics.ResolverClosed.WithLabelValues(rule.Name()).Add(float64(n))
			s.log.Info("resolver rule applied",
				zap.String("rule", rule.Name()),
				zap.Int64("closed", n),
			)
		}
		switch rule.Name() {
		case RuleStaleActive:
			report.ActiveClosed = n
		case RuleStaleScheduled:
			report.ScheduledClosed = n
		case RuleNextLeg:
			report.NextLegResolved = n
		}
	}

	closed, skipped, err := s.ghost.run(ctx)
	if err != nil {
		return report, err
	}
	report.GhostsClosed = closed
	report.GhostCheckSkipped = skipped
	if closed > 0 {
		s.metrics.ResolverClosed.WithLabelValues("ghost").Add(float64(closed))
	}
	return report, nil
}
