package scheduler

import (
	"context"
	"time"

	"github.com/venskies/flightwatch/internal/config"
	"github.com/venskies/flightwatch/internal/enrichment"
	"github.com/venskies/flightwatch/internal/reconcile"
	"github.com/venskies/flightwatch/internal/resolver"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Scheduler drives the three passes on fixed intervals for deployments
// without an external cron. Every interval defaults to zero, which leaves
// the pass to the HTTP triggers.
type Scheduler struct {
	log       *zap.Logger
	cfg       config.SchedulerConfig
	reconcile reconcile.Service
	resolver  resolver.Service
	enricher  enrichment.Service
}

type Params struct {
	fx.In

	Log       *zap.Logger
	Cfg       config.Config
	Reconcile reconcile.Service
	Resolver  resolver.Service
	Enricher  enrichment.Service
}

func New(p Params) *Scheduler {
	return &Scheduler{
		log:       p.Log.Named("scheduler"),
		cfg:       p.Cfg.Scheduler,
		reconcile: p.Reconcile,
		resolver:  p.Resolver,
		enricher:  p.Enricher,
	}
}

// Run blocks until ctx is cancelled, ticking each enabled pass on its own
// interval.
func (s *Scheduler) Run(ctx context.Context) {
	if s.cfg.SyncInterval > 0 {
		go s.loop(ctx, "sync", s.cfg.SyncInterval, func(ctx context.Context) error {
			_, err := s.reconcile.SyncTracked(ctx)
			return err
		})
	}
	if s.cfg.CleanupInterval > 0 {
		go s.loop(ctx, "cleanup", s.cfg.CleanupInterval, func(ctx context.Context) error {
			_, err := s.resolver.Cleanup(ctx)
			return err
		})
	}
	if s.cfg.EnrichInterval > 0 {
		go s.loop(ctx, "enrich", s.cfg.EnrichInterval, func(ctx context.Context) error {
			_, err := s.enricher.Run(ctx)
			return err
		})
	}
	<-ctx.Done()
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := fn(ctx); err != nil {
			s.log.Warn("scheduled pass failed",
				zap.String("pass", name),
				zap.Error(err),
			)
		}
	}
}

// Enabled reports whether any interval trigger is configured.
func (s *Scheduler) Enabled() bool {
	return s.cfg.SyncInterval > 0 || s.cfg.CleanupInterval > 0 || s.cfg.EnrichInterval > 0
}
