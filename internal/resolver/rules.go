package resolver

import (
	"context"

	"github.com/venskies/flightwatch/internal/clock"
	"github.com/venskies/flightwatch/internal/config"
	"github.com/venskies/flightwatch/internal/flight/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Rule is one self-contained staleness heuristic. Every rule's precondition
// excludes already-closed rows, so applying a rule twice is a no-op and the
// rules can run in any order.
type Rule interface {
	Name() string
	Apply(ctx context.Context) (int64, error)
}

const (
	RuleStaleActive    = "stale_active"
	RuleStaleScheduled = "stale_scheduled"
	RuleNextLeg        = "next_leg"
)

// staleActiveRule closes active records whose estimated arrival is long
// past. A silent provider means lost tracking, not an assumed landing, so
// the record closes to unknown rather than landed.
type staleActiveRule struct {
	db    *gorm.DB
	repo  domain.Repository
	clock clock.Clock
	after config.ResolverConfig
}

func (r *staleActiveRule) Name() string { return RuleStaleActive }

func (r *staleActiveRule) Apply(ctx context.Context) (int64, error) {
	cutoff := r.clock.Now().Add(-r.after.ActiveStaleAfter)
	return r.repo.CloseStaleActive(ctx, r.db, cutoff)
}

// staleScheduledRule closes scheduled records that never transitioned to
// active long after their departure time. Lost tracking, not an assumed
// cancellation.
type staleScheduledRule struct {
	db    *gorm.DB
	repo  domain.Repository
	clock clock.Clock
	after config.ResolverConfig
}

func (r *staleScheduledRule) Name() string { return RuleStaleScheduled }

func (r *staleScheduledRule) Apply(ctx context.Context) (int64, error) {
	cutoff := r.clock.Now().Add(-r.after.ScheduledStaleAfter)
	return r.repo.CloseStaleScheduled(ctx, r.db, cutoff)
}

// nextLegRule resolves open records whose aircraft has already started a
// subsequent leg: a later departure by the same tail number from exactly
// this record's arrival airport proves the leg concluded, so it closes as
// landed. The airport match is exact; near-misses prove nothing.
type nextLegRule struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	clock clock.Clock
	after config.ResolverConfig
}

func (r *nextLegRule) Name() string { return RuleNextLeg }

func (r *nextLegRule) Apply(ctx context.Context) (int64, error) {
	departedBefore := r.clock.Now().Add(-r.after.NextLegMinAge)
	candidates, err := r.repo.FindOpenWithTail(ctx, r.db, departedBefore)
	if err != nil {
		return 0, err
	}

	var resolved int64
	for _, rec := range candidates {
		ok, err := r.repo.HasOnwardLeg(ctx, r.db, rec)
		if err != nil {
			return resolved, err
		}
		if !ok {
			continue
		}

		if err := r.repo.MarkLanded(ctx, r.db, rec.ID); err != nil {
			return resolved, err
		}
		r.log.Info("resolved stuck flight via next leg",
			zap.String("flight", rec.FlightNum),
			zap.String("date", rec.FlightDate),
			zap.Stringp("tail_number", rec.TailNumber),
		)
		resolved++
	}
	return resolved, nil
}
