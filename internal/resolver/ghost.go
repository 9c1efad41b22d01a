package resolver

import (
	"context"

	"github.com/venskies/flightwatch/internal/clock"
	"github.com/venskies/flightwatch/internal/config"
	"github.com/venskies/flightwatch/internal/flight/domain"
	"github.com/venskies/flightwatch/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ghostCheck cross-references active records against a live telemetry
// snapshot. A record marked active well past departure whose callsign is
// absent from the regional airspace never actually flew, so it closes to
// unknown. One snapshot covers the whole run.
type ghostCheck struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	snapshot telemetry.Snapshotter
	clock    clock.Clock
	cfg      config.ResolverConfig
}

// run returns the number of ghosts closed and whether the check was
// skipped. A telemetry fetch failure skips the check without failing the
// pass: absence of evidence is not evidence of absence when the feed is
// down.
func (g *ghostCheck) run(ctx context.Context) (closed int64, skipped bool, err error) {
	cutoff := g.clock.Now().Add(-g.cfg.GhostMinAge)
	candidates, err := g.repo.FindActiveDepartedBefore(ctx, g.db, cutoff)
	if err != nil {
		return 0, false, err
	}
	if len(candidates) == 0 {
		return 0, false, nil
	}

	states, err := g.snapshot.Snapshot(ctx)
	if err != nil {
		g.log.Warn("ghost check skipped, telemetry unavailable", zap.Error(err))
		return 0, true, nil
	}

	for _, rec := range candidates {
		if telemetry.MatchesCallsign(states, rec.FlightNum) {
			continue
		}

		if err := g.repo.CloseUnknown(ctx, g.db, rec.ID); err != nil {
			return closed, false, err
		}
		g.log.Info("closed ghost flight",
			zap.String("flight", rec.FlightNum),
			zap.String("date", rec.FlightDate),
		)
		closed++
	}
	return closed, false, nil
}
