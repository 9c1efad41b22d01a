package provider

import (
	"github.com/venskies/flightwatch/internal/clock"
	"github.com/venskies/flightwatch/internal/config"
	"github.com/venskies/flightwatch/internal/provider/aerodatabox"
	"github.com/venskies/flightwatch/internal/provider/aviationstack"
	providerdomain "github.com/venskies/flightwatch/internal/provider/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the configured, ordered provider list.
var Module = fx.Module("providers",
	fx.Provide(NewList),
)

// List is the ordered set of configured providers. Order matters: the engine
// queries providers sequentially and a later provider's record wins the
// per-key merge within one pass, so AeroDataBox (richer aircraft identity)
// deliberately comes after AviationStack. A source without credentials is
// left out.
type List struct {
	Providers []providerdomain.Provider
}

func NewList(cfg config.Config, clk clock.Clock, log *zap.Logger) List {
	var providers []providerdomain.Provider
	if cfg.Providers.AviationStackKey != "" {
		providers = append(providers, aviationstack.New(cfg.Providers.AviationStackKey, clk))
	}
	if cfg.Providers.AeroDataBoxKey != "" {
		providers = append(providers, aerodatabox.New(cfg.Providers.AeroDataBoxKey, clk))
	}

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	if len(providers) == 0 {
		log.Warn("no flight providers configured")
	} else {
		log.Info("flight providers configured", zap.Strings("providers", names))
	}
	return List{Providers: providers}
}
