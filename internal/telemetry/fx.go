package telemetry

import (
	"github.com/venskies/flightwatch/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("telemetry",
	fx.Provide(func(cfg config.Config) Snapshotter {
		return NewClient(cfg.Telemetry)
	}),
)
