package flight

import (
	"github.com/venskies/flightwatch/internal/flight/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("flight",
	fx.Provide(repository.Provide),
)
