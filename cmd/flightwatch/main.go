package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/venskies/flightwatch/internal/alerting"
	"github.com/venskies/flightwatch/internal/cache"
	"github.com/venskies/flightwatch/internal/clock"
	"github.com/venskies/flightwatch/internal/config"
	"github.com/venskies/flightwatch/internal/enrichment"
	"github.com/venskies/flightwatch/internal/flight"
	"github.com/venskies/flightwatch/internal/metrics"
	"github.com/venskies/flightwatch/internal/migration"
	"github.com/venskies/flightwatch/internal/provider"
	"github.com/venskies/flightwatch/internal/reconcile"
	"github.com/venskies/flightwatch/internal/registry"
	"github.com/venskies/flightwatch/internal/resolver"
	"github.com/venskies/flightwatch/internal/scheduler"
	"github.com/venskies/flightwatch/internal/server"
	"github.com/venskies/flightwatch/internal/telemetry"
	"github.com/venskies/flightwatch/pkg/db"
	"github.com/venskies/flightwatch/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		alerting.Module,
		metrics.Module,
		migration.Module,

		// Domain
		flight.Module,
		provider.Module,
		registry.Module,
		telemetry.Module,
		cache.Module,
		reconcile.Module,
		enrichment.Module,
		resolver.Module,
		scheduler.Module,

		// HTTP surface
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
