package migration

import (
	"github.com/venskies/flightwatch/internal/config"
	"github.com/venskies/flightwatch/internal/flight/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// The versioned SQL is Postgres-only. MySQL and SQLite deployments
		// fall back to gorm's schema sync.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(&domain.FlightRecord{}, &domain.AircraftRegistration{})
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
