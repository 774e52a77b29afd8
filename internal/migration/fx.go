package migration

import (
	"github.com/elrc-run/attendly/internal/config"
	"github.com/elrc-run/attendly/internal/occurrence/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// Versioned SQL migrations are postgres-only. sqlite and mysql
		// deployments lean on the model tags instead.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(&domain.Occurrence{})
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
