package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/elrc-run/attendly/internal/clock"
	"github.com/elrc-run/attendly/internal/config"
	"github.com/elrc-run/attendly/internal/logger"
	"github.com/elrc-run/attendly/internal/migration"
	"github.com/elrc-run/attendly/internal/observability/metrics"
	"github.com/elrc-run/attendly/internal/occurrence"
	"github.com/elrc-run/attendly/internal/providers/forms"
	"github.com/elrc-run/attendly/internal/providers/records"
	"github.com/elrc-run/attendly/internal/scheduler"
	"github.com/elrc-run/attendly/internal/server"
	"github.com/elrc-run/attendly/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		metrics.Module,
		migration.Module,

		// External collaborators
		forms.Module,
		records.Module,

		// Functional domains
		occurrence.Module,
		scheduler.Module,
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
