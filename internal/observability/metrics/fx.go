package metrics

import (
	"github.com/elrc-run/attendly/internal/config"
	"go.uber.org/fx"
)

// Module eagerly initializes the singleton with the configured labels
// so later Scheduler() callers never fall back to defaults.
var Module = fx.Module("observability.metrics",
	fx.Invoke(func(cfg config.Config) {
		SchedulerWithConfig(Config{
			ServiceName: cfg.AppName,
			Environment: cfg.Environment,
		})
	}),
)
