package scheduler

import (
	"context"

	appconfig "github.com/elrc-run/attendly/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Provide(NewBackfill),
	fx.Invoke(runLoop),
)

func runLoop(lc fx.Lifecycle, sched *Scheduler, cfg appconfig.Config, log *zap.Logger) {
	if !cfg.SchedulerEnabled {
		log.Named("scheduler").Info("background loop disabled")
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go sched.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
