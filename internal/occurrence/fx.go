package occurrence

import (
	"github.com/elrc-run/attendly/internal/occurrence/repository"
	"github.com/elrc-run/attendly/internal/occurrence/service"
	"go.uber.org/fx"
)

var Module = fx.Module("occurrence.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
