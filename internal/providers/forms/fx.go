package forms

import (
	"time"

	"github.com/elrc-run/attendly/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.forms",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, loc *time.Location, log *zap.Logger) Provider {
	if !cfg.Google.Configured() {
		log.Named("forms").Info("google credentials not configured, using no-op form provider")
		return NoOpProvider{}
	}
	return NewGoogleClient(GoogleConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RefreshToken: cfg.Google.RefreshToken,
	}, loc, log)
}
