package records

import (
	"github.com/elrc-run/attendly/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.records",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if !cfg.Notion.Configured() {
		log.Named("records").Info("notion credentials not configured, using no-op record provider")
		return NoOpProvider{}
	}
	return NewNotionClient(NotionConfig{
		Token:          cfg.Notion.Token,
		DatabaseID:     cfg.Notion.DatabaseID,
		CheckinBaseURL: cfg.CheckinBaseURL,
	}, log)
}
