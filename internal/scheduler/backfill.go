package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/elrc-run/attendly/internal/clock"
	obsmetrics "github.com/elrc-run/attendly/internal/observability/metrics"
	"github.com/elrc-run/attendly/internal/occurrence/domain"
	"github.com/elrc-run/attendly/internal/recurrence"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type BackfillParams struct {
	fx.In

	Log      *zap.Logger
	Svc      domain.Service
	Rules    []recurrence.Rule
	Location *time.Location
	Clock    clock.Clock
}

// Backfill materializes every rule slot between today and the coming
// Sunday in one shot, typically after a deploy or an outage left gaps.
type Backfill struct {
	log   *zap.Logger
	svc   domain.Service
	rules []recurrence.Rule
	loc   *time.Location
	clock clock.Clock
}

func NewBackfill(p BackfillParams) (*Backfill, error) {
	if p.Log == nil || p.Svc == nil || p.Location == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	if err := recurrence.ValidateRules(p.Rules); err != nil {
		return nil, err
	}
	return &Backfill{
		log:   p.Log.Named("backfill"),
		svc:   p.Svc,
		rules: p.Rules,
		loc:   p.Location,
		clock: p.Clock,
	}, nil
}

// MaterializeUntilNextSunday expands the rules over the inclusive date
// range [today, next Sunday] and provisions each slot that does not
// already exist. Slots that fail to provision are logged and skipped so
// one broken collaborator cannot sink the whole batch. Only newly
// created occurrences are returned.
func (b *Backfill) MaterializeUntilNextSunday(ctx context.Context) ([]domain.Response, error) {
	now := b.clock.Now()
	end := recurrence.NextSunday(now, b.loc)
	slots := recurrence.InRange(b.rules, now, end, b.loc)

	schedMetrics := obsmetrics.Scheduler()
	created := make([]domain.Response, 0, len(slots))
	for _, slot := range slots {
		resp, ok, err := b.svc.CreateIfAbsent(ctx, slot.At.UTC(), slot.Title)
		if err != nil {
			if errors.Is(err, domain.ErrFormProvisioning) {
				schedMetrics.IncProvisioningFailure("forms")
			}
			b.log.Warn("backfill slot skipped",
				zap.String("title", slot.Title),
				zap.Time("scheduled_time", slot.At.UTC()),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			continue
		}
		schedMetrics.IncMaterialized()
		created = append(created, *resp)
	}

	b.log.Info("backfill finished",
		zap.Int("slots_considered", len(slots)),
		zap.Int("created", len(created)),
	)
	return created, nil
}
