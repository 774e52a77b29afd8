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
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Svc      domain.Service
	Repo     domain.Repository
	Rules    []recurrence.Rule
	Location *time.Location
	Clock    clock.Clock
	Config   Config `optional:"true"`
}

// Scheduler is the background loop that materializes the next due
// occurrence and flags imminent ones as notified. Every tick is
// idempotent: re-running it against the same state creates nothing new.
type Scheduler struct {
	db    *gorm.DB
	log   *zap.Logger
	cfg   Config
	svc   domain.Service
	repo  domain.Repository
	rules []recurrence.Rule
	loc   *time.Location
	clock clock.Clock
	cache *creationCache
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Svc == nil || p.Repo == nil || p.Location == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	if err := recurrence.ValidateRules(p.Rules); err != nil {
		return nil, err
	}
	return &Scheduler{
		db:    p.DB,
		log:   p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:   p.Config.withDefaults(),
		svc:   p.Svc,
		repo:  p.Repo,
		rules: p.Rules,
		loc:   p.Location,
		clock: p.Clock,
		cache: newCreationCache(),
	}, nil
}

// RunOnce executes one poll cycle: the materialize phase and then the
// notify phase. A failure in one phase never blocks the other.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	schedMetrics := obsmetrics.Scheduler()

	err := errors.Join(
		s.materializeDue(ctx),
		s.notifyUpcoming(ctx),
	)

	schedMetrics.ObserveTickDuration(time.Since(start))
	schedMetrics.IncTick(err)
	return err
}

// RunForever ticks at the configured interval until ctx is cancelled.
// In-flight cycles are allowed to finish: cancellation stops the loop
// between ticks, never mid-provision.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn("scheduler tick failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ResetCache clears the per-rule creation cache. The next tick falls
// back to the database existence check.
func (s *Scheduler) ResetCache() {
	s.cache.Reset()
}

func (s *Scheduler) materializeDue(ctx context.Context) error {
	now := s.clock.Now()
	rule, at, ok := recurrence.NextDue(now, s.rules, s.loc)
	if !ok {
		return nil
	}

	occDate := at.In(s.loc).Format("2006-01-02")
	if s.cache.Seen(rule, occDate) {
		return nil
	}

	schedMetrics := obsmetrics.Scheduler()
	resp, created, err := s.svc.CreateIfAbsent(ctx, at.UTC(), rule.Title)
	if err != nil {
		// The cache stays unmarked so the next tick retries this slot.
		if errors.Is(err, domain.ErrFormProvisioning) {
			schedMetrics.IncProvisioningFailure("forms")
		}
		s.log.Error("materialize failed",
			zap.String("rule", rule.String()),
			zap.Time("scheduled_time", at.UTC()),
			zap.Error(err),
		)
		return err
	}
	s.cache.Mark(rule, occDate)

	if created {
		schedMetrics.IncMaterialized()
		s.log.Info("occurrence materialized",
			zap.String("occurrence_id", resp.ID),
			zap.String("title", resp.Title),
			zap.Time("scheduled_time", resp.ScheduledTime),
		)
	}
	return nil
}

func (s *Scheduler) notifyUpcoming(ctx context.Context) error {
	now := s.clock.Now()
	occs, err := s.repo.ListUnnotifiedInWindow(ctx, s.db, now, now.Add(s.cfg.LookaheadWindow))
	if err != nil {
		return err
	}

	schedMetrics := obsmetrics.Scheduler()
	var errs error
	for _, occ := range occs {
		flipped, err := s.repo.MarkNotified(ctx, s.db, occ.ID)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		if !flipped {
			// Another scan got there first.
			continue
		}
		schedMetrics.IncNotified()
		s.log.Info("occurrence starting soon",
			zap.String("occurrence_id", occ.ID.String()),
			zap.String("title", occ.Title),
			zap.Time("scheduled_time", occ.ScheduledTime),
		)
	}
	return errs
}
