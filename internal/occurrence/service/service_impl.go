package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/elrc-run/attendly/internal/occurrence/domain"
	"github.com/elrc-run/attendly/internal/providers/forms"
	"github.com/elrc-run/attendly/internal/providers/records"
	"github.com/elrc-run/attendly/pkg/db"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Forms   forms.Provider
	Records records.Provider
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	forms   forms.Provider
	records records.Provider
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("occurrence.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		forms:   p.Forms,
		records: p.Records,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	if req.ScheduledTime.IsZero() {
		return nil, domain.ErrInvalidScheduledTime
	}

	resp, created, err := s.CreateIfAbsent(ctx, req.ScheduledTime, title)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, domain.ErrDuplicateOccurrence
	}
	return resp, nil
}

// CreateIfAbsent provisions in three phases. The form is provisioned
// before the row exists, so a form failure leaves no trace and the next
// poll retries from scratch. The record store is best-effort: a failure
// there is logged and the occurrence is still committed. The unique
// index on scheduled_time resolves races between concurrent creators;
// losing that race is not an error.
func (s *Service) CreateIfAbsent(ctx context.Context, at time.Time, title string) (*domain.Response, bool, error) {
	at = at.UTC()

	exists, err := s.repo.ExistsAt(ctx, s.db, at)
	if err != nil {
		return nil, false, err
	}
	if exists {
		return nil, false, nil
	}

	urls, err := s.forms.CreateForm(ctx, title, at)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrFormProvisioning, err)
	}

	now := time.Now().UTC()
	occ := domain.Occurrence{
		ID:            s.genID.Generate(),
		Title:         title,
		ScheduledTime: at,
		Notified:      false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if urls.FormURL != "" {
		occ.FormURL = &urls.FormURL
	}
	if urls.ResponseURL != "" {
		occ.ResponseURL = &urls.ResponseURL
	}

	if err := s.records.CreateRecord(ctx, records.Record{
		OccurrenceID:  occ.ID.String(),
		CheckinToken:  uuid.NewString(),
		Title:         title,
		FormURL:       urls.FormURL,
		ResponseURL:   urls.ResponseURL,
		ScheduledTime: at,
	}); err != nil {
		s.log.Warn("record store sync failed, occurrence will be created anyway",
			zap.String("occurrence_id", occ.ID.String()),
			zap.Time("scheduled_time", at),
			zap.Error(fmt.Errorf("%w: %v", domain.ErrRecordSync, err)),
		)
	}

	if err := s.repo.Insert(ctx, s.db, &occ); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// A concurrent creator won the race. The slot is covered,
			// so this attempt succeeds vacuously.
			s.log.Info("occurrence already created concurrently",
				zap.Time("scheduled_time", at),
			)
			return nil, false, nil
		}
		return nil, false, err
	}

	resp := toResponse(occ)
	return &resp, true, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Response, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}

	occ, err := s.repo.FindByID(ctx, s.db, int64(parsed))
	if err != nil {
		return nil, err
	}
	if occ == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(*occ)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	occs, err := s.repo.List(ctx, s.db, req)
	if err != nil {
		return nil, err
	}

	resps := make([]domain.Response, 0, len(occs))
	for _, occ := range occs {
		resps = append(resps, toResponse(occ))
	}
	return resps, nil
}

func toResponse(occ domain.Occurrence) domain.Response {
	return domain.Response{
		ID:            occ.ID.String(),
		Title:         occ.Title,
		ScheduledTime: occ.ScheduledTime.UTC(),
		FormURL:       occ.FormURL,
		ResponseURL:   occ.ResponseURL,
		Notified:      occ.Notified,
		CreatedAt:     occ.CreatedAt,
		UpdatedAt:     occ.UpdatedAt,
	}
}
