package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/elrc-run/attendly/internal/occurrence/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, occ *domain.Occurrence) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO occurrences (id, title, scheduled_time, form_url, response_url, notified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		occ.ID,
		occ.Title,
		occ.ScheduledTime,
		occ.FormURL,
		occ.ResponseURL,
		occ.Notified,
		occ.CreatedAt,
		occ.UpdatedAt,
	).Error
}

func (r *repo) ExistsAt(ctx context.Context, db *gorm.DB, at time.Time) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Occurrence{}).
		Where("scheduled_time = ?", at.UTC()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Occurrence, error) {
	var occ domain.Occurrence
	err := db.WithContext(ctx).Raw(
		`SELECT id, title, scheduled_time, form_url, response_url, notified, created_at, updated_at
		 FROM occurrences WHERE id = ?`,
		id,
	).Scan(&occ).Error
	if err != nil {
		return nil, err
	}
	if occ.ID == 0 {
		return nil, nil
	}
	return &occ, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Occurrence, error) {
	var occs []domain.Occurrence
	stmt := db.WithContext(ctx).Model(&domain.Occurrence{})
	if filter.From != nil {
		stmt = stmt.Where("scheduled_time >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		stmt = stmt.Where("scheduled_time <= ?", filter.To.UTC())
	}
	if filter.Notified != nil {
		stmt = stmt.Where("notified = ?", *filter.Notified)
	}
	err := stmt.
		Order("scheduled_time asc, id asc").
		Find(&occs).Error
	if err != nil {
		return nil, err
	}
	return occs, nil
}

func (r *repo) ListUnnotifiedInWindow(ctx context.Context, db *gorm.DB, start, end time.Time) ([]domain.Occurrence, error) {
	var occs []domain.Occurrence
	err := db.WithContext(ctx).
		Model(&domain.Occurrence{}).
		Where("scheduled_time > ? AND scheduled_time <= ?", start.UTC(), end.UTC()).
		Where("notified = ?", false).
		Order("scheduled_time asc").
		Find(&occs).Error
	if err != nil {
		return nil, err
	}
	return occs, nil
}

func (r *repo) MarkNotified(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE occurrences SET notified = ?, updated_at = ? WHERE id = ? AND notified = ?`,
		true, time.Now().UTC(), id, false,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
