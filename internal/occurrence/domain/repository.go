package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the persistence contract for occurrences. The unique
// index on scheduled_time is the final authority on duplicates; Insert
// must surface the violation rather than swallow it.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, occ *Occurrence) error
	ExistsAt(ctx context.Context, db *gorm.DB, at time.Time) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Occurrence, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Occurrence, error)

	// ListUnnotifiedInWindow returns occurrences with
	// scheduled_time in (start, end] and notified = false.
	ListUnnotifiedInWindow(ctx context.Context, db *gorm.DB, start, end time.Time) ([]Occurrence, error)

	// MarkNotified flips notified to true. It reports false when the
	// occurrence was already notified (or absent), so concurrent
	// scans flag each occurrence exactly once.
	MarkNotified(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}
