package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Occurrence is one concrete, time-stamped materialization of a weekly
// recurrence rule (or an ad-hoc manual creation). ScheduledTime is
// always persisted in UTC and is globally unique: it is the dedup key
// that makes creation idempotent under concurrent polling and backfill.
type Occurrence struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	Title string       `gorm:"type:text;not null"`

	ScheduledTime time.Time `gorm:"column:scheduled_time;not null;uniqueIndex:ux_occurrences_scheduled_time"`

	FormURL     *string `gorm:"column:form_url;type:text"`
	ResponseURL *string `gorm:"column:response_url;type:text"`

	Notified bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Occurrence) TableName() string { return "occurrences" }
