package records

import (
	"context"
	"errors"
	"time"
)

// Record is the tracking entry kept in the external record store for
// one occurrence, referencing the provisioned form. CheckinToken is the
// opaque identifier encoded into the occurrence's QR code; it lives
// only in the record store, never in the local database.
type Record struct {
	OccurrenceID  string
	CheckinToken  string
	Title         string
	FormURL       string
	ResponseURL   string
	ScheduledTime time.Time
}

var ErrRecordNotFound = errors.New("record_not_found")

// Provider maintains the external tracking records. CreateRecord
// failures are tolerated by the core (the occurrence is still created
// locally), so implementations should not retry internally.
type Provider interface {
	CreateRecord(ctx context.Context, rec Record) error
	GetRecord(ctx context.Context, occurrenceID string) (*Record, error)
}

// NoOpProvider is selected when no record-store credentials are
// configured.
type NoOpProvider struct{}

func (NoOpProvider) CreateRecord(ctx context.Context, rec Record) error {
	return nil
}

func (NoOpProvider) GetRecord(ctx context.Context, occurrenceID string) (*Record, error) {
	return nil, ErrRecordNotFound
}
