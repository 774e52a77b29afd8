package domain

import (
	"context"
	"errors"
	"time"
)

// Service creates and reads occurrences. CreateIfAbsent is the
// idempotent provisioning path shared by the scheduler loop, the
// backfill service and manual creation.
type Service interface {
	// Create provisions an ad-hoc occurrence. A duplicate instant is
	// an error here (the caller asked for this specific occurrence),
	// as is any provisioning failure.
	Create(ctx context.Context, req CreateRequest) (*Response, error)

	// CreateIfAbsent provisions the occurrence at the given instant
	// unless one already exists. created reports whether a new row
	// was inserted; an existing occurrence is (nil, false, nil).
	// A form-provisioning failure aborts the attempt with
	// ErrFormProvisioning and inserts nothing; a record-store failure
	// is logged and the occurrence is still created.
	CreateIfAbsent(ctx context.Context, at time.Time, title string) (resp *Response, created bool, err error)

	GetByID(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
}

type CreateRequest struct {
	Title         string    `json:"title"`
	ScheduledTime time.Time `json:"scheduled_time"`
}

type ListRequest struct {
	From     *time.Time
	To       *time.Time
	Notified *bool
}

type Response struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	ScheduledTime time.Time `json:"scheduled_time"`
	FormURL       *string   `json:"form_url,omitempty"`
	ResponseURL   *string   `json:"response_url,omitempty"`
	Notified      bool      `json:"notified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

var (
	ErrNotFound             = errors.New("not_found")
	ErrDuplicateOccurrence  = errors.New("duplicate_occurrence")
	ErrFormProvisioning     = errors.New("form_provisioning_failed")
	ErrRecordSync           = errors.New("record_sync_failed")
	ErrInvalidTitle         = errors.New("invalid_title")
	ErrInvalidScheduledTime = errors.New("invalid_scheduled_time")
	ErrInvalidID            = errors.New("invalid_id")
)
