package forms

import (
	"context"
	"time"
)

// URLs are the two references returned by a successful form creation:
// the public fill-in URL and the owner-facing response/edit URL.
type URLs struct {
	FormURL     string
	ResponseURL string
}

// Provider creates the external registration form for one occurrence.
// The core calls CreateForm at most once per occurrence; implementations
// do not need their own dedup.
type Provider interface {
	CreateForm(ctx context.Context, title string, scheduledAt time.Time) (URLs, error)
}

// NoOpProvider is selected when no Google credentials are configured.
// It lets the scheduler run locally without external side effects.
type NoOpProvider struct{}

func (NoOpProvider) CreateForm(ctx context.Context, title string, scheduledAt time.Time) (URLs, error) {
	return URLs{}, nil
}
