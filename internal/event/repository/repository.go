package repository

import (
	"context"
	"time"

	"github.com/estevao-reis/juntos-por-mais/internal/event/domain"
)

// Unique constraint names.
const (
	ConstraintSlug         = "events_slug_key"
	ConstraintRegistration = "event_registrations_event_person_key"
)

// Repository defines persistence for events and registrations. Getters return
// (nil, nil) when no row matches; unique violations return db.ErrConflict.
type Repository interface {
	Create(ctx context.Context, e *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Event, error)
	// ListUpcoming returns events dated at or after from, soonest first.
	ListUpcoming(ctx context.Context, from time.Time) ([]*domain.Event, error)
	// ListAll returns every event, latest date first.
	ListAll(ctx context.Context) ([]*domain.Event, error)
	CreateRegistration(ctx context.Context, reg *domain.Registration) error
	CountRegistrations(ctx context.Context, eventID string) (int, error)
	// Totals returns the number of events and of registrations across all events.
	Totals(ctx context.Context) (events, registrations int, err error)
}
