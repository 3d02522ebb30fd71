package repository

import (
	"context"
	"time"

	"github.com/estevao-reis/juntos-por-mais/internal/identity/domain"
)

// ConstraintEmail is the unique constraint on identity emails.
const ConstraintEmail = "identities_email_key"

// Repository defines persistence for locally held identities. Getters return
// (nil, nil) when nothing matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	GetByConfirmationHash(ctx context.Context, hash string) (*domain.Identity, error)
	Create(ctx context.Context, i *domain.Identity) error
	// UpdateEmail returns db.ErrConflict when the email is taken and db.ErrNotFound when id is unknown.
	UpdateEmail(ctx context.Context, id, email string) error
	// Confirm sets confirmed_at and clears the pending confirmation token.
	Confirm(ctx context.Context, id string, at time.Time) error
	// Delete returns db.ErrNotFound when id is unknown.
	Delete(ctx context.Context, id string) error
}
