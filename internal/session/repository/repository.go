package repository

import (
	"context"
	"time"

	"github.com/estevao-reis/juntos-por-mais/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	Revoke(ctx context.Context, id string) error
	// RevokeAllByAuthID revokes every open session of the identity; used when
	// an account is deleted.
	RevokeAllByAuthID(ctx context.Context, authID string) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
}
