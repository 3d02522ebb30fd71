package repository

import (
	"context"

	"github.com/estevao-reis/juntos-por-mais/internal/person/domain"
)

// Unique constraint names shared by the Postgres schema and the in-memory store.
const (
	ConstraintEmail  = "persons_email_key"
	ConstraintCPF    = "persons_cpf_key"
	ConstraintAuthID = "persons_auth_id_key"
)

// Repository defines persistence for person records and regions.
// Getters return (nil, nil) when no row matches. Writes violating a unique
// constraint return db.ErrConflict; Update and Delete of a missing row return
// db.ErrNotFound.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Person, error)
	GetByEmail(ctx context.Context, email string) (*domain.Person, error)
	GetByCPF(ctx context.Context, cpf string) (*domain.Person, error)
	GetByAuthID(ctx context.Context, authID string) (*domain.Person, error)
	Create(ctx context.Context, p *domain.Person) error
	Update(ctx context.Context, id string, u domain.Update) error
	Delete(ctx context.Context, id string) error
	// List returns every person with RegionName filled, newest first.
	List(ctx context.Context) ([]*domain.Person, error)
	// ListReferred returns the supporters referred by leaderID, newest first.
	ListReferred(ctx context.Context, leaderID string) ([]*domain.Person, error)
	CountByRole(ctx context.Context) (map[domain.Role]int, error)
	// LeaderReferralCounts returns one entry per leader with the number of referred supporters.
	LeaderReferralCounts(ctx context.Context) ([]domain.LeaderStats, error)
	ListRegions(ctx context.Context) ([]domain.Region, error)
}
