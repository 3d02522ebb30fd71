package repository

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/estevao-reis/juntos-por-mais/internal/db"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/domain"
)

// MemoryRepository keeps identities in process with the same email uniqueness
// as the identities table.
type MemoryRepository struct {
	mu         sync.Mutex
	identities map[string]*domain.Identity
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{identities: make(map[string]*domain.Identity)}
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(i *domain.Identity) bool { return i.ID == id }), nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(i *domain.Identity) bool { return i.Email == email }), nil
}

func (r *MemoryRepository) GetByConfirmationHash(_ context.Context, hash string) (*domain.Identity, error) {
	if hash == "" {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(i *domain.Identity) bool { return i.ConfirmationHash == hash }), nil
}

func (r *MemoryRepository) Create(_ context.Context, i *domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.identities[i.ID]; ok {
		return db.Conflict("identities_pkey")
	}
	if r.find(func(o *domain.Identity) bool { return o.Email == i.Email }) != nil {
		return db.Conflict(ConstraintEmail)
	}
	r.identities[i.ID] = clone(i)
	return nil
}

func (r *MemoryRepository) UpdateEmail(_ context.Context, id, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.identities[id]
	if !ok {
		return db.ErrNotFound
	}
	if r.find(func(o *domain.Identity) bool { return o.Email == email && o.ID != id }) != nil {
		return db.Conflict(ConstraintEmail)
	}
	cur.Email = email
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) Confirm(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.identities[id]
	if !ok {
		return db.ErrNotFound
	}
	cur.ConfirmedAt = &at
	cur.ConfirmationHash = ""
	cur.UpdatedAt = at
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.identities[id]; !ok {
		return db.ErrNotFound
	}
	delete(r.identities, id)
	return nil
}

// Len returns the number of stored identities.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.identities)
}

func (r *MemoryRepository) find(match func(*domain.Identity) bool) *domain.Identity {
	for _, i := range r.identities {
		if match(i) {
			return clone(i)
		}
	}
	return nil
}

func clone(i *domain.Identity) *domain.Identity {
	cp := *i
	cp.Metadata = maps.Clone(i.Metadata)
	return &cp
}
