package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/estevao-reis/juntos-por-mais/internal/db"
	"github.com/estevao-reis/juntos-por-mais/internal/event/domain"
)

// MemoryRepository keeps events and registrations in process, enforcing the
// slug and event/person uniqueness of the schema.
type MemoryRepository struct {
	mu            sync.Mutex
	events        map[string]*domain.Event
	registrations []*domain.Registration
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{events: make(map[string]*domain.Event)}
}

func (r *MemoryRepository) Create(_ context.Context, e *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cur := range r.events {
		if cur.Slug == e.Slug {
			return db.Conflict(ConstraintSlug)
		}
	}
	cp := *e
	r.events[e.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.events[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryRepository) GetBySlug(_ context.Context, slug string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Slug == slug {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) ListUpcoming(_ context.Context, from time.Time) ([]*domain.Event, error) {
	out := r.filter(func(e *domain.Event) bool { return !e.Date.Before(from) })
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *MemoryRepository) ListAll(_ context.Context) ([]*domain.Event, error) {
	out := r.filter(func(*domain.Event) bool { return true })
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *MemoryRepository) filter(keep func(*domain.Event) bool) []*domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Event
	for _, e := range r.events {
		if keep(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out
}

func (r *MemoryRepository) CreateRegistration(_ context.Context, reg *domain.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cur := range r.registrations {
		if cur.EventID == reg.EventID && cur.PersonID == reg.PersonID {
			return db.Conflict(ConstraintRegistration)
		}
	}
	cp := *reg
	r.registrations = append(r.registrations, &cp)
	return nil
}

func (r *MemoryRepository) CountRegistrations(_ context.Context, eventID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, reg := range r.registrations {
		if reg.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) Totals(_ context.Context) (events, registrations int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events), len(r.registrations), nil
}
