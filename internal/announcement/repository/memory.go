package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/estevao-reis/juntos-por-mais/internal/announcement/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/db"
)

// MemoryRepository keeps announcements in process. Author names are not joined.
type MemoryRepository struct {
	mu    sync.Mutex
	items map[string]*domain.Announcement
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]*domain.Announcement)}
}

func (r *MemoryRepository) Create(_ context.Context, a *domain.Announcement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[a.ID]; ok {
		return db.Conflict("announcements_pkey")
	}
	cp := *a
	r.items[a.ID] = &cp
	return nil
}

func (r *MemoryRepository) UpdateContent(_ context.Context, id, content string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return db.ErrNotFound
	}
	a.Content = content
	a.UpdatedAt = at
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return db.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*domain.Announcement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Announcement, 0, len(r.items))
	for _, a := range r.items {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
