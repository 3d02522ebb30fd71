package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/estevao-reis/juntos-por-mais/internal/db"
	"github.com/estevao-reis/juntos-por-mais/internal/person/domain"
)

// MemoryRepository is an in-process Repository used by tests and by the server
// when no database is configured. It enforces the same unique constraints as
// the persons table.
type MemoryRepository struct {
	mu      sync.Mutex
	persons map[string]*domain.Person
	regions []domain.Region
	// FailUpdate, when set, is returned by Update before any change is made.
	FailUpdate error
}

// NewMemoryRepository returns an empty repository seeded with the given regions.
func NewMemoryRepository(regions ...domain.Region) *MemoryRepository {
	return &MemoryRepository{persons: make(map[string]*domain.Person), regions: regions}
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*domain.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(func(p *domain.Person) bool { return p.ID == id }), nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*domain.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(func(p *domain.Person) bool { return p.Email == email }), nil
}

func (r *MemoryRepository) GetByCPF(_ context.Context, cpf string) (*domain.Person, error) {
	if cpf == "" {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(func(p *domain.Person) bool { return p.CPF == cpf }), nil
}

func (r *MemoryRepository) GetByAuthID(_ context.Context, authID string) (*domain.Person, error) {
	if authID == "" {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(func(p *domain.Person) bool { return p.AuthID == authID }), nil
}

func (r *MemoryRepository) Create(_ context.Context, p *domain.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.persons[p.ID]; ok {
		return db.Conflict("persons_pkey")
	}
	if err := r.checkUniqueLocked(p, ""); err != nil {
		return err
	}
	cp := *p
	r.persons[p.ID] = &cp
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, id string, u domain.Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailUpdate != nil {
		return r.FailUpdate
	}
	cur, ok := r.persons[id]
	if !ok {
		return db.ErrNotFound
	}
	next := *cur
	u.Apply(&next)
	if err := r.checkUniqueLocked(&next, id); err != nil {
		return err
	}
	next.UpdatedAt = time.Now().UTC()
	r.persons[id] = &next
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.persons[id]; !ok {
		return db.ErrNotFound
	}
	delete(r.persons, id)
	for _, p := range r.persons {
		if p.LeaderID == id {
			p.LeaderID = ""
		}
	}
	return nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*domain.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked(func(*domain.Person) bool { return true }), nil
}

func (r *MemoryRepository) ListReferred(_ context.Context, leaderID string) ([]*domain.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked(func(p *domain.Person) bool {
		return p.LeaderID == leaderID && p.Role == domain.RoleSupporter
	}), nil
}

func (r *MemoryRepository) CountByRole(_ context.Context) (map[domain.Role]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[domain.Role]int)
	for _, p := range r.persons {
		out[p.Role]++
	}
	return out, nil
}

func (r *MemoryRepository) LeaderReferralCounts(_ context.Context) ([]domain.LeaderStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]*domain.LeaderStats)
	for _, p := range r.persons {
		if p.Role == domain.RoleLeader {
			counts[p.ID] = &domain.LeaderStats{LeaderID: p.ID, LeaderName: p.Name}
		}
	}
	for _, p := range r.persons {
		if p.Role != domain.RoleSupporter {
			continue
		}
		if s, ok := counts[p.LeaderID]; ok {
			s.PartnerCount++
		}
	}
	out := make([]domain.LeaderStats, 0, len(counts))
	for _, s := range counts {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PartnerCount != out[j].PartnerCount {
			return out[i].PartnerCount > out[j].PartnerCount
		}
		return out[i].LeaderName < out[j].LeaderName
	})
	return out, nil
}

func (r *MemoryRepository) ListRegions(_ context.Context) ([]domain.Region, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]domain.Region(nil), r.regions...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AddRegion appends reg unless a region with its id exists.
func (r *MemoryRepository) AddRegion(_ context.Context, reg domain.Region) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cur := range r.regions {
		if cur.ID == reg.ID {
			return nil
		}
	}
	r.regions = append(r.regions, reg)
	return nil
}

func (r *MemoryRepository) findLocked(match func(*domain.Person) bool) *domain.Person {
	for _, p := range r.persons {
		if match(p) {
			return r.withRegionLocked(p)
		}
	}
	return nil
}

func (r *MemoryRepository) sortedLocked(match func(*domain.Person) bool) []*domain.Person {
	var out []*domain.Person
	for _, p := range r.persons {
		if match(p) {
			out = append(out, r.withRegionLocked(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *MemoryRepository) withRegionLocked(p *domain.Person) *domain.Person {
	cp := *p
	for _, reg := range r.regions {
		if reg.ID == p.RegionID {
			cp.RegionName = reg.Name
			break
		}
	}
	return &cp
}

func (r *MemoryRepository) checkUniqueLocked(p *domain.Person, selfID string) error {
	for id, other := range r.persons {
		if id == selfID {
			continue
		}
		if other.Email == p.Email {
			return db.Conflict(ConstraintEmail)
		}
		if p.CPF != "" && other.CPF == p.CPF {
			return db.Conflict(ConstraintCPF)
		}
		if p.AuthID != "" && other.AuthID == p.AuthID {
			return db.Conflict(ConstraintAuthID)
		}
	}
	return nil
}
