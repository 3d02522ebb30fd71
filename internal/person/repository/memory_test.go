package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estevao-reis/juntos-por-mais/internal/db"
	"github.com/estevao-reis/juntos-por-mais/internal/person/domain"
)

func seedPerson(t *testing.T, r *MemoryRepository, p domain.Person) {
	t.Helper()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	require.NoError(t, r.Create(context.Background(), &p))
}

func TestMemory_UniqueConstraints(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	seedPerson(t, r, domain.Person{ID: "a", Role: domain.RoleLeader, Email: "a@x.com", CPF: "52998224725", AuthID: "auth-a"})

	err := r.Create(ctx, &domain.Person{ID: "b", Email: "a@x.com"})
	assert.True(t, db.ConflictOn(err, ConstraintEmail))

	err = r.Create(ctx, &domain.Person{ID: "b", Email: "b@x.com", CPF: "52998224725"})
	assert.True(t, db.ConflictOn(err, ConstraintCPF))

	err = r.Create(ctx, &domain.Person{ID: "b", Email: "b@x.com", AuthID: "auth-a"})
	assert.True(t, db.ConflictOn(err, ConstraintAuthID))

	// supporters without CPF do not collide with each other
	seedPerson(t, r, domain.Person{ID: "c", Role: domain.RoleSupporter, Email: "c@x.com"})
	seedPerson(t, r, domain.Person{ID: "d", Role: domain.RoleSupporter, Email: "d@x.com"})
}

func TestMemory_UpdateConflictLeavesRecordUntouched(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	seedPerson(t, r, domain.Person{ID: "a", Role: domain.RoleLeader, Email: "a@x.com", CPF: "52998224725"})
	seedPerson(t, r, domain.Person{ID: "b", Role: domain.RoleSupporter, Email: "b@x.com"})

	err := r.Update(ctx, "b", domain.Update{
		Role: domain.RolePtr(domain.RoleLeader),
		CPF:  domain.StrPtr("52998224725"),
	})
	require.ErrorIs(t, err, db.ErrConflict)

	b, err := r.GetByID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSupporter, b.Role)
	assert.Empty(t, b.CPF)
}

func TestMemory_UpdateAndDelete_Missing(t *testing.T) {
	r := NewMemoryRepository()
	assert.ErrorIs(t, r.Update(context.Background(), "x", domain.Update{}), db.ErrNotFound)
	assert.ErrorIs(t, r.Delete(context.Background(), "x"), db.ErrNotFound)
}

func TestMemory_ListReferredAndCounts(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository(domain.Region{ID: "r1", Name: "Centro"})
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedPerson(t, r, domain.Person{ID: "l1", Name: "Lia", Role: domain.RoleLeader, Email: "l1@x.com", CPF: "1", CreatedAt: base})
	seedPerson(t, r, domain.Person{ID: "l2", Name: "Bia", Role: domain.RoleLeader, Email: "l2@x.com", CPF: "2", CreatedAt: base})
	seedPerson(t, r, domain.Person{ID: "s1", Role: domain.RoleSupporter, Email: "s1@x.com", LeaderID: "l1", RegionID: "r1", CreatedAt: base.Add(time.Hour)})
	seedPerson(t, r, domain.Person{ID: "s2", Role: domain.RoleSupporter, Email: "s2@x.com", LeaderID: "l1", CreatedAt: base.Add(2 * time.Hour)})

	referred, err := r.ListReferred(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, referred, 2)
	assert.Equal(t, "s2", referred[0].ID)
	assert.Equal(t, "Centro", referred[1].RegionName)

	stats, err := r.LeaderReferralCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.LeaderStats{
		{LeaderID: "l1", LeaderName: "Lia", PartnerCount: 2},
		{LeaderID: "l2", LeaderName: "Bia", PartnerCount: 0},
	}, stats)

	require.NoError(t, r.Delete(ctx, "l1"))
	s1, _ := r.GetByID(ctx, "s1")
	assert.Empty(t, s1.LeaderID)
}

func TestMemory_AddRegion(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository(domain.Region{ID: "b", Name: "Gama"})
	require.NoError(t, r.AddRegion(ctx, domain.Region{ID: "a", Name: "Ceilândia"}))
	require.NoError(t, r.AddRegion(ctx, domain.Region{ID: "b", Name: "Outro nome"}))

	regions, err := r.ListRegions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Region{{ID: "a", Name: "Ceilândia"}, {ID: "b", Name: "Gama"}}, regions)
}
