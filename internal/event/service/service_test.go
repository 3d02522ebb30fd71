package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estevao-reis/juntos-por-mais/internal/event/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/event/repository"
	persondomain "github.com/estevao-reis/juntos-por-mais/internal/person/domain"
	personrepo "github.com/estevao-reis/juntos-por-mais/internal/person/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/apperr"
	"github.com/estevao-reis/juntos-por-mais/internal/policy/engine"
	"github.com/estevao-reis/juntos-por-mais/internal/server/middleware"
)

type fixture struct {
	svc     *Service
	events  *repository.MemoryRepository
	persons *personrepo.MemoryRepository
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	authz, err := engine.NewOPAAuthorizer(context.Background(), nil)
	require.NoError(t, err)
	events := repository.NewMemoryRepository()
	persons := personrepo.NewMemoryRepository(persondomain.Region{ID: "r1", Name: "Centro"})
	svc := NewService(events, persons, authz, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return &fixture{svc: svc, events: events, persons: persons, now: now}
}

func admin() context.Context {
	return middleware.WithPrincipal(context.Background(), &middleware.Principal{PersonID: "adm", Role: "ADMIN"})
}

func (f *fixture) addEvent(t *testing.T, id, name string, date time.Time) {
	t.Helper()
	require.NoError(t, f.events.Create(context.Background(), &domain.Event{ID: id, Name: name, Slug: domain.Slugify(name), Date: date}))
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	date := f.now.Add(72 * time.Hour)

	e, err := f.svc.Create(admin(), CreateInput{Name: "Caminhada pela Saúde", Date: date, Description: " Traga água "})
	require.NoError(t, err)
	assert.Equal(t, "caminhada-pela-saude", e.Slug)
	assert.Equal(t, "Traga água", e.Description)

	_, err = f.svc.Create(admin(), CreateInput{Name: "CAMINHADA pela saúde!", Date: date})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.svc.Create(admin(), CreateInput{Name: "Sem data"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	leader := middleware.WithPrincipal(context.Background(), &middleware.Principal{PersonID: "l", Role: "LEADER"})
	_, err = f.svc.Create(leader, CreateInput{Name: "Outro", Date: date})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestGetPage(t *testing.T) {
	f := newFixture(t)
	f.addEvent(t, "e1", "Plenária", f.now)

	page, err := f.svc.GetPage(context.Background(), "plenaria")
	require.NoError(t, err)
	assert.Equal(t, "e1", page.Event.ID)
	require.Len(t, page.Regions, 1)

	_, err = f.svc.GetPage(context.Background(), "nada")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

type regionsDown struct {
	*personrepo.MemoryRepository
}

func (regionsDown) ListRegions(context.Context) ([]persondomain.Region, error) {
	return nil, errors.New("timeout")
}

func TestGetPage_RegionsFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.addEvent(t, "e1", "Plenária", f.now)
	f.svc.persons = regionsDown{f.persons}

	page, err := f.svc.GetPage(context.Background(), "plenaria")
	require.NoError(t, err)
	assert.Empty(t, page.Regions)
}

func TestListUpcoming(t *testing.T) {
	f := newFixture(t)
	f.addEvent(t, "past", "Antigo", f.now.Add(-time.Hour))
	f.addEvent(t, "later", "Depois", f.now.Add(48*time.Hour))
	f.addEvent(t, "soon", "Logo", f.now.Add(time.Hour))

	list, err := f.svc.ListUpcoming(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "soon", list[0].ID)
	assert.Equal(t, "later", list[1].ID)

	all, err := f.svc.ListAll(admin())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRegister_NewSupporterThenDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addEvent(t, "e1", "Plenária", f.now)
	require.NoError(t, f.persons.Create(ctx, &persondomain.Person{ID: "l1", Role: persondomain.RoleLeader, Name: "Bia", Email: "bia@x.com", CPF: "52998224725"}))

	in := RegisterInput{EventID: "e1", Email: "Caio@X.com", LeaderID: "l1", Name: "Caio", Phone: "119", RegionID: "r1"}
	already, err := f.svc.Register(ctx, in)
	require.NoError(t, err)
	assert.False(t, already)

	p, _ := f.persons.GetByEmail(ctx, "caio@x.com")
	require.NotNil(t, p)
	assert.Equal(t, persondomain.RoleSupporter, p.Role)
	assert.Equal(t, "l1", p.LeaderID)

	already, err = f.svc.Register(ctx, RegisterInput{EventID: "e1", Email: "caio@x.com"})
	require.NoError(t, err)
	assert.True(t, already)

	n, _ := f.events.CountRegistrations(ctx, "e1")
	assert.Equal(t, 1, n)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	f.addEvent(t, "e1", "Plenária", f.now)

	_, err := f.svc.Register(context.Background(), RegisterInput{EventID: "e1"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.Register(context.Background(), RegisterInput{EventID: "e1", Email: "novo@x.com", Name: "Novo"})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "Para novos apoiadores, nome, telefone e região são obrigatórios.", e.Message)

	_, err = f.svc.Register(context.Background(), RegisterInput{EventID: "missing", Email: "a@x.com"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRegister_DropsNonLeaderReferral(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addEvent(t, "e1", "Plenária", f.now)
	require.NoError(t, f.persons.Create(ctx, &persondomain.Person{ID: "s1", Role: persondomain.RoleSupporter, Name: "Sup", Email: "sup@x.com"}))

	_, err := f.svc.Register(ctx, RegisterInput{EventID: "e1", Email: "d@x.com", LeaderID: "s1", Name: "D", Phone: "1", RegionID: "r1"})
	require.NoError(t, err)
	p, _ := f.persons.GetByEmail(ctx, "d@x.com")
	assert.Empty(t, p.LeaderID)
}
