package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estevao-reis/juntos-por-mais/internal/identity/provider"
	"github.com/estevao-reis/juntos-por-mais/internal/person/domain"
	personrepo "github.com/estevao-reis/juntos-por-mais/internal/person/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/apperr"
	"github.com/estevao-reis/juntos-por-mais/internal/policy/engine"
	"github.com/estevao-reis/juntos-por-mais/internal/server/middleware"
)

type fakeEmails struct {
	err   error
	calls map[string]string
}

func (f *fakeEmails) UpdateIdentityEmail(_ context.Context, id, email string) error {
	if f.err != nil {
		return f.err
	}
	f.calls[id] = email
	return nil
}

type fixture struct {
	svc     *Service
	persons *personrepo.MemoryRepository
	emails  *fakeEmails
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	authz, err := engine.NewOPAAuthorizer(context.Background(), nil)
	require.NoError(t, err)
	persons := personrepo.NewMemoryRepository()
	emails := &fakeEmails{calls: map[string]string{}}
	ctx := context.Background()
	for _, p := range []*domain.Person{
		{ID: "adm", AuthID: "a-adm", Role: domain.RoleAdmin, Name: "Admin", Email: "adm@x.com", CPF: "11144477735", Phone: "1"},
		{ID: "led", AuthID: "a-led", Role: domain.RoleLeader, Name: "Bia", Email: "bia@x.com", CPF: "52998224725", Phone: "2"},
		{ID: "sup", Role: domain.RoleSupporter, Name: "Caio", Email: "caio@x.com", Phone: "3", LeaderID: "led"},
	} {
		require.NoError(t, persons.Create(ctx, p))
	}
	return &fixture{svc: NewService(persons, emails, authz, "https://juntos.example/"), persons: persons, emails: emails}
}

func as(id, role string) context.Context {
	return middleware.WithPrincipal(context.Background(), &middleware.Principal{PersonID: id, AuthID: "a-" + id, Role: role})
}

func TestUpdateProfile_Owner(t *testing.T) {
	f := newFixture(t)
	err := f.svc.UpdateProfile(as("led", "LEADER"), "led", Update{
		Name: "Bia Lima", Phone: "119", RegionID: "r2", BirthDate: "02/03/1985",
		Email: "ignored@x.com", CPF: "11144477735",
	})
	require.NoError(t, err)

	p, _ := f.persons.GetByID(context.Background(), "led")
	assert.Equal(t, "Bia Lima", p.Name)
	assert.Equal(t, "bia@x.com", p.Email, "non-admins cannot change email")
	assert.Equal(t, "52998224725", p.CPF)
	require.NotNil(t, p.BirthDate)
	assert.Empty(t, f.emails.calls)
}

func TestUpdateProfile_OtherPersonForbidden(t *testing.T) {
	f := newFixture(t)
	err := f.svc.UpdateProfile(as("led", "LEADER"), "adm", Update{Name: "X", Phone: "1"})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindForbidden, e.Kind)
	assert.Equal(t, "Você não tem permissão para editar este perfil.", e.Message)

	err = f.svc.UpdateProfile(context.Background(), "led", Update{Name: "X", Phone: "1"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	err = f.svc.UpdateProfile(as("led", "LEADER"), "missing", Update{Name: "X", Phone: "1"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateProfile_AdminChangesEmailAndCPF(t *testing.T) {
	f := newFixture(t)
	err := f.svc.UpdateProfile(as("adm", "ADMIN"), "led", Update{
		Name: "Bia", Phone: "2", Email: "Nova@X.com", CPF: "123.456.789-09",
	})
	require.NoError(t, err)

	p, _ := f.persons.GetByID(context.Background(), "led")
	assert.Equal(t, "nova@x.com", p.Email)
	assert.Equal(t, "12345678909", p.CPF)
	assert.Equal(t, "nova@x.com", f.emails.calls["a-led"])
}

func TestUpdateProfile_AdminConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := as("adm", "ADMIN")

	err := f.svc.UpdateProfile(ctx, "led", Update{Name: "Bia", Phone: "2", Email: "caio@x.com"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	err = f.svc.UpdateProfile(ctx, "led", Update{Name: "Bia", Phone: "2", CPF: "11144477735"})
	e, _ := apperr.As(err)
	require.NotNil(t, e)
	assert.Equal(t, "cpf_taken", e.Code)

	err = f.svc.UpdateProfile(ctx, "led", Update{Name: "Bia", Phone: "2", CPF: "123"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	f.emails.err = errors.New("gotrue down")
	err = f.svc.UpdateProfile(ctx, "led", Update{Name: "Bia", Phone: "2", Email: "z@x.com"})
	assert.True(t, apperr.Is(err, apperr.KindExternal))
	p, _ := f.persons.GetByID(context.Background(), "led")
	assert.Equal(t, "bia@x.com", p.Email)

	f.emails.err = provider.ErrIdentityExists
	err = f.svc.UpdateProfile(ctx, "led", Update{Name: "Bia", Phone: "2", Email: "z@x.com"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestListReferred(t *testing.T) {
	f := newFixture(t)
	list, err := f.svc.ListReferred(as("led", "LEADER"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "sup", list[0].ID)

	_, err = f.svc.ListReferred(context.Background())
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func TestAvatar(t *testing.T) {
	f := newFixture(t)
	ctx := as("led", "LEADER")

	assert.True(t, apperr.Is(f.svc.RemoveAvatar(ctx), apperr.KindValidation))
	assert.True(t, apperr.Is(f.svc.SetAvatarURL(ctx, "javascript:alert(1)"), apperr.KindValidation))

	require.NoError(t, f.svc.SetAvatarURL(ctx, "https://cdn.example/a.png"))
	p, _ := f.persons.GetByID(context.Background(), "led")
	assert.Equal(t, "https://cdn.example/a.png", p.AvatarURL)

	require.NoError(t, f.svc.RemoveAvatar(ctx))
	p, _ = f.persons.GetByID(context.Background(), "led")
	assert.Empty(t, p.AvatarURL)
}

func TestGetMe(t *testing.T) {
	f := newFixture(t)
	me, err := f.svc.GetMe(as("led", "LEADER"))
	require.NoError(t, err)
	assert.Equal(t, "https://juntos.example/cadastro?ref=led", me.ReferralLink)

	me, err = f.svc.GetMe(as("sup", "SUPPORTER"))
	require.NoError(t, err)
	assert.Empty(t, me.ReferralLink)
}
