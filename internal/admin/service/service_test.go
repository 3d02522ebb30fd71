package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditdomain "github.com/estevao-reis/juntos-por-mais/internal/audit/domain"
	auditrepo "github.com/estevao-reis/juntos-por-mais/internal/audit/repository"
	eventdomain "github.com/estevao-reis/juntos-por-mais/internal/event/domain"
	eventrepo "github.com/estevao-reis/juntos-por-mais/internal/event/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/provider"
	"github.com/estevao-reis/juntos-por-mais/internal/person/domain"
	personrepo "github.com/estevao-reis/juntos-por-mais/internal/person/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/apperr"
	"github.com/estevao-reis/juntos-por-mais/internal/policy/engine"
	"github.com/estevao-reis/juntos-por-mais/internal/server/middleware"
	sessiondomain "github.com/estevao-reis/juntos-por-mais/internal/session/domain"
	sessionrepo "github.com/estevao-reis/juntos-por-mais/internal/session/repository"
)

type fakeIdentities struct {
	deleteErr error
	emailErr  error
	deleted   []string
	emails    map[string]string
}

func (f *fakeIdentities) DeleteIdentity(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *fakeIdentities) UpdateIdentityEmail(_ context.Context, id, email string) error {
	if f.emailErr != nil {
		return f.emailErr
	}
	f.emails[id] = email
	return nil
}

type fixture struct {
	svc        *Service
	persons    *personrepo.MemoryRepository
	identities *fakeIdentities
	sessions   *sessionrepo.MemoryRepository
	events     *eventrepo.MemoryRepository
	audit      *auditrepo.MemoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	authz, err := engine.NewOPAAuthorizer(context.Background(), nil)
	require.NoError(t, err)
	ctx := context.Background()
	persons := personrepo.NewMemoryRepository()
	now := time.Now().UTC()
	for i, p := range []*domain.Person{
		{ID: "adm", AuthID: "a-adm", Role: domain.RoleAdmin, Name: "Admin", Email: "adm@x.com", CPF: "11144477735"},
		{ID: "led", AuthID: "a-led", Role: domain.RoleLeader, Name: "Bia", Email: "bia@x.com", CPF: "52998224725"},
		{ID: "sup", Role: domain.RoleSupporter, Name: "Caio", Email: "caio@x.com", LeaderID: "led"},
	} {
		p.CreatedAt = now.Add(time.Duration(i) * time.Minute)
		require.NoError(t, persons.Create(ctx, p))
	}
	f := &fixture{
		persons:    persons,
		identities: &fakeIdentities{emails: map[string]string{}},
		sessions:   sessionrepo.NewMemoryRepository(),
		events:     eventrepo.NewMemoryRepository(),
		audit:      auditrepo.NewMemoryRepository(),
	}
	f.svc = NewService(Deps{
		Persons: persons, Identities: f.identities, Sessions: f.sessions,
		Events: f.events, Audit: f.audit, Authz: authz,
	})
	return f
}

func asAdmin() context.Context {
	return middleware.WithPrincipal(context.Background(), &middleware.Principal{PersonID: "adm", AuthID: "a-adm", Role: "ADMIN"})
}

func asLeader() context.Context {
	return middleware.WithPrincipal(context.Background(), &middleware.Principal{PersonID: "led", AuthID: "a-led", Role: "LEADER"})
}

func TestListUsers(t *testing.T) {
	f := newFixture(t)
	list, err := f.svc.ListUsers(asAdmin())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "sup", list[0].ID)

	list, err = f.svc.ListUsers(asLeader())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestUpdateUserRole(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.UpdateUserRole(asAdmin(), "led", domain.RoleAdmin))
	p, _ := f.persons.GetByID(context.Background(), "led")
	assert.Equal(t, domain.RoleAdmin, p.Role)

	assert.True(t, apperr.Is(f.svc.UpdateUserRole(asAdmin(), "led", domain.RoleSupporter), apperr.KindValidation))
	assert.True(t, apperr.Is(f.svc.UpdateUserRole(asAdmin(), "nobody", domain.RoleLeader), apperr.KindNotFound))

	err := f.svc.UpdateUserRole(asLeader(), "sup", domain.RoleLeader)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "Você não tem permissão para realizar esta ação.", e.Message)
}

func TestUpdateUserCoreInfo(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.UpdateUserCoreInfo(asAdmin(), "led", CoreInfo{Email: "BIA2@x.com", CPF: "123.456.789-09"}))
	p, _ := f.persons.GetByID(context.Background(), "led")
	assert.Equal(t, "bia2@x.com", p.Email)
	assert.Equal(t, "12345678909", p.CPF)
	assert.Equal(t, "bia2@x.com", f.identities.emails["a-led"])

	cases := []struct {
		in   CoreInfo
		kind apperr.Kind
	}{
		{CoreInfo{Email: "", CPF: "52998224725"}, apperr.KindValidation},
		{CoreInfo{Email: "z@x.com", CPF: "52998224724"}, apperr.KindValidation},
		{CoreInfo{Email: "caio@x.com", CPF: "12345678909"}, apperr.KindConflict},
		{CoreInfo{Email: "bia2@x.com", CPF: "11144477735"}, apperr.KindConflict},
	}
	for _, tc := range cases {
		assert.True(t, apperr.Is(f.svc.UpdateUserCoreInfo(asAdmin(), "led", tc.in), tc.kind), "%+v", tc.in)
	}
}

func TestUpdateUserCoreInfo_ProviderFailureLeavesRecord(t *testing.T) {
	f := newFixture(t)
	f.identities.emailErr = errors.New("timeout")
	err := f.svc.UpdateUserCoreInfo(asAdmin(), "led", CoreInfo{Email: "new@x.com", CPF: "52998224725"})
	assert.True(t, apperr.Is(err, apperr.KindExternal))
	p, _ := f.persons.GetByID(context.Background(), "led")
	assert.Equal(t, "bia@x.com", p.Email)
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := time.Now().UTC()
	require.NoError(t, f.sessions.Create(ctx, &sessiondomain.Session{ID: "s1", AuthID: "a-led", ExpiresAt: now.Add(time.Hour), CreatedAt: now}))

	assert.True(t, apperr.Is(f.svc.DeleteUser(asAdmin(), "adm"), apperr.KindValidation))

	f.identities.deleteErr = provider.ErrIdentityNotFound
	require.NoError(t, f.svc.DeleteUser(asAdmin(), "led"))
	assert.Equal(t, []string{"a-led"}, f.identities.deleted)
	p, _ := f.persons.GetByID(ctx, "led")
	assert.Nil(t, p)
	s, _ := f.sessions.GetByID(ctx, "s1")
	require.NotNil(t, s)
	assert.NotNil(t, s.RevokedAt)

	sup, _ := f.persons.GetByID(ctx, "sup")
	assert.Empty(t, sup.LeaderID)
}

func TestDeleteUser_ProviderFailureKeepsRecord(t *testing.T) {
	f := newFixture(t)
	f.identities.deleteErr = errors.New("503")
	assert.True(t, apperr.Is(f.svc.DeleteUser(asAdmin(), "led"), apperr.KindExternal))
	p, _ := f.persons.GetByID(context.Background(), "led")
	assert.NotNil(t, p)
}

func TestDeleteUser_SupporterWithoutIdentity(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.DeleteUser(asAdmin(), "sup"))
	assert.Empty(t, f.identities.deleted)
}

func TestGetDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.events.Create(ctx, &eventdomain.Event{ID: "e1", Slug: "e1"}))
	require.NoError(t, f.events.CreateRegistration(ctx, &eventdomain.Registration{ID: "r1", EventID: "e1", PersonID: "sup"}))

	d, err := f.svc.GetDashboard(asAdmin())
	require.NoError(t, err)
	assert.Equal(t, 1, d.TotalSupporters)
	assert.Equal(t, 1, d.TotalLeaders)
	assert.Equal(t, 1, d.TotalAdmins)
	assert.Equal(t, 1, d.TotalEvents)
	assert.Equal(t, 1, d.TotalRegistrations)
	require.NotEmpty(t, d.Leaders)
	assert.Equal(t, "led", d.Leaders[0].LeaderID)
	assert.Equal(t, 1, d.Leaders[0].PartnerCount)

	_, err = f.svc.GetDashboard(asLeader())
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestListAuditLogs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.audit.Create(ctx, &auditdomain.AuditLog{ID: "1", UserID: "adm", Action: "role_changed", Resource: "user", CreatedAt: time.Now()}))
	require.NoError(t, f.audit.Create(ctx, &auditdomain.AuditLog{ID: "2", UserID: "adm", Action: "login_success", Resource: "session", CreatedAt: time.Now()}))

	list, err := f.svc.ListAuditLogs(asAdmin(), auditdomain.Filter{Action: "role_changed"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "1", list[0].ID)

	_, err = f.svc.ListAuditLogs(asLeader(), auditdomain.Filter{}, 10, 0)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}
