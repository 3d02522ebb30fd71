package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estevao-reis/juntos-por-mais/internal/audit"
	auditdomain "github.com/estevao-reis/juntos-por-mais/internal/audit/domain"
	auditrepo "github.com/estevao-reis/juntos-por-mais/internal/audit/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/provider/local"
	identityrepo "github.com/estevao-reis/juntos-por-mais/internal/identity/repository"
	persondomain "github.com/estevao-reis/juntos-por-mais/internal/person/domain"
	personrepo "github.com/estevao-reis/juntos-por-mais/internal/person/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/apperr"
	"github.com/estevao-reis/juntos-por-mais/internal/security"
	"github.com/estevao-reis/juntos-por-mais/internal/server/middleware"
	sessionrepo "github.com/estevao-reis/juntos-por-mais/internal/session/repository"
)

type fixture struct {
	svc      *AuthService
	provider *local.Provider
	persons  *personrepo.MemoryRepository
	audit    *auditrepo.MemoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	prov := local.New(identityrepo.NewMemoryRepository(), security.NewHasher(4), nil, nil, logger)
	persons := personrepo.NewMemoryRepository()
	auditRepo := auditrepo.NewMemoryRepository()
	svc := NewAuthService(prov, persons, sessionrepo.NewMemoryRepository(), tokens, audit.NewLogger(auditRepo, nil, logger))
	return &fixture{svc: svc, provider: prov, persons: persons, audit: auditRepo}
}

func (f *fixture) addPerson(t *testing.T, email string, role persondomain.Role) *persondomain.Person {
	t.Helper()
	ident, err := f.provider.CreateIdentity(context.Background(), email, "secret1", true, nil)
	require.NoError(t, err)
	p := &persondomain.Person{
		ID: "p-" + email, AuthID: ident.ID, Role: role, Name: "Nome", Email: email, CPF: email,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.persons.Create(context.Background(), p))
	return p
}

func TestSignIn_RedirectByRole(t *testing.T) {
	f := newFixture(t)
	f.addPerson(t, "admin@x.com", persondomain.RoleAdmin)
	f.addPerson(t, "leader@x.com", persondomain.RoleLeader)
	ctx := context.Background()

	res, err := f.svc.SignIn(ctx, " ADMIN@x.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, RedirectAdmin, res.Redirect)
	assert.NotEmpty(t, res.AccessToken)

	res, err = f.svc.SignIn(ctx, "leader@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, RedirectPanel, res.Redirect)
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	f.addPerson(t, "leader@x.com", persondomain.RoleLeader)

	_, err := f.svc.SignIn(context.Background(), "leader@x.com", "wrong")
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindUnauthenticated, e.Kind)
	assert.Equal(t, "Credenciais inválidas.", e.Message)

	failures, err := f.audit.List(context.Background(), auditdomain.Filter{Action: "login_failure"}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, failures, 1)
}

func TestAuthenticateAndSignOut(t *testing.T) {
	f := newFixture(t)
	leader := f.addPerson(t, "leader@x.com", persondomain.RoleLeader)
	ctx := context.Background()

	res, err := f.svc.SignIn(ctx, "leader@x.com", "secret1")
	require.NoError(t, err)

	p, err := f.svc.Authenticate(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, leader.ID, p.PersonID)
	assert.Equal(t, "LEADER", p.Role)

	require.NoError(t, f.svc.SignOut(middleware.WithPrincipal(ctx, p)))
	_, err = f.svc.Authenticate(ctx, res.AccessToken)
	assert.ErrorIs(t, err, security.ErrInvalidToken)

	assert.NoError(t, f.svc.SignOut(ctx))
}

func TestConfirmEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ConfirmEmail(context.Background(), "unknown")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
