package local

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estevao-reis/juntos-por-mais/internal/identity/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/provider"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/security"
)

type recordingSender struct {
	tokens map[string]string
}

func (s *recordingSender) SendConfirmation(_ context.Context, email, token string) error {
	s.tokens[email] = token
	return nil
}

type materializerFunc func(ctx context.Context, ident *domain.Identity) error

func (f materializerFunc) Materialize(ctx context.Context, ident *domain.Identity) error {
	return f(ctx, ident)
}

func newProvider(m Materializer) (*Provider, *repository.MemoryRepository, *recordingSender) {
	repo := repository.NewMemoryRepository()
	sender := &recordingSender{tokens: map[string]string{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(repo, security.NewHasher(4), m, sender, logger), repo, sender
}

func TestSignUp_ConfirmThenSignIn(t *testing.T) {
	ctx := context.Background()
	var materialized *domain.Identity
	p, _, sender := newProvider(materializerFunc(func(_ context.Context, ident *domain.Identity) error {
		materialized = ident
		return nil
	}))

	res, err := p.SignUp(ctx, "ana@example.com", "secret1", domain.Metadata{domain.MetaName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.IdentitiesCreated)
	require.NotNil(t, materialized)
	assert.Equal(t, "Ana", materialized.Metadata[domain.MetaName])

	_, err = p.SignInWithPassword(ctx, "ana@example.com", "secret1")
	assert.ErrorIs(t, err, provider.ErrEmailNotConfirmed)

	_, err = p.ConfirmEmail(ctx, "bogus")
	assert.ErrorIs(t, err, provider.ErrInvalidConfirmation)

	ident, err := p.ConfirmEmail(ctx, sender.tokens["ana@example.com"])
	require.NoError(t, err)
	assert.True(t, ident.Confirmed())

	_, err = p.ConfirmEmail(ctx, sender.tokens["ana@example.com"])
	assert.ErrorIs(t, err, provider.ErrInvalidConfirmation)

	signedIn, err := p.SignInWithPassword(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, ident.ID, signedIn.ID)

	_, err = p.SignInWithPassword(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, provider.ErrInvalidCredentials)
	_, err = p.SignInWithPassword(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, provider.ErrInvalidCredentials)
}

func TestSignUp_ExistingEmailCreatesNothing(t *testing.T) {
	ctx := context.Background()
	p, repo, _ := newProvider(nil)
	_, err := p.CreateIdentity(ctx, "ana@example.com", "secret1", true, nil)
	require.NoError(t, err)

	res, err := p.SignUp(ctx, "ana@example.com", "other1", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.IdentitiesCreated)
	assert.Equal(t, 1, repo.Len())
}

func TestSignUp_MaterializerFailureRemovesIdentity(t *testing.T) {
	p, repo, _ := newProvider(materializerFunc(func(context.Context, *domain.Identity) error {
		return errors.New("cpf taken")
	}))

	_, err := p.SignUp(context.Background(), "ana@example.com", "secret1", nil)
	require.Error(t, err)
	assert.Equal(t, 0, repo.Len())
}

func TestCreateAndDeleteIdentity(t *testing.T) {
	ctx := context.Background()
	p, _, _ := newProvider(nil)

	ident, err := p.CreateIdentity(ctx, "ana@example.com", "secret1", true, nil)
	require.NoError(t, err)
	assert.True(t, ident.Confirmed())

	_, err = p.CreateIdentity(ctx, "ana@example.com", "secret1", true, nil)
	assert.ErrorIs(t, err, provider.ErrIdentityExists)

	_, err = p.SignInWithPassword(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, p.DeleteIdentity(ctx, ident.ID))
	assert.ErrorIs(t, p.DeleteIdentity(ctx, ident.ID), provider.ErrIdentityNotFound)
}

func TestUpdateIdentityEmail(t *testing.T) {
	ctx := context.Background()
	p, _, _ := newProvider(nil)
	a, err := p.CreateIdentity(ctx, "a@example.com", "secret1", true, nil)
	require.NoError(t, err)
	_, err = p.CreateIdentity(ctx, "b@example.com", "secret1", true, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, p.UpdateIdentityEmail(ctx, a.ID, "b@example.com"), provider.ErrIdentityExists)
	assert.ErrorIs(t, p.UpdateIdentityEmail(ctx, "missing", "c@example.com"), provider.ErrIdentityNotFound)
	require.NoError(t, p.UpdateIdentityEmail(ctx, a.ID, "c@example.com"))

	_, err = p.SignInWithPassword(ctx, "c@example.com", "secret1")
	assert.NoError(t, err)
}
