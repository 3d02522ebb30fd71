// Package local implements provider.Provider on the identities table, for
// deployments without a hosted auth server.
package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/estevao-reis/juntos-por-mais/internal/db"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/provider"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/security"
)

// Materializer creates the person record for an identity that signed up on its
// own. It runs right after the identity is stored; on failure the identity is
// removed and SignUp fails.
type Materializer interface {
	Materialize(ctx context.Context, ident *domain.Identity) error
}

// ConfirmationSender delivers the confirmation token of a new signup.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, email, token string) error
}

// Provider stores identities in the local database.
type Provider struct {
	repo         repository.Repository
	hasher       *security.Hasher
	materializer Materializer
	sender       ConfirmationSender
	logger       *slog.Logger
}

// New returns a local Provider. materializer and sender may be nil.
func New(repo repository.Repository, hasher *security.Hasher, materializer Materializer, sender ConfirmationSender, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{repo: repo, hasher: hasher, materializer: materializer, sender: sender, logger: logger}
}

var (
	_ provider.Provider  = (*Provider)(nil)
	_ provider.Confirmer = (*Provider)(nil)
)

// CreateIdentity stores a new identity.
func (p *Provider) CreateIdentity(ctx context.Context, email, password string, preConfirmed bool, metadata domain.Metadata) (*domain.Identity, error) {
	ident, _, err := p.create(ctx, email, password, preConfirmed, metadata)
	return ident, err
}

func (p *Provider) create(ctx context.Context, email, password string, preConfirmed bool, metadata domain.Metadata) (*domain.Identity, string, error) {
	hash, err := p.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}
	now := time.Now().UTC()
	ident := &domain.Identity{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Metadata:     metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	var token string
	if preConfirmed {
		ident.ConfirmedAt = &now
	} else {
		var tokenHash string
		token, tokenHash, err = security.NewConfirmationToken()
		if err != nil {
			return nil, "", err
		}
		ident.ConfirmationHash = tokenHash
	}
	if err := p.repo.Create(ctx, ident); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, "", provider.ErrIdentityExists
		}
		return nil, "", err
	}
	return ident, token, nil
}

// DeleteIdentity removes the identity.
func (p *Provider) DeleteIdentity(ctx context.Context, id string) error {
	if err := p.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return provider.ErrIdentityNotFound
		}
		return err
	}
	return nil
}

// UpdateIdentityEmail changes the identity's email.
func (p *Provider) UpdateIdentityEmail(ctx context.Context, id, email string) error {
	err := p.repo.UpdateEmail(ctx, id, email)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return provider.ErrIdentityNotFound
	case errors.Is(err, db.ErrConflict):
		return provider.ErrIdentityExists
	}
	return err
}

// SignUp creates an unconfirmed identity and its person record. An email that
// already has an identity yields a result with zero identities and no error.
func (p *Provider) SignUp(ctx context.Context, email, password string, metadata domain.Metadata) (*provider.SignUpResult, error) {
	existing, err := p.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &provider.SignUpResult{Identity: &domain.Identity{ID: existing.ID, Email: email}}, nil
	}
	ident, token, err := p.create(ctx, email, password, false, metadata)
	if errors.Is(err, provider.ErrIdentityExists) {
		return &provider.SignUpResult{Identity: &domain.Identity{Email: email}}, nil
	}
	if err != nil {
		return nil, err
	}
	if p.materializer != nil {
		if err := p.materializer.Materialize(ctx, ident); err != nil {
			if delErr := p.repo.Delete(ctx, ident.ID); delErr != nil {
				p.logger.ErrorContext(ctx, "remove identity after failed materialization",
					"identity_id", ident.ID, "error", delErr)
			}
			return nil, fmt.Errorf("create person record: %w", err)
		}
	}
	if p.sender != nil {
		if err := p.sender.SendConfirmation(ctx, email, token); err != nil {
			p.logger.WarnContext(ctx, "send confirmation", "identity_id", ident.ID, "error", err)
		}
	}
	return &provider.SignUpResult{Identity: ident, IdentitiesCreated: 1}, nil
}

// SignInWithPassword checks credentials of a confirmed identity.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*domain.Identity, error) {
	ident, err := p.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if ident == nil || ident.PasswordHash == "" {
		return nil, provider.ErrInvalidCredentials
	}
	if err := p.hasher.Verify(ident.PasswordHash, password); err != nil {
		return nil, provider.ErrInvalidCredentials
	}
	if !ident.Confirmed() {
		return nil, provider.ErrEmailNotConfirmed
	}
	return ident, nil
}

// ConfirmEmail confirms the identity holding token.
func (p *Provider) ConfirmEmail(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, provider.ErrInvalidConfirmation
	}
	ident, err := p.repo.GetByConfirmationHash(ctx, security.HashToken(token))
	if err != nil {
		return nil, err
	}
	if ident == nil {
		return nil, provider.ErrInvalidConfirmation
	}
	now := time.Now().UTC()
	if err := p.repo.Confirm(ctx, ident.ID, now); err != nil {
		return nil, err
	}
	ident.ConfirmedAt = &now
	ident.ConfirmationHash = ""
	return ident, nil
}

// LogSender writes confirmation links to the log. It stands in for a mailer in
// development.
type LogSender struct {
	Logger  *slog.Logger
	SiteURL string
}

func (s LogSender) SendConfirmation(ctx context.Context, email, token string) error {
	s.Logger.InfoContext(ctx, "confirmation link issued",
		"email", email, "link", s.SiteURL+"/confirmar?token="+token)
	return nil
}
