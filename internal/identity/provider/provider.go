// Package provider defines the authentication provider contract used by the
// signup, session and admin services. Implementations live in the gotrue and
// local subpackages.
package provider

import (
	"context"
	"errors"

	"github.com/estevao-reis/juntos-por-mais/internal/identity/domain"
)

var (
	// ErrIdentityNotFound is returned when the identity id is unknown to the provider.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrIdentityExists is returned when the email already belongs to an identity.
	ErrIdentityExists = errors.New("identity already exists")
	// ErrInvalidCredentials is returned by SignInWithPassword for a wrong email or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotConfirmed is returned by SignInWithPassword for identities awaiting confirmation.
	ErrEmailNotConfirmed = errors.New("email not confirmed")
	// ErrInvalidConfirmation is returned when a confirmation token is unknown or already used.
	ErrInvalidConfirmation = errors.New("invalid confirmation token")
)

// SignUpResult is the outcome of a self-service signup. IdentitiesCreated is
// zero when the email already has an identity through some sign-in method; the
// provider then reports success without creating anything.
type SignUpResult struct {
	Identity          *domain.Identity
	IdentitiesCreated int
}

// Provider is an external authentication service holding credentials.
type Provider interface {
	// CreateIdentity creates an identity directly. With preConfirmed the
	// identity can sign in immediately.
	CreateIdentity(ctx context.Context, email, password string, preConfirmed bool, metadata domain.Metadata) (*domain.Identity, error)
	DeleteIdentity(ctx context.Context, id string) error
	UpdateIdentityEmail(ctx context.Context, id, email string) error
	// SignUp starts a self-service signup that completes on email confirmation.
	SignUp(ctx context.Context, email, password string, metadata domain.Metadata) (*SignUpResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Identity, error)
}

// Confirmer is implemented by providers that confirm emails themselves.
type Confirmer interface {
	ConfirmEmail(ctx context.Context, token string) (*domain.Identity, error)
}
