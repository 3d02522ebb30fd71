package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/estevao-reis/juntos-por-mais/internal/audit"
	identitydomain "github.com/estevao-reis/juntos-por-mais/internal/identity/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/provider"
	persondomain "github.com/estevao-reis/juntos-por-mais/internal/person/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/apperr"
	"github.com/estevao-reis/juntos-por-mais/internal/security"
	"github.com/estevao-reis/juntos-por-mais/internal/server/middleware"
	sessiondomain "github.com/estevao-reis/juntos-por-mais/internal/session/domain"
)

// Post-login destinations by role.
const (
	RedirectAdmin = "/admin/dashboard"
	RedirectPanel = "/painel"
)

const msgInvalidCredentials = "Credenciais inválidas."

// SignInResult holds the access token and where the client should go next.
type SignInResult struct {
	AccessToken string
	ExpiresAt   time.Time
	Redirect    string
	Person      *persondomain.Person // nil when the identity has no person record
}

// PersonRepo is the minimal person repository needed by the auth service.
type PersonRepo interface {
	GetByAuthID(ctx context.Context, authID string) (*persondomain.Person, error)
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
}

// AuthService signs persons in and out and resolves access tokens.
type AuthService struct {
	provider provider.Provider
	persons  PersonRepo
	sessions SessionRepo
	tokens   *security.TokenProvider
	audit    audit.AuditLogger
}

// NewAuthService returns an AuthService. auditLogger may be nil.
func NewAuthService(p provider.Provider, persons PersonRepo, sessions SessionRepo, tokens *security.TokenProvider, auditLogger audit.AuditLogger) *AuthService {
	return &AuthService{provider: p, persons: persons, sessions: sessions, tokens: tokens, audit: auditLogger}
}

// SignIn verifies credentials with the provider, opens a session and issues an
// access token. Admins are sent to the dashboard, everyone else to the panel.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, apperr.Unauthenticated("invalid_credentials", msgInvalidCredentials)
	}
	ident, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.logEvent(ctx, "", "login_failure", email)
		switch {
		case errors.Is(err, provider.ErrInvalidCredentials):
			return nil, apperr.Unauthenticated("invalid_credentials", msgInvalidCredentials)
		case errors.Is(err, provider.ErrEmailNotConfirmed):
			return nil, apperr.Unauthenticated("email_not_confirmed", "Confirme seu e-mail antes de entrar.")
		}
		return nil, apperr.External(err, "auth_unavailable", "Não foi possível entrar. Tente novamente.")
	}
	person, err := s.persons.GetByAuthID(ctx, ident.ID)
	if err != nil {
		return nil, apperr.Internal(err, "Não foi possível carregar o perfil.")
	}

	now := time.Now().UTC()
	sess := &sessiondomain.Session{
		ID:        uuid.New().String(),
		AuthID:    ident.ID,
		ExpiresAt: now.Add(s.tokens.AccessTTL()),
		IPAddress: middleware.ClientIP(ctx),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, apperr.Internal(err, "Não foi possível iniciar a sessão.")
	}
	role, personID := "", ""
	if person != nil {
		role, personID = string(person.Role), person.ID
	}
	token, exp, err := s.tokens.IssueAccess(sess.ID, ident.ID, role)
	if err != nil {
		return nil, apperr.Internal(err, "Não foi possível iniciar a sessão.")
	}
	s.logEvent(ctx, personID, "login_success", "")

	redirect := RedirectPanel
	if person != nil && person.Role == persondomain.RoleAdmin {
		redirect = RedirectAdmin
	}
	return &SignInResult{AccessToken: token, ExpiresAt: exp, Redirect: redirect, Person: person}, nil
}

// SignOut revokes the caller's session. Anonymous calls are a no-op.
func (s *AuthService) SignOut(ctx context.Context) error {
	p := middleware.PrincipalFrom(ctx)
	if p == nil || p.SessionID == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, p.SessionID); err != nil {
		return apperr.Internal(err, "Não foi possível encerrar a sessão.")
	}
	s.logEvent(ctx, p.PersonID, "logout", "")
	return nil
}

// Authenticate validates an access token, checks its session is still active
// and resolves the person it belongs to.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*middleware.Principal, error) {
	claims, err := s.tokens.ValidateAccess(token)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if sess == nil || sess.AuthID != claims.Subject || !sess.Active(now) {
		return nil, security.ErrInvalidToken
	}
	_ = s.sessions.UpdateLastSeen(ctx, sess.ID, now)

	p := &middleware.Principal{AuthID: claims.Subject, SessionID: sess.ID}
	person, err := s.persons.GetByAuthID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if person != nil {
		p.PersonID = person.ID
		p.Role = string(person.Role)
		p.Name = person.Name
	}
	return p, nil
}

// ConfirmEmail completes a pending signup when the provider confirms emails itself.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (*identitydomain.Identity, error) {
	c, ok := s.provider.(provider.Confirmer)
	if !ok {
		return nil, apperr.Validation("confirmation_unsupported", "A confirmação é feita pelo link enviado por e-mail.")
	}
	ident, err := c.ConfirmEmail(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, provider.ErrInvalidConfirmation) {
			return nil, apperr.Validation("invalid_confirmation", "Link de confirmação inválido ou expirado.")
		}
		return nil, apperr.Internal(err, "Não foi possível confirmar o e-mail.")
	}
	return ident, nil
}

func (s *AuthService) logEvent(ctx context.Context, personID, action, metadata string) {
	if s.audit != nil {
		s.audit.LogEvent(ctx, personID, action, "session", metadata)
	}
}
