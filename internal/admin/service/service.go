// Package service implements the admin console: user management, the
// dashboard and the audit trail.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	auditdomain "github.com/estevao-reis/juntos-por-mais/internal/audit/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/cpf"
	"github.com/estevao-reis/juntos-por-mais/internal/db"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/provider"
	"github.com/estevao-reis/juntos-por-mais/internal/person/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/person/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/apperr"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/rbac"
	"github.com/estevao-reis/juntos-por-mais/internal/policy/engine"
)

// Success messages.
const (
	MsgRoleUpdated     = "Função do usuário atualizada com sucesso!"
	MsgCoreInfoUpdated = "Dados do usuário atualizados com sucesso."
	MsgUserDeleted     = "Usuário excluído com sucesso."
)

// PersonStore is the subset of the person repository used by the admin console.
type PersonStore interface {
	GetByID(ctx context.Context, id string) (*domain.Person, error)
	GetByEmail(ctx context.Context, email string) (*domain.Person, error)
	GetByCPF(ctx context.Context, cpf string) (*domain.Person, error)
	Update(ctx context.Context, id string, u domain.Update) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*domain.Person, error)
	CountByRole(ctx context.Context) (map[domain.Role]int, error)
	LeaderReferralCounts(ctx context.Context) ([]domain.LeaderStats, error)
}

// IdentityAdmin is the part of the authentication provider admins drive.
type IdentityAdmin interface {
	DeleteIdentity(ctx context.Context, id string) error
	UpdateIdentityEmail(ctx context.Context, id, email string) error
}

// SessionRevoker ends every session of an identity.
type SessionRevoker interface {
	RevokeAllByAuthID(ctx context.Context, authID string) error
}

// EventTotals counts events and registrations.
type EventTotals interface {
	Totals(ctx context.Context) (events, registrations int, err error)
}

// AuditLister reads the audit trail.
type AuditLister interface {
	List(ctx context.Context, f auditdomain.Filter, limit, offset int) ([]*auditdomain.AuditLog, error)
}

// Deps groups the Service collaborators.
type Deps struct {
	Persons    PersonStore
	Identities IdentityAdmin
	Sessions   SessionRevoker
	Events     EventTotals
	Audit      AuditLister
	Authz      engine.Authorizer
	Logger     *slog.Logger
}

// Service implements the admin operations. Every method requires an ADMIN caller.
type Service struct {
	Deps
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Service{Deps: d}
}

// ListUsers returns every person with the region name, newest first. Callers
// that are not admins get an empty list.
func (s *Service) ListUsers(ctx context.Context) ([]*domain.Person, error) {
	if _, err := rbac.RequireAdmin(ctx, s.Authz); err != nil {
		if apperr.Is(err, apperr.KindInternal) {
			return nil, err
		}
		return []*domain.Person{}, nil
	}
	list, err := s.Persons.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Não foi possível carregar os usuários.")
	}
	return list, nil
}

// UpdateUserRole sets the role of userID to ADMIN or LEADER.
func (s *Service) UpdateUserRole(ctx context.Context, userID string, role domain.Role) error {
	if _, err := rbac.Require(ctx, s.Authz, engine.ActionAdmin, "", rbac.MsgForbidden); err != nil {
		return err
	}
	if role != domain.RoleAdmin && role != domain.RoleLeader {
		return apperr.Validation("invalid_role", "Função inválida.")
	}
	err := s.Persons.Update(ctx, userID, domain.Update{Role: domain.RolePtr(role)})
	if errors.Is(err, db.ErrNotFound) {
		return apperr.NotFound("user_not_found", "Usuário não encontrado.")
	}
	if err != nil {
		return apperr.Internal(err, "Não foi possível atualizar a função do usuário.")
	}
	return nil
}

// CoreInfo is the email and CPF an admin may correct.
type CoreInfo struct {
	Email string
	CPF   string
}

// UpdateUserCoreInfo changes the email and CPF of userID. The login email is
// changed first when the person has an identity; the record follows.
func (s *Service) UpdateUserCoreInfo(ctx context.Context, userID string, in CoreInfo) error {
	if _, err := rbac.RequireAdmin(ctx, s.Authz); err != nil {
		return err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if userID == "" || email == "" || strings.TrimSpace(in.CPF) == "" {
		return apperr.Validation("missing_fields", "Todos os campos são obrigatórios.")
	}
	clean := cpf.Clean(in.CPF)
	if !cpf.Valid(clean) {
		return apperr.Validation("invalid_cpf", "CPF inválido.")
	}

	target, err := s.Persons.GetByID(ctx, userID)
	if err != nil {
		return apperr.Internal(err, "Falha ao atualizar dados do perfil.")
	}
	if target == nil {
		return apperr.NotFound("user_not_found", "Usuário não encontrado.")
	}
	if other, err := s.Persons.GetByEmail(ctx, email); err != nil {
		return apperr.Internal(err, "Falha ao atualizar dados do perfil.")
	} else if other != nil && other.ID != userID {
		return apperr.Conflict("email_taken", "O e-mail informado já está em uso por outro usuário.")
	}
	if other, err := s.Persons.GetByCPF(ctx, clean); err != nil {
		return apperr.Internal(err, "Falha ao atualizar dados do perfil.")
	} else if other != nil && other.ID != userID {
		return apperr.Conflict("cpf_taken", "O CPF informado já está em uso por outro usuário.")
	}

	if target.HasIdentity() && email != target.Email {
		if err := s.Identities.UpdateIdentityEmail(ctx, target.AuthID, email); err != nil {
			if errors.Is(err, provider.ErrIdentityExists) {
				return apperr.Conflict("email_taken", "O e-mail informado já está em uso por outro usuário.")
			}
			return apperr.External(err, "identity_email_failed", "Falha ao atualizar e-mail de login.")
		}
	}

	err = s.Persons.Update(ctx, userID, domain.Update{Email: domain.StrPtr(email), CPF: domain.StrPtr(clean)})
	switch {
	case err == nil:
		return nil
	case db.ConflictOn(err, repository.ConstraintCPF):
		return apperr.Conflict("cpf_taken", "O CPF informado já está em uso por outro usuário.")
	case errors.Is(err, db.ErrConflict):
		return apperr.Conflict("email_taken", "O e-mail informado já está em uso por outro usuário.")
	}
	return apperr.Internal(err, "Falha ao atualizar dados do perfil.")
}

// DeleteUser removes userID and its login identity. Admins cannot delete
// themselves. An identity already gone at the provider is not an error.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	caller, err := rbac.RequireAdmin(ctx, s.Authz)
	if err != nil {
		return err
	}
	target, err := s.Persons.GetByID(ctx, userID)
	if err != nil {
		return apperr.Internal(err, "Falha ao remover perfil do usuário.")
	}
	if target == nil {
		return apperr.NotFound("user_not_found", "Usuário não encontrado.")
	}
	if target.ID == caller.PersonID || (target.HasIdentity() && target.AuthID == caller.AuthID) {
		return apperr.Validation("self_delete", "Um administrador não pode excluir a própria conta.")
	}

	if target.HasIdentity() {
		if err := s.Identities.DeleteIdentity(ctx, target.AuthID); err != nil && !errors.Is(err, provider.ErrIdentityNotFound) {
			return apperr.External(err, "identity_delete_failed", "Falha ao remover autenticação do usuário.")
		}
		if s.Sessions != nil {
			if err := s.Sessions.RevokeAllByAuthID(ctx, target.AuthID); err != nil {
				s.Logger.WarnContext(ctx, "admin: revoke sessions of deleted user", "auth_id", target.AuthID, "error", err)
			}
		}
	}

	if err := s.Persons.Delete(ctx, userID); err != nil && !errors.Is(err, db.ErrNotFound) {
		return apperr.Internal(err, "Falha ao remover perfil do usuário.")
	}
	return nil
}

// Dashboard holds the admin overview.
type Dashboard struct {
	TotalSupporters    int
	TotalLeaders       int
	TotalAdmins        int
	TotalEvents        int
	TotalRegistrations int
	Leaders            []domain.LeaderStats
}

// GetDashboard loads the totals and the leader ranking concurrently.
func (s *Service) GetDashboard(ctx context.Context) (*Dashboard, error) {
	if _, err := rbac.RequireAdmin(ctx, s.Authz); err != nil {
		return nil, err
	}
	var (
		d      Dashboard
		counts map[domain.Role]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.Persons.CountByRole(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Leaders, err = s.Persons.LeaderReferralCounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.TotalEvents, d.TotalRegistrations, err = s.Events.Totals(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal(err, "Não foi possível carregar o painel.")
	}
	d.TotalSupporters = counts[domain.RoleSupporter]
	d.TotalLeaders = counts[domain.RoleLeader]
	d.TotalAdmins = counts[domain.RoleAdmin]
	if d.Leaders == nil {
		d.Leaders = []domain.LeaderStats{}
	}
	return &d, nil
}

// ListAuditLogs returns audit entries matching f, newest first.
func (s *Service) ListAuditLogs(ctx context.Context, f auditdomain.Filter, limit, offset int) ([]*auditdomain.AuditLog, error) {
	if _, err := rbac.RequireAdmin(ctx, s.Authz); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	list, err := s.Audit.List(ctx, f, limit, offset)
	if err != nil {
		return nil, apperr.Internal(err, "Não foi possível carregar o registro de auditoria.")
	}
	return list, nil
}
