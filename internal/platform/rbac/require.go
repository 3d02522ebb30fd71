// Package rbac turns authorization decisions into typed errors for services.
package rbac

import (
	"context"

	"github.com/estevao-reis/juntos-por-mais/internal/platform/apperr"
	"github.com/estevao-reis/juntos-por-mais/internal/policy/engine"
	"github.com/estevao-reis/juntos-por-mais/internal/server/middleware"
)

const (
	MsgUnauthenticated = "Acesso negado: Usuário não autenticado."
	MsgAdminRequired   = "Acesso negado: Permissão de administrador necessária."
	MsgProfileMissing  = "Não foi possível encontrar o perfil do usuário."
	MsgForbidden       = "Você não tem permissão para realizar esta ação."
)

// RequireAuthenticated returns the caller, or an Unauthenticated error for
// anonymous requests and identities without a person record.
func RequireAuthenticated(ctx context.Context) (*middleware.Principal, error) {
	p := middleware.PrincipalFrom(ctx)
	if p == nil {
		return nil, apperr.Unauthenticated("unauthenticated", MsgUnauthenticated)
	}
	if p.PersonID == "" {
		return nil, apperr.Forbidden("profile_not_found", MsgProfileMissing)
	}
	return p, nil
}

// Require checks that the caller may perform action on a resource owned by
// ownerID. denied is the message of the Forbidden error; empty uses MsgForbidden.
func Require(ctx context.Context, authz engine.Authorizer, action, ownerID, denied string) (*middleware.Principal, error) {
	p, err := RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := authz.Allow(ctx, engine.Input{
		Subject: engine.Subject{ID: p.PersonID, Role: p.Role},
		Action:  action,
		OwnerID: ownerID,
	})
	if err != nil {
		return nil, apperr.Internal(err, "Não foi possível verificar permissões.")
	}
	if !ok {
		if denied == "" {
			denied = MsgForbidden
		}
		return nil, apperr.Forbidden("forbidden", denied)
	}
	return p, nil
}

// RequireAdmin ensures the caller is an administrator.
func RequireAdmin(ctx context.Context, authz engine.Authorizer) (*middleware.Principal, error) {
	return Require(ctx, authz, engine.ActionAdmin, "", MsgAdminRequired)
}
