// Package service implements the signed-in person's profile: edits (with the
// extra email and CPF fields reserved to admins), referrals and avatar.
package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

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
	MsgProfileUpdated = "Perfil atualizado com sucesso!"
	MsgAvatarUpdated  = "Foto de perfil atualizada."
	MsgAvatarRemoved  = "Foto de perfil removida com sucesso."
)

// PersonStore is the subset of the person repository used here.
type PersonStore interface {
	GetByID(ctx context.Context, id string) (*domain.Person, error)
	GetByEmail(ctx context.Context, email string) (*domain.Person, error)
	GetByCPF(ctx context.Context, cpf string) (*domain.Person, error)
	Update(ctx context.Context, id string, u domain.Update) error
	ListReferred(ctx context.Context, leaderID string) ([]*domain.Person, error)
}

// EmailUpdater changes the login email of an identity.
type EmailUpdater interface {
	UpdateIdentityEmail(ctx context.Context, id, email string) error
}

// Service manages profiles.
type Service struct {
	persons  PersonStore
	provider EmailUpdater
	authz    engine.Authorizer
	siteURL  string
}

func NewService(persons PersonStore, p EmailUpdater, authz engine.Authorizer, siteURL string) *Service {
	return &Service{persons: persons, provider: p, authz: authz, siteURL: strings.TrimRight(siteURL, "/")}
}

// Me is the caller's profile with the referral link leaders share.
type Me struct {
	Person       *domain.Person
	ReferralLink string // empty for supporters
}

// GetMe returns the caller's own profile.
func (s *Service) GetMe(ctx context.Context) (*Me, error) {
	caller, err := rbac.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := rbac.Require(ctx, s.authz, engine.ActionProfileRead, caller.PersonID, ""); err != nil {
		return nil, err
	}
	p, err := s.persons.GetByID(ctx, caller.PersonID)
	if err != nil {
		return nil, apperr.Internal(err, "Não foi possível carregar o perfil.")
	}
	if p == nil {
		return nil, apperr.NotFound("profile_not_found", rbac.MsgProfileMissing)
	}
	me := &Me{Person: p}
	if p.Role != domain.RoleSupporter {
		me.ReferralLink = s.ReferralLink(p.ID)
	}
	return me, nil
}

// ReferralLink is the supporter signup URL crediting leaderID.
func (s *Service) ReferralLink(leaderID string) string {
	return s.siteURL + "/cadastro?ref=" + url.QueryEscape(leaderID)
}

// Update is a profile edit. Email and CPF are only honoured for admins.
type Update struct {
	Name       string
	Phone      string
	RegionID   string
	BirthDate  string // DD/MM/YYYY
	Occupation string
	Motivation string
	Email      string
	CPF        string
}

// UpdateProfile edits the profile id. Owners edit their own data; admins may
// edit anyone and also change email (synced to the login identity) and CPF.
func (s *Service) UpdateProfile(ctx context.Context, id string, in Update) error {
	caller, err := rbac.RequireAuthenticated(ctx)
	if err != nil {
		return err
	}
	target, err := s.persons.GetByID(ctx, id)
	if err != nil {
		return apperr.Internal(err, "Falha ao salvar alterações.")
	}
	if target == nil {
		return apperr.NotFound("profile_not_found", "Perfil a ser editado não encontrado.")
	}
	if _, err := rbac.Require(ctx, s.authz, engine.ActionProfileUpdate, target.ID,
		"Você não tem permissão para editar este perfil."); err != nil {
		return err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" || in.Phone == "" {
		return apperr.Validation("missing_fields", "Nome e telefone são obrigatórios.")
	}
	u := domain.Update{
		Name:       domain.StrPtr(in.Name),
		Phone:      domain.StrPtr(in.Phone),
		RegionID:   domain.StrPtr(strings.TrimSpace(in.RegionID)),
		BirthDate:  domain.BirthDateUpdate(domain.ParseBirthDate(in.BirthDate)),
		Occupation: domain.StrPtr(strings.TrimSpace(in.Occupation)),
		Motivation: domain.StrPtr(strings.TrimSpace(in.Motivation)),
	}

	if caller.Role == string(domain.RoleAdmin) {
		if err := s.adminFields(ctx, target, in, &u); err != nil {
			return err
		}
	}

	if err := s.persons.Update(ctx, target.ID, u); err != nil {
		switch {
		case db.ConflictOn(err, repository.ConstraintCPF):
			return apperr.Conflict("cpf_taken", "O CPF informado já está em uso.")
		case errors.Is(err, db.ErrConflict):
			return apperr.Conflict("email_taken", "O e-mail informado já está em uso.")
		}
		return apperr.Internal(err, "Falha ao salvar alterações.")
	}
	return nil
}

func (s *Service) adminFields(ctx context.Context, target *domain.Person, in Update, u *domain.Update) error {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email != "" && email != target.Email {
		other, err := s.persons.GetByEmail(ctx, email)
		if err != nil {
			return apperr.Internal(err, "Falha ao salvar alterações.")
		}
		if other != nil && other.ID != target.ID {
			return apperr.Conflict("email_taken", "O e-mail informado já está em uso.")
		}
		if target.HasIdentity() {
			if err := s.provider.UpdateIdentityEmail(ctx, target.AuthID, email); err != nil {
				if errors.Is(err, provider.ErrIdentityExists) {
					return apperr.Conflict("email_taken", "O e-mail informado já está em uso.")
				}
				return apperr.External(err, "identity_email_failed", "Falha ao atualizar e-mail de login.")
			}
		}
		u.Email = domain.StrPtr(email)
	}

	if strings.TrimSpace(in.CPF) != "" {
		clean := cpf.Clean(in.CPF)
		if clean != target.CPF {
			if !cpf.Valid(clean) {
				return apperr.Validation("invalid_cpf", "CPF inválido.")
			}
			other, err := s.persons.GetByCPF(ctx, clean)
			if err != nil {
				return apperr.Internal(err, "Falha ao salvar alterações.")
			}
			if other != nil && other.ID != target.ID {
				return apperr.Conflict("cpf_taken", "O CPF informado já está em uso.")
			}
			u.CPF = domain.StrPtr(clean)
		}
	}
	return nil
}

// ListReferred returns the supporters the caller referred, newest first.
func (s *Service) ListReferred(ctx context.Context) ([]*domain.Person, error) {
	caller, err := rbac.Require(ctx, s.authz, engine.ActionReferralsList, "", "")
	if err != nil {
		return nil, err
	}
	list, err := s.persons.ListReferred(ctx, caller.PersonID)
	if err != nil {
		return nil, apperr.Internal(err, "Não foi possível carregar seus apoiadores.")
	}
	return list, nil
}

// SetAvatarURL stores the URL of the caller's uploaded photo.
func (s *Service) SetAvatarURL(ctx context.Context, rawURL string) error {
	caller, err := rbac.Require(ctx, s.authz, engine.ActionAvatarUpdate, "", "")
	if err != nil {
		return err
	}
	rawURL = strings.TrimSpace(rawURL)
	if u, err := url.Parse(rawURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperr.Validation("invalid_url", "Endereço da foto inválido.")
	}
	if err := s.persons.Update(ctx, caller.PersonID, domain.Update{AvatarURL: domain.StrPtr(rawURL)}); err != nil {
		return apperr.Internal(err, "Não foi possível salvar a nova foto.")
	}
	return nil
}

// RemoveAvatar clears the caller's photo.
func (s *Service) RemoveAvatar(ctx context.Context) error {
	caller, err := rbac.Require(ctx, s.authz, engine.ActionAvatarUpdate, "", "")
	if err != nil {
		return err
	}
	p, err := s.persons.GetByID(ctx, caller.PersonID)
	if err != nil {
		return apperr.Internal(err, "Não foi possível atualizar o perfil.")
	}
	if p == nil || p.AvatarURL == "" {
		return apperr.Validation("no_avatar", "Nenhuma foto de perfil para remover.")
	}
	if err := s.persons.Update(ctx, caller.PersonID, domain.Update{AvatarURL: domain.StrPtr("")}); err != nil {
		return apperr.Internal(err, "Não foi possível atualizar o perfil.")
	}
	return nil
}
