// Package service implements announcement publishing for admins and the
// leader feed.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/estevao-reis/juntos-por-mais/internal/announcement/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/announcement/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/db"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/apperr"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/rbac"
	"github.com/estevao-reis/juntos-por-mais/internal/policy/engine"
)

// Success messages.
const (
	MsgCreated = "Aviso enviado com sucesso!"
	MsgUpdated = "Aviso atualizado com sucesso!"
	MsgDeleted = "Aviso excluído com sucesso!"
)

// Service manages announcements.
type Service struct {
	repo  repository.Repository
	authz engine.Authorizer
}

func NewService(repo repository.Repository, authz engine.Authorizer) *Service {
	return &Service{repo: repo, authz: authz}
}

// Create posts an announcement to all leaders on behalf of the calling admin.
func (s *Service) Create(ctx context.Context, content string) (*domain.Announcement, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("empty_content", "O conteúdo do aviso não pode estar vazio.")
	}
	caller, err := rbac.RequireAdmin(ctx, s.authz)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	a := &domain.Announcement{
		ID:         uuid.New().String(),
		Content:    content,
		AuthorID:   caller.PersonID,
		AuthorName: caller.Name,
		Audience:   domain.AudienceAllLeaders,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, apperr.Internal(err, "Falha ao enviar aviso.")
	}
	return a, nil
}

// Update replaces the content of an announcement.
func (s *Service) Update(ctx context.Context, id, content string) error {
	if _, err := rbac.RequireAdmin(ctx, s.authz); err != nil {
		return err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return apperr.Validation("empty_content", "O conteúdo não pode estar vazio.")
	}
	if err := s.repo.UpdateContent(ctx, id, content, time.Now().UTC()); err != nil {
		return mapWriteError(err, "Falha ao atualizar.")
	}
	return nil
}

// Delete removes an announcement.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := rbac.RequireAdmin(ctx, s.authz); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapWriteError(err, "Falha ao excluir.")
	}
	return nil
}

// ListForLeaders returns the announcements visible in the leader panel, newest first.
func (s *Service) ListForLeaders(ctx context.Context) ([]*domain.Announcement, error) {
	if _, err := rbac.Require(ctx, s.authz, engine.ActionAnnouncementsRead, "", ""); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Não foi possível carregar os avisos.")
	}
	return list, nil
}

func mapWriteError(err error, msg string) error {
	if errors.Is(err, db.ErrNotFound) {
		return apperr.NotFound("announcement_not_found", "Aviso não encontrado.")
	}
	return apperr.Internal(err, msg)
}
