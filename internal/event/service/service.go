// Package service implements event creation, the public event page and
// attendance registration.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/estevao-reis/juntos-por-mais/internal/db"
	"github.com/estevao-reis/juntos-por-mais/internal/event/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/event/repository"
	persondomain "github.com/estevao-reis/juntos-por-mais/internal/person/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/apperr"
	"github.com/estevao-reis/juntos-por-mais/internal/platform/rbac"
	"github.com/estevao-reis/juntos-por-mais/internal/policy/engine"
)

// Success messages.
const (
	MsgCreated           = "Evento criado com sucesso!"
	MsgRegistered        = "Presença confirmada com sucesso! Obrigado por participar."
	MsgAlreadyRegistered = "Confirmamos que você já estava inscrito neste evento. Sua presença está garantida!"
)

// PersonStore is the subset of the person repository used for registrations.
type PersonStore interface {
	GetByID(ctx context.Context, id string) (*persondomain.Person, error)
	GetByEmail(ctx context.Context, email string) (*persondomain.Person, error)
	Create(ctx context.Context, p *persondomain.Person) error
	ListRegions(ctx context.Context) ([]persondomain.Region, error)
}

// Service manages events.
type Service struct {
	events  repository.Repository
	persons PersonStore
	authz   engine.Authorizer
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(events repository.Repository, persons PersonStore, authz engine.Authorizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{events: events, persons: persons, authz: authz, logger: logger, now: time.Now}
}

// CreateInput is the admin event form.
type CreateInput struct {
	Name        string
	Date        time.Time
	Description string
}

// Create stores a new event. Names that slugify to an existing slug are rejected.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Event, error) {
	if _, err := rbac.RequireAdmin(ctx, s.authz); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Date.IsZero() {
		return nil, apperr.Validation("missing_fields", "Nome e data do evento são obrigatórios.")
	}
	slug := domain.Slugify(in.Name)
	if slug == "" {
		return nil, apperr.Validation("invalid_name", "O nome do evento precisa conter letras ou números.")
	}
	existing, err := s.events.GetBySlug(ctx, slug)
	if err != nil {
		return nil, apperr.Internal(err, "Falha ao criar evento.")
	}
	if existing != nil {
		return nil, errSlugTaken()
	}
	e := &domain.Event{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Slug:        slug,
		Date:        in.Date.UTC(),
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.events.Create(ctx, e); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, errSlugTaken()
		}
		return nil, apperr.Internal(err, "Falha ao criar evento.")
	}
	return e, nil
}

func errSlugTaken() error {
	return apperr.Conflict("slug_taken",
		"Já existe um evento com um nome muito parecido. Por favor, escolha um nome ligeiramente diferente.")
}

// Page is what the public event page shows.
type Page struct {
	Event   *domain.Event
	Regions []persondomain.Region
}

// GetPage loads the event and the region list concurrently. A failed region
// lookup degrades to an empty list.
func (s *Service) GetPage(ctx context.Context, slug string) (*Page, error) {
	var page Page
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e, err := s.events.GetBySlug(gctx, slug)
		if err != nil {
			return apperr.Internal(err, "Não foi possível carregar o evento.")
		}
		if e == nil {
			return apperr.NotFound("event_not_found", "Evento não encontrado.")
		}
		page.Event = e
		return nil
	})
	g.Go(func() error {
		regions, err := s.persons.ListRegions(gctx)
		if err != nil {
			s.logger.WarnContext(ctx, "event page: list regions", "error", err)
			return nil
		}
		page.Regions = regions
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListUpcoming returns events from now on, soonest first.
func (s *Service) ListUpcoming(ctx context.Context) ([]*domain.Event, error) {
	list, err := s.events.ListUpcoming(ctx, s.now().UTC())
	if err != nil {
		return nil, apperr.Internal(err, "Não foi possível carregar os eventos.")
	}
	return list, nil
}

// ListAll returns every event for the admin list, latest first.
func (s *Service) ListAll(ctx context.Context) ([]*domain.Event, error) {
	if _, err := rbac.RequireAdmin(ctx, s.authz); err != nil {
		return nil, err
	}
	list, err := s.events.ListAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Não foi possível carregar os eventos.")
	}
	return list, nil
}

// RegisterInput is the attendance form. Name, phone and region are only
// needed when the email is not yet known.
type RegisterInput struct {
	EventID  string
	Email    string
	LeaderID string
	Name     string
	Phone    string
	RegionID string
}

// Register confirms attendance, creating a supporter record for unknown
// emails. It reports whether the person was already registered; that case is
// not an error.
func (s *Service) Register(ctx context.Context, in RegisterInput) (already bool, err error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.EventID = strings.TrimSpace(in.EventID)
	if in.Email == "" || in.EventID == "" {
		return false, apperr.Validation("missing_fields", "E-mail e identificação do evento são obrigatórios.")
	}
	ev, err := s.events.GetByID(ctx, in.EventID)
	if err != nil {
		return false, apperr.Internal(err, "Falha ao confirmar presença.")
	}
	if ev == nil {
		return false, apperr.NotFound("event_not_found", "Evento não encontrado.")
	}
	leaderID := s.resolveLeader(ctx, in.LeaderID)

	person, err := s.persons.GetByEmail(ctx, in.Email)
	if err != nil {
		return false, apperr.Internal(err, "Falha ao confirmar presença.")
	}
	if person == nil {
		if person, err = s.createSupporter(ctx, in, leaderID); err != nil {
			return false, err
		}
	}

	reg := &domain.Registration{
		ID:        uuid.New().String(),
		EventID:   ev.ID,
		PersonID:  person.ID,
		LeaderID:  leaderID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.events.CreateRegistration(ctx, reg); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return true, nil
		}
		return false, apperr.Internal(err, "Falha ao confirmar presença.")
	}
	return false, nil
}

func (s *Service) createSupporter(ctx context.Context, in RegisterInput, leaderID string) (*persondomain.Person, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.RegionID = strings.TrimSpace(in.RegionID)
	if in.Name == "" || in.Phone == "" || in.RegionID == "" {
		return nil, apperr.Validation("missing_fields", "Para novos apoiadores, nome, telefone e região são obrigatórios.")
	}
	now := s.now().UTC()
	p := &persondomain.Person{
		ID:        uuid.New().String(),
		Role:      persondomain.RoleSupporter,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		RegionID:  in.RegionID,
		LeaderID:  leaderID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.persons.Create(ctx, p); err != nil {
		if errors.Is(err, db.ErrConflict) {
			// Created by a concurrent request with the same email.
			if cur, getErr := s.persons.GetByEmail(ctx, in.Email); getErr == nil && cur != nil {
				return cur, nil
			}
		}
		return nil, apperr.Internal(err, "Falha ao cadastrar.")
	}
	return p, nil
}

// resolveLeader keeps a referral only when it names a leader or admin.
func (s *Service) resolveLeader(ctx context.Context, id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	p, err := s.persons.GetByID(ctx, id)
	if err != nil || p == nil || (p.Role != persondomain.RoleLeader && p.Role != persondomain.RoleAdmin) {
		return ""
	}
	return id
}
