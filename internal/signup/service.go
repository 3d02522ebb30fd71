// Package signup registers supporters and leaders. Leader signup reconciles the
// person store with the authentication provider: an existing supporter is
// promoted in place (with a compensating identity delete when the promotion
// cannot be stored), anyone else goes through the provider's self-service
// signup.
package signup

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/estevao-reis/juntos-por-mais/internal/cpf"
	"github.com/estevao-reis/juntos-por-mais/internal/db"
	identitydomain "github.com/estevao-reis/juntos-por-mais/internal/identity/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/provider"
	"github.com/estevao-reis/juntos-por-mais/internal/person/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/person/repository"
	"github.com/estevao-reis/juntos-por-mais/internal/signup/orphan"
)

const instrumentationName = "github.com/estevao-reis/juntos-por-mais/internal/signup"

// MinPasswordLength is the minimum password length in characters.
const MinPasswordLength = 6

// State is the terminal state of one leader signup, recorded as the
// signup.outcomes counter attribute.
type State string

const (
	StateRejected             State = "rejected"
	StateConflictRoleExists   State = "conflict_role_exists"
	StateConflictIDExists     State = "conflict_id_exists"
	StatePromotionSucceeded   State = "promotion_succeeded"
	StatePromotionCompensated State = "promotion_failed_compensated"
	StateFreshSignupPending   State = "fresh_signup_pending"
	StateFreshSignupConflict  State = "fresh_signup_conflict"
)

// LeaderSignup is the leader registration form. BirthDate is DD/MM/YYYY.
type LeaderSignup struct {
	Name       string
	Email      string
	Password   string
	CPF        string
	Phone      string
	RegionID   string
	BirthDate  string
	Occupation string
	Motivation string
}

// SupporterSignup is the supporter registration form. LeaderID is the
// referral link's leader, if any.
type SupporterSignup struct {
	Name       string
	Email      string
	Phone      string
	RegionID   string
	LeaderID   string
	BirthDate  string
	Occupation string
}

// PersonStore is the subset of the person repository used by the service.
type PersonStore interface {
	GetByID(ctx context.Context, id string) (*domain.Person, error)
	GetByEmail(ctx context.Context, email string) (*domain.Person, error)
	GetByCPF(ctx context.Context, cpf string) (*domain.Person, error)
	Create(ctx context.Context, p *domain.Person) error
	Update(ctx context.Context, id string, u domain.Update) error
}

// Service runs registrations. It holds no per-request state; concurrent
// requests are serialized only by the store's unique constraints.
type Service struct {
	persons  PersonStore
	provider provider.Provider
	orphans  orphan.Publisher
	logger   *slog.Logger
	tracer   trace.Tracer
	outcomes metric.Int64Counter
}

// NewService returns a Service. orphans may be nil, in which case failed
// compensations are only logged.
func NewService(persons PersonStore, p provider.Provider, orphans orphan.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	counter, err := otel.Meter(instrumentationName).Int64Counter("signup.outcomes",
		metric.WithDescription("Leader signups by terminal state"),
		metric.WithUnit("{signup}"),
	)
	if err != nil {
		logger.Warn("signup: outcome counter unavailable", "error", err)
		counter = noop.Int64Counter{}
	}
	return &Service{
		persons:  persons,
		provider: p,
		orphans:  orphans,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
		outcomes: counter,
	}
}

// SubmitLeaderSignup registers a leader. Checks run in order and the first
// failure ends the request.
func (s *Service) SubmitLeaderSignup(ctx context.Context, in LeaderSignup) Result {
	ctx, span := s.tracer.Start(ctx, "signup.SubmitLeaderSignup")
	defer span.End()

	res, state := s.submitLeader(ctx, in)
	s.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(state))))
	span.SetAttributes(attribute.String("signup.state", string(state)))
	if !res.Success() {
		span.SetAttributes(attribute.String("signup.code", res.Code))
		if res.Kind == KindExternal {
			span.SetStatus(codes.Error, res.Code)
		}
	}
	return res
}

func (s *Service) submitLeader(ctx context.Context, in LeaderSignup) (Result, State) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.RegionID = strings.TrimSpace(in.RegionID)
	in.Occupation = strings.TrimSpace(in.Occupation)
	in.Motivation = strings.TrimSpace(in.Motivation)

	if in.Name == "" || in.Email == "" || in.Password == "" || strings.TrimSpace(in.CPF) == "" ||
		in.Phone == "" || in.RegionID == "" {
		return failed(KindValidation, CodeMissingFields, msgMissingFields), StateRejected
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return failed(KindValidation, CodePasswordTooShort, msgPasswordTooShort), StateRejected
	}
	if !cpf.Valid(in.CPF) {
		return failed(KindValidation, CodeInvalidCPF, msgInvalidCPF), StateRejected
	}
	in.CPF = cpf.Clean(in.CPF)

	existing, err := s.lookup(ctx, "signup.lookup_email", func(ctx context.Context) (*domain.Person, error) {
		return s.persons.GetByEmail(ctx, in.Email)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "signup: lookup by email", "error", err)
		return failed(KindExternal, CodeStoreUnavailable, msgStoreUnavailable), StateRejected
	}
	if existing != nil {
		if existing.Role == domain.RoleSupporter && !existing.HasIdentity() {
			return s.promote(ctx, existing, in)
		}
		return failed(KindConflict, CodeEmailRegistered, msgLeaderExists), StateConflictRoleExists
	}

	owner, err := s.lookup(ctx, "signup.lookup_cpf", func(ctx context.Context) (*domain.Person, error) {
		return s.persons.GetByCPF(ctx, in.CPF)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "signup: lookup by cpf", "error", err)
		return failed(KindExternal, CodeStoreUnavailable, msgStoreUnavailable), StateRejected
	}
	if owner != nil {
		return failed(KindConflict, CodeCPFTaken, msgCPFTaken), StateConflictIDExists
	}

	return s.freshSignup(ctx, in)
}

func (s *Service) lookup(ctx context.Context, name string, fn func(context.Context) (*domain.Person, error)) (*domain.Person, error) {
	ctx, span := s.tracer.Start(ctx, name)
	defer span.End()
	p, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
	}
	span.SetAttributes(attribute.Bool("signup.found", p != nil))
	return p, err
}

// promote turns an existing supporter without credentials into a leader. The
// provider identity is created first; if the record cannot be updated the
// identity is deleted again so no credentials exist without a leader record.
func (s *Service) promote(ctx context.Context, p *domain.Person, in LeaderSignup) (Result, State) {
	ident, err := s.createIdentity(ctx, in)
	if err != nil {
		s.logger.ErrorContext(ctx, "signup: create identity for promotion", "person_id", p.ID, "error", err)
		return failed(KindExternal, CodeIdentityCreate, msgIdentityCreate), StateRejected
	}

	update := domain.Update{
		Role:       domain.RolePtr(domain.RoleLeader),
		AuthID:     domain.StrPtr(ident.ID),
		Name:       domain.StrPtr(in.Name),
		CPF:        domain.StrPtr(in.CPF),
		Phone:      domain.StrPtr(in.Phone),
		RegionID:   domain.StrPtr(in.RegionID),
		BirthDate:  domain.BirthDateUpdate(domain.ParseBirthDate(in.BirthDate)),
		Occupation: domain.StrPtr(in.Occupation),
		Motivation: domain.StrPtr(in.Motivation),
	}
	if err := s.updatePerson(ctx, p.ID, update); err != nil {
		s.logger.ErrorContext(ctx, "signup: promote supporter", "person_id", p.ID, "error", err)
		s.compensate(ctx, ident.ID, in.Email, err)
		switch {
		case db.ConflictOn(err, repository.ConstraintCPF):
			return failed(KindConflict, CodeCPFTaken, msgCPFTaken), StatePromotionCompensated
		case errors.Is(err, db.ErrConflict):
			return failed(KindConflict, CodeEmailRegistered, msgLeaderExists), StatePromotionCompensated
		}
		return failed(KindExternal, CodeProfileUpdate, msgProfileUpdate), StatePromotionCompensated
	}

	s.logger.InfoContext(ctx, "signup: supporter promoted to leader", "person_id", p.ID, "auth_id", ident.ID)
	return succeeded(OutcomeProfileUpgraded, msgProfileUpgraded), StatePromotionSucceeded
}

func (s *Service) createIdentity(ctx context.Context, in LeaderSignup) (*identitydomain.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "signup.create_identity")
	defer span.End()
	ident, err := s.provider.CreateIdentity(ctx, in.Email, in.Password, true, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create identity failed")
		return nil, err
	}
	return ident, nil
}

func (s *Service) updatePerson(ctx context.Context, id string, u domain.Update) error {
	ctx, span := s.tracer.Start(ctx, "signup.update_person")
	defer span.End()
	if err := s.persons.Update(ctx, id, u); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	return nil
}

// compensate deletes an identity whose person record could not be stored. It
// runs even when the request context is already cancelled. A failed delete
// leaves an orphan that is logged and published for the reconciliation worker.
func (s *Service) compensate(ctx context.Context, identityID, email string, cause error) {
	ctx, span := s.tracer.Start(context.WithoutCancel(ctx), "signup.compensate")
	defer span.End()

	err := s.provider.DeleteIdentity(ctx, identityID)
	if err == nil || errors.Is(err, provider.ErrIdentityNotFound) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "compensating delete failed")
	s.logger.ErrorContext(ctx, "signup: orphaned identity after failed promotion",
		"identity_id", identityID, "email", email, "error", err, "cause", cause)
	if s.orphans == nil {
		return
	}
	ev := orphan.Event{
		IdentityID: identityID,
		Email:      email,
		Reason:     "compensating delete failed: " + err.Error(),
		At:         time.Now().UTC(),
	}
	if pubErr := s.orphans.Publish(ctx, ev); pubErr != nil {
		s.logger.ErrorContext(ctx, "signup: publish orphan event", "identity_id", identityID, "error", pubErr)
	}
}

func (s *Service) freshSignup(ctx context.Context, in LeaderSignup) (Result, State) {
	ctx, span := s.tracer.Start(ctx, "signup.provider_signup")
	defer span.End()

	res, err := s.provider.SignUp(ctx, in.Email, in.Password, leaderMetadata(in))
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, provider.ErrIdentityExists):
			return failed(KindConflict, CodeEmailRegistered, msgLeaderExists), StateFreshSignupConflict
		case db.ConflictOn(err, repository.ConstraintCPF):
			return failed(KindConflict, CodeCPFTaken, msgCPFTaken), StateFreshSignupConflict
		case errors.Is(err, db.ErrConflict):
			return failed(KindConflict, CodeEmailRegistered, msgLeaderExists), StateFreshSignupConflict
		}
		span.SetStatus(codes.Error, "signup failed")
		s.logger.ErrorContext(ctx, "signup: provider signup", "error", err)
		return failed(KindExternal, CodeSignupFailed, msgSignupFailed), StateRejected
	}
	if res == nil || res.IdentitiesCreated == 0 {
		return failed(KindConflict, CodeEmailOtherMethod, msgEmailOtherMethod), StateFreshSignupConflict
	}
	return succeeded(OutcomePendingConfirmation, msgPendingConfirmation), StateFreshSignupPending
}

func leaderMetadata(in LeaderSignup) identitydomain.Metadata {
	md := identitydomain.Metadata{
		identitydomain.MetaName:     in.Name,
		identitydomain.MetaCPF:      in.CPF,
		identitydomain.MetaPhone:    in.Phone,
		identitydomain.MetaRegionID: in.RegionID,
	}
	if d := domain.ParseBirthDate(in.BirthDate); d != nil {
		md[identitydomain.MetaBirthDate] = d.Format(identitydomain.DateLayout)
	}
	if in.Occupation != "" {
		md[identitydomain.MetaOccupation] = in.Occupation
	}
	if in.Motivation != "" {
		md[identitydomain.MetaMotivation] = in.Motivation
	}
	return md
}

// RegisterSupporter stores a supporter record. A referral that does not point
// at a leader or admin is dropped rather than rejected.
func (s *Service) RegisterSupporter(ctx context.Context, in SupporterSignup) Result {
	ctx, span := s.tracer.Start(ctx, "signup.RegisterSupporter")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.RegionID = strings.TrimSpace(in.RegionID)
	if in.Name == "" || in.Email == "" || in.Phone == "" || in.RegionID == "" {
		return failed(KindValidation, CodeMissingFields, msgMissingSupporterFields)
	}

	leaderID := strings.TrimSpace(in.LeaderID)
	if leaderID != "" {
		leader, err := s.persons.GetByID(ctx, leaderID)
		if err != nil {
			s.logger.WarnContext(ctx, "signup: referral lookup", "leader_id", leaderID, "error", err)
			leaderID = ""
		} else if leader == nil || (leader.Role != domain.RoleLeader && leader.Role != domain.RoleAdmin) {
			leaderID = ""
		}
	}

	now := time.Now().UTC()
	p := &domain.Person{
		ID:         uuid.New().String(),
		Role:       domain.RoleSupporter,
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		RegionID:   in.RegionID,
		BirthDate:  domain.ParseBirthDate(in.BirthDate),
		Occupation: strings.TrimSpace(in.Occupation),
		LeaderID:   leaderID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.persons.Create(ctx, p); err != nil {
		span.RecordError(err)
		if errors.Is(err, db.ErrConflict) {
			return failed(KindConflict, CodeEmailRegistered, msgEmailRegistered)
		}
		span.SetStatus(codes.Error, "insert failed")
		s.logger.ErrorContext(ctx, "signup: register supporter", "error", err)
		return failed(KindExternal, CodeRegistrationFailed, msgRegistrationFailed)
	}
	s.logger.InfoContext(ctx, "signup: supporter registered", "person_id", p.ID, "leader_id", leaderID)
	return succeeded(OutcomeSupporterRegistered, msgSupporterRegistered)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
