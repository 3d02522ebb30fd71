package signup

import (
	"context"
	"time"

	"github.com/google/uuid"

	identitydomain "github.com/estevao-reis/juntos-por-mais/internal/identity/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/person/domain"
)

// PersonCreator stores new person records.
type PersonCreator interface {
	Create(ctx context.Context, p *domain.Person) error
}

// Materializer creates the leader record for an identity that signed up
// through the local provider, from the metadata captured at signup.
type Materializer struct {
	persons PersonCreator
}

// NewMaterializer returns a Materializer writing to persons.
func NewMaterializer(persons PersonCreator) *Materializer {
	return &Materializer{persons: persons}
}

// Materialize inserts a LEADER linked to ident. Unique violations are returned
// unchanged so the caller can tell an email clash from a CPF clash.
func (m *Materializer) Materialize(ctx context.Context, ident *identitydomain.Identity) error {
	md := ident.Metadata
	now := time.Now().UTC()
	p := &domain.Person{
		ID:         uuid.New().String(),
		AuthID:     ident.ID,
		Role:       domain.RoleLeader,
		Name:       md[identitydomain.MetaName],
		Email:      ident.Email,
		CPF:        md[identitydomain.MetaCPF],
		Phone:      md[identitydomain.MetaPhone],
		RegionID:   md[identitydomain.MetaRegionID],
		Occupation: md[identitydomain.MetaOccupation],
		Motivation: md[identitydomain.MetaMotivation],
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if raw := md[identitydomain.MetaBirthDate]; raw != "" {
		if d, err := time.Parse(identitydomain.DateLayout, raw); err == nil {
			p.BirthDate = &d
		}
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return m.persons.Create(ctx, p)
}
