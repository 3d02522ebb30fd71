package domain

import (
	"errors"
	"time"
)

// Role is a person's place in the campaign network.
type Role string

const (
	RoleSupporter Role = "SUPPORTER"
	RoleLeader    Role = "LEADER"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSupporter, RoleLeader, RoleAdmin:
		return true
	}
	return false
}

// Person is a supporter, leader or admin record. Optional text fields are empty
// when absent. AuthID links the record to an authentication identity; supporters
// registered without credentials have none.
type Person struct {
	ID         string
	AuthID     string
	Role       Role
	Name       string
	Email      string
	CPF        string
	Phone      string
	RegionID   string
	RegionName string // read-only, filled by listing queries
	BirthDate  *time.Time
	Occupation string
	Motivation string
	LeaderID   string
	AvatarURL  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasIdentity reports whether the record is linked to an authentication identity.
func (p *Person) HasIdentity() bool {
	return p.AuthID != ""
}

// Validate checks the invariants required for persistence.
func (p *Person) Validate() error {
	if p.Email == "" {
		return errors.New("email is required")
	}
	if p.Name == "" {
		return errors.New("name is required")
	}
	if !p.Role.Valid() {
		return errors.New("invalid role")
	}
	if p.Role != RoleSupporter && p.CPF == "" {
		return errors.New("cpf is required for leaders and admins")
	}
	return nil
}

// Update is a partial change to a person record. Nil fields are left untouched.
// A pointer to the empty string (or to the zero time for BirthDate) clears a
// nullable column.
type Update struct {
	Role       *Role
	AuthID     *string
	Name       *string
	Email      *string
	CPF        *string
	Phone      *string
	RegionID   *string
	BirthDate  *time.Time
	Occupation *string
	Motivation *string
	AvatarURL  *string
}

// Apply copies the set fields of u onto p.
func (u Update) Apply(p *Person) {
	if u.Role != nil {
		p.Role = *u.Role
	}
	if u.AuthID != nil {
		p.AuthID = *u.AuthID
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	if u.CPF != nil {
		p.CPF = *u.CPF
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.RegionID != nil {
		p.RegionID = *u.RegionID
	}
	if u.BirthDate != nil {
		if u.BirthDate.IsZero() {
			p.BirthDate = nil
		} else {
			d := *u.BirthDate
			p.BirthDate = &d
		}
	}
	if u.Occupation != nil {
		p.Occupation = *u.Occupation
	}
	if u.Motivation != nil {
		p.Motivation = *u.Motivation
	}
	if u.AvatarURL != nil {
		p.AvatarURL = *u.AvatarURL
	}
}

// Region is an administrative region a person belongs to.
type Region struct {
	ID   string
	Name string
}

// LeaderStats counts the supporters referred by one leader.
type LeaderStats struct {
	LeaderID     string
	LeaderName   string
	PartnerCount int
}

// StrPtr returns a pointer to s; a helper for building Updates.
func StrPtr(s string) *string { return &s }

// RolePtr returns a pointer to r.
func RolePtr(r Role) *Role { return &r }
