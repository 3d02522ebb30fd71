package domain

import "time"

// Identity is an authentication identity: the email and password credential a
// person signs in with. ID is the auth id stored on the person record.
type Identity struct {
	ID               string
	Email            string
	PasswordHash     string // empty for identities held by a remote provider
	ConfirmedAt      *time.Time
	ConfirmationHash string // hash of the pending confirmation token; empty once confirmed
	Metadata         Metadata
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Confirmed reports whether the identity's email has been confirmed.
func (i *Identity) Confirmed() bool {
	return i.ConfirmedAt != nil
}

// Metadata is the free-form profile data attached at signup. Keys follow the
// person columns: name, cpf, phone_number, region_id, birth_date (YYYY-MM-DD),
// occupation and motivation.
type Metadata map[string]string

const (
	MetaName       = "name"
	MetaCPF        = "cpf"
	MetaPhone      = "phone_number"
	MetaRegionID   = "region_id"
	MetaBirthDate  = "birth_date"
	MetaOccupation = "occupation"
	MetaMotivation = "motivation"
)

// DateLayout is the layout of MetaBirthDate.
const DateLayout = "2006-01-02"
