package domain

import "time"

// AuditLog is one recorded action. UserID is the acting person's id, empty for
// anonymous events such as a failed login.
type AuditLog struct {
	ID        string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}

// Filter narrows an audit log listing. Empty fields match everything.
type Filter struct {
	UserID   string
	Action   string
	Resource string
}
