package domain

import "time"

// Audience is who an announcement is addressed to.
type Audience string

const AudienceAllLeaders Audience = "ALL_LEADERS"

// Announcement is a notice posted by an admin for the leaders.
type Announcement struct {
	ID         string
	Content    string
	AuthorID   string
	AuthorName string // read-only, joined from persons
	Audience   Audience
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
