package engine

import "context"

// Subject is the caller of an action. ID is the person id; empty for anonymous callers.
type Subject struct {
	ID   string
	Role string
}

// Input is one authorization question: may Subject perform Action on a
// resource owned by OwnerID?
type Input struct {
	Subject Subject
	Action  string
	OwnerID string
}

// Actions known to the default policy.
const (
	ActionProfileRead       = "profile.read"
	ActionProfileUpdate     = "profile.update"
	ActionReferralsList     = "referrals.list"
	ActionAvatarUpdate      = "avatar.update"
	ActionSessionLogout     = "session.logout"
	ActionAnnouncementsRead = "announcements.read"
	ActionAdmin             = "admin"
)

// Authorizer decides authorization questions.
type Authorizer interface {
	Allow(ctx context.Context, in Input) (bool, error)
}
