package entity

import (
	"time"

	"github.com/oily/oily-api/domain/valueobject"
)

type AuthEventType string

const (
	EventMemberSignedUp  AuthEventType = "member.signed_up"
	EventMemberSignedIn  AuthEventType = "member.signed_in"
	EventTokenRefreshed  AuthEventType = "token.refreshed"
	EventMemberSignedOut AuthEventType = "member.signed_out"
)

// AuthEvent is published after a session lifecycle transition.
type AuthEvent struct {
	Type       AuthEventType              `json:"type"`
	MemberID   string                     `json:"memberUuid"`
	Provider   valueobject.SocialProvider `json:"provider,omitempty"`
	OccurredAt time.Time                  `json:"occurredAt"`
}

func NewAuthEvent(eventType AuthEventType, memberID string) AuthEvent {
	return AuthEvent{
		Type:       eventType,
		MemberID:   memberID,
		OccurredAt: time.Now().UTC(),
	}
}
