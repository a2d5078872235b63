package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuthEventType names a session lifecycle transition.
type AuthEventType string

const (
	AuthEventSignedUp               AuthEventType = "user.signed_up"
	AuthEventSignedIn               AuthEventType = "session.signed_in"
	AuthEventRefreshed              AuthEventType = "session.refreshed"
	AuthEventSignedOut              AuthEventType = "session.signed_out"
	AuthEventPasswordResetRequested AuthEventType = "password.reset_requested"
	AuthEventPasswordReset          AuthEventType = "password.reset"
)

func (t AuthEventType) String() string {
	return string(t)
}

// AuthEvent is published after a session or password transition has been persisted.
type AuthEvent struct {
	Type       AuthEventType `json:"type"`
	UserID     uuid.UUID     `json:"user_id"`
	Email      string        `json:"email,omitempty"`
	RequestID  string        `json:"request_id,omitempty"` // For distributed tracing
	OccurredAt time.Time     `json:"occurred_at"`
}
