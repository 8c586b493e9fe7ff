// Package events publishes notable outcomes (a user completing authorization,
// a display name changing) onto a durable message queue for downstream
// consumers. Publishing is strictly a side channel: the access token is
// already durably stored by the time any event is sent, so a bus outage never
// affects the user-visible flow.
package events

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeUserAuthorized Type = "user.authorized"
	TypeNameUpdated    Type = "name.updated"
)

// Event describes a single occurrence tied to one user
type Event struct {
	Id         string    `json:"id"`
	Type       Type      `json:"type"`
	UserId     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New builds an Event of the given type, stamped with a fresh ID and the
// current time
func New(eventType Type, userId string) Event {
	return Event{
		Id:         uuid.NewString(),
		Type:       eventType,
		UserId:     userId,
		OccurredAt: time.Now().UTC(),
	}
}
