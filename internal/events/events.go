package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// Event topic constants
const (
	TopicSessionRevoked   = "adspot.session.revoked"
	TopicRoleChanged      = "adspot.role.changed"
	TopicBillboardChanged = "adspot.billboard.changed"

	// TopicAll matches every adspot topic
	TopicAll = "adspot.>"
)

// SessionRevoked is emitted when a user signs out; every token issued to
// the user up to that point stops resolving.
type SessionRevoked struct {
	UserID string `json:"user_id"`
}

// RoleChanged is emitted when an administrator marker is granted or revoked
type RoleChanged struct {
	UserID  string `json:"user_id"`
	IsAdmin bool   `json:"is_admin"`
	ActorID string `json:"actor_id,omitempty"`
}

// BillboardChanged is emitted after a listing is created, updated or deleted
type BillboardChanged struct {
	BillboardID string `json:"billboard_id"`
	Action      string `json:"action"` // created, updated, paused, resumed, deleted
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers raw event payloads on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}

// Bus is both ends of the event bus
type Bus interface {
	Publisher
	Subscriber
}

// Decode unmarshals a raw payload into an event struct
func Decode[T any](data []byte) (T, error) {
	var event T
	if err := json.Unmarshal(data, &event); err != nil {
		return event, fmt.Errorf("decoding event: %w", err)
	}
	return event, nil
}
