// Package events provides the typed publish/subscribe bus the booking core
// uses for change notifications: commits announce themselves so other views
// refresh, and remote changes trigger a (debounced) inventory reload.
package events

import (
	"context"
	"time"
)

// Topic is a typed event channel name. Typed topics replace ad hoc string
// events on a shared global object.
type Topic string

const (
	// TopicBookingChanged fires when a booking is created, edited or deleted.
	TopicBookingChanged Topic = "booking.changed"
	// TopicInventoryChanged fires when equipment or packages change.
	TopicInventoryChanged Topic = "inventory.changed"
)

// Event is one change notification. EntityID identifies the changed record
// when the publisher knows it (0 for wholesale changes).
type Event struct {
	Topic    Topic     `json:"topic"`
	EntityID int64     `json:"entity_id,omitempty"`
	At       time.Time `json:"at"`
}

// Handler consumes events for a subscribed topic. Handlers must not block;
// long work belongs behind a debounce or a goroutine of the subscriber's own.
type Handler func(Event)

// Bus is the publish/subscribe contract injected into services. Publish
// delivers to all current subscribers of the event's topic; Subscribe
// returns an unsubscribe function.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(topic Topic, h Handler) (unsubscribe func())
}
