// Package events publishes download lifecycle notifications for downstream
// consumers such as analytics. Publishing is best effort.
package events

import (
	"context"
	"time"
)

const (
	TypeAuthorized = "download.authorized"
	TypeDenied     = "download.denied"
	TypeRedeemed   = "download.redeemed"
)

// Event is one lifecycle notification. ID is a ULID that consumers can use to
// drop redeliveries. RequestID ties the event to the HTTP request logs.
type Event struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id,omitempty"`
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	ContentID  string    `json:"content_id"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
