package service

import (
	"context"
	"time"
)

// IdentityEventType names a committed identity change.
type IdentityEventType string

const (
	EventIdentityRegistered          IdentityEventType = "identity.registered"
	EventIdentityExternalProvisioned IdentityEventType = "identity.external_provisioned"
	EventIdentityEmailVerified       IdentityEventType = "identity.email_verified"
	EventIdentityUpdated             IdentityEventType = "identity.updated"
	EventIdentityActivated           IdentityEventType = "identity.activated"
	EventIdentityDeactivated         IdentityEventType = "identity.deactivated"
	EventIdentityRoleChanged         IdentityEventType = "identity.role_changed"
)

// IdentityEvent is published after an identity change has been committed.
// Consumers must not use it to revoke tokens.
type IdentityEvent struct {
	RequestID  string            `json:"request_id,omitempty"` // For distributed tracing
	EventID    string            `json:"event_id"`
	Type       IdentityEventType `json:"type"`
	IdentityID int64             `json:"identity_id"`
	Email      string            `json:"email"`
	AuthSource string            `json:"auth_source"`
	Role       string            `json:"role"`
	Active     bool              `json:"active"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishIdentityEvent publishes an identity change for downstream services
	PublishIdentityEvent(ctx context.Context, event *IdentityEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
