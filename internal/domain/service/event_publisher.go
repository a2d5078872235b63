package service

import (
	"context"

	"authgate/internal/domain/entity"
)

// EventPublisher defines the interface for publishing auth events to a message queue
type EventPublisher interface {
	// PublishAuthEvent publishes a session or password lifecycle event
	PublishAuthEvent(ctx context.Context, event *entity.AuthEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
