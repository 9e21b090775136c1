package ports

import "context"

// EventPublisher publishes events to notify other instances
type EventPublisher interface {
	PublishLogout(ctx context.Context, contextID string) error
	PublishResult(ctx context.Context, username string, accepted bool, reason string) error
}
