package service

import (
	"context"
	"fmt"

	"github.com/layer-3/casque/core"
	"github.com/layer-3/casque/ports"
)

// LogoutNotifier ends a session by dropping its attempt slots and announcing the
// logout to other instances.
type LogoutNotifier struct {
	attempts *AttemptStore
	eventPub ports.EventPublisher
}

// NewLogoutNotifier creates a logout handler. A nil publisher makes logout unsupported.
func NewLogoutNotifier(attempts *AttemptStore, eventPub ports.EventPublisher) *LogoutNotifier {
	return &LogoutNotifier{
		attempts: attempts,
		eventPub: eventPub,
	}
}

// Logout implements ports.LogoutHandler
func (n *LogoutNotifier) Logout(ctx context.Context, contextID string) error {
	if n.eventPub == nil {
		return core.ErrUnsupportedLogout
	}

	if err := n.attempts.Clear(ctx, contextID); err != nil {
		return fmt.Errorf("failed to clear attempt: %w", err)
	}

	if err := n.eventPub.PublishLogout(ctx, contextID); err != nil {
		return fmt.Errorf("failed to publish logout: %w", err)
	}

	return nil
}
