package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/casque/ports"
)

const (
	// LogoutTopic carries logout notifications
	LogoutTopic = "casque.logout"

	// ResultTopic carries login results
	ResultTopic = "casque.result"
)

// LogoutEvent represents a logout event
type LogoutEvent struct {
	ContextID string    `json:"context_id"`
	At        time.Time `json:"at"`
}

// ResultEvent represents the terminal result of a login attempt
type ResultEvent struct {
	Username string    `json:"username"`
	Accepted bool      `json:"accepted"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
	}
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, contextID string) error {
	return p.publish(ctx, LogoutTopic, LogoutEvent{
		ContextID: contextID,
		At:        time.Now().UTC(),
	})
}

// PublishResult publishes the result of a login attempt
func (p *WatermillPublisher) PublishResult(ctx context.Context, username string, accepted bool, reason string) error {
	return p.publish(ctx, ResultTopic, ResultEvent{
		Username: username,
		Accepted: accepted,
		Reason:   reason,
		At:       time.Now().UTC(),
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
