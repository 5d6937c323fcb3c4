package silo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sony/gobreaker"

	"github.com/nimbus-silo/gateway/internal/identity"
	gwmessage "github.com/nimbus-silo/gateway/internal/message"
)

const (
	topicRejections = "gateway.rejections.v1"
	topicRerouted   = "gateway.messages.v1"
	topicClientDrop = "gateway.client_drop.v1"
)

// WatermillMessageCenter publishes to the silo over a watermill Publisher
// (backed by AMQP in production, see cmd/fx.go). Every call is guarded by a
// circuit breaker so a degraded message bus fails fast instead of piling up
// goroutines blocked on Publish.
type WatermillMessageCenter struct {
	publisher message.Publisher
	logger    *slog.Logger
	breaker   *gobreaker.CircuitBreaker[any]
}

// NewWatermillMessageCenter wraps a watermill Publisher as a MessageCenter.
func NewWatermillMessageCenter(publisher message.Publisher, logger *slog.Logger) *WatermillMessageCenter {
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "silo-message-center",
		MaxRequests: 4,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("CIRCUIT_STATE_CHANGE", slog.String("breaker", name), slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})

	return &WatermillMessageCenter{publisher: publisher, logger: logger, breaker: breaker}
}

func (c *WatermillMessageCenter) publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("silo: marshal payload for %s: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.SetContext(ctx)

	_, err = c.breaker.Execute(func() (any, error) {
		return nil, c.publisher.Publish(topic, msg)
	})
	if err != nil {
		return fmt.Errorf("silo: publish to %s: %w", topic, err)
	}
	return nil
}

func (c *WatermillMessageCenter) SendMessage(ctx context.Context, msg *gwmessage.Message) error {
	return c.publish(ctx, topicRerouted, msg)
}

func (c *WatermillMessageCenter) SendRejection(ctx context.Context, rej gwmessage.Rejection) error {
	return c.publish(ctx, topicRejections, rej)
}

func (c *WatermillMessageCenter) RecordClientDrop(ctx context.Context, actors []identity.ActorID) error {
	keys := make([]string, len(actors))
	for i, a := range actors {
		keys[i] = a.Key
	}
	return c.publish(ctx, topicClientDrop, keys)
}
