package service

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/tinylink/internal/app/model"
	"go.uber.org/zap"
)

// EventConsumer feeds codes created by any instance into the local code
// filter. Each process gets its own ephemeral consumer so every instance
// sees every event.
type EventConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	filter CodeFilter
	sub    *nats.Subscription
}

// NewEventConsumer creates a new link event consumer.
func NewEventConsumer(js nats.JetStreamContext, logger *zap.Logger, filter CodeFilter) *EventConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventConsumer{js: js, logger: logger.Named("event_consumer"), filter: filter}
}

// Start subscribes to link creation events published from now on.
func (c *EventConsumer) Start() error {
	subject := model.LinkEventSubjectPrefix + string(model.LinkCreated)
	sub, err := c.js.Subscribe(subject, c.handle, nats.DeliverNew(), nats.ManualAck())
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	c.sub = sub
	return nil
}

// Stop removes the subscription.
func (c *EventConsumer) Stop() error {
	if c.sub == nil {
		return nil
	}
	return c.sub.Unsubscribe()
}

func (c *EventConsumer) handle(msg *nats.Msg) {
	var event model.LinkEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logger.Error("failed to unmarshal link event", zap.Error(err))
		// Malformed payloads will never parse; drop them.
		_ = msg.Term()
		return
	}

	if event.Type == model.LinkCreated && event.Code != "" {
		c.filter.Add(event.Code)
	}

	c.logger.Debug("link event applied",
		zap.String("id", event.ID),
		zap.String("code", event.Code),
		zap.Time("timestamp", event.Timestamp),
	)
	_ = msg.Ack()
}
