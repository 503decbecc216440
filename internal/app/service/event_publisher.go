package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/tinylink/internal/app/model"
)

// NATSEventPublisher publishes link events to NATS JetStream.
type NATSEventPublisher struct {
	js nats.JetStreamContext
}

// NewNATSEventPublisher creates a new link event publisher.
func NewNATSEventPublisher(js nats.JetStreamContext) *NATSEventPublisher {
	return &NATSEventPublisher{js: js}
}

// EnsureStream creates the link event stream if it does not exist yet.
func (p *NATSEventPublisher) EnsureStream() error {
	_, err := p.js.StreamInfo(model.LinkEventStreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("lookup stream: %w", err)
	}

	_, err = p.js.AddStream(&nats.StreamConfig{
		Name:     model.LinkEventStreamName,
		Subjects: []string{model.LinkEventSubjects},
		MaxBytes: model.LinkEventStreamMaxBytes,
	})
	if err != nil {
		return fmt.Errorf("create stream: %w", err)
	}
	return nil
}

// Publish enqueues the event without waiting for the stream ack, so it never
// adds a round-trip to the request that triggered it. The event id doubles
// as the JetStream de-duplication id.
func (p *NATSEventPublisher) Publish(event model.LinkEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.PublishAsync(event.Subject(), data, nats.MsgId(event.ID))
	return err
}
