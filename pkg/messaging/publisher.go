package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// ChannelPublisher wraps payloads in a Message and sends them to one channel.
type ChannelPublisher struct {
	broker  Broker
	channel string
}

func NewChannelPublisher(broker Broker, channel string) *ChannelPublisher {
	return &ChannelPublisher{broker: broker, channel: channel}
}

func (p *ChannelPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	if err := p.broker.Publish(ctx, p.channel, Message{Type: eventType, Payload: raw}); err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}
	return nil
}

// NopPublisher drops every message.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	return nil
}

// Handler processes one decoded message.
type Handler func(ctx context.Context, msg Message) error

// Consume subscribes to channel and passes each message to handler until ctx
// is done. Undecodable messages and handler errors are logged and skipped.
func Consume(ctx context.Context, broker Broker, channel string, handler Handler, logger zerolog.Logger) error {
	msgs, err := broker.Subscribe(ctx, channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-msgs:
			if !ok {
				return nil
			}
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				logger.Warn().Err(err).Str("channel", channel).Msg("dropping malformed message")
				continue
			}
			if err := handler(ctx, msg); err != nil {
				logger.Error().Err(err).Str("type", msg.Type).Msg("failed to handle message")
			}
		}
	}
}
