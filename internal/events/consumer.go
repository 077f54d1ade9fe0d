package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventHandler receives decoded test events.
type EventHandler func(ctx context.Context, event *TestEvent) error

// Consume subscribes to topic and hands every decoded event to handle until ctx
// is cancelled. Messages that fail to decode are acked and dropped; handler
// errors nack the message.
func Consume(ctx context.Context, subscriber message.Subscriber, topic string, logger *slog.Logger, handle EventHandler) error {
	messages, err := subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	for msg := range messages {
		var event TestEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			logger.Warn("Dropping malformed test event", "message_id", msg.UUID, "error", err)
			msg.Ack()
			continue
		}

		if err := handle(msg.Context(), &event); err != nil {
			logger.Error("Failed to handle test event",
				"event_id", event.ID,
				"event_type", event.Type,
				"error", err)
			msg.Nack()
			continue
		}
		msg.Ack()
	}
	return nil
}

// LogHandler writes every event to the audit log.
func LogHandler(logger *slog.Logger) EventHandler {
	return func(ctx context.Context, event *TestEvent) error {
		logger.Info("Test event",
			"event_id", event.ID,
			"event_type", event.Type,
			"session_id", event.SessionID,
			"timestamp", event.Timestamp)
		return nil
	}
}

// LogConsumer feeds an in-process subscription into LogHandler.
type LogConsumer struct {
	subscriber message.Subscriber
	topic      string
	logger     *slog.Logger
}

func NewLogConsumer(subscriber message.Subscriber, topic string, logger *slog.Logger) *LogConsumer {
	return &LogConsumer{subscriber: subscriber, topic: topic, logger: logger}
}

// Run blocks until ctx is cancelled or the subscriber is closed.
func (c *LogConsumer) Run(ctx context.Context) error {
	return Consume(ctx, c.subscriber, c.topic, c.logger, LogHandler(c.logger))
}
