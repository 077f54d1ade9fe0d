package config

import (
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/exam-prep-service/internal/events"
)

// EventConfig holds configuration for event publishing
type EventConfig struct {
	Enabled      bool
	Publisher    string // kafka, memory or mock
	KafkaBrokers string
	TestTopic    string
}

// GetKafkaBrokers returns Kafka brokers as a slice
func (c *EventConfig) GetKafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// CreateEventPublisher creates an event publisher based on configuration. The
// returned consumer starts the in-process audit log for the memory publisher
// and is nil otherwise.
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, *events.LogConsumer, error) {
	if !c.Enabled {
		logger.Info("Event publishing disabled, using mock publisher")
		return events.NewMockEventPublisher(logger), nil, nil
	}

	switch c.Publisher {
	case "kafka":
		logger.Info("Creating Kafka event publisher",
			"brokers", c.KafkaBrokers,
			"topic", c.TestTopic)

		publisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: c.GetKafkaBrokers(),
			TopicName:    c.TestTopic,
			Logger:       logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return publisher, nil, nil
	case "memory":
		logger.Info("Creating in-process event publisher", "topic", c.TestTopic)

		publisher, pubSub := events.NewGoChannelEventPublisher(events.PublisherConfig{
			TopicName: c.TestTopic,
			Logger:    logger,
		})
		return publisher, events.NewLogConsumer(pubSub, c.TestTopic, logger), nil
	case "mock":
		logger.Info("Using mock event publisher")
		return events.NewMockEventPublisher(logger), nil, nil
	default:
		logger.Warn("Unknown event publisher type, falling back to mock", "publisher", c.Publisher)
		return events.NewMockEventPublisher(logger), nil, nil
	}
}
