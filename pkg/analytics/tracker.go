package analytics

import (
	"encoding/json"
	"fmt"

	"atlas-assistant-be/internal/pkg/logger"
	"atlas-assistant-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const Topic = "assistant_events"

// Tracker publishes analytics events onto the in-process bus. Publishing
// never blocks or fails the caller.
type Tracker struct {
	publisher message.Publisher
	topic     string
	logger    logger.ILogger
}

func NewTracker(publisher message.Publisher, topic string, log logger.ILogger) *Tracker {
	return &Tracker{publisher: publisher, topic: topic, logger: log}
}

// Track publishes e in the background.
func (t *Tracker) Track(e events.Event) {
	go func() {
		if err := t.Publish(e); err != nil {
			t.logger.Warn("ANALYTICS", "Failed to publish event", map[string]interface{}{
				"type":  e.EventType(),
				"error": err.Error(),
			})
		}
	}()
}

// Publish is the synchronous form of Track.
func (t *Tracker) Publish(e events.Event) error {
	payload, err := json.Marshal(events.ToEnvelope(e))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := t.publisher.Publish(t.topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", t.topic, err)
	}
	return nil
}
