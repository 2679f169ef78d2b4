package service

import (
	"context"
	"encoding/json"

	"atlas-assistant-be/internal/constant"
	"atlas-assistant-be/internal/pkg/logger"
	"atlas-assistant-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// EventForwarder ships analytics events to a durable stream.
type EventForwarder interface {
	Publish(ctx context.Context, e events.Event) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	forwarder  EventForwarder
	logger     logger.ILogger
}

// NewConsumerService drains the analytics topic. forwarder may be nil, in
// which case events are only logged.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	forwarder EventForwarder,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		forwarder:  forwarder,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks: analytics are best effort and a bad or
// undeliverable event must not be redelivered forever.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var env events.Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		cs.logger.Error(constant.AnalyticsModule, "Failed to unmarshal event", map[string]interface{}{
			"error":      err.Error(),
			"message_id": msg.UUID,
		})
		return
	}

	cs.logger.Info(constant.AnalyticsModule, env.Type, env.Payload)

	if cs.forwarder == nil {
		return
	}
	if err := cs.forwarder.Publish(ctx, env.Event()); err != nil {
		cs.logger.Warn(constant.AnalyticsModule, "Failed to forward event", map[string]interface{}{
			"type":  env.Type,
			"error": err.Error(),
		})
	}
}
