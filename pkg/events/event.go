package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "ASSISTANT_QUERY_ANSWERED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	AssistantQueryAnswered = "ASSISTANT_QUERY_ANSWERED"
	AssistantQueryTimeout  = "ASSISTANT_QUERY_TIMEOUT"
	AssistantQueryFailed   = "ASSISTANT_QUERY_FAILED"
	AssistantBreakerOpen   = "ASSISTANT_BREAKER_OPEN"
	AssistantWebSearch     = "ASSISTANT_WEB_SEARCH"

	// ClientEventPrefix namespaces events reported by chat clients.
	ClientEventPrefix = "CLIENT_"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Envelope is the wire form of an event on the in-process bus and on NATS.
type Envelope struct {
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

func ToEnvelope(e Event) Envelope {
	return Envelope{Type: e.EventType(), Payload: e.Payload(), Timestamp: e.Timestamp()}
}

func (env Envelope) Event() BaseEvent {
	return BaseEvent{Type: env.Type, Data: env.Payload, OccurredAt: env.Timestamp}
}
