package events

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/bpay/checkout-system/shared/models"
)

var (
	ErrInvalidTopic    = errors.New("invalid topic")
	ErrInvalidPayload  = errors.New("invalid payload")
	ErrInvalidReceiver = errors.New("receiver should be a pointer")
)

// Topic represents an event topic with pattern matching support
type Topic string

func NewTopic(topic string) (Topic, error) {
	if topic == "" {
		return "", ErrInvalidTopic
	}
	return Topic(topic), nil
}

func (t Topic) String() string {
	return string(t)
}

// Matches reports whether the topic matches the given pattern. Patterns
// support "#" as a contains/prefix/suffix wildcard and "*" as a single
// dot-separated segment wildcard.
func (t Topic) Matches(pattern Topic) bool {
	topicStr := t.String()
	patternStr := pattern.String()

	if strings.HasPrefix(patternStr, "#") && strings.HasSuffix(patternStr, "#") {
		return strings.Contains(
			topicStr,
			strings.TrimSuffix(strings.TrimPrefix(patternStr, "#"), "#"),
		)
	}

	if strings.HasPrefix(patternStr, "#") {
		return strings.HasSuffix(topicStr, strings.TrimPrefix(patternStr, "#"))
	}

	if strings.HasSuffix(patternStr, "#") {
		return strings.HasPrefix(topicStr, strings.TrimSuffix(patternStr, "#"))
	}

	return matchPattern(strings.Split(patternStr, "."), strings.Split(topicStr, "."))
}

func matchPattern(patternParts, topicParts []string) bool {
	if len(patternParts) == 1 && patternParts[0] == "#" {
		return true
	}

	if len(patternParts) != len(topicParts) {
		return false
	}

	if len(patternParts) == 0 {
		return true
	}

	if patternParts[0] == "*" || patternParts[0] == topicParts[0] {
		return matchPattern(patternParts[1:], topicParts[1:])
	}

	return false
}

// Metadata represents event metadata
type Metadata map[string]string

func (m Metadata) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m Metadata) Set(key string, value string) {
	m[key] = value
}

func (m Metadata) Has(key string) bool {
	_, ok := m[key]
	return ok
}

func (m Metadata) Clone() Metadata {
	clone := Metadata{}
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// Event represents a domain event
type Event struct {
	ID            models.ID   `json:"id"`
	AggregateID   models.ID   `json:"aggregate_id"`
	Topic         Topic       `json:"topic"`
	EventType     string      `json:"event_type"`
	Version       string      `json:"version"`
	Data          interface{} `json:"data"`
	Metadata      Metadata    `json:"metadata"`
	Timestamp     time.Time   `json:"timestamp"`
	CorrelationID models.ID   `json:"correlation_id"`
}

// Publisher publishes events
type Publisher interface {
	Publish(ctx context.Context, events ...*Event) error
}

// Subscriber subscribes to events
type Subscriber interface {
	Subscribe(ctx context.Context, eventType string, handler EventHandler) error
}

// EventHandler handles domain events
type EventHandler interface {
	Handle(ctx context.Context, event *Event) error
}

// EventStore stores and retrieves events
type EventStore interface {
	SaveEvents(ctx context.Context, aggregateID models.ID, events []*Event) error
	GetEvents(ctx context.Context, aggregateID models.ID) ([]*Event, error)
	GetEventsByType(ctx context.Context, eventType string, offset, limit int) ([]*Event, error)
}

// NewEvent creates a new domain event
func NewEvent(aggregateID models.ID, eventType string, data interface{}) *Event {
	topic, _ := NewTopic(eventType) // eventType constants are never empty
	return &Event{
		ID:          models.GenerateUUID(),
		AggregateID: aggregateID,
		Topic:       topic,
		EventType:   eventType,
		Version:     "1.0",
		Data:        data,
		Metadata:    make(Metadata),
		Timestamp:   time.Now(),
	}
}

// WithCorrelationID sets correlation ID
func (e *Event) WithCorrelationID(correlationID models.ID) *Event {
	e.CorrelationID = correlationID
	return e
}

// WithMetadata adds metadata
func (e *Event) WithMetadata(key string, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = make(Metadata)
	}
	e.Metadata.Set(key, value)
	return e
}

// ToJSON converts event to JSON
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON creates event from JSON
func FromJSON(data []byte) (*Event, error) {
	var event Event
	err := json.Unmarshal(data, &event)
	return &event, err
}

// MarshalPayload marshals the event payload
func (e *Event) MarshalPayload() (json.RawMessage, error) {
	if b, ok := e.Data.([]byte); ok {
		return b, nil
	}

	if b, ok := e.Data.(json.RawMessage); ok {
		return b, nil
	}

	return json.Marshal(e.Data)
}

// UnmarshalPayload unmarshals the event payload into the given interface
func (e *Event) UnmarshalPayload(v interface{}) error {
	vValue := reflect.ValueOf(v)
	if vValue.Kind() != reflect.Ptr {
		return ErrInvalidReceiver
	}

	vValue = vValue.Elem()
	payloadValue := reflect.ValueOf(e.Data)
	if vValue.Type() == payloadValue.Type() {
		vValue.Set(payloadValue)
		return nil
	}

	if b, ok := e.Data.([]byte); ok {
		return json.Unmarshal(b, v)
	}

	if b, ok := e.Data.(json.RawMessage); ok {
		return json.Unmarshal([]byte(b), v)
	}

	raw, err := e.MarshalPayload()
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, v)
}

// Event Types Constants
const (
	// Checkout Events
	CheckoutCreatedEvent        = "checkout.created"
	CheckoutSourcesUpdatedEvent = "checkout.sources.updated"
	CheckoutSubmittedEvent      = "checkout.submitted"
	CheckoutCompletedEvent      = "checkout.completed"
	CheckoutFailedEvent         = "checkout.failed"
	CheckoutReopenedEvent       = "checkout.reopened"
	CheckoutCardAttachedEvent   = "checkout.card.attached"

	// Gateway Events
	GatewayProviderUpdateEvent      = "gateway.provider.update"
	GatewayChargeRequestedEvent     = "gateway.charge.requested"
	GatewayOperationCreatedEvent    = "gateway.operation.created"
	GatewayOperationProcessingEvent = "gateway.operation.processing"
	GatewayOperationCompletedEvent  = "gateway.operation.completed"
	GatewayOperationFailedEvent     = "gateway.operation.failed"

	// Virtual Card Events
	CardIssueRequestedEvent      = "card.issue.requested"
	CardIssuedEvent              = "card.issued"
	CardIssueFailedEvent         = "card.issue.failed"
	CardCapturedEvent            = "card.captured"
	CardInsufficientBalanceEvent = "card.insufficient.balance"
	CardFrozenEvent              = "card.frozen"
	CardUnfrozenEvent            = "card.unfrozen"
	CardCancelledEvent           = "card.cancelled"
)
