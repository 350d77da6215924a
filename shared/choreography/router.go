package choreography

import (
	"context"
	"fmt"

	"github.com/bpay/checkout-system/shared/events"
	"github.com/pkg/errors"
)

// EventRouter dispatches events to the handlers registered for matching topic
// patterns. There is no central coordinator; each registered reaction listens
// for events and publishes new ones as part of the business flow.
type EventRouter struct {
	routes []route
}

type route struct {
	pattern events.Topic
	handler events.EventHandler
}

// HandlerFunc adapts a function to the events.EventHandler interface
type HandlerFunc func(ctx context.Context, event *events.Event) error

func (f HandlerFunc) Handle(ctx context.Context, event *events.Event) error {
	return f(ctx, event)
}

// NewEventRouter creates a new event router
func NewEventRouter() *EventRouter {
	return &EventRouter{}
}

// Register registers a handler for a topic pattern. Patterns support the
// wildcards of events.Topic, e.g. "checkout.#" or "gateway.operation.*".
func (r *EventRouter) Register(pattern string, handler events.EventHandler) error {
	topic, err := events.NewTopic(pattern)
	if err != nil {
		return errors.Wrap(err, "invalid topic pattern")
	}

	r.routes = append(r.routes, route{pattern: topic, handler: handler})
	return nil
}

// RegisterFunc registers a handler function for a topic pattern
func (r *EventRouter) RegisterFunc(pattern string, fn func(ctx context.Context, event *events.Event) error) error {
	return r.Register(pattern, HandlerFunc(fn))
}

// HandlerID implements the subscriber handler interface
func (r *EventRouter) HandlerID() string {
	return "choreography-event-router"
}

// Handle routes an event to all handlers whose pattern matches its topic.
// A failing handler does not stop the remaining ones; the first failure is
// returned after all matching handlers ran.
func (r *EventRouter) Handle(ctx context.Context, event *events.Event) error {
	topic := event.Topic
	if topic == "" {
		topic = events.Topic(event.EventType)
	}

	var firstErr error
	matched := false
	for _, rt := range r.routes {
		if !topic.Matches(rt.pattern) {
			continue
		}
		matched = true

		if err := rt.handler.Handle(ctx, event); err != nil {
			fmt.Printf("Handler failed for event %s: %v\n", topic, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if !matched {
		return nil
	}
	return firstErr
}
