package infrastructure

import (
	"context"

	"github.com/bpay/checkout-system/shared/events"
	"github.com/pkg/errors"
)

var _ events.Publisher = (*StoringPublisher)(nil)

// StoringPublisher decorates a Publisher with write-ahead persistence to an
// EventStore. Events are appended to the store first; a publish failure after
// a successful append leaves the store as the source of truth for replay.
type StoringPublisher struct {
	store events.EventStore
	next  events.Publisher
}

// NewStoringPublisher creates a new StoringPublisher
func NewStoringPublisher(store events.EventStore, next events.Publisher) *StoringPublisher {
	return &StoringPublisher{
		store: store,
		next:  next,
	}
}

// Publish stores the events grouped per aggregate, then delegates
func (p *StoringPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	if len(evts) == 0 {
		return nil
	}

	byAggregate := make(map[string][]*events.Event)
	order := make([]string, 0, len(evts))
	for _, event := range evts {
		key := event.AggregateID.String()
		if _, seen := byAggregate[key]; !seen {
			order = append(order, key)
		}
		byAggregate[key] = append(byAggregate[key], event)
	}

	for _, key := range order {
		group := byAggregate[key]
		if err := p.store.SaveEvents(ctx, group[0].AggregateID, group); err != nil {
			return errors.Wrap(err, "failed to store events")
		}
	}

	return p.next.Publish(ctx, evts...)
}
