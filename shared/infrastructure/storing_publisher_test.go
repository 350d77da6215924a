package infrastructure

import (
	"context"
	"testing"

	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	saved   map[string][]*events.Event
	failing bool
}

func newRecordingStore() *recordingStore {
	return &recordingStore{saved: make(map[string][]*events.Event)}
}

func (s *recordingStore) SaveEvents(_ context.Context, aggregateID models.ID, evts []*events.Event) error {
	if s.failing {
		return errors.New("store unavailable")
	}
	s.saved[aggregateID.String()] = append(s.saved[aggregateID.String()], evts...)
	return nil
}

func (s *recordingStore) GetEvents(_ context.Context, aggregateID models.ID) ([]*events.Event, error) {
	return s.saved[aggregateID.String()], nil
}

func (s *recordingStore) GetEventsByType(_ context.Context, _ string, _, _ int) ([]*events.Event, error) {
	return nil, nil
}

type recordingPublisher struct {
	published []*events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evts ...*events.Event) error {
	p.published = append(p.published, evts...)
	return nil
}

func TestStoringPublisher_Publish(t *testing.T) {
	store := newRecordingStore()
	next := &recordingPublisher{}
	publisher := NewStoringPublisher(store, next)

	first := models.GenerateUUID()
	second := models.GenerateUUID()

	evts := []*events.Event{
		events.NewEvent(first, events.CheckoutCreatedEvent, nil),
		events.NewEvent(second, events.CardIssuedEvent, nil),
		events.NewEvent(first, events.CheckoutSubmittedEvent, nil),
	}

	err := publisher.Publish(context.Background(), evts...)

	require.NoError(t, err)
	assert.Len(t, next.published, 3)
	assert.Len(t, store.saved[first.String()], 2)
	assert.Len(t, store.saved[second.String()], 1)
}

func TestStoringPublisher_Publish_StoreFailureBlocksPublish(t *testing.T) {
	store := newRecordingStore()
	store.failing = true
	next := &recordingPublisher{}
	publisher := NewStoringPublisher(store, next)

	err := publisher.Publish(context.Background(), events.NewEvent(models.GenerateUUID(), events.CheckoutCreatedEvent, nil))

	assert.Error(t, err)
	assert.Empty(t, next.published)
}

func TestStoringPublisher_Publish_NoEvents(t *testing.T) {
	publisher := NewStoringPublisher(newRecordingStore(), &recordingPublisher{})
	assert.NoError(t, publisher.Publish(context.Background()))
}
