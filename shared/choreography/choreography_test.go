package choreography

import (
	"context"
	"testing"

	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inMemoryBus delivers published events synchronously back into the router,
// so a whole reaction chain runs inside a single Publish call.
type inMemoryBus struct {
	router    *EventRouter
	published []*events.Event
}

func newInMemoryBus(router *EventRouter) *inMemoryBus {
	return &inMemoryBus{router: router}
}

func (b *inMemoryBus) Publish(ctx context.Context, evts ...*events.Event) error {
	for _, event := range evts {
		b.published = append(b.published, event)
		if err := b.router.Handle(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (b *inMemoryBus) byType(eventType string) *events.Event {
	for _, event := range b.published {
		if event.EventType == eventType {
			return event
		}
	}
	return nil
}

func checkoutFlowBus(t *testing.T) *inMemoryBus {
	t.Helper()

	router := NewEventRouter()
	bus := newInMemoryBus(router)
	require.NoError(t, RegisterCheckoutFlow(router, bus, "processor"))
	return bus
}

func TestCheckoutFlow_SubmittedRequestsCharge(t *testing.T) {
	bus := checkoutFlowBus(t)

	checkoutID := models.GenerateUUID()
	userID := models.GenerateUUID()

	err := bus.Publish(context.Background(), events.NewEvent(checkoutID, events.CheckoutSubmittedEvent, checkoutSubmittedData{
		CheckoutID:   checkoutID,
		UserID:       userID,
		TotalWithFee: models.NewMoney(10250, "USD"),
	}))

	require.NoError(t, err)

	charge := bus.byType(events.GatewayChargeRequestedEvent)
	require.NotNil(t, charge)

	var data ChargeRequestedData
	require.NoError(t, charge.UnmarshalPayload(&data))
	assert.Equal(t, checkoutID, data.CheckoutID)
	assert.Equal(t, int64(10250), data.Amount.Amount)
	assert.Equal(t, checkoutID, charge.CorrelationID)
}

func TestCheckoutFlow_CompletedRequestsCardIssue(t *testing.T) {
	bus := checkoutFlowBus(t)

	checkoutID := models.GenerateUUID()
	userID := models.GenerateUUID()

	err := bus.Publish(context.Background(), events.NewEvent(checkoutID, events.CheckoutCompletedEvent, checkoutCompletedData{
		CheckoutID:     checkoutID,
		UserID:         userID,
		CardholderName: "Jane Doe",
		CartTotal:      models.NewMoney(10000, "USD"),
	}))

	require.NoError(t, err)

	issue := bus.byType(events.CardIssueRequestedEvent)
	require.NotNil(t, issue)

	var data CardIssueRequestedData
	require.NoError(t, issue.UnmarshalPayload(&data))
	assert.Equal(t, "Jane Doe", data.CardholderName)

	// Card funding is the cart total, not the charged total
	assert.Equal(t, int64(10000), data.Amount.Amount)
}

func TestCheckoutFlow_OperationFailureFailsCheckout(t *testing.T) {
	bus := checkoutFlowBus(t)

	checkoutID := models.GenerateUUID()

	err := bus.Publish(context.Background(), events.NewEvent(models.GenerateUUID(), events.GatewayOperationFailedEvent, gatewayOperationFailedData{
		OperationID:  models.GenerateUUID(),
		CheckoutID:   checkoutID,
		Amount:       models.NewMoney(10250, "USD"),
		ErrorCode:    "card_declined",
		ErrorMessage: "card was declined",
	}))

	require.NoError(t, err)

	update := bus.byType(events.GatewayProviderUpdateEvent)
	require.NotNil(t, update)

	var data gatewayUpdateData
	require.NoError(t, update.UnmarshalPayload(&data))
	assert.Equal(t, "failed", data.Status)
	assert.Equal(t, "card_declined", data.ErrorCode)
	assert.Equal(t, checkoutID.String(), data.CheckoutReference)
	assert.Equal(t, "processor", data.Provider)
}

func TestEventRouter_PatternMatching(t *testing.T) {
	router := NewEventRouter()

	var seen []string
	require.NoError(t, router.RegisterFunc("checkout.#", func(_ context.Context, event *events.Event) error {
		seen = append(seen, event.EventType)
		return nil
	}))

	ctx := context.Background()
	require.NoError(t, router.Handle(ctx, events.NewEvent(models.GenerateUUID(), events.CheckoutCreatedEvent, nil)))
	require.NoError(t, router.Handle(ctx, events.NewEvent(models.GenerateUUID(), events.CheckoutSubmittedEvent, nil)))
	require.NoError(t, router.Handle(ctx, events.NewEvent(models.GenerateUUID(), events.CardIssuedEvent, nil)))

	assert.Equal(t, []string{events.CheckoutCreatedEvent, events.CheckoutSubmittedEvent}, seen)
}

func TestEventRouter_FailingHandlerDoesNotBlockOthers(t *testing.T) {
	router := NewEventRouter()

	require.NoError(t, router.RegisterFunc(events.CheckoutCreatedEvent, func(context.Context, *events.Event) error {
		return errors.New("handler exploded")
	}))

	secondRan := false
	require.NoError(t, router.RegisterFunc(events.CheckoutCreatedEvent, func(context.Context, *events.Event) error {
		secondRan = true
		return nil
	}))

	err := router.Handle(context.Background(), events.NewEvent(models.GenerateUUID(), events.CheckoutCreatedEvent, nil))

	assert.Error(t, err)
	assert.True(t, secondRan)
}

func TestEventRouter_UnmatchedTopicIsIgnored(t *testing.T) {
	router := NewEventRouter()

	err := router.Handle(context.Background(), events.NewEvent(models.GenerateUUID(), "something.unrelated", nil))

	assert.NoError(t, err)
}
