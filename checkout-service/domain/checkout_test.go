package domain

import (
	"testing"

	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCollectingCheckout(t *testing.T, totalCents int64) *Checkout {
	t.Helper()
	checkout, err := CreateCheckout(models.GenerateUUID(), "Jane Shopper", usd(totalCents), 2.5)
	require.NoError(t, err)
	checkout.ClearEvents()
	return checkout
}

func TestCreateCheckout(t *testing.T) {
	userID := models.GenerateUUID()

	checkout, err := CreateCheckout(userID, "Jane Shopper", usd(10000), 2.5)

	require.NoError(t, err)
	assert.Equal(t, CheckoutStatusCollecting, checkout.Status)
	assert.Equal(t, userID, checkout.UserID)
	assert.Equal(t, 1, checkout.Version.Value)
	require.Len(t, checkout.Events(), 1)
	assert.Equal(t, events.CheckoutCreatedEvent, checkout.Events()[0].EventType)
}

func TestCreateCheckout_InvalidTotal(t *testing.T) {
	_, err := CreateCheckout(models.GenerateUUID(), "Jane Shopper", usd(0), 2.5)
	assert.ErrorIs(t, err, ErrInvalidTotal)

	_, err = CreateCheckout(models.GenerateUUID(), "Jane Shopper", usd(-100), 2.5)
	assert.ErrorIs(t, err, ErrInvalidTotal)
}

func TestCreateCheckout_NegativeFeePercent(t *testing.T) {
	_, err := CreateCheckout(models.GenerateUUID(), "Jane Shopper", usd(10000), -1)
	assert.Error(t, err)
}

func TestCheckout_UpdateSources(t *testing.T) {
	checkout := newCollectingCheckout(t, 10000)

	err := checkout.UpdateSources([]PaymentSource{
		fixedSource("a", 6000, true),
		fixedSource("b", 4000, false),
	})

	require.NoError(t, err)
	require.Len(t, checkout.Sources, 2)
	// Deselected source must not carry a stale amount.
	assert.Equal(t, int64(0), checkout.Sources[1].Amount.Amount)
	require.Len(t, checkout.Events(), 1)
	assert.Equal(t, events.CheckoutSourcesUpdatedEvent, checkout.Events()[0].EventType)
}

func TestCheckout_UpdateSources_OnlyWhileCollecting(t *testing.T) {
	checkout := newCollectingCheckout(t, 10000)
	require.NoError(t, checkout.UpdateSources([]PaymentSource{fixedSource("a", 10000, true)}))

	_, err := checkout.Submit()
	require.NoError(t, err)

	err = checkout.UpdateSources([]PaymentSource{fixedSource("a", 5000, true)})
	assert.Error(t, err)
}

func TestCheckout_Submit(t *testing.T) {
	checkout := newCollectingCheckout(t, 10000)
	require.NoError(t, checkout.UpdateSources([]PaymentSource{
		fixedSource("a", 6000, true),
		fixedSource("b", 4000, true),
	}))
	checkout.ClearEvents()

	resolved, err := checkout.Submit()

	require.NoError(t, err)
	assert.Equal(t, CheckoutStatusSubmitting, checkout.Status)
	require.Len(t, resolved, 2)
	assert.Equal(t, int64(6150), resolved[0].TotalCharge.Amount)
	assert.Equal(t, int64(4100), resolved[1].TotalCharge.Amount)

	require.Len(t, checkout.Events(), 1)
	event := checkout.Events()[0]
	assert.Equal(t, events.CheckoutSubmittedEvent, event.EventType)

	data, ok := event.Data.(CheckoutSubmittedData)
	require.True(t, ok)
	assert.Equal(t, int64(250), data.ServiceFee.Amount)
	assert.Equal(t, int64(10250), data.TotalWithFee.Amount)
}

func TestCheckout_Submit_ValidationFailureStaysCollecting(t *testing.T) {
	checkout := newCollectingCheckout(t, 10000)
	require.NoError(t, checkout.UpdateSources([]PaymentSource{fixedSource("a", 6000, true)}))
	checkout.ClearEvents()

	_, err := checkout.Submit()

	assert.ErrorIs(t, err, ErrAllocationMismatch)
	assert.Equal(t, CheckoutStatusCollecting, checkout.Status)
	assert.Empty(t, checkout.Events())
}

func TestCheckout_Submit_NoSourceSelected(t *testing.T) {
	checkout := newCollectingCheckout(t, 10000)

	_, err := checkout.Submit()

	assert.ErrorIs(t, err, ErrNoSourceSelected)
	assert.Equal(t, CheckoutStatusCollecting, checkout.Status)
}

func TestCheckout_Submit_RefusesWhileInFlight(t *testing.T) {
	checkout := newCollectingCheckout(t, 10000)
	require.NoError(t, checkout.UpdateSources([]PaymentSource{fixedSource("a", 10000, true)}))

	_, err := checkout.Submit()
	require.NoError(t, err)

	_, err = checkout.Submit()
	assert.Error(t, err)
	assert.Equal(t, CheckoutStatusSubmitting, checkout.Status)
}

func TestCheckout_CompleteAndFailTransitions(t *testing.T) {
	t.Run("complete from submitting", func(t *testing.T) {
		checkout := newCollectingCheckout(t, 10000)
		require.NoError(t, checkout.UpdateSources([]PaymentSource{fixedSource("a", 10000, true)}))
		_, err := checkout.Submit()
		require.NoError(t, err)
		checkout.ClearEvents()

		require.NoError(t, checkout.Complete("txn_123"))

		assert.Equal(t, CheckoutStatusSucceeded, checkout.Status)
		assert.Equal(t, "txn_123", checkout.GatewayTransactionID)
		require.Len(t, checkout.Events(), 1)
		assert.Equal(t, events.CheckoutCompletedEvent, checkout.Events()[0].EventType)

		data, ok := checkout.Events()[0].Data.(CheckoutCompletedData)
		require.True(t, ok)
		assert.Equal(t, int64(10250), data.TotalCharged.Amount)
	})

	t.Run("complete refused while collecting", func(t *testing.T) {
		checkout := newCollectingCheckout(t, 10000)
		assert.Error(t, checkout.Complete("txn_123"))
	})

	t.Run("fail from submitting", func(t *testing.T) {
		checkout := newCollectingCheckout(t, 10000)
		require.NoError(t, checkout.UpdateSources([]PaymentSource{fixedSource("a", 10000, true)}))
		_, err := checkout.Submit()
		require.NoError(t, err)

		require.NoError(t, checkout.Fail("card declined", "card_declined"))
		assert.Equal(t, CheckoutStatusFailed, checkout.Status)
	})

	t.Run("cannot fail a succeeded checkout", func(t *testing.T) {
		checkout := newCollectingCheckout(t, 10000)
		require.NoError(t, checkout.UpdateSources([]PaymentSource{fixedSource("a", 10000, true)}))
		_, err := checkout.Submit()
		require.NoError(t, err)
		require.NoError(t, checkout.Complete("txn_123"))

		assert.Error(t, checkout.Fail("late failure", "late"))
	})
}

func TestCheckout_ReopenAfterFailure(t *testing.T) {
	checkout := newCollectingCheckout(t, 10000)
	require.NoError(t, checkout.UpdateSources([]PaymentSource{fixedSource("a", 10000, true)}))
	_, err := checkout.Submit()
	require.NoError(t, err)
	require.NoError(t, checkout.Fail("card declined", "card_declined"))
	checkout.ClearEvents()

	require.NoError(t, checkout.Reopen())

	assert.Equal(t, CheckoutStatusCollecting, checkout.Status)
	assert.Empty(t, checkout.GatewayTransactionID)
	require.Len(t, checkout.Events(), 1)
	assert.Equal(t, events.CheckoutReopenedEvent, checkout.Events()[0].EventType)

	// A reopened checkout accepts a corrected allocation.
	require.NoError(t, checkout.UpdateSources([]PaymentSource{percentSource("a", 100, true)}))
	_, err = checkout.Submit()
	assert.NoError(t, err)
}

func TestCheckout_Reopen_OnlyFromFailed(t *testing.T) {
	checkout := newCollectingCheckout(t, 10000)
	assert.Error(t, checkout.Reopen())
}

func TestCheckout_AttachCard(t *testing.T) {
	checkout := newCollectingCheckout(t, 10000)
	require.NoError(t, checkout.UpdateSources([]PaymentSource{fixedSource("a", 10000, true)}))
	_, err := checkout.Submit()
	require.NoError(t, err)

	cardID := models.GenerateUUID()
	assert.Error(t, checkout.AttachCard(cardID), "card attach requires a succeeded checkout")

	require.NoError(t, checkout.Complete("txn_123"))
	require.NoError(t, checkout.AttachCard(cardID))
	require.NotNil(t, checkout.VirtualCardID)
	assert.Equal(t, cardID, *checkout.VirtualCardID)
}

func TestGatewayOperation_Lifecycle(t *testing.T) {
	checkoutID := models.GenerateUUID()
	operation := NewGatewayOperation(checkoutID, GatewayOperationTypeCharge, usd(10250), "processor")

	assert.Equal(t, GatewayOperationStatusPending, operation.Status)
	require.Len(t, operation.Events(), 1)
	assert.Equal(t, events.GatewayOperationCreatedEvent, operation.Events()[0].EventType)

	operation.Process()
	assert.Equal(t, GatewayOperationStatusProcessing, operation.Status)

	operation.Complete("txn_456")
	assert.Equal(t, GatewayOperationStatusCompleted, operation.Status)
	assert.Equal(t, "txn_456", operation.ProviderTransactionID)
	assert.Len(t, operation.Events(), 3)
}

func TestGatewayOperation_Fail(t *testing.T) {
	operation := NewGatewayOperation(models.GenerateUUID(), GatewayOperationTypeCharge, usd(10250), "processor")
	operation.ClearEvents()

	operation.Fail("card_declined", "the card was declined")

	assert.Equal(t, GatewayOperationStatusFailed, operation.Status)
	assert.Equal(t, "card_declined", operation.ErrorCode)
	require.Len(t, operation.Events(), 1)
	assert.Equal(t, events.GatewayOperationFailedEvent, operation.Events()[0].EventType)
}
