package application

import (
	"context"
	"testing"

	"github.com/bpay/checkout-system/checkout-service/domain"
	"github.com/bpay/checkout-system/checkout-service/mocks"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReopenCheckout_Execute(t *testing.T) {
	checkout := submittingCheckout(t)
	require.NoError(t, checkout.Fail("card declined", "card_declined"))
	checkout.ClearEvents()

	mockRepo := mocks.NewMockCheckoutRepository(t)
	mockPublisher := mocks.NewMockPublisher(t)

	mockRepo.EXPECT().FindByID(mock.Anything, checkout.ID).Return(checkout, nil).Once()
	mockRepo.EXPECT().Save(mock.Anything, checkout).Return(nil).Once()
	mockPublisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(evt *events.Event) bool {
		return evt.EventType == events.CheckoutReopenedEvent
	})).Return(nil).Once()

	useCase := NewReopenCheckout(mockRepo, mockPublisher)

	err := useCase.Execute(context.Background(), &ReopenCheckoutCommand{CheckoutID: checkout.ID.String()})

	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusCollecting, checkout.Status)
}

func TestReopenCheckout_Execute_NotFailed(t *testing.T) {
	checkout := collectingCheckout(t)

	mockRepo := mocks.NewMockCheckoutRepository(t)
	mockPublisher := mocks.NewMockPublisher(t)

	mockRepo.EXPECT().FindByID(mock.Anything, checkout.ID).Return(checkout, nil).Once()

	useCase := NewReopenCheckout(mockRepo, mockPublisher)

	err := useCase.Execute(context.Background(), &ReopenCheckoutCommand{CheckoutID: checkout.ID.String()})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reopen checkout")
}
