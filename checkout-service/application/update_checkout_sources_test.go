package application

import (
	"context"
	"testing"

	"github.com/bpay/checkout-system/checkout-service/domain"
	"github.com/bpay/checkout-system/checkout-service/mocks"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func collectingCheckout(t *testing.T) *domain.Checkout {
	t.Helper()

	checkout, err := domain.CreateCheckout(
		models.GenerateUUID(),
		"Jane Shopper",
		models.NewMoney(10000, "USD"),
		2.5,
	)
	require.NoError(t, err)
	checkout.ClearEvents()
	return checkout
}

func TestUpdateCheckoutSources_Execute(t *testing.T) {
	checkout := collectingCheckout(t)

	mockRepo := mocks.NewMockCheckoutRepository(t)
	mockPublisher := mocks.NewMockPublisher(t)

	mockRepo.EXPECT().FindByID(mock.Anything, checkout.ID).Return(checkout, nil).Once()
	mockRepo.EXPECT().Save(mock.Anything, checkout).Return(nil).Once()
	mockPublisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(evt *events.Event) bool {
		return evt.EventType == events.CheckoutSourcesUpdatedEvent
	})).Return(nil).Once()

	useCase := NewUpdateCheckoutSources(mockRepo, mockPublisher)

	response, err := useCase.Execute(context.Background(), &UpdateCheckoutSourcesCommand{
		CheckoutID: checkout.ID.String(),
		Sources: []SourceInput{
			fixedInput(cardSourceID, 6000, true),
			percentInput(bankSourceID, 40, true),
		},
	})

	require.NoError(t, err)
	assert.True(t, response.Valid)
	assert.Equal(t, int64(10000), response.AllocatedAmount)
	assert.Equal(t, int64(0), response.RemainingAmount)
	assert.Equal(t, int64(250), response.ServiceFee)
	assert.Equal(t, int64(10250), response.TotalWithFee)
	require.Len(t, checkout.Sources, 2)
}

func TestUpdateCheckoutSources_Execute_InvalidAllocationIsPersisted(t *testing.T) {
	checkout := collectingCheckout(t)

	mockRepo := mocks.NewMockCheckoutRepository(t)
	mockPublisher := mocks.NewMockPublisher(t)

	mockRepo.EXPECT().FindByID(mock.Anything, checkout.ID).Return(checkout, nil).Once()
	mockRepo.EXPECT().Save(mock.Anything, checkout).Return(nil).Once()
	mockPublisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()

	useCase := NewUpdateCheckoutSources(mockRepo, mockPublisher)

	response, err := useCase.Execute(context.Background(), &UpdateCheckoutSourcesCommand{
		CheckoutID: checkout.ID.String(),
		Sources:    []SourceInput{fixedInput(cardSourceID, 6000, true)},
	})

	require.NoError(t, err)
	assert.False(t, response.Valid)
	assert.NotEmpty(t, response.ValidationError)
	assert.Equal(t, int64(4000), response.RemainingAmount)
	require.Len(t, checkout.Sources, 1)
}

func TestUpdateCheckoutSources_Execute_RejectedAfterSubmission(t *testing.T) {
	checkout := submittingCheckout(t)

	mockRepo := mocks.NewMockCheckoutRepository(t)
	mockPublisher := mocks.NewMockPublisher(t)

	mockRepo.EXPECT().FindByID(mock.Anything, checkout.ID).Return(checkout, nil).Once()

	useCase := NewUpdateCheckoutSources(mockRepo, mockPublisher)

	_, err := useCase.Execute(context.Background(), &UpdateCheckoutSourcesCommand{
		CheckoutID: checkout.ID.String(),
		Sources:    []SourceInput{fixedInput(cardSourceID, 10000, true)},
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update sources")
}

func TestUpdateCheckoutSources_Execute_NotFound(t *testing.T) {
	mockRepo := mocks.NewMockCheckoutRepository(t)
	mockPublisher := mocks.NewMockPublisher(t)

	checkoutID := models.GenerateUUID()
	mockRepo.EXPECT().FindByID(mock.Anything, checkoutID).Return(nil, nil).Once()

	useCase := NewUpdateCheckoutSources(mockRepo, mockPublisher)

	_, err := useCase.Execute(context.Background(), &UpdateCheckoutSourcesCommand{
		CheckoutID: checkoutID.String(),
		Sources:    []SourceInput{fixedInput(cardSourceID, 10000, true)},
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "checkout not found")
}
