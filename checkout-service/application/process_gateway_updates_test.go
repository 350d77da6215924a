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

// submittingCheckout builds a checkout waiting on the processor's verdict
func submittingCheckout(t *testing.T) *domain.Checkout {
	t.Helper()

	checkout := fundedCheckout(t)
	_, err := checkout.Submit()
	require.NoError(t, err)
	checkout.ClearEvents()
	return checkout
}

func TestProcessGatewayUpdates_Execute_Completed(t *testing.T) {
	checkout := submittingCheckout(t)

	mockRepo := mocks.NewMockCheckoutRepository(t)
	mockPublisher := mocks.NewMockPublisher(t)

	mockRepo.EXPECT().FindByID(mock.Anything, checkout.ID).Return(checkout, nil).Once()
	mockRepo.EXPECT().Save(mock.Anything, checkout).Return(nil).Once()

	// The async settle leaves the same operation audit trail as the
	// synchronous submit path.
	var published []*events.Event
	mockPublisher.EXPECT().Publish(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(_ context.Context, evts ...*events.Event) {
			published = evts
		}).Return(nil).Once()

	useCase := NewProcessGatewayUpdates(mockRepo, mockPublisher)

	err := useCase.Execute(context.Background(), &ProcessGatewayUpdatesCommand{
		Provider:          "processor",
		EventType:         "charge.succeeded",
		TransactionID:     "txn_123",
		CheckoutReference: checkout.ID.String(),
		Amount:            models.NewMoney(10250, "USD"),
		Status:            "succeeded",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusSucceeded, checkout.Status)
	assert.Equal(t, "txn_123", checkout.GatewayTransactionID)

	require.Len(t, published, 3)
	assert.Equal(t, events.GatewayOperationCreatedEvent, published[0].EventType)
	assert.Equal(t, events.GatewayOperationCompletedEvent, published[1].EventType)
	assert.Equal(t, events.CheckoutCompletedEvent, published[2].EventType)

	completed, ok := published[1].Data.(domain.GatewayOperationCompletedData)
	require.True(t, ok)
	assert.Equal(t, checkout.ID, completed.CheckoutID)
	assert.Equal(t, "txn_123", completed.ProviderTransactionID)
	assert.Equal(t, int64(10250), completed.Amount.Amount)
}

func TestProcessGatewayUpdates_Execute_Failed(t *testing.T) {
	checkout := submittingCheckout(t)

	mockRepo := mocks.NewMockCheckoutRepository(t)
	mockPublisher := mocks.NewMockPublisher(t)

	mockRepo.EXPECT().FindByID(mock.Anything, checkout.ID).Return(checkout, nil).Once()
	mockRepo.EXPECT().Save(mock.Anything, checkout).Return(nil).Once()

	var published []*events.Event
	mockPublisher.EXPECT().Publish(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(_ context.Context, evts ...*events.Event) {
			published = evts
		}).Return(nil).Once()

	useCase := NewProcessGatewayUpdates(mockRepo, mockPublisher)

	err := useCase.Execute(context.Background(), &ProcessGatewayUpdatesCommand{
		Provider:          "processor",
		EventType:         "charge.failed",
		CheckoutReference: checkout.ID.String(),
		Amount:            models.NewMoney(10250, "USD"),
		Status:            "declined",
		ErrorCode:         "insufficient_funds",
		ErrorMessage:      "the card has insufficient funds",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusFailed, checkout.Status)

	require.Len(t, published, 3)
	assert.Equal(t, events.GatewayOperationCreatedEvent, published[0].EventType)
	assert.Equal(t, events.GatewayOperationFailedEvent, published[1].EventType)
	assert.Equal(t, events.CheckoutFailedEvent, published[2].EventType)

	failed, ok := published[1].Data.(domain.GatewayOperationFailedData)
	require.True(t, ok)
	assert.Equal(t, checkout.ID, failed.CheckoutID)
	assert.Equal(t, "insufficient_funds", failed.ErrorCode)
}

func TestProcessGatewayUpdates_Execute_RedeliveryIsIgnored(t *testing.T) {
	checkout := submittingCheckout(t)
	require.NoError(t, checkout.Complete("txn_123"))
	checkout.ClearEvents()

	mockRepo := mocks.NewMockCheckoutRepository(t)
	mockPublisher := mocks.NewMockPublisher(t)

	mockRepo.EXPECT().FindByID(mock.Anything, checkout.ID).Return(checkout, nil).Once()

	useCase := NewProcessGatewayUpdates(mockRepo, mockPublisher)

	err := useCase.Execute(context.Background(), &ProcessGatewayUpdatesCommand{
		Provider:          "processor",
		EventType:         "charge.succeeded",
		TransactionID:     "txn_123",
		CheckoutReference: checkout.ID.String(),
		Amount:            models.NewMoney(10250, "USD"),
		Status:            "succeeded",
	})

	require.NoError(t, err)
	assert.Empty(t, checkout.Events())
}

func TestProcessGatewayUpdates_Execute_ProcessingIsANoOp(t *testing.T) {
	checkout := submittingCheckout(t)

	mockRepo := mocks.NewMockCheckoutRepository(t)
	mockPublisher := mocks.NewMockPublisher(t)

	mockRepo.EXPECT().FindByID(mock.Anything, checkout.ID).Return(checkout, nil).Once()

	useCase := NewProcessGatewayUpdates(mockRepo, mockPublisher)

	err := useCase.Execute(context.Background(), &ProcessGatewayUpdatesCommand{
		Provider:          "processor",
		EventType:         "charge.processing",
		CheckoutReference: checkout.ID.String(),
		Amount:            models.NewMoney(10250, "USD"),
		Status:            "processing",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusSubmitting, checkout.Status)
}

func TestProcessGatewayUpdates_Execute_UnknownStatus(t *testing.T) {
	checkout := submittingCheckout(t)

	mockRepo := mocks.NewMockCheckoutRepository(t)
	mockPublisher := mocks.NewMockPublisher(t)

	mockRepo.EXPECT().FindByID(mock.Anything, checkout.ID).Return(checkout, nil).Once()

	useCase := NewProcessGatewayUpdates(mockRepo, mockPublisher)

	err := useCase.Execute(context.Background(), &ProcessGatewayUpdatesCommand{
		Provider:          "processor",
		EventType:         "charge.mystery",
		CheckoutReference: checkout.ID.String(),
		Amount:            models.NewMoney(10250, "USD"),
		Status:            "mystery",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown gateway status")
}

func TestProcessGatewayUpdates_Execute_ValidationErrors(t *testing.T) {
	useCase := NewProcessGatewayUpdates(mocks.NewMockCheckoutRepository(t), mocks.NewMockPublisher(t))

	tests := []struct {
		name          string
		command       *ProcessGatewayUpdatesCommand
		expectedError string
	}{
		{
			name:          "missing provider",
			command:       &ProcessGatewayUpdatesCommand{CheckoutReference: "550e8400-e29b-41d4-a716-446655440000", Status: "succeeded"},
			expectedError: "provider is required",
		},
		{
			name:          "missing checkout reference",
			command:       &ProcessGatewayUpdatesCommand{Provider: "processor", Status: "succeeded"},
			expectedError: "checkout reference is required",
		},
		{
			name:          "missing status and event type",
			command:       &ProcessGatewayUpdatesCommand{Provider: "processor", CheckoutReference: "550e8400-e29b-41d4-a716-446655440000"},
			expectedError: "status or event type is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := useCase.Execute(context.Background(), tt.command)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}
