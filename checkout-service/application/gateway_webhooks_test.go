package application

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bpay/checkout-system/checkout-service/mocks"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHandleGatewayWebhooks_Execute(t *testing.T) {
	checkoutID := models.GenerateUUID()

	payload, err := json.Marshal(GatewayWebhookPayload{
		EventType:         "charge.succeeded",
		TransactionID:     "txn_123",
		CheckoutReference: checkoutID.String(),
		Amount:            10250,
		Currency:          "USD",
		Status:            "succeeded",
	})
	require.NoError(t, err)

	mockPublisher := mocks.NewMockPublisher(t)
	mockPublisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(evt *events.Event) bool {
		if evt.EventType != events.GatewayProviderUpdateEvent || evt.AggregateID != checkoutID {
			return false
		}
		data, ok := evt.Data.(GatewayProviderUpdateData)
		return ok && data.TransactionID == "txn_123" && data.Amount.Amount == 10250
	})).Return(nil).Once()

	useCase := NewHandleGatewayWebhooks(mockPublisher)

	err = useCase.Execute(context.Background(), &HandleGatewayWebhooksCommand{
		Provider: "processor",
		Payload:  payload,
	})

	assert.NoError(t, err)
}

func TestHandleGatewayWebhooks_Execute_Errors(t *testing.T) {
	tests := []struct {
		name          string
		command       *HandleGatewayWebhooksCommand
		expectedError string
	}{
		{
			name:          "missing provider",
			command:       &HandleGatewayWebhooksCommand{Payload: []byte(`{}`)},
			expectedError: "provider is required",
		},
		{
			name:          "empty payload",
			command:       &HandleGatewayWebhooksCommand{Provider: "processor"},
			expectedError: "payload is required",
		},
		{
			name:          "unsupported provider",
			command:       &HandleGatewayWebhooksCommand{Provider: "carrier-pigeon", Payload: []byte(`{}`)},
			expectedError: "unsupported webhook provider",
		},
		{
			name:          "malformed payload",
			command:       &HandleGatewayWebhooksCommand{Provider: "processor", Payload: []byte(`{"event_type"`)},
			expectedError: "failed to parse",
		},
		{
			name:          "invalid checkout reference",
			command:       &HandleGatewayWebhooksCommand{Provider: "processor", Payload: []byte(`{"checkout_reference":"not-a-uuid"}`)},
			expectedError: "invalid checkout reference",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useCase := NewHandleGatewayWebhooks(mocks.NewMockPublisher(t))

			err := useCase.Execute(context.Background(), tt.command)

			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}
