package application

import (
	"context"
	"testing"

	"github.com/bpay/checkout-system/checkout-service/mocks"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCreateCheckout_Execute(t *testing.T) {
	tests := []struct {
		name          string
		command       *CreateCheckoutCommand
		setupMocks    func(*mocks.MockCheckoutRepository, *mocks.MockPublisher)
		expectedError string
	}{
		{
			name: "successful checkout creation",
			command: &CreateCheckoutCommand{
				UserID:            "550e8400-e29b-41d4-a716-446655440010",
				CardholderName:    "Jane Shopper",
				CartTotal:         10000,
				Currency:          "USD",
				ServiceFeePercent: 2.5,
			},
			setupMocks: func(repo *mocks.MockCheckoutRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().Save(mock.Anything, mock.AnythingOfType("*domain.Checkout")).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(evt *events.Event) bool {
					return evt.EventType == events.CheckoutCreatedEvent
				})).Return(nil).Once()
			},
			expectedError: "",
		},
		{
			name: "empty user ID",
			command: &CreateCheckoutCommand{
				CardholderName:    "Jane Shopper",
				CartTotal:         10000,
				Currency:          "USD",
				ServiceFeePercent: 2.5,
			},
			setupMocks:    func(repo *mocks.MockCheckoutRepository, publisher *mocks.MockPublisher) {},
			expectedError: "user ID is required",
		},
		{
			name: "invalid user ID",
			command: &CreateCheckoutCommand{
				UserID:            "not-a-uuid",
				CardholderName:    "Jane Shopper",
				CartTotal:         10000,
				Currency:          "USD",
				ServiceFeePercent: 2.5,
			},
			setupMocks:    func(repo *mocks.MockCheckoutRepository, publisher *mocks.MockPublisher) {},
			expectedError: "invalid user ID",
		},
		{
			name: "non-positive cart total",
			command: &CreateCheckoutCommand{
				UserID:            "550e8400-e29b-41d4-a716-446655440010",
				CardholderName:    "Jane Shopper",
				CartTotal:         0,
				Currency:          "USD",
				ServiceFeePercent: 2.5,
			},
			setupMocks:    func(repo *mocks.MockCheckoutRepository, publisher *mocks.MockPublisher) {},
			expectedError: "cart total must be positive",
		},
		{
			name: "missing cardholder name",
			command: &CreateCheckoutCommand{
				UserID:            "550e8400-e29b-41d4-a716-446655440010",
				CartTotal:         10000,
				Currency:          "USD",
				ServiceFeePercent: 2.5,
			},
			setupMocks:    func(repo *mocks.MockCheckoutRepository, publisher *mocks.MockPublisher) {},
			expectedError: "cardholder name is required",
		},
		{
			name: "empty currency",
			command: &CreateCheckoutCommand{
				UserID:            "550e8400-e29b-41d4-a716-446655440010",
				CardholderName:    "Jane Shopper",
				CartTotal:         10000,
				ServiceFeePercent: 2.5,
			},
			setupMocks:    func(repo *mocks.MockCheckoutRepository, publisher *mocks.MockPublisher) {},
			expectedError: "currency is required",
		},
		{
			name: "negative service fee percent",
			command: &CreateCheckoutCommand{
				UserID:            "550e8400-e29b-41d4-a716-446655440010",
				CardholderName:    "Jane Shopper",
				CartTotal:         10000,
				Currency:          "USD",
				ServiceFeePercent: -1,
			},
			setupMocks:    func(repo *mocks.MockCheckoutRepository, publisher *mocks.MockPublisher) {},
			expectedError: "service fee percent must not be negative",
		},
		{
			name: "repository save error",
			command: &CreateCheckoutCommand{
				UserID:            "550e8400-e29b-41d4-a716-446655440010",
				CardholderName:    "Jane Shopper",
				CartTotal:         10000,
				Currency:          "USD",
				ServiceFeePercent: 2.5,
			},
			setupMocks: func(repo *mocks.MockCheckoutRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().Save(mock.Anything, mock.AnythingOfType("*domain.Checkout")).
					Return(errors.New("database error")).Once()
			},
			expectedError: "failed to save checkout",
		},
		{
			name: "event publisher error",
			command: &CreateCheckoutCommand{
				UserID:            "550e8400-e29b-41d4-a716-446655440010",
				CardholderName:    "Jane Shopper",
				CartTotal:         10000,
				Currency:          "USD",
				ServiceFeePercent: 2.5,
			},
			setupMocks: func(repo *mocks.MockCheckoutRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().Save(mock.Anything, mock.AnythingOfType("*domain.Checkout")).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.Anything).
					Return(errors.New("publisher error")).Once()
			},
			expectedError: "failed to publish events",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := mocks.NewMockCheckoutRepository(t)
			mockPublisher := mocks.NewMockPublisher(t)

			tt.setupMocks(mockRepo, mockPublisher)

			useCase := NewCreateCheckout(mockRepo, mockPublisher)

			result, err := useCase.Execute(context.Background(), tt.command)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, result)
				assert.NotEmpty(t, result.CheckoutID)

				_, err := models.NewID(result.CheckoutID)
				assert.NoError(t, err)
			}
		})
	}
}
