package application

import (
	"context"
	"testing"

	"github.com/bpay/checkout-system/card-service/domain"
	"github.com/bpay/checkout-system/card-service/mocks"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func activeCard(t *testing.T, balanceCents int64) *domain.VirtualCard {
	t.Helper()

	card, err := domain.IssueCard(models.GenerateUUID(), models.GenerateUUID(), "Jane Doe", models.NewMoney(balanceCents, "USD"))
	require.NoError(t, err)
	card.ClearEvents()
	return card
}

func TestCaptureCard_Execute(t *testing.T) {
	repo := mocks.NewMockCardRepository(t)
	publisher := mocks.NewMockPublisher(t)
	useCase := NewCaptureCard(repo, publisher)

	card := activeCard(t, 10000)

	repo.EXPECT().FindByID(mock.Anything, card.ID).Return(card, nil)
	repo.EXPECT().Save(mock.Anything, card).Return(nil)
	publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil)

	response, err := useCase.Execute(context.Background(), &CaptureCardCommand{
		CardID:    card.ID.String(),
		Amount:    2500,
		Currency:  "USD",
		Reference: "merchant-001",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7500), response.BalanceAfter.Amount)
	assert.Empty(t, card.Events())
}

func TestCaptureCard_Execute_InsufficientBalance(t *testing.T) {
	repo := mocks.NewMockCardRepository(t)
	publisher := mocks.NewMockPublisher(t)
	useCase := NewCaptureCard(repo, publisher)

	card := activeCard(t, 1000)

	repo.EXPECT().FindByID(mock.Anything, card.ID).Return(card, nil)

	var published *events.Event
	publisher.EXPECT().Publish(mock.Anything, mock.Anything).Run(func(ctx context.Context, evts ...*events.Event) {
		published = evts[0]
	}).Return(nil)

	response, err := useCase.Execute(context.Background(), &CaptureCardCommand{
		CardID:    card.ID.String(),
		Amount:    2500,
		Currency:  "USD",
		Reference: "merchant-001",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient card balance")
	assert.Nil(t, response)

	// The balance is untouched and nothing was saved
	assert.Equal(t, int64(1000), card.Balance.Amount)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	require.NotNil(t, published)
	assert.Equal(t, events.CardInsufficientBalanceEvent, published.EventType)
}

func TestCaptureCard_Execute_CardNotFound(t *testing.T) {
	repo := mocks.NewMockCardRepository(t)
	publisher := mocks.NewMockPublisher(t)
	useCase := NewCaptureCard(repo, publisher)

	repo.EXPECT().FindByID(mock.Anything, mock.Anything).Return(nil, nil)

	response, err := useCase.Execute(context.Background(), &CaptureCardCommand{
		CardID:    models.GenerateUUID().String(),
		Amount:    2500,
		Currency:  "USD",
		Reference: "merchant-001",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "card not found")
	assert.Nil(t, response)
}

func TestCaptureCard_Execute_Validation(t *testing.T) {
	tests := []struct {
		name          string
		cmd           *CaptureCardCommand
		expectedError string
	}{
		{
			name:          "missing card ID",
			cmd:           &CaptureCardCommand{Amount: 100, Currency: "USD", Reference: "ref"},
			expectedError: "card ID is required",
		},
		{
			name:          "zero amount",
			cmd:           &CaptureCardCommand{CardID: testCheckoutID, Amount: 0, Currency: "USD", Reference: "ref"},
			expectedError: "amount must be positive",
		},
		{
			name:          "missing currency",
			cmd:           &CaptureCardCommand{CardID: testCheckoutID, Amount: 100, Reference: "ref"},
			expectedError: "currency is required",
		},
		{
			name:          "missing reference",
			cmd:           &CaptureCardCommand{CardID: testCheckoutID, Amount: 100, Currency: "USD"},
			expectedError: "reference is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockCardRepository(t)
			publisher := mocks.NewMockPublisher(t)
			useCase := NewCaptureCard(repo, publisher)

			response, err := useCase.Execute(context.Background(), tt.cmd)

			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
			assert.Nil(t, response)
		})
	}
}
