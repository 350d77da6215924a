package application

import (
	"context"
	"testing"

	"github.com/bpay/checkout-system/card-service/domain"
	"github.com/bpay/checkout-system/card-service/mocks"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testCheckoutID = "550e8400-e29b-41d4-a716-446655440010"
	testUserID     = "550e8400-e29b-41d4-a716-446655440011"
)

func issueCardCommand() *IssueCardCommand {
	return &IssueCardCommand{
		CheckoutID:     testCheckoutID,
		UserID:         testUserID,
		CardholderName: "Jane Doe",
		Amount:         10000,
		Currency:       "USD",
	}
}

func TestIssueCard_Execute(t *testing.T) {
	repo := mocks.NewMockCardRepository(t)
	publisher := mocks.NewMockPublisher(t)
	useCase := NewIssueCard(repo, publisher)

	repo.EXPECT().FindByCheckoutID(mock.Anything, mock.Anything).Return(nil, nil)
	repo.EXPECT().Save(mock.Anything, mock.AnythingOfType("*domain.VirtualCard")).Return(nil)
	publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil)

	response, err := useCase.Execute(context.Background(), issueCardCommand())

	require.NoError(t, err)
	assert.Equal(t, testCheckoutID, response.CheckoutID)
	assert.Equal(t, int64(10000), response.Balance.Amount)
	assert.Equal(t, "active", response.Status)
	assert.Contains(t, response.MaskedNumber, "**** **** **** ")
}

func TestIssueCard_Execute_ExistingCardIsReturned(t *testing.T) {
	repo := mocks.NewMockCardRepository(t)
	publisher := mocks.NewMockPublisher(t)
	useCase := NewIssueCard(repo, publisher)

	checkoutID, err := models.NewID(testCheckoutID)
	require.NoError(t, err)
	userID, err := models.NewID(testUserID)
	require.NoError(t, err)

	existing, err := domain.IssueCard(userID, checkoutID, "Jane Doe", models.NewMoney(10000, "USD"))
	require.NoError(t, err)
	existing.ClearEvents()

	repo.EXPECT().FindByCheckoutID(mock.Anything, mock.Anything).Return(existing, nil)

	response, err := useCase.Execute(context.Background(), issueCardCommand())

	require.NoError(t, err)
	assert.Equal(t, existing.ID.String(), response.CardID)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestIssueCard_Execute_SaveFailurePublishesIssueFailed(t *testing.T) {
	repo := mocks.NewMockCardRepository(t)
	publisher := mocks.NewMockPublisher(t)
	useCase := NewIssueCard(repo, publisher)

	repo.EXPECT().FindByCheckoutID(mock.Anything, mock.Anything).Return(nil, nil)
	repo.EXPECT().Save(mock.Anything, mock.Anything).Return(errors.New("database unavailable"))

	var published *events.Event
	publisher.EXPECT().Publish(mock.Anything, mock.Anything).Run(func(ctx context.Context, evts ...*events.Event) {
		published = evts[0]
	}).Return(nil)

	response, err := useCase.Execute(context.Background(), issueCardCommand())

	assert.Error(t, err)
	assert.Nil(t, response)
	require.NotNil(t, published)
	assert.Equal(t, events.CardIssueFailedEvent, published.EventType)
}

func TestIssueCard_Execute_Validation(t *testing.T) {
	tests := []struct {
		name          string
		modify        func(cmd *IssueCardCommand)
		expectedError string
	}{
		{
			name:          "missing checkout ID",
			modify:        func(cmd *IssueCardCommand) { cmd.CheckoutID = "" },
			expectedError: "checkout ID is required",
		},
		{
			name:          "missing user ID",
			modify:        func(cmd *IssueCardCommand) { cmd.UserID = "" },
			expectedError: "user ID is required",
		},
		{
			name:          "missing cardholder name",
			modify:        func(cmd *IssueCardCommand) { cmd.CardholderName = "" },
			expectedError: "cardholder name is required",
		},
		{
			name:          "zero amount",
			modify:        func(cmd *IssueCardCommand) { cmd.Amount = 0 },
			expectedError: "amount must be positive",
		},
		{
			name:          "missing currency",
			modify:        func(cmd *IssueCardCommand) { cmd.Currency = "" },
			expectedError: "currency is required",
		},
		{
			name:          "malformed checkout ID",
			modify:        func(cmd *IssueCardCommand) { cmd.CheckoutID = "not-a-uuid" },
			expectedError: "invalid checkout ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockCardRepository(t)
			publisher := mocks.NewMockPublisher(t)
			useCase := NewIssueCard(repo, publisher)

			cmd := issueCardCommand()
			tt.modify(cmd)

			response, err := useCase.Execute(context.Background(), cmd)

			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
			assert.Nil(t, response)
		})
	}
}
