package domain

import (
	"testing"
	"time"

	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuedCard(t *testing.T, balanceCents int64) *VirtualCard {
	t.Helper()

	card, err := IssueCard(models.GenerateUUID(), models.GenerateUUID(), "Jane Doe", models.NewMoney(balanceCents, "USD"))
	require.NoError(t, err)
	card.ClearEvents()
	return card
}

func TestIssueCard(t *testing.T) {
	userID := models.GenerateUUID()
	checkoutID := models.GenerateUUID()

	card, err := IssueCard(userID, checkoutID, "Jane Doe", models.NewMoney(10000, "USD"))

	require.NoError(t, err)
	assert.Equal(t, userID, card.UserID)
	assert.Equal(t, checkoutID, card.CheckoutID)
	assert.Equal(t, CardStatusActive, card.Status)
	assert.Equal(t, int64(10000), card.Balance.Amount)

	assert.Len(t, card.CardNumber, 16)
	assert.True(t, ValidateCardNumber(card.CardNumber))
	assert.Len(t, card.CVV, 3)

	expiry, err := time.Parse("01/06", card.ExpiryDate)
	require.NoError(t, err)
	assert.True(t, expiry.After(time.Now()))

	require.Len(t, card.Events(), 1)
	event := card.Events()[0]
	assert.Equal(t, events.CardIssuedEvent, event.EventType)

	data, ok := event.Data.(CardIssuedData)
	require.True(t, ok)
	assert.Equal(t, card.MaskedNumber(), data.MaskedNumber)
	assert.NotContains(t, data.MaskedNumber, card.CardNumber[:12])
}

func TestIssueCard_Validation(t *testing.T) {
	tests := []struct {
		name           string
		cardholderName string
		balance        models.Money
		expectedError  string
	}{
		{
			name:           "empty cardholder name",
			cardholderName: "",
			balance:        models.NewMoney(10000, "USD"),
			expectedError:  "cardholder name is required",
		},
		{
			name:           "zero balance",
			cardholderName: "Jane Doe",
			balance:        models.NewMoney(0, "USD"),
			expectedError:  "card balance must be positive",
		},
		{
			name:           "negative balance",
			cardholderName: "Jane Doe",
			balance:        models.NewMoney(-100, "USD"),
			expectedError:  "card balance must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, err := IssueCard(models.GenerateUUID(), models.GenerateUUID(), tt.cardholderName, tt.balance)

			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
			assert.Nil(t, card)
		})
	}
}

func TestVirtualCard_Capture(t *testing.T) {
	card := issuedCard(t, 10000)

	err := card.Capture(models.NewMoney(2500, "USD"), "merchant-001")

	require.NoError(t, err)
	assert.Equal(t, int64(7500), card.Balance.Amount)

	require.Len(t, card.Events(), 1)
	event := card.Events()[0]
	assert.Equal(t, events.CardCapturedEvent, event.EventType)

	data, ok := event.Data.(CardCapturedData)
	require.True(t, ok)
	assert.Equal(t, int64(10000), data.BalanceBefore.Amount)
	assert.Equal(t, int64(7500), data.BalanceAfter.Amount)
	assert.Equal(t, "merchant-001", data.Reference)
}

func TestVirtualCard_Capture_InsufficientBalance(t *testing.T) {
	card := issuedCard(t, 1000)

	err := card.Capture(models.NewMoney(2500, "USD"), "merchant-001")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient card balance")
	assert.Equal(t, int64(1000), card.Balance.Amount)

	require.Len(t, card.Events(), 1)
	event := card.Events()[0]
	assert.Equal(t, events.CardInsufficientBalanceEvent, event.EventType)

	data, ok := event.Data.(CardInsufficientBalanceData)
	require.True(t, ok)
	assert.Equal(t, int64(1500), data.Shortfall.Amount)
}

func TestVirtualCard_Capture_Validation(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(card *VirtualCard)
		amount        models.Money
		expectedError string
	}{
		{
			name:          "frozen card",
			setup:         func(card *VirtualCard) { _ = card.Freeze() },
			amount:        models.NewMoney(100, "USD"),
			expectedError: "card is not active",
		},
		{
			name:          "cancelled card",
			setup:         func(card *VirtualCard) { _ = card.Cancel() },
			amount:        models.NewMoney(100, "USD"),
			expectedError: "card is not active",
		},
		{
			name:          "currency mismatch",
			setup:         func(card *VirtualCard) {},
			amount:        models.NewMoney(100, "EUR"),
			expectedError: "currency mismatch",
		},
		{
			name:          "zero amount",
			setup:         func(card *VirtualCard) {},
			amount:        models.NewMoney(0, "USD"),
			expectedError: "capture amount must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := issuedCard(t, 10000)
			tt.setup(card)
			card.ClearEvents()

			err := card.Capture(tt.amount, "merchant-001")

			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
			assert.Equal(t, int64(10000), card.Balance.Amount)
			assert.Empty(t, card.Events())
		})
	}
}

func TestVirtualCard_FreezeAndUnfreeze(t *testing.T) {
	card := issuedCard(t, 10000)

	require.NoError(t, card.Freeze())
	assert.Equal(t, CardStatusFrozen, card.Status)

	// Double freeze is rejected
	assert.Error(t, card.Freeze())

	require.NoError(t, card.Unfreeze())
	assert.Equal(t, CardStatusActive, card.Status)

	// Unfreezing an active card is rejected
	assert.Error(t, card.Unfreeze())

	require.Len(t, card.Events(), 2)
	assert.Equal(t, events.CardFrozenEvent, card.Events()[0].EventType)
	assert.Equal(t, events.CardUnfrozenEvent, card.Events()[1].EventType)
}

func TestVirtualCard_Cancel(t *testing.T) {
	card := issuedCard(t, 10000)

	require.NoError(t, card.Cancel())
	assert.Equal(t, CardStatusCancelled, card.Status)

	assert.Error(t, card.Cancel())
	assert.Error(t, card.Freeze())
	assert.Error(t, card.Unfreeze())

	require.Len(t, card.Events(), 1)
	assert.Equal(t, events.CardCancelledEvent, card.Events()[0].EventType)
}

func TestVirtualCard_MaskedNumber(t *testing.T) {
	card := issuedCard(t, 10000)

	masked := card.MaskedNumber()

	assert.Len(t, masked, 19)
	assert.Equal(t, "**** **** **** ", masked[:15])
	assert.Equal(t, card.CardNumber[12:], masked[15:])
}

func TestValidateCardNumber(t *testing.T) {
	assert.True(t, ValidateCardNumber("4111111111111111"))
	assert.False(t, ValidateCardNumber("4111111111111112"))
	assert.False(t, ValidateCardNumber("1234"))
	assert.False(t, ValidateCardNumber("4111a11111111111"))
}
