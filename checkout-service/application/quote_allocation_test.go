package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cardSourceID   = "550e8400-e29b-41d4-a716-446655440001"
	bankSourceID   = "550e8400-e29b-41d4-a716-446655440002"
	walletSourceID = "550e8400-e29b-41d4-a716-446655440003"
)

func fixedInput(id string, amount int64, selected bool) SourceInput {
	return SourceInput{ID: id, Kind: "card", Selected: selected, AmountType: "fixed", Amount: amount}
}

func percentInput(id string, percent float64, selected bool) SourceInput {
	return SourceInput{ID: id, Kind: "bank_account", Selected: selected, AmountType: "percent", Percent: percent}
}

func TestQuoteAllocation_Execute(t *testing.T) {
	useCase := NewQuoteAllocation()

	t.Run("valid mixed allocation", func(t *testing.T) {
		response, err := useCase.Execute(context.Background(), &QuoteAllocationCommand{
			CartTotal:         10000,
			Currency:          "USD",
			ServiceFeePercent: 2.5,
			Sources: []SourceInput{
				fixedInput(cardSourceID, 6000, true),
				percentInput(bankSourceID, 40, true),
			},
		})

		require.NoError(t, err)
		assert.True(t, response.Valid)
		assert.Empty(t, response.ValidationError)
		assert.Equal(t, int64(250), response.ServiceFee)
		assert.Equal(t, int64(10250), response.TotalWithFee)
		assert.Equal(t, int64(10000), response.AllocatedAmount)
		assert.Equal(t, int64(0), response.RemainingAmount)

		require.Len(t, response.Sources, 2)
		assert.Equal(t, int64(6150), response.Sources[0].TotalCharge)
		assert.Equal(t, int64(4100), response.Sources[1].TotalCharge)
	})

	t.Run("under-allocated quote is not an error", func(t *testing.T) {
		response, err := useCase.Execute(context.Background(), &QuoteAllocationCommand{
			CartTotal:         10000,
			Currency:          "USD",
			ServiceFeePercent: 2.5,
			Sources:           []SourceInput{fixedInput(cardSourceID, 6000, true)},
		})

		require.NoError(t, err)
		assert.False(t, response.Valid)
		assert.NotEmpty(t, response.ValidationError)
		assert.Equal(t, int64(6000), response.AllocatedAmount)
		assert.Equal(t, int64(4000), response.RemainingAmount)
		assert.Empty(t, response.Sources)
	})

	t.Run("deselected sources do not count", func(t *testing.T) {
		response, err := useCase.Execute(context.Background(), &QuoteAllocationCommand{
			CartTotal:         10000,
			Currency:          "USD",
			ServiceFeePercent: 2.5,
			Sources: []SourceInput{
				fixedInput(cardSourceID, 10000, true),
				fixedInput(walletSourceID, 5000, false),
			},
		})

		require.NoError(t, err)
		assert.True(t, response.Valid)
		assert.Equal(t, int64(10000), response.AllocatedAmount)
		require.Len(t, response.Sources, 1)
	})

	t.Run("no source selected", func(t *testing.T) {
		response, err := useCase.Execute(context.Background(), &QuoteAllocationCommand{
			CartTotal:         10000,
			Currency:          "USD",
			ServiceFeePercent: 2.5,
			Sources:           []SourceInput{fixedInput(cardSourceID, 10000, false)},
		})

		require.NoError(t, err)
		assert.False(t, response.Valid)
		assert.Equal(t, int64(10000), response.RemainingAmount)
	})

	t.Run("invalid command", func(t *testing.T) {
		_, err := useCase.Execute(context.Background(), &QuoteAllocationCommand{
			CartTotal: 0,
			Currency:  "USD",
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cart total must be positive")
	})

	t.Run("percent out of range", func(t *testing.T) {
		_, err := useCase.Execute(context.Background(), &QuoteAllocationCommand{
			CartTotal:         10000,
			Currency:          "USD",
			ServiceFeePercent: 2.5,
			Sources:           []SourceInput{percentInput(bankSourceID, 150, true)},
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "percent must be between 0 and 100")
	})

	t.Run("unknown source kind", func(t *testing.T) {
		_, err := useCase.Execute(context.Background(), &QuoteAllocationCommand{
			CartTotal:         10000,
			Currency:          "USD",
			ServiceFeePercent: 2.5,
			Sources: []SourceInput{
				{ID: cardSourceID, Kind: "crypto", Selected: true, AmountType: "fixed", Amount: 10000},
			},
		})
		assert.Error(t, err)
	})
}
