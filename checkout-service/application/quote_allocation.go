package application

import (
	"context"

	"github.com/bpay/checkout-system/checkout-service/domain"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
)

// QuoteAllocationCommand represents the command to quote an allocation
type QuoteAllocationCommand struct {
	CartTotal         int64         `json:"cart_total"`
	Currency          string        `json:"currency"`
	ServiceFeePercent float64       `json:"service_fee_percent"`
	Sources           []SourceInput `json:"sources"`
}

// QuoteAllocationResponse represents the live allocation numbers for the
// current source set
type QuoteAllocationResponse struct {
	CartTotal       int64          `json:"cart_total"`
	Currency        string         `json:"currency"`
	ServiceFee      int64          `json:"service_fee"`
	TotalWithFee    int64          `json:"total_with_fee"`
	AllocatedAmount int64          `json:"allocated_amount"`
	RemainingAmount int64          `json:"remaining_amount"`
	Valid           bool           `json:"valid"`
	ValidationError string         `json:"validation_error,omitempty"`
	Sources         []SourceOutput `json:"sources,omitempty"`
}

// QuoteAllocation use case computes allocation numbers without touching any
// checkout. The UI calls it on every source toggle or amount edit.
type QuoteAllocation struct{}

// NewQuoteAllocation creates a new QuoteAllocation use case
func NewQuoteAllocation() *QuoteAllocation {
	return &QuoteAllocation{}
}

// Execute quotes the allocation for the given cart and source set. An
// allocation that does not validate is still a successful quote; the response
// carries the validation outcome so the caller can render it.
func (uc *QuoteAllocation) Execute(_ context.Context, cmd *QuoteAllocationCommand) (*QuoteAllocationResponse, error) {
	if err := uc.validateCommand(cmd); err != nil {
		return nil, errors.Wrap(err, "invalid command")
	}

	cartTotal := models.NewMoney(cmd.CartTotal, cmd.Currency)

	sources, err := toDomainSources(cmd.Sources, cmd.Currency)
	if err != nil {
		return nil, errors.Wrap(err, "invalid sources")
	}

	request := domain.AllocationRequest{
		CartTotal:         cartTotal,
		ServiceFeePercent: cmd.ServiceFeePercent,
		Sources:           sources,
	}

	allocated := domain.ComputeAllocatedAmount(sources, cartTotal)
	remaining := domain.ComputeRemainingAmount(sources, cartTotal)

	response := &QuoteAllocationResponse{
		CartTotal:       cartTotal.Amount,
		Currency:        cartTotal.Currency,
		ServiceFee:      request.ServiceFee().Amount,
		TotalWithFee:    request.TotalWithFee().Amount,
		AllocatedAmount: allocated.Amount,
		RemainingAmount: remaining.Amount,
	}

	if err := domain.ValidateAllocation(cartTotal, sources); err != nil {
		response.ValidationError = err.Error()
		return response, nil
	}

	response.Valid = true
	response.Sources = toSourceOutputs(domain.DistributeFee(sources, cartTotal, request.ServiceFee()))
	return response, nil
}

// validateCommand validates the quote allocation command
func (uc *QuoteAllocation) validateCommand(cmd *QuoteAllocationCommand) error {
	if cmd.CartTotal <= 0 {
		return errors.New("cart total must be positive")
	}

	if cmd.Currency == "" {
		return errors.New("currency is required")
	}

	if cmd.ServiceFeePercent < 0 {
		return errors.New("service fee percent must not be negative")
	}

	return nil
}
