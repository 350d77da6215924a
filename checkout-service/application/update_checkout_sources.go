package application

import (
	"context"

	"github.com/bpay/checkout-system/checkout-service/domain"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
)

// UpdateCheckoutSourcesCommand represents the command to replace a checkout's
// source set
type UpdateCheckoutSourcesCommand struct {
	CheckoutID string        `json:"checkout_id"`
	Sources    []SourceInput `json:"sources"`
}

// UpdateCheckoutSourcesResponse carries the allocation quote for the new
// source set
type UpdateCheckoutSourcesResponse struct {
	CheckoutID      string `json:"checkout_id"`
	AllocatedAmount int64  `json:"allocated_amount"`
	RemainingAmount int64  `json:"remaining_amount"`
	ServiceFee      int64  `json:"service_fee"`
	TotalWithFee    int64  `json:"total_with_fee"`
	Valid           bool   `json:"valid"`
	ValidationError string `json:"validation_error,omitempty"`
}

// UpdateCheckoutSources use case
type UpdateCheckoutSources struct {
	checkoutRepository domain.CheckoutRepository
	eventPublisher     events.Publisher
}

// NewUpdateCheckoutSources creates a new UpdateCheckoutSources use case
func NewUpdateCheckoutSources(
	checkoutRepository domain.CheckoutRepository,
	eventPublisher events.Publisher,
) *UpdateCheckoutSources {
	return &UpdateCheckoutSources{
		checkoutRepository: checkoutRepository,
		eventPublisher:     eventPublisher,
	}
}

// Execute replaces the checkout's source set and returns the resulting
// allocation quote. The new set is persisted even when it does not validate;
// validation only gates submission.
func (uc *UpdateCheckoutSources) Execute(ctx context.Context, cmd *UpdateCheckoutSourcesCommand) (*UpdateCheckoutSourcesResponse, error) {
	if cmd.CheckoutID == "" {
		return nil, errors.New("checkout ID is required")
	}

	checkoutID, err := models.NewID(cmd.CheckoutID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid checkout ID")
	}

	checkout, err := uc.checkoutRepository.FindByID(ctx, checkoutID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find checkout")
	}

	if checkout == nil {
		return nil, errors.New("checkout not found")
	}

	sources, err := toDomainSources(cmd.Sources, checkout.CartTotal.Currency)
	if err != nil {
		return nil, errors.Wrap(err, "invalid sources")
	}

	if err := checkout.UpdateSources(sources); err != nil {
		return nil, errors.Wrap(err, "failed to update sources")
	}

	if err := uc.checkoutRepository.Save(ctx, checkout); err != nil {
		return nil, errors.Wrap(err, "failed to save checkout")
	}

	if err := uc.eventPublisher.Publish(ctx, checkout.Events()...); err != nil {
		return nil, errors.Wrap(err, "failed to publish events")
	}

	request := checkout.AllocationRequest()
	allocated := domain.ComputeAllocatedAmount(checkout.Sources, checkout.CartTotal)
	remaining := domain.ComputeRemainingAmount(checkout.Sources, checkout.CartTotal)

	response := &UpdateCheckoutSourcesResponse{
		CheckoutID:      checkout.ID.String(),
		AllocatedAmount: allocated.Amount,
		RemainingAmount: remaining.Amount,
		ServiceFee:      request.ServiceFee().Amount,
		TotalWithFee:    request.TotalWithFee().Amount,
	}

	if validationErr := domain.ValidateAllocation(checkout.CartTotal, checkout.Sources); validationErr != nil {
		response.ValidationError = validationErr.Error()
	} else {
		response.Valid = true
	}

	return response, nil
}
