package application

import (
	"context"

	"github.com/bpay/checkout-system/checkout-service/domain"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
)

// ReopenCheckoutCommand represents the command to reopen a failed checkout
type ReopenCheckoutCommand struct {
	CheckoutID string `json:"checkout_id"`
}

// ReopenCheckout use case returns a failed checkout to collecting
type ReopenCheckout struct {
	checkoutRepository domain.CheckoutRepository
	eventPublisher     events.Publisher
}

// NewReopenCheckout creates a new ReopenCheckout use case
func NewReopenCheckout(
	checkoutRepository domain.CheckoutRepository,
	eventPublisher events.Publisher,
) *ReopenCheckout {
	return &ReopenCheckout{
		checkoutRepository: checkoutRepository,
		eventPublisher:     eventPublisher,
	}
}

// Execute executes the reopen checkout use case
func (uc *ReopenCheckout) Execute(ctx context.Context, cmd *ReopenCheckoutCommand) error {
	if cmd.CheckoutID == "" {
		return errors.New("checkout ID is required")
	}

	checkoutID, err := models.NewID(cmd.CheckoutID)
	if err != nil {
		return errors.Wrap(err, "invalid checkout ID")
	}

	checkout, err := uc.checkoutRepository.FindByID(ctx, checkoutID)
	if err != nil {
		return errors.Wrap(err, "failed to find checkout")
	}

	if checkout == nil {
		return errors.New("checkout not found")
	}

	if err := checkout.Reopen(); err != nil {
		return errors.Wrap(err, "failed to reopen checkout")
	}

	if err := uc.checkoutRepository.Save(ctx, checkout); err != nil {
		return errors.Wrap(err, "failed to save checkout")
	}

	if err := uc.eventPublisher.Publish(ctx, checkout.Events()...); err != nil {
		return errors.Wrap(err, "failed to publish events")
	}

	checkout.ClearEvents()
	return nil
}
