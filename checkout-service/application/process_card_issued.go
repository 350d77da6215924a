package application

import (
	"context"

	"github.com/bpay/checkout-system/checkout-service/domain"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
)

// ProcessCardIssuedCommand represents the command to attach an issued card to
// its checkout
type ProcessCardIssuedCommand struct {
	CheckoutID string `json:"checkout_id"`
	CardID     string `json:"card_id"`
}

// ProcessCardIssued use case links the virtual card issued by the card
// service back to the checkout that funded it
type ProcessCardIssued struct {
	checkoutRepository domain.CheckoutRepository
	eventPublisher     events.Publisher
}

// NewProcessCardIssued creates a new ProcessCardIssued use case
func NewProcessCardIssued(
	checkoutRepository domain.CheckoutRepository,
	eventPublisher events.Publisher,
) *ProcessCardIssued {
	return &ProcessCardIssued{
		checkoutRepository: checkoutRepository,
		eventPublisher:     eventPublisher,
	}
}

// Execute attaches the issued card to the checkout. Attaching the same card
// twice is a no-op so event redelivery stays harmless.
func (uc *ProcessCardIssued) Execute(ctx context.Context, cmd *ProcessCardIssuedCommand) error {
	if cmd.CheckoutID == "" {
		return errors.New("checkout ID is required")
	}

	if cmd.CardID == "" {
		return errors.New("card ID is required")
	}

	checkoutID, err := models.NewID(cmd.CheckoutID)
	if err != nil {
		return errors.Wrap(err, "invalid checkout ID")
	}

	cardID, err := models.NewID(cmd.CardID)
	if err != nil {
		return errors.Wrap(err, "invalid card ID")
	}

	checkout, err := uc.checkoutRepository.FindByID(ctx, checkoutID)
	if err != nil {
		return errors.Wrap(err, "failed to find checkout")
	}

	if checkout == nil {
		return errors.New("checkout not found")
	}

	if checkout.VirtualCardID != nil && *checkout.VirtualCardID == cardID {
		return nil
	}

	if err := checkout.AttachCard(cardID); err != nil {
		return errors.Wrap(err, "failed to attach card")
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
