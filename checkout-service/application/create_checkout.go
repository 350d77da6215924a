package application

import (
	"context"

	"github.com/bpay/checkout-system/checkout-service/domain"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
)

// CreateCheckoutCommand represents the command to create a checkout
type CreateCheckoutCommand struct {
	UserID            string  `json:"user_id"`
	CardholderName    string  `json:"cardholder_name"`
	CartTotal         int64   `json:"cart_total"`
	Currency          string  `json:"currency"`
	ServiceFeePercent float64 `json:"service_fee_percent"`
}

// CreateCheckoutResponse represents the response after creating a checkout
type CreateCheckoutResponse struct {
	CheckoutID string `json:"checkout_id"`
}

// CreateCheckout use case
type CreateCheckout struct {
	checkoutRepository domain.CheckoutRepository
	eventPublisher     events.Publisher
}

// NewCreateCheckout creates a new CreateCheckout use case
func NewCreateCheckout(
	checkoutRepository domain.CheckoutRepository,
	eventPublisher events.Publisher,
) *CreateCheckout {
	return &CreateCheckout{
		checkoutRepository: checkoutRepository,
		eventPublisher:     eventPublisher,
	}
}

// Execute executes the create checkout use case
func (uc *CreateCheckout) Execute(ctx context.Context, cmd *CreateCheckoutCommand) (*CreateCheckoutResponse, error) {
	if err := uc.validateCommand(cmd); err != nil {
		return nil, errors.Wrap(err, "invalid command")
	}

	userID, err := models.NewID(cmd.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid user ID")
	}

	cartTotal := models.NewMoney(cmd.CartTotal, cmd.Currency)

	checkout, err := domain.CreateCheckout(userID, cmd.CardholderName, cartTotal, cmd.ServiceFeePercent)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create checkout")
	}

	if err := uc.checkoutRepository.Save(ctx, checkout); err != nil {
		return nil, errors.Wrap(err, "failed to save checkout")
	}

	if err := uc.eventPublisher.Publish(ctx, checkout.Events()...); err != nil {
		return nil, errors.Wrap(err, "failed to publish events")
	}

	return &CreateCheckoutResponse{
		CheckoutID: checkout.ID.String(),
	}, nil
}

// validateCommand validates the create checkout command
func (uc *CreateCheckout) validateCommand(cmd *CreateCheckoutCommand) error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}

	if cmd.CardholderName == "" {
		return errors.New("cardholder name is required")
	}

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
