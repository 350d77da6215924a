package application

import (
	"context"

	"github.com/bpay/checkout-system/checkout-service/domain"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
)

// SubmitCheckoutCommand represents the command to submit a checkout for
// charging
type SubmitCheckoutCommand struct {
	CheckoutID string `json:"checkout_id"`
}

// SubmitCheckoutResponse represents the response after submitting a checkout
type SubmitCheckoutResponse struct {
	CheckoutID    string         `json:"checkout_id"`
	Status        string         `json:"status"`
	TransactionID string         `json:"transaction_id,omitempty"`
	ServiceFee    int64          `json:"service_fee"`
	TotalWithFee  int64          `json:"total_with_fee"`
	Sources       []SourceOutput `json:"sources"`
}

// SubmitCheckout use case validates the allocation, freezes the fee
// distribution and hands the charge to the external processor
type SubmitCheckout struct {
	checkoutRepository domain.CheckoutRepository
	paymentGateway     domain.PaymentGateway
	eventPublisher     events.Publisher
	provider           string
}

// NewSubmitCheckout creates a new SubmitCheckout use case
func NewSubmitCheckout(
	checkoutRepository domain.CheckoutRepository,
	paymentGateway domain.PaymentGateway,
	eventPublisher events.Publisher,
	provider string,
) *SubmitCheckout {
	return &SubmitCheckout{
		checkoutRepository: checkoutRepository,
		paymentGateway:     paymentGateway,
		eventPublisher:     eventPublisher,
		provider:           provider,
	}
}

// Execute executes the submit checkout use case. A synchronous gateway
// decline fails the checkout immediately; a pending result leaves it
// submitting until the processor reports back through the webhook.
func (uc *SubmitCheckout) Execute(ctx context.Context, cmd *SubmitCheckoutCommand) (*SubmitCheckoutResponse, error) {
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

	resolved, err := checkout.Submit()
	if err != nil {
		return nil, errors.Wrap(err, "checkout submission rejected")
	}

	if err := uc.checkoutRepository.Save(ctx, checkout); err != nil {
		return nil, errors.Wrap(err, "failed to save checkout")
	}

	if err := uc.eventPublisher.Publish(ctx, checkout.Events()...); err != nil {
		return nil, errors.Wrap(err, "failed to publish events")
	}
	checkout.ClearEvents()

	request := checkout.AllocationRequest()
	serviceFee := request.ServiceFee()
	totalWithFee := request.TotalWithFee()

	operation := domain.NewGatewayOperation(checkout.ID, domain.GatewayOperationTypeCharge, totalWithFee, uc.provider)

	chargeRequest := domain.BuildChargeRequest(
		checkout.CardholderName,
		checkout.ID,
		checkout.CartTotal,
		serviceFee,
		totalWithFee,
		resolved,
	)

	result, chargeErr := uc.paymentGateway.Charge(ctx, chargeRequest)
	if chargeErr != nil {
		operation.Fail("gateway_unreachable", chargeErr.Error())
		if failErr := uc.failCheckout(ctx, checkout, operation, "gateway request failed", "gateway_unreachable"); failErr != nil {
			return nil, failErr
		}
		return nil, errors.Wrap(chargeErr, "gateway charge failed")
	}

	response := &SubmitCheckoutResponse{
		CheckoutID:    checkout.ID.String(),
		TransactionID: result.TransactionID,
		ServiceFee:    serviceFee.Amount,
		TotalWithFee:  totalWithFee.Amount,
		Sources:       toSourceOutputs(resolved),
	}

	switch result.Status {
	case "succeeded":
		operation.Complete(result.TransactionID)
		if err := checkout.Complete(result.TransactionID); err != nil {
			return nil, errors.Wrap(err, "failed to complete checkout")
		}
		if err := uc.saveAndPublish(ctx, checkout, operation); err != nil {
			return nil, err
		}

	case "failed", "declined":
		errorCode := result.ErrorCode
		if errorCode == "" {
			errorCode = "charge_declined"
		}
		operation.Fail(errorCode, result.ErrorMessage)
		if err := uc.failCheckout(ctx, checkout, operation, result.ErrorMessage, errorCode); err != nil {
			return nil, err
		}

	default:
		// Pending or processing. The webhook decides the outcome.
		operation.Process()
		if err := uc.eventPublisher.Publish(ctx, operation.Events()...); err != nil {
			return nil, errors.Wrap(err, "failed to publish operation events")
		}
	}

	response.Status = string(checkout.Status)
	return response, nil
}

// saveAndPublish persists the checkout and flushes both aggregates' events
func (uc *SubmitCheckout) saveAndPublish(ctx context.Context, checkout *domain.Checkout, operation *domain.GatewayOperation) error {
	if err := uc.checkoutRepository.Save(ctx, checkout); err != nil {
		return errors.Wrap(err, "failed to save checkout")
	}

	pending := append(operation.Events(), checkout.Events()...)
	if err := uc.eventPublisher.Publish(ctx, pending...); err != nil {
		return errors.Wrap(err, "failed to publish events")
	}

	checkout.ClearEvents()
	operation.ClearEvents()
	return nil
}

// failCheckout records the failure on the checkout and flushes events
func (uc *SubmitCheckout) failCheckout(ctx context.Context, checkout *domain.Checkout, operation *domain.GatewayOperation, reason, errorCode string) error {
	if err := checkout.Fail(reason, errorCode); err != nil {
		return errors.Wrap(err, "failed to fail checkout")
	}
	return uc.saveAndPublish(ctx, checkout, operation)
}
