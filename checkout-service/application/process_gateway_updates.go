package application

import (
	"context"

	"github.com/bpay/checkout-system/checkout-service/domain"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
)

// ProcessGatewayUpdatesCommand represents the command to process a gateway
// provider update
type ProcessGatewayUpdatesCommand struct {
	Provider          string                 `json:"provider"`
	EventType         string                 `json:"event_type"`
	TransactionID     string                 `json:"transaction_id"`
	CheckoutReference string                 `json:"checkout_reference"`
	Amount            models.Money           `json:"amount"`
	Status            string                 `json:"status"`
	ErrorCode         string                 `json:"error_code,omitempty"`
	ErrorMessage      string                 `json:"error_message,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}

// ProcessGatewayUpdates use case settles in-flight checkouts from
// asynchronous processor updates
type ProcessGatewayUpdates struct {
	checkoutRepository domain.CheckoutRepository
	eventPublisher     events.Publisher
}

// NewProcessGatewayUpdates creates a new ProcessGatewayUpdates use case
func NewProcessGatewayUpdates(
	checkoutRepository domain.CheckoutRepository,
	eventPublisher events.Publisher,
) *ProcessGatewayUpdates {
	return &ProcessGatewayUpdates{
		checkoutRepository: checkoutRepository,
		eventPublisher:     eventPublisher,
	}
}

// Execute processes a gateway update and moves the referenced checkout to its
// terminal state. Updates for checkouts already settled are ignored so
// webhook redelivery stays harmless.
func (uc *ProcessGatewayUpdates) Execute(ctx context.Context, cmd *ProcessGatewayUpdatesCommand) error {
	if err := uc.validateCommand(cmd); err != nil {
		return errors.Wrap(err, "invalid command")
	}

	checkoutID, err := models.NewID(cmd.CheckoutReference)
	if err != nil {
		return errors.Wrap(err, "invalid checkout reference")
	}

	checkout, err := uc.checkoutRepository.FindByID(ctx, checkoutID)
	if err != nil {
		return errors.Wrap(err, "failed to find checkout")
	}

	if checkout == nil {
		return errors.New("checkout not found")
	}

	// Async settles leave the same operation audit trail as the synchronous
	// submit path.
	amount := cmd.Amount
	if !amount.IsPositive() {
		amount = checkout.AllocationRequest().TotalWithFee()
	}
	operation := domain.NewGatewayOperation(checkout.ID, domain.GatewayOperationTypeCharge, amount, cmd.Provider)
	operation.ProviderTransactionID = cmd.TransactionID

	switch uc.normalizeStatus(cmd.Status, cmd.EventType) {
	case "completed":
		if checkout.Status == domain.CheckoutStatusSucceeded {
			return nil
		}
		if err := checkout.Complete(cmd.TransactionID); err != nil {
			return errors.Wrap(err, "failed to complete checkout")
		}
		operation.Complete(cmd.TransactionID)

	case "failed":
		if checkout.Status == domain.CheckoutStatusFailed {
			return nil
		}
		errorCode := cmd.ErrorCode
		if errorCode == "" {
			errorCode = "gateway_error"
		}
		reason := cmd.ErrorMessage
		if reason == "" {
			reason = "charge failed at the payment processor"
		}
		if err := checkout.Fail(reason, errorCode); err != nil {
			return errors.Wrap(err, "failed to fail checkout")
		}
		operation.Fail(errorCode, reason)

	case "processing":
		// Still in flight, nothing to settle.
		return nil

	default:
		return errors.Errorf("unknown gateway status: %s", cmd.Status)
	}

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

// normalizeStatus normalizes processor statuses to common values
func (uc *ProcessGatewayUpdates) normalizeStatus(status, eventType string) string {
	switch status {
	case "succeeded", "success", "completed", "paid", "confirmed":
		return "completed"
	case "failed", "failure", "error", "declined", "canceled", "cancelled":
		return "failed"
	case "processing", "pending", "in_progress":
		return "processing"
	default:
		switch eventType {
		case "charge.succeeded":
			return "completed"
		case "charge.failed", "charge.declined":
			return "failed"
		case "charge.processing":
			return "processing"
		default:
			return status
		}
	}
}

// validateCommand validates the process gateway updates command
func (uc *ProcessGatewayUpdates) validateCommand(cmd *ProcessGatewayUpdatesCommand) error {
	if cmd.Provider == "" {
		return errors.New("provider is required")
	}

	if cmd.CheckoutReference == "" {
		return errors.New("checkout reference is required")
	}

	if cmd.Status == "" && cmd.EventType == "" {
		return errors.New("status or event type is required")
	}

	return nil
}
