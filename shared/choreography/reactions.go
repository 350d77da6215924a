package choreography

import (
	"context"
	"time"

	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
)

// Checkout flow reactions. Each reaction consumes one step of the flow and
// publishes the event that triggers the next one:
//
//	checkout.submitted       -> gateway.charge.requested
//	checkout.completed       -> card.issue.requested
//	gateway.operation.failed -> gateway.provider.update (status failed)

// ChargeRequestedData asks the gateway side to charge a submitted checkout
type ChargeRequestedData struct {
	CheckoutID models.ID    `json:"checkout_id"`
	UserID     models.ID    `json:"user_id"`
	Amount     models.Money `json:"amount"`
}

// CardIssueRequestedData asks the card service to issue a card for a settled
// checkout
type CardIssueRequestedData struct {
	CheckoutID     models.ID    `json:"checkout_id"`
	UserID         models.ID    `json:"user_id"`
	CardholderName string       `json:"cardholder_name"`
	Amount         models.Money `json:"amount"`
}

// gatewayUpdateData mirrors the gateway update payload the checkout service
// consumes
type gatewayUpdateData struct {
	Provider          string       `json:"provider"`
	EventType         string       `json:"event_type"`
	TransactionID     string       `json:"transaction_id"`
	CheckoutReference string       `json:"checkout_reference"`
	Amount            models.Money `json:"amount"`
	Status            string       `json:"status"`
	ErrorCode         string       `json:"error_code,omitempty"`
	ErrorMessage      string       `json:"error_message,omitempty"`
	Timestamp         time.Time    `json:"timestamp"`
}

type checkoutSubmittedData struct {
	CheckoutID   models.ID    `json:"checkout_id"`
	UserID       models.ID    `json:"user_id"`
	TotalWithFee models.Money `json:"total_with_fee"`
}

type checkoutCompletedData struct {
	CheckoutID     models.ID    `json:"checkout_id"`
	UserID         models.ID    `json:"user_id"`
	CardholderName string       `json:"cardholder_name"`
	CartTotal      models.Money `json:"cart_total"`
}

type gatewayOperationFailedData struct {
	OperationID  models.ID    `json:"operation_id"`
	CheckoutID   models.ID    `json:"checkout_id"`
	Amount       models.Money `json:"amount"`
	ErrorCode    string       `json:"error_code"`
	ErrorMessage string       `json:"error_message"`
}

// CheckoutSubmittedReaction requests a gateway charge for a submitted
// checkout
type CheckoutSubmittedReaction struct {
	eventPublisher events.Publisher
}

func NewCheckoutSubmittedReaction(eventPublisher events.Publisher) *CheckoutSubmittedReaction {
	return &CheckoutSubmittedReaction{eventPublisher: eventPublisher}
}

func (h *CheckoutSubmittedReaction) Handle(ctx context.Context, event *events.Event) error {
	if event.EventType != events.CheckoutSubmittedEvent {
		return nil
	}

	var data checkoutSubmittedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to unmarshal checkout submitted payload")
	}

	chargeEvent := events.NewEvent(data.CheckoutID, events.GatewayChargeRequestedEvent, ChargeRequestedData{
		CheckoutID: data.CheckoutID,
		UserID:     data.UserID,
		Amount:     data.TotalWithFee,
	}).WithCorrelationID(event.AggregateID)

	return h.eventPublisher.Publish(ctx, chargeEvent)
}

// CheckoutCompletedReaction requests a virtual card for a settled checkout
type CheckoutCompletedReaction struct {
	eventPublisher events.Publisher
}

func NewCheckoutCompletedReaction(eventPublisher events.Publisher) *CheckoutCompletedReaction {
	return &CheckoutCompletedReaction{eventPublisher: eventPublisher}
}

func (h *CheckoutCompletedReaction) Handle(ctx context.Context, event *events.Event) error {
	if event.EventType != events.CheckoutCompletedEvent {
		return nil
	}

	var data checkoutCompletedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to unmarshal checkout completed payload")
	}

	// The card is funded with the cart total only; the fee stays with the
	// platform
	issueEvent := events.NewEvent(data.CheckoutID, events.CardIssueRequestedEvent, CardIssueRequestedData{
		CheckoutID:     data.CheckoutID,
		UserID:         data.UserID,
		CardholderName: data.CardholderName,
		Amount:         data.CartTotal,
	}).WithCorrelationID(event.AggregateID)

	return h.eventPublisher.Publish(ctx, issueEvent)
}

// GatewayOperationFailedReaction turns a failed gateway operation into the
// update event that fails the checkout
type GatewayOperationFailedReaction struct {
	eventPublisher events.Publisher
	provider       string
}

func NewGatewayOperationFailedReaction(eventPublisher events.Publisher, provider string) *GatewayOperationFailedReaction {
	return &GatewayOperationFailedReaction{
		eventPublisher: eventPublisher,
		provider:       provider,
	}
}

func (h *GatewayOperationFailedReaction) Handle(ctx context.Context, event *events.Event) error {
	if event.EventType != events.GatewayOperationFailedEvent {
		return nil
	}

	var data gatewayOperationFailedData
	if err := event.UnmarshalPayload(&data); err != nil {
		return errors.Wrap(err, "failed to unmarshal gateway operation failed payload")
	}

	updateEvent := events.NewEvent(data.CheckoutID, events.GatewayProviderUpdateEvent, gatewayUpdateData{
		Provider:          h.provider,
		EventType:         events.GatewayOperationFailedEvent,
		CheckoutReference: data.CheckoutID.String(),
		Amount:            data.Amount,
		Status:            "failed",
		ErrorCode:         data.ErrorCode,
		ErrorMessage:      data.ErrorMessage,
		Timestamp:         time.Now(),
	}).WithCorrelationID(event.AggregateID)

	return h.eventPublisher.Publish(ctx, updateEvent)
}

// RegisterCheckoutFlow wires the checkout flow reactions into a router
func RegisterCheckoutFlow(router *EventRouter, publisher events.Publisher, provider string) error {
	if err := router.Register(events.CheckoutSubmittedEvent, NewCheckoutSubmittedReaction(publisher)); err != nil {
		return err
	}
	if err := router.Register(events.CheckoutCompletedEvent, NewCheckoutCompletedReaction(publisher)); err != nil {
		return err
	}
	return router.Register(events.GatewayOperationFailedEvent, NewGatewayOperationFailedReaction(publisher, provider))
}
