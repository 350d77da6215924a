package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bpay/checkout-system/checkout-service/application"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
)

// CheckoutEventHandlers handles all checkout-related events in the
// choreography
type CheckoutEventHandlers struct {
	processGatewayUpdates *application.ProcessGatewayUpdates
	processCardIssued     *application.ProcessCardIssued
}

// NewCheckoutEventHandlers creates new checkout event handlers
func NewCheckoutEventHandlers(
	processGatewayUpdates *application.ProcessGatewayUpdates,
	processCardIssued *application.ProcessCardIssued,
) *CheckoutEventHandlers {
	return &CheckoutEventHandlers{
		processGatewayUpdates: processGatewayUpdates,
		processCardIssued:     processCardIssued,
	}
}

// Handle implements the events.EventHandler interface
func (h *CheckoutEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.EventType {
	case events.GatewayProviderUpdateEvent:
		return h.HandleGatewayProviderUpdate(ctx, event)
	case events.CardIssuedEvent:
		return h.HandleCardIssued(ctx, event)
	case events.CardIssueFailedEvent:
		return h.HandleCardIssueFailed(ctx, event)
	default:
		// Unknown event type, ignore
		return nil
	}
}

// HandlerID returns the unique identifier for this event handler
func (h *CheckoutEventHandlers) HandlerID() string {
	return "checkout-service-event-handler"
}

// HandleGatewayProviderUpdate handles gateway provider update events
func (h *CheckoutEventHandlers) HandleGatewayProviderUpdate(ctx context.Context, event *events.Event) error {
	if event.EventType != events.GatewayProviderUpdateEvent {
		return nil
	}

	var data application.GatewayProviderUpdateData
	if err := h.parseEventData(event, &data); err != nil {
		return errors.Wrap(err, "failed to parse gateway provider update data")
	}

	cmd := &application.ProcessGatewayUpdatesCommand{
		Provider:          data.Provider,
		EventType:         data.EventType,
		TransactionID:     data.TransactionID,
		CheckoutReference: data.CheckoutReference,
		Amount:            data.Amount,
		Status:            data.Status,
		ErrorCode:         data.ErrorCode,
		ErrorMessage:      data.ErrorMessage,
		Metadata:          data.Metadata,
	}

	if err := h.processGatewayUpdates.Execute(ctx, cmd); err != nil {
		fmt.Printf("Failed to process gateway update for checkout %s: %v\n", data.CheckoutReference, err)
		return nil
	}

	return nil
}

// HandleCardIssued handles card issued events from the card service
func (h *CheckoutEventHandlers) HandleCardIssued(ctx context.Context, event *events.Event) error {
	if event.EventType != events.CardIssuedEvent {
		return nil
	}

	var data CardIssuedData
	if err := h.parseEventData(event, &data); err != nil {
		return errors.Wrap(err, "failed to parse card issued data")
	}

	cmd := &application.ProcessCardIssuedCommand{
		CheckoutID: data.CheckoutID.String(),
		CardID:     data.CardID.String(),
	}

	if err := h.processCardIssued.Execute(ctx, cmd); err != nil {
		fmt.Printf("Failed to attach card for checkout %s: %v\n", data.CheckoutID, err)
		return nil
	}

	return nil
}

// HandleCardIssueFailed handles card issue failed events from the card
// service. The charge already settled, so the failure is logged for manual
// follow-up instead of failing the checkout.
func (h *CheckoutEventHandlers) HandleCardIssueFailed(ctx context.Context, event *events.Event) error {
	if event.EventType != events.CardIssueFailedEvent {
		return nil
	}

	var data CardIssueFailedData
	if err := h.parseEventData(event, &data); err != nil {
		return errors.Wrap(err, "failed to parse card issue failed data")
	}

	fmt.Printf("Card issue failed for checkout %s: %s\n", data.CheckoutID, data.Reason)
	return nil
}

// parseEventData parses event data into the specified struct
func (h *CheckoutEventHandlers) parseEventData(event *events.Event, target interface{}) error {
	jsonData, err := json.Marshal(event.Data)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event data")
	}

	if err := json.Unmarshal(jsonData, target); err != nil {
		return errors.Wrap(err, "failed to unmarshal event data")
	}

	return nil
}

// Event data structures published by the card service
type CardIssuedData struct {
	CardID       models.ID    `json:"card_id"`
	CheckoutID   models.ID    `json:"checkout_id"`
	UserID       models.ID    `json:"user_id"`
	Balance      models.Money `json:"balance"`
	MaskedNumber string       `json:"masked_number"`
}

type CardIssueFailedData struct {
	CheckoutID models.ID `json:"checkout_id"`
	UserID     models.ID `json:"user_id"`
	Reason     string    `json:"reason"`
}
