package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bpay/checkout-system/card-service/application"
	"github.com/bpay/checkout-system/shared/choreography"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/pkg/errors"
)

// CardEventHandlers handles the checkout flow events the card service reacts
// to
type CardEventHandlers struct {
	issueCard *application.IssueCard
}

// NewCardEventHandlers creates new card event handlers
func NewCardEventHandlers(issueCard *application.IssueCard) *CardEventHandlers {
	return &CardEventHandlers{
		issueCard: issueCard,
	}
}

// Handle implements the events.EventHandler interface
func (h *CardEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.EventType {
	case events.CardIssueRequestedEvent:
		return h.HandleCardIssueRequested(ctx, event)
	default:
		// Unknown event type, ignore
		return nil
	}
}

// HandlerID returns the unique identifier for this event handler
func (h *CardEventHandlers) HandlerID() string {
	return "card-service-event-handler"
}

// HandleCardIssueRequested issues a virtual card for a settled checkout. The
// request is published by the checkout flow reaction once the charge settles
// and carries the cart total; the service fee stays with the platform.
func (h *CardEventHandlers) HandleCardIssueRequested(ctx context.Context, event *events.Event) error {
	if event.EventType != events.CardIssueRequestedEvent {
		return nil
	}

	var data choreography.CardIssueRequestedData
	if err := h.parseEventData(event, &data); err != nil {
		return errors.Wrap(err, "failed to parse card issue request data")
	}

	cmd := &application.IssueCardCommand{
		CheckoutID:     data.CheckoutID.String(),
		UserID:         data.UserID.String(),
		CardholderName: data.CardholderName,
		Amount:         data.Amount.Amount,
		Currency:       data.Amount.Currency,
	}

	if _, err := h.issueCard.Execute(ctx, cmd); err != nil {
		// The use case already published card.issue.failed; retrying the
		// message would re-run a non-transient failure
		fmt.Printf("Failed to issue card for checkout %s: %v\n", data.CheckoutID, err)
		return nil
	}

	return nil
}

// parseEventData parses event data into the specified struct
func (h *CardEventHandlers) parseEventData(event *events.Event, target interface{}) error {
	jsonData, err := json.Marshal(event.Data)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event data")
	}

	if err := json.Unmarshal(jsonData, target); err != nil {
		return errors.Wrap(err, "failed to unmarshal event data")
	}

	return nil
}
