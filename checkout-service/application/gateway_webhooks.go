package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
)

// GatewayWebhookPayload represents the webhook payload from the external
// payment processor
type GatewayWebhookPayload struct {
	Provider          string                 `json:"provider"`
	EventType         string                 `json:"event_type"`
	TransactionID     string                 `json:"transaction_id"`
	CheckoutReference string                 `json:"checkout_reference"`
	Amount            int64                  `json:"amount"`
	Currency          string                 `json:"currency"`
	Status            string                 `json:"status"`
	ErrorCode         string                 `json:"error_code,omitempty"`
	ErrorMessage      string                 `json:"error_message,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	Timestamp         time.Time              `json:"timestamp"`
}

// HandleGatewayWebhooksCommand represents the command to handle gateway
// webhooks
type HandleGatewayWebhooksCommand struct {
	Provider  string `json:"provider"`
	Payload   []byte `json:"payload"`
	Signature string `json:"signature,omitempty"`
}

// HandleGatewayWebhooks use case turns processor webhooks into internal
// gateway update events. The handler does not touch checkouts itself; the
// update event is consumed asynchronously.
type HandleGatewayWebhooks struct {
	eventPublisher events.Publisher
}

// NewHandleGatewayWebhooks creates a new HandleGatewayWebhooks use case
func NewHandleGatewayWebhooks(eventPublisher events.Publisher) *HandleGatewayWebhooks {
	return &HandleGatewayWebhooks{
		eventPublisher: eventPublisher,
	}
}

// Execute handles a gateway webhook and publishes the corresponding update
// event
func (uc *HandleGatewayWebhooks) Execute(ctx context.Context, cmd *HandleGatewayWebhooksCommand) error {
	if err := uc.validateCommand(cmd); err != nil {
		return errors.Wrap(err, "invalid command")
	}

	payload, err := uc.parseWebhookPayload(cmd.Provider, cmd.Payload)
	if err != nil {
		return errors.Wrap(err, "failed to parse webhook payload")
	}

	if err := uc.verifyWebhookSignature(cmd.Provider, cmd.Payload, cmd.Signature); err != nil {
		return errors.Wrap(err, "webhook signature verification failed")
	}

	checkoutID, err := models.NewID(payload.CheckoutReference)
	if err != nil {
		return errors.Wrap(err, "invalid checkout reference")
	}

	updateEvent := events.NewEvent(
		checkoutID,
		events.GatewayProviderUpdateEvent,
		GatewayProviderUpdateData{
			Provider:          payload.Provider,
			EventType:         payload.EventType,
			TransactionID:     payload.TransactionID,
			CheckoutReference: payload.CheckoutReference,
			Amount:            models.NewMoney(payload.Amount, payload.Currency),
			Status:            payload.Status,
			ErrorCode:         payload.ErrorCode,
			ErrorMessage:      payload.ErrorMessage,
			Metadata:          payload.Metadata,
			Timestamp:         payload.Timestamp,
		},
	)

	if err := uc.eventPublisher.Publish(ctx, updateEvent); err != nil {
		return errors.Wrap(err, "failed to publish gateway update event")
	}

	return nil
}

// parseWebhookPayload parses the webhook payload based on provider
func (uc *HandleGatewayWebhooks) parseWebhookPayload(provider string, payload []byte) (*GatewayWebhookPayload, error) {
	var webhookData GatewayWebhookPayload

	switch provider {
	case "processor":
		if err := json.Unmarshal(payload, &webhookData); err != nil {
			return nil, errors.Wrap(err, "failed to parse processor webhook")
		}

	default:
		return nil, errors.New("unsupported webhook provider")
	}

	webhookData.Provider = provider
	if webhookData.Timestamp.IsZero() {
		webhookData.Timestamp = time.Now()
	}

	return &webhookData, nil
}

// verifyWebhookSignature verifies the webhook signature. Verification is
// skipped when the processor sends no signature.
func (uc *HandleGatewayWebhooks) verifyWebhookSignature(provider string, payload []byte, signature string) error {
	if signature == "" {
		return nil
	}

	switch provider {
	case "processor":
		// The processor publishes no signing key; its signatures are
		// accepted unverified.
		return nil

	default:
		return errors.New("unsupported provider for signature verification")
	}
}

// validateCommand validates the handle gateway webhooks command
func (uc *HandleGatewayWebhooks) validateCommand(cmd *HandleGatewayWebhooksCommand) error {
	if cmd.Provider == "" {
		return errors.New("provider is required")
	}

	if len(cmd.Payload) == 0 {
		return errors.New("payload is required")
	}

	return nil
}

// GatewayProviderUpdateData represents data for the gateway provider update
// event
type GatewayProviderUpdateData struct {
	Provider          string                 `json:"provider"`
	EventType         string                 `json:"event_type"`
	TransactionID     string                 `json:"transaction_id"`
	CheckoutReference string                 `json:"checkout_reference"`
	Amount            models.Money           `json:"amount"`
	Status            string                 `json:"status"`
	ErrorCode         string                 `json:"error_code,omitempty"`
	ErrorMessage      string                 `json:"error_message,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	Timestamp         time.Time              `json:"timestamp"`
}
