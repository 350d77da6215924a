package application

import (
	"context"
	"time"

	"github.com/bpay/checkout-system/card-service/domain"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/bpay/checkout-system/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CaptureCardCommand represents the command to capture a merchant spend
type CaptureCardCommand struct {
	CardID    string `json:"card_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Reference string `json:"reference"`
}

// CaptureCardResponse represents the response after a capture
type CaptureCardResponse struct {
	CardID       string       `json:"card_id"`
	Amount       models.Money `json:"amount"`
	BalanceAfter models.Money `json:"balance_after"`
}

// CaptureCard use case debits a merchant spend from a card
type CaptureCard struct {
	cardRepository domain.CardRepository
	eventPublisher events.Publisher
}

// NewCaptureCard creates a new CaptureCard use case
func NewCaptureCard(
	cardRepository domain.CardRepository,
	eventPublisher events.Publisher,
) *CaptureCard {
	return &CaptureCard{
		cardRepository: cardRepository,
		eventPublisher: eventPublisher,
	}
}

// Execute captures a merchant spend against the card balance
func (uc *CaptureCard) Execute(ctx context.Context, cmd *CaptureCardCommand) (*CaptureCardResponse, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "capture_card",
		trace.WithAttributes(
			attribute.String("card_id", cmd.CardID),
			attribute.Int64("amount", cmd.Amount),
		),
	)
	defer span.End()

	status := "error"
	defer func() {
		duration := time.Since(start)

		telemetry.RecordCounter(ctx, "card_operations_total", "Total card operations", 1,
			attribute.String("operation", "capture_card"),
			attribute.String("status", status),
		)

		telemetry.RecordHistogram(ctx, "card_operation_duration_seconds", "Card operation duration", duration.Seconds(),
			attribute.String("operation", "capture_card"),
			attribute.String("status", status),
		)
	}()

	if err := uc.validateCommand(cmd); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "invalid command")
	}

	cardID, err := models.NewID(cmd.CardID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "invalid card ID")
	}

	card, err := uc.cardRepository.FindByID(ctx, cardID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to find card")
	}
	if card == nil {
		err := errors.New("card not found")
		span.RecordError(err)
		return nil, err
	}

	amount := models.NewMoney(cmd.Amount, cmd.Currency)

	if captureErr := card.Capture(amount, cmd.Reference); captureErr != nil {
		span.RecordError(captureErr)
		// An insufficient balance still records an event worth publishing
		if len(card.Events()) > 0 {
			if err := uc.eventPublisher.Publish(ctx, card.Events()...); err != nil {
				span.RecordError(err)
			}
			card.ClearEvents()
		}
		return nil, errors.Wrap(captureErr, "failed to capture")
	}

	if err := uc.cardRepository.Save(ctx, card); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to save card")
	}

	if err := uc.eventPublisher.Publish(ctx, card.Events()...); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to publish events")
	}
	card.ClearEvents()

	telemetry.RecordGauge(ctx, "card_balance", "Current card balance", float64(card.Balance.Amount)/100.0,
		attribute.String("card_id", card.ID.String()),
	)

	status = "success"

	return &CaptureCardResponse{
		CardID:       card.ID.String(),
		Amount:       amount,
		BalanceAfter: card.Balance,
	}, nil
}

// validateCommand validates the capture command
func (uc *CaptureCard) validateCommand(cmd *CaptureCardCommand) error {
	if cmd.CardID == "" {
		return errors.New("card ID is required")
	}

	if cmd.Amount <= 0 {
		return errors.New("amount must be positive")
	}

	if cmd.Currency == "" {
		return errors.New("currency is required")
	}

	if cmd.Reference == "" {
		return errors.New("reference is required")
	}

	return nil
}
