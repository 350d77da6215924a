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

// IssueCardCommand represents the command to issue a virtual card
type IssueCardCommand struct {
	CheckoutID     string `json:"checkout_id"`
	UserID         string `json:"user_id"`
	CardholderName string `json:"cardholder_name"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

// IssueCardResponse represents the response after issuing a card
type IssueCardResponse struct {
	CardID       string       `json:"card_id"`
	CheckoutID   string       `json:"checkout_id"`
	MaskedNumber string       `json:"masked_number"`
	ExpiryDate   string       `json:"expiry_date"`
	Balance      models.Money `json:"balance"`
	Status       string       `json:"status"`
}

// IssueCard use case creates a virtual card funded with the settled
// checkout's cart total
type IssueCard struct {
	cardRepository domain.CardRepository
	eventPublisher events.Publisher
}

// NewIssueCard creates a new IssueCard use case
func NewIssueCard(
	cardRepository domain.CardRepository,
	eventPublisher events.Publisher,
) *IssueCard {
	return &IssueCard{
		cardRepository: cardRepository,
		eventPublisher: eventPublisher,
	}
}

// Execute issues a card for a completed checkout. A checkout gets at most one
// card; redelivered completion events return the existing card.
func (uc *IssueCard) Execute(ctx context.Context, cmd *IssueCardCommand) (*IssueCardResponse, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "issue_card",
		trace.WithAttributes(
			attribute.String("checkout_id", cmd.CheckoutID),
			attribute.Int64("amount", cmd.Amount),
			attribute.String("currency", cmd.Currency),
		),
	)
	defer span.End()

	status := "error"
	defer func() {
		duration := time.Since(start)

		telemetry.RecordCounter(ctx, "card_operations_total", "Total card operations", 1,
			attribute.String("operation", "issue_card"),
			attribute.String("status", status),
		)

		telemetry.RecordHistogram(ctx, "card_operation_duration_seconds", "Card operation duration", duration.Seconds(),
			attribute.String("operation", "issue_card"),
			attribute.String("status", status),
		)
	}()

	if err := uc.validateCommand(cmd); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "invalid command")
	}

	checkoutID, err := models.NewID(cmd.CheckoutID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "invalid checkout ID")
	}

	userID, err := models.NewID(cmd.UserID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "invalid user ID")
	}

	existing, err := uc.cardRepository.FindByCheckoutID(ctx, checkoutID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to check for existing card")
	}
	if existing != nil {
		status = "success"
		return uc.toResponse(existing), nil
	}

	card, err := domain.IssueCard(userID, checkoutID, cmd.CardholderName, models.NewMoney(cmd.Amount, cmd.Currency))
	if err != nil {
		span.RecordError(err)
		uc.publishIssueFailed(ctx, checkoutID, userID, err)
		return nil, errors.Wrap(err, "failed to issue card")
	}

	if err := uc.cardRepository.Save(ctx, card); err != nil {
		span.RecordError(err)
		uc.publishIssueFailed(ctx, checkoutID, userID, err)
		return nil, errors.Wrap(err, "failed to save card")
	}

	if err := uc.eventPublisher.Publish(ctx, card.Events()...); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to publish events")
	}
	card.ClearEvents()

	status = "success"
	span.SetAttributes(attribute.String("card_id", card.ID.String()))

	return uc.toResponse(card), nil
}

// publishIssueFailed notifies the checkout side that no card could be issued.
// Publish failures here are swallowed; the issue error itself is what the
// caller needs to see.
func (uc *IssueCard) publishIssueFailed(ctx context.Context, checkoutID, userID models.ID, cause error) {
	event := events.NewEvent(checkoutID, events.CardIssueFailedEvent, domain.CardIssueFailedData{
		CheckoutID: checkoutID,
		UserID:     userID,
		Reason:     cause.Error(),
	})

	_ = uc.eventPublisher.Publish(ctx, event)
}

func (uc *IssueCard) toResponse(card *domain.VirtualCard) *IssueCardResponse {
	return &IssueCardResponse{
		CardID:       card.ID.String(),
		CheckoutID:   card.CheckoutID.String(),
		MaskedNumber: card.MaskedNumber(),
		ExpiryDate:   card.ExpiryDate,
		Balance:      card.Balance,
		Status:       string(card.Status),
	}
}

// validateCommand validates the issue card command
func (uc *IssueCard) validateCommand(cmd *IssueCardCommand) error {
	if cmd.CheckoutID == "" {
		return errors.New("checkout ID is required")
	}

	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}

	if cmd.CardholderName == "" {
		return errors.New("cardholder name is required")
	}

	if cmd.Amount <= 0 {
		return errors.New("amount must be positive")
	}

	if cmd.Currency == "" {
		return errors.New("currency is required")
	}

	return nil
}
