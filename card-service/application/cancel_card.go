package application

import (
	"context"

	"github.com/bpay/checkout-system/card-service/domain"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/pkg/errors"
)

// CancelCardCommand represents the command to cancel a card
type CancelCardCommand struct {
	CardID string `json:"card_id"`
}

// CancelCard use case permanently cancels a card
type CancelCard struct {
	cardRepository domain.CardRepository
	eventPublisher events.Publisher
}

// NewCancelCard creates a new CancelCard use case
func NewCancelCard(
	cardRepository domain.CardRepository,
	eventPublisher events.Publisher,
) *CancelCard {
	return &CancelCard{
		cardRepository: cardRepository,
		eventPublisher: eventPublisher,
	}
}

// Execute executes the cancel card use case
func (uc *CancelCard) Execute(ctx context.Context, cmd *CancelCardCommand) error {
	card, err := findCard(ctx, uc.cardRepository, cmd.CardID)
	if err != nil {
		return err
	}

	if err := card.Cancel(); err != nil {
		return errors.Wrap(err, "failed to cancel card")
	}

	return saveAndPublish(ctx, uc.cardRepository, uc.eventPublisher, card)
}
