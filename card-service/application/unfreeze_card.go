package application

import (
	"context"

	"github.com/bpay/checkout-system/card-service/domain"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/pkg/errors"
)

// UnfreezeCardCommand represents the command to unfreeze a card
type UnfreezeCardCommand struct {
	CardID string `json:"card_id"`
}

// UnfreezeCard use case reactivates a frozen card
type UnfreezeCard struct {
	cardRepository domain.CardRepository
	eventPublisher events.Publisher
}

// NewUnfreezeCard creates a new UnfreezeCard use case
func NewUnfreezeCard(
	cardRepository domain.CardRepository,
	eventPublisher events.Publisher,
) *UnfreezeCard {
	return &UnfreezeCard{
		cardRepository: cardRepository,
		eventPublisher: eventPublisher,
	}
}

// Execute executes the unfreeze card use case
func (uc *UnfreezeCard) Execute(ctx context.Context, cmd *UnfreezeCardCommand) error {
	card, err := findCard(ctx, uc.cardRepository, cmd.CardID)
	if err != nil {
		return err
	}

	if err := card.Unfreeze(); err != nil {
		return errors.Wrap(err, "failed to unfreeze card")
	}

	return saveAndPublish(ctx, uc.cardRepository, uc.eventPublisher, card)
}
