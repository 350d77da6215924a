package application

import (
	"context"

	"github.com/bpay/checkout-system/card-service/domain"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
)

// FreezeCardCommand represents the command to freeze a card
type FreezeCardCommand struct {
	CardID string `json:"card_id"`
}

// FreezeCard use case freezes a card
type FreezeCard struct {
	cardRepository domain.CardRepository
	eventPublisher events.Publisher
}

// NewFreezeCard creates a new FreezeCard use case
func NewFreezeCard(
	cardRepository domain.CardRepository,
	eventPublisher events.Publisher,
) *FreezeCard {
	return &FreezeCard{
		cardRepository: cardRepository,
		eventPublisher: eventPublisher,
	}
}

// Execute executes the freeze card use case
func (uc *FreezeCard) Execute(ctx context.Context, cmd *FreezeCardCommand) error {
	card, err := findCard(ctx, uc.cardRepository, cmd.CardID)
	if err != nil {
		return err
	}

	if err := card.Freeze(); err != nil {
		return errors.Wrap(err, "failed to freeze card")
	}

	return saveAndPublish(ctx, uc.cardRepository, uc.eventPublisher, card)
}

// findCard loads a card by its string ID, failing on missing cards
func findCard(ctx context.Context, repo domain.CardRepository, rawID string) (*domain.VirtualCard, error) {
	if rawID == "" {
		return nil, errors.New("card ID is required")
	}

	cardID, err := models.NewID(rawID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid card ID")
	}

	card, err := repo.FindByID(ctx, cardID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find card")
	}
	if card == nil {
		return nil, errors.New("card not found")
	}

	return card, nil
}

// saveAndPublish persists the card and publishes its recorded events
func saveAndPublish(ctx context.Context, repo domain.CardRepository, publisher events.Publisher, card *domain.VirtualCard) error {
	if err := repo.Save(ctx, card); err != nil {
		return errors.Wrap(err, "failed to save card")
	}

	if err := publisher.Publish(ctx, card.Events()...); err != nil {
		return errors.Wrap(err, "failed to publish events")
	}
	card.ClearEvents()

	return nil
}
