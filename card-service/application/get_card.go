package application

import (
	"context"

	"github.com/bpay/checkout-system/card-service/domain"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
)

// GetCardQuery represents the query to get a card
type GetCardQuery struct {
	CardID string `json:"card_id"`
}

// GetCardResponse represents the card read model. The PAN and CVV are never
// exposed here.
type GetCardResponse struct {
	CardID         string       `json:"card_id"`
	UserID         string       `json:"user_id"`
	CheckoutID     string       `json:"checkout_id"`
	CardholderName string       `json:"cardholder_name"`
	MaskedNumber   string       `json:"masked_number"`
	ExpiryDate     string       `json:"expiry_date"`
	Balance        models.Money `json:"balance"`
	Status         string       `json:"status"`
	CreatedAt      string       `json:"created_at"`
	UpdatedAt      string       `json:"updated_at"`
}

// GetCard use case retrieves a card by ID
type GetCard struct {
	cardRepository domain.CardRepository
}

// NewGetCard creates a new GetCard use case
func NewGetCard(cardRepository domain.CardRepository) *GetCard {
	return &GetCard{
		cardRepository: cardRepository,
	}
}

// Execute executes the get card query
func (uc *GetCard) Execute(ctx context.Context, query *GetCardQuery) (*GetCardResponse, error) {
	if query.CardID == "" {
		return nil, errors.New("card ID is required")
	}

	cardID, err := models.NewID(query.CardID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid card ID")
	}

	card, err := uc.cardRepository.FindByID(ctx, cardID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find card")
	}
	if card == nil {
		return nil, errors.New("card not found")
	}

	return &GetCardResponse{
		CardID:         card.ID.String(),
		UserID:         card.UserID.String(),
		CheckoutID:     card.CheckoutID.String(),
		CardholderName: card.CardholderName,
		MaskedNumber:   card.MaskedNumber(),
		ExpiryDate:     card.ExpiryDate,
		Balance:        card.Balance,
		Status:         string(card.Status),
		CreatedAt:      card.Timestamps.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:      card.Timestamps.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}
