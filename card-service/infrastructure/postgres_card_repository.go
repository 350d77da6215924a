package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/bpay/checkout-system/card-service/domain"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// PostgresCardRepository implements CardRepository using PostgreSQL
type PostgresCardRepository struct {
	db *sqlx.DB
}

// NewPostgresCardRepository creates a new PostgresCardRepository
func NewPostgresCardRepository(db *sqlx.DB) *PostgresCardRepository {
	return &PostgresCardRepository{db: db}
}

// postgresCard represents a virtual card in the database
type postgresCard struct {
	ID             string     `db:"id"`
	UserID         string     `db:"user_id"`
	CheckoutID     string     `db:"checkout_id"`
	CardholderName string     `db:"cardholder_name"`
	CardNumber     string     `db:"card_number"`
	ExpiryDate     string     `db:"expiry_date"`
	CVV            string     `db:"cvv"`
	Balance        int64      `db:"balance"`
	Currency       string     `db:"currency"`
	Status         string     `db:"status"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
	Version        int        `db:"version"`
}

// Save saves a card to the database
func (r *PostgresCardRepository) Save(ctx context.Context, card *domain.VirtualCard) error {
	for _, event := range card.Events() {
		if event.EventType == events.CardIssuedEvent {
			return r.insertCard(ctx, card)
		}
	}
	return r.updateCard(ctx, card)
}

// insertCard inserts a new card
func (r *PostgresCardRepository) insertCard(ctx context.Context, card *domain.VirtualCard) error {
	query := `
		INSERT INTO virtual_cards (
			id, user_id, checkout_id, cardholder_name, card_number,
			expiry_date, cvv, balance, currency, status,
			created_at, updated_at, version
		) VALUES (
			:id, :user_id, :checkout_id, :cardholder_name, :card_number,
			:expiry_date, :cvv, :balance, :currency, :status,
			:created_at, :updated_at, :version
		)`

	_, err := r.db.NamedExecContext(ctx, query, r.toPostgres(card))
	if err != nil {
		return errors.Wrap(err, "failed to insert card")
	}

	return nil
}

// updateCard updates an existing card
func (r *PostgresCardRepository) updateCard(ctx context.Context, card *domain.VirtualCard) error {
	query := `
		UPDATE virtual_cards
		SET balance = :balance, status = :status, updated_at = :updated_at,
			version = :version
		WHERE id = :id AND version = :old_version`

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          card.ID.String(),
		"balance":     card.Balance.Amount,
		"status":      string(card.Status),
		"updated_at":  card.Timestamps.UpdatedAt,
		"version":     card.Version.Value,
		"old_version": card.Version.Value - 1, // Optimistic locking
	})
	if err != nil {
		return errors.Wrap(err, "failed to update card")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read update result")
	}
	if affected == 0 {
		return errors.New("card was modified concurrently")
	}

	return nil
}

// FindByID finds a card by ID
func (r *PostgresCardRepository) FindByID(ctx context.Context, id models.ID) (*domain.VirtualCard, error) {
	query := selectCardQuery + ` WHERE id = $1 AND deleted_at IS NULL`

	var pgCard postgresCard
	err := r.db.GetContext(ctx, &pgCard, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Card not found
		}
		return nil, errors.Wrap(err, "failed to find card")
	}

	return r.toDomain(&pgCard)
}

// FindByCheckoutID finds the card issued for a checkout
func (r *PostgresCardRepository) FindByCheckoutID(ctx context.Context, checkoutID models.ID) (*domain.VirtualCard, error) {
	query := selectCardQuery + ` WHERE checkout_id = $1 AND deleted_at IS NULL`

	var pgCard postgresCard
	err := r.db.GetContext(ctx, &pgCard, query, checkoutID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No card issued for this checkout yet
		}
		return nil, errors.Wrap(err, "failed to find card by checkout ID")
	}

	return r.toDomain(&pgCard)
}

// FindByUserID finds cards by user ID
func (r *PostgresCardRepository) FindByUserID(ctx context.Context, userID models.ID) ([]*domain.VirtualCard, error) {
	query := selectCardQuery + ` WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`

	var pgCards []postgresCard
	err := r.db.SelectContext(ctx, &pgCards, query, userID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to find cards by user ID")
	}

	cards := make([]*domain.VirtualCard, len(pgCards))
	for i, pgCard := range pgCards {
		card, err := r.toDomain(&pgCard)
		if err != nil {
			return nil, err
		}
		cards[i] = card
	}

	return cards, nil
}

const selectCardQuery = `
	SELECT id, user_id, checkout_id, cardholder_name, card_number,
		   expiry_date, cvv, balance, currency, status,
		   created_at, updated_at, deleted_at, version
	FROM virtual_cards`

// toPostgres converts a domain card to its postgres model
func (r *PostgresCardRepository) toPostgres(card *domain.VirtualCard) *postgresCard {
	return &postgresCard{
		ID:             card.ID.String(),
		UserID:         card.UserID.String(),
		CheckoutID:     card.CheckoutID.String(),
		CardholderName: card.CardholderName,
		CardNumber:     card.CardNumber,
		ExpiryDate:     card.ExpiryDate,
		CVV:            card.CVV,
		Balance:        card.Balance.Amount,
		Currency:       card.Balance.Currency,
		Status:         string(card.Status),
		CreatedAt:      card.Timestamps.CreatedAt,
		UpdatedAt:      card.Timestamps.UpdatedAt,
		DeletedAt:      card.Timestamps.DeletedAt,
		Version:        card.Version.Value,
	}
}

// toDomain converts a postgres model to a domain card
func (r *PostgresCardRepository) toDomain(pgCard *postgresCard) (*domain.VirtualCard, error) {
	id, err := models.NewID(pgCard.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid card ID")
	}

	userID, err := models.NewID(pgCard.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid user ID")
	}

	checkoutID, err := models.NewID(pgCard.CheckoutID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid checkout ID")
	}

	return &domain.VirtualCard{
		ID:             id,
		UserID:         userID,
		CheckoutID:     checkoutID,
		CardholderName: pgCard.CardholderName,
		CardNumber:     pgCard.CardNumber,
		ExpiryDate:     pgCard.ExpiryDate,
		CVV:            pgCard.CVV,
		Balance:        models.NewMoney(pgCard.Balance, pgCard.Currency),
		Status:         domain.CardStatus(pgCard.Status),
		Timestamps: models.Timestamps{
			CreatedAt: pgCard.CreatedAt,
			UpdatedAt: pgCard.UpdatedAt,
			DeletedAt: pgCard.DeletedAt,
		},
		Version: models.Version{Value: pgCard.Version},
	}, nil
}
