package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/bpay/checkout-system/checkout-service/domain"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// PostgresCheckoutRepository implements CheckoutRepository using PostgreSQL
type PostgresCheckoutRepository struct {
	db *sqlx.DB
}

// NewPostgresCheckoutRepository creates a new PostgresCheckoutRepository
func NewPostgresCheckoutRepository(db *sqlx.DB) *PostgresCheckoutRepository {
	return &PostgresCheckoutRepository{db: db}
}

// postgresCheckout represents a checkout in the database
type postgresCheckout struct {
	ID                   string     `db:"id"`
	UserID               string     `db:"user_id"`
	CardholderName       string     `db:"cardholder_name"`
	CartTotal            int64      `db:"cart_total"`
	Currency             string     `db:"currency"`
	ServiceFeePercent    float64    `db:"service_fee_percent"`
	Status               string     `db:"status"`
	GatewayTransactionID string     `db:"gateway_transaction_id"`
	VirtualCardID        *string    `db:"virtual_card_id"`
	CreatedAt            time.Time  `db:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at"`
	DeletedAt            *time.Time `db:"deleted_at"`
	Version              int        `db:"version"`
}

// postgresCheckoutSource represents one payment source row
type postgresCheckoutSource struct {
	CheckoutID string  `db:"checkout_id"`
	Position   int     `db:"position"`
	SourceID   string  `db:"source_id"`
	Kind       string  `db:"kind"`
	Selected   bool    `db:"selected"`
	AmountType string  `db:"amount_type"`
	Amount     int64   `db:"amount"`
	Percent    float64 `db:"percent"`
}

// Save saves a checkout to the database
func (r *PostgresCheckoutRepository) Save(ctx context.Context, checkout *domain.Checkout) error {
	for _, event := range checkout.Events() {
		if event.EventType == events.CheckoutCreatedEvent {
			return r.insertCheckout(ctx, checkout)
		}
	}
	return r.updateCheckout(ctx, checkout)
}

// insertCheckout inserts a new checkout
func (r *PostgresCheckoutRepository) insertCheckout(ctx context.Context, checkout *domain.Checkout) error {
	query := `
		INSERT INTO checkouts (
			id, user_id, cardholder_name, cart_total, currency,
			service_fee_percent, status, gateway_transaction_id,
			virtual_card_id, created_at, updated_at, version
		) VALUES (
			:id, :user_id, :cardholder_name, :cart_total, :currency,
			:service_fee_percent, :status, :gateway_transaction_id,
			:virtual_card_id, :created_at, :updated_at, :version
		)`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, query, r.toPostgres(checkout)); err != nil {
		return errors.Wrap(err, "failed to insert checkout")
	}

	if err := r.replaceSources(ctx, tx, checkout); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "failed to commit checkout insert")
}

// updateCheckout updates an existing checkout and replaces its source rows
func (r *PostgresCheckoutRepository) updateCheckout(ctx context.Context, checkout *domain.Checkout) error {
	query := `
		UPDATE checkouts
		SET status = :status, gateway_transaction_id = :gateway_transaction_id,
			virtual_card_id = :virtual_card_id, updated_at = :updated_at,
			version = :version
		WHERE id = :id AND version = :old_version`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var virtualCardID *string
	if checkout.VirtualCardID != nil {
		id := checkout.VirtualCardID.String()
		virtualCardID = &id
	}

	result, err := tx.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                     checkout.ID.String(),
		"status":                 string(checkout.Status),
		"gateway_transaction_id": checkout.GatewayTransactionID,
		"virtual_card_id":        virtualCardID,
		"updated_at":             checkout.Timestamps.UpdatedAt,
		"version":                checkout.Version.Value,
		"old_version":            checkout.Version.Value - 1, // Optimistic locking
	})
	if err != nil {
		return errors.Wrap(err, "failed to update checkout")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read update result")
	}
	if affected == 0 {
		return errors.New("checkout was modified concurrently")
	}

	if err := r.replaceSources(ctx, tx, checkout); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "failed to commit checkout update")
}

// replaceSources rewrites the source rows for a checkout
func (r *PostgresCheckoutRepository) replaceSources(ctx context.Context, tx *sqlx.Tx, checkout *domain.Checkout) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM checkout_sources WHERE checkout_id = $1`, checkout.ID.String()); err != nil {
		return errors.Wrap(err, "failed to delete checkout sources")
	}

	query := `
		INSERT INTO checkout_sources (
			checkout_id, position, source_id, kind, selected,
			amount_type, amount, percent
		) VALUES (
			:checkout_id, :position, :source_id, :kind, :selected,
			:amount_type, :amount, :percent
		)`

	for i, source := range checkout.Sources {
		row := postgresCheckoutSource{
			CheckoutID: checkout.ID.String(),
			Position:   i,
			SourceID:   source.ID.String(),
			Kind:       source.Kind.String(),
			Selected:   source.Selected,
			AmountType: source.Type.String(),
			Amount:     source.Amount.Amount,
			Percent:    source.Percent,
		}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return errors.Wrap(err, "failed to insert checkout source")
		}
	}

	return nil
}

// FindByID finds a checkout by ID
func (r *PostgresCheckoutRepository) FindByID(ctx context.Context, id models.ID) (*domain.Checkout, error) {
	query := `
		SELECT id, user_id, cardholder_name, cart_total, currency,
			   service_fee_percent, status, gateway_transaction_id,
			   virtual_card_id, created_at, updated_at, deleted_at, version
		FROM checkouts
		WHERE id = $1 AND deleted_at IS NULL`

	var pgCheckout postgresCheckout
	err := r.db.GetContext(ctx, &pgCheckout, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Checkout not found
		}
		return nil, errors.Wrap(err, "failed to find checkout")
	}

	sources, err := r.findSources(ctx, id)
	if err != nil {
		return nil, err
	}

	return r.toDomain(&pgCheckout, sources)
}

// FindByUserID finds checkouts by user ID
func (r *PostgresCheckoutRepository) FindByUserID(ctx context.Context, userID models.ID) ([]*domain.Checkout, error) {
	query := `
		SELECT id, user_id, cardholder_name, cart_total, currency,
			   service_fee_percent, status, gateway_transaction_id,
			   virtual_card_id, created_at, updated_at, deleted_at, version
		FROM checkouts
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`

	var pgCheckouts []postgresCheckout
	err := r.db.SelectContext(ctx, &pgCheckouts, query, userID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to find checkouts by user ID")
	}

	checkouts := make([]*domain.Checkout, len(pgCheckouts))
	for i, pgCheckout := range pgCheckouts {
		checkoutID, err := models.NewID(pgCheckout.ID)
		if err != nil {
			return nil, errors.Wrap(err, "invalid checkout ID")
		}

		sources, err := r.findSources(ctx, checkoutID)
		if err != nil {
			return nil, err
		}

		checkout, err := r.toDomain(&pgCheckout, sources)
		if err != nil {
			return nil, err
		}
		checkouts[i] = checkout
	}

	return checkouts, nil
}

// findSources loads the source rows for a checkout in insertion order
func (r *PostgresCheckoutRepository) findSources(ctx context.Context, checkoutID models.ID) ([]postgresCheckoutSource, error) {
	query := `
		SELECT checkout_id, position, source_id, kind, selected,
			   amount_type, amount, percent
		FROM checkout_sources
		WHERE checkout_id = $1
		ORDER BY position`

	var rows []postgresCheckoutSource
	err := r.db.SelectContext(ctx, &rows, query, checkoutID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to find checkout sources")
	}

	return rows, nil
}

// toPostgres converts a domain checkout to its postgres model
func (r *PostgresCheckoutRepository) toPostgres(checkout *domain.Checkout) *postgresCheckout {
	var virtualCardID *string
	if checkout.VirtualCardID != nil {
		id := checkout.VirtualCardID.String()
		virtualCardID = &id
	}

	return &postgresCheckout{
		ID:                   checkout.ID.String(),
		UserID:               checkout.UserID.String(),
		CardholderName:       checkout.CardholderName,
		CartTotal:            checkout.CartTotal.Amount,
		Currency:             checkout.CartTotal.Currency,
		ServiceFeePercent:    checkout.ServiceFeePercent,
		Status:               string(checkout.Status),
		GatewayTransactionID: checkout.GatewayTransactionID,
		VirtualCardID:        virtualCardID,
		CreatedAt:            checkout.Timestamps.CreatedAt,
		UpdatedAt:            checkout.Timestamps.UpdatedAt,
		DeletedAt:            checkout.Timestamps.DeletedAt,
		Version:              checkout.Version.Value,
	}
}

// toDomain converts the postgres models to a domain checkout
func (r *PostgresCheckoutRepository) toDomain(pgCheckout *postgresCheckout, pgSources []postgresCheckoutSource) (*domain.Checkout, error) {
	id, err := models.NewID(pgCheckout.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid checkout ID")
	}

	userID, err := models.NewID(pgCheckout.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid user ID")
	}

	sources := make([]domain.PaymentSource, len(pgSources))
	for i, row := range pgSources {
		sourceID, err := models.NewID(row.SourceID)
		if err != nil {
			return nil, errors.Wrap(err, "invalid source ID")
		}

		kind, err := domain.NewSourceKind(row.Kind)
		if err != nil {
			return nil, errors.Wrap(err, "invalid source kind")
		}

		amountType, err := domain.NewAmountType(row.AmountType)
		if err != nil {
			return nil, errors.Wrap(err, "invalid amount type")
		}

		sources[i] = domain.PaymentSource{
			ID:       sourceID,
			Kind:     kind,
			Selected: row.Selected,
			Type:     amountType,
			Amount:   models.NewMoney(row.Amount, pgCheckout.Currency),
			Percent:  row.Percent,
		}
	}

	var virtualCardID *models.ID
	if pgCheckout.VirtualCardID != nil {
		cardID, err := models.NewID(*pgCheckout.VirtualCardID)
		if err != nil {
			return nil, errors.Wrap(err, "invalid virtual card ID")
		}
		virtualCardID = &cardID
	}

	checkout := &domain.Checkout{
		ID:                   id,
		UserID:               userID,
		CardholderName:       pgCheckout.CardholderName,
		CartTotal:            models.NewMoney(pgCheckout.CartTotal, pgCheckout.Currency),
		ServiceFeePercent:    pgCheckout.ServiceFeePercent,
		Sources:              sources,
		Status:               domain.CheckoutStatus(pgCheckout.Status),
		GatewayTransactionID: pgCheckout.GatewayTransactionID,
		VirtualCardID:        virtualCardID,
		Timestamps: models.Timestamps{
			CreatedAt: pgCheckout.CreatedAt,
			UpdatedAt: pgCheckout.UpdatedAt,
			DeletedAt: pgCheckout.DeletedAt,
		},
		Version: models.Version{Value: pgCheckout.Version},
	}

	return checkout, nil
}
