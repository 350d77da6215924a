package domain

import (
	"context"
	"time"

	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
)

// CheckoutStatus represents the status of a checkout attempt
type CheckoutStatus string

const (
	// CheckoutStatusCollecting means the shopper is still adjusting sources.
	// Validation failures keep the checkout here.
	CheckoutStatusCollecting CheckoutStatus = "collecting"
	CheckoutStatusSubmitting CheckoutStatus = "submitting"
	CheckoutStatusSucceeded  CheckoutStatus = "succeeded"
	CheckoutStatusFailed     CheckoutStatus = "failed"
)

// Checkout aggregate root. One checkout is one attempt to fund a virtual card
// from a set of payment sources and charge it through the external processor.
type Checkout struct {
	ID                   models.ID
	UserID               models.ID
	CardholderName       string
	CartTotal            models.Money
	ServiceFeePercent    float64
	Sources              []PaymentSource
	Status               CheckoutStatus
	GatewayTransactionID string
	VirtualCardID        *models.ID
	Timestamps           models.Timestamps
	Version              models.Version

	events []*events.Event
}

// CreateCheckout factory method
func CreateCheckout(userID models.ID, cardholderName string, cartTotal models.Money, serviceFeePercent float64) (*Checkout, error) {
	if !cartTotal.IsPositive() {
		return nil, ErrInvalidTotal
	}

	if serviceFeePercent < 0 {
		return nil, errors.New("service fee percent must not be negative")
	}

	checkout := &Checkout{
		ID:                models.GenerateUUID(),
		UserID:            userID,
		CardholderName:    cardholderName,
		CartTotal:         cartTotal,
		ServiceFeePercent: serviceFeePercent,
		Sources:           make([]PaymentSource, 0),
		Status:            CheckoutStatusCollecting,
		Timestamps:        models.NewTimestamps(),
		Version:           models.NewVersion(),
	}

	event := events.NewEvent(checkout.ID, events.CheckoutCreatedEvent, CheckoutCreatedData{
		CheckoutID:        checkout.ID,
		UserID:            checkout.UserID,
		CardholderName:    checkout.CardholderName,
		CartTotal:         checkout.CartTotal,
		ServiceFeePercent: checkout.ServiceFeePercent,
	})

	checkout.recordEvent(event)
	return checkout, nil
}

// AllocationRequest builds the transient allocation request for the current
// source set
func (c *Checkout) AllocationRequest() AllocationRequest {
	return AllocationRequest{
		CartTotal:         c.CartTotal,
		ServiceFeePercent: c.ServiceFeePercent,
		Sources:           c.Sources,
	}
}

// UpdateSources replaces the source set while collecting. Deselected sources
// are normalized to a zero contribution so no stale amount survives a toggle.
func (c *Checkout) UpdateSources(sources []PaymentSource) error {
	if c.Status != CheckoutStatusCollecting {
		return errors.New("sources can only be updated while collecting")
	}

	normalized := make([]PaymentSource, len(sources))
	for i, source := range sources {
		if !source.Selected {
			source = source.Deselect()
		}
		normalized[i] = source
	}
	c.Sources = normalized
	c.Timestamps = c.Timestamps.Update()
	c.Version = c.Version.Update()

	event := events.NewEvent(c.ID, events.CheckoutSourcesUpdatedEvent, CheckoutSourcesUpdatedData{
		CheckoutID: c.ID,
		UserID:     c.UserID,
		Sources:    c.Sources,
	})

	c.recordEvent(event)
	return nil
}

// Submit validates the allocation and moves the checkout to submitting. A
// validation failure returns the typed allocation error and leaves the
// checkout collecting. A checkout already submitting refuses a second submit,
// which keeps at most one charge in flight per attempt.
func (c *Checkout) Submit() ([]ResolvedSource, error) {
	switch c.Status {
	case CheckoutStatusCollecting:
	case CheckoutStatusSubmitting:
		return nil, errors.New("checkout submission already in flight")
	default:
		return nil, errors.Errorf("checkout cannot be submitted from %s status", c.Status)
	}

	if err := ValidateAllocation(c.CartTotal, c.Sources); err != nil {
		return nil, err
	}

	request := c.AllocationRequest()
	resolved := DistributeFee(c.Sources, c.CartTotal, request.ServiceFee())

	c.Status = CheckoutStatusSubmitting
	c.Timestamps = c.Timestamps.Update()
	c.Version = c.Version.Update()

	event := events.NewEvent(c.ID, events.CheckoutSubmittedEvent, CheckoutSubmittedData{
		CheckoutID:      c.ID,
		UserID:          c.UserID,
		CardholderName:  c.CardholderName,
		CartTotal:       c.CartTotal,
		ServiceFee:      request.ServiceFee(),
		TotalWithFee:    request.TotalWithFee(),
		ResolvedSources: resolved,
	})

	c.recordEvent(event)
	return resolved, nil
}

// Complete marks the checkout as succeeded
func (c *Checkout) Complete(gatewayTransactionID string) error {
	if c.Status != CheckoutStatusSubmitting {
		return errors.New("checkout can only be completed from submitting status")
	}

	request := c.AllocationRequest()

	c.Status = CheckoutStatusSucceeded
	c.GatewayTransactionID = gatewayTransactionID
	c.Timestamps = c.Timestamps.Update()
	c.Version = c.Version.Update()

	event := events.NewEvent(c.ID, events.CheckoutCompletedEvent, CheckoutCompletedData{
		CheckoutID:           c.ID,
		UserID:               c.UserID,
		CardholderName:       c.CardholderName,
		CartTotal:            c.CartTotal,
		ServiceFee:           request.ServiceFee(),
		TotalCharged:         request.TotalWithFee(),
		GatewayTransactionID: gatewayTransactionID,
		CompletedAt:          time.Now(),
	})

	c.recordEvent(event)
	return nil
}

// Fail marks the checkout as failed
func (c *Checkout) Fail(reason string, errorCode string) error {
	if c.Status == CheckoutStatusSucceeded {
		return errors.New("cannot fail a succeeded checkout")
	}

	c.Status = CheckoutStatusFailed
	c.Timestamps = c.Timestamps.Update()
	c.Version = c.Version.Update()

	event := events.NewEvent(c.ID, events.CheckoutFailedEvent, CheckoutFailedData{
		CheckoutID: c.ID,
		UserID:     c.UserID,
		Reason:     reason,
		ErrorCode:  errorCode,
		FailedAt:   time.Now(),
	})

	c.recordEvent(event)
	return nil
}

// Reopen returns a failed checkout to collecting so the shopper can adjust
// sources and try again
func (c *Checkout) Reopen() error {
	if c.Status != CheckoutStatusFailed {
		return errors.New("only a failed checkout can be reopened")
	}

	c.Status = CheckoutStatusCollecting
	c.GatewayTransactionID = ""
	c.Timestamps = c.Timestamps.Update()
	c.Version = c.Version.Update()

	event := events.NewEvent(c.ID, events.CheckoutReopenedEvent, CheckoutReopenedData{
		CheckoutID: c.ID,
		UserID:     c.UserID,
	})

	c.recordEvent(event)
	return nil
}

// AttachCard records the virtual card issued for a succeeded checkout
func (c *Checkout) AttachCard(cardID models.ID) error {
	if c.Status != CheckoutStatusSucceeded {
		return errors.New("card can only be attached to a succeeded checkout")
	}

	c.VirtualCardID = &cardID
	c.Timestamps = c.Timestamps.Update()
	c.Version = c.Version.Update()

	event := events.NewEvent(c.ID, events.CheckoutCardAttachedEvent, CheckoutCardAttachedData{
		CheckoutID: c.ID,
		UserID:     c.UserID,
		CardID:     cardID,
	})

	c.recordEvent(event)
	return nil
}

// Events returns domain events
func (c *Checkout) Events() []*events.Event {
	return c.events
}

// ClearEvents clears domain events
func (c *Checkout) ClearEvents() {
	c.events = make([]*events.Event, 0)
}

// recordEvent records a domain event
func (c *Checkout) recordEvent(event *events.Event) {
	c.events = append(c.events, event)
}

// Event Data Structures
type CheckoutCreatedData struct {
	CheckoutID        models.ID    `json:"checkout_id"`
	UserID            models.ID    `json:"user_id"`
	CardholderName    string       `json:"cardholder_name"`
	CartTotal         models.Money `json:"cart_total"`
	ServiceFeePercent float64      `json:"service_fee_percent"`
}

type CheckoutSourcesUpdatedData struct {
	CheckoutID models.ID       `json:"checkout_id"`
	UserID     models.ID       `json:"user_id"`
	Sources    []PaymentSource `json:"sources"`
}

type CheckoutSubmittedData struct {
	CheckoutID      models.ID        `json:"checkout_id"`
	UserID          models.ID        `json:"user_id"`
	CardholderName  string           `json:"cardholder_name"`
	CartTotal       models.Money     `json:"cart_total"`
	ServiceFee      models.Money     `json:"service_fee"`
	TotalWithFee    models.Money     `json:"total_with_fee"`
	ResolvedSources []ResolvedSource `json:"resolved_sources"`
}

type CheckoutCompletedData struct {
	CheckoutID           models.ID    `json:"checkout_id"`
	UserID               models.ID    `json:"user_id"`
	CardholderName       string       `json:"cardholder_name"`
	CartTotal            models.Money `json:"cart_total"`
	ServiceFee           models.Money `json:"service_fee"`
	TotalCharged         models.Money `json:"total_charged"`
	GatewayTransactionID string       `json:"gateway_transaction_id"`
	CompletedAt          time.Time    `json:"completed_at"`
}

type CheckoutFailedData struct {
	CheckoutID models.ID `json:"checkout_id"`
	UserID     models.ID `json:"user_id"`
	Reason     string    `json:"reason"`
	ErrorCode  string    `json:"error_code"`
	FailedAt   time.Time `json:"failed_at"`
}

type CheckoutReopenedData struct {
	CheckoutID models.ID `json:"checkout_id"`
	UserID     models.ID `json:"user_id"`
}

type CheckoutCardAttachedData struct {
	CheckoutID models.ID `json:"checkout_id"`
	UserID     models.ID `json:"user_id"`
	CardID     models.ID `json:"card_id"`
}

// CheckoutRepository interface
type CheckoutRepository interface {
	Save(ctx context.Context, checkout *Checkout) error
	FindByID(ctx context.Context, id models.ID) (*Checkout, error)
	FindByUserID(ctx context.Context, userID models.ID) ([]*Checkout, error)
}
