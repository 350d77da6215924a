package domain

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
)

// CardStatus represents the status of a virtual card
type CardStatus string

const (
	CardStatusActive    CardStatus = "active"
	CardStatusFrozen    CardStatus = "frozen"
	CardStatusCancelled CardStatus = "cancelled"
)

// cardBIN is the issuer prefix for generated card numbers
const cardBIN = "4"

// cardValidityYears is how long an issued card stays valid
const cardValidityYears = 3

// VirtualCard aggregate root. The card is funded with the checkout's cart
// total once the charge settles; the service fee is platform revenue and
// never reaches the card balance.
type VirtualCard struct {
	ID             models.ID    `json:"id"`
	UserID         models.ID    `json:"user_id"`
	CheckoutID     models.ID    `json:"checkout_id"`
	CardholderName string       `json:"cardholder_name"`
	CardNumber     string       `json:"-"`
	ExpiryDate     string       `json:"expiry_date"`
	CVV            string       `json:"-"`
	Balance        models.Money `json:"balance"`
	Status         CardStatus   `json:"status"`
	Timestamps     models.Timestamps
	Version        models.Version

	events []*events.Event
}

// IssueCard factory method. Generates the card number and CVV and loads the
// balance with the given amount.
func IssueCard(userID, checkoutID models.ID, cardholderName string, balance models.Money) (*VirtualCard, error) {
	if cardholderName == "" {
		return nil, errors.New("cardholder name is required")
	}

	if !balance.IsPositive() {
		return nil, errors.New("card balance must be positive")
	}

	cardNumber, err := generateCardNumber()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate card number")
	}

	cvv, err := generateCVV()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate cvv")
	}

	card := &VirtualCard{
		ID:             models.GenerateUUID(),
		UserID:         userID,
		CheckoutID:     checkoutID,
		CardholderName: cardholderName,
		CardNumber:     cardNumber,
		ExpiryDate:     expiryDate(time.Now()),
		CVV:            cvv,
		Balance:        balance,
		Status:         CardStatusActive,
		Timestamps:     models.NewTimestamps(),
		Version:        models.NewVersion(),
	}

	// The event carries the masked number only; the PAN never leaves the
	// aggregate through the event stream
	event := events.NewEvent(card.ID, events.CardIssuedEvent, CardIssuedData{
		CardID:       card.ID,
		CheckoutID:   card.CheckoutID,
		UserID:       card.UserID,
		Balance:      card.Balance,
		MaskedNumber: card.MaskedNumber(),
	})

	card.recordEvent(event)
	return card, nil
}

// Capture debits a merchant spend from the card balance
func (c *VirtualCard) Capture(amount models.Money, reference string) error {
	if c.Status != CardStatusActive {
		return errors.New("card is not active")
	}

	if amount.Currency != c.Balance.Currency {
		return errors.New("currency mismatch")
	}

	if !amount.IsPositive() {
		return errors.New("capture amount must be positive")
	}

	if c.Balance.Amount < amount.Amount {
		event := events.NewEvent(c.ID, events.CardInsufficientBalanceEvent, CardInsufficientBalanceData{
			CardID:           c.ID,
			UserID:           c.UserID,
			RequestedAmount:  amount,
			AvailableBalance: c.Balance,
			Shortfall:        models.NewMoney(amount.Amount-c.Balance.Amount, amount.Currency),
			Reference:        reference,
		})
		c.recordEvent(event)
		return errors.New("insufficient card balance")
	}

	balanceBefore := c.Balance
	newBalance, err := c.Balance.Subtract(amount)
	if err != nil {
		return errors.Wrap(err, "failed to debit card balance")
	}
	c.Balance = newBalance

	c.Timestamps = c.Timestamps.Update()
	c.Version = c.Version.Update()

	event := events.NewEvent(c.ID, events.CardCapturedEvent, CardCapturedData{
		CardID:        c.ID,
		UserID:        c.UserID,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  c.Balance,
		Reference:     reference,
	})

	c.recordEvent(event)
	return nil
}

// Freeze freezes the card
func (c *VirtualCard) Freeze() error {
	if c.Status == CardStatusCancelled {
		return errors.New("cannot freeze a cancelled card")
	}

	if c.Status == CardStatusFrozen {
		return errors.New("card is already frozen")
	}

	c.Status = CardStatusFrozen
	c.Timestamps = c.Timestamps.Update()
	c.Version = c.Version.Update()

	event := events.NewEvent(c.ID, events.CardFrozenEvent, CardStatusChangedData{
		CardID: c.ID,
		UserID: c.UserID,
	})

	c.recordEvent(event)
	return nil
}

// Unfreeze unfreezes the card
func (c *VirtualCard) Unfreeze() error {
	if c.Status != CardStatusFrozen {
		return errors.New("card is not frozen")
	}

	c.Status = CardStatusActive
	c.Timestamps = c.Timestamps.Update()
	c.Version = c.Version.Update()

	event := events.NewEvent(c.ID, events.CardUnfrozenEvent, CardStatusChangedData{
		CardID: c.ID,
		UserID: c.UserID,
	})

	c.recordEvent(event)
	return nil
}

// Cancel cancels the card. A cancelled card cannot be reactivated.
func (c *VirtualCard) Cancel() error {
	if c.Status == CardStatusCancelled {
		return errors.New("card is already cancelled")
	}

	c.Status = CardStatusCancelled
	c.Timestamps = c.Timestamps.Update()
	c.Version = c.Version.Update()

	event := events.NewEvent(c.ID, events.CardCancelledEvent, CardStatusChangedData{
		CardID: c.ID,
		UserID: c.UserID,
	})

	c.recordEvent(event)
	return nil
}

// MaskedNumber returns the card number with all but the last four digits
// masked
func (c *VirtualCard) MaskedNumber() string {
	if len(c.CardNumber) < 4 {
		return ""
	}
	return "**** **** **** " + c.CardNumber[len(c.CardNumber)-4:]
}

// Events returns domain events
func (c *VirtualCard) Events() []*events.Event {
	return c.events
}

// ClearEvents clears domain events
func (c *VirtualCard) ClearEvents() {
	c.events = make([]*events.Event, 0)
}

// recordEvent records a domain event
func (c *VirtualCard) recordEvent(event *events.Event) {
	c.events = append(c.events, event)
}

// generateCardNumber generates a Luhn-valid 16-digit card number
func generateCardNumber() (string, error) {
	digits := make([]int, 16)
	for i, ch := range cardBIN {
		digits[i] = int(ch - '0')
	}

	for i := len(cardBIN); i < 15; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = int(n.Int64())
	}

	digits[15] = luhnCheckDigit(digits[:15])

	number := make([]byte, 16)
	for i, d := range digits {
		number[i] = byte('0' + d)
	}
	return string(number), nil
}

// luhnCheckDigit computes the check digit for the given payload digits
func luhnCheckDigit(payload []int) int {
	sum := 0
	// Doubling starts from the rightmost payload digit
	double := true
	for i := len(payload) - 1; i >= 0; i-- {
		d := payload[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return (10 - sum%10) % 10
}

// ValidateCardNumber reports whether the number passes the Luhn check
func ValidateCardNumber(number string) bool {
	if len(number) != 16 {
		return false
	}

	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		ch := number[i]
		if ch < '0' || ch > '9' {
			return false
		}
		d := int(ch - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// generateCVV generates a 3-digit card verification value
func generateCVV() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%03d", n.Int64()), nil
}

// expiryDate formats the MM/YY expiry relative to the issue time
func expiryDate(now time.Time) string {
	expiry := now.AddDate(cardValidityYears, 0, 0)
	return expiry.Format("01/06")
}

// Event Data Structures
type CardIssuedData struct {
	CardID       models.ID    `json:"card_id"`
	CheckoutID   models.ID    `json:"checkout_id"`
	UserID       models.ID    `json:"user_id"`
	Balance      models.Money `json:"balance"`
	MaskedNumber string       `json:"masked_number"`
}

type CardIssueFailedData struct {
	CheckoutID models.ID `json:"checkout_id"`
	UserID     models.ID `json:"user_id"`
	Reason     string    `json:"reason"`
}

type CardCapturedData struct {
	CardID        models.ID    `json:"card_id"`
	UserID        models.ID    `json:"user_id"`
	Amount        models.Money `json:"amount"`
	BalanceBefore models.Money `json:"balance_before"`
	BalanceAfter  models.Money `json:"balance_after"`
	Reference     string       `json:"reference"`
}

type CardInsufficientBalanceData struct {
	CardID           models.ID    `json:"card_id"`
	UserID           models.ID    `json:"user_id"`
	RequestedAmount  models.Money `json:"requested_amount"`
	AvailableBalance models.Money `json:"available_balance"`
	Shortfall        models.Money `json:"shortfall"`
	Reference        string       `json:"reference"`
}

type CardStatusChangedData struct {
	CardID models.ID `json:"card_id"`
	UserID models.ID `json:"user_id"`
}

// CardRepository interface
type CardRepository interface {
	Save(ctx context.Context, card *VirtualCard) error
	FindByID(ctx context.Context, id models.ID) (*VirtualCard, error)
	FindByCheckoutID(ctx context.Context, checkoutID models.ID) (*VirtualCard, error)
	FindByUserID(ctx context.Context, userID models.ID) ([]*VirtualCard, error)
}
