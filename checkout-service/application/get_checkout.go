package application

import (
	"context"

	"github.com/bpay/checkout-system/checkout-service/domain"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
)

// GetCheckoutQuery represents the query to get a checkout
type GetCheckoutQuery struct {
	CheckoutID string `json:"checkout_id"`
}

// GetCheckoutResponse represents the response for getting a checkout
type GetCheckoutResponse struct {
	CheckoutID           string        `json:"checkout_id"`
	UserID               string        `json:"user_id"`
	CardholderName       string        `json:"cardholder_name"`
	CartTotal            int64         `json:"cart_total"`
	Currency             string        `json:"currency"`
	ServiceFeePercent    float64       `json:"service_fee_percent"`
	ServiceFee           int64         `json:"service_fee"`
	TotalWithFee         int64         `json:"total_with_fee"`
	AllocatedAmount      int64         `json:"allocated_amount"`
	RemainingAmount      int64         `json:"remaining_amount"`
	Status               string        `json:"status"`
	GatewayTransactionID string        `json:"gateway_transaction_id,omitempty"`
	VirtualCardID        string        `json:"virtual_card_id,omitempty"`
	Sources              []SourceInput `json:"sources"`
	CreatedAt            string        `json:"created_at"`
	UpdatedAt            string        `json:"updated_at"`
}

// GetCheckout use case
type GetCheckout struct {
	checkoutRepository domain.CheckoutRepository
}

// NewGetCheckout creates a new GetCheckout use case
func NewGetCheckout(checkoutRepository domain.CheckoutRepository) *GetCheckout {
	return &GetCheckout{
		checkoutRepository: checkoutRepository,
	}
}

// Execute executes the get checkout use case
func (uc *GetCheckout) Execute(ctx context.Context, query *GetCheckoutQuery) (*GetCheckoutResponse, error) {
	if query.CheckoutID == "" {
		return nil, errors.New("checkout ID is required")
	}

	checkoutID, err := models.NewID(query.CheckoutID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid checkout ID")
	}

	checkout, err := uc.checkoutRepository.FindByID(ctx, checkoutID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find checkout")
	}

	if checkout == nil {
		return nil, errors.New("checkout not found")
	}

	request := checkout.AllocationRequest()
	allocated := domain.ComputeAllocatedAmount(checkout.Sources, checkout.CartTotal)
	remaining := domain.ComputeRemainingAmount(checkout.Sources, checkout.CartTotal)

	sources := make([]SourceInput, len(checkout.Sources))
	for i, source := range checkout.Sources {
		sources[i] = SourceInput{
			ID:         source.ID.String(),
			Kind:       source.Kind.String(),
			Selected:   source.Selected,
			AmountType: source.Type.String(),
			Amount:     source.Amount.Amount,
			Percent:    source.Percent,
		}
	}

	response := &GetCheckoutResponse{
		CheckoutID:           checkout.ID.String(),
		UserID:               checkout.UserID.String(),
		CardholderName:       checkout.CardholderName,
		CartTotal:            checkout.CartTotal.Amount,
		Currency:             checkout.CartTotal.Currency,
		ServiceFeePercent:    checkout.ServiceFeePercent,
		ServiceFee:           request.ServiceFee().Amount,
		TotalWithFee:         request.TotalWithFee().Amount,
		AllocatedAmount:      allocated.Amount,
		RemainingAmount:      remaining.Amount,
		Status:               string(checkout.Status),
		GatewayTransactionID: checkout.GatewayTransactionID,
		Sources:              sources,
		CreatedAt:            checkout.Timestamps.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:            checkout.Timestamps.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	if checkout.VirtualCardID != nil {
		response.VirtualCardID = checkout.VirtualCardID.String()
	}

	return response, nil
}
