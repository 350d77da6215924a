package domain

import (
	"context"

	"github.com/bpay/checkout-system/shared/models"
)

// ChargeSource is the wire shape of one funding source inside a ChargeRequest.
// JSON keys follow the external processor's contract, not the internal
// snake_case convention.
type ChargeSource struct {
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	OriginalAmount  int64   `json:"originalAmount"`
	FeeContribution int64   `json:"feeContribution"`
	TotalCharge     int64   `json:"totalCharge"`
	Amount          float64 `json:"amount"`
	AmountType      string  `json:"amountType"`
	Percentage      float64 `json:"percentage"`
}

// ChargeRequest packages the final allocation numbers for handoff to the
// external payment processor. Assembling it is pure data work; no I/O happens
// until an adapter sends it.
type ChargeRequest struct {
	Name           string         `json:"name"`
	Amount         int64          `json:"amount"`
	TotalCharged   int64          `json:"totalCharged"`
	ServiceFee     int64          `json:"serviceFee"`
	Currency       string         `json:"currency"`
	Reference      string         `json:"reference"`
	PaymentSources []ChargeSource `json:"paymentSources"`
}

// ChargeResult is the processor's synchronous answer to a charge request.
// Definitive success or failure usually arrives later through a webhook.
type ChargeResult struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	ErrorCode     string `json:"error_code,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// PaymentGateway is the port to the external payment processor
type PaymentGateway interface {
	Charge(ctx context.Context, request *ChargeRequest) (*ChargeResult, error)
}

// BuildChargeRequest assembles a ChargeRequest from an allocation. The Amount
// field of each wire source carries the user-entered value: cents for fixed
// sources, the 0-100 percentage for percent sources.
func BuildChargeRequest(
	name string,
	reference models.ID,
	cartTotal, serviceFee, totalWithFee models.Money,
	resolved []ResolvedSource,
) *ChargeRequest {
	wireSources := make([]ChargeSource, len(resolved))
	for i, source := range resolved {
		enteredAmount := float64(source.OriginalAmount.Amount)
		if source.Type == AmountTypePercent {
			enteredAmount = source.Percentage
		}

		wireSources[i] = ChargeSource{
			ID:              source.SourceID.String(),
			Type:            source.Kind.String(),
			OriginalAmount:  source.OriginalAmount.Amount,
			FeeContribution: source.FeeContribution.Amount,
			TotalCharge:     source.TotalCharge.Amount,
			Amount:          enteredAmount,
			AmountType:      source.Type.String(),
			Percentage:      source.Percentage,
		}
	}

	return &ChargeRequest{
		Name:           name,
		Amount:         cartTotal.Amount,
		TotalCharged:   totalWithFee.Amount,
		ServiceFee:     serviceFee.Amount,
		Currency:       cartTotal.Currency,
		Reference:      reference.String(),
		PaymentSources: wireSources,
	}
}
