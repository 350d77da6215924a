package application

import (
	"github.com/bpay/checkout-system/checkout-service/domain"
	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
)

// SourceInput is the wire shape of one payment source as submitted by the
// shopper
type SourceInput struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	Selected   bool    `json:"selected"`
	AmountType string  `json:"amount_type"`
	Amount     int64   `json:"amount"`
	Percent    float64 `json:"percent"`
}

// SourceOutput is the wire shape of one resolved source in responses
type SourceOutput struct {
	ID              string  `json:"id"`
	Kind            string  `json:"kind"`
	AmountType      string  `json:"amount_type"`
	OriginalAmount  int64   `json:"original_amount"`
	FeeContribution int64   `json:"fee_contribution"`
	TotalCharge     int64   `json:"total_charge"`
	Percentage      float64 `json:"percentage"`
}

// toDomainSources converts wire source inputs into domain payment sources.
// Amounts are interpreted in the checkout currency.
func toDomainSources(inputs []SourceInput, currency string) ([]domain.PaymentSource, error) {
	sources := make([]domain.PaymentSource, len(inputs))
	for i, input := range inputs {
		if input.ID == "" {
			return nil, errors.Errorf("source %d: ID is required", i)
		}

		sourceID, err := models.NewID(input.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "source %d: invalid ID", i)
		}

		kind, err := domain.NewSourceKind(input.Kind)
		if err != nil {
			return nil, errors.Wrapf(err, "source %d", i)
		}

		amountType, err := domain.NewAmountType(input.AmountType)
		if err != nil {
			return nil, errors.Wrapf(err, "source %d", i)
		}

		if amountType == domain.AmountTypePercent && (input.Percent < 0 || input.Percent > 100) {
			return nil, errors.Errorf("source %d: percent must be between 0 and 100", i)
		}

		if amountType == domain.AmountTypeFixed && input.Amount < 0 {
			return nil, errors.Errorf("source %d: amount must not be negative", i)
		}

		sources[i] = domain.PaymentSource{
			ID:       sourceID,
			Kind:     kind,
			Selected: input.Selected,
			Type:     amountType,
			Amount:   models.NewMoney(input.Amount, currency),
			Percent:  input.Percent,
		}
	}

	return sources, nil
}

// toSourceOutputs converts resolved sources into their wire shape
func toSourceOutputs(resolved []domain.ResolvedSource) []SourceOutput {
	outputs := make([]SourceOutput, len(resolved))
	for i, source := range resolved {
		outputs[i] = SourceOutput{
			ID:              source.SourceID.String(),
			Kind:            source.Kind.String(),
			AmountType:      source.Type.String(),
			OriginalAmount:  source.OriginalAmount.Amount,
			FeeContribution: source.FeeContribution.Amount,
			TotalCharge:     source.TotalCharge.Amount,
			Percentage:      source.Percentage,
		}
	}
	return outputs
}
