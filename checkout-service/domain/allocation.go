package domain

import (
	"math"

	"github.com/bpay/checkout-system/shared/models"
	"github.com/pkg/errors"
)

// Allocation validation errors. All of them are user-correctable: the caller
// renders the error and keeps the checkout in collecting state.
var (
	ErrInvalidTotal       = errors.New("cart total must be positive")
	ErrNoSourceSelected   = errors.New("no payment source selected")
	ErrAllocationMismatch = errors.New("selected sources do not cover the cart total")
)

// allocationToleranceCents absorbs currency rounding when checking whether the
// selected sources fully cover the cart total.
const allocationToleranceCents = 1

// SourceKind represents the kind of funding instrument behind a payment source
type SourceKind string

const (
	SourceKindCard        SourceKind = "card"
	SourceKindBankAccount SourceKind = "bank_account"
	SourceKindWallet      SourceKind = "wallet"
	SourceKindOther       SourceKind = "other"
)

// NewSourceKind parses a source kind from string
func NewSourceKind(kind string) (SourceKind, error) {
	switch SourceKind(kind) {
	case SourceKindCard, SourceKindBankAccount, SourceKindWallet, SourceKindOther:
		return SourceKind(kind), nil
	default:
		return "", errors.Errorf("invalid source kind: %s", kind)
	}
}

func (k SourceKind) String() string {
	return string(k)
}

// AmountType discriminates how a source's contribution is expressed
type AmountType string

const (
	AmountTypeFixed   AmountType = "fixed"
	AmountTypePercent AmountType = "percent"
)

// NewAmountType parses an amount type from string
func NewAmountType(amountType string) (AmountType, error) {
	switch AmountType(amountType) {
	case AmountTypeFixed, AmountTypePercent:
		return AmountType(amountType), nil
	default:
		return "", errors.Errorf("invalid amount type: %s", amountType)
	}
}

func (t AmountType) String() string {
	return string(t)
}

// PaymentSource is a funding instrument the shopper can allocate part of a
// purchase to. Amount carries the contribution when Type is fixed; Percent
// (0-100) carries it when Type is percent. The engine performs no bounds
// validation on either; the UI layer clamps before calling in.
type PaymentSource struct {
	ID       models.ID    `json:"id"`
	Kind     SourceKind   `json:"kind"`
	Selected bool         `json:"is_selected"`
	Type     AmountType   `json:"amount_type"`
	Amount   models.Money `json:"amount"`
	Percent  float64      `json:"percent"`
}

// Deselect returns the source deselected with its contribution reset to zero.
// A deselected source must never carry a stale amount into later computations.
func (s PaymentSource) Deselect() PaymentSource {
	s.Selected = false
	s.Amount = models.NewMoney(0, s.Amount.Currency)
	s.Percent = 0
	return s
}

// AllocationRequest captures one interactive allocation attempt. It is built
// transiently per computation and never persisted on its own.
type AllocationRequest struct {
	CartTotal         models.Money    `json:"cart_total"`
	ServiceFeePercent float64         `json:"service_fee_percent"`
	Sources           []PaymentSource `json:"sources"`
}

// ServiceFee returns the platform surcharge, rounded half-up to cents
func (r AllocationRequest) ServiceFee() models.Money {
	return r.CartTotal.Percent(r.ServiceFeePercent)
}

// TotalWithFee returns the cart total plus the service fee
func (r AllocationRequest) TotalWithFee() models.Money {
	total, _ := r.CartTotal.Add(r.ServiceFee())
	return total
}

// ResolvedSource is a payment source with its share of the service fee
// distributed onto it. TotalCharge = OriginalAmount + FeeContribution.
type ResolvedSource struct {
	SourceID        models.ID    `json:"source_id"`
	Kind            SourceKind   `json:"kind"`
	Type            AmountType   `json:"amount_type"`
	OriginalAmount  models.Money `json:"original_amount"`
	FeeContribution models.Money `json:"fee_contribution"`
	TotalCharge     models.Money `json:"total_charge"`
	Percentage      float64      `json:"percentage"`
}

// ResolveSourceAmount resolves a source's contribution to a currency amount
// against the given basis. Fixed amounts pass through unchanged; percent
// amounts resolve as (percent/100)*basis. Percent sources always resolve
// against the pre-fee cart total: the service fee is layered on top by
// DistributeFee, never baked into the allocation itself.
func ResolveSourceAmount(source PaymentSource, basis models.Money) models.Money {
	if source.Type == AmountTypePercent {
		return basis.Percent(source.Percent)
	}
	return models.NewMoney(source.Amount.Amount, basis.Currency)
}

// ComputeAllocatedAmount sums the resolved amounts of all qualifying sources:
// selected, with a positive resolution against the basis. Everything else
// contributes zero.
func ComputeAllocatedAmount(sources []PaymentSource, basis models.Money) models.Money {
	allocated := models.NewMoney(0, basis.Currency)
	for _, source := range sources {
		if !source.Selected {
			continue
		}
		amount := ResolveSourceAmount(source, basis)
		if !amount.IsPositive() {
			continue
		}
		allocated, _ = allocated.Add(amount)
	}
	return allocated
}

// ComputeRemainingAmount returns basis minus the allocated amount. The result
// is deliberately not clamped: negative means over-allocated, positive means
// under-allocated, and validation treats the zero-crossing as success.
func ComputeRemainingAmount(sources []PaymentSource, basis models.Money) models.Money {
	remaining, _ := basis.Subtract(ComputeAllocatedAmount(sources, basis))
	return remaining
}

// ValidateAllocation checks that the selected sources fully cover the cart
// total. Checks run in a fixed order and short-circuit on the first failure
// so user-facing error messages stay stable.
func ValidateAllocation(cartTotal models.Money, sources []PaymentSource) error {
	if !cartTotal.IsPositive() {
		return ErrInvalidTotal
	}

	anySelected := false
	for _, source := range sources {
		if source.Selected {
			anySelected = true
			break
		}
	}
	if !anySelected {
		return ErrNoSourceSelected
	}

	remaining := ComputeRemainingAmount(sources, cartTotal)
	if remaining.Abs().Amount > allocationToleranceCents {
		return ErrAllocationMismatch
	}

	return nil
}

// DistributeFee redistributes a flat service fee across the participating
// sources in proportion to each source's pre-fee contribution, using
// largest-remainder rounding: every exact share is floored to whole cents and
// the leftover cents go to the largest fractional remainders, so the
// contributions always sum to the exact fee. Output preserves input order.
func DistributeFee(sources []PaymentSource, cartTotal, serviceFee models.Money) []ResolvedSource {
	totalAllocated := ComputeAllocatedAmount(sources, cartTotal)

	resolved := make([]ResolvedSource, 0, len(sources))
	exactShares := make([]float64, 0, len(sources))
	for _, source := range sources {
		if !source.Selected {
			continue
		}

		amount := ResolveSourceAmount(source, cartTotal)
		if !amount.IsPositive() {
			continue
		}

		// Zero total allocation yields zero shares instead of dividing by
		// zero; the filter above makes this unreachable in practice.
		exact := 0.0
		if totalAllocated.IsPositive() {
			exact = float64(serviceFee.Amount) * float64(amount.Amount) / float64(totalAllocated.Amount)
		}
		exactShares = append(exactShares, exact)

		resolved = append(resolved, ResolvedSource{
			SourceID:       source.ID,
			Kind:           source.Kind,
			Type:           source.Type,
			OriginalAmount: amount,
			Percentage:     sourcePercentage(source, amount, cartTotal),
		})
	}

	for i, cents := range largestRemainderCents(exactShares, serviceFee.Amount) {
		resolved[i].FeeContribution = models.NewMoney(cents, serviceFee.Currency)
		resolved[i].TotalCharge, _ = resolved[i].OriginalAmount.Add(resolved[i].FeeContribution)
	}

	return resolved
}

// largestRemainderCents turns exact fractional cent shares into whole cents
// summing to total. Shares are floored first; leftover cents are handed out
// one per share to the largest fractional remainders, earlier shares winning
// ties. Each floor loses under one cent, so the leftover never exceeds the
// number of shares.
func largestRemainderCents(exact []float64, total int64) []int64 {
	cents := make([]int64, len(exact))
	remainders := make([]float64, len(exact))

	var assigned int64
	for i, share := range exact {
		floor := math.Floor(share)
		cents[i] = int64(floor)
		remainders[i] = share - floor
		assigned += cents[i]
	}

	for leftover := total - assigned; leftover > 0; leftover-- {
		best := -1
		for i, remainder := range remainders {
			if best == -1 || remainder > remainders[best] {
				best = i
			}
		}
		if best == -1 {
			break
		}
		cents[best]++
		remainders[best] = -1
	}

	return cents
}

// sourcePercentage reports the source's share of the cart total. Percent-typed
// sources keep their own percentage; fixed sources get it recomputed.
func sourcePercentage(source PaymentSource, amount, cartTotal models.Money) float64 {
	if source.Type == AmountTypePercent && cartTotal.IsPositive() {
		return source.Percent
	}
	if !cartTotal.IsPositive() {
		return 0
	}
	return float64(amount.Amount) / float64(cartTotal.Amount) * 100
}
