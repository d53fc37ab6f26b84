package pricing

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrDuplicateTaxRuleType is returned when two active tax rules share the same type.
var ErrDuplicateTaxRuleType = errors.New("pricing: duplicate active tax rule type")

// TaxRule is a named percentage applied to a subtotal.
type TaxRule struct {
	Type       string
	Percentage decimal.Decimal
	Active     bool
}

// Line is one (item, quantity) entry priced at computation time.
type Line struct {
	ItemID    uuid.UUID
	VendorID  uuid.UUID
	UnitPrice decimal.Decimal
	Quantity  int
}

// TaxAmount is a single breakdown entry: the rule percentage and the amount it yields.
type TaxAmount struct {
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
}

// Breakdown maps tax rule type to its computed amount.
type Breakdown map[string]TaxAmount

// CartTotals aggregates subtotal, tax, and grand total for a set of lines.
type CartTotals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
	Breakdown  Breakdown       `json:"breakdown"`
}

// Zero returns all-zero totals with an empty breakdown.
func Zero() CartTotals {
	return CartTotals{
		Subtotal:   decimal.Zero,
		Tax:        decimal.Zero,
		GrandTotal: decimal.Zero,
		Breakdown:  Breakdown{},
	}
}

// Equal reports whether two totals are numerically identical, breakdown included.
func (t CartTotals) Equal(other CartTotals) bool {
	if !t.Subtotal.Equal(other.Subtotal) || !t.Tax.Equal(other.Tax) || !t.GrandTotal.Equal(other.GrandTotal) {
		return false
	}
	if len(t.Breakdown) != len(other.Breakdown) {
		return false
	}
	for taxType, entry := range t.Breakdown {
		got, ok := other.Breakdown[taxType]
		if !ok {
			return false
		}
		if !entry.Percentage.Equal(got.Percentage) || !entry.Amount.Equal(got.Amount) {
			return false
		}
	}
	return true
}

// Compute calculates cart totals for the provided lines and active tax rules.
//
// The subtotal is the sum of unit price times quantity over all lines; callers
// resolve unit prices at call time so totals always reflect live pricing. Each
// active rule contributes amount = percentage * subtotal / 100 rounded to two
// decimal places, half away from zero. Lines with a non-positive quantity are
// skipped. Empty input yields zero totals with an empty breakdown.
//
// Two active rules sharing a type would silently drop one amount, so Compute
// rejects that input with ErrDuplicateTaxRuleType.
func Compute(lines []Line, rules []TaxRule) (CartTotals, error) {
	if len(lines) == 0 {
		return Zero(), nil
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	breakdown := Breakdown{}
	tax := decimal.Zero
	hundred := decimal.NewFromInt(100)
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		if _, exists := breakdown[rule.Type]; exists {
			return CartTotals{}, fmt.Errorf("%w: %q", ErrDuplicateTaxRuleType, rule.Type)
		}
		amount := rule.Percentage.Mul(subtotal).Div(hundred).Round(2)
		breakdown[rule.Type] = TaxAmount{Percentage: rule.Percentage, Amount: amount}
		tax = tax.Add(amount)
	}

	return CartTotals{
		Subtotal:   subtotal,
		Tax:        tax,
		GrandTotal: subtotal.Add(tax),
		Breakdown:  breakdown,
	}, nil
}
