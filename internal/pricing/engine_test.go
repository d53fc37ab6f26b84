package pricing

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeTwoRules(t *testing.T) {
	lines := []Line{
		{ItemID: uuid.New(), VendorID: uuid.New(), UnitPrice: dec("25.00"), Quantity: 4},
	}
	rules := []TaxRule{
		{Type: "CGST", Percentage: dec("9.00"), Active: true},
		{Type: "SGST", Percentage: dec("7.00"), Active: true},
	}

	totals, err := Compute(lines, rules)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !totals.Subtotal.Equal(dec("100.00")) {
		t.Fatalf("expected subtotal 100.00, got %s", totals.Subtotal)
	}
	if !totals.Breakdown["CGST"].Amount.Equal(dec("9.00")) {
		t.Fatalf("expected CGST amount 9.00, got %s", totals.Breakdown["CGST"].Amount)
	}
	if !totals.Breakdown["SGST"].Amount.Equal(dec("7.00")) {
		t.Fatalf("expected SGST amount 7.00, got %s", totals.Breakdown["SGST"].Amount)
	}
	if !totals.Tax.Equal(dec("16.00")) {
		t.Fatalf("expected tax 16.00, got %s", totals.Tax)
	}
	if !totals.GrandTotal.Equal(dec("116.00")) {
		t.Fatalf("expected grand total 116.00, got %s", totals.GrandTotal)
	}
}

func TestComputeGrandTotalInvariant(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec("3.33"), Quantity: 7},
		{UnitPrice: dec("12.49"), Quantity: 2},
		{UnitPrice: dec("0.01"), Quantity: 1},
	}
	rules := []TaxRule{
		{Type: "VAT", Percentage: dec("17.50"), Active: true},
		{Type: "CITY", Percentage: dec("1.25"), Active: true},
	}

	totals, err := Compute(lines, rules)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !totals.GrandTotal.Equal(totals.Subtotal.Add(totals.Tax)) {
		t.Fatalf("grand total %s != subtotal %s + tax %s", totals.GrandTotal, totals.Subtotal, totals.Tax)
	}
	sum := decimal.Zero
	for _, entry := range totals.Breakdown {
		sum = sum.Add(entry.Amount)
	}
	if !totals.Tax.Equal(sum) {
		t.Fatalf("tax %s != sum of breakdown amounts %s", totals.Tax, sum)
	}
}

func TestComputeRoundingHalfAwayFromZero(t *testing.T) {
	// 5% of 10.10 = 0.505, which must round up to 0.51.
	lines := []Line{{UnitPrice: dec("10.10"), Quantity: 1}}
	rules := []TaxRule{{Type: "GST", Percentage: dec("5.00"), Active: true}}

	totals, err := Compute(lines, rules)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !totals.Breakdown["GST"].Amount.Equal(dec("0.51")) {
		t.Fatalf("expected 0.51, got %s", totals.Breakdown["GST"].Amount)
	}
}

func TestComputeEmptyLines(t *testing.T) {
	rules := []TaxRule{
		{Type: "CGST", Percentage: dec("9.00"), Active: true},
		{Type: "CGST", Percentage: dec("9.00"), Active: true},
	}
	totals, err := Compute(nil, rules)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !totals.Equal(Zero()) {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
	if len(totals.Breakdown) != 0 {
		t.Fatalf("expected empty breakdown, got %v", totals.Breakdown)
	}
}

func TestComputeSkipsInactiveRules(t *testing.T) {
	lines := []Line{{UnitPrice: dec("50.00"), Quantity: 2}}
	rules := []TaxRule{
		{Type: "CGST", Percentage: dec("9.00"), Active: true},
		{Type: "OLD", Percentage: dec("12.00"), Active: false},
	}
	totals, err := Compute(lines, rules)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(totals.Breakdown) != 1 {
		t.Fatalf("expected 1 breakdown entry, got %d", len(totals.Breakdown))
	}
	if !totals.Tax.Equal(dec("9.00")) {
		t.Fatalf("expected tax 9.00, got %s", totals.Tax)
	}
}

func TestComputeDuplicateRuleType(t *testing.T) {
	lines := []Line{{UnitPrice: dec("10.00"), Quantity: 1}}
	rules := []TaxRule{
		{Type: "CGST", Percentage: dec("9.00"), Active: true},
		{Type: "CGST", Percentage: dec("5.00"), Active: true},
	}
	_, err := Compute(lines, rules)
	if !errors.Is(err, ErrDuplicateTaxRuleType) {
		t.Fatalf("expected ErrDuplicateTaxRuleType, got %v", err)
	}
}

func TestComputeIgnoresNonPositiveQuantity(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec("10.00"), Quantity: 0},
		{UnitPrice: dec("10.00"), Quantity: 3},
	}
	totals, err := Compute(lines, nil)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !totals.Subtotal.Equal(dec("30.00")) {
		t.Fatalf("expected subtotal 30.00, got %s", totals.Subtotal)
	}
}
