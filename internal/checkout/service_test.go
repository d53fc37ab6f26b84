package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Ansagu88/foodtruck/internal/cart"
	"github.com/Ansagu88/foodtruck/internal/order"
	"github.com/Ansagu88/foodtruck/internal/pricing"
)

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

// stubRepo records tentative writes; stubRunner only promotes them to the
// committed state when the transactional function succeeds, mimicking a
// rollback on failure.
type stubRepo struct {
	lines []cart.Line
	rules []pricing.TaxRule

	failCreateOrder bool
	failClearCart   bool

	pendingOrder *order.Order
	pendingItems []order.Item
	pendingClear bool
}

var errInjected = errors.New("injected storage failure")

func (r *stubRepo) ListCartLines(_ context.Context, _ uuid.UUID) ([]cart.Line, error) {
	return r.lines, nil
}

func (r *stubRepo) ActiveTaxRules(_ context.Context) ([]pricing.TaxRule, error) {
	return r.rules, nil
}

func (r *stubRepo) CreateOrder(_ context.Context, ord order.Order) (order.Order, error) {
	if r.failCreateOrder {
		return order.Order{}, errInjected
	}
	r.pendingOrder = &ord
	return ord, nil
}

func (r *stubRepo) CreateOrderItems(_ context.Context, items []order.Item) error {
	r.pendingItems = items
	return nil
}

func (r *stubRepo) ClearCart(_ context.Context, _ uuid.UUID) error {
	if r.failClearCart {
		return errInjected
	}
	r.pendingClear = true
	return nil
}

type stubRunner struct {
	repo *stubRepo

	committedOrder *order.Order
	committedItems []order.Item
	cartCleared    bool
}

func (s *stubRunner) InTx(ctx context.Context, fn func(ctx context.Context, r Repository) error) error {
	s.repo.pendingOrder = nil
	s.repo.pendingItems = nil
	s.repo.pendingClear = false
	if err := fn(ctx, s.repo); err != nil {
		return err
	}
	s.committedOrder = s.repo.pendingOrder
	s.committedItems = s.repo.pendingItems
	s.cartCleared = s.repo.pendingClear
	return nil
}

func fixtureLines(userID, vendorA, vendorB uuid.UUID) []cart.Line {
	return []cart.Line{
		{ID: uuid.New(), UserID: userID, ItemID: uuid.New(), ItemTitle: "Tacos", VendorID: vendorA, UnitPrice: dec("8.50"), Quantity: 2},
		{ID: uuid.New(), UserID: userID, ItemID: uuid.New(), ItemTitle: "Burrito", VendorID: vendorA, UnitPrice: dec("11.00"), Quantity: 1},
		{ID: uuid.New(), UserID: userID, ItemID: uuid.New(), ItemTitle: "Ramen", VendorID: vendorB, UnitPrice: dec("14.25"), Quantity: 3},
	}
}

func fixtureRules() []pricing.TaxRule {
	return []pricing.TaxRule{
		{Type: "CGST", Percentage: dec("9.00"), Active: true},
		{Type: "SGST", Percentage: dec("7.00"), Active: true},
	}
}

func TestCheckoutSplitsByVendor(t *testing.T) {
	userID := uuid.New()
	vendorA := uuid.New()
	vendorB := uuid.New()
	lines := fixtureLines(userID, vendorA, vendorB)
	rules := fixtureRules()
	runner := &stubRunner{repo: &stubRepo{lines: lines, rules: rules}}
	svc := &Service{Runner: runner}

	placed, err := svc.Create(context.Background(), userID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !placed.IsOrdered {
		t.Fatal("expected is_ordered to be set")
	}
	if placed.Status != order.StatusNew {
		t.Fatalf("expected status New, got %s", placed.Status)
	}
	if len(placed.VendorIDs) != 2 {
		t.Fatalf("expected 2 vendors, got %d", len(placed.VendorIDs))
	}
	if !runner.cartCleared {
		t.Fatal("expected cart to be cleared")
	}
	if len(runner.committedItems) != len(lines) {
		t.Fatalf("expected %d order items, got %d", len(lines), len(runner.committedItems))
	}

	totalsA, err := order.TotalsForVendor(placed, vendorA)
	if err != nil {
		t.Fatalf("totals for vendor A: %v", err)
	}
	totalsB, err := order.TotalsForVendor(placed, vendorB)
	if err != nil {
		t.Fatalf("totals for vendor B: %v", err)
	}

	wantA, err := pricing.Compute([]pricing.Line{lines[0].PricingLine(), lines[1].PricingLine()}, rules)
	if err != nil {
		t.Fatalf("compute vendor A: %v", err)
	}
	wantB, err := pricing.Compute([]pricing.Line{lines[2].PricingLine()}, rules)
	if err != nil {
		t.Fatalf("compute vendor B: %v", err)
	}
	if !totalsA.Equal(wantA) {
		t.Fatalf("vendor A slice %+v != computed %+v", totalsA, wantA)
	}
	if !totalsB.Equal(wantB) {
		t.Fatalf("vendor B slice %+v != computed %+v", totalsB, wantB)
	}

	if !placed.Total.Equal(totalsA.GrandTotal.Add(totalsB.GrandTotal)) {
		t.Fatalf("order total %s != sum of vendor grand totals", placed.Total)
	}
	if !placed.TotalTax.Equal(totalsA.Tax.Add(totalsB.Tax)) {
		t.Fatalf("order tax %s != sum of vendor taxes", placed.TotalTax)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	runner := &stubRunner{repo: &stubRepo{}}
	svc := &Service{Runner: runner}
	_, err := svc.Create(context.Background(), uuid.New())
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckoutRollsBackOnFailure(t *testing.T) {
	userID := uuid.New()
	lines := fixtureLines(userID, uuid.New(), uuid.New())

	for name, repo := range map[string]*stubRepo{
		"create order fails": {lines: lines, rules: fixtureRules(), failCreateOrder: true},
		"clear cart fails":   {lines: lines, rules: fixtureRules(), failClearCart: true},
	} {
		runner := &stubRunner{repo: repo}
		svc := &Service{Runner: runner}
		_, err := svc.Create(context.Background(), userID)
		if !errors.Is(err, errInjected) {
			t.Fatalf("%s: expected injected error, got %v", name, err)
		}
		if runner.committedOrder != nil {
			t.Fatalf("%s: expected no committed order", name)
		}
		if runner.cartCleared {
			t.Fatalf("%s: expected cart to be untouched", name)
		}
	}
}

func TestCheckoutVendorNotInOrder(t *testing.T) {
	userID := uuid.New()
	runner := &stubRunner{repo: &stubRepo{lines: fixtureLines(userID, uuid.New(), uuid.New()), rules: fixtureRules()}}
	svc := &Service{Runner: runner}
	placed, err := svc.Create(context.Background(), userID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	_, err = order.TotalsForVendor(placed, uuid.New())
	if !errors.Is(err, order.ErrVendorNotInOrder) {
		t.Fatalf("expected ErrVendorNotInOrder, got %v", err)
	}
}

func TestCheckoutDuplicateTaxRule(t *testing.T) {
	userID := uuid.New()
	rules := []pricing.TaxRule{
		{Type: "CGST", Percentage: dec("9.00"), Active: true},
		{Type: "CGST", Percentage: dec("5.00"), Active: true},
	}
	runner := &stubRunner{repo: &stubRepo{lines: fixtureLines(userID, uuid.New(), uuid.New()), rules: rules}}
	svc := &Service{Runner: runner}
	_, err := svc.Create(context.Background(), userID)
	if !errors.Is(err, pricing.ErrDuplicateTaxRuleType) {
		t.Fatalf("expected ErrDuplicateTaxRuleType, got %v", err)
	}
	if runner.committedOrder != nil {
		t.Fatal("expected no committed order")
	}
}
