package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Ansagu88/foodtruck/internal/pricing"
)

type memStore struct {
	lines map[uuid.UUID]Line
	items map[uuid.UUID]Item
}

func newMemStore() *memStore {
	return &memStore{
		lines: map[uuid.UUID]Line{},
		items: map[uuid.UUID]Item{},
	}
}

func (m *memStore) ListLines(_ context.Context, userID uuid.UUID) ([]Line, error) {
	var out []Line
	for _, line := range m.lines {
		if line.UserID == userID {
			out = append(out, line)
		}
	}
	return out, nil
}

func (m *memStore) FindLine(_ context.Context, userID, itemID uuid.UUID) (Line, error) {
	for _, line := range m.lines {
		if line.UserID == userID && line.ItemID == itemID {
			return line, nil
		}
	}
	return Line{}, pgx.ErrNoRows
}

func (m *memStore) GetLine(_ context.Context, userID, lineID uuid.UUID) (Line, error) {
	line, ok := m.lines[lineID]
	if !ok || line.UserID != userID {
		return Line{}, pgx.ErrNoRows
	}
	return line, nil
}

func (m *memStore) CreateLine(_ context.Context, userID, itemID uuid.UUID) (Line, error) {
	item, ok := m.items[itemID]
	if !ok {
		return Line{}, pgx.ErrNoRows
	}
	line := Line{
		ID:        uuid.New(),
		UserID:    userID,
		ItemID:    itemID,
		ItemTitle: item.Title,
		VendorID:  item.VendorID,
		UnitPrice: item.Price,
		Quantity:  1,
		CreatedAt: time.Now(),
	}
	m.lines[line.ID] = line
	return line, nil
}

func (m *memStore) UpdateQuantity(_ context.Context, lineID uuid.UUID, quantity int) (Line, error) {
	line, ok := m.lines[lineID]
	if !ok {
		return Line{}, pgx.ErrNoRows
	}
	line.Quantity = quantity
	m.lines[lineID] = line
	return line, nil
}

func (m *memStore) DeleteLine(_ context.Context, lineID uuid.UUID) error {
	delete(m.lines, lineID)
	return nil
}

func (m *memStore) GetItem(_ context.Context, itemID uuid.UUID) (Item, error) {
	item, ok := m.items[itemID]
	if !ok {
		return Item{}, pgx.ErrNoRows
	}
	return item, nil
}

type staticTaxes struct {
	rules []pricing.TaxRule
}

func (s staticTaxes) Active(context.Context) ([]pricing.TaxRule, error) {
	return s.rules, nil
}

func newService(store *memStore, rules ...pricing.TaxRule) *Service {
	return &Service{Store: store, Taxes: staticTaxes{rules: rules}}
}

func addItem(store *memStore, price string, available bool) Item {
	item := Item{
		ID:        uuid.New(),
		VendorID:  uuid.New(),
		Title:     "Pad Thai",
		Price:     decimal.RequireFromString(price),
		Available: available,
	}
	store.items[item.ID] = item
	return item
}

func TestAddItemCreatesThenIncrements(t *testing.T) {
	store := newMemStore()
	item := addItem(store, "12.50", true)
	svc := newService(store)
	userID := uuid.New()

	line, err := svc.AddItem(context.Background(), userID, item.ID)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if line.Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", line.Quantity)
	}

	line, err = svc.AddItem(context.Background(), userID, item.ID)
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if line.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", line.Quantity)
	}
	if len(store.lines) != 1 {
		t.Fatalf("expected a single line, got %d", len(store.lines))
	}
}

func TestAddItemUnavailable(t *testing.T) {
	store := newMemStore()
	item := addItem(store, "12.50", false)
	svc := newService(store)

	_, err := svc.AddItem(context.Background(), uuid.New(), item.ID)
	if !errors.Is(err, ErrItemUnavailable) {
		t.Fatalf("expected ErrItemUnavailable, got %v", err)
	}

	_, err = svc.AddItem(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrItemUnavailable) {
		t.Fatalf("expected ErrItemUnavailable for missing item, got %v", err)
	}
}

func TestDecreaseItemRemovesAtZero(t *testing.T) {
	store := newMemStore()
	item := addItem(store, "5.00", true)
	svc := newService(store)
	userID := uuid.New()

	if _, err := svc.AddItem(context.Background(), userID, item.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	line, err := svc.DecreaseItem(context.Background(), userID, item.ID)
	if err != nil {
		t.Fatalf("decrease: %v", err)
	}
	if line.Quantity != 0 {
		t.Fatalf("expected quantity 0 after removal, got %d", line.Quantity)
	}
	if len(store.lines) != 0 {
		t.Fatal("expected line deleted")
	}

	_, err = svc.DecreaseItem(context.Background(), userID, item.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveLineScopedToOwner(t *testing.T) {
	store := newMemStore()
	item := addItem(store, "5.00", true)
	svc := newService(store)
	owner := uuid.New()

	line, err := svc.AddItem(context.Background(), owner, item.ID)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	err = svc.RemoveLine(context.Background(), uuid.New(), line.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
	if err := svc.RemoveLine(context.Background(), owner, line.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
}

func TestSummaryComputesLiveTotals(t *testing.T) {
	store := newMemStore()
	item := addItem(store, "50.00", true)
	svc := newService(store,
		pricing.TaxRule{Type: "CGST", Percentage: decimal.RequireFromString("9.00"), Active: true},
		pricing.TaxRule{Type: "SGST", Percentage: decimal.RequireFromString("7.00"), Active: true},
	)
	userID := uuid.New()

	if _, err := svc.AddItem(context.Background(), userID, item.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AddItem(context.Background(), userID, item.ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	summary, err := svc.Summary(context.Background(), userID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Count != 2 {
		t.Fatalf("expected count 2, got %d", summary.Count)
	}
	if !summary.Totals.Subtotal.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("expected subtotal 100.00, got %s", summary.Totals.Subtotal)
	}
	if !summary.Totals.Tax.Equal(decimal.RequireFromString("16.00")) {
		t.Fatalf("expected tax 16.00, got %s", summary.Totals.Tax)
	}
	if !summary.Totals.GrandTotal.Equal(decimal.RequireFromString("116.00")) {
		t.Fatalf("expected grand total 116.00, got %s", summary.Totals.GrandTotal)
	}
}

func TestSummaryEmptyCart(t *testing.T) {
	svc := newService(newMemStore(),
		pricing.TaxRule{Type: "CGST", Percentage: decimal.RequireFromString("9.00"), Active: true},
	)
	summary, err := svc.Summary(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Count != 0 || len(summary.Lines) != 0 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
	if !summary.Totals.Equal(pricing.Zero()) {
		t.Fatalf("expected zero totals, got %+v", summary.Totals)
	}
}
