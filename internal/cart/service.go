package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Ansagu88/foodtruck/internal/pricing"
)

// ErrNotFound indicates the requested cart line could not be located.
var ErrNotFound = errors.New("cart: line not found")

// ErrItemUnavailable is returned when the referenced menu item cannot be ordered.
var ErrItemUnavailable = errors.New("cart: item unavailable")

// Line is one (item, quantity) entry owned by a user, pre-checkout. The unit
// price is resolved from the item at read time, never stored on the line.
type Line struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"-"`
	ItemID    uuid.UUID       `json:"itemId"`
	ItemTitle string          `json:"itemTitle"`
	VendorID  uuid.UUID       `json:"vendorId"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	CreatedAt time.Time       `json:"createdAt"`
}

// PricingLine converts the cart line into the aggregator's input shape.
func (l Line) PricingLine() pricing.Line {
	return pricing.Line{
		ItemID:    l.ItemID,
		VendorID:  l.VendorID,
		UnitPrice: l.UnitPrice,
		Quantity:  l.Quantity,
	}
}

// Item is the catalog view the cart needs: current price and availability.
type Item struct {
	ID        uuid.UUID
	VendorID  uuid.UUID
	Title     string
	Price     decimal.Decimal
	Available bool
}

// Store defines the persistence operations the cart service relies on.
type Store interface {
	ListLines(ctx context.Context, userID uuid.UUID) ([]Line, error)
	FindLine(ctx context.Context, userID, itemID uuid.UUID) (Line, error)
	GetLine(ctx context.Context, userID, lineID uuid.UUID) (Line, error)
	CreateLine(ctx context.Context, userID, itemID uuid.UUID) (Line, error)
	UpdateQuantity(ctx context.Context, lineID uuid.UUID, quantity int) (Line, error)
	DeleteLine(ctx context.Context, lineID uuid.UUID) error
	GetItem(ctx context.Context, itemID uuid.UUID) (Item, error)
}

// TaxRules provides the active tax rules used for live cart amounts.
type TaxRules interface {
	Active(ctx context.Context) ([]pricing.TaxRule, error)
}

// Service encapsulates cart domain operations.
type Service struct {
	Store Store
	Taxes TaxRules
}

// Summary is the cart page payload: lines, item counter, and live totals.
type Summary struct {
	Lines  []Line             `json:"lines"`
	Count  int                `json:"count"`
	Totals pricing.CartTotals `json:"totals"`
}

// AddItem inserts a new line with quantity 1 or increments an existing one.
func (s *Service) AddItem(ctx context.Context, userID, itemID uuid.UUID) (Line, error) {
	if s == nil || s.Store == nil {
		return Line{}, errors.New("cart service not configured")
	}
	line, err := s.Store.FindLine(ctx, userID, itemID)
	if err == nil {
		return s.Store.UpdateQuantity(ctx, line.ID, line.Quantity+1)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Line{}, err
	}

	item, err := s.Store.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Line{}, ErrItemUnavailable
		}
		return Line{}, err
	}
	if !item.Available {
		return Line{}, ErrItemUnavailable
	}
	return s.Store.CreateLine(ctx, userID, itemID)
}

// DecreaseItem decrements a line's quantity, deleting it when it reaches zero.
// The returned line carries quantity 0 after deletion.
func (s *Service) DecreaseItem(ctx context.Context, userID, itemID uuid.UUID) (Line, error) {
	if s == nil || s.Store == nil {
		return Line{}, errors.New("cart service not configured")
	}
	line, err := s.Store.FindLine(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Line{}, ErrNotFound
		}
		return Line{}, err
	}
	if line.Quantity > 1 {
		return s.Store.UpdateQuantity(ctx, line.ID, line.Quantity-1)
	}
	if err := s.Store.DeleteLine(ctx, line.ID); err != nil {
		return Line{}, err
	}
	line.Quantity = 0
	return line, nil
}

// RemoveLine deletes a cart line owned by the user.
func (s *Service) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	line, err := s.Store.GetLine(ctx, userID, lineID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return s.Store.DeleteLine(ctx, line.ID)
}

// Summary loads the user's lines and computes live amounts against the
// currently active tax rules.
func (s *Service) Summary(ctx context.Context, userID uuid.UUID) (Summary, error) {
	if s == nil || s.Store == nil || s.Taxes == nil {
		return Summary{}, errors.New("cart service not configured")
	}
	lines, err := s.Store.ListLines(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	rules, err := s.Taxes.Active(ctx)
	if err != nil {
		return Summary{}, err
	}
	pricingLines := make([]pricing.Line, 0, len(lines))
	count := 0
	for _, line := range lines {
		pricingLines = append(pricingLines, line.PricingLine())
		count += line.Quantity
	}
	totals, err := pricing.Compute(pricingLines, rules)
	if err != nil {
		return Summary{}, err
	}
	if lines == nil {
		lines = []Line{}
	}
	return Summary{Lines: lines, Count: count, Totals: totals}, nil
}
