package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Ansagu88/foodtruck/internal/events"
	"github.com/Ansagu88/foodtruck/internal/ledger"
	"github.com/Ansagu88/foodtruck/internal/obs"
	"github.com/Ansagu88/foodtruck/internal/pricing"
)

// Status enumerates the order lifecycle states.
type Status string

const (
	StatusNew       Status = "New"
	StatusAccepted  Status = "Accepted"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

var (
	// ErrNotFound indicates the order does not exist or is not visible to the caller.
	ErrNotFound = errors.New("order: not found")
	// ErrVendorNotInOrder is returned when a vendor id is absent from an order's ledger.
	ErrVendorNotInOrder = errors.New("order: vendor not in order")
	// ErrInvalidStatus rejects unknown status values or disallowed transitions.
	ErrInvalidStatus = errors.New("order: invalid status transition")
)

// Order is a settled multi-vendor order. The ledger is written once at
// checkout and only ever decoded afterwards.
type Order struct {
	ID        uuid.UUID       `json:"id"`
	Number    string          `json:"number"`
	UserID    uuid.UUID       `json:"-"`
	VendorIDs []uuid.UUID     `json:"vendorIds"`
	Total     decimal.Decimal `json:"total"`
	TotalTax  decimal.Decimal `json:"totalTax"`
	Ledger    []byte          `json:"-"`
	Status    Status          `json:"status"`
	IsOrdered bool            `json:"isOrdered"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Item is one settled order line, frozen at checkout prices.
type Item struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"-"`
	ItemID    uuid.UUID       `json:"itemId"`
	VendorID  uuid.UUID       `json:"vendorId"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Amount    decimal.Decimal `json:"amount"`
}

// Store defines persistence operations for settled orders.
type Store interface {
	Get(ctx context.Context, orderID uuid.UUID) (Order, error)
	GetForUser(ctx context.Context, orderID, userID uuid.UUID) (Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]Order, int64, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]Item, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status Status) error
}

// Service answers order queries and applies status transitions.
type Service struct {
	Store  Store
	Events *events.Bus
}

// Get loads one order scoped to its owner.
func (s *Service) Get(ctx context.Context, orderID, userID uuid.UUID) (Order, error) {
	ord, err := s.Store.GetForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	return ord, nil
}

// List returns the user's order history, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]Order, int64, error) {
	return s.Store.ListForUser(ctx, userID, limit, offset)
}

// Items returns the settled lines of an order.
func (s *Service) Items(ctx context.Context, orderID uuid.UUID) ([]Item, error) {
	return s.Store.ListItems(ctx, orderID)
}

// TotalsForVendor decodes the order's ledger and returns one vendor's slice.
// The result is exactly what checkout computed: the ledger is never
// recomputed from live prices, so a receipt never changes after placement.
func (s *Service) TotalsForVendor(ctx context.Context, orderID, vendorID uuid.UUID) (pricing.CartTotals, error) {
	ord, err := s.Store.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.CartTotals{}, ErrNotFound
		}
		return pricing.CartTotals{}, err
	}
	return TotalsForVendor(ord, vendorID)
}

// TotalsForVendor extracts a single vendor's totals from an already-loaded order.
func TotalsForVendor(ord Order, vendorID uuid.UUID) (pricing.CartTotals, error) {
	decoded, err := ledger.Decode(ord.Ledger)
	if err != nil {
		if obs.LedgerDecodeFailures != nil {
			obs.LedgerDecodeFailures.Inc()
		}
		return pricing.CartTotals{}, err
	}
	totals, ok := decoded[vendorID]
	if !ok {
		return pricing.CartTotals{}, fmt.Errorf("%w: %s", ErrVendorNotInOrder, vendorID)
	}
	return totals, nil
}

// transitions maps each state to the states reachable from it. Completed and
// Cancelled are terminal.
var transitions = map[Status][]Status{
	StatusNew:      {StatusAccepted, StatusCancelled},
	StatusAccepted: {StatusCompleted, StatusCancelled},
}

// SetStatus applies a downstream status transition requested by a vendor or
// administrator. No totals are recomputed.
func (s *Service) SetStatus(ctx context.Context, orderID uuid.UUID, next Status) (Order, error) {
	switch next {
	case StatusNew, StatusAccepted, StatusCompleted, StatusCancelled:
	default:
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, next)
	}
	ord, err := s.Store.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	allowed := false
	for _, candidate := range transitions[ord.Status] {
		if candidate == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, ord.Status, next)
	}
	if err := s.Store.UpdateStatus(ctx, orderID, next); err != nil {
		return Order{}, err
	}
	ord.Status = next
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicOrderStatusChanged, ord.ID, map[string]any{
			"orderId": ord.ID.String(),
			"status":  string(next),
		})
	}
	return ord, nil
}
