// Package checkout settles a customer's multi-vendor cart into a single
// order. Inside one transaction it partitions cart lines by vendor, computes
// per-vendor totals through the pricing engine, freezes them into the order
// ledger, and clears the cart.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Ansagu88/foodtruck/internal/cart"
	"github.com/Ansagu88/foodtruck/internal/events"
	"github.com/Ansagu88/foodtruck/internal/ledger"
	"github.com/Ansagu88/foodtruck/internal/obs"
	"github.com/Ansagu88/foodtruck/internal/order"
	"github.com/Ansagu88/foodtruck/internal/pricing"
)

// ErrEmptyCart is returned when checkout is attempted with no cart lines.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// Repository groups the storage operations one checkout needs. When obtained
// through TxRunner.InTx all calls share a single transaction.
type Repository interface {
	// ListCartLines returns the user's lines with live prices, locking them
	// against concurrent checkouts until the transaction ends.
	ListCartLines(ctx context.Context, userID uuid.UUID) ([]cart.Line, error)
	ActiveTaxRules(ctx context.Context) ([]pricing.TaxRule, error)
	CreateOrder(ctx context.Context, ord order.Order) (order.Order, error)
	CreateOrderItems(ctx context.Context, items []order.Item) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

// TxRunner executes fn inside one storage transaction: fn's effects are
// committed together or rolled back together.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, r Repository) error) error
}

// Enqueuer schedules post-settlement background work.
type Enqueuer interface {
	WarmVendorTotals(ctx context.Context, orderID uuid.UUID) error
}

// Service performs order settlement at checkout.
type Service struct {
	Runner TxRunner
	Events *events.Bus
	Queue  Enqueuer
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create settles the user's cart into an order. On any failure after
// partitioning, the transaction rolls back: no order exists and the cart is
// untouched.
func (s *Service) Create(ctx context.Context, userID uuid.UUID) (order.Order, error) {
	if s == nil || s.Runner == nil {
		return order.Order{}, errors.New("checkout service not configured")
	}

	var placed order.Order
	var clearedLines int
	err := s.Runner.InTx(ctx, func(ctx context.Context, r Repository) error {
		lines, err := r.ListCartLines(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		rules, err := r.ActiveTaxRules(ctx)
		if err != nil {
			return err
		}

		partitions := partitionByVendor(lines)
		vendorIDs := make([]uuid.UUID, 0, len(partitions))
		for vendorID := range partitions {
			vendorIDs = append(vendorIDs, vendorID)
		}
		sort.Slice(vendorIDs, func(i, j int) bool {
			return vendorIDs[i].String() < vendorIDs[j].String()
		})

		perVendor := make(map[uuid.UUID]pricing.CartTotals, len(partitions))
		total := decimal.Zero
		totalTax := decimal.Zero
		for _, vendorID := range vendorIDs {
			partition := partitions[vendorID]
			pricingLines := make([]pricing.Line, 0, len(partition))
			for _, line := range partition {
				pricingLines = append(pricingLines, line.PricingLine())
			}
			totals, err := pricing.Compute(pricingLines, rules)
			if err != nil {
				return err
			}
			perVendor[vendorID] = totals
			total = total.Add(totals.GrandTotal)
			totalTax = totalTax.Add(totals.Tax)
		}

		encoded, err := ledger.Encode(perVendor)
		if err != nil {
			return err
		}

		now := s.now()
		ord := order.Order{
			ID:        uuid.New(),
			UserID:    userID,
			VendorIDs: vendorIDs,
			Total:     total,
			TotalTax:  totalTax,
			Ledger:    encoded,
			Status:    order.StatusNew,
			IsOrdered: true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		ord.Number = orderNumber(now, ord.ID)

		created, err := r.CreateOrder(ctx, ord)
		if err != nil {
			return err
		}

		items := make([]order.Item, 0, len(lines))
		for _, line := range lines {
			items = append(items, order.Item{
				ID:        uuid.New(),
				OrderID:   created.ID,
				ItemID:    line.ItemID,
				VendorID:  line.VendorID,
				Title:     line.ItemTitle,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
				Amount:    line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
			})
		}
		if err := r.CreateOrderItems(ctx, items); err != nil {
			return err
		}
		if err := r.ClearCart(ctx, userID); err != nil {
			return err
		}
		placed = created
		clearedLines = len(lines)
		return nil
	})
	if err != nil {
		if obs.CheckoutTotal != nil {
			obs.CheckoutTotal.WithLabelValues("error").Inc()
		}
		return order.Order{}, err
	}

	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues("ok").Inc()
	}
	if obs.OrdersSettledVendors != nil {
		obs.OrdersSettledVendors.Observe(float64(len(placed.VendorIDs)))
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicOrderPlaced, placed.ID, map[string]any{
			"orderId":  placed.ID.String(),
			"number":   placed.Number,
			"userId":   userID.String(),
			"total":    placed.Total,
			"totalTax": placed.TotalTax,
			"vendors":  len(placed.VendorIDs),
		})
		_, _ = s.Events.Emit(ctx, events.TopicCartCleared, userID, map[string]any{
			"userId": userID.String(),
			"lines":  clearedLines,
		})
	}
	if s.Queue != nil {
		_ = s.Queue.WarmVendorTotals(ctx, placed.ID)
	}
	return placed, nil
}

func partitionByVendor(lines []cart.Line) map[uuid.UUID][]cart.Line {
	partitions := make(map[uuid.UUID][]cart.Line)
	for _, line := range lines {
		partitions[line.VendorID] = append(partitions[line.VendorID], line)
	}
	return partitions
}

// orderNumber concatenates the settlement timestamp with an id suffix,
// e.g. 20260829153012-1a2b3c4d.
func orderNumber(at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("%s-%s", at.Format("20060102150405"), id.String()[:8])
}
