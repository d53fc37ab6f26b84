package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Ansagu88/foodtruck/internal/order"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so order
// reads and writes can run either standalone or inside the checkout
// transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// OrdersRepo reads and mutates settled orders.
type OrdersRepo struct {
	pool *pgxpool.Pool
}

// NewOrdersRepo constructs an OrdersRepo backed by a pgx connection pool.
func NewOrdersRepo(pool *pgxpool.Pool) *OrdersRepo {
	return &OrdersRepo{pool: pool}
}

const orderColumns = `id, number, user_id, vendor_ids::text[], total::text, total_tax::text, ledger, status, is_ordered, created_at, updated_at`

// Get fetches one order by id.
func (r *OrdersRepo) Get(ctx context.Context, orderID uuid.UUID) (order.Order, error) {
	if r == nil || r.pool == nil {
		return order.Order{}, ErrStoreUnavailable
	}
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	return scanOrder(row)
}

// GetForUser fetches one order scoped to its owner.
func (r *OrdersRepo) GetForUser(ctx context.Context, orderID, userID uuid.UUID) (order.Order, error) {
	if r == nil || r.pool == nil {
		return order.Order{}, ErrStoreUnavailable
	}
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders
WHERE id = $1 AND user_id = $2`, orderID, userID)
	return scanOrder(row)
}

// ListForUser returns the user's orders newest first plus the total count.
func (r *OrdersRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]order.Order, int64, error) {
	if r == nil || r.pool == nil {
		return nil, 0, ErrStoreUnavailable
	}
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders
WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]order.Order, 0, limit)
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, ord)
	}
	return orders, total, rows.Err()
}

// ListItems returns the settled lines of an order.
func (r *OrdersRepo) ListItems(ctx context.Context, orderID uuid.UUID) ([]order.Item, error) {
	if r == nil || r.pool == nil {
		return nil, ErrStoreUnavailable
	}
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, item_id, vendor_id, title, quantity, unit_price::text, amount::text
FROM order_items WHERE order_id = $1 ORDER BY vendor_id, title`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]order.Item, 0, 8)
	for rows.Next() {
		var (
			item      order.Item
			unitPrice string
			amount    string
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ItemID, &item.VendorID, &item.Title, &item.Quantity, &unitPrice, &amount); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, err
		}
		if item.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateStatus sets an order's status.
func (r *OrdersRepo) UpdateStatus(ctx context.Context, orderID uuid.UUID, status order.Status) error {
	if r == nil || r.pool == nil {
		return ErrStoreUnavailable
	}
	tag, err := r.pool.Exec(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, orderID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanOrder(row pgxRow) (order.Order, error) {
	var (
		ord       order.Order
		vendorIDs []string
		total     string
		totalTax  string
		status    string
	)
	err := row.Scan(&ord.ID, &ord.Number, &ord.UserID, &vendorIDs, &total, &totalTax, &ord.Ledger, &status, &ord.IsOrdered, &ord.CreatedAt, &ord.UpdatedAt)
	if err != nil {
		return order.Order{}, err
	}
	ord.Status = order.Status(status)
	ord.VendorIDs = make([]uuid.UUID, 0, len(vendorIDs))
	for _, raw := range vendorIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return order.Order{}, err
		}
		ord.VendorIDs = append(ord.VendorIDs, id)
	}
	if ord.Total, err = decimal.NewFromString(total); err != nil {
		return order.Order{}, err
	}
	if ord.TotalTax, err = decimal.NewFromString(totalTax); err != nil {
		return order.Order{}, err
	}
	return ord, nil
}

func insertOrder(ctx context.Context, q querier, ord order.Order) (order.Order, error) {
	vendorIDs := make([]string, 0, len(ord.VendorIDs))
	for _, id := range ord.VendorIDs {
		vendorIDs = append(vendorIDs, id.String())
	}
	_, err := q.Exec(ctx, `INSERT INTO orders (id, number, user_id, vendor_ids, total, total_tax, ledger, status, is_ordered, created_at, updated_at)
VALUES ($1, $2, $3, $4::uuid[], $5::numeric, $6::numeric, $7, $8, $9, $10, $10)`,
		ord.ID, ord.Number, ord.UserID, vendorIDs, ord.Total.String(), ord.TotalTax.String(),
		ord.Ledger, string(ord.Status), ord.IsOrdered, ord.CreatedAt)
	if err != nil {
		return order.Order{}, err
	}
	ord.UpdatedAt = ord.CreatedAt
	return ord, nil
}

func insertOrderItems(ctx context.Context, q querier, items []order.Item) error {
	for _, item := range items {
		_, err := q.Exec(ctx, `INSERT INTO order_items (id, order_id, item_id, vendor_id, title, quantity, unit_price, amount)
VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric)`,
			item.ID, item.OrderID, item.ItemID, item.VendorID, item.Title, item.Quantity,
			item.UnitPrice.String(), item.Amount.String())
		if err != nil {
			return err
		}
	}
	return nil
}
