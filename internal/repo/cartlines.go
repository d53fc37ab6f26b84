package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Ansagu88/foodtruck/internal/cart"
)

// CartRepo persists cart lines. Prices and titles are always joined in from
// the items table so a line reflects the live menu.
type CartRepo struct {
	pool *pgxpool.Pool
}

// NewCartRepo constructs a CartRepo backed by a pgx connection pool.
func NewCartRepo(pool *pgxpool.Pool) *CartRepo {
	return &CartRepo{pool: pool}
}

const cartLineColumns = `cl.id, cl.user_id, cl.item_id, i.title, i.vendor_id, i.price::text, cl.quantity, cl.created_at`

const listCartLinesQuery = `SELECT ` + cartLineColumns + `
FROM cart_lines cl JOIN items i ON i.id = cl.item_id
WHERE cl.user_id = $1 ORDER BY cl.created_at`

// ListLines returns the user's cart lines, oldest first.
func (r *CartRepo) ListLines(ctx context.Context, userID uuid.UUID) ([]cart.Line, error) {
	if r == nil || r.pool == nil {
		return nil, ErrStoreUnavailable
	}
	rows, err := r.pool.Query(ctx, listCartLinesQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCartLines(rows)
}

// FindLine locates the user's line for a given item. Returns pgx.ErrNoRows
// when the item is not in the cart.
func (r *CartRepo) FindLine(ctx context.Context, userID, itemID uuid.UUID) (cart.Line, error) {
	if r == nil || r.pool == nil {
		return cart.Line{}, ErrStoreUnavailable
	}
	row := r.pool.QueryRow(ctx, `SELECT `+cartLineColumns+`
FROM cart_lines cl JOIN items i ON i.id = cl.item_id
WHERE cl.user_id = $1 AND cl.item_id = $2`, userID, itemID)
	return scanCartLine(row)
}

// GetLine fetches one line by id scoped to its owner.
func (r *CartRepo) GetLine(ctx context.Context, userID, lineID uuid.UUID) (cart.Line, error) {
	if r == nil || r.pool == nil {
		return cart.Line{}, ErrStoreUnavailable
	}
	row := r.pool.QueryRow(ctx, `SELECT `+cartLineColumns+`
FROM cart_lines cl JOIN items i ON i.id = cl.item_id
WHERE cl.user_id = $1 AND cl.id = $2`, userID, lineID)
	return scanCartLine(row)
}

// CreateLine inserts a line with quantity 1 and returns it with item fields
// resolved.
func (r *CartRepo) CreateLine(ctx context.Context, userID, itemID uuid.UUID) (cart.Line, error) {
	if r == nil || r.pool == nil {
		return cart.Line{}, ErrStoreUnavailable
	}
	var lineID uuid.UUID
	err := r.pool.QueryRow(ctx, `INSERT INTO cart_lines (user_id, item_id, quantity)
VALUES ($1, $2, 1) RETURNING id`, userID, itemID).Scan(&lineID)
	if err != nil {
		return cart.Line{}, err
	}
	return r.GetLine(ctx, userID, lineID)
}

// UpdateQuantity sets a line's quantity and returns the refreshed line.
func (r *CartRepo) UpdateQuantity(ctx context.Context, lineID uuid.UUID, quantity int) (cart.Line, error) {
	if r == nil || r.pool == nil {
		return cart.Line{}, ErrStoreUnavailable
	}
	row := r.pool.QueryRow(ctx, `UPDATE cart_lines cl SET quantity = $2
FROM items i WHERE cl.id = $1 AND i.id = cl.item_id
RETURNING `+cartLineColumns, lineID, quantity)
	return scanCartLine(row)
}

// DeleteLine removes a line by id.
func (r *CartRepo) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	if r == nil || r.pool == nil {
		return ErrStoreUnavailable
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE id = $1`, lineID)
	return err
}

// GetItem fetches the catalog view of a menu item.
func (r *CartRepo) GetItem(ctx context.Context, itemID uuid.UUID) (cart.Item, error) {
	if r == nil || r.pool == nil {
		return cart.Item{}, ErrStoreUnavailable
	}
	var (
		item  cart.Item
		price string
	)
	err := r.pool.QueryRow(ctx, `SELECT id, vendor_id, title, price::text, is_available
FROM items WHERE id = $1`, itemID).Scan(&item.ID, &item.VendorID, &item.Title, &price, &item.Available)
	if err != nil {
		return cart.Item{}, err
	}
	item.Price, err = decimal.NewFromString(price)
	if err != nil {
		return cart.Item{}, err
	}
	return item, nil
}

type pgxRow interface {
	Scan(dest ...any) error
}

func scanCartLine(row pgxRow) (cart.Line, error) {
	var (
		line  cart.Line
		price string
	)
	err := row.Scan(&line.ID, &line.UserID, &line.ItemID, &line.ItemTitle, &line.VendorID, &price, &line.Quantity, &line.CreatedAt)
	if err != nil {
		return cart.Line{}, err
	}
	line.UnitPrice, err = decimal.NewFromString(price)
	if err != nil {
		return cart.Line{}, err
	}
	return line, nil
}

func scanCartLines(rows pgxRows) ([]cart.Line, error) {
	lines := make([]cart.Line, 0, 8)
	for rows.Next() {
		line, err := scanCartLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
