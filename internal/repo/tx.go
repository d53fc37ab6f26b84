package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ansagu88/foodtruck/internal/cart"
	"github.com/Ansagu88/foodtruck/internal/checkout"
	"github.com/Ansagu88/foodtruck/internal/order"
	"github.com/Ansagu88/foodtruck/internal/pricing"
)

// TxManager runs checkout work inside a single database transaction.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager constructs a TxManager backed by a pgx connection pool.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// InTx begins a transaction, hands a transaction-scoped repository to fn, and
// commits only when fn succeeds.
func (m *TxManager) InTx(ctx context.Context, fn func(ctx context.Context, r checkout.Repository) error) error {
	if m == nil || m.pool == nil {
		return ErrStoreUnavailable
	}
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// txRepo is the checkout repository bound to one transaction.
type txRepo struct {
	tx pgx.Tx
}

// ListCartLines loads the user's lines with live item prices, locking them
// against concurrent quantity changes until the transaction ends.
func (r *txRepo) ListCartLines(ctx context.Context, userID uuid.UUID) ([]cart.Line, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+cartLineColumns+`
FROM cart_lines cl JOIN items i ON i.id = cl.item_id
WHERE cl.user_id = $1 ORDER BY cl.created_at
FOR UPDATE OF cl`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCartLines(rows)
}

// ActiveTaxRules returns the active tax rules visible to this transaction.
func (r *txRepo) ActiveTaxRules(ctx context.Context) ([]pricing.TaxRule, error) {
	rows, err := r.tx.Query(ctx, activeTaxRulesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTaxRules(rows)
}

// CreateOrder persists the settled order header.
func (r *txRepo) CreateOrder(ctx context.Context, ord order.Order) (order.Order, error) {
	return insertOrder(ctx, r.tx, ord)
}

// CreateOrderItems persists the settled lines.
func (r *txRepo) CreateOrderItems(ctx context.Context, items []order.Item) error {
	return insertOrderItems(ctx, r.tx, items)
}

// ClearCart deletes all of the user's cart lines.
func (r *txRepo) ClearCart(ctx context.Context, userID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1`, userID)
	return err
}
