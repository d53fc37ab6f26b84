package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Ansagu88/foodtruck/internal/pricing"
)

// ErrStoreUnavailable indicates a repository was constructed without a pool.
var ErrStoreUnavailable = errors.New("repo: store unavailable")

// TaxRulesRepo reads the tax rule table used by cart and checkout pricing.
type TaxRulesRepo struct {
	pool *pgxpool.Pool
}

// NewTaxRulesRepo constructs a TaxRulesRepo backed by a pgx connection pool.
func NewTaxRulesRepo(pool *pgxpool.Pool) *TaxRulesRepo {
	return &TaxRulesRepo{pool: pool}
}

const activeTaxRulesQuery = `SELECT tax_type, percentage::text, is_active
FROM tax_rules WHERE is_active ORDER BY tax_type`

// Active returns the currently active tax rules ordered by type.
func (r *TaxRulesRepo) Active(ctx context.Context) ([]pricing.TaxRule, error) {
	if r == nil || r.pool == nil {
		return nil, ErrStoreUnavailable
	}
	rows, err := r.pool.Query(ctx, activeTaxRulesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTaxRules(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTaxRules(rows pgxRows) ([]pricing.TaxRule, error) {
	rules := make([]pricing.TaxRule, 0, 4)
	for rows.Next() {
		var (
			rule       pricing.TaxRule
			percentage string
		)
		if err := rows.Scan(&rule.Type, &percentage, &rule.Active); err != nil {
			return nil, err
		}
		parsed, err := decimal.NewFromString(percentage)
		if err != nil {
			return nil, err
		}
		rule.Percentage = parsed
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
