package repo

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ansagu88/foodtruck/internal/geo"
)

// VendorsRepo lists vendor profiles for marketplace discovery.
type VendorsRepo struct {
	pool *pgxpool.Pool
}

// NewVendorsRepo constructs a VendorsRepo backed by a pgx connection pool.
func NewVendorsRepo(pool *pgxpool.Pool) *VendorsRepo {
	return &VendorsRepo{pool: pool}
}

// ListApproved returns approved, active vendors. A non-empty keyword matches
// vendors whose name contains it or who have an available item whose title
// contains it.
func (r *VendorsRepo) ListApproved(ctx context.Context, keyword string) ([]geo.Vendor, error) {
	if r == nil || r.pool == nil {
		return nil, ErrStoreUnavailable
	}
	const base = `SELECT v.id, v.name, v.lng, v.lat FROM vendors v
WHERE v.is_approved AND v.is_active`
	keyword = strings.TrimSpace(keyword)

	var (
		rows pgx.Rows
		err  error
	)
	if keyword != "" {
		pattern := "%" + keyword + "%"
		rows, err = r.pool.Query(ctx, base+` AND (v.name ILIKE $1 OR EXISTS (
SELECT 1 FROM items i WHERE i.vendor_id = v.id AND i.is_available AND i.title ILIKE $1))`, pattern)
	} else {
		rows, err = r.pool.Query(ctx, base)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vendors := make([]geo.Vendor, 0, 16)
	for rows.Next() {
		var (
			vendor geo.Vendor
			lng    *float64
			lat    *float64
		)
		if err := rows.Scan(&vendor.ID, &vendor.Name, &lng, &lat); err != nil {
			return nil, err
		}
		if lng != nil && lat != nil {
			vendor.Location = &geo.Point{Lng: *lng, Lat: *lat}
		}
		vendors = append(vendors, vendor)
	}
	return vendors, rows.Err()
}
