package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// DiscoveryKey returns the cache key for a marketplace search. The raw query
// string is hashed so arbitrary keywords never leak into key space.
func DiscoveryKey(rawQuery string) string {
	sum := sha256.Sum256([]byte(rawQuery))
	return "discovery:search:" + hex.EncodeToString(sum[:16])
}

// VendorTotalsKey returns the key under which a vendor's slice of a settled
// order is cached for dashboard reads.
func VendorTotalsKey(orderID, vendorID uuid.UUID) string {
	return "vendor_totals:" + orderID.String() + ":" + vendorID.String()
}
