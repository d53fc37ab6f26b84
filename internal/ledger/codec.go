// Package ledger encodes the per-vendor breakdown of a placed order into a
// single versioned JSON document and decodes it back. The document is the
// write-once settlement record: decoding always reproduces the exact numbers
// computed at checkout.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Ansagu88/foodtruck/internal/pricing"
)

// ErrMalformed is returned when a persisted ledger cannot be decoded.
var ErrMalformed = errors.New("ledger: malformed document")

const documentVersion = 1

type document struct {
	Version int                    `json:"v"`
	Vendors map[string]vendorSlice `json:"vendors"`
}

type vendorSlice struct {
	Subtotal   decimal.Decimal           `json:"subtotal"`
	Breakdown  map[string]breakdownEntry `json:"breakdown"`
	GrandTotal decimal.Decimal           `json:"grandTotal"`
}

type breakdownEntry struct {
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
}

// Encode serialises a per-vendor totals map. Map iteration order does not
// affect the output: encoding/json sorts object keys, so Encode is
// deterministic for a given ledger.
func Encode(totals map[uuid.UUID]pricing.CartTotals) ([]byte, error) {
	doc := document{
		Version: documentVersion,
		Vendors: make(map[string]vendorSlice, len(totals)),
	}
	for vendorID, t := range totals {
		slice := vendorSlice{
			Subtotal:   t.Subtotal,
			Breakdown:  make(map[string]breakdownEntry, len(t.Breakdown)),
			GrandTotal: t.GrandTotal,
		}
		for taxType, entry := range t.Breakdown {
			slice.Breakdown[taxType] = breakdownEntry{Percentage: entry.Percentage, Amount: entry.Amount}
		}
		doc.Vendors[vendorID.String()] = slice
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("ledger: encode: %w", err)
	}
	return data, nil
}

// Decode parses a persisted ledger document back into per-vendor totals. Tax
// is not stored; it is recovered as the sum of the breakdown amounts, which is
// exactly how it was produced at encode time.
func Decode(data []byte) (map[uuid.UUID]pricing.CartTotals, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Version != documentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformed, doc.Version)
	}

	totals := make(map[uuid.UUID]pricing.CartTotals, len(doc.Vendors))
	for key, slice := range doc.Vendors {
		vendorID, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("%w: vendor key %q: %v", ErrMalformed, key, err)
		}
		if slice.Subtotal.IsNegative() {
			return nil, fmt.Errorf("%w: vendor %s: negative subtotal %s", ErrMalformed, key, slice.Subtotal)
		}

		breakdown := make(pricing.Breakdown, len(slice.Breakdown))
		tax := decimal.Zero
		for taxType, entry := range slice.Breakdown {
			if entry.Percentage.IsNegative() || entry.Amount.IsNegative() {
				return nil, fmt.Errorf("%w: vendor %s: negative tax entry %q", ErrMalformed, key, taxType)
			}
			breakdown[taxType] = pricing.TaxAmount{Percentage: entry.Percentage, Amount: entry.Amount}
			tax = tax.Add(entry.Amount)
		}

		totals[vendorID] = pricing.CartTotals{
			Subtotal:   slice.Subtotal,
			Tax:        tax,
			GrandTotal: slice.GrandTotal,
			Breakdown:  breakdown,
		}
	}
	return totals, nil
}
