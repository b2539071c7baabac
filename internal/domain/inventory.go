package domain

import "time"

// InventoryRecord is the persisted stock row for a product. The record may be
// absent for a product, in which case available stock is treated as zero.
// After every successful mutation 0 <= Reserved <= Amount must hold; mutations
// that would break it are rejected by the store's guard predicates, never
// clamped.
type InventoryRecord struct {
	ProductID      string
	OrganizationID string
	Amount         int
	Reserved       int
	Threshold      int
	UpdatedAt      time.Time
}

// StockLevel is the post-mutation view returned to callers.
// Available is always derived, never stored.
type StockLevel struct {
	Amount    int
	Reserved  int
	Available int
}

// Level derives the caller-facing stock level from a record.
func (r InventoryRecord) Level() StockLevel {
	return StockLevel{
		Amount:    r.Amount,
		Reserved:  r.Reserved,
		Available: r.Amount - r.Reserved,
	}
}

// InventoryItem is one row of an organization's inventory snapshot:
// catalog fields joined with stock counts. Available is clamped at zero for
// display, matching the list the storefront consumes.
type InventoryItem struct {
	ProductID      string
	OrganizationID string
	Slug           *string
	SKU            *string
	EAN            *string
	Title          string
	Amount         int
	Reserved       int
	Available      int
	Threshold      int
}

// LowStockAlert is one line of the batched low-stock notification raised when
// fulfillment pushes a product's amount to or below its threshold.
type LowStockAlert struct {
	Title     string
	Amount    int
	Threshold int
}
