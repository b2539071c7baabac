package domain

import "time"

// LedgerEntry is the idempotency marker for order fulfillment, unique per
// (order, product) pair. An existing row means that pair was already
// committed; replays of the same order skip it.
type LedgerEntry struct {
	OrderID   string
	ProductID string
	Quantity  int
	CreatedAt time.Time
}

// FulfillmentLineStatus describes the outcome of a single order line.
type FulfillmentLineStatus string

const (
	LineApplied            FulfillmentLineStatus = "applied"
	LineSkippedDuplicate   FulfillmentLineStatus = "skipped_duplicate"
	LineSkippedNotFound    FulfillmentLineStatus = "skipped_not_found"
	LineFailedInsufficient FulfillmentLineStatus = "failed_insufficient_stock"
)
