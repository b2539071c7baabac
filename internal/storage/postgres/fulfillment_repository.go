package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cjagercom/wub-fulfillment-service/internal/domain"
)

// FulfillmentRepository backs the fulfillment engine: the idempotency ledger
// and the guarded stock decrements.
type FulfillmentRepository struct {
	pool *pgxpool.Pool
}

func NewFulfillmentRepository(pool *pgxpool.Pool) *FulfillmentRepository {
	return &FulfillmentRepository{pool: pool}
}

func (r *FulfillmentRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *FulfillmentRepository) ResolveProduct(ctx context.Context, organizationID, identifier string) (domain.Product, error) {
	return resolveProduct(ctx, r.pool, organizationID, identifier)
}

// InsertLedgerEntry records that this (order, product) pair is being
// fulfilled. An existing row means a previous call already committed the
// pair; the conflict is absorbed and inserted=false is returned.
func (r *FulfillmentRepository) InsertLedgerEntry(ctx context.Context, orderID, productID string, quantity int) (bool, error) {
	const stmt = `
INSERT INTO fulfillment_ledger (order_id, product_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (order_id, product_id) DO NOTHING`

	tag, err := exec(ctx, r.pool, stmt, orderID, productID, quantity)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("insert ledger entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteLedgerEntry removes the idempotency record for a line whose stock
// guard failed, so a legitimate retry after restocking is not blocked.
func (r *FulfillmentRepository) DeleteLedgerEntry(ctx context.Context, orderID, productID string) error {
	const stmt = `DELETE FROM fulfillment_ledger WHERE order_id = $1 AND product_id = $2`
	if _, err := exec(ctx, r.pool, stmt, orderID, productID); err != nil {
		return fmt.Errorf("delete ledger entry: %w", err)
	}
	return nil
}

// ConsumeDirect decrements amount only, guarded against going negative.
func (r *FulfillmentRepository) ConsumeDirect(ctx context.Context, productID, organizationID string, quantity int, now time.Time) (domain.InventoryRecord, bool, error) {
	const stmt = `
UPDATE inventory
SET amount = amount - $3,
	updated_at = $4
WHERE product_id = $1
  AND organization_id = $2
  AND amount >= $3
RETURNING amount, reserved, threshold`

	return r.consume(ctx, stmt, productID, organizationID, quantity, now)
}

// ConsumeReserved consumes a committed hold: amount and reserved drop
// together, guarded so neither goes negative.
func (r *FulfillmentRepository) ConsumeReserved(ctx context.Context, productID, organizationID string, quantity int, now time.Time) (domain.InventoryRecord, bool, error) {
	const stmt = `
UPDATE inventory
SET amount = amount - $3,
	reserved = reserved - $3,
	updated_at = $4
WHERE product_id = $1
  AND organization_id = $2
  AND reserved >= $3
  AND amount >= $3
RETURNING amount, reserved, threshold`

	return r.consume(ctx, stmt, productID, organizationID, quantity, now)
}

func (r *FulfillmentRepository) consume(ctx context.Context, stmt, productID, organizationID string, quantity int, now time.Time) (domain.InventoryRecord, bool, error) {
	rec := domain.InventoryRecord{ProductID: productID, OrganizationID: organizationID, UpdatedAt: now}
	err := queryRow(ctx, r.pool, stmt, productID, organizationID, quantity, now).
		Scan(&rec.Amount, &rec.Reserved, &rec.Threshold)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.InventoryRecord{}, false, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.InventoryRecord{}, false, nil
		}
		return domain.InventoryRecord{}, false, fmt.Errorf("consume stock: %w", err)
	}
	return rec, true, nil
}

func (r *FulfillmentRepository) ListInventory(ctx context.Context, organizationID string) ([]domain.InventoryItem, error) {
	return listInventory(ctx, r.pool, organizationID)
}
