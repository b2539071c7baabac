package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cjagercom/wub-fulfillment-service/internal/domain"
)

// StockRepository backs the reservation engine.
type StockRepository struct {
	pool *pgxpool.Pool
}

func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

func (r *StockRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *StockRepository) ResolveProduct(ctx context.Context, organizationID, identifier string) (domain.Product, error) {
	return resolveProduct(ctx, r.pool, organizationID, identifier)
}

// UpdateReserved applies a cart's previous→next move in one guarded
// statement. The guards are checked atomically by the store: the cart's
// prior hold must still be intact (reserved >= previous) and the new hold
// must fit in free stock once the prior hold is credited back
// (amount - reserved + previous >= next). A concurrent loser matches zero
// rows and reports applied=false.
func (r *StockRepository) UpdateReserved(ctx context.Context, productID, organizationID string, previous, next int, now time.Time) (domain.StockLevel, bool, error) {
	const stmt = `
UPDATE inventory
SET reserved = reserved - $3 + $4,
	updated_at = $5
WHERE product_id = $1
  AND organization_id = $2
  AND reserved >= $3
  AND amount - reserved + $3 >= $4
RETURNING amount, reserved`

	var amount, reserved int
	err := queryRow(ctx, r.pool, stmt, productID, organizationID, previous, next, now).
		Scan(&amount, &reserved)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.StockLevel{}, false, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.StockLevel{}, false, nil
		}
		return domain.StockLevel{}, false, fmt.Errorf("update reserved: %w", err)
	}
	return domain.StockLevel{Amount: amount, Reserved: reserved, Available: amount - reserved}, true, nil
}

func (r *StockRepository) GetRecord(ctx context.Context, productID, organizationID string) (domain.InventoryRecord, error) {
	const query = `
SELECT product_id, organization_id, amount, reserved, threshold, updated_at
FROM inventory
WHERE product_id = $1 AND organization_id = $2`

	var rec domain.InventoryRecord
	err := queryRow(ctx, r.pool, query, productID, organizationID).
		Scan(&rec.ProductID, &rec.OrganizationID, &rec.Amount, &rec.Reserved, &rec.Threshold, &rec.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.InventoryRecord{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.InventoryRecord{}, domain.ErrStockNotFound
		}
		return domain.InventoryRecord{}, fmt.Errorf("get stock record: %w", err)
	}
	return rec, nil
}
