package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cjagercom/wub-fulfillment-service/internal/domain"
)

// InventoryRepository backs the read paths: the organization snapshot and
// the single-item resolver fallback. Pure reads, no transactions.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

func (r *InventoryRepository) ListInventory(ctx context.Context, organizationID string) ([]domain.InventoryItem, error) {
	return listInventory(ctx, r.pool, organizationID)
}

func (r *InventoryRepository) FindItem(ctx context.Context, organizationID, identifier string) (*domain.InventoryItem, error) {
	return findItem(ctx, r.pool, organizationID, identifier)
}
