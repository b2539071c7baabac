package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cjagercom/wub-fulfillment-service/internal/domain"
)

// AdminRepository backs the provisioning surface.
type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) CreateProduct(ctx context.Context, product domain.Product) error {
	const stmt = `
INSERT INTO products (id, organization_id, slug, sku, ean, title, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := exec(ctx, r.pool, stmt,
		product.ID,
		product.OrganizationID,
		product.Slug,
		product.SKU,
		product.EAN,
		product.Title,
		product.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrProductAlreadyExists
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *AdminRepository) ResolveProduct(ctx context.Context, organizationID, identifier string) (domain.Product, error) {
	return resolveProduct(ctx, r.pool, organizationID, identifier)
}

// UpsertStock sets amount and threshold for a product, creating the stock
// record when missing. The update is guarded so amount never drops below the
// units currently reserved; a guard failure matches zero rows and reports
// ok=false.
func (r *AdminRepository) UpsertStock(ctx context.Context, productID, organizationID string, amount, threshold int, now time.Time) (domain.StockLevel, bool, error) {
	const stmt = `
INSERT INTO inventory (product_id, organization_id, amount, reserved, threshold, updated_at)
VALUES ($1, $2, $3, 0, $4, $5)
ON CONFLICT (product_id) DO UPDATE
SET amount = EXCLUDED.amount,
	threshold = EXCLUDED.threshold,
	updated_at = EXCLUDED.updated_at
WHERE inventory.reserved <= EXCLUDED.amount
RETURNING amount, reserved`

	var gotAmount, gotReserved int
	err := queryRow(ctx, r.pool, stmt, productID, organizationID, amount, threshold, now).
		Scan(&gotAmount, &gotReserved)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.StockLevel{}, false, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.StockLevel{}, false, nil
		}
		return domain.StockLevel{}, false, fmt.Errorf("upsert stock: %w", err)
	}
	return domain.StockLevel{Amount: gotAmount, Reserved: gotReserved, Available: gotAmount - gotReserved}, true, nil
}
