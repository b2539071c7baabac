package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cjagercom/wub-fulfillment-service/internal/domain"
)

// resolveProductQuery maps an opaque identifier onto the canonical product
// row within an organization. When an identifier matches more than one field
// across rows the most specific one wins: canonical id, then slug, then EAN,
// then SKU. The id comparison is canonical-form exact; slug, EAN and SKU
// match their raw, case-sensitive values.
const resolveProductQuery = `
SELECT p.id, p.organization_id, p.slug, p.sku, p.ean, p.title, p.created_at
FROM products p
WHERE p.organization_id = $1
  AND (p.id::text = lower($2) OR p.slug = $2 OR p.ean = $2 OR p.sku = $2)
ORDER BY CASE
	WHEN p.id::text = lower($2) THEN 0
	WHEN p.slug = $2 THEN 1
	WHEN p.ean = $2 THEN 2
	ELSE 3
END
LIMIT 1`

func resolveProduct(ctx context.Context, pool *pgxpool.Pool, organizationID, identifier string) (domain.Product, error) {
	var p domain.Product
	err := queryRow(ctx, pool, resolveProductQuery, organizationID, identifier).
		Scan(&p.ID, &p.OrganizationID, &p.Slug, &p.SKU, &p.EAN, &p.Title, &p.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Product{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("resolve product: %w", err)
	}
	return p, nil
}

// inventoryItemColumns joins catalog rows with their stock record; products
// without one read as zero stock. Available is clamped at zero for display.
const inventoryItemColumns = `
SELECT p.id, p.organization_id, p.slug, p.sku, p.ean, p.title,
	COALESCE(i.amount, 0),
	COALESCE(i.reserved, 0),
	GREATEST(COALESCE(i.amount, 0) - COALESCE(i.reserved, 0), 0),
	COALESCE(i.threshold, 0)
FROM products p
LEFT JOIN inventory i ON i.product_id = p.id`

const listInventoryQuery = inventoryItemColumns + `
WHERE p.organization_id = $1
ORDER BY p.title`

func listInventory(ctx context.Context, pool *pgxpool.Pool, organizationID string) ([]domain.InventoryItem, error) {
	rows, err := query(ctx, pool, listInventoryQuery, organizationID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	items := []domain.InventoryItem{}
	for rows.Next() {
		var it domain.InventoryItem
		if err := rows.Scan(
			&it.ProductID, &it.OrganizationID, &it.Slug, &it.SKU, &it.EAN, &it.Title,
			&it.Amount, &it.Reserved, &it.Available, &it.Threshold,
		); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return items, nil
}

const findItemQuery = inventoryItemColumns + `
WHERE p.organization_id = $1
  AND (p.id::text = lower($2) OR p.slug = $2 OR p.ean = $2 OR p.sku = $2)
ORDER BY CASE
	WHEN p.id::text = lower($2) THEN 0
	WHEN p.slug = $2 THEN 1
	WHEN p.ean = $2 THEN 2
	ELSE 3
END
LIMIT 1`

func findItem(ctx context.Context, pool *pgxpool.Pool, organizationID, identifier string) (*domain.InventoryItem, error) {
	var it domain.InventoryItem
	err := queryRow(ctx, pool, findItemQuery, organizationID, identifier).Scan(
		&it.ProductID, &it.OrganizationID, &it.Slug, &it.SKU, &it.EAN, &it.Title,
		&it.Amount, &it.Reserved, &it.Available, &it.Threshold,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find inventory item: %w", err)
	}
	return &it, nil
}
