package app

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/cjagercom/wub-fulfillment-service/internal/domain"
)

// InventoryRepository is the read-side storage surface: the organization
// snapshot query and the single-item resolver fallback.
type InventoryRepository interface {
	ListInventory(ctx context.Context, organizationID string) ([]domain.InventoryItem, error)
	FindItem(ctx context.Context, organizationID, identifier string) (*domain.InventoryItem, error)
}

// InventoryService serves the read paths cache-first. The cache holds the
// last materialized snapshot per organization; a miss triggers a synchronous
// recompute before replying.
type InventoryService struct {
	repo  InventoryRepository
	cache SnapshotCache
}

func NewInventoryService(repo InventoryRepository, cache SnapshotCache) *InventoryService {
	return &InventoryService{
		repo:  repo,
		cache: cache,
	}
}

// ListInventory returns the organization's inventory snapshot, computing and
// caching it on a miss.
func (s *InventoryService) ListInventory(ctx context.Context, organizationID string) ([]domain.InventoryItem, error) {
	if organizationID == "" {
		return nil, domain.ErrOrganizationRequired
	}
	if items, ok := s.cache.Get(organizationID); ok {
		return items, nil
	}
	items, err := s.repo.ListInventory(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(organizationID, items)
	return items, nil
}

// GetItem resolves a single product by canonical id, slug, EAN or SKU within
// the organization. The cached snapshot is scanned first; on a miss the store
// is consulted directly and, when the product exists there, the list cache is
// re-primed so subsequent scans hit.
func (s *InventoryService) GetItem(ctx context.Context, organizationID, identifier string) (domain.InventoryItem, error) {
	if organizationID == "" {
		return domain.InventoryItem{}, domain.ErrOrganizationRequired
	}
	if identifier == "" {
		return domain.InventoryItem{}, domain.ErrIdentifierRequired
	}

	items, err := s.ListInventory(ctx, organizationID)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	if item := matchItem(items, identifier); item != nil {
		return *item, nil
	}

	item, err := s.repo.FindItem(ctx, organizationID, identifier)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	if item == nil {
		return domain.InventoryItem{}, domain.ErrProductNotFound
	}

	if fresh, err := s.repo.ListInventory(ctx, organizationID); err == nil {
		s.cache.Set(organizationID, fresh)
	}
	return *item, nil
}

// matchItem scans a snapshot for an identifier using the resolver's fixed
// precedence: canonical id first, then slug, then EAN, then SKU. The id
// comparison is canonical-form exact (case of the hex digits does not
// matter); the alternate keys match their raw, case-sensitive values.
// uuid.Parse alone is too lenient here: it also accepts unhyphenated,
// braced and urn-prefixed forms the store comparison rejects, and the two
// paths must agree.
func matchItem(items []domain.InventoryItem, identifier string) *domain.InventoryItem {
	if id, err := uuid.Parse(identifier); err == nil && id.String() == strings.ToLower(identifier) {
		canonical := id.String()
		for i := range items {
			if items[i].ProductID == canonical {
				return &items[i]
			}
		}
	}
	for i := range items {
		if items[i].Slug != nil && *items[i].Slug == identifier {
			return &items[i]
		}
	}
	for i := range items {
		if items[i].EAN != nil && *items[i].EAN == identifier {
			return &items[i]
		}
	}
	for i := range items {
		if items[i].SKU != nil && *items[i].SKU == identifier {
			return &items[i]
		}
	}
	return nil
}
