package cache

import (
	"sync"

	"github.com/cjagercom/wub-fulfillment-service/internal/domain"
)

// SnapshotCache holds the last materialized inventory list per organization.
// It is process-local and best-effort: in a multi-instance deployment each
// instance caches independently, and correctness of stock guards lives in the
// store, not here. Entries have no TTL; any mutation for an organization
// invalidates its whole entry.
type SnapshotCache struct {
	mu    sync.RWMutex
	items map[string][]domain.InventoryItem
}

func NewSnapshot() *SnapshotCache {
	return &SnapshotCache{items: make(map[string][]domain.InventoryItem)}
}

// Get returns the cached snapshot for an organization, or ok=false on a miss.
func (c *SnapshotCache) Get(orgID string) ([]domain.InventoryItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items, ok := c.items[orgID]
	return items, ok
}

// Set replaces the organization's snapshot with a fresh one.
func (c *SnapshotCache) Set(orgID string, items []domain.InventoryItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[orgID] = items
}

// Invalidate drops the organization's entry; the next Get recomputes from the
// store. Invalidation is whole-organization, never per product.
func (c *SnapshotCache) Invalidate(orgID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, orgID)
}
