package app

import (
	"context"
	"testing"
	"time"

	"github.com/cjagercom/wub-fulfillment-service/internal/clock"
	"github.com/cjagercom/wub-fulfillment-service/internal/domain"
)

func TestReservationService_ApplyCartDelta(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	makeSvc := func(products []domain.Product, records []domain.InventoryRecord) (*ReservationService, *fakeStockRepo, *fakeSnapshotCache) {
		repo := newFakeStockRepo(products, records)
		c := newFakeSnapshotCache()
		svc := NewReservationService(repo, c, clock.NewFixed(now))
		return svc, repo, c
	}

	product := domain.Product{ID: "11111111-1111-4111-8111-111111111111", OrganizationID: "org-1", Title: "Mug"}

	t.Run("applies delta and invalidates cache", func(t *testing.T) {
		svc, repo, c := makeSvc(
			[]domain.Product{product},
			[]domain.InventoryRecord{{ProductID: product.ID, OrganizationID: "org-1", Amount: 10, Reserved: 2}},
		)

		level, err := svc.ApplyCartDelta(context.Background(), ApplyCartDeltaInput{
			OrganizationID: "org-1",
			Identifier:     product.ID,
			CartID:         "cart-1",
			Previous:       2,
			Next:           5,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if level.Amount != 10 || level.Reserved != 5 || level.Available != 5 {
			t.Fatalf("unexpected level: %+v", level)
		}
		if got := repo.records[product.ID].Reserved; got != 5 {
			t.Fatalf("expected reserved 5, got %d", got)
		}
		if repo.records[product.ID].UpdatedAt != now {
			t.Fatalf("expected updated_at pinned to clock")
		}
		if c.invalidated["org-1"] != 1 {
			t.Fatalf("expected one cache invalidation, got %d", c.invalidated["org-1"])
		}
	})

	t.Run("releasing a hold frees stock", func(t *testing.T) {
		svc, repo, _ := makeSvc(
			[]domain.Product{product},
			[]domain.InventoryRecord{{ProductID: product.ID, OrganizationID: "org-1", Amount: 10, Reserved: 7}},
		)

		level, err := svc.ApplyCartDelta(context.Background(), ApplyCartDeltaInput{
			OrganizationID: "org-1",
			Identifier:     product.ID,
			Previous:       7,
			Next:           0,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if level.Reserved != 0 || level.Available != 10 {
			t.Fatalf("unexpected level: %+v", level)
		}
		if repo.records[product.ID].Reserved != 0 {
			t.Fatalf("expected hold released")
		}
	})

	t.Run("stale hold when previous exceeds reserved", func(t *testing.T) {
		svc, repo, c := makeSvc(
			[]domain.Product{product},
			[]domain.InventoryRecord{{ProductID: product.ID, OrganizationID: "org-1", Amount: 10, Reserved: 2}},
		)

		_, err := svc.ApplyCartDelta(context.Background(), ApplyCartDeltaInput{
			OrganizationID: "org-1",
			Identifier:     product.ID,
			Previous:       5,
			Next:           8,
		})
		if err != domain.ErrStaleHold {
			t.Fatalf("expected ErrStaleHold, got %v", err)
		}
		if repo.records[product.ID].Reserved != 2 {
			t.Fatalf("expected state unchanged on failure")
		}
		if len(c.invalidated) != 0 {
			t.Fatalf("expected no cache invalidation on failure")
		}
	})

	t.Run("insufficient stock when new hold does not fit", func(t *testing.T) {
		svc, repo, _ := makeSvc(
			[]domain.Product{product},
			[]domain.InventoryRecord{{ProductID: product.ID, OrganizationID: "org-1", Amount: 10, Reserved: 4}},
		)

		// Crediting back the cart's own 4 leaves 10 free, so 11 cannot fit.
		_, err := svc.ApplyCartDelta(context.Background(), ApplyCartDeltaInput{
			OrganizationID: "org-1",
			Identifier:     product.ID,
			Previous:       4,
			Next:           11,
		})
		if err != domain.ErrInsufficientStock {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
		if repo.records[product.ID].Reserved != 4 {
			t.Fatalf("expected state unchanged on failure")
		}
	})

	t.Run("release then replay: second claim of the same hold is stale", func(t *testing.T) {
		svc, _, _ := makeSvc(
			[]domain.Product{product},
			[]domain.InventoryRecord{{ProductID: product.ID, OrganizationID: "org-1", Amount: 20, Reserved: 5}},
		)

		if _, err := svc.ApplyCartDelta(context.Background(), ApplyCartDeltaInput{
			OrganizationID: "org-1", Identifier: product.ID, Previous: 5, Next: 0,
		}); err != nil {
			t.Fatalf("release should win, got %v", err)
		}

		// The hold is gone; a second mutation still claiming previous=5
		// finds reserved < previous and must lose.
		_, err := svc.ApplyCartDelta(context.Background(), ApplyCartDeltaInput{
			OrganizationID: "org-1", Identifier: product.ID, Previous: 5, Next: 2,
		})
		if err != domain.ErrStaleHold {
			t.Fatalf("expected replayed hold to lose with ErrStaleHold, got %v", err)
		}
	})

	t.Run("missing stock record", func(t *testing.T) {
		svc, _, _ := makeSvc([]domain.Product{product}, nil)

		if _, err := svc.ApplyCartDelta(context.Background(), ApplyCartDeltaInput{
			OrganizationID: "org-1", Identifier: product.ID, Previous: 1, Next: 0,
		}); err != domain.ErrStaleHold {
			t.Fatalf("expected ErrStaleHold for prior hold on missing record, got %v", err)
		}

		if _, err := svc.ApplyCartDelta(context.Background(), ApplyCartDeltaInput{
			OrganizationID: "org-1", Identifier: product.ID, Previous: 0, Next: 1,
		}); err != domain.ErrInsufficientStock {
			t.Fatalf("expected ErrInsufficientStock on missing record, got %v", err)
		}

		level, err := svc.ApplyCartDelta(context.Background(), ApplyCartDeltaInput{
			OrganizationID: "org-1", Identifier: product.ID, Previous: 0, Next: 0,
		})
		if err != nil {
			t.Fatalf("expected zero no-op to succeed, got %v", err)
		}
		if level != (domain.StockLevel{}) {
			t.Fatalf("expected zero level, got %+v", level)
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		svc, _, _ := makeSvc([]domain.Product{product}, nil)

		_, err := svc.ApplyCartDelta(context.Background(), ApplyCartDeltaInput{
			OrganizationID: "org-1", Identifier: "missing", Previous: 0, Next: 1,
		})
		if err != domain.ErrProductNotFound {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("negative quantities are caller errors", func(t *testing.T) {
		svc, _, _ := makeSvc([]domain.Product{product}, nil)

		if _, err := svc.ApplyCartDelta(context.Background(), ApplyCartDeltaInput{
			OrganizationID: "org-1", Identifier: product.ID, Previous: -1, Next: 0,
		}); err != domain.ErrInvalidQuantity {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
		if _, err := svc.ApplyCartDelta(context.Background(), ApplyCartDeltaInput{
			OrganizationID: "org-1", Identifier: product.ID, Previous: 0, Next: -3,
		}); err != domain.ErrInvalidQuantity {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
	})
}

func TestReservationService_Reserve(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	product := domain.Product{ID: "22222222-2222-4222-8222-222222222222", OrganizationID: "org-1", Title: "Plate"}

	makeSvc := func(records []domain.InventoryRecord) (*ReservationService, *fakeStockRepo, *fakeSnapshotCache) {
		repo := newFakeStockRepo([]domain.Product{product}, records)
		c := newFakeSnapshotCache()
		return NewReservationService(repo, c, clock.NewFixed(now)), repo, c
	}

	t.Run("reserves free stock", func(t *testing.T) {
		svc, repo, c := makeSvc([]domain.InventoryRecord{
			{ProductID: product.ID, OrganizationID: "org-1", Amount: 10, Reserved: 4},
		})

		level, err := svc.Reserve(context.Background(), ReserveInput{
			OrganizationID: "org-1", Identifier: product.ID, Quantity: 6,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if level.Reserved != 10 || level.Available != 0 {
			t.Fatalf("unexpected level: %+v", level)
		}
		if repo.records[product.ID].Reserved != 10 {
			t.Fatalf("expected reserved 10, got %d", repo.records[product.ID].Reserved)
		}
		if c.invalidated["org-1"] != 1 {
			t.Fatalf("expected cache invalidation")
		}
	})

	t.Run("fails when fully reserved", func(t *testing.T) {
		svc, repo, c := makeSvc([]domain.InventoryRecord{
			{ProductID: product.ID, OrganizationID: "org-1", Amount: 10, Reserved: 10},
		})

		_, err := svc.Reserve(context.Background(), ReserveInput{
			OrganizationID: "org-1", Identifier: product.ID, Quantity: 1,
		})
		if err != domain.ErrInsufficientStock {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
		if repo.records[product.ID].Amount != 10 || repo.records[product.ID].Reserved != 10 {
			t.Fatalf("expected state unchanged")
		}
		if len(c.invalidated) != 0 {
			t.Fatalf("expected no cache invalidation on failure")
		}
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		svc, _, _ := makeSvc(nil)
		if _, err := svc.Reserve(context.Background(), ReserveInput{
			OrganizationID: "org-1", Identifier: product.ID, Quantity: 0,
		}); err != domain.ErrInvalidQuantity {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
	})
}

type fakeStockRepo struct {
	products []domain.Product
	records  map[string]*domain.InventoryRecord
}

func newFakeStockRepo(products []domain.Product, records []domain.InventoryRecord) *fakeStockRepo {
	m := make(map[string]*domain.InventoryRecord, len(records))
	for i := range records {
		rec := records[i]
		m[rec.ProductID] = &rec
	}
	return &fakeStockRepo{
		products: append([]domain.Product{}, products...),
		records:  m,
	}
}

func (f *fakeStockRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeStockRepo) ResolveProduct(_ context.Context, organizationID, identifier string) (domain.Product, error) {
	return resolveFromSlice(f.products, organizationID, identifier)
}

func (f *fakeStockRepo) UpdateReserved(_ context.Context, productID, organizationID string, previous, next int, now time.Time) (domain.StockLevel, bool, error) {
	rec, ok := f.records[productID]
	if !ok || rec.OrganizationID != organizationID {
		return domain.StockLevel{}, false, nil
	}
	if rec.Reserved < previous || rec.Amount-rec.Reserved+previous < next {
		return domain.StockLevel{}, false, nil
	}
	rec.Reserved = rec.Reserved - previous + next
	rec.UpdatedAt = now
	return rec.Level(), true, nil
}

func (f *fakeStockRepo) GetRecord(_ context.Context, productID, organizationID string) (domain.InventoryRecord, error) {
	rec, ok := f.records[productID]
	if !ok || rec.OrganizationID != organizationID {
		return domain.InventoryRecord{}, domain.ErrStockNotFound
	}
	return *rec, nil
}

// resolveFromSlice mirrors the store's precedence: id, slug, EAN, SKU.
func resolveFromSlice(products []domain.Product, organizationID, identifier string) (domain.Product, error) {
	match := func(fn func(domain.Product) bool) *domain.Product {
		for i := range products {
			if products[i].OrganizationID != organizationID {
				continue
			}
			if fn(products[i]) {
				return &products[i]
			}
		}
		return nil
	}
	if p := match(func(p domain.Product) bool { return p.ID == identifier }); p != nil {
		return *p, nil
	}
	if p := match(func(p domain.Product) bool { return p.Slug != nil && *p.Slug == identifier }); p != nil {
		return *p, nil
	}
	if p := match(func(p domain.Product) bool { return p.EAN != nil && *p.EAN == identifier }); p != nil {
		return *p, nil
	}
	if p := match(func(p domain.Product) bool { return p.SKU != nil && *p.SKU == identifier }); p != nil {
		return *p, nil
	}
	return domain.Product{}, domain.ErrProductNotFound
}

type fakeSnapshotCache struct {
	entries     map[string][]domain.InventoryItem
	invalidated map[string]int
	setCalls    map[string]int
}

func newFakeSnapshotCache() *fakeSnapshotCache {
	return &fakeSnapshotCache{
		entries:     make(map[string][]domain.InventoryItem),
		invalidated: make(map[string]int),
		setCalls:    make(map[string]int),
	}
}

func (f *fakeSnapshotCache) Get(organizationID string) ([]domain.InventoryItem, bool) {
	items, ok := f.entries[organizationID]
	return items, ok
}

func (f *fakeSnapshotCache) Set(organizationID string, items []domain.InventoryItem) {
	f.entries[organizationID] = items
	f.setCalls[organizationID]++
}

func (f *fakeSnapshotCache) Invalidate(organizationID string) {
	delete(f.entries, organizationID)
	f.invalidated[organizationID]++
}
