package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cjagercom/wub-fulfillment-service/internal/clock"
	"github.com/cjagercom/wub-fulfillment-service/internal/domain"
)

// AdminRepository is the provisioning surface: catalog inserts and guarded
// stock upserts. UpsertStock reports false when the new amount would fall
// below the units currently reserved.
type AdminRepository interface {
	CreateProduct(ctx context.Context, product domain.Product) error
	ResolveProduct(ctx context.Context, organizationID, identifier string) (domain.Product, error)
	UpsertStock(ctx context.Context, productID, organizationID string, amount, threshold int, now time.Time) (domain.StockLevel, bool, error)
}

// AdminService provisions catalog rows and sets stock levels. The engines
// treat the catalog as read-only; this is the operational side door that
// seeds it.
type AdminService struct {
	repo  AdminRepository
	cache SnapshotCache
	clock clock.Clock
}

func NewAdminService(repo AdminRepository, cache SnapshotCache, clk clock.Clock) *AdminService {
	return &AdminService{
		repo:  repo,
		cache: cache,
		clock: clk,
	}
}

type CreateProductInput struct {
	OrganizationID string
	Slug           *string
	SKU            *string
	EAN            *string
	Title          string
}

func (s *AdminService) CreateProduct(ctx context.Context, in CreateProductInput) (domain.Product, error) {
	if in.OrganizationID == "" {
		return domain.Product{}, domain.ErrOrganizationRequired
	}
	if in.Title == "" {
		return domain.Product{}, domain.ErrTitleRequired
	}

	product := domain.Product{
		ID:             uuid.NewString(),
		OrganizationID: in.OrganizationID,
		Slug:           in.Slug,
		SKU:            in.SKU,
		EAN:            in.EAN,
		Title:          in.Title,
		CreatedAt:      s.clock.Now(),
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return domain.Product{}, err
	}

	// The list query joins the catalog, so a cached snapshot would hide the
	// new product until some other mutation dropped it.
	s.cache.Invalidate(in.OrganizationID)
	return product, nil
}

type SetStockInput struct {
	OrganizationID string
	Identifier     string
	Amount         int
	Threshold      int
}

// SetStock upserts the product's stock record. Lowering amount below the
// currently reserved units is rejected with ErrReservedExceedsAmount rather
// than clamped.
func (s *AdminService) SetStock(ctx context.Context, in SetStockInput) (domain.StockLevel, error) {
	if in.OrganizationID == "" {
		return domain.StockLevel{}, domain.ErrOrganizationRequired
	}
	if in.Identifier == "" {
		return domain.StockLevel{}, domain.ErrIdentifierRequired
	}
	if in.Amount < 0 || in.Threshold < 0 {
		return domain.StockLevel{}, domain.ErrInvalidQuantity
	}

	product, err := s.repo.ResolveProduct(ctx, in.OrganizationID, in.Identifier)
	if err != nil {
		return domain.StockLevel{}, err
	}

	level, ok, err := s.repo.UpsertStock(ctx, product.ID, in.OrganizationID, in.Amount, in.Threshold, s.clock.Now())
	if err != nil {
		return domain.StockLevel{}, err
	}
	if !ok {
		return domain.StockLevel{}, domain.ErrReservedExceedsAmount
	}

	s.cache.Invalidate(in.OrganizationID)
	return level, nil
}
