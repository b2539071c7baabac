package app

import (
	"context"
	"time"

	"github.com/cjagercom/wub-fulfillment-service/internal/clock"
	"github.com/cjagercom/wub-fulfillment-service/internal/domain"
)

// StockRepository is the storage surface the reservation engine needs. All
// mutations run inside WithTx; UpdateReserved applies the guarded
// read-modify-write atomically and reports whether the guards held.
type StockRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	ResolveProduct(ctx context.Context, organizationID, identifier string) (domain.Product, error)
	UpdateReserved(ctx context.Context, productID, organizationID string, previous, next int, now time.Time) (domain.StockLevel, bool, error)
	GetRecord(ctx context.Context, productID, organizationID string) (domain.InventoryRecord, error)
}

// SnapshotCache is the per-organization inventory snapshot cache shared by
// the read path and invalidated by every mutation.
type SnapshotCache interface {
	Get(organizationID string) ([]domain.InventoryItem, bool)
	Set(organizationID string, items []domain.InventoryItem)
	Invalidate(organizationID string)
}

// ReservationService moves reserved stock in response to cart changes.
//
// The canonical concurrency strategy is a direct optimistic lock on the
// reserved column: a cart submits its (previous, next) quantities and the
// store applies reserved := reserved - previous + next only while
// reserved >= previous and amount - reserved + previous >= next. A cart
// whose previous no longer matches reality loses with ErrStaleHold and must
// re-read before retrying.
type ReservationService struct {
	repo  StockRepository
	cache SnapshotCache
	clock clock.Clock
}

func NewReservationService(repo StockRepository, cache SnapshotCache, clk clock.Clock) *ReservationService {
	return &ReservationService{
		repo:  repo,
		cache: cache,
		clock: clk,
	}
}

type ApplyCartDeltaInput struct {
	OrganizationID string
	Identifier     string
	// CartID identifies the submitting cart. With the direct optimistic
	// lock it is carried for auditing only; the per-cart ledger variant
	// would key holds on it.
	CartID   string
	Previous int
	Next     int
}

// ApplyCartDelta moves a cart's hold from Previous units to Next units.
//
// Replaying the same (previous, next) pair is harmless only while no other
// mutation intervened; a successful call replayed after the fact
// double-applies the delta, so callers must track their prior quantity
// accurately.
func (s *ReservationService) ApplyCartDelta(ctx context.Context, in ApplyCartDeltaInput) (domain.StockLevel, error) {
	if in.OrganizationID == "" {
		return domain.StockLevel{}, domain.ErrOrganizationRequired
	}
	if in.Identifier == "" {
		return domain.StockLevel{}, domain.ErrIdentifierRequired
	}
	if in.Previous < 0 || in.Next < 0 {
		return domain.StockLevel{}, domain.ErrInvalidQuantity
	}

	var level domain.StockLevel
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		product, err := s.repo.ResolveProduct(txCtx, in.OrganizationID, in.Identifier)
		if err != nil {
			return err
		}

		updated, applied, err := s.repo.UpdateReserved(txCtx, product.ID, in.OrganizationID, in.Previous, in.Next, s.clock.Now())
		if err != nil {
			return err
		}
		if applied {
			level = updated
			return nil
		}

		// Guards failed: re-read inside the same transaction to tell a
		// stale hold apart from a genuine stock-out.
		record, err := s.repo.GetRecord(txCtx, product.ID, in.OrganizationID)
		if err == domain.ErrStockNotFound {
			// No stock row means zero on hand and zero reserved.
			if in.Previous > 0 {
				return domain.ErrStaleHold
			}
			if in.Next > 0 {
				return domain.ErrInsufficientStock
			}
			level = domain.StockLevel{}
			return nil
		}
		if err != nil {
			return err
		}
		if record.Reserved < in.Previous {
			return domain.ErrStaleHold
		}
		return domain.ErrInsufficientStock
	})
	if err != nil {
		return domain.StockLevel{}, err
	}

	s.cache.Invalidate(in.OrganizationID)
	return level, nil
}

type ReserveInput struct {
	OrganizationID string
	Identifier     string
	Quantity       int
}

// Reserve places a fresh hold with no prior quantity to account for:
// it requires amount - reserved >= quantity and increments reserved.
// A stale-hold outcome is impossible here, so the only domain failure is
// ErrInsufficientStock.
func (s *ReservationService) Reserve(ctx context.Context, in ReserveInput) (domain.StockLevel, error) {
	if in.OrganizationID == "" {
		return domain.StockLevel{}, domain.ErrOrganizationRequired
	}
	if in.Identifier == "" {
		return domain.StockLevel{}, domain.ErrIdentifierRequired
	}
	if in.Quantity <= 0 {
		return domain.StockLevel{}, domain.ErrInvalidQuantity
	}

	var level domain.StockLevel
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		product, err := s.repo.ResolveProduct(txCtx, in.OrganizationID, in.Identifier)
		if err != nil {
			return err
		}

		updated, applied, err := s.repo.UpdateReserved(txCtx, product.ID, in.OrganizationID, 0, in.Quantity, s.clock.Now())
		if err != nil {
			return err
		}
		if !applied {
			return domain.ErrInsufficientStock
		}
		level = updated
		return nil
	})
	if err != nil {
		return domain.StockLevel{}, err
	}

	s.cache.Invalidate(in.OrganizationID)
	return level, nil
}
