package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cjagercom/wub-fulfillment-service/internal/clock"
	"github.com/cjagercom/wub-fulfillment-service/internal/domain"
	"github.com/cjagercom/wub-fulfillment-service/internal/notify"
)

// FulfillmentRepository is the storage surface for order fulfillment.
// InsertLedgerEntry reports false when the (order, product) pair was already
// recorded; the Consume methods report false when their stock guard failed.
type FulfillmentRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	ResolveProduct(ctx context.Context, organizationID, identifier string) (domain.Product, error)
	InsertLedgerEntry(ctx context.Context, orderID, productID string, quantity int) (bool, error)
	DeleteLedgerEntry(ctx context.Context, orderID, productID string) error
	ConsumeDirect(ctx context.Context, productID, organizationID string, quantity int, now time.Time) (domain.InventoryRecord, bool, error)
	ConsumeReserved(ctx context.Context, productID, organizationID string, quantity int, now time.Time) (domain.InventoryRecord, bool, error)
	ListInventory(ctx context.Context, organizationID string) ([]domain.InventoryItem, error)
}

// ConsumptionPolicy selects how fulfillment decrements stock.
type ConsumptionPolicy int

const (
	// ConsumeDirect requires amount >= quantity and decrements amount
	// only. This matches deployments where carts release their own holds
	// before the order is fulfilled.
	ConsumeDirect ConsumptionPolicy = iota
	// ConsumeCommittedHold requires reserved >= quantity and decrements
	// amount and reserved together, for deployments where fulfillment
	// always follows an explicit reservation.
	ConsumeCommittedHold
)

// FulfillmentService converts an order into permanent stock decrements,
// exactly once per (order, product) pair. The whole call runs in one
// transaction; individual lines may be skipped (unknown product, already
// fulfilled) or fail their stock guard without aborting sibling lines, and
// the per-line outcome is reported back.
type FulfillmentService struct {
	repo     FulfillmentRepository
	cache    SnapshotCache
	notifier notify.LowStockNotifier
	shipper  notify.Shipper
	clock    clock.Clock
	policy   ConsumptionPolicy
	logger   zerolog.Logger
}

func NewFulfillmentService(repo FulfillmentRepository, cache SnapshotCache, notifier notify.LowStockNotifier, shipper notify.Shipper, clk clock.Clock, opts ...FulfillmentServiceOption) *FulfillmentService {
	svc := &FulfillmentService{
		repo:     repo,
		cache:    cache,
		notifier: notifier,
		shipper:  shipper,
		clock:    clk,
		policy:   ConsumeDirect,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type FulfillmentServiceOption func(*FulfillmentService)

// WithConsumptionPolicy overrides the default direct-consumption policy.
func WithConsumptionPolicy(p ConsumptionPolicy) FulfillmentServiceOption {
	return func(s *FulfillmentService) {
		s.policy = p
	}
}

// WithFulfillmentLogger sets the logger used for skipped and failed lines.
func WithFulfillmentLogger(logger zerolog.Logger) FulfillmentServiceOption {
	return func(s *FulfillmentService) {
		s.logger = logger
	}
}

type OrderItem struct {
	Identifier string
	Quantity   int
}

type FulfillOrderInput struct {
	OrganizationID string
	OrderID        string
	Items          []OrderItem
}

// FulfillmentLine is the per-line outcome of a fulfillment call. ProductID
// and Title are empty for lines whose identifier did not resolve.
type FulfillmentLine struct {
	Identifier string
	ProductID  string
	Title      string
	Quantity   int
	Status     domain.FulfillmentLineStatus
}

type FulfillOrderResult struct {
	Ok       bool
	LowCount int
	Lines    []FulfillmentLine
}

// FulfillOrder applies an order's lines to stock.
//
// Lines are first merged by raw identifier, then resolved and merged again by
// product, so a duplicated line can never double-decrement. Unknown products
// are skipped with a warning rather than failing the order. A guard failure
// on one line removes that line's just-inserted ledger entry, so a retry
// after restocking is not blocked by a dangling idempotency record, and
// processing continues with the remaining lines. Any unexpected error rolls
// the entire transaction back.
func (s *FulfillmentService) FulfillOrder(ctx context.Context, in FulfillOrderInput) (FulfillOrderResult, error) {
	if in.OrganizationID == "" {
		return FulfillOrderResult{}, domain.ErrOrganizationRequired
	}
	if in.OrderID == "" {
		return FulfillOrderResult{}, domain.ErrOrderIDRequired
	}

	type productLine struct {
		product  domain.Product
		quantity int
	}

	var (
		lines []FulfillmentLine
		low   []domain.LowStockAlert
	)

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		lines = lines[:0]
		low = low[:0]

		// Merge duplicated raw identifiers before resolving.
		keys := make([]string, 0, len(in.Items))
		byKey := make(map[string]int, len(in.Items))
		for _, it := range in.Items {
			if it.Quantity <= 0 {
				continue
			}
			if _, seen := byKey[it.Identifier]; !seen {
				keys = append(keys, it.Identifier)
			}
			byKey[it.Identifier] += it.Quantity
		}

		// Resolve and merge again by product: distinct identifiers may
		// name the same product.
		order := make([]string, 0, len(keys))
		byProduct := make(map[string]*productLine, len(keys))
		for _, key := range keys {
			product, err := s.repo.ResolveProduct(txCtx, in.OrganizationID, key)
			if err == domain.ErrProductNotFound {
				s.logger.Warn().
					Str("organization_id", in.OrganizationID).
					Str("order_id", in.OrderID).
					Str("identifier", key).
					Msg("fulfillment line skipped, product not found")
				lines = append(lines, FulfillmentLine{
					Identifier: key,
					Quantity:   byKey[key],
					Status:     domain.LineSkippedNotFound,
				})
				continue
			}
			if err != nil {
				return err
			}
			if pl, ok := byProduct[product.ID]; ok {
				pl.quantity += byKey[key]
				continue
			}
			byProduct[product.ID] = &productLine{product: product, quantity: byKey[key]}
			order = append(order, product.ID)
		}

		for _, productID := range order {
			pl := byProduct[productID]
			line := FulfillmentLine{
				ProductID: pl.product.ID,
				Title:     pl.product.Title,
				Quantity:  pl.quantity,
			}

			inserted, err := s.repo.InsertLedgerEntry(txCtx, in.OrderID, pl.product.ID, pl.quantity)
			if err != nil {
				return err
			}
			if !inserted {
				line.Status = domain.LineSkippedDuplicate
				lines = append(lines, line)
				continue
			}

			record, consumed, err := s.consume(txCtx, pl.product.ID, in.OrganizationID, pl.quantity)
			if err != nil {
				return err
			}
			if !consumed {
				if err := s.repo.DeleteLedgerEntry(txCtx, in.OrderID, pl.product.ID); err != nil {
					return err
				}
				s.logger.Warn().
					Str("organization_id", in.OrganizationID).
					Str("order_id", in.OrderID).
					Str("product_id", pl.product.ID).
					Int("quantity", pl.quantity).
					Msg("fulfillment line failed, insufficient stock")
				line.Status = domain.LineFailedInsufficient
				lines = append(lines, line)
				continue
			}

			line.Status = domain.LineApplied
			lines = append(lines, line)

			if record.Amount <= record.Threshold {
				low = append(low, domain.LowStockAlert{
					Title:     pl.product.Title,
					Amount:    record.Amount,
					Threshold: record.Threshold,
				})
			}
		}
		return nil
	})
	if err != nil {
		return FulfillOrderResult{}, err
	}

	s.refreshSnapshot(ctx, in.OrganizationID)

	if len(low) > 0 {
		s.notifier.NotifyLowStock(ctx, in.OrganizationID, low)
	}
	if shipped := shipmentLines(lines); len(shipped) > 0 {
		s.shipper.Ship(ctx, in.OrganizationID, in.OrderID, shipped)
	}

	return FulfillOrderResult{Ok: true, LowCount: len(low), Lines: lines}, nil
}

func (s *FulfillmentService) consume(ctx context.Context, productID, organizationID string, quantity int) (domain.InventoryRecord, bool, error) {
	now := s.clock.Now()
	if s.policy == ConsumeCommittedHold {
		return s.repo.ConsumeReserved(ctx, productID, organizationID, quantity, now)
	}
	return s.repo.ConsumeDirect(ctx, productID, organizationID, quantity, now)
}

// refreshSnapshot re-primes the organization's cached snapshot after commit.
// If the recompute fails the entry is invalidated instead so the next read
// fetches fresh data.
func (s *FulfillmentService) refreshSnapshot(ctx context.Context, organizationID string) {
	items, err := s.repo.ListInventory(ctx, organizationID)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("organization_id", organizationID).
			Msg("snapshot refresh failed, invalidating cache entry")
		s.cache.Invalidate(organizationID)
		return
	}
	s.cache.Set(organizationID, items)
}

func shipmentLines(lines []FulfillmentLine) []notify.ShipmentLine {
	var out []notify.ShipmentLine
	for _, l := range lines {
		if l.Status != domain.LineApplied {
			continue
		}
		out = append(out, notify.ShipmentLine{
			ProductID: l.ProductID,
			Title:     l.Title,
			Quantity:  l.Quantity,
		})
	}
	return out
}
