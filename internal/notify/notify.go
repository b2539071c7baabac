package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cjagercom/wub-fulfillment-service/internal/domain"
)

// LowStockNotifier receives one batched report per fulfillment call whose
// decrements pushed products to or below their threshold. Fire-and-forget:
// it runs after the fulfillment transaction commits and its failure never
// rolls stock back.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, organizationID string, items []domain.LowStockAlert)
}

// Shipper hands applied order lines to the logistics provider. The real
// integration lives elsewhere; here it is a log emission.
type Shipper interface {
	Ship(ctx context.Context, organizationID, orderID string, lines []ShipmentLine)
}

type ShipmentLine struct {
	ProductID string
	Title     string
	Quantity  int
}

// LogMailer is the mock mail sink: it logs the low-stock report the way the
// real mailer would send it.
type LogMailer struct {
	logger zerolog.Logger
	to     string
}

func NewLogMailer(logger zerolog.Logger, to string) *LogMailer {
	return &LogMailer{logger: logger, to: to}
}

func (m *LogMailer) NotifyLowStock(_ context.Context, organizationID string, items []domain.LowStockAlert) {
	if len(items) == 0 {
		return
	}
	arr := zerolog.Arr()
	for _, it := range items {
		arr.Dict(zerolog.Dict().
			Str("title", it.Title).
			Int("amount", it.Amount).
			Int("threshold", it.Threshold))
	}
	m.logger.Info().
		Str("to", m.to).
		Str("organization_id", organizationID).
		Array("items", arr).
		Msg("threshold reached, low-stock report")
}

// LogShipper is the mock logistics provider.
type LogShipper struct {
	logger zerolog.Logger
}

func NewLogShipper(logger zerolog.Logger) *LogShipper {
	return &LogShipper{logger: logger}
}

func (s *LogShipper) Ship(_ context.Context, organizationID, orderID string, lines []ShipmentLine) {
	if len(lines) == 0 {
		return
	}
	arr := zerolog.Arr()
	for _, l := range lines {
		arr.Dict(zerolog.Dict().
			Str("product_id", l.ProductID).
			Str("title", l.Title).
			Int("quantity", l.Quantity))
	}
	s.logger.Info().
		Str("organization_id", organizationID).
		Str("order_id", orderID).
		Array("lines", arr).
		Msg("shipment requested")
}
