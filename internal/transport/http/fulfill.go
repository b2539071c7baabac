package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cjagercom/wub-fulfillment-service/internal/app"
	"github.com/cjagercom/wub-fulfillment-service/internal/domain"
)

// OrderFulfiller is the minimal interface needed to fulfill an order.
type OrderFulfiller interface {
	FulfillOrder(ctx context.Context, in app.FulfillOrderInput) (app.FulfillOrderResult, error)
}

// HandleFulfillOrder returns an HTTP handler that commits an order's lines
// to stock. Safe to retry: replayed (order, product) pairs are skipped.
func HandleFulfillOrder(svc OrderFulfiller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req fulfillOrderRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if len(req.Items) == 0 {
			writeError(w, http.StatusBadRequest, codeItemsRequired, "items are required")
			return
		}

		items := make([]app.OrderItem, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, app.OrderItem{
				Identifier: it.ProductIDOrKey,
				Quantity:   it.Quantity,
			})
		}

		res, err := svc.FulfillOrder(r.Context(), app.FulfillOrderInput{
			OrganizationID: req.OrganizationID,
			OrderID:        req.OrderID,
			Items:          items,
		})
		if err != nil {
			if err == domain.ErrOrderIDRequired {
				writeError(w, http.StatusBadRequest, codeOrderIDRequired, err.Error())
				return
			}
			writeDomainError(w, err)
			return
		}

		lines := make([]fulfillmentLineResponse, 0, len(res.Lines))
		for _, l := range res.Lines {
			lines = append(lines, fulfillmentLineResponse{
				Identifier: l.Identifier,
				ProductID:  l.ProductID,
				Title:      l.Title,
				Quantity:   l.Quantity,
				Status:     string(l.Status),
			})
		}

		writeJSON(w, http.StatusOK, fulfillOrderResponse{
			Ok:       res.Ok,
			LowCount: res.LowCount,
			Lines:    lines,
		})
	}
}

type fulfillOrderRequest struct {
	OrganizationID string             `json:"organization_id"`
	OrderID        string             `json:"order_id"`
	Items          []fulfillOrderItem `json:"items"`
}

type fulfillOrderItem struct {
	ProductIDOrKey string `json:"product_id_or_key"`
	Quantity       int    `json:"quantity"`
}

type fulfillOrderResponse struct {
	Ok       bool                      `json:"ok"`
	LowCount int                       `json:"low_count"`
	Lines    []fulfillmentLineResponse `json:"lines"`
}

type fulfillmentLineResponse struct {
	Identifier string `json:"identifier,omitempty"`
	ProductID  string `json:"product_id,omitempty"`
	Title      string `json:"title,omitempty"`
	Quantity   int    `json:"quantity"`
	Status     string `json:"status"`
}
