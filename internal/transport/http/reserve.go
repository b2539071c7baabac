package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cjagercom/wub-fulfillment-service/internal/app"
	"github.com/cjagercom/wub-fulfillment-service/internal/domain"
)

// StockReserver is the minimal interface needed to place a fresh hold.
type StockReserver interface {
	Reserve(ctx context.Context, in app.ReserveInput) (domain.StockLevel, error)
}

// HandleReserve returns an HTTP handler for direct reservations, used by
// callers with no prior hold to account for.
func HandleReserve(svc StockReserver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req reserveRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		level, err := svc.Reserve(r.Context(), app.ReserveInput{
			OrganizationID: req.OrganizationID,
			Identifier:     req.ProductIDOrKey,
			Quantity:       req.Quantity,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, stockLevelResponse{
			Amount:    level.Amount,
			Reserved:  level.Reserved,
			Available: level.Available,
		})
	}
}

type reserveRequest struct {
	OrganizationID string `json:"organization_id"`
	ProductIDOrKey string `json:"product_id_or_key"`
	Quantity       int    `json:"quantity"`
}
