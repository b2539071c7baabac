package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cjagercom/wub-fulfillment-service/internal/app"
	"github.com/cjagercom/wub-fulfillment-service/internal/domain"
)

// CartReserver is the minimal interface needed to apply a cart change.
type CartReserver interface {
	ApplyCartDelta(ctx context.Context, in app.ApplyCartDeltaInput) (domain.StockLevel, error)
}

// HandleCartUpdate returns an HTTP handler that moves a cart's hold from its
// previous quantity to the submitted one.
func HandleCartUpdate(svc CartReserver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req cartUpdateRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		level, err := svc.ApplyCartDelta(r.Context(), app.ApplyCartDeltaInput{
			OrganizationID: req.OrganizationID,
			Identifier:     req.ProductIDOrKey,
			CartID:         req.CartID,
			Previous:       req.PreviousQuantity,
			Next:           req.Quantity,
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

type cartUpdateRequest struct {
	OrganizationID   string `json:"organization_id"`
	ProductIDOrKey   string `json:"product_id_or_key"`
	CartID           string `json:"cart_id"`
	Quantity         int    `json:"quantity"`
	PreviousQuantity int    `json:"previous_quantity"`
}

type stockLevelResponse struct {
	Amount    int `json:"amount"`
	Reserved  int `json:"reserved"`
	Available int `json:"available"`
}
