package http

import (
	"encoding/json"
	"net/http"

	"github.com/cjagercom/wub-fulfillment-service/internal/domain"
)

const (
	codeMethodNotAllowed      = "method_not_allowed"
	codeNotFound              = "not_found"
	codeInvalidRequestBody    = "invalid_request_body"
	codeOrganizationRequired  = "organization_id_required"
	codeIdentifierRequired    = "product_identifier_required"
	codeOrderIDRequired       = "order_id_required"
	codeTitleRequired         = "title_required"
	codeInvalidQuantity       = "invalid_quantity"
	codeInvalidID             = "invalid_id"
	codeItemsRequired         = "items_required"
	codeProductNotFound       = "product_not_found"
	codeProductAlreadyExists  = "product_already_exists"
	codeInsufficientStock     = "insufficient_stock"
	codeStaleHold             = "stale_hold"
	codeReservedExceedsAmount = "reserved_exceeds_amount"
	codeForbidden             = "forbidden"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeDomainError maps the shared sentinel errors onto statuses and stable
// codes. Handlers deal with their own operation-specific errors first and
// fall back to this.
func writeDomainError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrOrganizationRequired:
		writeError(w, http.StatusBadRequest, codeOrganizationRequired, err.Error())
	case domain.ErrIdentifierRequired:
		writeError(w, http.StatusBadRequest, codeIdentifierRequired, err.Error())
	case domain.ErrInvalidQuantity:
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case domain.ErrInvalidID:
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case domain.ErrProductNotFound:
		writeError(w, http.StatusNotFound, codeProductNotFound, err.Error())
	case domain.ErrInsufficientStock:
		writeError(w, http.StatusConflict, codeInsufficientStock, err.Error())
	case domain.ErrStaleHold:
		// Distinct from insufficient_stock so clients re-sync their view
		// instead of assuming a stock-out.
		writeError(w, http.StatusConflict, codeStaleHold, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
