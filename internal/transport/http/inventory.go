package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/cjagercom/wub-fulfillment-service/internal/domain"
)

// InventoryReader is the minimal interface needed by the read endpoints.
type InventoryReader interface {
	ListInventory(ctx context.Context, organizationID string) ([]domain.InventoryItem, error)
	GetItem(ctx context.Context, organizationID, identifier string) (domain.InventoryItem, error)
}

// HandleListInventory returns an HTTP handler serving the organization's
// inventory snapshot, cache-first.
func HandleListInventory(svc InventoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		items, err := svc.ListInventory(r.Context(), r.URL.Query().Get("organization_id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]inventoryItemResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toItemResponse(it))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// HandleGetItem returns an HTTP handler serving one product's inventory,
// looked up by canonical id, slug, SKU or EAN.
func HandleGetItem(svc InventoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		identifier, ok := parseItemPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		item, err := svc.GetItem(r.Context(), r.URL.Query().Get("organization_id"), identifier)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(item))
	}
}

func parseItemPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 4 {
		return "", false
	}
	if parts[0] != "api" || parts[1] != "v1" || parts[2] != "inventory" {
		return "", false
	}
	if parts[3] == "" {
		return "", false
	}
	return parts[3], true
}

type inventoryItemResponse struct {
	ProductID      string  `json:"product_id"`
	OrganizationID string  `json:"organization_id"`
	Slug           *string `json:"slug"`
	SKU            *string `json:"sku"`
	EAN            *string `json:"ean"`
	Title          string  `json:"title"`
	Amount         int     `json:"amount"`
	Reserved       int     `json:"reserved"`
	Available      int     `json:"available"`
	Threshold      int     `json:"threshold"`
}

func toItemResponse(it domain.InventoryItem) inventoryItemResponse {
	return inventoryItemResponse{
		ProductID:      it.ProductID,
		OrganizationID: it.OrganizationID,
		Slug:           it.Slug,
		SKU:            it.SKU,
		EAN:            it.EAN,
		Title:          it.Title,
		Amount:         it.Amount,
		Reserved:       it.Reserved,
		Available:      it.Available,
		Threshold:      it.Threshold,
	}
}
