package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cjagercom/wub-fulfillment-service/internal/app"
	"github.com/cjagercom/wub-fulfillment-service/internal/domain"
)

// Provisioner is the minimal interface needed by the admin endpoints.
type Provisioner interface {
	CreateProduct(ctx context.Context, in app.CreateProductInput) (domain.Product, error)
	SetStock(ctx context.Context, in app.SetStockInput) (domain.StockLevel, error)
}

// HandleCreateProduct returns an HTTP handler that provisions a catalog row.
func HandleCreateProduct(svc Provisioner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createProductRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		product, err := svc.CreateProduct(r.Context(), app.CreateProductInput{
			OrganizationID: req.OrganizationID,
			Slug:           req.Slug,
			SKU:            req.SKU,
			EAN:            req.EAN,
			Title:          req.Title,
		})
		if err != nil {
			switch err {
			case domain.ErrTitleRequired:
				writeError(w, http.StatusBadRequest, codeTitleRequired, err.Error())
			case domain.ErrProductAlreadyExists:
				writeError(w, http.StatusConflict, codeProductAlreadyExists, err.Error())
			default:
				writeDomainError(w, err)
			}
			return
		}

		writeJSON(w, http.StatusCreated, createProductResponse{
			ID:             product.ID,
			OrganizationID: product.OrganizationID,
			Slug:           product.Slug,
			SKU:            product.SKU,
			EAN:            product.EAN,
			Title:          product.Title,
		})
	}
}

// HandleSetStock returns an HTTP handler that sets a product's amount and
// threshold. Amounts below the currently reserved units are rejected.
func HandleSetStock(svc Provisioner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req setStockRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		level, err := svc.SetStock(r.Context(), app.SetStockInput{
			OrganizationID: req.OrganizationID,
			Identifier:     req.ProductIDOrKey,
			Amount:         req.Amount,
			Threshold:      req.Threshold,
		})
		if err != nil {
			if err == domain.ErrReservedExceedsAmount {
				writeError(w, http.StatusConflict, codeReservedExceedsAmount, err.Error())
				return
			}
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

type createProductRequest struct {
	OrganizationID string  `json:"organization_id"`
	Slug           *string `json:"slug"`
	SKU            *string `json:"sku"`
	EAN            *string `json:"ean"`
	Title          string  `json:"title"`
}

type createProductResponse struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	Slug           *string `json:"slug"`
	SKU            *string `json:"sku"`
	EAN            *string `json:"ean"`
	Title          string  `json:"title"`
}

type setStockRequest struct {
	OrganizationID string `json:"organization_id"`
	ProductIDOrKey string `json:"product_id_or_key"`
	Amount         int    `json:"amount"`
	Threshold      int    `json:"threshold"`
}
