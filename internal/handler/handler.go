// Package handler exposes the point-of-sale domain over a REST API.
// Responses use envelope bodies ({"unit": ...}, {"receipt": ...}); errors
// are {"error":{"message": ...}} with NotFound mapped to 404, AlreadyExists
// to 409, and Closed to 403.
package handler

import (
	"net/http"

	"github.com/xenking/pos-store/internal/domain/checkout"
	"github.com/xenking/pos-store/internal/domain/product"
	"github.com/xenking/pos-store/internal/domain/receipt"
	"github.com/xenking/pos-store/internal/domain/unit"
)

// Handler translates HTTP requests into domain calls.
type Handler struct {
	units    unit.Repository
	products product.Repository
	receipts receipt.Repository
	checkout *checkout.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	units unit.Repository,
	products product.Repository,
	receipts receipt.Repository,
	checkoutSvc *checkout.Service,
) *Handler {
	return &Handler{
		units:    units,
		products: products,
		receipts: receipts,
		checkout: checkoutSvc,
	}
}

// Routes returns a mux with all API routes registered.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /units", h.createUnit)
	mux.HandleFunc("GET /units", h.listUnits)
	mux.HandleFunc("GET /units/{id}", h.getUnit)

	mux.HandleFunc("POST /products", h.createProduct)
	mux.HandleFunc("GET /products", h.listProducts)
	mux.HandleFunc("GET /products/{id}", h.getProduct)
	mux.HandleFunc("PATCH /products/{id}", h.updateProductPrice)

	mux.HandleFunc("POST /receipts", h.createReceipt)
	mux.HandleFunc("GET /receipts/{id}", h.getReceipt)
	mux.HandleFunc("PATCH /receipts/{id}", h.closeReceipt)
	mux.HandleFunc("DELETE /receipts/{id}", h.deleteReceipt)
	mux.HandleFunc("POST /receipts/{id}/products", h.addReceiptProduct)
	mux.HandleFunc("GET /receipts/{id}/quote", h.quoteReceipt)

	mux.HandleFunc("GET /sales", h.salesReport)

	return mux
}
