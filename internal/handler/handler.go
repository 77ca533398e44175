// Package handler exposes the order service over HTTP. It is a thin
// adapter: request decoding, delegation to the domain, and error mapping.
package handler

import (
	"net/http"

	"catalog-orders/internal/domain/discount"
	"catalog-orders/internal/domain/order"
	"catalog-orders/internal/domain/product"
	"catalog-orders/internal/domain/report"
)

// Handler routes API requests to the order service and repositories.
type Handler struct {
	orders   *order.Service
	products product.Repository
	configs  discount.Repository
	reports  report.Repository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	orders *order.Service,
	products product.Repository,
	configs discount.Repository,
	reports report.Repository,
) *Handler {
	return &Handler{
		orders:   orders,
		products: products,
		configs:  configs,
		reports:  reports,
	}
}

// Register attaches all API routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders", h.createOrder)
	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("PATCH /api/orders/{id}/status", h.updateOrderStatus)
	mux.HandleFunc("DELETE /api/orders/{id}", h.deleteOrder)

	mux.HandleFunc("POST /api/promotions/random", h.applyRandomDiscount)
	mux.HandleFunc("POST /api/promotions/time", h.applyTimeDiscount)

	mux.HandleFunc("GET /api/discount-config", h.getDiscountConfig)
	mux.HandleFunc("PUT /api/discount-config", h.putDiscountConfig)

	mux.HandleFunc("GET /api/products", h.listProducts)

	mux.HandleFunc("GET /api/reports/customers/frequent", h.topCustomers)
	mux.HandleFunc("GET /api/reports/products/top-selling", h.topSellingProducts)
}
