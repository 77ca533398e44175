package handler

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
)

const defaultReportLimit = 10

type customerActivityDTO struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Frequent   bool   `json:"frequent"`
	OrderCount int    `json:"order_count"`
}

type productSalesDTO struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitsSold   int             `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

func reportLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			return n
		}
	}
	return defaultReportLimit
}

func (h *Handler) topCustomers(w http.ResponseWriter, r *http.Request) {
	activity, err := h.reports.TopCustomersByOrderCount(r.Context(), reportLimit(r))
	if err != nil {
		mapDomainError(w, r, err)
		return
	}

	out := make([]customerActivityDTO, len(activity))
	for i, c := range activity {
		out[i] = customerActivityDTO{
			CustomerID: c.CustomerID,
			Name:       c.Name,
			Frequent:   c.Frequent,
			OrderCount: c.OrderCount,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) topSellingProducts(w http.ResponseWriter, r *http.Request) {
	sales, err := h.reports.TopSellingProducts(r.Context(), reportLimit(r))
	if err != nil {
		mapDomainError(w, r, err)
		return
	}

	out := make([]productSalesDTO, len(sales))
	for i, p := range sales {
		out[i] = productSalesDTO{
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			UnitsSold:   p.UnitsSold,
			Revenue:     p.Revenue,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
