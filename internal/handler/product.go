package handler

import (
	"net/http"

	"github.com/shopspring/decimal"
)

type productDTO struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListActive(r.Context())
	if err != nil {
		mapDomainError(w, r, err)
		return
	}

	out := make([]productDTO, len(products))
	for i, p := range products {
		out[i] = productDTO{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock}
	}
	writeJSON(w, http.StatusOK, out)
}
