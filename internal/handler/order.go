package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"catalog-orders/internal/domain/order"
)

// orderDTO is the wire representation of an order.
type orderDTO struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customer_id"`
	Lines         []lineDTO       `json:"lines"`
	Total         decimal.Decimal `json:"total"`
	Discount      decimal.Decimal `json:"discount"`
	DiscountKinds string          `json:"discount_kinds,omitempty"`
	Status        string          `json:"status"`
	Visible       bool            `json:"visible"`
	OrderDate     time.Time       `json:"order_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

type lineDTO struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

func toOrderDTO(o *order.Order) orderDTO {
	lines := make([]lineDTO, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = lineDTO{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal(),
		}
	}
	return orderDTO{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		Lines:         lines,
		Total:         o.Total,
		Discount:      o.Discount,
		DiscountKinds: o.DiscountKinds.String(),
		Status:        string(o.Status),
		Visible:       o.Visible,
		OrderDate:     o.OrderDate,
		CreatedAt:     o.CreatedAt,
	}
}

func toOrderDTOs(orders []order.Order) []orderDTO {
	out := make([]orderDTO, len(orders))
	for i := range orders {
		out[i] = toOrderDTO(&orders[i])
	}
	return out
}

type createOrderRequest struct {
	CustomerID string `json:"customer_id"`
	Items      []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "customer_id required")
		return
	}

	items := make([]order.CartItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.CartItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	o, err := h.orders.CreateOrder(r.Context(), req.CustomerID, items)
	if err != nil {
		mapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		mapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

// listOrders serves both the customer view (customer_id given) and the
// admin view over all visible orders (no filter).
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)

	var (
		orders []order.Order
		err    error
	)
	if customerID := r.URL.Query().Get("customer_id"); customerID != "" {
		orders, err = h.orders.ListCustomerOrders(r.Context(), customerID, page)
	} else {
		orders, err = h.orders.ListOrders(r.Context(), page)
	}
	if err != nil {
		mapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTOs(orders))
}

func pageFromQuery(r *http.Request) order.Page {
	page := order.Page{Limit: 20}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			page.Offset = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			page.Limit = n
		}
	}
	return page
}

type updateStatusRequest struct {
	Status  string `json:"status"`
	ActorID string `json:"actor_id"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := order.ParseStatus(req.Status)
	if err != nil {
		mapDomainError(w, r, err)
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), status, req.ActorID)
	if err != nil {
		mapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	actorID := r.URL.Query().Get("actor_id")
	if err := h.orders.Delete(r.Context(), r.PathValue("id"), actorID); err != nil {
		mapDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
