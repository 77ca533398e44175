package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"catalog-orders/internal/domain/discount"
	"catalog-orders/internal/domain/order"
)

type sweepRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (h *Handler) applyRandomDiscount(w http.ResponseWriter, r *http.Request) {
	h.runSweep(w, r, h.orders.ApplyRandomDiscount)
}

func (h *Handler) applyTimeDiscount(w http.ResponseWriter, r *http.Request) {
	h.runSweep(w, r, h.orders.ApplyTimeDiscount)
}

func (h *Handler) runSweep(
	w http.ResponseWriter,
	r *http.Request,
	sweep func(ctx context.Context, start, end time.Time) ([]order.Order, error),
) {
	var req sweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Start.IsZero() || req.End.IsZero() || req.End.Before(req.Start) {
		writeError(w, http.StatusBadRequest, "start and end must form a valid range")
		return
	}

	updated, err := sweep(r.Context(), req.Start, req.End)
	if err != nil {
		mapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTOs(updated))
}

// configDTO is the wire representation of a discount config.
type configDTO struct {
	ID              string          `json:"id,omitempty"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	TimePercent     decimal.Decimal `json:"time_percent"`
	RandomPercent   decimal.Decimal `json:"random_percent"`
	FrequentPercent decimal.Decimal `json:"frequent_percent"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at,omitempty"`
}

func (h *Handler) getDiscountConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configs.FindActive(r.Context())
	if err != nil {
		mapDomainError(w, r, err)
		return
	}
	if cfg == nil {
		writeError(w, http.StatusNotFound, "no active discount config")
		return
	}
	writeJSON(w, http.StatusOK, configDTO{
		ID:              cfg.ID,
		StartDate:       cfg.StartDate,
		EndDate:         cfg.EndDate,
		TimePercent:     cfg.TimePercent,
		RandomPercent:   cfg.RandomPercent,
		FrequentPercent: cfg.FrequentPercent,
		Active:          cfg.Active,
		CreatedAt:       cfg.CreatedAt,
	})
}

func (h *Handler) putDiscountConfig(w http.ResponseWriter, r *http.Request) {
	var req configDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validPercent(req.TimePercent) || !validPercent(req.RandomPercent) || !validPercent(req.FrequentPercent) {
		writeError(w, http.StatusBadRequest, "percentages must be within [0, 100]")
		return
	}
	if !req.EndDate.After(req.StartDate) {
		writeError(w, http.StatusBadRequest, "end_date must be after start_date")
		return
	}

	cfg := &discount.Config{
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		TimePercent:     req.TimePercent,
		RandomPercent:   req.RandomPercent,
		FrequentPercent: req.FrequentPercent,
		Active:          req.Active,
	}
	if err := h.configs.Save(r.Context(), cfg); err != nil {
		mapDomainError(w, r, err)
		return
	}

	req.ID = cfg.ID
	req.CreatedAt = cfg.CreatedAt
	writeJSON(w, http.StatusCreated, req)
}

var percentMax = decimal.NewFromInt(100)

func validPercent(v decimal.Decimal) bool {
	return !v.IsNegative() && v.LessThanOrEqual(percentMax)
}
