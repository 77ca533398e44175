package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"catalog-orders/internal/domain/audit"
	"catalog-orders/internal/domain/customer"
	"catalog-orders/internal/domain/discount"
)

// ApplyRandomDiscount selects exactly one eligible pending order in
// [start, end] uniformly at random and applies the flash discount to it.
// Eligible means visible and not yet promotionally discounted (no kinds, or
// only the automatic frequent-customer kind). Returns an empty slice when
// nothing is eligible.
func (s *Service) ApplyRandomDiscount(ctx context.Context, start, end time.Time) ([]Order, error) {
	eligible, cfg, err := s.sweepCandidates(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		return []Order{}, nil
	}

	selected := &eligible[s.pick(len(eligible))]
	var entry audit.Entry
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		entry, err = s.applyPromotion(ctx, selected, true, cfg)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, entry)
	return []Order{*selected}, nil
}

// ApplyTimeDiscount applies the time-window discount to every eligible
// pending order in [start, end]. Orders already carrying a promotional
// discount are skipped, which makes a repeat sweep over the same range a
// no-op. The whole sweep is one transaction: a failure on any order rolls
// back every discount applied so far.
func (s *Service) ApplyTimeDiscount(ctx context.Context, start, end time.Time) ([]Order, error) {
	eligible, cfg, err := s.sweepCandidates(ctx, start, end)
	if err != nil {
		return nil, err
	}

	updated := make([]Order, 0, len(eligible))
	entries := make([]audit.Entry, 0, len(eligible))
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		for i := range eligible {
			o := &eligible[i]
			entry, err := s.applyPromotion(ctx, o, false, cfg)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
			updated = append(updated, *o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		s.recordAudit(ctx, e)
	}
	return updated, nil
}

// sweepCandidates loads the pending orders in range, filters them down to
// the promotion-eligible set, and fetches the active discount config once
// for the whole sweep.
func (s *Service) sweepCandidates(ctx context.Context, start, end time.Time) ([]Order, *discount.Config, error) {
	cfg, err := s.configs.FindActive(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "find active discount config")
	}

	inRange, err := s.orders.FindByDateRangeAndStatus(ctx, start, end, StatusPending)
	if err != nil {
		return nil, nil, errors.Wrap(err, "find pending orders in range")
	}

	eligible := make([]Order, 0, len(inRange))
	for _, o := range inRange {
		if o.Visible && o.DiscountKinds.PromotionEligible() {
			eligible = append(eligible, o)
		}
	}
	return eligible, cfg, nil
}

// applyPromotion recomputes the order's discount from its pre-discount base
// (total + discount already applied), so repeated sweeps never compound on
// an already-discounted total, then persists the change. The returned audit
// entry is recorded by the caller after the sweep transaction commits.
func (s *Service) applyPromotion(ctx context.Context, o *Order, randomPick bool, cfg *discount.Config) (audit.Entry, error) {
	frequent := false
	cust, err := s.customers.GetByID(ctx, o.CustomerID)
	switch {
	case err == nil:
		frequent = cust.Frequent
	case errors.Is(err, customer.ErrNotFound):
		// Orphaned order: treat as non-frequent rather than failing the sweep.
	default:
		return audit.Entry{}, errors.Wrapf(err, "resolve customer %s", o.CustomerID)
	}

	oldState := snapshot(o)
	base := o.Total.Add(o.Discount)
	newDiscount := discount.Compute(base, randomPick, frequent, cfg, s.now())

	o.Total = base.Sub(newDiscount)
	o.Discount = newDiscount

	kinds := discount.Kinds(0)
	if randomPick {
		kinds = kinds.With(discount.KindRandom)
	} else {
		kinds = kinds.With(discount.KindTime)
	}
	if frequent {
		kinds = kinds.With(discount.KindFrequent)
	}
	o.DiscountKinds = kinds

	if err := s.orders.Update(ctx, o); err != nil {
		return audit.Entry{}, errors.Wrapf(err, "update order %s", o.ID)
	}

	return audit.Entry{
		Entity:   "Order",
		EntityID: o.ID,
		Action:   audit.ActionDiscount,
		OldValue: oldState,
		NewValue: snapshot(o),
	}, nil
}
