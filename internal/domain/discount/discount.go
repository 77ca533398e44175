// Package discount implements the layered discount policy: the automatic
// frequent-customer rule, the promotional random and time rules, and the
// configuration record that parameterises them.
package discount

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DefaultFrequentPercent is the frequent-customer percentage used when no
// discount config is in effect.
var DefaultFrequentPercent = decimal.NewFromInt(5)

// Config is a versioned promotional configuration. Only the most recently
// created active record is consulted; it is fetched once per operation and
// passed explicitly into Compute, never read as ambient state.
type Config struct {
	ID              string
	StartDate       time.Time
	EndDate         time.Time
	TimePercent     decimal.Decimal
	RandomPercent   decimal.Decimal
	FrequentPercent decimal.Decimal
	Active          bool
	CreatedAt       time.Time
}

// InEffect reports whether the config is active and now falls strictly
// between its start and end dates. Safe to call on a nil receiver.
func (c *Config) InEffect(now time.Time) bool {
	return c != nil && c.Active && now.After(c.StartDate) && now.Before(c.EndDate)
}

// Repository provides versioned access to discount configs.
type Repository interface {
	// FindActive returns the most recently created active config, or
	// (nil, nil) when none exists.
	FindActive(ctx context.Context) (*Config, error)
	// Save persists a new config version and fills in its ID and CreatedAt.
	Save(ctx context.Context, cfg *Config) error
}

// Compute derives the discount amount for base. Percentages are summed as
// points and converted to an amount once, rounded half-up to 2 decimal
// places:
//
//   - frequent customers always get the frequent-customer percentage: the
//     configured one when cfg is in effect, DefaultFrequentPercent otherwise;
//   - when cfg is in effect, randomPick selects the random percentage,
//     otherwise the time percentage applies — never both in one call.
//
// The function is pure: identical inputs produce identical outputs.
func Compute(base decimal.Decimal, randomPick, frequent bool, cfg *Config, now time.Time) decimal.Decimal {
	pct := decimal.Zero

	if frequent {
		if cfg.InEffect(now) {
			pct = pct.Add(cfg.FrequentPercent)
		} else {
			pct = pct.Add(DefaultFrequentPercent)
		}
	}

	if cfg.InEffect(now) {
		if randomPick {
			pct = pct.Add(cfg.RandomPercent)
		} else {
			pct = pct.Add(cfg.TimePercent)
		}
	}

	if pct.IsZero() {
		return decimal.Zero
	}
	return base.Mul(pct).Div(hundred).Round(2)
}
