package discount

import (
	"strings"

	"github.com/go-faster/errors"
)

// Kind identifies a single discount rule that contributed to an order's
// discount amount.
type Kind uint8

const (
	// KindFrequent is the frequent-customer discount.
	KindFrequent Kind = 1 << iota
	// KindRandom is the one-off "flash" discount applied by the random sweep.
	KindRandom
	// KindTime is the promotional window discount applied by the time sweep.
	KindTime
)

// Kinds is a set of discount kinds. The zero value means no discount was
// applied. Membership tests are exact, so eligibility checks cannot be
// confused by label formatting.
type Kinds uint8

// None reports whether no discount kind is set.
func (k Kinds) None() bool { return k == 0 }

// Has reports whether the given kind is in the set.
func (k Kinds) Has(kind Kind) bool { return k&Kinds(kind) != 0 }

// With returns a copy of the set with the given kind added.
func (k Kinds) With(kind Kind) Kinds { return k | Kinds(kind) }

// PromotionEligible reports whether an order carrying this set may still
// receive a sweep discount: nothing applied yet, or only the automatic
// frequent-customer discount.
func (k Kinds) PromotionEligible() bool {
	return k == 0 || k == Kinds(KindFrequent)
}

var kindNames = []struct {
	kind Kind
	name string
}{
	{KindFrequent, "FREQUENT"},
	{KindRandom, "RANDOM"},
	{KindTime, "TIME"},
}

// String renders the set as a comma-joined label, e.g. "FREQUENT,RANDOM".
// The empty set renders as "".
func (k Kinds) String() string {
	if k == 0 {
		return ""
	}
	parts := make([]string, 0, len(kindNames))
	for _, kn := range kindNames {
		if k.Has(kn.kind) {
			parts = append(parts, kn.name)
		}
	}
	return strings.Join(parts, ",")
}

// ParseKinds parses a comma-joined label back into a set. An empty string
// parses to the empty set.
func ParseKinds(s string) (Kinds, error) {
	var k Kinds
	if s == "" {
		return k, nil
	}
	for part := range strings.SplitSeq(s, ",") {
		matched := false
		for _, kn := range kindNames {
			if part == kn.name {
				k = k.With(kn.kind)
				matched = true
				break
			}
		}
		if !matched {
			return 0, errors.Errorf("unknown discount kind %q", part)
		}
	}
	return k, nil
}
