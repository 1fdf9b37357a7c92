// Package types - Slab catalog types
package types

import (
	"math"

	"github.com/shopspring/decimal"
)

// Slab is a pricing tier covering an inclusive user-count range
type Slab struct {
	// ID uniquely identifies the slab in its catalog
	ID string `json:"id" yaml:"id"`

	// Name is the display label
	Name string `json:"name" yaml:"name"`

	// MinUsers is the first user position covered (inclusive)
	MinUsers int `json:"min_users" yaml:"min_users"`

	// MaxUsers is the last user position covered (inclusive)
	MaxUsers int `json:"max_users" yaml:"max_users"`

	// MonthlyPrice is the per-user price on the monthly cycle
	MonthlyPrice decimal.Decimal `json:"monthly_price" yaml:"monthly_price"`

	// YearlyPrice is the per-user price on the yearly cycle
	YearlyPrice decimal.Decimal `json:"yearly_price" yaml:"yearly_price"`

	// FreeExternalUsersPerInternalUser is a bonus multiplier, not priced
	FreeExternalUsersPerInternalUser int `json:"free_external_users_per_internal_user" yaml:"free_external_users_per_internal_user"`
}

// PriceFor returns the per-user price for a cycle.
// Unknown cycles and negative prices yield zero.
func (s Slab) PriceFor(cycle BillingCycle) decimal.Decimal {
	var p decimal.Decimal
	switch cycle {
	case CycleMonthly:
		p = s.MonthlyPrice
	case CycleYearly:
		p = s.YearlyPrice
	default:
		return decimal.Zero
	}
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// Size returns the number of user positions the slab covers,
// saturating at math.MaxInt for open-ended ranges
func (s Slab) Size() int {
	if s.MaxUsers < s.MinUsers {
		return 0
	}
	size := s.MaxUsers - s.MinUsers
	if size < math.MaxInt {
		size++
	}
	return size
}

// Contains reports whether a user count falls within the slab range
func (s Slab) Contains(userCount int) bool {
	return userCount >= s.MinUsers && userCount <= s.MaxUsers
}

// IsWellFormed reports whether the range can hold users at all
func (s Slab) IsWellFormed() bool {
	return s.MinUsers >= 0 && s.MaxUsers >= s.MinUsers
}
