// Package types - Pricing result types
package types

import "github.com/shopspring/decimal"

// LineItem is the charge for the users allocated to one slab
type LineItem struct {
	// Slab is the slab these users were priced at
	Slab Slab `json:"slab"`

	// Users is the number of users allocated to the slab
	Users int `json:"users"`

	// PricePerUser is the slab price for the requested cycle
	PricePerUser decimal.Decimal `json:"price_per_user"`

	// Total is Users * PricePerUser, unrounded
	Total decimal.Decimal `json:"total"`

	// Overflow marks users beyond the highest slab, billed at its rate
	Overflow bool `json:"overflow,omitempty"`
}

// PricingResult is the output of a tiered pricing calculation.
// It is built fresh per calculation and never cached.
type PricingResult struct {
	// TotalAmount is the sum of all line totals, unrounded
	TotalAmount decimal.Decimal `json:"total_amount"`

	// Breakdown is ordered by ascending slab position
	Breakdown []LineItem `json:"breakdown"`
}

// ZeroResult returns the result used for degenerate input
func ZeroResult() PricingResult {
	return PricingResult{
		TotalAmount: decimal.Zero,
		Breakdown:   []LineItem{},
	}
}

// Users returns the total users across all lines
func (r PricingResult) Users() int {
	n := 0
	for _, li := range r.Breakdown {
		n += li.Users
	}
	return n
}

// IsZero reports whether nothing was billed
func (r PricingResult) IsZero() bool {
	return len(r.Breakdown) == 0 && r.TotalAmount.IsZero()
}
