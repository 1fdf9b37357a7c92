// Package pricing - Tiered slab pricing
// Users are priced by the slab their ordinal position falls into,
// not by the single slab containing the total count.
package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"slab-pricing/core/types"
)

// CalculateTieredPricing splits userCount across the slab ranges and prices
// each share at that slab's rate for the cycle.
//
// Degenerate input (no usable slabs, userCount < 1) yields the zero result.
// Users beyond the highest slab are billed at its rate on a separate
// overflow line. Totals are not rounded.
func CalculateTieredPricing(slabs []types.Slab, userCount int, cycle types.BillingCycle) types.PricingResult {
	if userCount < 1 || len(slabs) == 0 {
		return types.ZeroResult()
	}

	sorted := usableSlabs(slabs)
	if len(sorted) == 0 {
		return types.ZeroResult()
	}

	result := types.ZeroResult()
	allocated := 0

	for _, slab := range sorted {
		if userCount <= allocated {
			break
		}

		upper := minInt(userCount, slab.MaxUsers)
		lower := maxInt(allocated, slab.MinUsers-1)
		users := clampInt(upper-lower, 0, slab.Size())
		if users <= 0 {
			continue
		}

		result.Breakdown = append(result.Breakdown, lineItem(slab, users, cycle, false))
		allocated += users
	}

	if allocated < userCount {
		top := sorted[len(sorted)-1]
		result.Breakdown = append(result.Breakdown, lineItem(top, userCount-allocated, cycle, true))
	}

	total := decimal.Zero
	for _, li := range result.Breakdown {
		total = total.Add(li.Total)
	}
	result.TotalAmount = total

	return result
}

// FlatPricing prices every user at the rate of the one slab containing
// userCount. It is the non-tiered comparison figure shown next to a quote.
func FlatPricing(slabs []types.Slab, userCount int, cycle types.BillingCycle) types.PricingResult {
	if userCount < 1 {
		return types.ZeroResult()
	}
	sorted := usableSlabs(slabs)
	if len(sorted) == 0 {
		return types.ZeroResult()
	}

	slab := sorted[len(sorted)-1]
	for _, s := range sorted {
		if s.Contains(userCount) {
			slab = s
			break
		}
	}

	li := lineItem(slab, userCount, cycle, userCount > slab.MaxUsers)
	return types.PricingResult{
		TotalAmount: li.Total,
		Breakdown:   []types.LineItem{li},
	}
}

// usableSlabs copies, filters, and stable-sorts slabs by MinUsers.
// The caller's slice is never reordered.
func usableSlabs(slabs []types.Slab) []types.Slab {
	out := make([]types.Slab, 0, len(slabs))
	for _, s := range slabs {
		if s.IsWellFormed() {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MinUsers < out[j].MinUsers
	})
	return out
}

func lineItem(slab types.Slab, users int, cycle types.BillingCycle, overflow bool) types.LineItem {
	price := slab.PriceFor(cycle)
	return types.LineItem{
		Slab:         slab,
		Users:        users,
		PricePerUser: price,
		Total:        price.Mul(decimal.NewFromInt(int64(users))),
		Overflow:     overflow,
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
