// Package types defines core domain types shared across all layers.
// This package contains NO business logic beyond field selection helpers.
package types

import "strings"

// BillingCycle selects which slab price applies
type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

// String returns the string representation of the cycle
func (c BillingCycle) String() string {
	return string(c)
}

// IsValid checks if the cycle is a known billing cycle
func (c BillingCycle) IsValid() bool {
	switch c {
	case CycleMonthly, CycleYearly:
		return true
	default:
		return false
	}
}

// ParseBillingCycle normalizes user input such as "Monthly" or " yearly "
func ParseBillingCycle(s string) (BillingCycle, bool) {
	c := BillingCycle(strings.ToLower(strings.TrimSpace(s)))
	return c, c.IsValid()
}

// Currency represents a currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyINR Currency = "INR"
)

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}
