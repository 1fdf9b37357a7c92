// Package types - Subscription quote types
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteKind classifies a subscription change
type QuoteKind string

const (
	QuotePurchase  QuoteKind = "purchase"
	QuoteUpgrade   QuoteKind = "upgrade"
	QuoteDowngrade QuoteKind = "downgrade"
	QuoteRenewal   QuoteKind = "renewal"
)

// Subscription is the customer's currently active plan
type Subscription struct {
	Users       int             `json:"users"`
	Cycle       BillingCycle    `json:"billing_cycle"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
}

// Quote is a priced subscription change ready for submission to billing
type Quote struct {
	ID   string    `json:"id"`
	Kind QuoteKind `json:"kind"`

	Users   int           `json:"users"`
	Cycle   BillingCycle  `json:"billing_cycle"`
	Pricing PricingResult `json:"pricing"`

	// ProrationCredit is the unused value of the current period
	ProrationCredit decimal.Decimal `json:"proration_credit"`

	// WalletApplied is the wallet balance consumed by this quote
	WalletApplied decimal.Decimal `json:"wallet_applied"`

	// AmountDue is what the customer pays now
	AmountDue decimal.Decimal `json:"amount_due"`

	// WalletRemaining is the wallet balance after this quote settles
	WalletRemaining decimal.Decimal `json:"wallet_remaining"`

	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}
