// Package pricing - Subscription quotes
// A quote wraps a tiered price with proration credit and wallet offset.
package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"slab-pricing/core/types"
	"slab-pricing/internal/errors"
)

// QuoteRequest describes a requested subscription state
type QuoteRequest struct {
	Slabs         []types.Slab
	Users         int
	Cycle         types.BillingCycle
	Current       *types.Subscription
	WalletBalance decimal.Decimal
	At            time.Time
}

// BuildQuote prices a purchase, upgrade, downgrade or renewal.
// Unlike CalculateTieredPricing it rejects invalid input, since its
// result is submitted to billing rather than only displayed.
func BuildQuote(req QuoteRequest) (*types.Quote, error) {
	if req.Users < 1 {
		return nil, errors.Input("user count must be at least 1").WithContext("users", req.Users)
	}
	if !req.Cycle.IsValid() {
		return nil, errors.Newf(errors.TypeInput, "unknown billing cycle: %q", req.Cycle)
	}
	if len(usableSlabs(req.Slabs)) == 0 {
		return nil, errors.Input("slab catalog has no usable slabs")
	}
	if req.WalletBalance.IsNegative() {
		return nil, errors.Input("wallet balance cannot be negative")
	}

	at := req.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	result := CalculateTieredPricing(req.Slabs, req.Users, req.Cycle)
	q := &types.Quote{
		ID:              uuid.NewString(),
		Users:           req.Users,
		Cycle:           req.Cycle,
		Pricing:         result,
		ProrationCredit: decimal.Zero,
		WalletApplied:   decimal.Zero,
	}

	q.Kind = classify(req, result, at)
	switch q.Kind {
	case types.QuoteRenewal:
		// renewals continue from the end of the active period
		q.PeriodStart = req.Current.PeriodEnd
	case types.QuoteUpgrade, types.QuoteDowngrade:
		q.PeriodStart = at
		q.ProrationCredit = ProrationCredit(*req.Current, at)
	default:
		q.PeriodStart = at
	}
	q.PeriodEnd = PeriodEnd(q.PeriodStart, req.Cycle)

	settle(q, req.WalletBalance)
	return q, nil
}

// classify decides the quote kind from the current subscription
func classify(req QuoteRequest, result types.PricingResult, at time.Time) types.QuoteKind {
	cur := req.Current
	if cur == nil || !at.Before(cur.PeriodEnd) {
		return types.QuotePurchase
	}
	if cur.Users == req.Users && cur.Cycle == req.Cycle {
		return types.QuoteRenewal
	}
	if result.TotalAmount.GreaterThan(cur.AmountPaid) {
		return types.QuoteUpgrade
	}
	return types.QuoteDowngrade
}

// settle applies credit then wallet to the quote total
func settle(q *types.Quote, wallet decimal.Decimal) {
	due := q.Pricing.TotalAmount.Sub(q.ProrationCredit)
	if due.IsNegative() {
		// unused credit is returned to the wallet
		q.AmountDue = decimal.Zero
		q.WalletRemaining = wallet.Add(due.Neg())
		return
	}

	q.WalletApplied = decimal.Min(wallet, due)
	q.AmountDue = due.Sub(q.WalletApplied)
	q.WalletRemaining = wallet.Sub(q.WalletApplied)
}

// ProrationCredit is the unused share of AmountPaid at time at,
// clamped to [0, AmountPaid].
func ProrationCredit(sub types.Subscription, at time.Time) decimal.Decimal {
	if sub.AmountPaid.Sign() <= 0 || !sub.PeriodEnd.After(sub.PeriodStart) {
		return decimal.Zero
	}
	if !at.After(sub.PeriodStart) {
		return sub.AmountPaid
	}
	if !at.Before(sub.PeriodEnd) {
		return decimal.Zero
	}

	period := decimal.NewFromInt(int64(sub.PeriodEnd.Sub(sub.PeriodStart) / time.Second))
	remaining := decimal.NewFromInt(int64(sub.PeriodEnd.Sub(at) / time.Second))
	return sub.AmountPaid.Mul(remaining).Div(period)
}

// PeriodEnd returns the exclusive end of a billing period starting at start
func PeriodEnd(start time.Time, cycle types.BillingCycle) time.Time {
	if cycle == types.CycleYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}
