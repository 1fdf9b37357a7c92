// Package api - API types for slab pricing
// These types define the contract for the pricing endpoints.
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"slab-pricing/core/catalog"
	"slab-pricing/core/types"
)

// CalculateRequest is the input to POST /pricing/calculate
type CalculateRequest struct {
	// UserCount is the requested number of users
	UserCount int `json:"user_count"`

	// BillingCycle is monthly or yearly; empty uses the server default
	BillingCycle string `json:"billing_cycle,omitempty"`

	// Slabs overrides the server catalog for this request
	Slabs []catalog.RawSlab `json:"slabs,omitempty"`

	// IncludeFlat adds the single-slab flat-rate figure
	IncludeFlat bool `json:"include_flat,omitempty"`
}

// CalculateResponse is the output of POST /pricing/calculate
type CalculateResponse struct {
	UserCount    int                `json:"user_count"`
	BillingCycle types.BillingCycle `json:"billing_cycle"`
	Currency     types.Currency     `json:"currency"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	TotalDisplay string             `json:"total_display"`
	Breakdown    []types.LineItem   `json:"breakdown"`
	FlatTotal    *decimal.Decimal   `json:"flat_total,omitempty"`
	Metadata     *ResponseMetadata  `json:"metadata,omitempty"`
}

// QuoteRequest is the input to POST /pricing/quote
type QuoteRequest struct {
	UserCount     int                 `json:"user_count"`
	BillingCycle  string              `json:"billing_cycle,omitempty"`
	WalletBalance decimal.Decimal     `json:"wallet_balance"`
	Current       *types.Subscription `json:"current,omitempty"`
	At            *time.Time          `json:"at,omitempty"`
	Slabs         []catalog.RawSlab   `json:"slabs,omitempty"`
}

// QuoteResponse is the output of POST /pricing/quote
type QuoteResponse struct {
	*types.Quote
	Currency         types.Currency    `json:"currency"`
	AmountDueDisplay string            `json:"amount_due_display"`
	Metadata         *ResponseMetadata `json:"metadata,omitempty"`
}

// CatalogResponse is the output of GET /slabs
type CatalogResponse struct {
	Source string       `json:"source"`
	Count  int          `json:"count"`
	Slabs  []types.Slab `json:"slabs"`
}

// ValidationResponse is the output of GET /slabs/validate
type ValidationResponse struct {
	Valid  bool            `json:"valid"`
	Issues []catalog.Issue `json:"issues"`
}

// ResponseMetadata contains execution context
type ResponseMetadata struct {
	RequestID     string `json:"request_id"`
	CatalogSource string `json:"catalog_source"`
	EngineVersion string `json:"engine_version"`
	DurationMs    int64  `json:"duration_ms"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes an API error
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
