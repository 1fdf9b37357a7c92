// Package api - Pricing handlers
// Handlers decode, delegate to core/pricing, and encode. They never do
// pricing math themselves.
package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"slab-pricing/core/catalog"
	"slab-pricing/core/output"
	"slab-pricing/core/pricing"
	"slab-pricing/core/types"
	"slab-pricing/internal/errors"
	"slab-pricing/internal/metrics"
)

// maxRequestBody bounds JSON bodies, inline slab arrays included
const maxRequestBody = 1 << 20

// decodeBody decodes a JSON body, writing the error response on failure
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.writeError(w, "BODY_TOO_LARGE", "request body exceeds 1 MiB", http.StatusRequestEntityTooLarge)
			return false
		}
		s.writeError(w, "INVALID_JSON", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// handleCalculate handles POST /pricing/calculate
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req CalculateRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cycle, err := s.resolveCycle(req.BillingCycle)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	slabs, source, err := s.requestSlabs(req.Slabs)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	// userCount < 1 is not an error; the calculator returns a zero result
	result := pricing.CalculateTieredPricing(slabs, req.UserCount, cycle)
	metrics.CalculationsTotal.WithLabelValues(string(cycle)).Inc()
	for _, li := range result.Breakdown {
		if li.Overflow {
			metrics.OverflowUsersTotal.Add(float64(li.Users))
		}
	}

	resp := &CalculateResponse{
		UserCount:    req.UserCount,
		BillingCycle: cycle,
		Currency:     s.currency,
		TotalAmount:  result.TotalAmount,
		TotalDisplay: output.Money(result.TotalAmount),
		Breakdown:    result.Breakdown,
		Metadata:     s.metadata(source, start),
	}
	if req.IncludeFlat {
		flat := pricing.FlatPricing(slabs, req.UserCount, cycle).TotalAmount
		resp.FlatTotal = &flat
	}

	s.writeJSON(w, resp, http.StatusOK)
}

// handleQuote handles POST /pricing/quote
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req QuoteRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cycle, err := s.resolveCycle(req.BillingCycle)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	slabs, source, err := s.requestSlabs(req.Slabs)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	at := s.now()
	if req.At != nil {
		at = *req.At
	}

	quote, err := pricing.BuildQuote(pricing.QuoteRequest{
		Slabs:         slabs,
		Users:         req.UserCount,
		Cycle:         cycle,
		Current:       req.Current,
		WalletBalance: req.WalletBalance,
		At:            at,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	metrics.QuotesTotal.WithLabelValues(string(quote.Kind)).Inc()

	s.logger.Info("Built quote",
		zap.String("quote", quote.ID),
		zap.String("kind", string(quote.Kind)),
		zap.Int("users", quote.Users),
		zap.String("amount_due", output.Money(quote.AmountDue)),
	)

	s.writeJSON(w, &QuoteResponse{
		Quote:            quote,
		Currency:         s.currency,
		AmountDueDisplay: output.Money(quote.AmountDue),
		Metadata:         s.metadata(source, start),
	}, http.StatusOK)
}

// handleSlabs handles GET /slabs
func (s *Server) handleSlabs(w http.ResponseWriter, r *http.Request) {
	c, err := s.currentCatalog()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, &CatalogResponse{
		Source: s.source.Name(),
		Count:  c.Len(),
		Slabs:  c.Slabs(),
	}, http.StatusOK)
}

// handleSlab handles GET /slabs/{id}
func (s *Server) handleSlab(w http.ResponseWriter, r *http.Request) {
	c, err := s.currentCatalog()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	id := r.PathValue("id")
	slab, ok := c.Get(id)
	if !ok {
		s.writeDomainError(w, errors.NotFound("slab", id))
		return
	}
	s.writeJSON(w, slab, http.StatusOK)
}

// handleValidate handles GET /slabs/validate
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	c, err := s.currentCatalog()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	issues := c.Validate(catalog.DefaultValidationRules())
	if issues == nil {
		issues = []catalog.Issue{}
	}
	s.writeJSON(w, &ValidationResponse{
		Valid:  !catalog.HasErrors(issues),
		Issues: issues,
	}, http.StatusOK)
}

// handleReload handles POST /slabs/reload
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	c, err := s.Reload(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"source": s.source.Name(),
		"count":  c.Len(),
	}, http.StatusOK)
}

// resolveCycle applies the server default to an empty cycle
func (s *Server) resolveCycle(raw string) (types.BillingCycle, error) {
	if raw == "" {
		return s.defaultCycle, nil
	}
	cycle, ok := types.ParseBillingCycle(raw)
	if !ok {
		return "", errors.Newf(errors.TypeInput, "billing_cycle must be monthly or yearly, got %q", raw)
	}
	return cycle, nil
}

// requestSlabs prefers inline slabs over the server catalog
func (s *Server) requestSlabs(raw []catalog.RawSlab) ([]types.Slab, string, error) {
	if len(raw) > 0 {
		slabs, err := catalog.TypedAll(raw)
		if err != nil {
			return nil, "", err
		}
		return slabs, "request", nil
	}

	c, err := s.currentCatalog()
	if err != nil {
		return nil, "", err
	}
	return c.Slabs(), s.source.Name(), nil
}

func (s *Server) metadata(source string, start time.Time) *ResponseMetadata {
	return &ResponseMetadata{
		RequestID:     uuid.NewString(),
		CatalogSource: source,
		EngineVersion: s.version,
		DurationMs:    time.Since(start).Milliseconds(),
	}
}

// writeDomainError maps error types to HTTP statuses
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	t := errors.TypeOf(err)
	status := http.StatusInternalServerError
	switch t {
	case errors.TypeInput, errors.TypeParsing:
		status = http.StatusBadRequest
	case errors.TypeNotFound:
		status = http.StatusNotFound
	case errors.TypeCatalog, errors.TypeNetwork, errors.TypeStorage:
		status = http.StatusServiceUnavailable
	}
	if status >= 500 {
		s.logger.Error("Request failed", zap.Error(err))
	}
	s.writeError(w, string(t), err.Error(), status)
}
