// Package api - Thin HTTP layer over the pricing engine
// The API is ONLY responsible for: input decoding, catalog access, output serialization.
// The API NEVER performs pricing logic.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"slab-pricing/core/catalog"
	"slab-pricing/core/types"
	"slab-pricing/internal/errors"
	"slab-pricing/internal/metrics"
)

// Options configures a Server
type Options struct {
	Version      string
	Currency     types.Currency
	DefaultCycle types.BillingCycle
	Logger       *zap.Logger

	// Now overrides the clock for quotes
	Now func() time.Time
}

// Server is the API server
type Server struct {
	mux          *http.ServeMux
	handler      http.Handler
	source       catalog.Source
	version      string
	currency     types.Currency
	defaultCycle types.BillingCycle
	logger       *zap.Logger
	now          func() time.Time

	mu      sync.RWMutex
	catalog *catalog.Catalog
}

// NewServer creates a new API server backed by a catalog source.
// The catalog is loaded lazily on first use or by Reload.
func NewServer(source catalog.Source, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Currency == "" {
		opts.Currency = types.CurrencyUSD
	}
	if !opts.DefaultCycle.IsValid() {
		opts.DefaultCycle = types.CycleMonthly
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	s := &Server{
		mux:          http.NewServeMux(),
		source:       source,
		version:      opts.Version,
		currency:     opts.Currency,
		defaultCycle: opts.DefaultCycle,
		logger:       opts.Logger,
		now:          opts.Now,
	}

	s.registerRoutes()
	s.handler = metrics.Middleware(s.logger, s.mux)
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("POST /pricing/calculate", s.handleCalculate)
	s.mux.HandleFunc("POST /pricing/quote", s.handleQuote)

	// Catalog endpoints
	s.mux.HandleFunc("GET /slabs", s.handleSlabs)
	s.mux.HandleFunc("GET /slabs/validate", s.handleValidate)
	s.mux.HandleFunc("GET /slabs/{id}", s.handleSlab)
	s.mux.HandleFunc("POST /slabs/reload", s.handleReload)

	// Supporting endpoints
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// Reload fetches the catalog from the source and swaps it in
func (s *Server) Reload(ctx context.Context) (*catalog.Catalog, error) {
	c, err := s.source.Load(ctx)
	if err != nil {
		metrics.CatalogLoadErrorsTotal.Inc()
		return nil, err
	}

	s.mu.Lock()
	s.catalog = c
	s.mu.Unlock()

	metrics.CatalogSlabs.Set(float64(c.Len()))
	s.logger.Info("Catalog loaded", zap.String("source", s.source.Name()), zap.Int("slabs", c.Len()))
	return c, nil
}

// currentCatalog returns the loaded catalog, loading it on first use
func (s *Server) currentCatalog() (*catalog.Catalog, error) {
	s.mu.RLock()
	c := s.catalog
	s.mu.RUnlock()
	if c != nil {
		return c, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c, err := s.Reload(ctx)
	if err != nil {
		return nil, errors.Catalog("slab catalog unavailable", err)
	}
	return c, nil
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	loaded := s.catalog != nil
	s.mu.RUnlock()

	s.writeJSON(w, map[string]interface{}{
		"status":         "healthy",
		"version":        s.version,
		"catalog_loaded": loaded,
		"time":           s.now().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     s.version,
		"engine":      "slab-pricing",
		"api_version": "v1",
	}, http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, &ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	}, status)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
