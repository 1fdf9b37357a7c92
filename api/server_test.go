package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slab-pricing/core/catalog"
	"slab-pricing/core/types"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestServer() *Server {
	c := catalog.New([]types.Slab{
		{ID: "1", Name: "Starter", MinUsers: 1, MaxUsers: 5, MonthlyPrice: decimal.NewFromInt(100), YearlyPrice: decimal.NewFromInt(1000)},
		{ID: "2", Name: "Growth", MinUsers: 6, MaxUsers: 20, MonthlyPrice: decimal.NewFromInt(80), YearlyPrice: decimal.NewFromInt(800)},
	})
	return NewServer(catalog.NewStatic(c), Options{
		Version: "test",
		Now:     func() time.Time { return fixedNow },
	})
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func TestCalculateUsesServerCatalog(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodPost, "/pricing/calculate", map[string]interface{}{
		"user_count":   30,
		"include_flat": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CalculateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.CycleMonthly, resp.BillingCycle)
	assert.True(t, decimal.NewFromInt(2500).Equal(resp.TotalAmount))
	assert.Equal(t, "2500.00", resp.TotalDisplay)
	require.Len(t, resp.Breakdown, 3)
	assert.True(t, resp.Breakdown[2].Overflow)
	require.NotNil(t, resp.FlatTotal)
	assert.True(t, decimal.NewFromInt(2400).Equal(*resp.FlatTotal))
	assert.Equal(t, "static", resp.Metadata.CatalogSource)
}

func TestCalculateInlineLooseSlabs(t *testing.T) {
	body := []byte(`{"user_count": 4, "billing_cycle": "Yearly",
		"slabs": [{"id": 9, "min_users": "1", "max_users": "10", "monthly_price": null, "yearly_price": "12.50"}]}`)
	rec := httptest.NewRecorder()
	newTestServer().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pricing/calculate", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CalculateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.CycleYearly, resp.BillingCycle)
	assert.Equal(t, "50.00", resp.TotalDisplay)
	assert.Equal(t, "request", resp.Metadata.CatalogSource)
}

func TestCalculateZeroUsersIsNotAnError(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodPost, "/pricing/calculate", map[string]interface{}{"user_count": 0})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CalculateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.TotalAmount.IsZero())
	assert.Empty(t, resp.Breakdown)
}

func TestCalculateRejectsBadInput(t *testing.T) {
	s := newTestServer()

	rec := do(t, s, http.MethodPost, "/pricing/calculate", map[string]interface{}{"user_count": 3, "billing_cycle": "weekly"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "INPUT_ERROR", errResp.Error.Code)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pricing/calculate", bytes.NewReader([]byte("{"))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOversizedBodyIsRejected(t *testing.T) {
	s := newTestServer()
	body := `{"user_count": 3, "slabs": [{"id": "` + strings.Repeat("x", maxRequestBody) + `"}]}`

	for _, path := range []string{"/pricing/calculate", "/pricing/quote"} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, path)

		var errResp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
		assert.Equal(t, "BODY_TOO_LARGE", errResp.Error.Code)
	}
}

func TestQuoteUpgrade(t *testing.T) {
	start := fixedNow.AddDate(0, 0, -10)
	rec := do(t, newTestServer(), http.MethodPost, "/pricing/quote", map[string]interface{}{
		"user_count":     10,
		"wallet_balance": "50",
		"current": map[string]interface{}{
			"users":         5,
			"billing_cycle": "monthly",
			"amount_paid":   "300",
			"period_start":  start,
			"period_end":    start.AddDate(0, 0, 30),
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.QuoteUpgrade, resp.Kind)
	assert.Equal(t, "650.00", resp.AmountDueDisplay)
	assert.Equal(t, fixedNow, resp.PeriodStart)
}

func TestQuoteRejectsZeroUsers(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodPost, "/pricing/quote", map[string]interface{}{"user_count": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSlabEndpoints(t *testing.T) {
	s := newTestServer()

	rec := do(t, s, http.MethodGet, "/slabs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list CatalogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)

	rec = do(t, s, http.MethodGet, "/slabs/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var slab types.Slab
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slab))
	assert.Equal(t, "Growth", slab.Name)

	rec = do(t, s, http.MethodGet, "/slabs/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/slabs/validate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var v ValidationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.True(t, v.Valid)
	assert.Empty(t, v.Issues)

	rec = do(t, s, http.MethodPost, "/slabs/reload", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

type failingSource struct{}

func (failingSource) Name() string { return "broken" }

func (failingSource) Load(ctx context.Context) (*catalog.Catalog, error) {
	return nil, context.DeadlineExceeded
}

func TestCatalogUnavailable(t *testing.T) {
	s := NewServer(failingSource{}, Options{Version: "test"})

	rec := do(t, s, http.MethodPost, "/pricing/calculate", map[string]interface{}{"user_count": 3})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"catalog_loaded":false`)
}

func TestVersionAndMetrics(t *testing.T) {
	s := newTestServer()

	rec := do(t, s, http.MethodGet, "/version", nil)
	assert.JSONEq(t, `{"version":"test","engine":"slab-pricing","api_version":"v1"}`, rec.Body.String())

	do(t, s, http.MethodPost, "/pricing/calculate", map[string]interface{}{"user_count": 2})
	rec = do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "slab_pricing_calculations_total")
}
