package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slab-pricing/core/types"
	"slab-pricing/internal/errors"
)

const jsonCatalog = `[
  {"id": 2, "name": "Growth", "min_users": "6", "max_users": 20, "monthly_price": "80.50", "yearly_price": null},
  {"id": "1", "name": "Starter", "min_users": 1, "max_users": 5, "monthly_price": 100, "yearly_price": 1000,
   "free_external_users_per_internal_user": 2}
]`

const yamlCatalog = `
slabs:
  - id: starter
    min_users: 1
    max_users: 5
    monthly_price: 100
    yearly_price: "1000"
  - id: growth
    min_users: 6
    max_users: 20
    monthly_price: 80
    yearly_price: ~
`

const hclCatalogSrc = `
slab "starter" {
  name          = "Starter"
  min_users     = 1
  max_users     = 5
  monthly_price = 100
  yearly_price  = 1000.25
}

slab "growth" {
  min_users     = 6
  max_users     = 20
  monthly_price = 80
  free_external_users_per_internal_user = 3
}
`

func TestDecodeJSONCoercesLooseFields(t *testing.T) {
	c, err := Decode([]byte(jsonCatalog), FormatJSON, "inline.json")
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	slabs := c.Slabs()
	assert.Equal(t, "1", slabs[0].ID, "catalog must be sorted by min_users")
	assert.Equal(t, 2, slabs[0].FreeExternalUsersPerInternalUser)

	growth, ok := c.Get("2")
	require.True(t, ok)
	assert.Equal(t, 6, growth.MinUsers)
	assert.True(t, decimal.RequireFromString("80.5").Equal(growth.MonthlyPrice))
	assert.True(t, growth.YearlyPrice.IsZero(), "null price must coerce to zero")
	assert.Equal(t, "Growth", growth.Name)
}

func TestDecodeJSONEnvelope(t *testing.T) {
	raw, err := DecodeJSON([]byte(`{"data": [{"id": "a", "min_users": 1, "max_users": 2}]}`))
	require.NoError(t, err)
	require.Len(t, raw, 1)

	s, err := raw[0].Typed()
	require.NoError(t, err)
	assert.Equal(t, "a", s.Name, "name defaults to id")
}

func TestDecodeYAML(t *testing.T) {
	c, err := Decode([]byte(yamlCatalog), FormatYAML, "inline.yaml")
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	starter, ok := c.Get("starter")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(1000).Equal(starter.YearlyPrice))

	growth, _ := c.Get("growth")
	assert.True(t, growth.YearlyPrice.IsZero())
}

func TestDecodeHCL(t *testing.T) {
	c, err := Decode([]byte(hclCatalogSrc), FormatHCL, "slabs.hcl")
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	starter, ok := c.Get("starter")
	require.True(t, ok)
	assert.Equal(t, "Starter", starter.Name)
	assert.True(t, decimal.RequireFromString("1000.25").Equal(starter.YearlyPrice))

	growth, _ := c.Get("growth")
	assert.Equal(t, 3, growth.FreeExternalUsersPerInternalUser)
	assert.True(t, growth.YearlyPrice.IsZero())
}

func TestDecodeHCLRejectsMissingRange(t *testing.T) {
	_, err := Decode([]byte(`slab "x" { monthly_price = 1 }`), FormatHCL, "bad.hcl")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeParsing))
}

func TestTypedRejectsBadRecords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"missing id", `[{"min_users": 1, "max_users": 2}]`, ""},
		{"missing min", `[{"id": "a", "max_users": 2}]`, "min_users"},
		{"fractional max", `[{"id": "a", "min_users": 1, "max_users": 2.5}]`, "max_users"},
		{"max beyond int range", `[{"id": "a", "min_users": 1, "max_users": "1e30"}]`, "max_users"},
		{"min below int range", `[{"id": "a", "min_users": -1e30, "max_users": 2}]`, "min_users"},
		{"garbage price", `[{"id": "a", "min_users": 1, "max_users": 2, "monthly_price": "ten"}]`, "monthly_price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input), FormatJSON, "inline.json")
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeInput))
			if tt.field != "" {
				var e *errors.Error
				require.ErrorAs(t, err, &e)
				assert.Equal(t, tt.field, e.Context["field"])
				assert.Equal(t, 0, e.Context["index"])
			}
		})
	}
}

func TestCatalogLookups(t *testing.T) {
	c := New([]types.Slab{
		{ID: "b", MinUsers: 6, MaxUsers: 20},
		{ID: "a", MinUsers: 1, MaxUsers: 5},
	})

	found, ok := c.Find(7)
	require.True(t, ok)
	assert.Equal(t, "b", found.ID)

	_, ok = c.Find(21)
	assert.False(t, ok)

	top, ok := c.Top()
	require.True(t, ok)
	assert.Equal(t, "b", top.ID)
	assert.Equal(t, 20, c.MaxUsers())

	assert.False(t, c.IsEmpty())
	assert.True(t, New(nil).IsEmpty())
	_, ok = New(nil).Top()
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	c := New([]types.Slab{
		{ID: "a", MinUsers: 2, MaxUsers: 5, MonthlyPrice: decimal.NewFromInt(10)},
		{ID: "b", MinUsers: 5, MaxUsers: 9, MonthlyPrice: decimal.NewFromInt(8)},
		{ID: "c", MinUsers: 15, MaxUsers: 30, YearlyPrice: decimal.NewFromInt(-1)},
		{ID: "c", MinUsers: 40, MaxUsers: 35},
	})

	issues := c.Validate(DefaultValidationRules())
	messages := make([]string, 0, len(issues))
	for _, i := range issues {
		messages = append(messages, i.String())
	}

	assert.Contains(t, messages, "warning: slab a: users 1-1 are not covered by any slab")
	assert.Contains(t, messages, "warning: slab b: overlaps slab a on users 5-5")
	assert.Contains(t, messages, "warning: slab c: gap of users 10-14 after slab b")
	assert.Contains(t, messages, "error: slab c: negative price will be billed as zero")
	assert.Contains(t, messages, "error: slab c: duplicate slab id")
	assert.Contains(t, messages, "error: slab c: max_users 35 is below min_users 40")
	assert.True(t, HasErrors(issues))
}

func TestValidateCleanCatalog(t *testing.T) {
	c, err := Decode([]byte(jsonCatalog), FormatJSON, "inline.json")
	require.NoError(t, err)
	assert.Empty(t, c.Validate(DefaultValidationRules()))

	assert.True(t, HasErrors(New(nil).Validate(DefaultValidationRules())))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slabs.yml")
	require.NoError(t, os.WriteFile(path, []byte(yamlCatalog), 0644))

	c, err := NewFileSource(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.IsType(err, errors.TypeNotFound))

	_, err = LoadFile(filepath.Join(dir, "slabs.txt"))
	assert.True(t, errors.IsType(err, errors.TypeInput))
}

func TestEncodeJSONRoundTrip(t *testing.T) {
	c, err := Decode([]byte(hclCatalogSrc), FormatHCL, "slabs.hcl")
	require.NoError(t, err)

	data, err := c.EncodeJSON()
	require.NoError(t, err)

	again, err := Decode(data, FormatJSON, "roundtrip.json")
	require.NoError(t, err)
	assert.Equal(t, c.Len(), again.Len())
	s, _ := again.Get("starter")
	assert.True(t, decimal.RequireFromString("1000.25").Equal(s.YearlyPrice))
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"slabs": ` + jsonCatalog + `}`))
	}))
	defer srv.Close()

	c, err := NewHTTPSource(srv.URL, 0).WithToken("secret").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestHTTPSourceNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, 0).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeCatalog))
}
