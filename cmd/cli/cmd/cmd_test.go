package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSlabs = `[
  {"id": "starter", "min_users": 1, "max_users": 5, "monthly_price": 100, "yearly_price": 1000},
  {"id": "growth", "min_users": 6, "max_users": 20, "monthly_price": 80, "yearly_price": 800}
]`

const gappedSlabs = `[
  {"id": "starter", "min_users": 1, "max_users": 5, "monthly_price": 100},
  {"id": "growth", "min_users": 8, "max_users": 20, "monthly_price": 80}
]`

const invertedSlabs = `[
  {"id": "starter", "min_users": 1, "max_users": 5, "monthly_price": 100},
  {"id": "broken", "min_users": 20, "max_users": 6, "monthly_price": 80}
]`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slabs.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with fresh flag state
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	calcUsers, calcCycle, calcFormat, calcFlat, calcDetails = 0, "", "", false, true
	quoteUsers, quoteCycle, quoteWallet, quoteFormat = 0, "", "0", ""
	quoteCurUsers, quoteCurCycle, quoteCurPaid, quoteCurStart, quoteCurEnd, quoteAt = 0, "", "0", "", "", ""
	catalogFormat, catalogPath = "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCalculateCommand(t *testing.T) {
	path := writeCatalog(t, testSlabs)

	out, err := execute(t, "calculate", "--users", "10", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 900.00 USD")
	assert.Contains(t, out, "starter")
	assert.Contains(t, out, "growth")
}

func TestCalculateCommandOverflow(t *testing.T) {
	path := writeCatalog(t, testSlabs)

	out, err := execute(t, "calculate", "--users", "25", "--cycle", "yearly", "--flat", "--catalog", path)
	require.NoError(t, err)
	// 5*1000 + 15*800 + 5*800
	assert.Contains(t, out, "Total: 21000.00 USD")
	assert.Contains(t, out, "Flat-rate equivalent: 20000.00 USD")
}

func TestCalculateCommandRejectsUnknownCycle(t *testing.T) {
	path := writeCatalog(t, testSlabs)

	_, err := execute(t, "calculate", "--users", "10", "--cycle", "weekly", "--catalog", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported billing cycle")
}

func TestCalculateCommandRemoteCatalogSendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(testSlabs))
	}))
	defer srv.Close()

	t.Setenv("CATALOG_SOURCE", "http")
	t.Setenv("CATALOG_URL", srv.URL)
	t.Setenv("CATALOG_TOKEN", "s3cret")

	out, err := execute(t, "calculate", "--users", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 900.00 USD")
}

func TestQuoteCommandPurchaseWithWallet(t *testing.T) {
	path := writeCatalog(t, testSlabs)

	out, err := execute(t, "quote", "--users", "10", "--wallet", "50", "--at", "2026-03-01", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "purchase")
	assert.Contains(t, out, "850.00 USD")
	assert.Contains(t, out, "2026-03-01 to 2026-04-01")
}

func TestQuoteCommandRejectsBadDate(t *testing.T) {
	path := writeCatalog(t, testSlabs)

	_, err := execute(t, "quote", "--users", "10", "--at", "03/01/2026", "--catalog", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestCatalogValidateCommand(t *testing.T) {
	out, err := execute(t, "catalog", "validate", writeCatalog(t, testSlabs))
	require.NoError(t, err)
	assert.Contains(t, out, "Catalog is valid")

	// gaps are warnings only
	out, err = execute(t, "catalog", "validate", writeCatalog(t, gappedSlabs))
	require.NoError(t, err)
	assert.Contains(t, out, "gap of users 6-7")

	out, err = execute(t, "catalog", "validate", writeCatalog(t, invertedSlabs))
	require.Error(t, err)
	assert.Contains(t, out, "max_users 6 is below min_users 20")
}

func TestCatalogShowCommand(t *testing.T) {
	out, err := execute(t, "catalog", "show", writeCatalog(t, testSlabs))
	require.NoError(t, err)
	assert.Contains(t, out, "1-5")
	assert.Contains(t, out, "80.00 USD")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}
