package feature

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"loan-feature-engine/internal/dataset"
	"loan-feature-engine/internal/frame"

	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// customersDoc mirrors the nested source layout: income is repeated on every loan.
const customersDoc = `{"data": [
  {"customer_ID": 1090, "loans": [
    {"id": 1, "customer_ID": "1090", "loan_date": "15/11/2021", "amount": "2426", "fee": "199",
     "loan_status": "1", "term": "long", "annual_income": "41333.0"}
  ]},
  {"customer_ID": 3565, "loans": [
    {"id": 2, "customer_ID": "3565", "loan_date": "03/07/2021", "amount": "2153", "fee": "53",
     "loan_status": "1", "term": "short", "annual_income": "76498.0"},
    {"id": 3, "customer_ID": "3565", "loan_date": "08/06/2021", "amount": "1538", "fee": "89",
     "loan_status": "0", "term": "long", "annual_income": "76498.0"}
  ]}
]}`

func decodeDoc(t *testing.T, doc string) []map[string]any {
	t.Helper()
	raw, err := dataset.DecodeSource(strings.NewReader(doc))
	require.NoError(t, err)
	return raw
}

func flattenDoc(t *testing.T, doc string) *Tables {
	t.Helper()
	tables, err := Flatten(decodeDoc(t, doc))
	require.NoError(t, err)
	return tables
}

func writeDoc(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "customers.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func values(t *testing.T, f *frame.Frame, name string) []any {
	t.Helper()
	c, err := f.Column(name)
	require.NoError(t, err)
	return c.Values
}
