package feature

import (
	"context"
	"testing"

	"loan-feature-engine/internal/frame"
	"loan-feature-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombiner_Combine(t *testing.T) {
	ctx := context.Background()
	combiner := NewCombiner(testLogger)

	t.Run("First table wins on collisions", func(t *testing.T) {
		left := frame.FromRecords([]map[string]any{
			{"customer_id": "1", "annual_income": 10.0},
			{"customer_id": "2", "annual_income": 20.0},
		}, []string{"customer_id"})
		right := frame.FromRecords([]map[string]any{
			{"customer_id": "2", "annual_income": -1.0, "COUNT(loans)": int64(4)},
			{"customer_id": "1", "annual_income": -1.0, "COUNT(loans)": int64(3)},
		}, []string{"customer_id"})

		out, err := combiner.Combine(ctx, left, right, "customer_id")

		require.NoError(t, err)
		assert.Equal(t, []string{"customer_id", "annual_income", "COUNT(loans)"}, out.Names())
		assert.Equal(t, []any{10.0, 20.0}, values(t, out, "annual_income"))
		assert.Equal(t, []any{int64(3), int64(4)}, values(t, out, "COUNT(loans)"))
	})

	t.Run("Unmatched keys are dropped", func(t *testing.T) {
		left := frame.FromRecords([]map[string]any{
			{"loan_id": "1", "amount": 1.0},
			{"loan_id": "2", "amount": 2.0},
		}, nil)
		right := frame.FromRecords([]map[string]any{
			{"loan_id": "2", "days": int64(5)},
			{"loan_id": "3", "days": int64(6)},
		}, nil)

		out, err := combiner.Combine(ctx, left, right, "loan_id")

		require.NoError(t, err)
		assert.Equal(t, []any{"2"}, values(t, out, "loan_id"))
		assert.Equal(t, []any{int64(5)}, values(t, out, "days"))
	})

	t.Run("Keys match across representations", func(t *testing.T) {
		left := frame.FromRecords([]map[string]any{{"loan_id": "7", "amount": 1.0}}, nil)
		right := frame.FromRecords([]map[string]any{{"loan_id": int64(7), "days": int64(1)}}, nil)

		out, err := combiner.Combine(ctx, left, right, "loan_id")

		require.NoError(t, err)
		assert.Equal(t, 1, out.Len())
	})

	t.Run("Error - Duplicate keys", func(t *testing.T) {
		left := frame.FromRecords([]map[string]any{{"loan_id": "1"}, {"loan_id": "1"}}, nil)
		right := frame.FromRecords([]map[string]any{{"loan_id": "1"}}, nil)

		_, err := combiner.Combine(ctx, left, right, "loan_id")

		assert.ErrorIs(t, err, apperrors.ErrMerge)
	})

	t.Run("Error - Missing key column", func(t *testing.T) {
		left := frame.FromRecords([]map[string]any{{"loan_id": "1"}}, nil)
		right := frame.FromRecords([]map[string]any{{"id": "1"}}, nil)

		_, err := combiner.Combine(ctx, left, right, "loan_id")

		assert.ErrorIs(t, err, apperrors.ErrMerge)
	})
}

func TestCombiner_CombineNeverDuplicatesKeys(t *testing.T) {
	tables := flattenDoc(t, customersDoc)
	es := NewEntitySet(testLogger)
	require.NoError(t, es.AddTable(CustomersTable, tables.Customers, CustomerKey))
	require.NoError(t, es.AddTable(LoansTable, tables.Loans, LoanKey))
	require.NoError(t, es.AddRelationship(Relationship{Parent: CustomersTable, ParentKey: CustomerKey, Child: LoansTable, ChildKey: CustomerKey}))
	synthesized, _, err := es.Synthesize(context.Background(), LoansTable, DefaultMaxDepth)
	require.NoError(t, err)

	out, err := NewCombiner(testLogger).Combine(context.Background(), tables.Loans, synthesized, LoanKey)

	require.NoError(t, err)
	_, err = out.KeyIndex(LoanKey)
	assert.NoError(t, err)
	assert.Equal(t, tables.Loans.Len(), out.Len())
	assert.True(t, out.Has(CustomerKey))
	assert.True(t, out.Has("customers.annual_income"))
}

func TestCombiner_DeleteColumns(t *testing.T) {
	ctx := context.Background()
	combiner := NewCombiner(testLogger)

	t.Run("Success", func(t *testing.T) {
		f := frame.FromRecords([]map[string]any{{"a": 1.0, "b": 2.0, "c": 3.0}}, nil)

		require.NoError(t, combiner.DeleteColumns(ctx, f, []string{"a", "c"}))

		assert.Equal(t, []string{"b"}, f.Names())
	})

	t.Run("Error - Missing column reports the count", func(t *testing.T) {
		f := frame.FromRecords([]map[string]any{{"a": 1.0, "b": 2.0}}, nil)

		err := combiner.DeleteColumns(ctx, f, []string{"a", "zzz"})

		assert.ErrorIs(t, err, apperrors.ErrMerge)
		assert.ErrorContains(t, err, "deleting 2 features failed")
		assert.Equal(t, []string{"a", "b"}, f.Names())
	})
}
