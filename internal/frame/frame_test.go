package frame

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame(t *testing.T) *Frame {
	t.Helper()
	f := New()
	require.NoError(t, f.Set(NewColumn("loan_id", String, []any{"1", "2", "3"})))
	require.NoError(t, f.Set(NewColumn("amount", Float, []any{2426.0, 2153.0, 1538.0})))
	require.NoError(t, f.Set(NewColumn("loan_date", Date, []any{
		time.Date(2021, 11, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 3, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 8, 6, 0, 0, 0, 0, time.UTC),
	})))
	return f
}

func TestFrame_Set(t *testing.T) {
	t.Run("Success - replace keeps position", func(t *testing.T) {
		f := sampleFrame(t)
		require.NoError(t, f.Set(NewColumn("amount", Float, []any{1.0, 2.0, 3.0})))

		assert.Equal(t, []string{"loan_id", "amount", "loan_date"}, f.Names())
		assert.Equal(t, 2.0, f.Value(1, "amount"))
	})

	t.Run("Error - Length mismatch", func(t *testing.T) {
		f := sampleFrame(t)
		err := f.Set(NewColumn("fee", Float, []any{1.0}))
		assert.ErrorIs(t, err, ErrLengthMismatch)
		assert.False(t, f.Has("fee"))
	})
}

func TestFrame_Drop(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := sampleFrame(t)
		require.NoError(t, f.Drop("amount"))
		assert.Equal(t, []string{"loan_id", "loan_date"}, f.Names())
		assert.Equal(t, 3, f.Len())
	})

	t.Run("Error - Missing column leaves frame untouched", func(t *testing.T) {
		f := sampleFrame(t)
		err := f.Drop("amount", "nope")
		assert.ErrorIs(t, err, ErrColumnNotFound)
		assert.True(t, f.Has("amount"))
	})
}

func TestFrame_Take(t *testing.T) {
	f := sampleFrame(t)
	sub := f.Take([]int{2, 0})
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, "3", sub.Value(0, "loan_id"))

	col, err := sub.Column("amount")
	require.NoError(t, err)
	col.Values[1] = 0.0
	assert.Equal(t, 2426.0, f.Value(0, "amount"))
}

func TestFrame_KeyIndex(t *testing.T) {
	t.Run("Success - numeric and string keys match", func(t *testing.T) {
		f := New()
		require.NoError(t, f.Set(NewColumn("customer_id", Int, []any{int64(1090), int64(3565)})))
		idx, err := f.KeyIndex("customer_id")
		require.NoError(t, err)
		assert.Equal(t, 1, idx[KeyOf("3565")])
	})

	t.Run("Error - Duplicate key", func(t *testing.T) {
		f := New()
		require.NoError(t, f.Set(NewColumn("customer_id", String, []any{"1", "1"})))
		_, err := f.KeyIndex("customer_id")
		assert.ErrorIs(t, err, ErrDuplicateKey)
	})
}

func TestFrame_MarshalJSON(t *testing.T) {
	f := sampleFrame(t)
	require.NoError(t, f.Set(NewColumn("std", Float, []any{math.NaN(), 1.5, nil})))

	data, err := json.Marshal(f)
	require.NoError(t, err)

	assert.Contains(t, string(data), `{"loan_id":"1","amount":2426,"loan_date":"11/15/2021","std":null}`)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 3)
	assert.Equal(t, 1.5, decoded[1]["std"])
}

func TestFrame_GridAndAsStrings(t *testing.T) {
	f := sampleFrame(t)
	grid := f.Grid(true)
	require.Len(t, grid, 4)
	assert.Equal(t, []string{"loan_id", "amount", "loan_date"}, grid[0])
	assert.Equal(t, []string{"1", "2426", "11/15/2021"}, grid[1])

	f.AsStrings()
	col, err := f.Column("amount")
	require.NoError(t, err)
	assert.Equal(t, String, col.Kind)
	assert.Equal(t, "2153", col.Values[1])
}

func TestFromRecords(t *testing.T) {
	records := []map[string]any{
		{"customer_id": json.Number("1090"), "annual_income": json.Number("41333"), "note": "a"},
		{"customer_id": json.Number("3565"), "annual_income": json.Number("76498.5")},
	}

	f := FromRecords(records, []string{"customer_id", "annual_income"})

	assert.Equal(t, []string{"customer_id", "annual_income", "note"}, f.Names())
	id, _ := f.Column("customer_id")
	assert.Equal(t, Int, id.Kind)
	income, _ := f.Column("annual_income")
	assert.Equal(t, Float, income.Kind)
	assert.Equal(t, 41333.0, income.Values[0])
	assert.Nil(t, f.Value(1, "note"))
}
