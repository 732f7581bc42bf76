package customer_test

import (
	"math"
	"testing"

	"loan-feature-engine/internal/domain/customer"
	"loan-feature-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		cust, err := customer.NewCustomer(1090, 41333)
		require.NoError(t, err)
		assert.Equal(t, int64(1090), cust.ID)
		assert.Equal(t, 41333.0, cust.AnnualIncome)
	})

	t.Run("Success - Zero income", func(t *testing.T) {
		_, err := customer.NewCustomer(1, 0)
		assert.NoError(t, err)
	})

	t.Run("Error - Negative income", func(t *testing.T) {
		_, err := customer.NewCustomer(1, -5)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("Error - NaN income", func(t *testing.T) {
		_, err := customer.NewCustomer(1, math.NaN())
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("Error - Negative ID", func(t *testing.T) {
		_, err := customer.NewCustomer(-1, 10)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}
