package customer

import (
	"math"

	"loan-feature-engine/internal/pkg/apperrors"
)

type Customer struct {
	ID           int64
	AnnualIncome float64
}

func NewCustomer(id int64, annualIncome float64) (*Customer, error) {
	c := &Customer{ID: id, AnnualIncome: annualIncome}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Customer) Validate() error {
	if c.ID < 0 {
		return apperrors.NewValidationError("customer_id", "must not be negative")
	}
	if math.IsNaN(c.AnnualIncome) || c.AnnualIncome < 0 {
		return apperrors.NewValidationError("annual_income", "must be zero or greater")
	}
	return nil
}
