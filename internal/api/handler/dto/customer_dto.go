package dto

import (
	"strconv"

	"loan-feature-engine/internal/domain/customer"

	"github.com/shopspring/decimal"
)

type CreateCustomerRequest struct {
	CustomerID   *ID              `json:"customer_id" validate:"required,gte=0" swaggertype:"string" example:"1090"`
	AnnualIncome *decimal.Decimal `json:"annual_income" validate:"required,gte=0" swaggertype:"number" example:"41333"`
}

func (r *CreateCustomerRequest) Validate() error {
	return Validate(r)
}

// Values returns the id and income of a validated request.
func (r *CreateCustomerRequest) Values() (int64, float64) {
	return int64(*r.CustomerID), r.AnnualIncome.InexactFloat64()
}

type UpdateCustomerRequest struct {
	AnnualIncome *decimal.Decimal `json:"annual_income" validate:"required,gte=0" swaggertype:"number" example:"52000"`
}

func (r *UpdateCustomerRequest) Validate() error {
	return Validate(r)
}

type CustomerResponse struct {
	CustomerID   string  `json:"customer_id" example:"1090"`
	AnnualIncome float64 `json:"annual_income" example:"41333"`
}

func NewCustomerResponse(c *customer.Customer) CustomerResponse {
	if c == nil {
		return CustomerResponse{}
	}
	return CustomerResponse{
		CustomerID:   strconv.FormatInt(c.ID, 10),
		AnnualIncome: c.AnnualIncome,
	}
}

func NewCustomerResponses(cs []*customer.Customer) []CustomerResponse {
	resp := make([]CustomerResponse, 0, len(cs))
	for _, c := range cs {
		resp = append(resp, NewCustomerResponse(c))
	}
	return resp
}
