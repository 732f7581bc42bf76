package dto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"loan-feature-engine/internal/domain/loan"
	"loan-feature-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

type CreateLoanRequest struct {
	LoanID     *ID              `json:"loan_id" validate:"required,gte=0" swaggertype:"string" example:"15"`
	LoanDate   string           `json:"loan_date" validate:"required" example:"11/15/2021"`
	Amount     decimal.Decimal  `json:"amount" validate:"gt=0" swaggertype:"number" example:"1000"`
	Term       string           `json:"term" validate:"required,oneof=long short" example:"long"`
	Fee        *decimal.Decimal `json:"fee" validate:"required,gte=0" swaggertype:"number" example:"100"`
	LoanStatus Code             `json:"loan_status" validate:"required,oneof=0 1 paid not_paid" swaggertype:"string" example:"0"`
	CustomerID *ID              `json:"customer_id" validate:"required,gte=0" swaggertype:"string" example:"1090"`
}

func (r *CreateLoanRequest) Validate() error {
	if err := Validate(r); err != nil {
		return err
	}
	if _, err := r.Date(); err != nil {
		return err
	}
	return nil
}

// MatchesPath rejects a body whose loan_id differs from the one in the URL.
func (r *CreateLoanRequest) MatchesPath(loanID int64) error {
	if r.LoanID == nil || int64(*r.LoanID) != loanID {
		return apperrors.NewValidationError("loan_id", fmt.Sprintf("must match the loan id in the path (%d)", loanID))
	}
	return nil
}

// Date parses loan_date as MM/DD/YYYY and falls back to YYYY-MM-DD.
func (r *CreateLoanRequest) Date() (time.Time, error) {
	s := strings.TrimSpace(r.LoanDate)
	for _, layout := range []string{loan.DateLayout, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.NewValidationError("loan_date", fmt.Sprintf("%q is not a MM/DD/YYYY date", r.LoanDate))
}

// ToDomain builds a loan from a request that passed Validate.
func (r *CreateLoanRequest) ToDomain() (*loan.Loan, error) {
	if r.LoanID == nil || r.CustomerID == nil || r.Fee == nil {
		return nil, apperrors.NewValidationError("", "loan_id, customer_id and fee are required")
	}
	date, err := r.Date()
	if err != nil {
		return nil, err
	}
	return loan.NewLoan(
		int64(*r.LoanID),
		int64(*r.CustomerID),
		date,
		r.Amount.InexactFloat64(),
		r.Term,
		r.Fee.InexactFloat64(),
		string(r.LoanStatus),
	)
}

type LoanResponse struct {
	LoanID     string  `json:"loan_id" example:"15"`
	LoanDate   string  `json:"loan_date" example:"11/15/2021"`
	Amount     float64 `json:"amount" example:"1000"`
	Term       string  `json:"term" example:"long"`
	Fee        float64 `json:"fee" example:"100"`
	LoanStatus string  `json:"loan_status" example:"0"`
	CustomerID string  `json:"customer_id" example:"1090"`
}

func NewLoanResponse(l *loan.Loan) LoanResponse {
	if l == nil {
		return LoanResponse{}
	}
	return LoanResponse{
		LoanID:     strconv.FormatInt(l.ID, 10),
		LoanDate:   l.FormattedDate(),
		Amount:     l.Amount,
		Term:       string(l.Term),
		Fee:        l.Fee,
		LoanStatus: string(l.Status),
		CustomerID: strconv.FormatInt(l.CustomerID, 10),
	}
}

func NewLoanResponses(ls []*loan.Loan) []LoanResponse {
	resp := make([]LoanResponse, 0, len(ls))
	for _, l := range ls {
		resp = append(resp, NewLoanResponse(l))
	}
	return resp
}
