package loan

import (
	"fmt"
	"strings"
	"time"

	"loan-feature-engine/internal/pkg/apperrors"
)

// DateLayout is the month-first format loan dates are stored and served in.
const DateLayout = "01/02/2006"

type Term string

const (
	TermLong  Term = "long"
	TermShort Term = "short"
)

func ParseTerm(s string) (Term, error) {
	switch Term(strings.ToLower(strings.TrimSpace(s))) {
	case TermLong:
		return TermLong, nil
	case TermShort:
		return TermShort, nil
	}
	return "", fmt.Errorf("%w: unknown loan term %q", apperrors.ErrValidation, s)
}

// Status values are the codes written to the store; ParseStatus also accepts the names.
type Status string

const (
	StatusPaid    Status = "0"
	StatusNotPaid Status = "1"
)

func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "paid":
		return StatusPaid, nil
	case "1", "not_paid":
		return StatusNotPaid, nil
	}
	return "", fmt.Errorf("%w: unknown loan status %q", apperrors.ErrValidation, s)
}

func (s Status) Name() string {
	switch s {
	case StatusPaid:
		return "paid"
	case StatusNotPaid:
		return "not_paid"
	}
	return string(s)
}

type Loan struct {
	ID         int64
	CustomerID int64
	LoanDate   time.Time
	Amount     float64
	Term       Term
	Fee        float64
	Status     Status
}

func NewLoan(id, customerID int64, loanDate time.Time, amount float64, term string, fee float64, status string) (*Loan, error) {
	t, err := ParseTerm(term)
	if err != nil {
		return nil, err
	}
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	l := &Loan{
		ID:         id,
		CustomerID: customerID,
		LoanDate:   loanDate,
		Amount:     amount,
		Term:       t,
		Fee:        fee,
		Status:     st,
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Loan) Validate() error {
	if l.ID < 0 {
		return apperrors.NewValidationError("loan_id", "must not be negative")
	}
	if l.CustomerID < 0 {
		return apperrors.NewValidationError("customer_id", "must not be negative")
	}
	if l.LoanDate.IsZero() {
		return apperrors.NewValidationError("loan_date", "is required")
	}
	if l.Amount <= 0 {
		return apperrors.NewValidationError("amount", "must be greater than zero")
	}
	if l.Fee < 0 {
		return apperrors.NewValidationError("fee", "must not be negative")
	}
	if _, err := ParseTerm(string(l.Term)); err != nil {
		return err
	}
	if _, err := ParseStatus(string(l.Status)); err != nil {
		return err
	}
	return nil
}

// FormattedDate renders LoanDate in DateLayout.
func (l *Loan) FormattedDate() string {
	return l.LoanDate.Format(DateLayout)
}
