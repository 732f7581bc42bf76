package loan

import (
	"context"
	"fmt"

	"loan-feature-engine/internal/pkg/apperrors"
)

var (
	ErrNotFound = fmt.Errorf("loan %w", apperrors.ErrNotFound)

	ErrCustomerNotFound = fmt.Errorf("%w: loan references an unknown customer", apperrors.ErrValidation)
)

type Repository interface {
	Save(ctx context.Context, loan *Loan) error

	Upsert(ctx context.Context, loan *Loan) error

	FindByID(ctx context.Context, loanID int64) (*Loan, error)

	FindAll(ctx context.Context) ([]*Loan, error)

	Delete(ctx context.Context, loanID int64) error
}
