package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"loan-feature-engine/internal/domain/loan"
	"loan-feature-engine/internal/frame"
	"loan-feature-engine/internal/pkg/apperrors"
)

const (
	LoansTable = "loans"
	LoanKey    = "loan_id"
)

type LoanRepository struct {
	store  *TableStore
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(store *TableStore, logger *slog.Logger) *LoanRepository {
	if store == nil {
		panic("TableStore cannot be nil for LoanRepository")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LoanRepository{store: store, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) Save(ctx context.Context, l *loan.Loan) error {
	if l == nil {
		return fmt.Errorf("%w: loan cannot be nil", apperrors.ErrInvalidArgument)
	}
	r.logger.InfoContext(ctx, "Attempting to insert loan", slog.Int64("loan_id", l.ID), slog.Int64("customer_id", l.CustomerID))
	return r.store.InsertRow(ctx, LoansTable, LoanRow(l))
}

// Upsert stores l, replacing the row that already has its loan_id.
func (r *LoanRepository) Upsert(ctx context.Context, l *loan.Loan) error {
	if l == nil {
		return fmt.Errorf("%w: loan cannot be nil", apperrors.ErrInvalidArgument)
	}
	r.logger.InfoContext(ctx, "Attempting to upsert loan", slog.Int64("loan_id", l.ID), slog.Int64("customer_id", l.CustomerID))
	return r.store.Upsert(ctx, LoansTable, LoanRow(l), []string{LoanKey})
}

func (r *LoanRepository) FindByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	f, err := r.store.Find(ctx, LoansTable, map[string]any{LoanKey: strconv.FormatInt(loanID, 10)})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, loan.ErrNotFound
		}
		return nil, err
	}
	if f.Len() == 0 {
		return nil, loan.ErrNotFound
	}
	return loanFromFrame(f, 0)
}

func (r *LoanRepository) FindAll(ctx context.Context) ([]*loan.Loan, error) {
	f, err := r.store.Find(ctx, LoansTable, nil)
	if err != nil {
		return nil, err
	}
	loans := make([]*loan.Loan, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		l, err := loanFromFrame(f, i)
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, nil
}

func (r *LoanRepository) Delete(ctx context.Context, loanID int64) error {
	_, err := r.store.Delete(ctx, LoansTable, map[string]any{LoanKey: strconv.FormatInt(loanID, 10)})
	if errors.Is(err, apperrors.ErrNotFound) {
		return loan.ErrNotFound
	}
	return err
}

// LoanRow is the stored form of a loan: string identifiers, month-first date, status code.
func LoanRow(l *loan.Loan) map[string]any {
	return map[string]any{
		LoanKey:       strconv.FormatInt(l.ID, 10),
		"loan_date":   l.FormattedDate(),
		"amount":      l.Amount,
		"term":        string(l.Term),
		"fee":         l.Fee,
		"loan_status": string(l.Status),
		CustomerKey:   strconv.FormatInt(l.CustomerID, 10),
	}
}

func loanFromFrame(f *frame.Frame, row int) (*loan.Loan, error) {
	coerce := func(col string, err error) error {
		return apperrors.NewCoercionError(col, row, f.Value(row, col), err)
	}

	id, err := parseID(f.Value(row, LoanKey))
	if err != nil {
		return nil, coerce(LoanKey, err)
	}
	customerID, err := parseID(f.Value(row, CustomerKey))
	if err != nil {
		return nil, coerce(CustomerKey, err)
	}
	date, err := frame.ParseDate(f.Value(row, "loan_date"), false)
	if err != nil {
		return nil, coerce("loan_date", err)
	}
	amount, err := frame.ToFloat(f.Value(row, "amount"))
	if err != nil {
		return nil, coerce("amount", err)
	}
	fee, err := frame.ToFloat(f.Value(row, "fee"))
	if err != nil {
		return nil, coerce("fee", err)
	}
	term, err := loan.ParseTerm(frame.Format(f.Value(row, "term")))
	if err != nil {
		return nil, coerce("term", err)
	}
	status, err := loan.ParseStatus(frame.Format(f.Value(row, "loan_status")))
	if err != nil {
		return nil, coerce("loan_status", err)
	}

	return &loan.Loan{
		ID:         id,
		CustomerID: customerID,
		LoanDate:   date,
		Amount:     amount,
		Term:       term,
		Fee:        fee,
		Status:     status,
	}, nil
}
