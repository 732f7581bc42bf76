package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"loan-feature-engine/internal/domain/customer"
)

type LoanService interface {
	RegisterLoan(ctx context.Context, loan *Loan) (*Loan, error)

	// ReplaceLoan stores loan whether or not its id is already taken.
	ReplaceLoan(ctx context.Context, loan *Loan) (*Loan, error)

	GetLoan(ctx context.Context, loanID int64) (*Loan, error)

	ListLoans(ctx context.Context) ([]*Loan, error)

	DeleteLoan(ctx context.Context, loanID int64) error
}

var _ LoanService = (*loanServiceImpl)(nil)

type loanServiceImpl struct {
	repo            Repository
	customerService customer.CustomerService
	logger          *slog.Logger
}

func NewLoanService(r Repository, cs customer.CustomerService, logger *slog.Logger) LoanService {
	if r == nil {
		panic("loan repository cannot be nil")
	}
	if cs == nil {
		panic("customer service cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	return &loanServiceImpl{repo: r, customerService: cs, logger: logger.With(slog.String("component", "loanService"))}
}

func (s *loanServiceImpl) RegisterLoan(ctx context.Context, l *Loan) (*Loan, error) {
	return s.store(ctx, l, "register", s.repo.Save)
}

func (s *loanServiceImpl) ReplaceLoan(ctx context.Context, l *Loan) (*Loan, error) {
	return s.store(ctx, l, "replace", s.repo.Upsert)
}

// store validates l and checks its customer before handing it to write.
func (s *loanServiceImpl) store(ctx context.Context, l *Loan, action string, write func(context.Context, *Loan) error) (*Loan, error) {
	if l == nil {
		return nil, errors.New("loan cannot be nil")
	}
	logger := s.logger.With(slog.Int64("loanID", l.ID), slog.Int64("customerID", l.CustomerID), slog.String("action", action))
	logger.InfoContext(ctx, "Attempting to store loan")

	if err := l.Validate(); err != nil {
		logger.WarnContext(ctx, "Loan validation failed", slog.Any("error", err))
		return nil, err
	}

	exists, err := s.customerService.Exists(ctx, l.CustomerID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to verify customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to verify customer %d: %w", l.CustomerID, err)
	}
	if !exists {
		logger.WarnContext(ctx, "Customer not found for loan")
		return nil, fmt.Errorf("%w: customer %d", ErrCustomerNotFound, l.CustomerID)
	}

	if err := write(ctx, l); err != nil {
		logger.ErrorContext(ctx, "Repository failed to store loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to %s loan %d: %w", action, l.ID, err)
	}

	logger.InfoContext(ctx, "Successfully stored loan")
	return l, nil
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID int64) (*Loan, error) {
	logger := s.logger.With(slog.Int64("loanID", loanID))
	logger.InfoContext(ctx, "Attempting to get loan by ID")

	l, err := s.repo.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.WarnContext(ctx, "Loan not found by repository")
			return nil, ErrNotFound
		}
		logger.ErrorContext(ctx, "Repository error finding loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get loan %d: %w", loanID, err)
	}
	return l, nil
}

func (s *loanServiceImpl) ListLoans(ctx context.Context) ([]*Loan, error) {
	s.logger.InfoContext(ctx, "Attempting to list loans")

	loans, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing loans", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully retrieved loans", slog.Int("count", len(loans)))
	return loans, nil
}

func (s *loanServiceImpl) DeleteLoan(ctx context.Context, loanID int64) error {
	logger := s.logger.With(slog.Int64("loanID", loanID))
	logger.InfoContext(ctx, "Attempting to delete loan")

	if err := s.repo.Delete(ctx, loanID); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.WarnContext(ctx, "Loan not found by repository")
			return ErrNotFound
		}
		logger.ErrorContext(ctx, "Repository error deleting loan", slog.Any("error", err))
		return fmt.Errorf("failed to delete loan %d: %w", loanID, err)
	}

	logger.InfoContext(ctx, "Successfully deleted loan")
	return nil
}
