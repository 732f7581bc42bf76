package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"loan-feature-engine/internal/frame"
	"loan-feature-engine/internal/infrastructure/database/postgres"
)

// TableAdmin is the slice of the table store the seeder drives.
type TableAdmin interface {
	CreateTable(ctx context.Context, table, pkName string, kind postgres.KeyKind) error
	DropTable(ctx context.Context, table string) error
	Clear(ctx context.Context, table string) (int64, error)
	InsertMany(ctx context.Context, table string, f *frame.Frame) error
	Tables(ctx context.Context) ([]string, error)
}

// Summary reports what a reset wrote.
type Summary struct {
	Customers int `json:"customers"`
	Loans     int `json:"loans"`
}

type Seeder struct {
	tables TableAdmin
	path   string
	logger *slog.Logger
}

func NewSeeder(tables TableAdmin, path string, logger *slog.Logger) *Seeder {
	if tables == nil {
		panic("table store cannot be nil for Seeder")
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return &Seeder{
		tables: tables,
		path:   path,
		logger: logger.With("component", "Seeder"),
	}
}

// Reset drops and recreates the customers and loans tables, clears them and
// batch-inserts every row decoded from the source file.
func (s *Seeder) Reset(ctx context.Context) (*Summary, error) {
	s.logger.InfoContext(ctx, "Attempting to reset database from source", slog.String("path", s.path))

	raw, err := ReadSource(s.path)
	if err != nil {
		return nil, err
	}
	records, err := DecodeRecords(raw)
	if err != nil {
		return nil, err
	}
	customers, loans := RecordFrames(records)

	seeds := []struct {
		table, key string
		rows       *frame.Frame
	}{
		{postgres.CustomersTable, postgres.CustomerKey, customers},
		{postgres.LoansTable, postgres.LoanKey, loans},
	}
	for _, seed := range seeds {
		if err := s.RecreateTable(ctx, seed.table, seed.key, postgres.KeyString); err != nil {
			return nil, err
		}
		if _, err := s.tables.Clear(ctx, seed.table); err != nil {
			s.logger.ErrorContext(ctx, "Failed to clear table", slog.String("table", seed.table), slog.Any("error", err))
			return nil, err
		}
	}
	for _, seed := range seeds {
		if err := s.tables.InsertMany(ctx, seed.table, seed.rows); err != nil {
			return nil, fmt.Errorf("seeding %s: %w", seed.table, err)
		}
	}

	summary := &Summary{Customers: customers.Len(), Loans: loans.Len()}
	s.logger.InfoContext(ctx, "Successfully reset database",
		slog.Int("customers", summary.Customers),
		slog.Int("loans", summary.Loans),
	)
	return summary, nil
}

// RecordFrames lays decoded records out as the stored customers and loans tables.
func RecordFrames(records []Record) (customers, loans *frame.Frame) {
	customerCols := []string{postgres.CustomerKey, "annual_income"}
	loanCols := []string{postgres.LoanKey, "loan_date", "amount", "term", "fee", "loan_status", postgres.CustomerKey}

	customerVals := make(map[string][]any, len(customerCols))
	loanVals := make(map[string][]any, len(loanCols))
	for _, rec := range records {
		row := postgres.CustomerRow(rec.Customer)
		for _, c := range customerCols {
			customerVals[c] = append(customerVals[c], row[c])
		}
		for _, l := range rec.Loans {
			row := postgres.LoanRow(l)
			for _, c := range loanCols {
				loanVals[c] = append(loanVals[c], row[c])
			}
		}
	}
	return buildFrame(customerCols, customerVals), buildFrame(loanCols, loanVals)
}

func buildFrame(names []string, values map[string][]any) *frame.Frame {
	f := frame.New()
	if len(values[names[0]]) == 0 {
		return f
	}
	for _, n := range names {
		kind := frame.String
		switch n {
		case "annual_income", "amount", "fee":
			kind = frame.Float
		}
		// columns are equally long, so Set cannot fail
		_ = f.Set(frame.NewColumn(n, kind, values[n]))
	}
	return f
}
// RecreateTable drops table if present and creates it with a single primary key column.
func (s *Seeder) RecreateTable(ctx context.Context, table, pkName string, kind postgres.KeyKind) error {
	if err := s.tables.DropTable(ctx, table); err != nil {
		s.logger.ErrorContext(ctx, "Failed to drop table", slog.String("table", table), slog.Any("error", err))
		return err
	}
	if err := s.tables.CreateTable(ctx, table, pkName, kind); err != nil {
		s.logger.ErrorContext(ctx, "Failed to create table", slog.String("table", table), slog.Any("error", err))
		return err
	}
	s.logger.InfoContext(ctx, "Recreated table", slog.String("table", table), slog.String("pk_name", pkName), slog.String("pk_type", kind.String()))
	return nil
}

func (s *Seeder) Tables(ctx context.Context) ([]string, error) {
	return s.tables.Tables(ctx)
}
