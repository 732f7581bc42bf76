// Package feature turns customer and loan records into per-entity feature tables.
package feature

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"loan-feature-engine/internal/dataset"
	"loan-feature-engine/internal/domain/loan"
	"loan-feature-engine/internal/frame"
	"loan-feature-engine/internal/pkg/apperrors"
)

const (
	CustomersTable = "customers"
	LoansTable     = "loans"
	CustomerKey    = "customer_id"
	LoanKey        = "loan_id"
)

var customerColumns = []string{CustomerKey, "annual_income"}

var loanColumns = []string{LoanKey, CustomerKey, "loan_date", "amount", "term", "fee", "loan_status"}

// TableReader is the read side of the relational store.
type TableReader interface {
	IsEmpty(ctx context.Context, table string) (bool, error)
	Find(ctx context.Context, table string, filters map[string]any) (*frame.Frame, error)
}

// Tables is one load: the two flat entity tables.
type Tables struct {
	Customers *frame.Frame
	Loans     *frame.Frame
}

type Loader struct {
	sourcePath string
	store      TableReader
	logger     *slog.Logger
}

// NewLoader reads from sourcePath, or from store when it already holds both tables.
// store may be nil.
func NewLoader(sourcePath string, store TableReader, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return &Loader{sourcePath: sourcePath, store: store, logger: logger.With("component", "Loader")}
}

func (l *Loader) Load(ctx context.Context) (*Tables, error) {
	if l.store != nil {
		populated, err := l.storePopulated(ctx)
		if err != nil {
			l.logger.ErrorContext(ctx, "Failed to inspect store", slog.Any("error", err))
			return nil, err
		}
		if populated {
			return l.loadFromStore(ctx)
		}
	}
	return l.loadFromSource(ctx)
}

func (l *Loader) storePopulated(ctx context.Context) (bool, error) {
	for _, table := range []string{CustomersTable, LoansTable} {
		empty, err := l.store.IsEmpty(ctx, table)
		if err != nil {
			return false, err
		}
		if empty {
			return false, nil
		}
	}
	return true, nil
}

// Stored rows are already flat, so only type coercion runs. Dates are stored month-first.
func (l *Loader) loadFromStore(ctx context.Context) (*Tables, error) {
	l.logger.InfoContext(ctx, "Loading tables from store")
	customers, err := l.store.Find(ctx, CustomersTable, nil)
	if err != nil {
		return nil, err
	}
	loans, err := l.store.Find(ctx, LoansTable, nil)
	if err != nil {
		return nil, err
	}
	if err := PostprocessCustomers(customers); err != nil {
		l.logger.ErrorContext(ctx, "Failed to coerce stored customers", slog.Any("error", err))
		return nil, err
	}
	if err := PostprocessLoans(loans, false); err != nil {
		l.logger.ErrorContext(ctx, "Failed to coerce stored loans", slog.Any("error", err))
		return nil, err
	}
	l.logger.InfoContext(ctx, "Successfully loaded tables from store",
		slog.Int("customers", customers.Len()),
		slog.Int("loans", loans.Len()),
	)
	return &Tables{Customers: customers, Loans: loans}, nil
}

func (l *Loader) loadFromSource(ctx context.Context) (*Tables, error) {
	l.logger.InfoContext(ctx, "Loading tables from source", slog.String("path", l.sourcePath))
	raw, err := dataset.ReadSource(l.sourcePath)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to read source", slog.Any("error", err))
		return nil, err
	}
	tables, err := Flatten(raw)
	if err != nil {
		l.logger.ErrorContext(ctx, "Failed to flatten source", slog.Any("error", err))
		return nil, err
	}
	l.logger.InfoContext(ctx, "Successfully loaded tables from source",
		slog.Int("customers", tables.Customers.Len()),
		slog.Int("loans", tables.Loans.Len()),
	)
	return tables, nil
}

// Flatten runs both preprocess steps and coerces the result, parsing dates day-first.
func Flatten(raw []map[string]any) (*Tables, error) {
	customers, err := PreprocessCustomers(raw)
	if err != nil {
		return nil, err
	}
	loans, err := PreprocessLoans(raw)
	if err != nil {
		return nil, err
	}
	if err := PostprocessCustomers(customers); err != nil {
		return nil, err
	}
	if err := PostprocessLoans(loans, true); err != nil {
		return nil, err
	}
	return &Tables{Customers: customers, Loans: loans}, nil
}

// PreprocessCustomers produces one row per customer. annual_income is taken from the
// first embedded loan and falls back to the customer's own field; loans are dropped.
func PreprocessCustomers(raw []map[string]any) (*frame.Frame, error) {
	records := make([]map[string]any, 0, len(raw))
	for i, rc := range raw {
		loans, err := dataset.LoansOf(rc)
		if err != nil {
			return nil, fmt.Errorf("customer %d: %w", i, err)
		}
		rec := make(map[string]any, len(rc))
		for k, v := range rc {
			if k != "loans" {
				rec[k] = v
			}
		}
		rec = flatten(rec)
		if err := renameKey(rec, CustomerKey, "customer_ID", "id"); err != nil {
			return nil, fmt.Errorf("customer %d: %w", i, err)
		}
		if _, ok := rec[CustomerKey]; !ok {
			return nil, fmt.Errorf("%w: customer %d has no identifier", apperrors.ErrParse, i)
		}

		income, ok := dataset.Field(rc, "annual_income")
		if len(loans) > 0 {
			if v, found := dataset.Field(loans[0], "annual_income"); found {
				income, ok = v, true
			}
		}
		if !ok {
			return nil, fmt.Errorf("%w: customer %v has no annual_income", apperrors.ErrParse, rec[CustomerKey])
		}
		rec["annual_income"] = income
		records = append(records, rec)
	}
	return fromRecords(records, customerColumns), nil
}

// PreprocessLoans explodes the nested loans into one row per loan carrying the owning
// customer_id, drops annual_income, numbers loans by position when none has an id and
// casts every value to a string.
func PreprocessLoans(raw []map[string]any) (*frame.Frame, error) {
	var records []map[string]any
	for i, rc := range raw {
		owner, ok := dataset.Field(rc, "customer_ID", CustomerKey, "id")
		if !ok {
			return nil, fmt.Errorf("%w: customer %d has no identifier", apperrors.ErrParse, i)
		}
		loans, err := dataset.LoansOf(rc)
		if err != nil {
			return nil, fmt.Errorf("customer %d: %w", i, err)
		}
		for j, rl := range loans {
			rec := flatten(rl)
			delete(rec, "annual_income")
			if err := renameKey(rec, CustomerKey, "customer_ID"); err != nil {
				return nil, fmt.Errorf("customer %v loan %d: %w", owner, j, err)
			}
			if err := renameKey(rec, LoanKey, "id"); err != nil {
				return nil, fmt.Errorf("customer %v loan %d: %w", owner, j, err)
			}
			if v, ok := rec[CustomerKey]; ok && frame.KeyOf(v) != frame.KeyOf(owner) {
				return nil, fmt.Errorf("%w: loan %d of customer %v names customer %v", apperrors.ErrParse, j, owner, v)
			}
			rec[CustomerKey] = owner
			records = append(records, rec)
		}
	}

	withID := 0
	for _, r := range records {
		if v, ok := r[LoanKey]; ok && v != nil {
			withID++
		}
	}
	positional, err := dataset.CheckLoanIDs(withID, len(records))
	if err != nil {
		return nil, err
	}
	if positional {
		for i, r := range records {
			r[LoanKey] = int64(i)
		}
	}

	f := fromRecords(records, loanColumns)
	f.AsStrings()
	return f, nil
}

// PostprocessCustomers coerces customer_id to a key string and annual_income to a
// non-negative float. The frame is left untouched on error.
func PostprocessCustomers(f *frame.Frame) error {
	if err := requireColumns(f, customerColumns...); err != nil {
		return err
	}
	ids, err := keyColumn(f, CustomerKey)
	if err != nil {
		return err
	}
	incomes, err := floatColumn(f, "annual_income", func(v float64) error {
		if v < 0 {
			return errors.New("must not be negative")
		}
		return nil
	})
	if err != nil {
		return err
	}
	return setAll(f, ids, incomes)
}

// PostprocessLoans coerces loan_date to a date, amount and fee to floats, term and
// loan_status to their canonical codes and both keys to strings. The frame is left
// untouched on error.
func PostprocessLoans(f *frame.Frame, dayFirst bool) error {
	if err := requireColumns(f, loanColumns...); err != nil {
		return err
	}
	loanIDs, err := keyColumn(f, LoanKey)
	if err != nil {
		return err
	}
	customerIDs, err := keyColumn(f, CustomerKey)
	if err != nil {
		return err
	}

	dates, _ := f.Column("loan_date")
	parsed := make([]any, f.Len())
	for i, v := range dates.Values {
		t, err := frame.ParseDate(v, dayFirst)
		if err != nil {
			return apperrors.NewCoercionError("loan_date", i, v, err)
		}
		parsed[i] = t
	}

	amounts, err := floatColumn(f, "amount", func(v float64) error {
		if v <= 0 {
			return errors.New("must be greater than zero")
		}
		return nil
	})
	if err != nil {
		return err
	}
	fees, err := floatColumn(f, "fee", func(v float64) error {
		if v < 0 {
			return errors.New("must not be negative")
		}
		return nil
	})
	if err != nil {
		return err
	}

	terms, _ := f.Column("term")
	termValues := make([]any, f.Len())
	for i, v := range terms.Values {
		t, err := loan.ParseTerm(frame.Format(v))
		if err != nil {
			return apperrors.NewCoercionError("term", i, v, err)
		}
		termValues[i] = string(t)
	}

	statuses, _ := f.Column("loan_status")
	statusValues := make([]any, f.Len())
	for i, v := range statuses.Values {
		s, err := loan.ParseStatus(frame.Format(v))
		if err != nil {
			return apperrors.NewCoercionError("loan_status", i, v, err)
		}
		statusValues[i] = string(s)
	}

	termCol := frame.NewColumn("term", frame.Category, termValues)
	termCol.Levels = []string{string(loan.TermLong), string(loan.TermShort)}
	statusCol := frame.NewColumn("loan_status", frame.Category, statusValues)
	statusCol.Levels = []string{string(loan.StatusPaid), string(loan.StatusNotPaid)}

	return setAll(f,
		loanIDs,
		customerIDs,
		frame.NewColumn("loan_date", frame.Date, parsed),
		amounts,
		fees,
		termCol,
		statusCol,
	)
}

func requireColumns(f *frame.Frame, names ...string) error {
	for _, n := range names {
		if !f.Has(n) {
			return fmt.Errorf("%w: missing column %q", apperrors.ErrParse, n)
		}
	}
	return nil
}

func keyColumn(f *frame.Frame, name string) (*frame.Column, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrParse, err)
	}
	values := make([]any, len(c.Values))
	for i, v := range c.Values {
		k := frame.KeyOf(v)
		if k == "" {
			return nil, apperrors.NewCoercionError(name, i, v, errors.New("empty key"))
		}
		values[i] = k
	}
	return frame.NewColumn(name, frame.String, values), nil
}

func floatColumn(f *frame.Frame, name string, check func(float64) error) (*frame.Column, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrParse, err)
	}
	values := make([]any, len(c.Values))
	for i, v := range c.Values {
		x, err := frame.ToFloat(v)
		if err != nil {
			return nil, apperrors.NewCoercionError(name, i, v, err)
		}
		if err := check(x); err != nil {
			return nil, apperrors.NewCoercionError(name, i, v, err)
		}
		values[i] = x
	}
	return frame.NewColumn(name, frame.Float, values), nil
}

func setAll(f *frame.Frame, cols ...*frame.Column) error {
	for _, c := range cols {
		if err := f.Set(c); err != nil {
			return err
		}
	}
	return nil
}

// renameKey moves the first alias present onto canonical. Two different values under
// the canonical name and an alias are a conflict.
func renameKey(rec map[string]any, canonical string, aliases ...string) error {
	for _, a := range aliases {
		v, ok := rec[a]
		if !ok {
			continue
		}
		delete(rec, a)
		if existing, has := rec[canonical]; has {
			if frame.KeyOf(existing) != frame.KeyOf(v) {
				return fmt.Errorf("%w: %q (%v) conflicts with %q (%v)", apperrors.ErrParse, a, v, canonical, existing)
			}
			continue
		}
		rec[canonical] = v
	}
	return nil
}

// flatten joins nested object keys with "." the way nested JSON is normalised.
func flatten(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			name := k
			if prefix != "" {
				name = prefix + "." + k
			}
			if nested, ok := v.(map[string]any); ok {
				walk(name, nested)
				continue
			}
			out[name] = v
		}
	}
	walk("", rec)
	return out
}

// fromRecords keeps the canonical columns present even when there are no rows.
func fromRecords(records []map[string]any, order []string) *frame.Frame {
	if len(records) > 0 {
		return frame.FromRecords(records, order)
	}
	f := frame.New()
	for _, n := range order {
		_ = f.Set(frame.NewColumn(n, frame.String, []any{}))
	}
	return f
}
