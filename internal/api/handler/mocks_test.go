package handler_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"loan-feature-engine/internal/dataset"
	"loan-feature-engine/internal/domain/customer"
	"loan-feature-engine/internal/domain/loan"
	"loan-feature-engine/internal/feature"
	"loan-feature-engine/internal/frame"
	"loan-feature-engine/internal/infrastructure/database/postgres"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newRequest builds a request carrying chi URL params without going through a router.
func newRequest(method, target string, body []byte, params map[string]string) *http.Request {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

type MockCustomerService struct {
	mock.Mock
}

var _ customer.CustomerService = (*MockCustomerService)(nil)

func (m *MockCustomerService) RegisterCustomer(ctx context.Context, customerID int64, annualIncome float64) (*customer.Customer, error) {
	args := m.Called(ctx, customerID, annualIncome)
	c, _ := args.Get(0).(*customer.Customer)
	return c, args.Error(1)
}

func (m *MockCustomerService) UpdateCustomer(ctx context.Context, customerID int64, annualIncome float64) (*customer.Customer, error) {
	args := m.Called(ctx, customerID, annualIncome)
	c, _ := args.Get(0).(*customer.Customer)
	return c, args.Error(1)
}

func (m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	c, _ := args.Get(0).(*customer.Customer)
	return c, args.Error(1)
}

func (m *MockCustomerService) ListCustomers(ctx context.Context) ([]*customer.Customer, error) {
	args := m.Called(ctx)
	cs, _ := args.Get(0).([]*customer.Customer)
	return cs, args.Error(1)
}

func (m *MockCustomerService) DeleteCustomer(ctx context.Context, customerID int64) error {
	return m.Called(ctx, customerID).Error(0)
}

func (m *MockCustomerService) Exists(ctx context.Context, customerID int64) (bool, error) {
	args := m.Called(ctx, customerID)
	return args.Bool(0), args.Error(1)
}

type MockLoanService struct {
	mock.Mock
}

var _ loan.LoanService = (*MockLoanService)(nil)

func (m *MockLoanService) RegisterLoan(ctx context.Context, l *loan.Loan) (*loan.Loan, error) {
	args := m.Called(ctx, l)
	out, _ := args.Get(0).(*loan.Loan)
	return out, args.Error(1)
}

func (m *MockLoanService) ReplaceLoan(ctx context.Context, l *loan.Loan) (*loan.Loan, error) {
	args := m.Called(ctx, l)
	out, _ := args.Get(0).(*loan.Loan)
	return out, args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, loanID int64) (*loan.Loan, error) {
	args := m.Called(ctx, loanID)
	out, _ := args.Get(0).(*loan.Loan)
	return out, args.Error(1)
}

func (m *MockLoanService) ListLoans(ctx context.Context) ([]*loan.Loan, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]*loan.Loan)
	return out, args.Error(1)
}

func (m *MockLoanService) DeleteLoan(ctx context.Context, loanID int64) error {
	return m.Called(ctx, loanID).Error(0)
}

type MockFeatureService struct {
	mock.Mock
}

var _ feature.Service = (*MockFeatureService)(nil)

func (m *MockFeatureService) Generate(ctx context.Context, entity feature.Entity) (*frame.Frame, error) {
	args := m.Called(ctx, entity)
	f, _ := args.Get(0).(*frame.Frame)
	return f, args.Error(1)
}

func (m *MockFeatureService) Publish(ctx context.Context, entity feature.Entity) (int, error) {
	args := m.Called(ctx, entity)
	return args.Int(0), args.Error(1)
}

func (m *MockFeatureService) PublishRaw(ctx context.Context, report feature.Report) (int, error) {
	args := m.Called(ctx, report)
	return args.Int(0), args.Error(1)
}

type MockSeeder struct {
	mock.Mock
}

func (m *MockSeeder) Reset(ctx context.Context) (*dataset.Summary, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*dataset.Summary)
	return s, args.Error(1)
}

func (m *MockSeeder) RecreateTable(ctx context.Context, table, pkName string, kind postgres.KeyKind) error {
	return m.Called(ctx, table, pkName, kind).Error(0)
}

func (m *MockSeeder) Tables(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

type MockInspector struct {
	mock.Mock
}

func (m *MockInspector) Columns(ctx context.Context, table string) ([]string, error) {
	args := m.Called(ctx, table)
	cols, _ := args.Get(0).([]string)
	return cols, args.Error(1)
}

func (m *MockInspector) Count(ctx context.Context, table string) (int64, error) {
	args := m.Called(ctx, table)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInspector) Distinct(ctx context.Context, table, column string) ([]any, error) {
	args := m.Called(ctx, table, column)
	values, _ := args.Get(0).([]any)
	return values, args.Error(1)
}
