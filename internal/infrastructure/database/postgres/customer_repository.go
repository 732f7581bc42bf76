package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"loan-feature-engine/internal/domain/customer"
	"loan-feature-engine/internal/frame"
	"loan-feature-engine/internal/pkg/apperrors"
)

const (
	CustomersTable = "customers"
	CustomerKey    = "customer_id"
)

type CustomerRepository struct {
	store  *TableStore
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(store *TableStore, logger *slog.Logger) *CustomerRepository {
	if store == nil {
		panic("TableStore cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CustomerRepository{store: store, logger: logger.With("component", "CustomerRepository")}
}

func (r *CustomerRepository) Save(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}
	r.logger.InfoContext(ctx, "Attempting to insert customer", slog.Int64("customer_id", cust.ID))
	if err := r.store.InsertRow(ctx, CustomersTable, CustomerRow(cust)); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Customer already exists", slog.Int64("customer_id", cust.ID))
		}
		return err
	}
	return nil
}

// Update overwrites the stored fields of an existing customer.
func (r *CustomerRepository) Update(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}
	r.logger.InfoContext(ctx, "Attempting to update customer", slog.Int64("customer_id", cust.ID))
	affected, err := r.store.Update(ctx, CustomersTable, CustomerRow(cust), []string{CustomerKey})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return customer.ErrNotFound
		}
		return err
	}
	if affected == 0 {
		return customer.ErrNotFound
	}
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	f, err := r.store.Find(ctx, CustomersTable, map[string]any{CustomerKey: strconv.FormatInt(customerID, 10)})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, customer.ErrNotFound
		}
		return nil, err
	}
	if f.Len() == 0 {
		return nil, customer.ErrNotFound
	}
	return customerFromFrame(f, 0)
}

func (r *CustomerRepository) FindAll(ctx context.Context) ([]*customer.Customer, error) {
	f, err := r.store.Find(ctx, CustomersTable, nil)
	if err != nil {
		return nil, err
	}
	customers := make([]*customer.Customer, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		c, err := customerFromFrame(f, i)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, customerID int64) error {
	_, err := r.store.Delete(ctx, CustomersTable, map[string]any{CustomerKey: strconv.FormatInt(customerID, 10)})
	if errors.Is(err, apperrors.ErrNotFound) {
		return customer.ErrNotFound
	}
	return err
}

// CustomerRow is the stored form of a customer. Identifiers are kept as strings.
func CustomerRow(c *customer.Customer) map[string]any {
	return map[string]any{
		CustomerKey:     strconv.FormatInt(c.ID, 10),
		"annual_income": c.AnnualIncome,
	}
}

func customerFromFrame(f *frame.Frame, row int) (*customer.Customer, error) {
	id, err := parseID(f.Value(row, CustomerKey))
	if err != nil {
		return nil, apperrors.NewCoercionError(CustomerKey, row, f.Value(row, CustomerKey), err)
	}
	income, err := frame.ToFloat(f.Value(row, "annual_income"))
	if err != nil {
		return nil, apperrors.NewCoercionError("annual_income", row, f.Value(row, "annual_income"), err)
	}
	return &customer.Customer{ID: id, AnnualIncome: income}, nil
}

func parseID(v any) (int64, error) {
	return strconv.ParseInt(frame.KeyOf(v), 10, 64)
}
