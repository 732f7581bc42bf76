package customer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"loan-feature-engine/internal/domain/customer"
	"loan-feature-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupTest() (*customer.MockCustomerRepository, customer.CustomerService) {
	mockRepo := new(customer.MockCustomerRepository)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := customer.NewCustomerService(mockRepo, logger)
	return mockRepo, service
}

func TestNewCustomerService_PanicsOnNilRepo(t *testing.T) {
	assert.Panics(t, func() { customer.NewCustomerService(nil, nil) })
}

func TestCustomerService_RegisterCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo, service := setupTest()
		mockRepo.On("Save", ctx, mock.MatchedBy(func(c *customer.Customer) bool {
			return c.ID == 1423 && c.AnnualIncome == 34513
		})).Return(nil).Once()

		cust, err := service.RegisterCustomer(ctx, 1423, 34513)

		assert.NoError(t, err)
		assert.Equal(t, int64(1423), cust.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error - Validation", func(t *testing.T) {
		mockRepo, service := setupTest()

		_, err := service.RegisterCustomer(ctx, 1423, -1)

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("Error - Already exists", func(t *testing.T) {
		mockRepo, service := setupTest()
		mockRepo.On("Save", ctx, mock.Anything).Return(apperrors.ErrAlreadyExists).Once()

		_, err := service.RegisterCustomer(ctx, 1090, 1)

		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
		mockRepo.AssertExpectations(t)
	})
}

func TestCustomerService_UpdateCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo, service := setupTest()
		mockRepo.On("Update", ctx, &customer.Customer{ID: 1090, AnnualIncome: 50000}).Return(nil).Once()

		cust, err := service.UpdateCustomer(ctx, 1090, 50000)

		assert.NoError(t, err)
		assert.Equal(t, 50000.0, cust.AnnualIncome)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error - Not Found", func(t *testing.T) {
		mockRepo, service := setupTest()
		mockRepo.On("Update", ctx, mock.Anything).Return(customer.ErrNotFound).Once()

		_, err := service.UpdateCustomer(ctx, 42, 1)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Error - Validation", func(t *testing.T) {
		mockRepo, service := setupTest()

		_, err := service.UpdateCustomer(ctx, 1090, -1)

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestCustomerService_GetCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo, service := setupTest()
		expected := &customer.Customer{ID: 1090, AnnualIncome: 41333}
		mockRepo.On("FindByID", ctx, int64(1090)).Return(expected, nil).Once()

		cust, err := service.GetCustomer(ctx, 1090)

		assert.NoError(t, err)
		assert.Equal(t, expected, cust)
	})

	t.Run("Error - Not Found", func(t *testing.T) {
		mockRepo, service := setupTest()
		mockRepo.On("FindByID", ctx, int64(7)).Return(nil, customer.ErrNotFound).Once()

		_, err := service.GetCustomer(ctx, 7)

		assert.ErrorIs(t, err, customer.ErrNotFound)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Error - Repository", func(t *testing.T) {
		mockRepo, service := setupTest()
		mockRepo.On("FindByID", ctx, int64(7)).Return(nil, errors.New("db down")).Once()

		_, err := service.GetCustomer(ctx, 7)

		assert.EqualError(t, err, "failed to get customer 7: db down")
	})
}

func TestCustomerService_ListCustomers(t *testing.T) {
	ctx := context.Background()
	mockRepo, service := setupTest()
	mockRepo.On("FindAll", ctx).Return([]*customer.Customer{{ID: 1090}, {ID: 3565}}, nil).Once()

	customers, err := service.ListCustomers(ctx)

	assert.NoError(t, err)
	assert.Len(t, customers, 2)
}

func TestCustomerService_DeleteCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo, service := setupTest()
		mockRepo.On("Delete", ctx, int64(1090)).Return(nil).Once()

		assert.NoError(t, service.DeleteCustomer(ctx, 1090))
	})

	t.Run("Error - Not Found", func(t *testing.T) {
		mockRepo, service := setupTest()
		mockRepo.On("Delete", ctx, int64(42)).Return(customer.ErrNotFound).Once()

		err := service.DeleteCustomer(ctx, 42)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestCustomerService_Exists(t *testing.T) {
	ctx := context.Background()
	mockRepo, service := setupTest()
	mockRepo.On("FindByID", ctx, int64(1090)).Return(&customer.Customer{ID: 1090}, nil).Once()
	mockRepo.On("FindByID", ctx, int64(1)).Return(nil, customer.ErrNotFound).Once()

	ok, err := service.Exists(ctx, 1090)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = service.Exists(ctx, 1)
	assert.NoError(t, err)
	assert.False(t, ok)
}
