package handlers

import (
	"context"

	"github.com/fintrack/backend/internal/models"
	"github.com/fintrack/backend/internal/services"
	"github.com/stretchr/testify/mock"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) CreateTransaction(ctx context.Context, businessID, userID int64, input *models.CreateTransactionInput) (*models.Transaction, error) {
	args := m.Called(ctx, businessID, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockLedger) UpdateTransaction(ctx context.Context, businessID, id int64, input *models.UpdateTransactionInput) (*models.Transaction, error) {
	args := m.Called(ctx, businessID, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockLedger) DeleteTransaction(ctx context.Context, businessID, id int64) error {
	args := m.Called(ctx, businessID, id)
	return args.Error(0)
}

func (m *MockLedger) GetTransaction(ctx context.Context, businessID, id int64) (*models.Transaction, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockLedger) CreateReceipt(ctx context.Context, businessID, userID int64, input *models.CreateReceiptInput) (*models.Receipt, error) {
	args := m.Called(ctx, businessID, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Receipt), args.Error(1)
}

func (m *MockLedger) UpdateReceipt(ctx context.Context, businessID, id int64, input *models.UpdateReceiptInput) (*models.Receipt, error) {
	args := m.Called(ctx, businessID, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Receipt), args.Error(1)
}

func (m *MockLedger) DeleteReceipt(ctx context.Context, businessID, id int64) error {
	args := m.Called(ctx, businessID, id)
	return args.Error(0)
}

func (m *MockLedger) GetReceipt(ctx context.Context, businessID, id int64) (*models.Receipt, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Receipt), args.Error(1)
}

type MockReader struct {
	mock.Mock
}

func (m *MockReader) ListTransactions(ctx context.Context, businessID int64, f models.TransactionFilter, page models.Pagination) (*models.Page[models.Transaction], error) {
	args := m.Called(ctx, businessID, f, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.Transaction]), args.Error(1)
}

func (m *MockReader) ListReceipts(ctx context.Context, businessID int64, f models.ReceiptFilter, page models.Pagination) (*models.Page[models.Receipt], error) {
	args := m.Called(ctx, businessID, f, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.Receipt]), args.Error(1)
}

func (m *MockReader) ListAccounts(ctx context.Context, businessID int64, f models.AccountFilter, page models.Pagination) (*models.Page[models.Account], error) {
	args := m.Called(ctx, businessID, f, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.Account]), args.Error(1)
}

func (m *MockReader) GetAccount(ctx context.Context, businessID, id int64) (*models.Account, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockReader) CreateAccount(ctx context.Context, businessID int64, input *models.CreateAccountInput) (*models.Account, error) {
	args := m.Called(ctx, businessID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockReader) ListCounterparties(ctx context.Context, role services.CounterpartyRole, businessID int64, search string, page models.Pagination) (*models.Page[models.Counterparty], error) {
	args := m.Called(ctx, role, businessID, search, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.Counterparty]), args.Error(1)
}

func (m *MockReader) GetCounterparty(ctx context.Context, role services.CounterpartyRole, businessID, id int64) (*models.Counterparty, error) {
	args := m.Called(ctx, role, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Counterparty), args.Error(1)
}

func (m *MockReader) CreateCounterparty(ctx context.Context, role services.CounterpartyRole, businessID int64, input *models.CreateCounterpartyInput) (*models.Counterparty, error) {
	args := m.Called(ctx, role, businessID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Counterparty), args.Error(1)
}

func (m *MockReader) ListInvoices(ctx context.Context, businessID int64, f models.InvoiceFilter, page models.Pagination) (*models.Page[models.Invoice], error) {
	args := m.Called(ctx, businessID, f, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.Invoice]), args.Error(1)
}

func (m *MockReader) GetInvoice(ctx context.Context, businessID, id int64) (*models.Invoice, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockReader) TrialBalance(ctx context.Context, businessID int64) (*models.TrialBalance, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrialBalance), args.Error(1)
}

type MockQR struct {
	mock.Mock
}

func (m *MockQR) ReceiptQR(ctx context.Context, r *models.Receipt) ([]byte, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
