package services

import (
	"context"
	"database/sql/driver"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fintrack/backend/internal/audit"
	"github.com/fintrack/backend/internal/models"
	"github.com/fintrack/backend/internal/observability"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const (
	testBusinessID = int64(1)
	testUserID     = int64(5)
)

var transactionColumns = []string{
	"id", "business_id", "transaction_number", "transaction_date", "description", "reference",
	"total_amount", "transaction_type", "category_id", "customer_id", "supplier_id", "status",
	"payment_method", "category_name", "customer_name", "supplier_name", "created_by", "created_at", "updated_at",
}

var detailColumns = []string{
	"id", "transaction_id", "account_id", "code", "name", "debit_amount", "credit_amount", "description", "line_number",
}

var receiptColumns = []string{
	"id", "business_id", "receipt_number", "receipt_date", "amount", "payment_method", "description", "reference",
	"category_id", "customer_id", "supplier_id", "invoice_id", "category_name", "customer_name", "supplier_name",
	"invoice_number", "created_by", "created_at", "updated_at",
}

// numberLike matches generated document numbers.
type numberLike struct{ re *regexp.Regexp }

func (n numberLike) Match(v driver.Value) bool {
	s, ok := v.(string)
	return ok && n.re.MatchString(s)
}

func newTestLedger(t *testing.T) (*LedgerService, sqlmock.Sqlmock, *observability.Metrics) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	metrics := observability.NewMetrics()
	svc := NewLedgerService(db, zap.NewNop(), audit.NewLogger(zap.NewNop()), metrics)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	return svc, mock, metrics
}

func expectTransactionReadBack(mock sqlmock.Sqlmock, id int64, status string, customerID any, customerName any) {
	now := time.Now()
	mock.ExpectQuery("FROM transactions t").
		WithArgs(id, testBusinessID).
		WillReturnRows(sqlmock.NewRows(transactionColumns).AddRow(
			id, testBusinessID, "TXN-20240301-ABCDEF12", "2024-03-01", "Credit sale", nil,
			"200.00", "sale", nil, customerID, nil, status,
			nil, nil, customerName, nil, testUserID, now, now,
		))
	mock.ExpectQuery("FROM transaction_details d").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(detailColumns).
			AddRow(int64(1), id, int64(1), "1100", "Accounts Receivable", "200.00", "0.00", nil, 1).
			AddRow(int64(2), id, int64(4), "4000", "Sales", "0.00", "200.00", nil, 2))
}

func expectReceiptReadBack(mock sqlmock.Sqlmock, id int64, amount string, customerID any) {
	now := time.Now()
	mock.ExpectQuery("FROM receipts r").
		WithArgs(id, testBusinessID).
		WillReturnRows(sqlmock.NewRows(receiptColumns).AddRow(
			id, testBusinessID, "RCP-20240301-ABCDEF12", "2024-03-01", amount, "cash", nil, nil,
			nil, customerID, nil, nil, nil, nil, nil,
			nil, testUserID, now, now,
		))
}

func expectAccountsOwned(mock sqlmock.Sqlmock, ids string, owned ...int64) {
	rows := sqlmock.NewRows([]string{"id"})
	for _, id := range owned {
		rows.AddRow(id)
	}
	mock.ExpectQuery("SELECT id FROM accounts WHERE business_id").
		WithArgs(testBusinessID, ids).
		WillReturnRows(rows)
}

func expectOwned(mock sqlmock.Sqlmock, table string, id int64, owned bool) {
	rows := sqlmock.NewRows([]string{"?column?"})
	if owned {
		rows.AddRow(1)
	}
	mock.ExpectQuery("SELECT 1 FROM "+table).
		WithArgs(id, testBusinessID).
		WillReturnRows(rows)
}

func expectSaleRefs(mock sqlmock.Sqlmock) {
	expectAccountsOwned(mock, "{1,4}", 1, 4)
	expectOwned(mock, "customers", 7, true)
}

func saleInput() *models.CreateTransactionInput {
	return &models.CreateTransactionInput{
		TransactionDate: "2024-03-01",
		Description:     "Credit sale",
		TotalAmount:     decimal.NewFromInt(200),
		TransactionType: models.TransactionTypeSale,
		CustomerID:      int64Ptr(7),
		Details: []models.TransactionLineInput{
			{AccountID: 1, DebitAmount: decimal.NewFromInt(200)},
			{AccountID: 4, CreditAmount: decimal.NewFromInt(200)},
		},
	}
}

func TestLedgerService_CreateTransaction(t *testing.T) {
	svc, mock, metrics := newTestLedger(t)

	mock.ExpectBegin()
	expectSaleRefs(mock)
	mock.ExpectQuery("INSERT INTO transactions").
		WithArgs(
			testBusinessID, numberLike{regexp.MustCompile(`^TXN-20240301-[0-9A-F]{8}$`)}, "2024-03-01", "Credit sale", nil,
			decimal.NewFromInt(200), "sale", nil, int64(7), nil, "posted", nil, testUserID,
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	mock.ExpectExec("INSERT INTO transaction_details").
		WithArgs(int64(10), int64(1), decimal.NewFromInt(200), decimal.Zero, nil, 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO transaction_details").
		WithArgs(int64(10), int64(4), decimal.Zero, decimal.NewFromInt(200), nil, 2).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("UPDATE accounts SET current_balance").
		WithArgs(decimal.NewFromInt(-200), int64(1), testBusinessID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE accounts SET current_balance").
		WithArgs(decimal.NewFromInt(200), int64(4), testBusinessID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE customers SET current_balance").
		WithArgs(decimal.NewFromInt(200), int64(7), testBusinessID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectTransactionReadBack(mock, 10, "posted", int64(7), "Globex")

	txn, err := svc.CreateTransaction(context.Background(), testBusinessID, testUserID, saleInput())
	require.NoError(t, err)

	assert.Equal(t, int64(10), txn.ID)
	assert.Equal(t, models.TransactionStatusPosted, txn.Status)
	require.NotNil(t, txn.CustomerName)
	assert.Equal(t, "Globex", *txn.CustomerName)
	require.Len(t, txn.Details, 2)
	assert.Equal(t, 1, txn.Details[0].LineNumber)
	assert.True(t, txn.Details[1].CreditAmount.Equal(decimal.NewFromInt(200)))
	assert.NoError(t, mock.ExpectationsWereMet())

	expected := `
# HELP fintrack_ledger_mutations_total Ledger mutations by operation and outcome.
# TYPE fintrack_ledger_mutations_total counter
fintrack_ledger_mutations_total{operation="create_transaction",outcome="success"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry, strings.NewReader(expected), "fintrack_ledger_mutations_total"))
}

func TestLedgerService_CreateTransaction_PaymentReversesSale(t *testing.T) {
	svc, mock, _ := newTestLedger(t)

	input := saleInput()
	input.TransactionType = models.TransactionTypePayment

	mock.ExpectBegin()
	expectSaleRefs(mock)
	mock.ExpectQuery("INSERT INTO transactions").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectExec("INSERT INTO transaction_details").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO transaction_details").WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("UPDATE accounts SET current_balance").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE accounts SET current_balance").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE customers SET current_balance").
		WithArgs(decimal.NewFromInt(-200), int64(7), testBusinessID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectTransactionReadBack(mock, 11, "posted", int64(7), "Globex")

	_, err := svc.CreateTransaction(context.Background(), testBusinessID, testUserID, input)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_CreateTransaction_Imbalanced(t *testing.T) {
	svc, mock, metrics := newTestLedger(t)

	input := saleInput()
	input.Details = []models.TransactionLineInput{{AccountID: 1, DebitAmount: decimal.NewFromInt(100)}}

	_, err := svc.CreateTransaction(context.Background(), testBusinessID, testUserID, input)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Total debits must equal total credits", verr.Message)
	assert.NoError(t, mock.ExpectationsWereMet(), "no balance may be touched")

	expected := `
# HELP fintrack_ledger_mutations_total Ledger mutations by operation and outcome.
# TYPE fintrack_ledger_mutations_total counter
fintrack_ledger_mutations_total{operation="create_transaction",outcome="validation"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry, strings.NewReader(expected), "fintrack_ledger_mutations_total"))
}

func TestLedgerService_CreateTransaction_InvalidInput(t *testing.T) {
	svc, mock, _ := newTestLedger(t)

	input := saleInput()
	input.Description = ""
	input.TotalAmount = decimal.Zero

	_, err := svc.CreateTransaction(context.Background(), testBusinessID, testUserID, input)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_CreateTransaction_MissingAccountRollsBack(t *testing.T) {
	svc, mock, _ := newTestLedger(t)

	mock.ExpectBegin()
	expectSaleRefs(mock)
	mock.ExpectQuery("INSERT INTO transactions").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))
	mock.ExpectExec("INSERT INTO transaction_details").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO transaction_details").WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("UPDATE accounts SET current_balance").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.CreateTransaction(context.Background(), testBusinessID, testUserID, saleInput())

	var nerr *NotFoundError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "account", nerr.Entity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_CreateTransaction_ForeignAccount(t *testing.T) {
	svc, mock, _ := newTestLedger(t)

	mock.ExpectBegin()
	expectAccountsOwned(mock, "{1,4}", 1)
	mock.ExpectRollback()

	_, err := svc.CreateTransaction(context.Background(), testBusinessID, testUserID, saleInput())

	var nerr *NotFoundError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "account 4 not found", nerr.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_CreateTransaction_ForeignCustomerWithoutBalanceEffect(t *testing.T) {
	svc, mock, _ := newTestLedger(t)

	// income never moves a customer balance
	input := saleInput()
	input.TransactionType = models.TransactionTypeIncome
	input.CustomerID = int64Ptr(99)
	input.CategoryID = int64Ptr(2)

	mock.ExpectBegin()
	expectAccountsOwned(mock, "{1,4}", 1, 4)
	expectOwned(mock, "categories", 2, true)
	expectOwned(mock, "customers", 99, false)
	mock.ExpectRollback()

	_, err := svc.CreateTransaction(context.Background(), testBusinessID, testUserID, input)

	var nerr *NotFoundError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "customer 99 not found", nerr.Error())
	assert.NoError(t, mock.ExpectationsWereMet(), "nothing may be inserted")
}

func TestLedgerService_ReadBackScopesJoinsToBusiness(t *testing.T) {
	for _, join := range []string{
		"cat.business_id = t.business_id",
		"cu.business_id = t.business_id",
		"su.business_id = t.business_id",
	} {
		assert.Contains(t, transactionSelect, join)
	}
	for _, join := range []string{
		"cat.business_id = r.business_id",
		"cu.business_id = r.business_id",
		"su.business_id = r.business_id",
		"inv.business_id = r.business_id",
	} {
		assert.Contains(t, receiptSelect, join)
	}
}

func TestLedgerService_CreateTransaction_ForeignKeyViolation(t *testing.T) {
	svc, mock, _ := newTestLedger(t)

	mock.ExpectBegin()
	expectSaleRefs(mock)
	mock.ExpectQuery("INSERT INTO transactions").WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	_, err := svc.CreateTransaction(context.Background(), testBusinessID, testUserID, saleInput())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Referenced record does not exist", verr.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_UpdateTransaction(t *testing.T) {
	t.Run("posted transaction is immutable", func(t *testing.T) {
		svc, mock, _ := newTestLedger(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT status FROM transactions").
			WithArgs(int64(3), testBusinessID).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("posted"))
		mock.ExpectRollback()

		desc := "edited"
		_, err := svc.UpdateTransaction(context.Background(), testBusinessID, 3, &models.UpdateTransactionInput{Description: &desc})

		var serr *StateError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "Only draft transactions can be updated", serr.Message)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown transaction", func(t *testing.T) {
		svc, mock, _ := newTestLedger(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT status FROM transactions").
			WithArgs(int64(404), testBusinessID).
			WillReturnRows(sqlmock.NewRows([]string{"status"}))
		mock.ExpectRollback()

		_, err := svc.UpdateTransaction(context.Background(), testBusinessID, 404, &models.UpdateTransactionInput{})

		var nerr *NotFoundError
		require.ErrorAs(t, err, &nerr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("draft update replaces lines without touching balances", func(t *testing.T) {
		svc, mock, _ := newTestLedger(t)

		desc := "Credit sale"
		input := &models.UpdateTransactionInput{
			Description: &desc,
			Details: []models.TransactionLineInput{
				{AccountID: 1, DebitAmount: decimal.NewFromInt(200)},
				{AccountID: 4, CreditAmount: decimal.NewFromInt(200)},
			},
		}

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT status FROM transactions").
			WithArgs(int64(3), testBusinessID).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("draft"))
		expectAccountsOwned(mock, "{1,4}", 1, 4)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET description = $1, updated_at = NOW() WHERE id = $2 AND business_id = $3")).
			WithArgs("Credit sale", int64(3), testBusinessID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM transaction_details").
			WithArgs(int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("INSERT INTO transaction_details").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO transaction_details").WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()
		expectTransactionReadBack(mock, 3, "draft", nil, nil)

		txn, err := svc.UpdateTransaction(context.Background(), testBusinessID, 3, input)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusDraft, txn.Status)
		assert.Nil(t, txn.CustomerID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("draft cannot point at another business", func(t *testing.T) {
		svc, mock, _ := newTestLedger(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT status FROM transactions").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("draft"))
		expectOwned(mock, "suppliers", 42, false)
		mock.ExpectRollback()

		_, err := svc.UpdateTransaction(context.Background(), testBusinessID, 3, &models.UpdateTransactionInput{SupplierID: int64Ptr(42)})

		var nerr *NotFoundError
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, "supplier 42 not found", nerr.Error())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("replacement lines must balance", func(t *testing.T) {
		svc, mock, _ := newTestLedger(t)

		input := &models.UpdateTransactionInput{
			Details: []models.TransactionLineInput{{AccountID: 1, CreditAmount: decimal.NewFromInt(5)}},
		}

		_, err := svc.UpdateTransaction(context.Background(), testBusinessID, 3, input)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerService_DeleteTransaction(t *testing.T) {
	t.Run("draft", func(t *testing.T) {
		svc, mock, _ := newTestLedger(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT status FROM transactions").
			WithArgs(int64(3), testBusinessID).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("draft"))
		mock.ExpectExec("DELETE FROM transactions").
			WithArgs(int64(3), testBusinessID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, svc.DeleteTransaction(context.Background(), testBusinessID, 3))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("posted", func(t *testing.T) {
		svc, mock, metrics := newTestLedger(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT status FROM transactions").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("posted"))
		mock.ExpectRollback()

		err := svc.DeleteTransaction(context.Background(), testBusinessID, 3)

		var serr *StateError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "Only draft transactions can be deleted", serr.Message)
		assert.NoError(t, mock.ExpectationsWereMet())

		expected := `
# HELP fintrack_ledger_mutations_total Ledger mutations by operation and outcome.
# TYPE fintrack_ledger_mutations_total counter
fintrack_ledger_mutations_total{operation="delete_transaction",outcome="state"} 1
`
		assert.NoError(t, testutil.GatherAndCompare(metrics.Registry, strings.NewReader(expected), "fintrack_ledger_mutations_total"))
	})
}

func TestLedgerService_CreateReceipt(t *testing.T) {
	svc, mock, _ := newTestLedger(t)

	input := &models.CreateReceiptInput{
		ReceiptDate:   "2024-03-01",
		Amount:        decimal.NewFromInt(50),
		PaymentMethod: "cash",
		CustomerID:    int64Ptr(7),
	}

	mock.ExpectBegin()
	expectOwned(mock, "customers", 7, true)
	mock.ExpectQuery("INSERT INTO receipts").
		WithArgs(
			testBusinessID, numberLike{regexp.MustCompile(`^RCP-20240301-[0-9A-F]{8}$`)}, "2024-03-01",
			decimal.NewFromInt(50), "cash", nil, nil, nil, int64(7), nil, nil, testUserID,
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(20)))
	mock.ExpectExec("UPDATE customers SET current_balance").
		WithArgs(decimal.NewFromInt(-50), int64(7), testBusinessID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectReceiptReadBack(mock, 20, "50.00", int64(7))

	receipt, err := svc.CreateReceipt(context.Background(), testBusinessID, testUserID, input)
	require.NoError(t, err)
	assert.Equal(t, int64(20), receipt.ID)
	assert.True(t, receipt.Amount.Equal(decimal.NewFromInt(50)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_CreateReceipt_AllLinks(t *testing.T) {
	svc, mock, _ := newTestLedger(t)

	number := "R-0001"
	input := &models.CreateReceiptInput{
		ReceiptNumber: &number,
		ReceiptDate:   "2024-03-01",
		Amount:        decimal.NewFromInt(80),
		PaymentMethod: "bank_transfer",
		CustomerID:    int64Ptr(7),
		SupplierID:    int64Ptr(8),
		InvoiceID:     int64Ptr(9),
	}

	mock.ExpectBegin()
	expectOwned(mock, "customers", 7, true)
	expectOwned(mock, "suppliers", 8, true)
	expectOwned(mock, "invoices", 9, true)
	mock.ExpectQuery("INSERT INTO receipts").
		WithArgs(testBusinessID, "R-0001", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))
	mock.ExpectExec("UPDATE customers SET current_balance").
		WithArgs(decimal.NewFromInt(-80), int64(7), testBusinessID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE suppliers SET current_balance").
		WithArgs(decimal.NewFromInt(-80), int64(8), testBusinessID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE invoices SET paid_amount").
		WithArgs(decimal.NewFromInt(80), int64(9), testBusinessID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectReceiptReadBack(mock, 21, "80.00", int64(7))

	_, err := svc.CreateReceipt(context.Background(), testBusinessID, testUserID, input)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_UpdateReceipt(t *testing.T) {
	t.Run("amount change applies the difference", func(t *testing.T) {
		svc, mock, _ := newTestLedger(t)

		amount := decimal.NewFromInt(150)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT amount, customer_id, supplier_id, invoice_id FROM receipts").
			WithArgs(int64(20), testBusinessID).
			WillReturnRows(sqlmock.NewRows([]string{"amount", "customer_id", "supplier_id", "invoice_id"}).
				AddRow("100.00", int64(3), nil, nil))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE receipts SET amount = $1, updated_at = NOW() WHERE id = $2 AND business_id = $3")).
			WithArgs(decimal.NewFromInt(150), int64(20), testBusinessID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE customers SET current_balance").
			WithArgs(decimal.NewFromInt(-50), int64(3), testBusinessID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		expectReceiptReadBack(mock, 20, "150.00", int64(3))

		receipt, err := svc.UpdateReceipt(context.Background(), testBusinessID, 20, &models.UpdateReceiptInput{Amount: &amount})
		require.NoError(t, err)
		assert.True(t, receipt.Amount.Equal(amount))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("relinked receipt moves the previous customer", func(t *testing.T) {
		svc, mock, _ := newTestLedger(t)

		amount := decimal.NewFromInt(150)
		input := &models.UpdateReceiptInput{Amount: &amount, CustomerID: int64Ptr(8)}

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT amount, customer_id, supplier_id, invoice_id FROM receipts").
			WillReturnRows(sqlmock.NewRows([]string{"amount", "customer_id", "supplier_id", "invoice_id"}).
				AddRow("100.00", int64(3), nil, nil))
		expectOwned(mock, "customers", 8, true)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE receipts SET amount = $1, customer_id = $2, updated_at = NOW()")).
			WithArgs(decimal.NewFromInt(150), int64(8), int64(20), testBusinessID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE customers SET current_balance").
			WithArgs(decimal.NewFromInt(-50), int64(3), testBusinessID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		expectReceiptReadBack(mock, 20, "150.00", int64(8))

		_, err := svc.UpdateReceipt(context.Background(), testBusinessID, 20, input)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("field-only update leaves balances", func(t *testing.T) {
		svc, mock, _ := newTestLedger(t)

		method := "cheque"

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT amount, customer_id, supplier_id, invoice_id FROM receipts").
			WillReturnRows(sqlmock.NewRows([]string{"amount", "customer_id", "supplier_id", "invoice_id"}).
				AddRow("100.00", int64(3), nil, nil))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE receipts SET payment_method = $1, updated_at = NOW()")).
			WithArgs("cheque", int64(20), testBusinessID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		expectReceiptReadBack(mock, 20, "100.00", int64(3))

		_, err := svc.UpdateReceipt(context.Background(), testBusinessID, 20, &models.UpdateReceiptInput{PaymentMethod: &method})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("relink to another business is rejected", func(t *testing.T) {
		svc, mock, _ := newTestLedger(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT amount, customer_id, supplier_id, invoice_id FROM receipts").
			WithArgs(int64(20), testBusinessID).
			WillReturnRows(sqlmock.NewRows([]string{"amount", "customer_id", "supplier_id", "invoice_id"}).
				AddRow("100.00", int64(3), nil, nil))
		expectOwned(mock, "customers", 99, false)
		mock.ExpectRollback()

		_, err := svc.UpdateReceipt(context.Background(), testBusinessID, 20, &models.UpdateReceiptInput{CustomerID: int64Ptr(99)})

		var nerr *NotFoundError
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, "customer 99 not found", nerr.Error())
		assert.NoError(t, mock.ExpectationsWereMet(), "the receipt row must not be updated")
	})

	t.Run("unknown receipt", func(t *testing.T) {
		svc, mock, _ := newTestLedger(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT amount, customer_id, supplier_id, invoice_id FROM receipts").
			WillReturnRows(sqlmock.NewRows([]string{"amount", "customer_id", "supplier_id", "invoice_id"}))
		mock.ExpectRollback()

		_, err := svc.UpdateReceipt(context.Background(), testBusinessID, 99, &models.UpdateReceiptInput{})

		var nerr *NotFoundError
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, "receipt 99 not found", nerr.Error())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerService_DeleteReceipt(t *testing.T) {
	svc, mock, _ := newTestLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT amount, customer_id, supplier_id, invoice_id FROM receipts").
		WithArgs(int64(20), testBusinessID).
		WillReturnRows(sqlmock.NewRows([]string{"amount", "customer_id", "supplier_id", "invoice_id"}).
			AddRow("100.00", int64(3), nil, int64(2)))
	mock.ExpectExec("UPDATE customers SET current_balance").
		WithArgs(decimal.NewFromInt(100), int64(3), testBusinessID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE invoices SET paid_amount").
		WithArgs(decimal.NewFromInt(-100), int64(2), testBusinessID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM receipts").
		WithArgs(int64(20), testBusinessID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.DeleteReceipt(context.Background(), testBusinessID, 20))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_DeletesAreAudited(t *testing.T) {
	t.Run("draft transaction", func(t *testing.T) {
		svc, mock, _ := newTestLedger(t)
		core, logs := observer.New(zap.InfoLevel)
		svc.audit = audit.NewLogger(zap.New(core))

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT status FROM transactions").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("draft"))
		mock.ExpectExec("DELETE FROM transactions").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, svc.DeleteTransaction(context.Background(), testBusinessID, 3))

		entries := logs.FilterMessage("AUDIT").AllUntimed()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, "TRANSACTION_DELETE", fields["event_type"])
		assert.Equal(t, "SUCCESS", fields["status"])
		assert.Equal(t, int64(3), fields["entity_id"])
	})

	t.Run("receipt delete constraint failure", func(t *testing.T) {
		svc, mock, _ := newTestLedger(t)
		core, logs := observer.New(zap.InfoLevel)
		svc.audit = audit.NewLogger(zap.New(core))

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT amount, customer_id, supplier_id, invoice_id FROM receipts").
			WillReturnRows(sqlmock.NewRows([]string{"amount", "customer_id", "supplier_id", "invoice_id"}).
				AddRow("100.00", nil, nil, nil))
		mock.ExpectExec("DELETE FROM receipts").WillReturnError(&pq.Error{Code: "23503"})
		mock.ExpectRollback()

		err := svc.DeleteReceipt(context.Background(), testBusinessID, 20)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "Referenced record does not exist", verr.Message)

		entries := logs.FilterMessage("AUDIT").AllUntimed()
		require.Len(t, entries, 1)
		assert.Equal(t, "RECEIPT_DELETE", entries[0].ContextMap()["event_type"])
		assert.Equal(t, "FAILED", entries[0].ContextMap()["status"])
	})
}

func TestLedgerService_GetTransactionNotFound(t *testing.T) {
	svc, mock, _ := newTestLedger(t)

	mock.ExpectQuery("FROM transactions t").
		WithArgs(int64(5), testBusinessID).
		WillReturnRows(sqlmock.NewRows(transactionColumns))

	_, err := svc.GetTransaction(context.Background(), testBusinessID, 5)

	var nerr *NotFoundError
	require.ErrorAs(t, err, &nerr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateNumber(t *testing.T) {
	svc, _, _ := newTestLedger(t)

	n := svc.generateNumber("TXN")
	assert.Regexp(t, `^TXN-20240301-[0-9A-F]{8}$`, n)
	assert.NotEqual(t, n, svc.generateNumber("TXN"))
}
