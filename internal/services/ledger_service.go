package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fintrack/backend/internal/audit"
	"github.com/fintrack/backend/internal/database"
	"github.com/fintrack/backend/internal/models"
	"github.com/fintrack/backend/internal/observability"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// LedgerService applies transactions and receipts to account, customer,
// supplier and invoice balances. Every mutation runs in one database
// transaction; the refreshed entity is read back after commit.
type LedgerService struct {
	db        *sql.DB
	logger    *zap.Logger
	audit     *audit.Logger
	metrics   *observability.Metrics
	validator *ValidationHelper
	tracer    trace.Tracer
	now       func() time.Time
}

func NewLedgerService(db *sql.DB, logger *zap.Logger, auditLog *audit.Logger, metrics *observability.Metrics) *LedgerService {
	return &LedgerService{
		db:        db,
		logger:    logger,
		audit:     auditLog,
		metrics:   metrics,
		validator: NewValidationHelper(),
		tracer:    otel.Tracer("github.com/fintrack/backend/ledger"),
		now:       time.Now,
	}
}

// track starts a span and returns a func that ends it and records metrics.
func (s *LedgerService) track(ctx context.Context, op string, businessID int64) (context.Context, func(*error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "ledger."+op,
		trace.WithAttributes(attribute.Int64("business.id", businessID)))

	return ctx, func(errp *error) {
		if err := *errp; err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveMutation(op, outcomeOf(*errp), time.Since(start))
		}
	}
}

func outcomeOf(err error) string {
	var (
		verr *ValidationError
		nerr *NotFoundError
		serr *StateError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &nerr):
		return "not_found"
	case errors.As(err, &serr):
		return "state"
	default:
		return "error"
	}
}

// translateDBError turns constraint violations into client errors.
func translateDBError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503":
			return newValidationError("Referenced record does not exist")
		case "23505":
			return &ConflictError{Message: "Record already exists"}
		}
	}
	return err
}

// generateNumber builds PREFIX-YYYYMMDD-XXXXXXXX.
func (s *LedgerService) generateNumber(prefix string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, s.now().Format("20060102"), suffix)
}

// CreateTransaction posts a balanced double-entry transaction and applies
// its account and counterparty deltas.
func (s *LedgerService) CreateTransaction(ctx context.Context, businessID, userID int64, input *models.CreateTransactionInput) (_ *models.Transaction, err error) {
	ctx, done := s.track(ctx, "create_transaction", businessID)
	defer done(&err)

	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}
	if err := checkBalanced(input.Details); err != nil {
		return nil, err
	}

	number := s.generateNumber("TXN")
	mutation := transactionMutation(input)

	refs := ledgerRefs{
		AccountIDs: lineAccounts(input.Details),
		CategoryID: input.CategoryID,
		CustomerID: input.CustomerID,
		SupplierID: input.SupplierID,
	}

	var id int64
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := refs.check(ctx, tx, businessID); err != nil {
			return err
		}

		err := tx.QueryRowContext(ctx, `
			INSERT INTO transactions (business_id, transaction_number, transaction_date, description, reference,
				total_amount, transaction_type, category_id, customer_id, supplier_id, status, payment_method, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id`,
			businessID, number, input.TransactionDate, input.Description, input.Reference,
			input.TotalAmount, input.TransactionType, input.CategoryID, input.CustomerID, input.SupplierID,
			models.TransactionStatusPosted, input.PaymentMethod, userID,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		if err := insertDetails(ctx, tx, id, input.Details); err != nil {
			return err
		}
		return mutation.Apply(ctx, tx, businessID)
	})
	if err != nil {
		err = translateDBError(err)
		s.audit.LogError("TRANSACTION_POST", "transaction", id, businessID, err)
		return nil, err
	}

	s.audit.LogMutation("TRANSACTION_POST", "transaction", id, businessID, input.TotalAmount, map[string]any{
		"transaction_number": number,
		"transaction_type":   string(input.TransactionType),
		"lines":              len(input.Details),
	})

	return fetchTransaction(ctx, s.db, businessID, id)
}

func insertDetails(ctx context.Context, tx *sql.Tx, transactionID int64, lines []models.TransactionLineInput) error {
	for i, line := range lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transaction_details (transaction_id, account_id, debit_amount, credit_amount, description, line_number)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			transactionID, line.AccountID, line.DebitAmount, line.CreditAmount, line.Description, i+1,
		)
		if err != nil {
			return fmt.Errorf("insert transaction line %d: %w", i+1, err)
		}
	}
	return nil
}

// lockDraft locks the transaction row and fails unless it is a draft.
func lockDraft(ctx context.Context, tx *sql.Tx, businessID, id int64, action string) error {
	var status models.TransactionStatus
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM transactions WHERE id = $1 AND business_id = $2 FOR UPDATE`,
		id, businessID,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return newNotFound("transaction", id)
	}
	if err != nil {
		return fmt.Errorf("lock transaction %d: %w", id, err)
	}
	if status != models.TransactionStatusDraft {
		return &StateError{Message: fmt.Sprintf("Only draft transactions can be %s", action)}
	}
	return nil
}

// UpdateTransaction edits a draft transaction. Drafts never carried balance
// effects, so no balances move.
func (s *LedgerService) UpdateTransaction(ctx context.Context, businessID, id int64, input *models.UpdateTransactionInput) (_ *models.Transaction, err error) {
	ctx, done := s.track(ctx, "update_transaction", businessID)
	defer done(&err)

	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}
	if input.Details != nil {
		if err := checkBalanced(input.Details); err != nil {
			return nil, err
		}
	}

	var set setBuilder
	if input.TransactionDate != nil {
		set.add("transaction_date", *input.TransactionDate)
	}
	if input.Description != nil {
		set.add("description", *input.Description)
	}
	if input.Reference != nil {
		set.add("reference", *input.Reference)
	}
	if input.TotalAmount != nil {
		set.add("total_amount", *input.TotalAmount)
	}
	if input.TransactionType != nil {
		set.add("transaction_type", *input.TransactionType)
	}
	if input.CategoryID != nil {
		set.add("category_id", *input.CategoryID)
	}
	if input.CustomerID != nil {
		set.add("customer_id", *input.CustomerID)
	}
	if input.SupplierID != nil {
		set.add("supplier_id", *input.SupplierID)
	}
	if input.PaymentMethod != nil {
		set.add("payment_method", *input.PaymentMethod)
	}

	refs := ledgerRefs{
		AccountIDs: lineAccounts(input.Details),
		CategoryID: input.CategoryID,
		CustomerID: input.CustomerID,
		SupplierID: input.SupplierID,
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := lockDraft(ctx, tx, businessID, id, "updated"); err != nil {
			return err
		}
		if err := refs.check(ctx, tx, businessID); err != nil {
			return err
		}

		query, args := set.query("transactions", id, businessID)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update transaction %d: %w", id, err)
		}

		if input.Details != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM transaction_details WHERE transaction_id = $1`, id); err != nil {
				return fmt.Errorf("replace transaction %d lines: %w", id, err)
			}
			if err := insertDetails(ctx, tx, id, input.Details); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		err = translateDBError(err)
		s.audit.LogError("TRANSACTION_UPDATE", "transaction", id, businessID, err)
		return nil, err
	}

	// Drafts carry no balance effect.
	s.audit.LogMutation("TRANSACTION_UPDATE", "transaction", id, businessID, decimal.Zero, map[string]any{
		"lines_replaced": input.Details != nil,
	})
	return fetchTransaction(ctx, s.db, businessID, id)
}

// DeleteTransaction removes a draft transaction and its lines.
func (s *LedgerService) DeleteTransaction(ctx context.Context, businessID, id int64) (err error) {
	ctx, done := s.track(ctx, "delete_transaction", businessID)
	defer done(&err)

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := lockDraft(ctx, tx, businessID, id, "deleted"); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transactions WHERE id = $1 AND business_id = $2`, id, businessID,
		); err != nil {
			return fmt.Errorf("delete transaction %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		err = translateDBError(err)
		s.audit.LogError("TRANSACTION_DELETE", "transaction", id, businessID, err)
		return err
	}

	s.audit.LogMutation("TRANSACTION_DELETE", "transaction", id, businessID, decimal.Zero, nil)
	return nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, businessID, id int64) (*models.Transaction, error) {
	return fetchTransaction(ctx, s.db, businessID, id)
}

// CreateReceipt records a receipt and applies it to the linked customer,
// supplier and invoice.
func (s *LedgerService) CreateReceipt(ctx context.Context, businessID, userID int64, input *models.CreateReceiptInput) (_ *models.Receipt, err error) {
	ctx, done := s.track(ctx, "create_receipt", businessID)
	defer done(&err)

	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	number := s.generateNumber("RCP")
	if input.ReceiptNumber != nil && *input.ReceiptNumber != "" {
		number = *input.ReceiptNumber
	}
	links := receiptLinks{CustomerID: input.CustomerID, SupplierID: input.SupplierID, InvoiceID: input.InvoiceID}
	refs := ledgerRefs{
		CategoryID: input.CategoryID,
		CustomerID: input.CustomerID,
		SupplierID: input.SupplierID,
		InvoiceID:  input.InvoiceID,
	}

	var id int64
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := refs.check(ctx, tx, businessID); err != nil {
			return err
		}

		err := tx.QueryRowContext(ctx, `
			INSERT INTO receipts (business_id, receipt_number, receipt_date, amount, payment_method, description,
				reference, category_id, customer_id, supplier_id, invoice_id, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id`,
			businessID, number, input.ReceiptDate, input.Amount, input.PaymentMethod, input.Description,
			input.Reference, input.CategoryID, input.CustomerID, input.SupplierID, input.InvoiceID, userID,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert receipt: %w", err)
		}
		return receiptMutation(links, input.Amount).Apply(ctx, tx, businessID)
	})
	if err != nil {
		err = translateDBError(err)
		s.audit.LogError("RECEIPT_CREATE", "receipt", id, businessID, err)
		return nil, err
	}

	s.audit.LogMutation("RECEIPT_CREATE", "receipt", id, businessID, input.Amount, map[string]any{
		"receipt_number": number,
		"payment_method": input.PaymentMethod,
	})
	return fetchReceipt(ctx, s.db, businessID, id)
}

// lockReceipt reads the balance-bearing fields of a receipt under a row lock.
func lockReceipt(ctx context.Context, tx *sql.Tx, businessID, id int64) (decimal.Decimal, receiptLinks, error) {
	var (
		amount decimal.Decimal
		links  receiptLinks
	)
	err := tx.QueryRowContext(ctx, `
		SELECT amount, customer_id, supplier_id, invoice_id
		FROM receipts WHERE id = $1 AND business_id = $2 FOR UPDATE`,
		id, businessID,
	).Scan(&amount, &links.CustomerID, &links.SupplierID, &links.InvoiceID)
	if errors.Is(err, sql.ErrNoRows) {
		return amount, links, newNotFound("receipt", id)
	}
	if err != nil {
		return amount, links, fmt.Errorf("lock receipt %d: %w", id, err)
	}
	return amount, links, nil
}

// UpdateReceipt applies field changes and moves balances by the difference
// between the new and old amount. The difference is applied to the links the
// receipt had before the update, even when the same call relinks it.
func (s *LedgerService) UpdateReceipt(ctx context.Context, businessID, id int64, input *models.UpdateReceiptInput) (_ *models.Receipt, err error) {
	ctx, done := s.track(ctx, "update_receipt", businessID)
	defer done(&err)

	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	var set setBuilder
	if input.ReceiptNumber != nil {
		set.add("receipt_number", *input.ReceiptNumber)
	}
	if input.ReceiptDate != nil {
		set.add("receipt_date", *input.ReceiptDate)
	}
	if input.Amount != nil {
		set.add("amount", *input.Amount)
	}
	if input.PaymentMethod != nil {
		set.add("payment_method", *input.PaymentMethod)
	}
	if input.Description != nil {
		set.add("description", *input.Description)
	}
	if input.Reference != nil {
		set.add("reference", *input.Reference)
	}
	if input.CategoryID != nil {
		set.add("category_id", *input.CategoryID)
	}
	if input.CustomerID != nil {
		set.add("customer_id", *input.CustomerID)
	}
	if input.SupplierID != nil {
		set.add("supplier_id", *input.SupplierID)
	}
	if input.InvoiceID != nil {
		set.add("invoice_id", *input.InvoiceID)
	}

	refs := ledgerRefs{
		CategoryID: input.CategoryID,
		CustomerID: input.CustomerID,
		SupplierID: input.SupplierID,
		InvoiceID:  input.InvoiceID,
	}

	var delta decimal.Decimal
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		oldAmount, oldLinks, err := lockReceipt(ctx, tx, businessID, id)
		if err != nil {
			return err
		}
		if err := refs.check(ctx, tx, businessID); err != nil {
			return err
		}

		query, args := set.query("receipts", id, businessID)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update receipt %d: %w", id, err)
		}

		if input.Amount == nil {
			return nil
		}
		delta = input.Amount.Sub(oldAmount)
		if !delta.IsZero() && relinks(oldLinks, input) {
			s.logger.Warn("receipt amount change applied to previous links",
				zap.Int64("receipt_id", id),
				zap.Int64("business_id", businessID),
				zap.String("delta", delta.String()),
			)
		}
		return receiptMutation(oldLinks, delta).Apply(ctx, tx, businessID)
	})
	if err != nil {
		err = translateDBError(err)
		s.audit.LogError("RECEIPT_UPDATE", "receipt", id, businessID, err)
		return nil, err
	}

	s.audit.LogMutation("RECEIPT_UPDATE", "receipt", id, businessID, delta, nil)
	return fetchReceipt(ctx, s.db, businessID, id)
}

// relinks reports whether input points the receipt at a different customer,
// supplier or invoice than old.
func relinks(old receiptLinks, input *models.UpdateReceiptInput) bool {
	changed := func(prev, next *int64) bool {
		return next != nil && (prev == nil || *prev != *next)
	}
	return changed(old.CustomerID, input.CustomerID) ||
		changed(old.SupplierID, input.SupplierID) ||
		changed(old.InvoiceID, input.InvoiceID)
}

// DeleteReceipt reverses the receipt's balance effect and deletes it.
func (s *LedgerService) DeleteReceipt(ctx context.Context, businessID, id int64) (err error) {
	ctx, done := s.track(ctx, "delete_receipt", businessID)
	defer done(&err)

	var amount decimal.Decimal
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var (
			links receiptLinks
			err   error
		)
		amount, links, err = lockReceipt(ctx, tx, businessID, id)
		if err != nil {
			return err
		}

		if err := receiptMutation(links, amount).Reverse().Apply(ctx, tx, businessID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM receipts WHERE id = $1 AND business_id = $2`, id, businessID,
		); err != nil {
			return fmt.Errorf("delete receipt %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		err = translateDBError(err)
		s.audit.LogError("RECEIPT_DELETE", "receipt", id, businessID, err)
		return err
	}

	s.audit.LogMutation("RECEIPT_DELETE", "receipt", id, businessID, amount.Neg(), nil)
	return nil
}

func (s *LedgerService) GetReceipt(ctx context.Context, businessID, id int64) (*models.Receipt, error) {
	return fetchReceipt(ctx, s.db, businessID, id)
}

// setBuilder assembles a partial UPDATE with positional parameters.
type setBuilder struct {
	clauses []string
	args    []any
}

func (b *setBuilder) add(column string, value any) {
	b.args = append(b.args, value)
	b.clauses = append(b.clauses, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

// query always bumps updated_at, so an empty builder still yields valid SQL.
func (b *setBuilder) query(table string, id, businessID int64) (string, []any) {
	clauses := append(append([]string{}, b.clauses...), "updated_at = NOW()")
	args := append(append([]any{}, b.args...), id, businessID)
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d AND business_id = $%d",
		table, strings.Join(clauses, ", "), len(args)-1, len(args)), args
}
