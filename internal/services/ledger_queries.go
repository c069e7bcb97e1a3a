package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/fintrack/backend/internal/models"
	"github.com/lib/pq"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

const transactionSelect = `
	SELECT t.id, t.business_id, t.transaction_number, to_char(t.transaction_date, 'YYYY-MM-DD'),
		t.description, t.reference, t.total_amount, t.transaction_type,
		t.category_id, t.customer_id, t.supplier_id, t.status, t.payment_method,
		cat.name, cu.name, su.name, t.created_by, t.created_at, t.updated_at
	FROM transactions t
	LEFT JOIN categories cat ON cat.id = t.category_id AND cat.business_id = t.business_id
	LEFT JOIN customers cu ON cu.id = t.customer_id AND cu.business_id = t.business_id
	LEFT JOIN suppliers su ON su.id = t.supplier_id AND su.business_id = t.business_id`

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID, &t.BusinessID, &t.TransactionNumber, &t.TransactionDate,
		&t.Description, &t.Reference, &t.TotalAmount, &t.TransactionType,
		&t.CategoryID, &t.CustomerID, &t.SupplierID, &t.Status, &t.PaymentMethod,
		&t.CategoryName, &t.CustomerName, &t.SupplierName, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const detailSelect = `
	SELECT d.id, d.transaction_id, d.account_id, a.code, a.name,
		d.debit_amount, d.credit_amount, d.description, d.line_number
	FROM transaction_details d
	JOIN accounts a ON a.id = d.account_id
	WHERE d.transaction_id = $1
	ORDER BY d.line_number`

// fetchTransaction loads a transaction with its detail lines.
func fetchTransaction(ctx context.Context, q querier, businessID, id int64) (*models.Transaction, error) {
	row := q.QueryRowContext(ctx, transactionSelect+` WHERE t.id = $1 AND t.business_id = $2`, id, businessID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newNotFound("transaction", id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch transaction %d: %w", id, err)
	}

	rows, err := q.QueryContext(ctx, detailSelect, id)
	if err != nil {
		return nil, fmt.Errorf("fetch transaction %d details: %w", id, err)
	}
	defer rows.Close()

	t.Details = []models.TransactionDetail{}
	for rows.Next() {
		var d models.TransactionDetail
		if err := rows.Scan(
			&d.ID, &d.TransactionID, &d.AccountID, &d.AccountCode, &d.AccountName,
			&d.DebitAmount, &d.CreditAmount, &d.Description, &d.LineNumber,
		); err != nil {
			return nil, fmt.Errorf("scan transaction detail: %w", err)
		}
		t.Details = append(t.Details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction details: %w", err)
	}
	return t, nil
}

const receiptSelect = `
	SELECT r.id, r.business_id, r.receipt_number, to_char(r.receipt_date, 'YYYY-MM-DD'),
		r.amount, r.payment_method, r.description, r.reference,
		r.category_id, r.customer_id, r.supplier_id, r.invoice_id,
		cat.name, cu.name, su.name, inv.invoice_number, r.created_by, r.created_at, r.updated_at
	FROM receipts r
	LEFT JOIN categories cat ON cat.id = r.category_id AND cat.business_id = r.business_id
	LEFT JOIN customers cu ON cu.id = r.customer_id AND cu.business_id = r.business_id
	LEFT JOIN suppliers su ON su.id = r.supplier_id AND su.business_id = r.business_id
	LEFT JOIN invoices inv ON inv.id = r.invoice_id AND inv.business_id = r.business_id`

func scanReceipt(row rowScanner) (*models.Receipt, error) {
	var r models.Receipt
	err := row.Scan(
		&r.ID, &r.BusinessID, &r.ReceiptNumber, &r.ReceiptDate,
		&r.Amount, &r.PaymentMethod, &r.Description, &r.Reference,
		&r.CategoryID, &r.CustomerID, &r.SupplierID, &r.InvoiceID,
		&r.CategoryName, &r.CustomerName, &r.SupplierName, &r.InvoiceNumber, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func fetchReceipt(ctx context.Context, q querier, businessID, id int64) (*models.Receipt, error) {
	row := q.QueryRowContext(ctx, receiptSelect+` WHERE r.id = $1 AND r.business_id = $2`, id, businessID)
	r, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newNotFound("receipt", id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch receipt %d: %w", id, err)
	}
	return r, nil
}

// ledgerRefs are the records a transaction or receipt points at.
type ledgerRefs struct {
	AccountIDs []int64
	CategoryID *int64
	CustomerID *int64
	SupplierID *int64
	InvoiceID  *int64
}

func lineAccounts(lines []models.TransactionLineInput) []int64 {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.AccountID)
	}
	return ids
}

// check fails with NotFoundError when a referenced record is missing or
// belongs to another business.
func (refs ledgerRefs) check(ctx context.Context, tx *sql.Tx, businessID int64) error {
	if len(refs.AccountIDs) > 0 {
		if err := checkAccounts(ctx, tx, businessID, refs.AccountIDs); err != nil {
			return err
		}
	}

	for _, ref := range []struct {
		table, entity string
		id            *int64
	}{
		{"categories", "category", refs.CategoryID},
		{"customers", "customer", refs.CustomerID},
		{"suppliers", "supplier", refs.SupplierID},
		{"invoices", "invoice", refs.InvoiceID},
	} {
		if ref.id == nil {
			continue
		}
		var one int
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT 1 FROM %s WHERE id = $1 AND business_id = $2`, ref.table),
			*ref.id, businessID,
		).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return newNotFound(ref.entity, *ref.id)
		}
		if err != nil {
			return fmt.Errorf("check %s %d: %w", ref.entity, *ref.id, err)
		}
	}
	return nil
}

func checkAccounts(ctx context.Context, tx *sql.Tx, businessID int64, accountIDs []int64) error {
	ids := slices.Clone(accountIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM accounts WHERE business_id = $1 AND id = ANY($2)`,
		businessID, pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("check accounts: %w", err)
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan account id: %w", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate account ids: %w", err)
	}

	for _, id := range ids {
		if !found[id] {
			return newNotFound("account", id)
		}
	}
	return nil
}
