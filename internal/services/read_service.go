package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fintrack/backend/internal/models"
	"github.com/shopspring/decimal"
)

// ReadService serves the tenant-scoped lists, master data and reports
// around the ledger.
type ReadService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewReadService(db *sql.DB) *ReadService {
	return &ReadService{db: db, validator: NewValidationHelper()}
}

// whereBuilder collects AND-ed conditions with positional parameters.
// Each condition carries one %d verb for its parameter index.
type whereBuilder struct {
	conds []string
	args  []any
}

func newWhere(businessColumn string, businessID int64) *whereBuilder {
	w := &whereBuilder{}
	w.add(businessColumn+" = $%d", businessID)
	return w
}

func (w *whereBuilder) add(cond string, value any) {
	w.args = append(w.args, value)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *whereBuilder) String() string {
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// paged runs the count query and then the page query, appending LIMIT/OFFSET.
func paged[T any](ctx context.Context, db *sql.DB, countSQL, listSQL string, w *whereBuilder, page models.Pagination, scan func(rowScanner) (*T, error)) (*models.Page[T], error) {
	var total int64
	if err := db.QueryRowContext(ctx, countSQL+w.String(), w.args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}

	args := append(append([]any{}, w.args...), page.Limit, page.Offset())
	query := fmt.Sprintf("%s LIMIT $%d OFFSET $%d", listSQL, len(args)-1, len(args))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}

	return &models.Page[T]{Data: items, Pagination: models.NewPagination(page.Page, page.Limit, total)}, nil
}

func (s *ReadService) ListTransactions(ctx context.Context, businessID int64, f models.TransactionFilter, page models.Pagination) (*models.Page[models.Transaction], error) {
	w := newWhere("t.business_id", businessID)
	if f.Type != "" {
		w.add("t.transaction_type = $%d", f.Type)
	}
	if f.Status != "" {
		w.add("t.status = $%d", f.Status)
	}
	if f.CustomerID > 0 {
		w.add("t.customer_id = $%d", f.CustomerID)
	}
	if f.SupplierID > 0 {
		w.add("t.supplier_id = $%d", f.SupplierID)
	}
	if f.CategoryID > 0 {
		w.add("t.category_id = $%d", f.CategoryID)
	}
	if f.StartDate != "" {
		w.add("t.transaction_date >= $%d", f.StartDate)
	}
	if f.EndDate != "" {
		w.add("t.transaction_date <= $%d", f.EndDate)
	}

	result, err := paged(ctx, s.db,
		`SELECT COUNT(*) FROM transactions t`,
		transactionSelect+w.String()+` ORDER BY t.transaction_date DESC, t.id DESC`,
		w, page, scanTransaction)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return result, nil
}

func (s *ReadService) ListReceipts(ctx context.Context, businessID int64, f models.ReceiptFilter, page models.Pagination) (*models.Page[models.Receipt], error) {
	w := newWhere("r.business_id", businessID)
	if f.CustomerID > 0 {
		w.add("r.customer_id = $%d", f.CustomerID)
	}
	if f.SupplierID > 0 {
		w.add("r.supplier_id = $%d", f.SupplierID)
	}
	if f.InvoiceID > 0 {
		w.add("r.invoice_id = $%d", f.InvoiceID)
	}
	if f.PaymentMethod != "" {
		w.add("r.payment_method = $%d", f.PaymentMethod)
	}
	if f.StartDate != "" {
		w.add("r.receipt_date >= $%d", f.StartDate)
	}
	if f.EndDate != "" {
		w.add("r.receipt_date <= $%d", f.EndDate)
	}

	result, err := paged(ctx, s.db,
		`SELECT COUNT(*) FROM receipts r`,
		receiptSelect+w.String()+` ORDER BY r.receipt_date DESC, r.id DESC`,
		w, page, scanReceipt)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return result, nil
}

const accountSelect = `
	SELECT id, business_id, code, name, account_type, account_subtype, current_balance, is_active, created_at, updated_at
	FROM accounts`

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.BusinessID, &a.Code, &a.Name, &a.AccountType, &a.AccountSubtype,
		&a.CurrentBalance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *ReadService) ListAccounts(ctx context.Context, businessID int64, f models.AccountFilter, page models.Pagination) (*models.Page[models.Account], error) {
	w := newWhere("business_id", businessID)
	if f.Type != "" {
		w.add("account_type = $%d", f.Type)
	}
	if f.Active != nil {
		w.add("is_active = $%d", *f.Active)
	}

	result, err := paged(ctx, s.db,
		`SELECT COUNT(*) FROM accounts`,
		accountSelect+w.String()+` ORDER BY code`,
		w, page, scanAccount)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return result, nil
}

func (s *ReadService) GetAccount(ctx context.Context, businessID, id int64) (*models.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx, accountSelect+` WHERE id = $1 AND business_id = $2`, id, businessID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newNotFound("account", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

// CreateAccount adds a chart-of-accounts entry with a zero balance.
func (s *ReadService) CreateAccount(ctx context.Context, businessID int64, input *models.CreateAccountInput) (*models.Account, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	a := models.Account{
		BusinessID:     businessID,
		Code:           input.Code,
		Name:           input.Name,
		AccountType:    models.AccountType(input.AccountType),
		AccountSubtype: input.AccountSubtype,
		CurrentBalance: decimal.Zero,
		IsActive:       true,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO accounts (business_id, code, name, account_type, account_subtype)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		businessID, input.Code, input.Name, input.AccountType, input.AccountSubtype,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, translateDBError(fmt.Errorf("create account: %w", err))
	}
	return &a, nil
}

// counterpartyTable maps a role to its table. Never built from user input.
var counterpartyTable = map[CounterpartyRole]string{
	RoleCustomer: "customers",
	RoleSupplier: "suppliers",
}

func counterpartySelect(table string) string {
	return `SELECT id, business_id, name, email, phone, address, current_balance, is_active, created_at, updated_at FROM ` + table
}

func scanCounterparty(row rowScanner) (*models.Counterparty, error) {
	var c models.Counterparty
	if err := row.Scan(&c.ID, &c.BusinessID, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.CurrentBalance, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCounterparties lists customers or suppliers, optionally filtered by a
// case-insensitive name search.
func (s *ReadService) ListCounterparties(ctx context.Context, role CounterpartyRole, businessID int64, search string, page models.Pagination) (*models.Page[models.Counterparty], error) {
	table := counterpartyTable[role]
	w := newWhere("business_id", businessID)
	if search != "" {
		w.add("name ILIKE $%d", "%"+search+"%")
	}

	result, err := paged(ctx, s.db,
		`SELECT COUNT(*) FROM `+table,
		counterpartySelect(table)+w.String()+` ORDER BY name`,
		w, page, scanCounterparty)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return result, nil
}

func (s *ReadService) GetCounterparty(ctx context.Context, role CounterpartyRole, businessID, id int64) (*models.Counterparty, error) {
	table := counterpartyTable[role]
	c, err := scanCounterparty(s.db.QueryRowContext(ctx,
		counterpartySelect(table)+` WHERE id = $1 AND business_id = $2`, id, businessID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newNotFound(string(role), id)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", role, id, err)
	}
	return c, nil
}

// CreateCounterparty adds a customer or supplier. Balances start at zero and
// only move through the ledger.
func (s *ReadService) CreateCounterparty(ctx context.Context, role CounterpartyRole, businessID int64, input *models.CreateCounterpartyInput) (*models.Counterparty, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	c := models.Counterparty{
		BusinessID:     businessID,
		Name:           input.Name,
		Email:          input.Email,
		Phone:          input.Phone,
		Address:        input.Address,
		CurrentBalance: decimal.Zero,
		IsActive:       true,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO `+counterpartyTable[role]+` (business_id, name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		businessID, input.Name, input.Email, input.Phone, input.Address,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, translateDBError(fmt.Errorf("create %s: %w", role, err))
	}
	return &c, nil
}

const invoiceSelect = `
	SELECT i.id, i.business_id, i.invoice_number, i.customer_id, cu.name,
		to_char(i.issue_date, 'YYYY-MM-DD'), to_char(i.due_date, 'YYYY-MM-DD'),
		i.total_amount, i.paid_amount, i.balance_due, i.status, i.created_at, i.updated_at
	FROM invoices i
	LEFT JOIN customers cu ON cu.id = i.customer_id AND cu.business_id = i.business_id`

func scanInvoice(row rowScanner) (*models.Invoice, error) {
	var inv models.Invoice
	if err := row.Scan(&inv.ID, &inv.BusinessID, &inv.InvoiceNumber, &inv.CustomerID, &inv.CustomerName,
		&inv.IssueDate, &inv.DueDate, &inv.TotalAmount, &inv.PaidAmount, &inv.BalanceDue,
		&inv.Status, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *ReadService) ListInvoices(ctx context.Context, businessID int64, f models.InvoiceFilter, page models.Pagination) (*models.Page[models.Invoice], error) {
	w := newWhere("i.business_id", businessID)
	if f.CustomerID > 0 {
		w.add("i.customer_id = $%d", f.CustomerID)
	}
	if f.Status != "" {
		w.add("i.status = $%d", f.Status)
	}

	result, err := paged(ctx, s.db,
		`SELECT COUNT(*) FROM invoices i`,
		invoiceSelect+w.String()+` ORDER BY i.issue_date DESC, i.id DESC`,
		w, page, scanInvoice)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return result, nil
}

func (s *ReadService) GetInvoice(ctx context.Context, businessID, id int64) (*models.Invoice, error) {
	inv, err := scanInvoice(s.db.QueryRowContext(ctx, invoiceSelect+` WHERE i.id = $1 AND i.business_id = $2`, id, businessID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newNotFound("invoice", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice %d: %w", id, err)
	}
	return inv, nil
}

// TrialBalance lists every active account with a non-zero balance. Balances
// accumulate credit minus debit, so a positive balance is a credit.
func (s *ReadService) TrialBalance(ctx context.Context, businessID int64) (*models.TrialBalance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, account_type, current_balance
		FROM accounts
		WHERE business_id = $1 AND is_active = TRUE AND current_balance <> 0
		ORDER BY code`, businessID)
	if err != nil {
		return nil, fmt.Errorf("trial balance: %w", err)
	}
	defer rows.Close()

	tb := &models.TrialBalance{Lines: []models.TrialBalanceLine{}}
	for rows.Next() {
		var (
			line    models.TrialBalanceLine
			balance decimal.Decimal
		)
		if err := rows.Scan(&line.AccountID, &line.Code, &line.Name, &line.AccountType, &balance); err != nil {
			return nil, fmt.Errorf("trial balance: %w", err)
		}
		if balance.IsPositive() {
			line.Credit = balance
		} else {
			line.Debit = balance.Neg()
		}
		tb.TotalDebit = tb.TotalDebit.Add(line.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(line.Credit)
		tb.Lines = append(tb.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trial balance: %w", err)
	}

	tb.Balanced = models.WithinTolerance(tb.TotalDebit, tb.TotalCredit)
	return tb, nil
}
