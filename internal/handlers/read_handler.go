package handlers

import (
	"context"
	"net/http"

	"github.com/fintrack/backend/internal/models"
	"github.com/fintrack/backend/internal/services"
	"go.uber.org/zap"
)

// LedgerReader serves lists, lookups and master data.
type LedgerReader interface {
	ListTransactions(ctx context.Context, businessID int64, f models.TransactionFilter, page models.Pagination) (*models.Page[models.Transaction], error)
	ListReceipts(ctx context.Context, businessID int64, f models.ReceiptFilter, page models.Pagination) (*models.Page[models.Receipt], error)

	ListAccounts(ctx context.Context, businessID int64, f models.AccountFilter, page models.Pagination) (*models.Page[models.Account], error)
	GetAccount(ctx context.Context, businessID, id int64) (*models.Account, error)
	CreateAccount(ctx context.Context, businessID int64, input *models.CreateAccountInput) (*models.Account, error)

	ListCounterparties(ctx context.Context, role services.CounterpartyRole, businessID int64, search string, page models.Pagination) (*models.Page[models.Counterparty], error)
	GetCounterparty(ctx context.Context, role services.CounterpartyRole, businessID, id int64) (*models.Counterparty, error)
	CreateCounterparty(ctx context.Context, role services.CounterpartyRole, businessID int64, input *models.CreateCounterpartyInput) (*models.Counterparty, error)

	ListInvoices(ctx context.Context, businessID int64, f models.InvoiceFilter, page models.Pagination) (*models.Page[models.Invoice], error)
	GetInvoice(ctx context.Context, businessID, id int64) (*models.Invoice, error)

	TrialBalance(ctx context.Context, businessID int64) (*models.TrialBalance, error)
}

type ReadHandler struct {
	responder
	reader LedgerReader
}

func NewReadHandler(reader LedgerReader, logger *zap.Logger, opts Options) *ReadHandler {
	return &ReadHandler{
		responder: responder{logger: logger.Named("read_handler"), opts: opts.withDefaults()},
		reader:    reader,
	}
}

var (
	transactionTypes    = []string{"income", "expense", "sale", "purchase", "payment", "receipt", "journal"}
	transactionStatuses = []string{"draft", "posted", "cancelled"}
	accountTypes        = []string{"asset", "liability", "equity", "income", "expense"}
)

// ListTransactions lists transactions newest first
// @Summary List transactions
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Param type query string false "Transaction type"
// @Param status query string false "Status"
// @Param customerId query int false "Customer ID"
// @Param supplierId query int false "Supplier ID"
// @Param categoryId query int false "Category ID"
// @Param startDate query string false "From date (YYYY-MM-DD)"
// @Param endDate query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} models.Page[models.Transaction]
// @Failure 400 {object} services.ErrorResponse
// @Router /transactions [get]
func (h *ReadHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	businessID, _, ok := identity(w, r)
	if !ok {
		return
	}

	q := newQueryParams(r)
	f := models.TransactionFilter{
		Type:       q.enum("type", transactionTypes...),
		Status:     q.enum("status", transactionStatuses...),
		CustomerID: q.id("customerId"),
		SupplierID: q.id("supplierId"),
		CategoryID: q.id("categoryId"),
		StartDate:  q.date("startDate"),
		EndDate:    q.date("endDate"),
	}
	if err := q.err(); err != nil {
		h.serviceError(w, r, err)
		return
	}

	page, err := h.reader.ListTransactions(r.Context(), businessID, f, h.pagination(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	services.WriteJSON(w, http.StatusOK, page)
}

// ListReceipts lists receipts newest first
// @Summary List receipts
// @Tags receipts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Param customerId query int false "Customer ID"
// @Param supplierId query int false "Supplier ID"
// @Param invoiceId query int false "Invoice ID"
// @Param paymentMethod query string false "Payment method"
// @Param startDate query string false "From date (YYYY-MM-DD)"
// @Param endDate query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} models.Page[models.Receipt]
// @Failure 400 {object} services.ErrorResponse
// @Router /receipts [get]
func (h *ReadHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	businessID, _, ok := identity(w, r)
	if !ok {
		return
	}

	q := newQueryParams(r)
	f := models.ReceiptFilter{
		CustomerID:    q.id("customerId"),
		SupplierID:    q.id("supplierId"),
		InvoiceID:     q.id("invoiceId"),
		PaymentMethod: q.enum("paymentMethod", models.PaymentMethods...),
		StartDate:     q.date("startDate"),
		EndDate:       q.date("endDate"),
	}
	if err := q.err(); err != nil {
		h.serviceError(w, r, err)
		return
	}

	page, err := h.reader.ListReceipts(r.Context(), businessID, f, h.pagination(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	services.WriteJSON(w, http.StatusOK, page)
}

// ListAccounts lists the chart of accounts ordered by code
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Param type query string false "Account type"
// @Param active query bool false "Active flag"
// @Success 200 {object} models.Page[models.Account]
// @Router /accounts [get]
func (h *ReadHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	businessID, _, ok := identity(w, r)
	if !ok {
		return
	}

	q := newQueryParams(r)
	f := models.AccountFilter{
		Type:   q.enum("type", accountTypes...),
		Active: q.flag("active"),
	}
	if err := q.err(); err != nil {
		h.serviceError(w, r, err)
		return
	}

	page, err := h.reader.ListAccounts(r.Context(), businessID, f, h.pagination(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	services.WriteJSON(w, http.StatusOK, page)
}

// GetAccount returns one account
// @Summary Get account
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} object{account=models.Account}
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts/{id} [get]
func (h *ReadHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	businessID, _, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	account, err := h.reader.GetAccount(r.Context(), businessID, id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	services.WriteJSON(w, http.StatusOK, map[string]any{"account": account})
}

// CreateAccount adds an account to the chart of accounts
// @Summary Create account
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateAccountInput true "Account"
// @Success 201 {object} object{message=string,account=models.Account}
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse "Account code already exists"
// @Router /accounts [post]
func (h *ReadHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	businessID, _, ok := identity(w, r)
	if !ok {
		return
	}

	var input models.CreateAccountInput
	if err := services.DecodeJSON(w, r, &input); err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	account, err := h.reader.CreateAccount(r.Context(), businessID, &input)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	services.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Account created successfully",
		"account": account,
	})
}

// ListCustomers lists customers, optionally filtered by name
// @Summary List customers
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Param search query string false "Name contains"
// @Success 200 {object} models.Page[models.Counterparty]
// @Router /customers [get]
func (h *ReadHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	h.listCounterparties(w, r, services.RoleCustomer)
}

// ListSuppliers lists suppliers, optionally filtered by name
// @Summary List suppliers
// @Tags suppliers
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Param search query string false "Name contains"
// @Success 200 {object} models.Page[models.Counterparty]
// @Router /suppliers [get]
func (h *ReadHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	h.listCounterparties(w, r, services.RoleSupplier)
}

func (h *ReadHandler) listCounterparties(w http.ResponseWriter, r *http.Request, role services.CounterpartyRole) {
	businessID, _, ok := identity(w, r)
	if !ok {
		return
	}

	search := newQueryParams(r).text("search")
	page, err := h.reader.ListCounterparties(r.Context(), role, businessID, search, h.pagination(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	services.WriteJSON(w, http.StatusOK, page)
}

// GetCustomer returns one customer
// @Summary Get customer
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Customer ID"
// @Success 200 {object} object{customer=models.Counterparty}
// @Failure 404 {object} services.ErrorResponse
// @Router /customers/{id} [get]
func (h *ReadHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	h.getCounterparty(w, r, services.RoleCustomer)
}

// GetSupplier returns one supplier
// @Summary Get supplier
// @Tags suppliers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Supplier ID"
// @Success 200 {object} object{supplier=models.Counterparty}
// @Failure 404 {object} services.ErrorResponse
// @Router /suppliers/{id} [get]
func (h *ReadHandler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	h.getCounterparty(w, r, services.RoleSupplier)
}

func (h *ReadHandler) getCounterparty(w http.ResponseWriter, r *http.Request, role services.CounterpartyRole) {
	businessID, _, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	c, err := h.reader.GetCounterparty(r.Context(), role, businessID, id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	services.WriteJSON(w, http.StatusOK, map[string]any{string(role): c})
}

// CreateCustomer adds a customer
// @Summary Create customer
// @Tags customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateCounterpartyInput true "Customer"
// @Success 201 {object} object{message=string,customer=models.Counterparty}
// @Failure 400 {object} services.ErrorResponse
// @Router /customers [post]
func (h *ReadHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	h.createCounterparty(w, r, services.RoleCustomer, "Customer created successfully")
}

// CreateSupplier adds a supplier
// @Summary Create supplier
// @Tags suppliers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateCounterpartyInput true "Supplier"
// @Success 201 {object} object{message=string,supplier=models.Counterparty}
// @Failure 400 {object} services.ErrorResponse
// @Router /suppliers [post]
func (h *ReadHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	h.createCounterparty(w, r, services.RoleSupplier, "Supplier created successfully")
}

func (h *ReadHandler) createCounterparty(w http.ResponseWriter, r *http.Request, role services.CounterpartyRole, message string) {
	businessID, _, ok := identity(w, r)
	if !ok {
		return
	}

	var input models.CreateCounterpartyInput
	if err := services.DecodeJSON(w, r, &input); err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	c, err := h.reader.CreateCounterparty(r.Context(), role, businessID, &input)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	services.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":    message,
		string(role): c,
	})
}

// ListInvoices lists invoices newest first
// @Summary List invoices
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Param customerId query int false "Customer ID"
// @Param status query string false "Invoice status"
// @Success 200 {object} models.Page[models.Invoice]
// @Router /invoices [get]
func (h *ReadHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	businessID, _, ok := identity(w, r)
	if !ok {
		return
	}

	q := newQueryParams(r)
	f := models.InvoiceFilter{
		CustomerID: q.id("customerId"),
		Status:     q.text("status"),
	}
	if err := q.err(); err != nil {
		h.serviceError(w, r, err)
		return
	}

	page, err := h.reader.ListInvoices(r.Context(), businessID, f, h.pagination(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	services.WriteJSON(w, http.StatusOK, page)
}

// GetInvoice returns one invoice
// @Summary Get invoice
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path int true "Invoice ID"
// @Success 200 {object} object{invoice=models.Invoice}
// @Failure 404 {object} services.ErrorResponse
// @Router /invoices/{id} [get]
func (h *ReadHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	businessID, _, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	inv, err := h.reader.GetInvoice(r.Context(), businessID, id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	services.WriteJSON(w, http.StatusOK, map[string]any{"invoice": inv})
}

// TrialBalance reports every non-zero account balance
// @Summary Trial balance
// @Description Debit and credit columns per account with totals and a balanced flag
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.TrialBalance
// @Router /reports/trial-balance [get]
func (h *ReadHandler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	businessID, _, ok := identity(w, r)
	if !ok {
		return
	}

	tb, err := h.reader.TrialBalance(r.Context(), businessID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	services.WriteJSON(w, http.StatusOK, tb)
}
