package handlers

import (
	"context"
	"net/http"

	"github.com/fintrack/backend/internal/models"
	"github.com/fintrack/backend/internal/services"
	"go.uber.org/zap"
)

// LedgerMutator is the write side of the ledger.
type LedgerMutator interface {
	CreateTransaction(ctx context.Context, businessID, userID int64, input *models.CreateTransactionInput) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, businessID, id int64, input *models.UpdateTransactionInput) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, businessID, id int64) error
	GetTransaction(ctx context.Context, businessID, id int64) (*models.Transaction, error)

	CreateReceipt(ctx context.Context, businessID, userID int64, input *models.CreateReceiptInput) (*models.Receipt, error)
	UpdateReceipt(ctx context.Context, businessID, id int64, input *models.UpdateReceiptInput) (*models.Receipt, error)
	DeleteReceipt(ctx context.Context, businessID, id int64) error
	GetReceipt(ctx context.Context, businessID, id int64) (*models.Receipt, error)
}

type LedgerHandler struct {
	responder
	ledger LedgerMutator
}

func NewLedgerHandler(ledger LedgerMutator, logger *zap.Logger, opts Options) *LedgerHandler {
	return &LedgerHandler{
		responder: responder{logger: logger.Named("ledger_handler"), opts: opts.withDefaults()},
		ledger:    ledger,
	}
}

// TransactionResponse wraps a single transaction.
type TransactionResponse struct {
	Message     string              `json:"message,omitempty" example:"Transaction created successfully"`
	Transaction *models.Transaction `json:"transaction"`
}

// ReceiptResponse wraps a single receipt.
type ReceiptResponse struct {
	Message string          `json:"message,omitempty" example:"Receipt created successfully"`
	Receipt *models.Receipt `json:"receipt"`
}

// MessageResponse is returned by deletes.
type MessageResponse struct {
	Message string `json:"message" example:"Transaction deleted successfully"`
}

// CreateTransaction posts a balanced double-entry transaction
// @Summary Create transaction
// @Description Post a double-entry transaction and apply its balance changes
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateTransactionInput true "Transaction"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} services.ErrorResponse "Validation failed or debits do not equal credits"
// @Failure 401 {object} services.ErrorResponse
// @Router /transactions [post]
func (h *LedgerHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	businessID, userID, ok := identity(w, r)
	if !ok {
		return
	}

	var input models.CreateTransactionInput
	if err := services.DecodeJSON(w, r, &input); err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	txn, err := h.ledger.CreateTransaction(r.Context(), businessID, userID, &input)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	services.WriteJSON(w, http.StatusCreated, TransactionResponse{
		Message:     "Transaction created successfully",
		Transaction: txn,
	})
}

// GetTransaction returns one transaction with its detail lines
// @Summary Get transaction
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 200 {object} TransactionResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /transactions/{id} [get]
func (h *LedgerHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	businessID, _, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	txn, err := h.ledger.GetTransaction(r.Context(), businessID, id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	services.WriteJSON(w, http.StatusOK, TransactionResponse{Transaction: txn})
}

// UpdateTransaction edits a draft transaction
// @Summary Update transaction
// @Description Only draft transactions can be updated; posted ones are immutable
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Param request body models.UpdateTransactionInput true "Fields to change"
// @Success 200 {object} TransactionResponse
// @Failure 400 {object} services.ErrorResponse "Validation failed or transaction is not a draft"
// @Failure 404 {object} services.ErrorResponse
// @Router /transactions/{id} [put]
func (h *LedgerHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	businessID, _, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var input models.UpdateTransactionInput
	if err := services.DecodeJSON(w, r, &input); err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	txn, err := h.ledger.UpdateTransaction(r.Context(), businessID, id, &input)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	services.WriteJSON(w, http.StatusOK, TransactionResponse{
		Message:     "Transaction updated successfully",
		Transaction: txn,
	})
}

// DeleteTransaction removes a draft transaction
// @Summary Delete transaction
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} services.ErrorResponse "Transaction is not a draft"
// @Failure 404 {object} services.ErrorResponse
// @Router /transactions/{id} [delete]
func (h *LedgerHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	businessID, _, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.ledger.DeleteTransaction(r.Context(), businessID, id); err != nil {
		h.serviceError(w, r, err)
		return
	}
	services.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Transaction deleted successfully"})
}

// CreateReceipt records money received or paid
// @Summary Create receipt
// @Description Record a receipt and apply it to the linked customer, supplier and invoice
// @Tags receipts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateReceiptInput true "Receipt"
// @Success 201 {object} ReceiptResponse
// @Failure 400 {object} services.ErrorResponse
// @Router /receipts [post]
func (h *LedgerHandler) CreateReceipt(w http.ResponseWriter, r *http.Request) {
	businessID, userID, ok := identity(w, r)
	if !ok {
		return
	}

	var input models.CreateReceiptInput
	if err := services.DecodeJSON(w, r, &input); err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	receipt, err := h.ledger.CreateReceipt(r.Context(), businessID, userID, &input)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	services.WriteJSON(w, http.StatusCreated, ReceiptResponse{
		Message: "Receipt created successfully",
		Receipt: receipt,
	})
}

// GetReceipt returns one receipt
// @Summary Get receipt
// @Tags receipts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Receipt ID"
// @Success 200 {object} ReceiptResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /receipts/{id} [get]
func (h *LedgerHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	businessID, _, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	receipt, err := h.ledger.GetReceipt(r.Context(), businessID, id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	services.WriteJSON(w, http.StatusOK, ReceiptResponse{Receipt: receipt})
}

// UpdateReceipt edits a receipt and re-applies the amount difference
// @Summary Update receipt
// @Tags receipts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Receipt ID"
// @Param request body models.UpdateReceiptInput true "Fields to change"
// @Success 200 {object} ReceiptResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /receipts/{id} [put]
func (h *LedgerHandler) UpdateReceipt(w http.ResponseWriter, r *http.Request) {
	businessID, _, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var input models.UpdateReceiptInput
	if err := services.DecodeJSON(w, r, &input); err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	receipt, err := h.ledger.UpdateReceipt(r.Context(), businessID, id, &input)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	services.WriteJSON(w, http.StatusOK, ReceiptResponse{
		Message: "Receipt updated successfully",
		Receipt: receipt,
	})
}

// DeleteReceipt removes a receipt and reverses its balance effects
// @Summary Delete receipt
// @Tags receipts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Receipt ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /receipts/{id} [delete]
func (h *LedgerHandler) DeleteReceipt(w http.ResponseWriter, r *http.Request) {
	businessID, _, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.ledger.DeleteReceipt(r.Context(), businessID, id); err != nil {
		h.serviceError(w, r, err)
		return
	}
	services.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Receipt deleted successfully"})
}
