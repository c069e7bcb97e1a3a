package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeSale     TransactionType = "sale"
	TransactionTypePurchase TransactionType = "purchase"
	TransactionTypePayment  TransactionType = "payment"
	TransactionTypeReceipt  TransactionType = "receipt"
	TransactionTypeJournal  TransactionType = "journal"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeSale, TransactionTypePurchase,
		TransactionTypePayment, TransactionTypeReceipt, TransactionTypeJournal:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusDraft     TransactionStatus = "draft"
	TransactionStatusPosted    TransactionStatus = "posted"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Transaction is a dated double-entry financial event.
type Transaction struct {
	ID                int64               `json:"id"`
	BusinessID        int64               `json:"businessId"`
	TransactionNumber string              `json:"transactionNumber"`
	TransactionDate   string              `json:"transactionDate"`
	Description       string              `json:"description"`
	Reference         *string             `json:"reference"`
	TotalAmount       decimal.Decimal     `json:"totalAmount"`
	TransactionType   TransactionType     `json:"transactionType"`
	CategoryID        *int64              `json:"categoryId"`
	CustomerID        *int64              `json:"customerId"`
	SupplierID        *int64              `json:"supplierId"`
	Status            TransactionStatus   `json:"status"`
	PaymentMethod     *string             `json:"paymentMethod"`
	CategoryName      *string             `json:"categoryName"`
	CustomerName      *string             `json:"customerName"`
	SupplierName      *string             `json:"supplierName"`
	CreatedBy         *int64              `json:"createdBy"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
	Details           []TransactionDetail `json:"details,omitempty"`
}

// TransactionDetail is one debit/credit line of a Transaction.
type TransactionDetail struct {
	ID            int64           `json:"id"`
	TransactionID int64           `json:"transactionId"`
	AccountID     int64           `json:"accountId"`
	AccountCode   string          `json:"accountCode"`
	AccountName   string          `json:"accountName"`
	DebitAmount   decimal.Decimal `json:"debitAmount"`
	CreditAmount  decimal.Decimal `json:"creditAmount"`
	Description   *string         `json:"description"`
	LineNumber    int             `json:"lineNumber"`
}

type TransactionLineInput struct {
	AccountID    int64           `json:"accountId" validate:"required,gt=0"`
	DebitAmount  decimal.Decimal `json:"debitAmount" validate:"gte=0"`
	CreditAmount decimal.Decimal `json:"creditAmount" validate:"gte=0"`
	Description  *string         `json:"description,omitempty" validate:"omitempty,max=500"`
}

type CreateTransactionInput struct {
	TransactionDate string                 `json:"transactionDate" validate:"required,datetime=2006-01-02"`
	Description     string                 `json:"description" validate:"required,max=500"`
	Reference       *string                `json:"reference,omitempty" validate:"omitempty,max=100"`
	TotalAmount     decimal.Decimal        `json:"totalAmount" validate:"gt=0"`
	TransactionType TransactionType        `json:"transactionType" validate:"required,oneof=income expense sale purchase payment receipt journal"`
	CategoryID      *int64                 `json:"categoryId,omitempty" validate:"omitempty,gt=0"`
	CustomerID      *int64                 `json:"customerId,omitempty" validate:"omitempty,gt=0"`
	SupplierID      *int64                 `json:"supplierId,omitempty" validate:"omitempty,gt=0"`
	PaymentMethod   *string                `json:"paymentMethod,omitempty" validate:"omitempty,oneof=cash bank_transfer cheque card mobile_money other"`
	// Status is accepted for client compatibility; created transactions are always posted.
	Status  string                 `json:"status,omitempty" validate:"omitempty,oneof=draft posted cancelled"`
	Details []TransactionLineInput `json:"details" validate:"required,min=1,dive"`
}

// UpdateTransactionInput carries the mutable fields of a draft transaction.
// Nil fields are left unchanged.
type UpdateTransactionInput struct {
	TransactionDate *string                `json:"transactionDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Description     *string                `json:"description,omitempty" validate:"omitempty,min=1,max=500"`
	Reference       *string                `json:"reference,omitempty" validate:"omitempty,max=100"`
	TotalAmount     *decimal.Decimal       `json:"totalAmount,omitempty" validate:"omitempty,gt=0"`
	TransactionType *TransactionType       `json:"transactionType,omitempty" validate:"omitempty,oneof=income expense sale purchase payment receipt journal"`
	CategoryID      *int64                 `json:"categoryId,omitempty" validate:"omitempty,gt=0"`
	CustomerID      *int64                 `json:"customerId,omitempty" validate:"omitempty,gt=0"`
	SupplierID      *int64                 `json:"supplierId,omitempty" validate:"omitempty,gt=0"`
	PaymentMethod   *string                `json:"paymentMethod,omitempty" validate:"omitempty,oneof=cash bank_transfer cheque card mobile_money other"`
	Details         []TransactionLineInput `json:"details,omitempty" validate:"omitempty,min=1,dive"`
}

type TransactionFilter struct {
	Type       string
	Status     string
	CustomerID int64
	SupplierID int64
	CategoryID int64
	StartDate  string
	EndDate    string
}
