package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethods lists the accepted payment method values.
var PaymentMethods = []string{"cash", "bank_transfer", "cheque", "card", "mobile_money", "other"}

// Receipt is a single-sided cash or bank movement.
type Receipt struct {
	ID            int64           `json:"id"`
	BusinessID    int64           `json:"businessId"`
	ReceiptNumber string          `json:"receiptNumber"`
	ReceiptDate   string          `json:"receiptDate"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	Description   *string         `json:"description"`
	Reference     *string         `json:"reference"`
	CategoryID    *int64          `json:"categoryId"`
	CustomerID    *int64          `json:"customerId"`
	SupplierID    *int64          `json:"supplierId"`
	InvoiceID     *int64          `json:"invoiceId"`
	CategoryName  *string         `json:"categoryName"`
	CustomerName  *string         `json:"customerName"`
	SupplierName  *string         `json:"supplierName"`
	InvoiceNumber *string         `json:"invoiceNumber"`
	CreatedBy     *int64          `json:"createdBy"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type CreateReceiptInput struct {
	ReceiptNumber *string         `json:"receiptNumber,omitempty" validate:"omitempty,max=50"`
	ReceiptDate   string          `json:"receiptDate" validate:"required,datetime=2006-01-02"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentMethod string          `json:"paymentMethod" validate:"required,oneof=cash bank_transfer cheque card mobile_money other"`
	Description   *string         `json:"description,omitempty" validate:"omitempty,max=500"`
	Reference     *string         `json:"reference,omitempty" validate:"omitempty,max=100"`
	CategoryID    *int64          `json:"categoryId,omitempty" validate:"omitempty,gt=0"`
	CustomerID    *int64          `json:"customerId,omitempty" validate:"omitempty,gt=0"`
	SupplierID    *int64          `json:"supplierId,omitempty" validate:"omitempty,gt=0"`
	InvoiceID     *int64          `json:"invoiceId,omitempty" validate:"omitempty,gt=0"`
}

// UpdateReceiptInput: nil fields are left unchanged.
type UpdateReceiptInput struct {
	ReceiptNumber *string          `json:"receiptNumber,omitempty" validate:"omitempty,min=1,max=50"`
	ReceiptDate   *string          `json:"receiptDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Amount        *decimal.Decimal `json:"amount,omitempty" validate:"omitempty,gt=0"`
	PaymentMethod *string          `json:"paymentMethod,omitempty" validate:"omitempty,oneof=cash bank_transfer cheque card mobile_money other"`
	Description   *string          `json:"description,omitempty" validate:"omitempty,max=500"`
	Reference     *string          `json:"reference,omitempty" validate:"omitempty,max=100"`
	CategoryID    *int64           `json:"categoryId,omitempty" validate:"omitempty,gt=0"`
	CustomerID    *int64           `json:"customerId,omitempty" validate:"omitempty,gt=0"`
	SupplierID    *int64           `json:"supplierId,omitempty" validate:"omitempty,gt=0"`
	InvoiceID     *int64           `json:"invoiceId,omitempty" validate:"omitempty,gt=0"`
}

type ReceiptFilter struct {
	CustomerID    int64
	SupplierID    int64
	InvoiceID     int64
	PaymentMethod string
	StartDate     string
	EndDate       string
}
