package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Invoice struct {
	ID            int64           `json:"id" example:"1"`
	BusinessID    int64           `json:"businessId" example:"1"`
	InvoiceNumber string          `json:"invoiceNumber" example:"INV-0001"`
	CustomerID    *int64          `json:"customerId"`
	CustomerName  *string         `json:"customerName"`
	IssueDate     string          `json:"issueDate" example:"2024-03-01"`
	DueDate       *string         `json:"dueDate"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	BalanceDue    decimal.Decimal `json:"balanceDue"`
	Status        string          `json:"status" example:"sent"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type InvoiceFilter struct {
	CustomerID int64
	Status     string
}
