package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Counterparty is the shared shape of customers and suppliers. A customer's
// CurrentBalance is what they owe the business; a supplier's is what the
// business owes them.
type Counterparty struct {
	ID             int64           `json:"id" example:"1"`
	BusinessID     int64           `json:"businessId" example:"1"`
	Name           string          `json:"name" example:"Globex"`
	Email          *string         `json:"email"`
	Phone          *string         `json:"phone"`
	Address        *string         `json:"address"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	IsActive       bool            `json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type Customer = Counterparty

type Supplier = Counterparty

type CreateCounterpartyInput struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=1000"`
}
