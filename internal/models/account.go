package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
)

// Account is a chart-of-accounts entry with a running balance.
type Account struct {
	ID             int64           `json:"id" example:"1"`
	BusinessID     int64           `json:"businessId" example:"1"`
	Code           string          `json:"code" example:"1000"`
	Name           string          `json:"name" example:"Cash"`
	AccountType    AccountType     `json:"accountType" example:"asset"`
	AccountSubtype *string         `json:"accountSubtype"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	IsActive       bool            `json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type CreateAccountInput struct {
	Code           string  `json:"code" validate:"required,max=20"`
	Name           string  `json:"name" validate:"required,max=200"`
	AccountType    string  `json:"accountType" validate:"required,oneof=asset liability equity income expense"`
	AccountSubtype *string `json:"accountSubtype,omitempty" validate:"omitempty,max=50"`
}

type AccountFilter struct {
	Type   string
	Active *bool
}

// TrialBalanceLine places a non-zero balance in the credit column when
// positive and in the debit column when negative.
type TrialBalanceLine struct {
	AccountID   int64           `json:"accountId"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	AccountType AccountType     `json:"accountType"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

type TrialBalance struct {
	Lines       []TrialBalanceLine `json:"lines"`
	TotalDebit  decimal.Decimal    `json:"totalDebit"`
	TotalCredit decimal.Decimal    `json:"totalCredit"`
	Balanced    bool               `json:"balanced"`
}
