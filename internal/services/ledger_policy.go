package services

import (
	"github.com/fintrack/backend/internal/models"
	"github.com/shopspring/decimal"
)

type CounterpartyRole string

const (
	RoleCustomer CounterpartyRole = "customer"
	RoleSupplier CounterpartyRole = "supplier"
)

type policyKey struct {
	txType models.TransactionType
	role   CounterpartyRole
}

// BalancePolicy maps a transaction type and counterparty role to the sign
// applied to the counterparty balance. Missing pairs have no effect.
var BalancePolicy = map[policyKey]int64{
	{models.TransactionTypeSale, RoleCustomer}:     1,
	{models.TransactionTypePayment, RoleCustomer}:  -1,
	{models.TransactionTypePurchase, RoleSupplier}: 1,
	{models.TransactionTypePayment, RoleSupplier}:  -1,
}

// CounterpartyMultiplier returns +1, -1 or 0 for the pair.
func CounterpartyMultiplier(txType models.TransactionType, role CounterpartyRole) int64 {
	return BalancePolicy[policyKey{txType, role}]
}

// Receipt effects. A receipt reduces what a customer owes and what the
// business owes a supplier, and pays down a linked invoice.
const (
	receiptCustomerSign = -1
	receiptSupplierSign = -1
	receiptInvoiceSign  = 1
)

// transactionMutation computes the balance deltas of a posted transaction.
// Each line moves its account by credit minus debit.
func transactionMutation(input *models.CreateTransactionInput) *LedgerMutation {
	m := NewLedgerMutation()

	for _, line := range input.Details {
		m.AddAccount(line.AccountID, line.CreditAmount.Sub(line.DebitAmount))
	}

	if input.CustomerID != nil {
		sign := CounterpartyMultiplier(input.TransactionType, RoleCustomer)
		m.AddCustomer(*input.CustomerID, input.TotalAmount.Mul(decimal.NewFromInt(sign)))
	}
	if input.SupplierID != nil {
		sign := CounterpartyMultiplier(input.TransactionType, RoleSupplier)
		m.AddSupplier(*input.SupplierID, input.TotalAmount.Mul(decimal.NewFromInt(sign)))
	}
	return m
}

// receiptLinks is the set of balance-bearing references a receipt holds.
type receiptLinks struct {
	CustomerID *int64
	SupplierID *int64
	InvoiceID  *int64
}

// receiptMutation computes the effect of receiving amount against links.
// A negative amount produces the inverse effect.
func receiptMutation(links receiptLinks, amount decimal.Decimal) *LedgerMutation {
	m := NewLedgerMutation()

	if links.CustomerID != nil {
		m.AddCustomer(*links.CustomerID, amount.Mul(decimal.NewFromInt(receiptCustomerSign)))
	}
	if links.SupplierID != nil {
		m.AddSupplier(*links.SupplierID, amount.Mul(decimal.NewFromInt(receiptSupplierSign)))
	}
	if links.InvoiceID != nil {
		m.AddInvoicePayment(*links.InvoiceID, amount.Mul(decimal.NewFromInt(receiptInvoiceSign)))
	}
	return m
}

// checkBalanced rejects detail lines whose debits and credits differ by more
// than the tolerance.
func checkBalanced(lines []models.TransactionLineInput) error {
	debits, credits := decimal.Zero, decimal.Zero
	for _, line := range lines {
		debits = debits.Add(line.DebitAmount)
		credits = credits.Add(line.CreditAmount)
	}
	if !models.WithinTolerance(debits, credits) {
		return newValidationError("Total debits must equal total credits")
	}
	return nil
}
