package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

type balanceKind int

const (
	kindAccount balanceKind = iota
	kindCustomer
	kindSupplier
	kindInvoice
)

// applyOrder fixes the table order of updates; ids within a table are
// ascending so concurrent mutations lock rows in the same sequence.
var applyOrder = []balanceKind{kindAccount, kindCustomer, kindSupplier, kindInvoice}

var balanceTargets = map[balanceKind]struct {
	entity string
	query  string
}{
	kindAccount: {"account", `UPDATE accounts SET current_balance = current_balance + $1, updated_at = NOW()
		WHERE id = $2 AND business_id = $3`},
	kindCustomer: {"customer", `UPDATE customers SET current_balance = current_balance + $1, updated_at = NOW()
		WHERE id = $2 AND business_id = $3`},
	kindSupplier: {"supplier", `UPDATE suppliers SET current_balance = current_balance + $1, updated_at = NOW()
		WHERE id = $2 AND business_id = $3`},
	kindInvoice: {"invoice", `UPDATE invoices SET paid_amount = paid_amount + $1, balance_due = balance_due - $1, updated_at = NOW()
		WHERE id = $2 AND business_id = $3`},
}

// LedgerMutation collects the balance deltas of one logical ledger change.
// Deltas for the same row are merged; nothing touches the database until Apply.
type LedgerMutation struct {
	deltas map[balanceKind]map[int64]decimal.Decimal
}

func NewLedgerMutation() *LedgerMutation {
	return &LedgerMutation{deltas: make(map[balanceKind]map[int64]decimal.Decimal)}
}

func (m *LedgerMutation) add(kind balanceKind, id int64, delta decimal.Decimal) {
	rows, ok := m.deltas[kind]
	if !ok {
		rows = make(map[int64]decimal.Decimal)
		m.deltas[kind] = rows
	}
	rows[id] = rows[id].Add(delta)
}

func (m *LedgerMutation) AddAccount(id int64, delta decimal.Decimal)  { m.add(kindAccount, id, delta) }
func (m *LedgerMutation) AddCustomer(id int64, delta decimal.Decimal) { m.add(kindCustomer, id, delta) }
func (m *LedgerMutation) AddSupplier(id int64, delta decimal.Decimal) { m.add(kindSupplier, id, delta) }

// AddInvoicePayment raises paid_amount and lowers balance_due by delta.
func (m *LedgerMutation) AddInvoicePayment(id int64, delta decimal.Decimal) {
	m.add(kindInvoice, id, delta)
}

// Merge folds other's deltas into m.
func (m *LedgerMutation) Merge(other *LedgerMutation) {
	for kind, rows := range other.deltas {
		for id, d := range rows {
			m.add(kind, id, d)
		}
	}
}

// Reverse returns a mutation that exactly undoes m.
func (m *LedgerMutation) Reverse() *LedgerMutation {
	r := NewLedgerMutation()
	for kind, rows := range m.deltas {
		for id, d := range rows {
			r.add(kind, id, d.Neg())
		}
	}
	return r
}

func (m *LedgerMutation) AccountDelta(id int64) decimal.Decimal  { return m.deltas[kindAccount][id] }
func (m *LedgerMutation) CustomerDelta(id int64) decimal.Decimal { return m.deltas[kindCustomer][id] }
func (m *LedgerMutation) SupplierDelta(id int64) decimal.Decimal { return m.deltas[kindSupplier][id] }
func (m *LedgerMutation) InvoiceDelta(id int64) decimal.Decimal  { return m.deltas[kindInvoice][id] }

// IsEmpty reports whether every collected delta is zero.
func (m *LedgerMutation) IsEmpty() bool {
	for _, rows := range m.deltas {
		for _, d := range rows {
			if !d.IsZero() {
				return false
			}
		}
	}
	return true
}

// sortedIDs returns the ids of kind with a non-zero delta, ascending.
func (m *LedgerMutation) sortedIDs(kind balanceKind) []int64 {
	ids := make([]int64, 0, len(m.deltas[kind]))
	for id, d := range m.deltas[kind] {
		if !d.IsZero() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Apply issues one increment per touched row inside tx. A row missing from
// businessID's books fails the whole mutation with a NotFoundError.
func (m *LedgerMutation) Apply(ctx context.Context, tx *sql.Tx, businessID int64) error {
	for _, kind := range applyOrder {
		target := balanceTargets[kind]
		for _, id := range m.sortedIDs(kind) {
			res, err := tx.ExecContext(ctx, target.query, m.deltas[kind][id], id, businessID)
			if err != nil {
				return fmt.Errorf("update %s %d balance: %w", target.entity, id, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("update %s %d balance: %w", target.entity, id, err)
			}
			if n == 0 {
				return newNotFound(target.entity, id)
			}
		}
	}
	return nil
}
