package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS businesses (
		id SERIAL PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		currency CHAR(3) NOT NULL DEFAULT 'USD',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		business_id INTEGER NOT NULL REFERENCES businesses(id),
		name VARCHAR(200) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'owner',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id SERIAL PRIMARY KEY,
		business_id INTEGER NOT NULL REFERENCES businesses(id),
		code VARCHAR(20) NOT NULL,
		name VARCHAR(200) NOT NULL,
		account_type VARCHAR(20) NOT NULL,
		account_subtype VARCHAR(50),
		current_balance NUMERIC(15,2) NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (business_id, code)
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id SERIAL PRIMARY KEY,
		business_id INTEGER NOT NULL REFERENCES businesses(id),
		name VARCHAR(100) NOT NULL,
		category_type VARCHAR(20) NOT NULL DEFAULT 'expense'
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id SERIAL PRIMARY KEY,
		business_id INTEGER NOT NULL REFERENCES businesses(id),
		name VARCHAR(200) NOT NULL,
		email VARCHAR(255),
		phone VARCHAR(50),
		address TEXT,
		current_balance NUMERIC(15,2) NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS suppliers (
		id SERIAL PRIMARY KEY,
		business_id INTEGER NOT NULL REFERENCES businesses(id),
		name VARCHAR(200) NOT NULL,
		email VARCHAR(255),
		phone VARCHAR(50),
		address TEXT,
		current_balance NUMERIC(15,2) NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id SERIAL PRIMARY KEY,
		business_id INTEGER NOT NULL REFERENCES businesses(id),
		invoice_number VARCHAR(50) NOT NULL,
		customer_id INTEGER REFERENCES customers(id),
		issue_date DATE NOT NULL,
		due_date DATE,
		total_amount NUMERIC(15,2) NOT NULL,
		paid_amount NUMERIC(15,2) NOT NULL DEFAULT 0,
		balance_due NUMERIC(15,2) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'draft',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id SERIAL PRIMARY KEY,
		business_id INTEGER NOT NULL REFERENCES businesses(id),
		transaction_number VARCHAR(50) NOT NULL,
		transaction_date DATE NOT NULL,
		description TEXT NOT NULL,
		reference VARCHAR(100),
		total_amount NUMERIC(15,2) NOT NULL,
		transaction_type VARCHAR(20) NOT NULL,
		category_id INTEGER REFERENCES categories(id),
		customer_id INTEGER REFERENCES customers(id),
		supplier_id INTEGER REFERENCES suppliers(id),
		status VARCHAR(20) NOT NULL DEFAULT 'posted',
		payment_method VARCHAR(30),
		created_by INTEGER REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS transaction_details (
		id SERIAL PRIMARY KEY,
		transaction_id INTEGER NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
		account_id INTEGER NOT NULL REFERENCES accounts(id),
		debit_amount NUMERIC(15,2) NOT NULL DEFAULT 0 CHECK (debit_amount >= 0),
		credit_amount NUMERIC(15,2) NOT NULL DEFAULT 0 CHECK (credit_amount >= 0),
		description TEXT,
		line_number INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS receipts (
		id SERIAL PRIMARY KEY,
		business_id INTEGER NOT NULL REFERENCES businesses(id),
		receipt_number VARCHAR(50) NOT NULL,
		receipt_date DATE NOT NULL,
		amount NUMERIC(15,2) NOT NULL CHECK (amount > 0),
		payment_method VARCHAR(30) NOT NULL,
		description TEXT,
		reference VARCHAR(100),
		category_id INTEGER REFERENCES categories(id),
		customer_id INTEGER REFERENCES customers(id),
		supplier_id INTEGER REFERENCES suppliers(id),
		invoice_id INTEGER REFERENCES invoices(id),
		created_by INTEGER REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_business_date ON transactions (business_id, transaction_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_receipts_business_date ON receipts (business_id, receipt_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_transaction_details_tx ON transaction_details (transaction_id)`,
}

// Migrate creates the schema if it does not exist. Safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	return nil
}
