// Package testutil provides the sqlite-backed database harness shared by
// repository and service tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// OpenDB opens a fresh in-memory sqlite database with the full store
// schema applied. Each call gets an isolated database.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:minimart_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	for _, ddl := range schema {
		require.NoError(t, conn.Exec(ddl).Error, "apply test schema")
	}
	return conn
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  username TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  role TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS membership_tiers (
  rank_name TEXT PRIMARY KEY,
  min_spent NUMERIC NOT NULL,
  max_spent NUMERIC,
  discount_rate NUMERIC NOT NULL,
  benefits TEXT
);`,
	`CREATE TABLE IF NOT EXISTS promotions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  discount_type TEXT NOT NULL,
  discount_value NUMERIC NOT NULL,
  start_date DATETIME NOT NULL,
  end_date DATETIME NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  barcode TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  brand TEXT,
  category TEXT,
  cost_price NUMERIC NOT NULL,
  selling_price NUMERIC NOT NULL,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  min_stock INTEGER NOT NULL DEFAULT 10,
  promotion_id TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  CHECK (stock_quantity >= 0)
);`,
	`CREATE TABLE IF NOT EXISTS members (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  phone TEXT NOT NULL UNIQUE,
  points_balance INTEGER NOT NULL DEFAULT 0,
  total_spent NUMERIC NOT NULL DEFAULT 0,
  membership_rank TEXT NOT NULL DEFAULT 'Bronze',
  discount_rate NUMERIC NOT NULL DEFAULT 0,
  registration_date DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  transaction_date DATETIME NOT NULL,
  employee_id TEXT NOT NULL,
  member_id TEXT,
  subtotal NUMERIC NOT NULL,
  product_discount NUMERIC NOT NULL,
  membership_discount NUMERIC NOT NULL,
  total_amount NUMERIC NOT NULL,
  payment_method TEXT NOT NULL
);`,
	`CREATE TABLE IF NOT EXISTS transaction_items (
  transaction_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  discount_amount NUMERIC NOT NULL,
  line_total NUMERIC NOT NULL,
  PRIMARY KEY (transaction_id, product_id)
);`,
}
