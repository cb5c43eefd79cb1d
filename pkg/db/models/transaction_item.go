package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionItem snapshots one distinct product within a receipt. UnitPrice
// is copied from the product at checkout time, never read back live, and
// LineTotal always equals Quantity*UnitPrice minus DiscountAmount.
type TransactionItem struct {
	TransactionID  uuid.UUID       `gorm:"column:transaction_id;type:uuid;primaryKey"`
	ProductID      uuid.UUID       `gorm:"column:product_id;type:uuid;primaryKey"`
	Quantity       int             `gorm:"column:quantity;not null"`
	UnitPrice      decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(10,2);not null"`
	LineTotal      decimal.Decimal `gorm:"column:line_total;type:numeric(10,2);not null"`
}
