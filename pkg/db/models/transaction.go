package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/napatsakorn/minimart-backend/pkg/enums"
)

// Transaction is an append-only receipt row. TotalAmount always equals
// Subtotal minus MembershipDiscount; the row never mutates after creation.
type Transaction struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TransactionDate    time.Time           `gorm:"column:transaction_date;not null;autoCreateTime"`
	EmployeeID         uuid.UUID           `gorm:"column:employee_id;type:uuid;not null"`
	MemberID           *uuid.UUID          `gorm:"column:member_id;type:uuid"`
	Subtotal           decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null"`
	ProductDiscount    decimal.Decimal     `gorm:"column:product_discount;type:numeric(10,2);not null"`
	MembershipDiscount decimal.Decimal     `gorm:"column:membership_discount;type:numeric(10,2);not null"`
	TotalAmount        decimal.Decimal     `gorm:"column:total_amount;type:numeric(10,2);not null"`
	PaymentMethod      enums.PaymentMethod `gorm:"column:payment_method;not null"`
	Items              []TransactionItem   `gorm:"foreignKey:TransactionID"`
}
