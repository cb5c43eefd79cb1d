package models

import (
	"github.com/shopspring/decimal"
)

// MembershipTier is a row of the ordered loyalty ladder. MinSpent floors are
// what qualify a member for advancement; MaxSpent only bounds read-time
// rolling-spend reporting.
type MembershipTier struct {
	RankName     string           `gorm:"column:rank_name;primaryKey"`
	MinSpent     decimal.Decimal  `gorm:"column:min_spent;type:numeric(10,2);not null"`
	MaxSpent     *decimal.Decimal `gorm:"column:max_spent;type:numeric(10,2)"`
	DiscountRate decimal.Decimal  `gorm:"column:discount_rate;type:numeric(5,2);not null"`
	Benefits     *string          `gorm:"column:benefits"`
}
