package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Member carries loyalty state. DiscountRate is a cached copy of the tier's
// rate; checkout keeps it consistent with MembershipRank whenever lifetime
// spend crosses a tier floor.
type Member struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string          `gorm:"column:name;not null"`
	Phone            string          `gorm:"column:phone;not null;uniqueIndex"`
	PointsBalance    int             `gorm:"column:points_balance;not null;default:0"`
	TotalSpent       decimal.Decimal `gorm:"column:total_spent;type:numeric(10,2);not null"`
	MembershipRank   string          `gorm:"column:membership_rank;not null;default:'Bronze'"`
	DiscountRate     decimal.Decimal `gorm:"column:discount_rate;type:numeric(5,2);not null"`
	RegistrationDate time.Time       `gorm:"column:registration_date;type:date;not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
