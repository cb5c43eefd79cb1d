package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/napatsakorn/minimart-backend/pkg/enums"
)

// Promotion is a product-level discount campaign. A promotion applies on a
// given date only when IsActive and the date falls inside [StartDate, EndDate].
type Promotion struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string             `gorm:"column:name;not null"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;not null"`
	DiscountValue decimal.Decimal    `gorm:"column:discount_value;type:numeric(10,2);not null"`
	StartDate     time.Time          `gorm:"column:start_date;type:date;not null"`
	EndDate       time.Time          `gorm:"column:end_date;type:date;not null"`
	// No gorm default tag here: with one, GORM drops the zero value from
	// the INSERT and a promotion created disabled would come back active.
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ActiveOn reports whether the promotion applies on the given date. The
// window is compared on calendar days, not absolute instants, so a store
// running in a non-UTC timezone does not see the window flip mid-evening.
func (p *Promotion) ActiveOn(date time.Time) bool {
	if p == nil || !p.IsActive {
		return false
	}
	day := calendarDay(date)
	return !day.Before(calendarDay(p.StartDate)) && !day.After(calendarDay(p.EndDate))
}

func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
