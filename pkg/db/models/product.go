package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry sold at the register. SellingPrice must stay at
// or above CostPrice and StockQuantity never goes negative; both are enforced
// by the catalog service and a guarded decrement at checkout.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Barcode       string          `gorm:"column:barcode;not null;uniqueIndex"`
	Name          string          `gorm:"column:name;not null"`
	Brand         *string         `gorm:"column:brand"`
	Category      *string         `gorm:"column:category"`
	CostPrice     decimal.Decimal `gorm:"column:cost_price;type:numeric(10,2);not null"`
	SellingPrice  decimal.Decimal `gorm:"column:selling_price;type:numeric(10,2);not null"`
	StockQuantity int             `gorm:"column:stock_quantity;not null;default:0"`
	MinStock      int             `gorm:"column:min_stock;not null;default:10"`
	PromotionID   *uuid.UUID      `gorm:"column:promotion_id;type:uuid"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
