package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/napatsakorn/minimart-backend/pkg/db/models"
	"github.com/napatsakorn/minimart-backend/pkg/enums"
)

var today = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func promo(kind enums.DiscountType, value string) *models.Promotion {
	return &models.Promotion{
		DiscountType:  kind,
		DiscountValue: decimal.RequireFromString(value),
		StartDate:     today.AddDate(0, 0, -7),
		EndDate:       today.AddDate(0, 0, 7),
		IsActive:      true,
	}
}

func TestLineDiscount(t *testing.T) {
	tests := []struct {
		name      string
		unitPrice string
		quantity  int
		promo     *models.Promotion
		want      string
	}{
		{
			name:      "percentage applies to line total",
			unitPrice: "100.00",
			quantity:  2,
			promo:     promo(enums.DiscountTypePercentage, "20"),
			want:      "40.00",
		},
		{
			name:      "fixed is per unit",
			unitPrice: "50.00",
			quantity:  3,
			promo:     promo(enums.DiscountTypeFixed, "5.00"),
			want:      "15.00",
		},
		{
			name:      "nil promotion yields zero",
			unitPrice: "99.99",
			quantity:  4,
			promo:     nil,
			want:      "0",
		},
		{
			name:      "percentage rounds half up",
			unitPrice: "33.33",
			quantity:  1,
			promo:     promo(enums.DiscountTypePercentage, "7.5"),
			want:      "2.50",
		},
		{
			name:      "fixed capped at line total",
			unitPrice: "3.00",
			quantity:  2,
			promo:     promo(enums.DiscountTypeFixed, "10.00"),
			want:      "6.00",
		},
		{
			name:      "full percentage wipes the line",
			unitPrice: "12.50",
			quantity:  2,
			promo:     promo(enums.DiscountTypePercentage, "100"),
			want:      "25.00",
		},
		{
			name:      "zero quantity yields zero",
			unitPrice: "10.00",
			quantity:  0,
			promo:     promo(enums.DiscountTypePercentage, "50"),
			want:      "0",
		},
		{
			name:      "negative value is clamped",
			unitPrice: "10.00",
			quantity:  1,
			promo:     promo(enums.DiscountTypeFixed, "-2.00"),
			want:      "0",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := LineDiscount(decimal.RequireFromString(tc.unitPrice), tc.quantity, tc.promo, today)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
				"got %s, want %s", got, tc.want)
		})
	}
}

func TestLineDiscountPromotionWindow(t *testing.T) {
	p := promo(enums.DiscountTypePercentage, "20")
	price := decimal.RequireFromString("100.00")

	assert.True(t, LineDiscount(price, 1, p, today.AddDate(0, 0, 30)).IsZero(),
		"expired promotion must not discount")
	assert.True(t, LineDiscount(price, 1, p, today.AddDate(0, 0, -30)).IsZero(),
		"not-yet-started promotion must not discount")

	// Boundary days are inclusive.
	assert.False(t, LineDiscount(price, 1, p, p.StartDate).IsZero())
	assert.False(t, LineDiscount(price, 1, p, p.EndDate).IsZero())

	p.IsActive = false
	assert.True(t, LineDiscount(price, 1, p, today).IsZero(),
		"disabled promotion must not discount even inside its window")
}

func TestLineDiscountNeverExceedsLineTotal(t *testing.T) {
	unitPrice := decimal.RequireFromString("7.77")
	for qty := 1; qty <= 10; qty++ {
		for _, value := range []string{"0", "10", "55.5", "100", "250"} {
			lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(qty)))
			for _, kind := range []enums.DiscountType{enums.DiscountTypePercentage, enums.DiscountTypeFixed} {
				got := LineDiscount(unitPrice, qty, promo(kind, value), today)
				assert.False(t, got.IsNegative(), "%s %s qty=%d went negative", kind, value, qty)
				assert.True(t, got.LessThanOrEqual(lineTotal),
					"%s %s qty=%d: discount %s exceeds line total %s", kind, value, qty, got, lineTotal)
			}
		}
	}
}

func TestMembershipDiscount(t *testing.T) {
	tests := []struct {
		name     string
		subtotal string
		rate     string
		want     string
	}{
		{"bronze three percent", "1500.00", "3", "45.00"},
		{"gold ten percent", "333.33", "10", "33.33"},
		{"zero rate", "1500.00", "0", "0"},
		{"rounds half up", "10.10", "2.5", "0.25"},
		{"zero subtotal", "0", "5", "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := MembershipDiscount(decimal.RequireFromString(tc.subtotal), decimal.RequireFromString(tc.rate))
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
				"got %s, want %s", got, tc.want)
		})
	}
}

func TestPoints(t *testing.T) {
	assert.Equal(t, 150, Points(decimal.RequireFromString("149.50")))
	assert.Equal(t, 149, Points(decimal.RequireFromString("149.49")))
	assert.Equal(t, 0, Points(decimal.Zero))
}

func TestRound(t *testing.T) {
	assert.Equal(t, "10.13", Round(decimal.RequireFromString("10.125")).StringFixed(2))
	assert.Equal(t, "10.12", Round(decimal.RequireFromString("10.124")).StringFixed(2))
}
