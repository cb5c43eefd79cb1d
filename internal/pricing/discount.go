// Package pricing holds the pure money math used by checkout: per-line
// promotion discounts and membership discounts. All amounts are rounded
// half-up to 2 decimal places at the point each discount is computed.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/napatsakorn/minimart-backend/pkg/db/models"
	"github.com/napatsakorn/minimart-backend/pkg/enums"
)

var oneHundred = decimal.NewFromInt(100)

// MoneyScale is the number of decimal places monetary amounts carry.
const MoneyScale = 2

// Round normalizes an amount to the monetary scale using half-up rounding.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyScale)
}

// LineDiscount computes the promotion discount for a line of quantity
// units at unitPrice.
//
// PERCENTAGE promotions apply to the line total (unit price times
// quantity). FIXED promotions are a per-unit amount, so the value is
// multiplied by the quantity. A discount never exceeds the line total
// and never goes negative. A nil promotion, or one that is not active
// on asOf, yields zero.
func LineDiscount(unitPrice decimal.Decimal, quantity int, promo *models.Promotion, asOf time.Time) decimal.Decimal {
	if promo == nil || !promo.ActiveOn(asOf) || quantity <= 0 {
		return decimal.Zero
	}
	qty := decimal.NewFromInt(int64(quantity))
	lineTotal := unitPrice.Mul(qty)

	var discount decimal.Decimal
	switch promo.DiscountType {
	case enums.DiscountTypePercentage:
		discount = lineTotal.Mul(promo.DiscountValue).Div(oneHundred)
	case enums.DiscountTypeFixed:
		discount = promo.DiscountValue.Mul(qty)
	default:
		return decimal.Zero
	}

	discount = Round(discount)
	if discount.GreaterThan(lineTotal) {
		return Round(lineTotal)
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}

// MembershipDiscount computes the member discount on an already
// promotion-discounted subtotal. rate is a percentage (3 means 3%).
func MembershipDiscount(subtotal, rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() || subtotal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return Round(subtotal.Mul(rate).Div(oneHundred))
}

// Points converts a final transaction amount into loyalty points,
// rounding half-up to the nearest whole point.
func Points(totalAmount decimal.Decimal) int {
	return int(totalAmount.Round(0).IntPart())
}
