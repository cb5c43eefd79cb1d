package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/napatsakorn/minimart-backend/pkg/db/models"
	"github.com/napatsakorn/minimart-backend/pkg/enums"
)

// Dec parses a decimal literal, failing the test on bad input.
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

// DecPtr returns a pointer to a parsed decimal literal.
func DecPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := Dec(t, s)
	return &d
}

// MustCreateProduct inserts a product with sane defaults, applying any overrides.
func MustCreateProduct(t *testing.T, tx *gorm.DB, overrides func(*models.Product)) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:            uuid.New(),
		Barcode:       fmt.Sprintf("885%s", uuid.NewString()[:10]),
		Name:          "Test Product",
		CostPrice:     Dec(t, "10.00"),
		SellingPrice:  Dec(t, "15.00"),
		StockQuantity: 100,
		MinStock:      10,
	}
	if overrides != nil {
		overrides(product)
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

// MustCreatePromotion inserts a promotion active for the two weeks around now.
func MustCreatePromotion(t *testing.T, tx *gorm.DB, kind enums.DiscountType, value string) *models.Promotion {
	t.Helper()
	promo := &models.Promotion{
		ID:            uuid.New(),
		Name:          "Test Promotion",
		DiscountType:  kind,
		DiscountValue: Dec(t, value),
		StartDate:     time.Now().AddDate(0, 0, -7),
		EndDate:       time.Now().AddDate(0, 0, 7),
		IsActive:      true,
	}
	if err := tx.Create(promo).Error; err != nil {
		t.Fatalf("create promotion: %v", err)
	}
	return promo
}

// MustCreateMember inserts a Bronze member with zero history, applying overrides.
func MustCreateMember(t *testing.T, tx *gorm.DB, overrides func(*models.Member)) *models.Member {
	t.Helper()
	member := &models.Member{
		ID:               uuid.New(),
		Name:             "Test Member",
		Phone:            fmt.Sprintf("08%08d", time.Now().UnixNano()%100000000),
		TotalSpent:       decimal.Zero,
		MembershipRank:   "Bronze",
		DiscountRate:     Dec(t, "3.00"),
		RegistrationDate: time.Now().AddDate(0, -1, 0),
	}
	if overrides != nil {
		overrides(member)
	}
	if err := tx.Create(member).Error; err != nil {
		t.Fatalf("create member: %v", err)
	}
	return member
}

// MustCreateUser inserts an employee account.
func MustCreateUser(t *testing.T, tx *gorm.DB, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("mm_test_%s@example.com", uuid.NewString()),
		Username:     fmt.Sprintf("mm_test_%s", uuid.NewString()[:8]),
		Name:         "Test Employee",
		Role:         role,
		PasswordHash: "hash",
	}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// SeedTiers inserts the standard four-tier loyalty ladder.
func SeedTiers(t *testing.T, tx *gorm.DB) []models.MembershipTier {
	t.Helper()
	tiers := []models.MembershipTier{
		{RankName: "Bronze", MinSpent: Dec(t, "0.00"), MaxSpent: DecPtr(t, "5000.00"), DiscountRate: Dec(t, "3.00")},
		{RankName: "Silver", MinSpent: Dec(t, "5000.01"), MaxSpent: DecPtr(t, "10000.00"), DiscountRate: Dec(t, "5.00")},
		{RankName: "Gold", MinSpent: Dec(t, "10000.01"), MaxSpent: DecPtr(t, "50000.00"), DiscountRate: Dec(t, "10.00")},
		{RankName: "Platinum", MinSpent: Dec(t, "50000.01"), MaxSpent: nil, DiscountRate: Dec(t, "15.00")},
	}
	if err := tx.Create(&tiers).Error; err != nil {
		t.Fatalf("seed tiers: %v", err)
	}
	return tiers
}
