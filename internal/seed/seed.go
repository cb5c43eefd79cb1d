// Package seed loads the baseline rows a fresh store needs: the tier
// ladder, a pair of demo employees and a small starter catalog.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/napatsakorn/minimart-backend/pkg/config"
	"github.com/napatsakorn/minimart-backend/pkg/db"
	"github.com/napatsakorn/minimart-backend/pkg/db/models"
	"github.com/napatsakorn/minimart-backend/pkg/enums"
	"github.com/napatsakorn/minimart-backend/pkg/logger"
	"github.com/napatsakorn/minimart-backend/pkg/security"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func decPtr(value string) *decimal.Decimal {
	d := dec(value)
	return &d
}

func strPtr(value string) *string {
	return &value
}

// Tiers is the canonical loyalty ladder. MaxSpent bounds only apply to
// rolling-spend reporting; advancement keys off MinSpent floors.
func Tiers() []models.MembershipTier {
	return []models.MembershipTier{
		{RankName: "Bronze", MinSpent: dec("0.00"), MaxSpent: decPtr("5000.00"), DiscountRate: dec("3.00"), Benefits: strPtr("Earn 1 point per baht")},
		{RankName: "Silver", MinSpent: dec("5000.01"), MaxSpent: decPtr("10000.00"), DiscountRate: dec("5.00"), Benefits: strPtr("5% member discount")},
		{RankName: "Gold", MinSpent: dec("10000.01"), MaxSpent: decPtr("50000.00"), DiscountRate: dec("10.00"), Benefits: strPtr("10% member discount")},
		{RankName: "Platinum", MinSpent: dec("50000.01"), MaxSpent: nil, DiscountRate: dec("15.00"), Benefits: strPtr("15% member discount plus priority support")},
	}
}

// Run inserts the baseline dataset, skipping rows that already exist so
// repeated runs stay harmless.
func Run(ctx context.Context, client *db.Client, passwordCfg config.PasswordConfig, logg *logger.Logger) error {
	if client == nil {
		return fmt.Errorf("db client required")
	}

	return client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := seedTiers(tx); err != nil {
			return fmt.Errorf("seeding tiers: %w", err)
		}
		if err := seedUsers(tx, passwordCfg); err != nil {
			return fmt.Errorf("seeding users: %w", err)
		}
		promoID, err := seedPromotions(tx)
		if err != nil {
			return fmt.Errorf("seeding promotions: %w", err)
		}
		if err := seedProducts(tx, promoID); err != nil {
			return fmt.Errorf("seeding products: %w", err)
		}

		if logg != nil {
			logg.Info(ctx, "seed data loaded")
		}
		return nil
	})
}

func seedTiers(tx *gorm.DB) error {
	tiers := Tiers()
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "rank_name"}},
		DoNothing: true,
	}).Create(&tiers).Error
}

func seedUsers(tx *gorm.DB, passwordCfg config.PasswordConfig) error {
	demo := []struct {
		email    string
		username string
		name     string
		role     enums.UserRole
	}{
		{"manager@minimart.local", "manager", "Store Manager", enums.UserRoleManager},
		{"cashier@minimart.local", "cashier", "Front Cashier", enums.UserRoleCashier},
	}

	for _, entry := range demo {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", entry.username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		hash, err := security.HashPassword("changeme123", passwordCfg)
		if err != nil {
			return err
		}
		user := models.User{
			Email:        entry.email,
			Username:     entry.username,
			Name:         entry.name,
			PasswordHash: hash,
			Role:         entry.role,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedPromotions(tx *gorm.DB) (*models.Promotion, error) {
	var existing models.Promotion
	err := tx.Where("name = ?", "Opening Week 10% Off").First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	today := time.Now().Truncate(24 * time.Hour)
	promo := models.Promotion{
		Name:          "Opening Week 10% Off",
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: dec("10.00"),
		StartDate:     today,
		EndDate:       today.AddDate(0, 1, 0),
		IsActive:      true,
	}
	if err := tx.Create(&promo).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

func seedProducts(tx *gorm.DB, promo *models.Promotion) error {
	var count int64
	if err := tx.Model(&models.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	products := []models.Product{
		{Barcode: "8850001000011", Name: "Drinking Water 600ml", Brand: strPtr("Aqua"), Category: strPtr("Beverages"), CostPrice: dec("5.00"), SellingPrice: dec("7.00"), StockQuantity: 200, MinStock: 48},
		{Barcode: "8850001000028", Name: "Jasmine Rice 5kg", Brand: strPtr("Golden Field"), Category: strPtr("Groceries"), CostPrice: dec("135.00"), SellingPrice: dec("165.00"), StockQuantity: 40, MinStock: 10},
		{Barcode: "8850001000035", Name: "Instant Noodles Tom Yum", Brand: strPtr("QuickBowl"), Category: strPtr("Groceries"), CostPrice: dec("4.50"), SellingPrice: dec("6.00"), StockQuantity: 300, MinStock: 60},
		{Barcode: "8850001000042", Name: "Fresh Milk 1L", Brand: strPtr("Morning Farm"), Category: strPtr("Dairy"), CostPrice: dec("38.00"), SellingPrice: dec("48.00"), StockQuantity: 60, MinStock: 15},
		{Barcode: "8850001000059", Name: "Dish Soap 500ml", Brand: strPtr("Sparkle"), Category: strPtr("Household"), CostPrice: dec("22.00"), SellingPrice: dec("32.00"), StockQuantity: 80, MinStock: 12},
	}
	if promo != nil {
		products[0].PromotionID = &promo.ID
	}
	return tx.Create(&products).Error
}
