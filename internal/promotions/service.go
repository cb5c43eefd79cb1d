package promotions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/napatsakorn/minimart-backend/pkg/db"
	"github.com/napatsakorn/minimart-backend/pkg/db/models"
	"github.com/napatsakorn/minimart-backend/pkg/enums"
	pkgerrors "github.com/napatsakorn/minimart-backend/pkg/errors"
)

var maxPercent = decimal.NewFromInt(100)

// Service exposes promotion management operations.
type Service interface {
	CreatePromotion(ctx context.Context, input CreatePromotionInput) (*models.Promotion, error)
	GetPromotion(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	ListPromotions(ctx context.Context, activeOnly bool) ([]models.Promotion, error)
	UpdatePromotion(ctx context.Context, id uuid.UUID, patch UpdatePromotionInput) (*models.Promotion, error)
	DeletePromotion(ctx context.Context, id uuid.UUID) error
}

// CreatePromotionInput holds the validated payload to create a promotion.
type CreatePromotionInput struct {
	Name          string
	DiscountType  enums.DiscountType
	DiscountValue decimal.Decimal
	StartDate     time.Time
	EndDate       time.Time
	IsActive      bool
}

// UpdatePromotionInput enumerates the fields a promotion update may
// change. Nil fields are left untouched.
type UpdatePromotionInput struct {
	Name          *string
	DiscountType  *enums.DiscountType
	DiscountValue *decimal.Decimal
	StartDate     *time.Time
	EndDate       *time.Time
	IsActive      *bool
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs a promotion service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotion repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) CreatePromotion(ctx context.Context, input CreatePromotionInput) (*models.Promotion, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := validateDiscount(input.DiscountType, input.DiscountValue); err != nil {
		return nil, err
	}
	if err := validateWindow(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	promo := &models.Promotion{
		Name:          name,
		DiscountType:  input.DiscountType,
		DiscountValue: input.DiscountValue,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		IsActive:      input.IsActive,
	}
	created, err := s.repo.Create(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert promotion")
	}
	return created, nil
}

func (s *service) GetPromotion(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load promotion")
	}
	return promo, nil
}

func (s *service) ListPromotions(ctx context.Context, activeOnly bool) ([]models.Promotion, error) {
	var activeOn *time.Time
	if activeOnly {
		now := time.Now()
		activeOn = &now
	}
	promos, err := s.repo.List(ctx, activeOn)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list promotions")
	}
	return promos, nil
}

func (s *service) UpdatePromotion(ctx context.Context, id uuid.UUID, patch UpdatePromotionInput) (*models.Promotion, error) {
	promo, err := s.GetPromotion(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		promo.Name = name
	}
	if patch.DiscountType != nil {
		promo.DiscountType = *patch.DiscountType
	}
	if patch.DiscountValue != nil {
		promo.DiscountValue = *patch.DiscountValue
	}
	if err := validateDiscount(promo.DiscountType, promo.DiscountValue); err != nil {
		return nil, err
	}
	if patch.StartDate != nil {
		promo.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		promo.EndDate = *patch.EndDate
	}
	if err := validateWindow(promo.StartDate, promo.EndDate); err != nil {
		return nil, err
	}
	if patch.IsActive != nil {
		promo.IsActive = *patch.IsActive
	}

	updated, err := s.repo.Update(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update promotion")
	}
	return updated, nil
}

// DeletePromotion removes a promotion and unlinks it from any products
// in one transaction, so no product ever references a missing promotion.
func (s *service) DeletePromotion(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetPromotion(ctx, id); err != nil {
		return err
	}
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.UnlinkProducts(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: unlink products")
		}
		if err := txRepo.Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete promotion")
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete promotion")
	}
	return nil
}

func validateDiscount(kind enums.DiscountType, value decimal.Decimal) error {
	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount_type must be PERCENTAGE or FIXED")
	}
	if !value.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount_value must be positive")
	}
	if kind == enums.DiscountTypePercentage && value.GreaterThan(maxPercent) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	return nil
}

func validateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start_date and end_date are required")
	}
	if end.Before(start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end_date cannot precede start_date")
	}
	return nil
}
