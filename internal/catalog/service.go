package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/napatsakorn/minimart-backend/pkg/db"
	"github.com/napatsakorn/minimart-backend/pkg/db/models"
	pkgerrors "github.com/napatsakorn/minimart-backend/pkg/errors"
)

// Service exposes product catalog management operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	ListProducts(ctx context.Context, query, category string) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, patch UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	RestockProduct(ctx context.Context, id uuid.UUID, qty int) (*models.Product, error)
	ListLowStock(ctx context.Context) ([]models.Product, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Barcode       string
	Name          string
	Brand         *string
	Category      *string
	CostPrice     decimal.Decimal
	SellingPrice  decimal.Decimal
	StockQuantity int
	MinStock      int
	PromotionID   *uuid.UUID
}

// UpdateProductInput enumerates the fields a product update may change.
// Nil fields are left untouched.
type UpdateProductInput struct {
	Barcode       *string
	Name          *string
	Brand         *string
	Category      *string
	CostPrice     *decimal.Decimal
	SellingPrice  *decimal.Decimal
	StockQuantity *int
	MinStock      *int
	PromotionID   *uuid.UUID
	ClearPromo    bool
}

type promotionReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
}

type service struct {
	repo      *Repository
	dbClient  *db.Client
	promoRepo promotionReader
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, dbClient *db.Client, promoRepo promotionReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if promoRepo == nil {
		return nil, fmt.Errorf("promotion repository required")
	}
	return &service{repo: repo, dbClient: dbClient, promoRepo: promoRepo}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	barcode := strings.TrimSpace(input.Barcode)
	name := strings.TrimSpace(input.Name)
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := validatePrices(input.CostPrice, input.SellingPrice); err != nil {
		return nil, err
	}
	if input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock_quantity cannot be negative")
	}
	if input.MinStock <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_stock must be positive")
	}
	if err := s.ensurePromotion(ctx, input.PromotionID); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByBarcode(ctx, barcode); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "barcode already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup barcode")
	}

	product := &models.Product{
		Barcode:       barcode,
		Name:          name,
		Brand:         input.Brand,
		Category:      input.Category,
		CostPrice:     input.CostPrice,
		SellingPrice:  input.SellingPrice,
		StockQuantity: input.StockQuantity,
		MinStock:      input.MinStock,
		PromotionID:   input.PromotionID,
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return created, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return product, nil
}

func (s *service) GetProductByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	product, err := s.repo.FindByBarcode(ctx, strings.TrimSpace(barcode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product by barcode")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, query, category string) ([]models.Product, error) {
	products, err := s.repo.Search(ctx, query, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: search products")
	}
	return products, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, patch UpdateProductInput) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Barcode != nil {
		barcode := strings.TrimSpace(*patch.Barcode)
		if barcode == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode cannot be blank")
		}
		if barcode != product.Barcode {
			if _, err := s.repo.FindByBarcode(ctx, barcode); err == nil {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "barcode already registered")
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup barcode")
			}
		}
		product.Barcode = barcode
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		product.Name = name
	}
	if patch.Brand != nil {
		product.Brand = patch.Brand
	}
	if patch.Category != nil {
		product.Category = patch.Category
	}
	if patch.CostPrice != nil {
		product.CostPrice = *patch.CostPrice
	}
	if patch.SellingPrice != nil {
		product.SellingPrice = *patch.SellingPrice
	}
	if err := validatePrices(product.CostPrice, product.SellingPrice); err != nil {
		return nil, err
	}
	if patch.StockQuantity != nil {
		if *patch.StockQuantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock_quantity cannot be negative")
		}
		product.StockQuantity = *patch.StockQuantity
	}
	if patch.MinStock != nil {
		if *patch.MinStock <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_stock must be positive")
		}
		product.MinStock = *patch.MinStock
	}
	switch {
	case patch.ClearPromo:
		product.PromotionID = nil
	case patch.PromotionID != nil:
		if err := s.ensurePromotion(ctx, patch.PromotionID); err != nil {
			return nil, err
		}
		product.PromotionID = patch.PromotionID
	}

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return updated, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	return nil
}

func (s *service) RestockProduct(ctx context.Context, id uuid.UUID, qty int) (*models.Product, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restock quantity must be positive")
	}
	if err := s.repo.RestockProduct(ctx, id, qty); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: restock product")
	}
	return s.GetProduct(ctx, id)
}

func (s *service) ListLowStock(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list low stock")
	}
	return products, nil
}

func (s *service) ensurePromotion(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.promoRepo.FindByID(ctx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load promotion")
	}
	return nil
}

func validatePrices(cost, selling decimal.Decimal) error {
	if cost.IsNegative() || selling.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "prices cannot be negative")
	}
	if selling.LessThan(cost) {
		return pkgerrors.New(pkgerrors.CodeValidation, "selling_price cannot be below cost_price")
	}
	return nil
}
