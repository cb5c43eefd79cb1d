package promotions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/napatsakorn/minimart-backend/pkg/db/models"
)

// Repository wires together promotion persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads a promotion by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	var promo models.Promotion
	if err := r.db.WithContext(ctx).First(&promo, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

// List returns promotions, optionally restricted to ones active on the
// given date.
func (r *Repository) List(ctx context.Context, activeOn *time.Time) ([]models.Promotion, error) {
	tx := r.db.WithContext(ctx).Model(&models.Promotion{})
	if activeOn != nil {
		// Compare on the calendar date, not the absolute instant.
		day := time.Date(activeOn.Year(), activeOn.Month(), activeOn.Day(), 0, 0, 0, 0, time.UTC)
		tx = tx.Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, day, day)
	}
	var promos []models.Promotion
	if err := tx.Order("start_date DESC").Find(&promos).Error; err != nil {
		return nil, err
	}
	return promos, nil
}

// Create inserts a new promotion row.
func (r *Repository) Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	if err := r.db.WithContext(ctx).Create(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

// Update persists the full promotion row.
func (r *Repository) Update(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	if err := r.db.WithContext(ctx).Save(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

// Delete removes a promotion row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Promotion{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UnlinkProducts clears the promotion reference from every product that
// points at the given promotion.
func (r *Repository) UnlinkProducts(ctx context.Context, promotionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("promotion_id = ?", promotionID).
		UpdateColumn("promotion_id", nil).Error
}
