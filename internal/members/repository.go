package members

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/napatsakorn/minimart-backend/pkg/db/models"
)

// Repository wires together member and tier persistence helpers.
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

// FindByID loads a member by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindByPhone loads a member by their unique phone number.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, "phone = ?", phone).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// Search lists members matching a free-text query against name and phone.
func (r *Repository) Search(ctx context.Context, query string) ([]models.Member, error) {
	tx := r.db.WithContext(ctx).Model(&models.Member{})
	if q := strings.TrimSpace(query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR phone LIKE ?", like, like)
	}
	var result []models.Member
	if err := tx.Order("name ASC").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// Create inserts a new member row.
func (r *Repository) Create(ctx context.Context, member *models.Member) (*models.Member, error) {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

// Update persists the full member row.
func (r *Repository) Update(ctx context.Context, member *models.Member) (*models.Member, error) {
	if err := r.db.WithContext(ctx).Save(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

// Delete removes a member row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Member{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AccrualUpdate describes the loyalty deltas applied by one checkout.
type AccrualUpdate struct {
	PointsDelta int
	SpendDelta  decimal.Decimal
}

// ApplyAccrual increments a member's points and lifetime spend in place.
// The relative update takes the row lock, so a re-read in the same
// transaction observes every competing accrual committed before ours.
func (r *Repository) ApplyAccrual(ctx context.Context, memberID uuid.UUID, update AccrualUpdate) error {
	res := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", memberID).
		UpdateColumns(map[string]any{
			"points_balance": gorm.Expr("points_balance + ?", update.PointsDelta),
			"total_spent":    gorm.Expr("total_spent + ?", update.SpendDelta),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PromoteTier moves a member to a new rank. Rank and cached discount
// rate always move together.
func (r *Repository) PromoteTier(ctx context.Context, memberID uuid.UUID, rank string, rate decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", memberID).
		UpdateColumns(map[string]any{
			"membership_rank": rank,
			"discount_rate":   rate,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListTiers returns the loyalty ladder ordered by ascending floor.
func (r *Repository) ListTiers(ctx context.Context) ([]models.MembershipTier, error) {
	var tiers []models.MembershipTier
	if err := r.db.WithContext(ctx).Order("min_spent ASC").Find(&tiers).Error; err != nil {
		return nil, err
	}
	return tiers, nil
}

// RollingSpend sums a member's transaction totals within the trailing
// window ending at asOf.
func (r *Repository) RollingSpend(ctx context.Context, memberID uuid.UUID, since, asOf time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("SUM(total_amount)").
		Where("member_id = ? AND transaction_date >= ? AND transaction_date <= ?", memberID, since, asOf).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// CountTransactions returns how many receipts reference the member in
// the trailing window.
func (r *Repository) CountTransactions(ctx context.Context, memberID uuid.UUID, since, asOf time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("member_id = ? AND transaction_date >= ? AND transaction_date <= ?", memberID, since, asOf).
		Count(&count).Error
	return count, err
}
