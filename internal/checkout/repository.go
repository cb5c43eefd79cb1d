package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/napatsakorn/minimart-backend/pkg/db/models"
)

// Repository is the transaction log: an append-only store of completed
// receipts and their line items.
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

// Append durably writes one receipt and all its line items. Rows are
// never updated afterwards.
func (r *Repository) Append(ctx context.Context, record *models.Transaction) (*models.Transaction, error) {
	tx := r.db.WithContext(ctx)
	items := record.Items
	record.Items = nil
	if err := tx.Create(record).Error; err != nil {
		return nil, err
	}
	for i := range items {
		items[i].TransactionID = record.ID
	}
	if len(items) > 0 {
		if err := tx.Create(&items).Error; err != nil {
			return nil, err
		}
	}
	record.Items = items
	return record, nil
}

// FindByID loads a receipt with its line items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var record models.Transaction
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ListFilter narrows transaction listings.
type ListFilter struct {
	MemberID *uuid.UUID
	From     *time.Time
	To       *time.Time
	Limit    int
}

// List returns receipts newest first, optionally filtered by member and
// date range.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Transaction, error) {
	tx := r.db.WithContext(ctx).Model(&models.Transaction{}).Preload("Items")
	if filter.MemberID != nil {
		tx = tx.Where("member_id = ?", *filter.MemberID)
	}
	if filter.From != nil {
		tx = tx.Where("transaction_date >= ?", *filter.From)
	}
	if filter.To != nil {
		tx = tx.Where("transaction_date <= ?", *filter.To)
	}
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}
	var records []models.Transaction
	if err := tx.Order("transaction_date DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
