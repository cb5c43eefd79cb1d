package checkout

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/napatsakorn/minimart-backend/internal/catalog"
	"github.com/napatsakorn/minimart-backend/internal/members"
	"github.com/napatsakorn/minimart-backend/internal/promotions"
	"github.com/napatsakorn/minimart-backend/pkg/db/models"
)

// The engine consumes its collaborators through these narrow store
// interfaces so tests can substitute fakes for any of them.

// CatalogStore provides product lookups and the guarded stock decrement.
type CatalogStore interface {
	WithTx(tx *gorm.DB) CatalogStore
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
}

// PromotionStore provides point promotion lookups.
type PromotionStore interface {
	WithTx(tx *gorm.DB) PromotionStore
	FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
}

// MembershipStore provides member resolution and the atomic loyalty accrual.
type MembershipStore interface {
	WithTx(tx *gorm.DB) MembershipStore
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	FindByPhone(ctx context.Context, phone string) (*models.Member, error)
	ListTiers(ctx context.Context) ([]models.MembershipTier, error)
	ApplyAccrual(ctx context.Context, memberID uuid.UUID, update members.AccrualUpdate) error
	PromoteTier(ctx context.Context, memberID uuid.UUID, rank string, rate decimal.Decimal) error
}

// TransactionLog is the append-only receipt store.
type TransactionLog interface {
	WithTx(tx *gorm.DB) TransactionLog
	Append(ctx context.Context, record *models.Transaction) (*models.Transaction, error)
}

type catalogStore struct {
	*catalog.Repository
}

// NewCatalogStore adapts the catalog repository to the engine's boundary.
func NewCatalogStore(repo *catalog.Repository) CatalogStore {
	return catalogStore{Repository: repo}
}

func (s catalogStore) WithTx(tx *gorm.DB) CatalogStore {
	return catalogStore{Repository: s.Repository.WithTx(tx)}
}

type promotionStore struct {
	*promotions.Repository
}

// NewPromotionStore adapts the promotion repository to the engine's boundary.
func NewPromotionStore(repo *promotions.Repository) PromotionStore {
	return promotionStore{Repository: repo}
}

func (s promotionStore) WithTx(tx *gorm.DB) PromotionStore {
	return promotionStore{Repository: s.Repository.WithTx(tx)}
}

type membershipStore struct {
	*members.Repository
}

// NewMembershipStore adapts the member repository to the engine's boundary.
func NewMembershipStore(repo *members.Repository) MembershipStore {
	return membershipStore{Repository: repo}
}

func (s membershipStore) WithTx(tx *gorm.DB) MembershipStore {
	return membershipStore{Repository: s.Repository.WithTx(tx)}
}

type transactionLog struct {
	*Repository
}

// NewTransactionLog adapts the receipt repository to the engine's boundary.
func NewTransactionLog(repo *Repository) TransactionLog {
	return transactionLog{Repository: repo}
}

func (l transactionLog) WithTx(tx *gorm.DB) TransactionLog {
	return transactionLog{Repository: l.Repository.WithTx(tx)}
}
