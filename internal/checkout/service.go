// Package checkout implements the register-side transaction engine. A
// checkout prices the cart, applies promotion and membership discounts,
// appends the receipt, decrements stock, and accrues member loyalty as
// one atomic unit.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/napatsakorn/minimart-backend/internal/loyalty"
	"github.com/napatsakorn/minimart-backend/internal/members"
	"github.com/napatsakorn/minimart-backend/internal/pricing"
	"github.com/napatsakorn/minimart-backend/pkg/db/models"
	"github.com/napatsakorn/minimart-backend/pkg/enums"
	pkgerrors "github.com/napatsakorn/minimart-backend/pkg/errors"
	"github.com/napatsakorn/minimart-backend/pkg/logger"
	"github.com/napatsakorn/minimart-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, input CheckoutInput) (*models.Transaction, error)
}

// CartItemInput is one product/quantity pair scanned at the register.
type CartItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CheckoutInput captures everything one checkout needs.
type CheckoutInput struct {
	Items         []CartItemInput
	PaymentMethod string
	EmployeeID    uuid.UUID
	// MemberRef is an optional member id or phone number.
	MemberRef *string
}

type service struct {
	tx         txRunner
	products   CatalogStore
	promos     PromotionStore
	membership MembershipStore
	log        TransactionLog
	logg       *logger.Logger
	metrics    *metrics.CheckoutMetrics
	now        func() time.Time
}

// NewService builds the checkout service. metrics may be nil.
func NewService(
	tx txRunner,
	products CatalogStore,
	promos PromotionStore,
	membership MembershipStore,
	log TransactionLog,
	logg *logger.Logger,
	checkoutMetrics *metrics.CheckoutMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog store required")
	}
	if promos == nil {
		return nil, fmt.Errorf("promotion store required")
	}
	if membership == nil {
		return nil, fmt.Errorf("membership store required")
	}
	if log == nil {
		return nil, fmt.Errorf("transaction log required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:         tx,
		products:   products,
		promos:     promos,
		membership: membership,
		log:        log,
		logg:       logg,
		metrics:    checkoutMetrics,
		now:        time.Now,
	}, nil
}

func (s *service) Execute(ctx context.Context, input CheckoutInput) (*models.Transaction, error) {
	started := s.now()
	receipt, err := s.execute(ctx, input)
	if err != nil {
		code := string(pkgerrors.CodeInternal)
		if typed := pkgerrors.As(err); typed != nil {
			code = string(typed.Code())
		}
		s.metrics.IncFailure(code)
		return nil, err
	}
	s.metrics.IncSuccess()
	s.metrics.ObserveDuration(receipt.PaymentMethod.String(), s.now().Sub(started))
	return receipt, nil
}

func (s *service) execute(ctx context.Context, input CheckoutInput) (*models.Transaction, error) {
	lines, err := normalizeCart(input.Items)
	if err != nil {
		return nil, err
	}
	payment, parseErr := enums.ParsePaymentMethod(input.PaymentMethod)
	if parseErr != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method must be Cash, Card, or QR Code")
	}
	if input.EmployeeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id required")
	}

	var receipt *models.Transaction
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		promos := s.promos.WithTx(tx)
		membership := s.membership.WithTx(tx)
		log := s.log.WithTx(tx)

		member, err := s.resolveMember(ctx, membership, input.MemberRef)
		if err != nil {
			return err
		}

		asOf := s.now()
		subtotal := decimal.Zero
		productDiscount := decimal.Zero
		items := make([]models.TransactionItem, 0, len(lines))

		for _, line := range lines {
			product, err := products.FindByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
						WithDetails(map[string]any{"product_id": line.ProductID})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
			}
			if product.StockQuantity < line.Quantity {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
					WithDetails(map[string]any{
						"product_id":   product.ID,
						"product_name": product.Name,
						"requested":    line.Quantity,
						"available":    product.StockQuantity,
					})
			}

			promo, err := s.loadPromotion(ctx, promos, product)
			if err != nil {
				return err
			}

			unitPrice := product.SellingPrice
			discount := pricing.LineDiscount(unitPrice, line.Quantity, promo, asOf)
			lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Sub(discount)

			subtotal = subtotal.Add(lineTotal)
			productDiscount = productDiscount.Add(discount)
			items = append(items, models.TransactionItem{
				ProductID:      product.ID,
				Quantity:       line.Quantity,
				UnitPrice:      unitPrice,
				DiscountAmount: discount,
				LineTotal:      lineTotal,
			})
		}

		memberDiscount := decimal.Zero
		var memberID *uuid.UUID
		if member != nil {
			memberDiscount = pricing.MembershipDiscount(subtotal, member.DiscountRate)
			memberID = &member.ID
		}
		totalAmount := subtotal.Sub(memberDiscount)

		record := &models.Transaction{
			TransactionDate:    asOf,
			EmployeeID:         input.EmployeeID,
			MemberID:           memberID,
			Subtotal:           subtotal,
			ProductDiscount:    productDiscount,
			MembershipDiscount: memberDiscount,
			TotalAmount:        totalAmount,
			PaymentMethod:      payment,
			Items:              items,
		}
		persisted, err := log.Append(ctx, record)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: append transaction")
		}

		for _, line := range lines {
			ok, err := products.DecrementStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: decrement stock")
			}
			if !ok {
				// The availability check passed, so a concurrent
				// checkout drained the stock in between.
				return pkgerrors.New(pkgerrors.CodeConflict, "stock changed during checkout").
					WithDetails(map[string]any{"product_id": line.ProductID})
			}
		}

		if member != nil {
			if err := s.accrueLoyalty(ctx, membership, member, totalAmount); err != nil {
				return err
			}
		}

		receipt = persisted
		return nil
	})
	if txErr != nil {
		if pkgerrors.As(txErr) != nil {
			return nil, txErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "checkout transaction")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"transactionId": receipt.ID.String(),
		"totalAmount":   receipt.TotalAmount.StringFixed(2),
		"lineCount":     len(receipt.Items),
	})
	s.logg.Info(logCtx, "checkout completed")
	return receipt, nil
}

// normalizeCart validates quantities and merges duplicate product lines,
// since a receipt carries one row per distinct product.
func normalizeCart(items []CartItemInput) ([]CartItemInput, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}
	index := make(map[uuid.UUID]int, len(items))
	merged := make([]CartItemInput, 0, len(items))
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item product id required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item quantity must be positive")
		}
		if at, seen := index[item.ProductID]; seen {
			merged[at].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func (s *service) resolveMember(ctx context.Context, store MembershipStore, ref *string) (*models.Member, error) {
	if ref == nil || *ref == "" {
		return nil, nil
	}
	var (
		member *models.Member
		err    error
	)
	if id, parseErr := uuid.Parse(*ref); parseErr == nil {
		member, err = store.FindByID(ctx, id)
	} else {
		member, err = store.FindByPhone(ctx, *ref)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load member")
	}
	return member, nil
}

func (s *service) loadPromotion(ctx context.Context, store PromotionStore, product *models.Product) (*models.Promotion, error) {
	if product.PromotionID == nil {
		return nil, nil
	}
	promo, err := store.FindByID(ctx, *product.PromotionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found").
				WithDetails(map[string]any{"product_id": product.ID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load promotion")
	}
	return promo, nil
}

// accrueLoyalty adds points and lifetime spend, advancing the member's
// rank when the new lifetime total clears a higher tier floor. The tier
// decision is derived from the post-increment row, not the total read at
// member resolution: the relative update holds the row lock, so the
// re-read already includes any accrual a concurrent checkout committed
// in between and the rank cannot lag behind the lifetime spend.
func (s *service) accrueLoyalty(ctx context.Context, store MembershipStore, member *models.Member, totalAmount decimal.Decimal) error {
	update := members.AccrualUpdate{
		PointsDelta: pricing.Points(totalAmount),
		SpendDelta:  totalAmount,
	}
	if err := store.ApplyAccrual(ctx, member.ID, update); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: apply accrual")
	}

	accrued, err := store.FindByID(ctx, member.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload member")
	}
	tiers, err := store.ListTiers(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load tiers")
	}
	if tier, advanced := loyalty.Advance(tiers, accrued.MembershipRank, accrued.TotalSpent); advanced {
		if err := store.PromoteTier(ctx, member.ID, tier.RankName, tier.DiscountRate); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: promote tier")
		}
	}
	return nil
}
