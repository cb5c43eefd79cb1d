package checkout

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/napatsakorn/minimart-backend/internal/catalog"
	"github.com/napatsakorn/minimart-backend/internal/members"
	"github.com/napatsakorn/minimart-backend/internal/promotions"
	"github.com/napatsakorn/minimart-backend/internal/testutil"
	"github.com/napatsakorn/minimart-backend/pkg/db"
	"github.com/napatsakorn/minimart-backend/pkg/db/models"
	"github.com/napatsakorn/minimart-backend/pkg/enums"
	pkgerrors "github.com/napatsakorn/minimart-backend/pkg/errors"
	"github.com/napatsakorn/minimart-backend/pkg/logger"
)

type engineHarness struct {
	svc  Service
	conn *gorm.DB
}

type engineOptions struct {
	wrapCatalog    func(CatalogStore) CatalogStore
	wrapMembership func(MembershipStore) MembershipStore
}

func newEngine(t *testing.T, wrapCatalog func(CatalogStore) CatalogStore) *engineHarness {
	return newEngineWith(t, engineOptions{wrapCatalog: wrapCatalog})
}

func newEngineWith(t *testing.T, opts engineOptions) *engineHarness {
	t.Helper()
	conn := testutil.OpenDB(t)
	testutil.SeedTiers(t, conn)

	catalogStore := NewCatalogStore(catalog.NewRepository(conn))
	if opts.wrapCatalog != nil {
		catalogStore = opts.wrapCatalog(catalogStore)
	}
	membershipStore := NewMembershipStore(members.NewRepository(conn))
	if opts.wrapMembership != nil {
		membershipStore = opts.wrapMembership(membershipStore)
	}

	logg := logger.New(logger.Options{ServiceName: "checkout-test", Output: io.Discard})
	svc, err := NewService(
		db.NewWithConn(conn),
		catalogStore,
		NewPromotionStore(promotions.NewRepository(conn)),
		membershipStore,
		NewTransactionLog(NewRepository(conn)),
		logg,
		nil,
	)
	require.NoError(t, err)
	return &engineHarness{svc: svc, conn: conn}
}

func (h *engineHarness) employee(t *testing.T) uuid.UUID {
	t.Helper()
	return testutil.MustCreateUser(t, h.conn, enums.UserRoleCashier).ID
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.Model(model).Count(&count).Error)
	return count
}

func TestCheckoutPercentagePromotion(t *testing.T) {
	h := newEngine(t, nil)
	ctx := context.Background()

	promo := testutil.MustCreatePromotion(t, h.conn, enums.DiscountTypePercentage, "20")
	product := testutil.MustCreateProduct(t, h.conn, func(p *models.Product) {
		p.SellingPrice = testutil.Dec(t, "100.00")
		p.StockQuantity = 10
		p.PromotionID = &promo.ID
	})

	receipt, err := h.svc.Execute(ctx, CheckoutInput{
		Items:         []CartItemInput{{ProductID: product.ID, Quantity: 2}},
		PaymentMethod: "Cash",
		EmployeeID:    h.employee(t),
	})
	require.NoError(t, err)

	assert.True(t, receipt.ProductDiscount.Equal(testutil.Dec(t, "40.00")))
	assert.True(t, receipt.Subtotal.Equal(testutil.Dec(t, "160.00")))
	assert.True(t, receipt.MembershipDiscount.IsZero())
	assert.True(t, receipt.TotalAmount.Equal(testutil.Dec(t, "160.00")))
	require.Len(t, receipt.Items, 1)
	assert.True(t, receipt.Items[0].UnitPrice.Equal(testutil.Dec(t, "100.00")))
	assert.True(t, receipt.Items[0].LineTotal.Equal(testutil.Dec(t, "160.00")))

	reloaded, err := catalog.NewRepository(h.conn).FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, reloaded.StockQuantity)
}

func TestCheckoutFixedPromotionIsPerUnit(t *testing.T) {
	h := newEngine(t, nil)
	ctx := context.Background()

	promo := testutil.MustCreatePromotion(t, h.conn, enums.DiscountTypeFixed, "5.00")
	product := testutil.MustCreateProduct(t, h.conn, func(p *models.Product) {
		p.SellingPrice = testutil.Dec(t, "50.00")
		p.StockQuantity = 10
		p.PromotionID = &promo.ID
	})

	receipt, err := h.svc.Execute(ctx, CheckoutInput{
		Items:         []CartItemInput{{ProductID: product.ID, Quantity: 3}},
		PaymentMethod: "Card",
		EmployeeID:    h.employee(t),
	})
	require.NoError(t, err)

	assert.True(t, receipt.ProductDiscount.Equal(testutil.Dec(t, "15.00")))
	assert.True(t, receipt.Subtotal.Equal(testutil.Dec(t, "135.00")))
}

func TestCheckoutMembershipDiscount(t *testing.T) {
	h := newEngine(t, nil)
	ctx := context.Background()

	product := testutil.MustCreateProduct(t, h.conn, func(p *models.Product) {
		p.SellingPrice = testutil.Dec(t, "750.00")
		p.StockQuantity = 10
	})
	member := testutil.MustCreateMember(t, h.conn, nil)
	ref := member.Phone

	receipt, err := h.svc.Execute(ctx, CheckoutInput{
		Items:         []CartItemInput{{ProductID: product.ID, Quantity: 2}},
		PaymentMethod: "QR Code",
		EmployeeID:    h.employee(t),
		MemberRef:     &ref,
	})
	require.NoError(t, err)

	// 1500.00 at the Bronze 3% rate.
	assert.True(t, receipt.Subtotal.Equal(testutil.Dec(t, "1500.00")))
	assert.True(t, receipt.MembershipDiscount.Equal(testutil.Dec(t, "45.00")))
	assert.True(t, receipt.TotalAmount.Equal(testutil.Dec(t, "1455.00")))
	require.NotNil(t, receipt.MemberID)
	assert.Equal(t, member.ID, *receipt.MemberID)

	reloaded, err := members.NewRepository(h.conn).FindByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 1455, reloaded.PointsBalance)
	assert.True(t, reloaded.TotalSpent.Equal(testutil.Dec(t, "1455.00")))
}

func TestCheckoutValidation(t *testing.T) {
	h := newEngine(t, nil)
	ctx := context.Background()
	employee := h.employee(t)
	product := testutil.MustCreateProduct(t, h.conn, nil)

	tests := []struct {
		name  string
		input CheckoutInput
	}{
		{"empty cart", CheckoutInput{PaymentMethod: "Cash", EmployeeID: employee}},
		{"zero quantity", CheckoutInput{
			Items:         []CartItemInput{{ProductID: product.ID, Quantity: 0}},
			PaymentMethod: "Cash",
			EmployeeID:    employee,
		}},
		{"bad payment method", CheckoutInput{
			Items:         []CartItemInput{{ProductID: product.ID, Quantity: 1}},
			PaymentMethod: "Cheque",
			EmployeeID:    employee,
		}},
		{"missing employee", CheckoutInput{
			Items:         []CartItemInput{{ProductID: product.ID, Quantity: 1}},
			PaymentMethod: "Cash",
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.Execute(ctx, tc.input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
	assert.Equal(t, int64(0), countRows(t, h.conn, &models.Transaction{}))
}

func TestCheckoutUnknownProduct(t *testing.T) {
	h := newEngine(t, nil)

	_, err := h.svc.Execute(context.Background(), CheckoutInput{
		Items:         []CartItemInput{{ProductID: uuid.New(), Quantity: 1}},
		PaymentMethod: "Cash",
		EmployeeID:    h.employee(t),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestCheckoutUnknownMember(t *testing.T) {
	h := newEngine(t, nil)
	product := testutil.MustCreateProduct(t, h.conn, nil)
	ref := "0809999999"

	_, err := h.svc.Execute(context.Background(), CheckoutInput{
		Items:         []CartItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: "Cash",
		EmployeeID:    h.employee(t),
		MemberRef:     &ref,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Equal(t, int64(0), countRows(t, h.conn, &models.Transaction{}))
}

func TestCheckoutInsufficientStock(t *testing.T) {
	h := newEngine(t, nil)
	ctx := context.Background()

	product := testutil.MustCreateProduct(t, h.conn, func(p *models.Product) {
		p.StockQuantity = 5
	})

	_, err := h.svc.Execute(ctx, CheckoutInput{
		Items:         []CartItemInput{{ProductID: product.ID, Quantity: 10}},
		PaymentMethod: "Cash",
		EmployeeID:    h.employee(t),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, product.Name, details["product_name"])
	assert.Equal(t, 10, details["requested"])
	assert.Equal(t, 5, details["available"])

	// No writes happened.
	assert.Equal(t, int64(0), countRows(t, h.conn, &models.Transaction{}))
	assert.Equal(t, int64(0), countRows(t, h.conn, &models.TransactionItem{}))
	reloaded, err := catalog.NewRepository(h.conn).FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.StockQuantity)
}

// racingCatalog drains stock through the same transaction right before
// the engine's guarded decrement runs, reproducing a concurrent checkout
// winning the race after this one's availability check passed.
type racingCatalog struct {
	CatalogStore
	drainQty int
}

func (r *racingCatalog) WithTx(tx *gorm.DB) CatalogStore {
	return &racingCatalog{CatalogStore: r.CatalogStore.WithTx(tx), drainQty: r.drainQty}
}

func (r *racingCatalog) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	if r.drainQty > 0 {
		if _, err := r.CatalogStore.DecrementStock(ctx, id, r.drainQty); err != nil {
			return false, err
		}
		r.drainQty = 0
	}
	return r.CatalogStore.DecrementStock(ctx, id, qty)
}

func TestCheckoutStockConflictRollsBackEverything(t *testing.T) {
	h := newEngine(t, func(store CatalogStore) CatalogStore {
		return &racingCatalog{CatalogStore: store, drainQty: 3}
	})
	ctx := context.Background()

	product := testutil.MustCreateProduct(t, h.conn, func(p *models.Product) {
		p.StockQuantity = 5
	})
	member := testutil.MustCreateMember(t, h.conn, nil)
	ref := member.ID.String()

	_, err := h.svc.Execute(ctx, CheckoutInput{
		Items:         []CartItemInput{{ProductID: product.ID, Quantity: 3}},
		PaymentMethod: "Cash",
		EmployeeID:    h.employee(t),
		MemberRef:     &ref,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.True(t, pkgerrors.MetadataFor(typed.Code()).Retryable)

	// The receipt insert preceded the failed decrement; everything must
	// have rolled back, including the competitor's simulated drain.
	assert.Equal(t, int64(0), countRows(t, h.conn, &models.Transaction{}))
	assert.Equal(t, int64(0), countRows(t, h.conn, &models.TransactionItem{}))
	reloaded, err := catalog.NewRepository(h.conn).FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.StockQuantity)

	untouched, err := members.NewRepository(h.conn).FindByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, untouched.PointsBalance)
	assert.True(t, untouched.TotalSpent.IsZero())
}

func TestCheckoutStockNeverNegative(t *testing.T) {
	h := newEngine(t, nil)
	ctx := context.Background()
	employee := h.employee(t)

	product := testutil.MustCreateProduct(t, h.conn, func(p *models.Product) {
		p.StockQuantity = 5
	})

	buy := func(qty int) error {
		_, err := h.svc.Execute(ctx, CheckoutInput{
			Items:         []CartItemInput{{ProductID: product.ID, Quantity: qty}},
			PaymentMethod: "Cash",
			EmployeeID:    employee,
		})
		return err
	}

	require.NoError(t, buy(3))
	err := buy(3)
	require.Error(t, err, "second checkout must not overdraw the remaining 2 units")
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	reloaded, err2 := catalog.NewRepository(h.conn).FindByID(ctx, product.ID)
	require.NoError(t, err2)
	assert.Equal(t, 2, reloaded.StockQuantity)
	assert.GreaterOrEqual(t, reloaded.StockQuantity, 0)
}

func TestCheckoutTierAdvancement(t *testing.T) {
	h := newEngine(t, nil)
	ctx := context.Background()

	product := testutil.MustCreateProduct(t, h.conn, func(p *models.Product) {
		p.SellingPrice = testutil.Dec(t, "500.00")
		p.StockQuantity = 10
		p.CostPrice = testutil.Dec(t, "400.00")
	})
	member := testutil.MustCreateMember(t, h.conn, func(m *models.Member) {
		m.TotalSpent = testutil.Dec(t, "4999.99")
	})
	ref := member.ID.String()

	receipt, err := h.svc.Execute(ctx, CheckoutInput{
		Items:         []CartItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: "Cash",
		EmployeeID:    h.employee(t),
		MemberRef:     &ref,
	})
	require.NoError(t, err)

	// 500.00 minus the 3% Bronze discount crosses the Silver floor.
	assert.True(t, receipt.TotalAmount.Equal(testutil.Dec(t, "485.00")))

	reloaded, err := members.NewRepository(h.conn).FindByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, "Silver", reloaded.MembershipRank)
	assert.True(t, reloaded.DiscountRate.Equal(testutil.Dec(t, "5.00")),
		"cached rate must move with the rank")
	assert.True(t, reloaded.TotalSpent.Equal(testutil.Dec(t, "5484.99")))
}

// competingMembership lands a second accrual for the same member right
// before the engine's own, reproducing a concurrent checkout whose spend
// committed after this one resolved the member.
type competingMembership struct {
	MembershipStore
	spendDelta decimal.Decimal
}

func (c *competingMembership) WithTx(tx *gorm.DB) MembershipStore {
	return &competingMembership{MembershipStore: c.MembershipStore.WithTx(tx), spendDelta: c.spendDelta}
}

func (c *competingMembership) ApplyAccrual(ctx context.Context, memberID uuid.UUID, update members.AccrualUpdate) error {
	if !c.spendDelta.IsZero() {
		delta := c.spendDelta
		c.spendDelta = decimal.Zero
		if err := c.MembershipStore.ApplyAccrual(ctx, memberID, members.AccrualUpdate{SpendDelta: delta}); err != nil {
			return err
		}
	}
	return c.MembershipStore.ApplyAccrual(ctx, memberID, update)
}

func TestCheckoutTierAdvancementSurvivesConcurrentAccrual(t *testing.T) {
	h := newEngineWith(t, engineOptions{
		wrapMembership: func(store MembershipStore) MembershipStore {
			return &competingMembership{MembershipStore: store, spendDelta: testutil.Dec(t, "200.00")}
		},
	})
	ctx := context.Background()

	product := testutil.MustCreateProduct(t, h.conn, func(p *models.Product) {
		p.SellingPrice = testutil.Dec(t, "200.00")
		p.StockQuantity = 10
	})
	member := testutil.MustCreateMember(t, h.conn, func(m *models.Member) {
		m.TotalSpent = testutil.Dec(t, "4700.00")
	})
	ref := member.ID.String()

	receipt, err := h.svc.Execute(ctx, CheckoutInput{
		Items:         []CartItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: "Cash",
		EmployeeID:    h.employee(t),
		MemberRef:     &ref,
	})
	require.NoError(t, err)

	// 200.00 minus the 3% Bronze discount.
	assert.True(t, receipt.TotalAmount.Equal(testutil.Dec(t, "194.00")))

	// Neither checkout alone crosses the Silver floor; together they do.
	// The rank must reflect the combined lifetime spend, not the total
	// read before the competitor's accrual landed.
	reloaded, err := members.NewRepository(h.conn).FindByID(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.TotalSpent.Equal(testutil.Dec(t, "5094.00")))
	assert.Equal(t, "Silver", reloaded.MembershipRank)
	assert.True(t, reloaded.DiscountRate.Equal(testutil.Dec(t, "5.00")))
}

func TestCheckoutMergesDuplicateLines(t *testing.T) {
	h := newEngine(t, nil)
	ctx := context.Background()

	product := testutil.MustCreateProduct(t, h.conn, func(p *models.Product) {
		p.SellingPrice = testutil.Dec(t, "10.00")
		p.StockQuantity = 10
	})

	receipt, err := h.svc.Execute(ctx, CheckoutInput{
		Items: []CartItemInput{
			{ProductID: product.ID, Quantity: 2},
			{ProductID: product.ID, Quantity: 3},
		},
		PaymentMethod: "Cash",
		EmployeeID:    h.employee(t),
	})
	require.NoError(t, err)

	require.Len(t, receipt.Items, 1)
	assert.Equal(t, 5, receipt.Items[0].Quantity)
	assert.True(t, receipt.Subtotal.Equal(testutil.Dec(t, "50.00")))
}

func TestCheckoutMultiLineTotalsReconcile(t *testing.T) {
	h := newEngine(t, nil)
	ctx := context.Background()

	promo := testutil.MustCreatePromotion(t, h.conn, enums.DiscountTypePercentage, "10")
	discounted := testutil.MustCreateProduct(t, h.conn, func(p *models.Product) {
		p.SellingPrice = testutil.Dec(t, "33.33")
		p.StockQuantity = 10
		p.PromotionID = &promo.ID
		p.CostPrice = testutil.Dec(t, "20.00")
	})
	plain := testutil.MustCreateProduct(t, h.conn, func(p *models.Product) {
		p.SellingPrice = testutil.Dec(t, "7.25")
		p.StockQuantity = 10
		p.CostPrice = testutil.Dec(t, "5.00")
	})
	member := testutil.MustCreateMember(t, h.conn, nil)
	ref := member.Phone

	receipt, err := h.svc.Execute(ctx, CheckoutInput{
		Items: []CartItemInput{
			{ProductID: discounted.ID, Quantity: 3},
			{ProductID: plain.ID, Quantity: 2},
		},
		PaymentMethod: "Card",
		EmployeeID:    h.employee(t),
		MemberRef:     &ref,
	})
	require.NoError(t, err)

	assert.True(t, receipt.TotalAmount.Equal(receipt.Subtotal.Sub(receipt.MembershipDiscount)),
		"total must reconcile: %s != %s - %s", receipt.TotalAmount, receipt.Subtotal, receipt.MembershipDiscount)
	assert.False(t, receipt.TotalAmount.IsNegative())

	lineSum := testutil.Dec(t, "0")
	for _, item := range receipt.Items {
		expected := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Sub(item.DiscountAmount)
		assert.True(t, item.LineTotal.Equal(expected), "line total mismatch for %s", item.ProductID)
		assert.False(t, item.LineTotal.IsNegative())
		lineSum = lineSum.Add(item.LineTotal)
	}
	assert.True(t, receipt.Subtotal.Equal(lineSum))
}

func TestCheckoutExpiredPromotionIgnored(t *testing.T) {
	h := newEngine(t, nil)
	ctx := context.Background()

	promo := testutil.MustCreatePromotion(t, h.conn, enums.DiscountTypePercentage, "50")
	require.NoError(t, h.conn.Model(promo).UpdateColumn("is_active", false).Error)

	product := testutil.MustCreateProduct(t, h.conn, func(p *models.Product) {
		p.SellingPrice = testutil.Dec(t, "20.00")
		p.StockQuantity = 10
		p.PromotionID = &promo.ID
	})

	receipt, err := h.svc.Execute(ctx, CheckoutInput{
		Items:         []CartItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: "Cash",
		EmployeeID:    h.employee(t),
	})
	require.NoError(t, err)
	assert.True(t, receipt.ProductDiscount.IsZero())
	assert.True(t, receipt.TotalAmount.Equal(testutil.Dec(t, "20.00")))
}
