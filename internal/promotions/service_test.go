package promotions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napatsakorn/minimart-backend/internal/testutil"
	"github.com/napatsakorn/minimart-backend/pkg/db"
	"github.com/napatsakorn/minimart-backend/pkg/db/models"
	"github.com/napatsakorn/minimart-backend/pkg/enums"
	pkgerrors "github.com/napatsakorn/minimart-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	conn := testutil.OpenDB(t)
	client := db.NewWithConn(conn)
	svc, err := NewService(NewRepository(conn), client)
	require.NoError(t, err)
	return svc, client
}

func validInput(t *testing.T) CreatePromotionInput {
	return CreatePromotionInput{
		Name:          "Summer Sale",
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: testutil.Dec(t, "20"),
		StartDate:     time.Now().AddDate(0, 0, -1),
		EndDate:       time.Now().AddDate(0, 0, 14),
		IsActive:      true,
	}
}

func TestCreatePromotion(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.CreatePromotion(context.Background(), validInput(t))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.True(t, created.ActiveOn(time.Now()))
}

func TestCreatePromotionValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreatePromotionInput)
	}{
		{"blank name", func(in *CreatePromotionInput) { in.Name = "  " }},
		{"bad type", func(in *CreatePromotionInput) { in.DiscountType = "BOGOF" }},
		{"zero value", func(in *CreatePromotionInput) { in.DiscountValue = testutil.Dec(t, "0") }},
		{"percentage over 100", func(in *CreatePromotionInput) { in.DiscountValue = testutil.Dec(t, "150") }},
		{"window inverted", func(in *CreatePromotionInput) { in.EndDate = in.StartDate.AddDate(0, 0, -5) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput(t)
			tc.mutate(&input)
			_, err := svc.CreatePromotion(ctx, input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestFixedPromotionMayExceedHundred(t *testing.T) {
	svc, _ := newTestService(t)

	input := validInput(t)
	input.DiscountType = enums.DiscountTypeFixed
	input.DiscountValue = testutil.Dec(t, "150.00")
	_, err := svc.CreatePromotion(context.Background(), input)
	require.NoError(t, err)
}

func TestCreatePromotionDisabledStaysDisabled(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	input := validInput(t)
	input.Name = "Paused"
	input.IsActive = false
	created, err := svc.CreatePromotion(ctx, input)
	require.NoError(t, err)

	// Reload from the database: the stored row must carry the explicit
	// false, not the column default.
	reloaded, err := svc.GetPromotion(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)
	assert.False(t, reloaded.ActiveOn(time.Now()))
}

func TestListPromotionsActiveOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePromotion(ctx, validInput(t))
	require.NoError(t, err)

	expired := validInput(t)
	expired.Name = "Last Year"
	expired.StartDate = time.Now().AddDate(-1, 0, 0)
	expired.EndDate = time.Now().AddDate(0, -6, 0)
	_, err = svc.CreatePromotion(ctx, expired)
	require.NoError(t, err)

	disabled := validInput(t)
	disabled.Name = "Paused"
	disabled.IsActive = false
	_, err = svc.CreatePromotion(ctx, disabled)
	require.NoError(t, err)

	active, err := svc.ListPromotions(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Summer Sale", active[0].Name)

	all, err := svc.ListPromotions(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdatePromotionPatch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreatePromotion(ctx, validInput(t))
	require.NoError(t, err)

	value := testutil.Dec(t, "35")
	inactive := false
	updated, err := svc.UpdatePromotion(ctx, created.ID, UpdatePromotionInput{
		DiscountValue: &value,
		IsActive:      &inactive,
	})
	require.NoError(t, err)
	assert.True(t, updated.DiscountValue.Equal(value))
	assert.False(t, updated.IsActive)
	assert.Equal(t, created.Name, updated.Name)
}

func TestUpdatePromotionRevalidates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreatePromotion(ctx, validInput(t))
	require.NoError(t, err)

	// Existing percentage promotion cannot be pushed past 100.
	value := testutil.Dec(t, "120")
	_, err = svc.UpdatePromotion(ctx, created.ID, UpdatePromotionInput{DiscountValue: &value})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDeletePromotionUnlinksProducts(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreatePromotion(ctx, validInput(t))
	require.NoError(t, err)

	product := testutil.MustCreateProduct(t, client.DB(), func(p *models.Product) {
		p.PromotionID = &created.ID
	})

	require.NoError(t, svc.DeletePromotion(ctx, created.ID))

	_, err = svc.GetPromotion(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	var reloaded models.Product
	require.NoError(t, client.DB().First(&reloaded, "id = ?", product.ID).Error)
	assert.Nil(t, reloaded.PromotionID)
}

func TestDeletePromotionUnknown(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.DeletePromotion(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
