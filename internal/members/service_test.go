package members

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
	testutil.SeedTiers(t, conn)
	client := db.NewWithConn(conn)
	svc, err := NewService(NewRepository(conn), client)
	require.NoError(t, err)
	return svc, client
}

func TestRegisterMember(t *testing.T) {
	svc, _ := newTestService(t)

	member, err := svc.RegisterMember(context.Background(), RegisterMemberInput{
		Name:  "Somchai J.",
		Phone: "0812345678",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, member.ID)
	assert.Equal(t, "Bronze", member.MembershipRank)
	assert.True(t, member.DiscountRate.Equal(testutil.Dec(t, "3.00")))
	assert.True(t, member.TotalSpent.IsZero())
	assert.Equal(t, 0, member.PointsBalance)
}

func TestRegisterMemberValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input RegisterMemberInput
	}{
		{"name too short", RegisterMemberInput{Name: "A", Phone: "0812345678"}},
		{"phone too short", RegisterMemberInput{Name: "Somchai", Phone: "081234"}},
		{"phone too long", RegisterMemberInput{Name: "Somchai", Phone: "08123456789"}},
		{"phone non-numeric", RegisterMemberInput{Name: "Somchai", Phone: "08123456ab"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RegisterMember(ctx, tc.input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestRegisterMemberDuplicatePhone(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RegisterMember(ctx, RegisterMemberInput{Name: "First", Phone: "0899999999"})
	require.NoError(t, err)

	_, err = svc.RegisterMember(ctx, RegisterMemberInput{Name: "Second", Phone: "0899999999"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestGetMemberByIDOrPhone(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.RegisterMember(ctx, RegisterMemberInput{Name: "Somchai", Phone: "0811111111"})
	require.NoError(t, err)

	byID, err := svc.GetMember(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, byID.ID)

	byPhone, err := svc.GetMember(ctx, "0811111111")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byPhone.ID)

	_, err = svc.GetMember(ctx, "0800000000")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateMemberPatch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.RegisterMember(ctx, RegisterMemberInput{Name: "Somchai", Phone: "0822222222"})
	require.NoError(t, err)

	newName := "Somchai Jaidee"
	updated, err := svc.UpdateMember(ctx, created.ID, UpdateMemberInput{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Name)
	assert.Equal(t, created.Phone, updated.Phone)

	taken, err := svc.RegisterMember(ctx, RegisterMemberInput{Name: "Other", Phone: "0833333333"})
	require.NoError(t, err)

	_, err = svc.UpdateMember(ctx, created.ID, UpdateMemberInput{Phone: &taken.Phone})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestApplyAccrual(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	repo := NewRepository(client.DB())

	created, err := svc.RegisterMember(ctx, RegisterMemberInput{Name: "Somchai", Phone: "0844444444"})
	require.NoError(t, err)

	err = repo.ApplyAccrual(ctx, created.ID, AccrualUpdate{
		PointsDelta: 5200,
		SpendDelta:  testutil.Dec(t, "5200.00"),
	})
	require.NoError(t, err)
	require.NoError(t, repo.PromoteTier(ctx, created.ID, "Silver", testutil.Dec(t, "5.00")))

	reloaded, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 5200, reloaded.PointsBalance)
	assert.True(t, reloaded.TotalSpent.Equal(testutil.Dec(t, "5200.00")))
	assert.Equal(t, "Silver", reloaded.MembershipRank)
	assert.True(t, reloaded.DiscountRate.Equal(testutil.Dec(t, "5.00")))
}

func TestPromoteTierUnknownMember(t *testing.T) {
	_, client := newTestService(t)
	repo := NewRepository(client.DB())

	err := repo.PromoteTier(context.Background(), uuid.New(), "Silver", testutil.Dec(t, "5.00"))
	assert.Error(t, err)
}

func TestApplyAccrualUnknownMember(t *testing.T) {
	_, client := newTestService(t)
	repo := NewRepository(client.DB())

	err := repo.ApplyAccrual(context.Background(), uuid.New(), AccrualUpdate{PointsDelta: 1})
	assert.Error(t, err)
}

func TestMemberSummaryRollingYear(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	member := testutil.MustCreateMember(t, client.DB(), func(m *models.Member) {
		m.MembershipRank = "Gold"
		m.DiscountRate = testutil.Dec(t, "10.00")
		m.TotalSpent = testutil.Dec(t, "20000.00")
	})
	employee := testutil.MustCreateUser(t, client.DB(), enums.UserRoleCashier)

	mk := func(total string, daysAgo int) {
		tx := &models.Transaction{
			ID:                 uuid.New(),
			TransactionDate:    time.Now().AddDate(0, 0, -daysAgo),
			EmployeeID:         employee.ID,
			MemberID:           &member.ID,
			Subtotal:           testutil.Dec(t, total),
			ProductDiscount:    testutil.Dec(t, "0"),
			MembershipDiscount: testutil.Dec(t, "0"),
			TotalAmount:        testutil.Dec(t, total),
			PaymentMethod:      "Cash",
		}
		require.NoError(t, client.DB().Create(tx).Error)
	}
	mk("4000.00", 10)
	mk("2000.00", 100)
	mk("9000.00", 400) // outside the trailing year

	summary, err := svc.MemberSummary(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, summary.RollingYearSpend.Equal(testutil.Dec(t, "6000.00")),
		"rolling spend = %s", summary.RollingYearSpend)
	assert.Equal(t, int64(2), summary.RollingYearVisits)

	// 6000.00 falls in Silver's min/max window even though the held
	// rank is Gold; the held rank must not change.
	require.NotNil(t, summary.RollingBracket)
	assert.Equal(t, "Silver", *summary.RollingBracket)
	assert.Equal(t, "Gold", summary.Member.MembershipRank)
}

func TestMemberSummaryNoHistory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.RegisterMember(ctx, RegisterMemberInput{Name: "Quiet", Phone: "0855555555"})
	require.NoError(t, err)

	summary, err := svc.MemberSummary(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, summary.RollingYearSpend.IsZero())
	assert.Equal(t, int64(0), summary.RollingYearVisits)
	require.NotNil(t, summary.RollingBracket)
	assert.Equal(t, "Bronze", *summary.RollingBracket)
}

func TestDeleteMember(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.RegisterMember(ctx, RegisterMemberInput{Name: "Somchai", Phone: "0866666666"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMember(ctx, created.ID))

	err = svc.DeleteMember(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
