package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitcore/internal/credit"
	"fitcore/internal/db"
	"fitcore/internal/entitlement"
	"fitcore/internal/logger"
	"fitcore/internal/member"
	"fitcore/internal/membership"
	"fitcore/internal/plan"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

func setupDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	database, err := db.Connect(dsn)
	if err != nil {
		t.Skipf("database unreachable: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database, "../migrations"))
	return database
}

func createMember(t *testing.T, database *sqlx.DB) *member.Member {
	t.Helper()
	repo := member.NewRepository(database)
	email := fmt.Sprintf("it-%d@example.com", time.Now().UnixNano())
	m, err := repo.Create(context.Background(), "Integration Tester", email, "hash", "member")
	require.NoError(t, err)
	return m
}

func createCreditPlan(t *testing.T, database *sqlx.DB, creditAmount int) *plan.Plan {
	t.Helper()
	repo := plan.NewRepository(database)
	family := string(plan.RuleCredits)
	p, err := repo.Create(context.Background(), &plan.Plan{
		Name:                fmt.Sprintf("Credit Pack %d", time.Now().UnixNano()),
		RuleFamily:          &family,
		CreditAmount:        &creditAmount,
		PriceCents:          9900,
		Currency:            "EUR",
		PaymentFrequency:    plan.PayOneTime,
		CancellationAllowed: true,
		IsActive:            true,
	})
	require.NoError(t, err)
	return p
}

func TestCreditLedger_ClampAndStrictDebit(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	m := createMember(t, database)
	p := createCreditPlan(t, database, 10)

	membershipRepo := membership.NewRepository(database)
	ms, err := membershipRepo.Create(ctx, membership.CreateParams{
		UserID:         m.ID,
		PlanID:         p.ID,
		Status:         membership.StatusActive,
		StartDate:      time.Now(),
		InitialCredits: 30,
	})
	require.NoError(t, err)

	ledger := credit.NewRepository(database)

	// clamped administrative subtraction
	result, err := ledger.Apply(ctx, ms.ID, credit.ModeSubtract, 100, false, "it-admin", credit.ReasonAdminAdjust)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Balance)
	assert.True(t, result.Clamped)
	assert.Equal(t, -30, result.Adjustment.Delta)

	// strict debit on an empty balance fails and leaves no audit row behind
	_, err = ledger.Apply(ctx, ms.ID, credit.ModeSubtract, 1, true, "system", credit.ReasonBooking)
	require.ErrorIs(t, err, credit.ErrInsufficientCredits)

	history, err := ledger.History(ctx, ms.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 30, history[0].PreviousBalance)
	assert.Equal(t, 0, history[0].NewBalance)

	// the stored balance matches the last audit row
	fresh, err := membershipRepo.GetByID(ctx, ms.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.RemainingCredits)
}

func TestLifecycle_ConditionalTransitionIdempotent(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	m := createMember(t, database)
	p := createCreditPlan(t, database, 5)

	membershipRepo := membership.NewRepository(database)
	ms, err := membershipRepo.Create(ctx, membership.CreateParams{
		UserID:         m.ID,
		PlanID:         p.ID,
		Status:         membership.StatusPendingActivation,
		StartDate:      time.Now(),
		InitialCredits: 5,
	})
	require.NoError(t, err)

	ok, err := membershipRepo.Transition(ctx, ms.ID,
		[]membership.Status{membership.StatusPendingActivation}, membership.StatusActive, "payment_confirmed")
	require.NoError(t, err)
	assert.True(t, ok)

	// replayed event matches nothing
	ok, err = membershipRepo.Transition(ctx, ms.ID,
		[]membership.Status{membership.StatusPendingActivation}, membership.StatusActive, "payment_confirmed")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = membershipRepo.Transition(ctx, ms.ID,
		[]membership.Status{membership.StatusActive, membership.StatusPendingActivation},
		membership.StatusCancelled, membership.ReasonAdmin)
	require.NoError(t, err)
	assert.True(t, ok)

	fresh, err := membershipRepo.GetByID(ctx, ms.ID)
	require.NoError(t, err)
	assert.Equal(t, membership.StatusCancelled, fresh.Status)
	require.NotNil(t, fresh.CancelReason)
	assert.Equal(t, membership.ReasonAdmin, *fresh.CancelReason)
	assert.NotNil(t, fresh.EndDate)
}

func TestLifecycle_OneOpenMembershipPerUser(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	m := createMember(t, database)
	p := createCreditPlan(t, database, 5)

	membershipRepo := membership.NewRepository(database)
	_, err := membershipRepo.Create(ctx, membership.CreateParams{
		UserID:    m.ID,
		PlanID:    p.ID,
		Status:    membership.StatusActive,
		StartDate: time.Now(),
	})
	require.NoError(t, err)

	hasOpen, err := membershipRepo.HasOpenMembership(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, hasOpen)
}

func TestEntitlement_UsageCountedPerWindow(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	m := createMember(t, database)

	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// two bookings this week, one the week after
	thisWeek := time.Date(2026, 3, 4, 18, 0, 0, 0, loc)
	nextWeek := thisWeek.AddDate(0, 0, 7)
	for _, at := range []time.Time{thisWeek, thisWeek.Add(2 * time.Hour), nextWeek} {
		_, err := database.ExecContext(ctx,
			`INSERT INTO bookings (user_id, resource_kind, starts_at, status) VALUES ($1, 'class', $2, 'booked')`,
			m.ID, at)
		require.NoError(t, err)
	}
	// cancelled bookings release their slot
	_, err = database.ExecContext(ctx,
		`INSERT INTO bookings (user_id, resource_kind, starts_at, status) VALUES ($1, 'class', $2, 'cancelled')`,
		m.ID, thisWeek.Add(time.Hour))
	require.NoError(t, err)

	usage := entitlement.NewUsageRepository(database)
	from, to := entitlement.UsageWindow(plan.PeriodWeek, thisWeek, loc)

	count, err := usage.CountBookings(ctx, m.ID, entitlement.ResourceClass, from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
