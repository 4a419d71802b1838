package membership

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitcore/internal/apperr"
)

func setupMembershipMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewRepository(sqlxDB), mock
}

func membershipRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "plan_id", "status", "start_date", "end_date",
		"stripe_customer_id", "stripe_subscription_id", "remaining_credits",
		"cancellation_requested_at", "cancel_reason", "upgraded_from", "last_credit_update",
		"created_at", "updated_at",
	})
}

func TestRepository_GetActiveByUser_None(t *testing.T) {
	repo, mock := setupMembershipMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM memberships`)).
		WithArgs(5).
		WillReturnRows(membershipRows())

	_, err := repo.GetActiveByUser(context.Background(), 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoActiveMembership)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetBySubscriptionRef(t *testing.T) {
	repo, mock := setupMembershipMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE stripe_subscription_id = $1`)).
		WithArgs("sub_42").
		WillReturnRows(membershipRows().AddRow(
			42, 5, 20, "active", now, nil,
			"cus_5", "sub_42", 0,
			nil, nil, nil, nil,
			now, now,
		))

	m, err := repo.GetBySubscriptionRef(context.Background(), "sub_42")
	require.NoError(t, err)
	assert.Equal(t, 42, m.ID)
	assert.Equal(t, StatusActive, m.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetPendingByCustomerRef_NewestPendingWins(t *testing.T) {
	repo, mock := setupMembershipMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE stripe_customer_id = $1 AND status = 'pending_activation'`)).
		WithArgs("cus_5").
		WillReturnRows(membershipRows().AddRow(
			80, 5, 20, "pending_activation", now, nil,
			"cus_5", nil, 0,
			nil, nil, nil, nil,
			now, now,
		))

	m, err := repo.GetPendingByCustomerRef(context.Background(), "cus_5")
	require.NoError(t, err)
	assert.Equal(t, 80, m.ID)
	assert.Nil(t, m.StripeSubscriptionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetPendingByCustomerRef_None(t *testing.T) {
	repo, mock := setupMembershipMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`status = 'pending_activation'`)).
		WithArgs("cus_none").
		WillReturnRows(membershipRows())

	_, err := repo.GetPendingByCustomerRef(context.Background(), "cus_none")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMembershipNotFound)
}

func TestRepository_Transition_MatchesExpectedStatus(t *testing.T) {
	repo, mock := setupMembershipMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE memberships`)).
		WithArgs("cancelled", "admin", 9, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Transition(context.Background(), 9,
		[]Status{StatusActive, StatusPendingActivation}, StatusCancelled, "admin")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Transition_NoMatchReportsFalse(t *testing.T) {
	repo, mock := setupMembershipMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE memberships`)).
		WithArgs("cancelled", "provider_cancelled", 9, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Transition(context.Background(), 9,
		[]Status{StatusActive, StatusPendingActivation}, StatusCancelled, ReasonProviderCancelled)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_MarkCancellationRequested_OnlyOnce(t *testing.T) {
	repo, mock := setupMembershipMock(t)
	at := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`cancellation_requested_at IS NULL`)).
		WithArgs(at, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`cancellation_requested_at IS NULL`)).
		WithArgs(at, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.MarkCancellationRequested(context.Background(), 3, at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkCancellationRequested(context.Background(), 3, at)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CancelAllForPlan(t *testing.T) {
	repo, mock := setupMembershipMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE memberships`)).
		WithArgs("plan_deleted", 20).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.CancelAllForPlan(context.Background(), 20, ReasonPlanDeleted)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SetProviderRefs_NotFound(t *testing.T) {
	repo, mock := setupMembershipMock(t)
	sub := "sub_new"

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE memberships`)).
		WithArgs(nil, &sub, 999).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetProviderRefs(context.Background(), 999, nil, &sub)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMembershipNotFound)
}
