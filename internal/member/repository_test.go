package member

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

func setupMemberMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewRepository(sqlxDB), mock
}

func TestRepository_FindByEmail_NotFound(t *testing.T) {
	repo, mock := setupMemberMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "password_hash", "role", "stripe_customer_id", "created_at",
		}))

	_, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMemberNotFound)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRepository_CustomerRef_NullWhenNeverSynced(t *testing.T) {
	repo, mock := setupMemberMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT stripe_customer_id FROM users WHERE id = $1`)).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"stripe_customer_id"}).AddRow(nil))

	ref, err := repo.CustomerRef(context.Background(), 4)
	require.NoError(t, err)
	assert.Nil(t, ref)
}

func TestRepository_DeleteCascade_RemovesDependentsFirst(t *testing.T) {
	repo, mock := setupMemberMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM credit_adjustments`)).
		WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM bookings`)).
		WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM memberships`)).
		WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_roles`)).
		WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM member_stats`)).
		WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.DeleteCascade(context.Background(), 5)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeleteCascade_UnknownUserRollsBack(t *testing.T) {
	repo, mock := setupMemberMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM credit_adjustments`)).
		WithArgs(99).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM bookings`)).
		WithArgs(99).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM memberships`)).
		WithArgs(99).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_roles`)).
		WithArgs(99).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM member_stats`)).
		WithArgs(99).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs(99).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteCascade(context.Background(), 99)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestRepository_Create(t *testing.T) {
	repo, mock := setupMemberMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("Anna", "anna@example.com", "hashed", "member").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "password_hash", "role", "stripe_customer_id", "created_at",
		}).AddRow(1, "Anna", "anna@example.com", "hashed", "member", nil, now))

	m, err := repo.Create(context.Background(), "Anna", "anna@example.com", "hashed", "member")
	require.NoError(t, err)
	assert.Equal(t, 1, m.ID)
	assert.Equal(t, "member", m.Role)
}
