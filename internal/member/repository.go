package member

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"fitcore/internal/apperr"
)

var ErrMemberNotFound = errors.New("member not found")

const memberColumns = `id, name, email, password_hash, role, stripe_customer_id, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, name, email, passwordHash, role string) (*Member, error) {
	query := `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + memberColumns

	var m Member
	err := r.db.GetContext(ctx, &m, query, name, email, passwordHash, role)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Member, error) {
	var m Member
	err := r.db.GetContext(ctx, &m,
		`SELECT `+memberColumns+` FROM users WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Wrap(apperr.KindNotFound, ErrMemberNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*Member, error) {
	var m Member
	err := r.db.GetContext(ctx, &m,
		`SELECT `+memberColumns+` FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Wrap(apperr.KindNotFound, ErrMemberNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
	return exists, err
}

func (r *repository) CustomerRef(ctx context.Context, userID int) (*string, error) {
	var ref *string
	err := r.db.GetContext(ctx, &ref,
		`SELECT stripe_customer_id FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Wrap(apperr.KindNotFound, ErrMemberNotFound)
	}
	if err != nil {
		return nil, err
	}
	return ref, nil
}

func (r *repository) SetCustomerRef(ctx context.Context, userID int, customerID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET stripe_customer_id = $1 WHERE id = $2`, customerID, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.Wrap(apperr.KindNotFound, ErrMemberNotFound)
	}
	return nil
}

func (r *repository) ListOpenSubscriptionRefs(ctx context.Context, userID int) ([]string, error) {
	refs := []string{}
	err := r.db.SelectContext(ctx, &refs, `
		SELECT stripe_subscription_id
		FROM memberships
		WHERE user_id = $1
		  AND status IN ('active', 'pending_activation')
		  AND stripe_subscription_id IS NOT NULL
	`, userID)
	return refs, err
}

func (r *repository) DeleteCascade(ctx context.Context, userID int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM credit_adjustments
		 WHERE membership_id IN (SELECT id FROM memberships WHERE user_id = $1)`,
		`DELETE FROM bookings WHERE user_id = $1`,
		`DELETE FROM memberships WHERE user_id = $1`,
		`DELETE FROM user_roles WHERE user_id = $1`,
		`DELETE FROM member_stats WHERE user_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
			return err
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.Wrap(apperr.KindNotFound, ErrMemberNotFound)
	}

	return tx.Commit()
}
