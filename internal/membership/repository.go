package membership

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"fitcore/internal/apperr"
	"fitcore/internal/plan"
)

var (
	ErrMembershipNotFound  = errors.New("membership not found")
	ErrNoActiveMembership  = errors.New("no active membership")
	ErrAlreadyHasOpen      = errors.New("user already has an active or pending membership")
	ErrAlreadyCancelled    = errors.New("membership already cancelled")
	ErrCancellationPending = errors.New("cancellation already requested")
	ErrNotCancellable      = errors.New("plan does not allow cancellation")
)

const membershipColumns = `id, user_id, plan_id, status, start_date, end_date,
	stripe_customer_id, stripe_subscription_id, remaining_credits,
	cancellation_requested_at, cancel_reason, upgraded_from, last_credit_update,
	created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, params CreateParams) (*Membership, error) {
	query := `
		INSERT INTO memberships
			(user_id, plan_id, status, start_date, remaining_credits,
			 stripe_customer_id, stripe_subscription_id, upgraded_from)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + membershipColumns

	var m Membership
	err := r.db.GetContext(ctx, &m, query,
		params.UserID, params.PlanID, params.Status, params.StartDate,
		params.InitialCredits, params.CustomerID, params.SubscriptionID, params.UpgradedFrom,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE id = $1`

	var m Membership
	err := r.db.GetContext(ctx, &m, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Wrap(apperr.KindNotFound, ErrMembershipNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetActiveByUser relies on the lifecycle invariant of at most one active
// membership per user; the newest wins if data predating the invariant
// violates it.
func (r *repository) GetActiveByUser(ctx context.Context, userID int) (*Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1
	`

	var m Membership
	err := r.db.GetContext(ctx, &m, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Wrap(apperr.KindNotFound, ErrNoActiveMembership)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) HasOpenMembership(ctx context.Context, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM memberships
			WHERE user_id = $1 AND status IN ('active', 'pending_activation')
		)
	`, userID)
	return exists, err
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]Membership, error) {
	memberships := []Membership{}
	err := r.db.SelectContext(ctx, &memberships, `
		SELECT `+membershipColumns+`
		FROM memberships
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	return memberships, err
}

func (r *repository) GetBySubscriptionRef(ctx context.Context, subscriptionID string) (*Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE stripe_subscription_id = $1`

	var m Membership
	err := r.db.GetContext(ctx, &m, query, subscriptionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Wrap(apperr.KindNotFound, ErrMembershipNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) GetPendingByCustomerRef(ctx context.Context, customerID string) (*Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE stripe_customer_id = $1 AND status = 'pending_activation'
		ORDER BY created_at DESC
		LIMIT 1
	`

	var m Membership
	err := r.db.GetContext(ctx, &m, query, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Wrap(apperr.KindNotFound, ErrMembershipNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) ListPendingDue(ctx context.Context, now time.Time) ([]Membership, error) {
	memberships := []Membership{}
	err := r.db.SelectContext(ctx, &memberships, `
		SELECT `+membershipColumns+`
		FROM memberships
		WHERE status = 'pending_activation' AND start_date <= $1
		ORDER BY start_date
	`, now)
	return memberships, err
}

func (r *repository) Transition(ctx context.Context, id int, from []Status, to Status, reason string) (bool, error) {
	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}

	query := `
		UPDATE memberships
		SET status = $1,
		    cancel_reason = CASE WHEN $1 = 'cancelled' THEN $2 ELSE cancel_reason END,
		    end_date = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE end_date END,
		    updated_at = NOW()
		WHERE id = $3 AND status = ANY($4)
	`

	result, err := r.db.ExecContext(ctx, query, to, reason, id, pq.Array(fromStrs))
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *repository) MarkCancellationRequested(ctx context.Context, id int, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE memberships
		SET cancellation_requested_at = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'active' AND cancellation_requested_at IS NULL
	`, at, id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *repository) SetProviderRefs(ctx context.Context, id int, customerID, subscriptionID *string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE memberships
		SET stripe_customer_id = COALESCE($1, stripe_customer_id),
		    stripe_subscription_id = COALESCE($2, stripe_subscription_id),
		    updated_at = NOW()
		WHERE id = $3
	`, customerID, subscriptionID, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.Wrap(apperr.KindNotFound, ErrMembershipNotFound)
	}
	return nil
}

func (r *repository) ListCancellable(ctx context.Context, planID int) ([]plan.SubscriptionRef, error) {
	rows := []struct {
		ID             int     `db:"id"`
		SubscriptionID *string `db:"stripe_subscription_id"`
	}{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, stripe_subscription_id
		FROM memberships
		WHERE plan_id = $1 AND status IN ('active', 'pending_activation')
	`, planID)
	if err != nil {
		return nil, err
	}

	refs := make([]plan.SubscriptionRef, 0, len(rows))
	for _, row := range rows {
		ref := plan.SubscriptionRef{MembershipID: row.ID}
		if row.SubscriptionID != nil {
			ref.SubscriptionID = *row.SubscriptionID
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (r *repository) CancelAllForPlan(ctx context.Context, planID int, reason string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE memberships
		SET status = 'cancelled', cancel_reason = $1, end_date = NOW(), updated_at = NOW()
		WHERE plan_id = $2 AND status IN ('active', 'pending_activation')
	`, reason, planID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
