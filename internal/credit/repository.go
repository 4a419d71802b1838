package credit

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"fitcore/internal/apperr"
	"fitcore/internal/plan"
)

var (
	ErrMembershipNotFound  = errors.New("membership not found")
	ErrMembershipCancelled = errors.New("membership is cancelled")
	ErrNotCreditBased      = errors.New("membership plan is not credit-based")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// lockedMembership is the row snapshot taken under FOR UPDATE before the
// balance is recomputed.
type lockedMembership struct {
	ID               int     `db:"id"`
	UserID           int     `db:"user_id"`
	Status           string  `db:"status"`
	RemainingCredits int     `db:"remaining_credits"`
	RuleFamily       *string `db:"rule_family"`
	BookingType      *string `db:"booking_type"`
}

func (r *repository) Apply(ctx context.Context, membershipID int, mode Mode, amount int, strict bool, actor, reason string) (*AdjustResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var m lockedMembership
	err = tx.QueryRowxContext(ctx,
		`SELECT m.id, m.user_id, m.status, m.remaining_credits,
		        p.rule_family, p.booking_type
		 FROM memberships m
		 JOIN membership_plans p ON p.id = m.plan_id
		 WHERE m.id = $1
		 FOR UPDATE OF m`,
		membershipID,
	).StructScan(&m)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Wrap(apperr.KindNotFound, ErrMembershipNotFound)
	}
	if err != nil {
		return nil, err
	}

	if m.Status == "cancelled" {
		return nil, apperr.Wrap(apperr.KindConflict, ErrMembershipCancelled)
	}
	if !creditBased(m.RuleFamily, m.BookingType) {
		return nil, apperr.Wrap(apperr.KindPolicyMismatch, ErrNotCreditBased)
	}

	newBalance := m.RemainingCredits
	switch mode {
	case ModeAdd:
		newBalance += amount
	case ModeSubtract:
		newBalance -= amount
	case ModeSet:
		newBalance = amount
	default:
		return nil, apperr.Validationf("unknown adjustment mode %q", mode)
	}

	clamped := false
	if newBalance < 0 {
		if strict {
			return nil, apperr.Wrap(apperr.KindConflict, ErrInsufficientCredits)
		}
		newBalance = 0
		clamped = true
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE memberships
		 SET remaining_credits = $1, last_credit_update = NOW(), updated_at = NOW()
		 WHERE id = $2`,
		newBalance, m.ID,
	)
	if err != nil {
		return nil, err
	}

	var adj Adjustment
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO credit_adjustments
			(membership_id, delta, previous_balance, new_balance, actor, reason)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, membership_id, delta, previous_balance, new_balance, actor, reason, created_at`,
		m.ID, newBalance-m.RemainingCredits, m.RemainingCredits, newBalance, actor, reason,
	).StructScan(&adj)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &AdjustResult{
		Adjustment: adj,
		UserID:     m.UserID,
		Balance:    newBalance,
		Clamped:    clamped,
	}, nil
}

func (r *repository) History(ctx context.Context, membershipID int, limit, offset int) ([]Adjustment, error) {
	if limit <= 0 {
		limit = 50
	}

	adjustments := []Adjustment{}
	err := r.db.SelectContext(ctx, &adjustments,
		`SELECT id, membership_id, delta, previous_balance, new_balance, actor, reason, created_at
		 FROM credit_adjustments
		 WHERE membership_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		membershipID, limit, offset,
	)
	return adjustments, err
}

func creditBased(ruleFamily, bookingType *string) bool {
	if ruleFamily != nil && *ruleFamily != "" {
		return plan.RuleFamily(*ruleFamily) == plan.RuleCredits
	}
	if bookingType != nil {
		family, ok := plan.LegacyRuleFamily(*bookingType)
		return ok && family == plan.RuleCredits
	}
	return false
}
