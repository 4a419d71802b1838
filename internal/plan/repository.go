package plan

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"fitcore/internal/apperr"
)

var ErrPlanNotFound = errors.New("plan not found")

const planColumns = `id, name, rule_family, booking_type, limit_count, limit_period, credit_amount,
	price_cents, currency, payment_frequency, cancellation_allowed,
	stripe_product_id, stripe_price_id, synced_price_cents, is_active, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Plan) (*Plan, error) {
	query := `
		INSERT INTO membership_plans
			(name, rule_family, booking_type, limit_count, limit_period, credit_amount,
			 price_cents, currency, payment_frequency, cancellation_allowed, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + planColumns

	var created Plan
	err := r.db.GetContext(ctx, &created, query,
		p.Name, p.RuleFamily, p.BookingType, p.LimitCount, p.LimitPeriod, p.CreditAmount,
		p.PriceCents, p.Currency, p.PaymentFrequency, p.CancellationAllowed, p.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Plan, error) {
	query := `SELECT ` + planColumns + ` FROM membership_plans WHERE id = $1`

	var p Plan
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Wrap(apperr.KindNotFound, ErrPlanNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context, onlyActive bool) ([]Plan, error) {
	query := `SELECT ` + planColumns + ` FROM membership_plans`
	if onlyActive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY id`

	plans := []Plan{}
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, err
	}
	return plans, nil
}

// Update changes name, pricing and flags. The booking-rule family is
// deliberately not updatable: changing the policy family of a plan with live
// members requires a new plan and an explicit migration.
func (r *repository) Update(ctx context.Context, p *Plan) (*Plan, error) {
	query := `
		UPDATE membership_plans
		SET name = $1,
		    limit_count = $2,
		    limit_period = $3,
		    credit_amount = $4,
		    price_cents = $5,
		    currency = $6,
		    cancellation_allowed = $7,
		    is_active = $8,
		    updated_at = NOW()
		WHERE id = $9
		RETURNING ` + planColumns

	var updated Plan
	err := r.db.GetContext(ctx, &updated, query,
		p.Name, p.LimitCount, p.LimitPeriod, p.CreditAmount,
		p.PriceCents, p.Currency, p.CancellationAllowed, p.IsActive, p.ID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Wrap(apperr.KindNotFound, ErrPlanNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *repository) SetProviderRefs(ctx context.Context, id int, productID, priceID *string, syncedPriceCents *int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE membership_plans
		SET stripe_product_id = COALESCE($1, stripe_product_id),
		    stripe_price_id = COALESCE($2, stripe_price_id),
		    synced_price_cents = COALESCE($3, synced_price_cents),
		    updated_at = NOW()
		WHERE id = $4
	`, productID, priceID, syncedPriceCents, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.Wrap(apperr.KindNotFound, ErrPlanNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM membership_plans WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.Wrap(apperr.KindNotFound, ErrPlanNotFound)
	}
	return nil
}
