package entitlement

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// UsageCounter reports how many bookings a user has consumed in a window.
type UsageCounter interface {
	CountBookings(ctx context.Context, userID int, kind ResourceKind, from, to time.Time) (int, error)
}

type usageRepository struct {
	db *sqlx.DB
}

func NewUsageRepository(db *sqlx.DB) UsageCounter {
	return &usageRepository{db: db}
}

// CountBookings counts non-cancelled bookings by start time. Cancelled
// bookings release their slot back into the window.
func (r *usageRepository) CountBookings(ctx context.Context, userID int, kind ResourceKind, from, to time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM bookings
		WHERE user_id = $1
		  AND resource_kind = $2
		  AND starts_at >= $3 AND starts_at < $4
		  AND status != 'cancelled'
	`, userID, kind, from, to)
	return count, err
}
