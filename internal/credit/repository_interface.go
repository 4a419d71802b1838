package credit

import "context"

type Repository interface {
	// Apply locks the membership row, applies the adjustment and writes the
	// audit entry in one transaction. With strict set, a balance that would
	// go negative fails with ErrInsufficientCredits; otherwise it is clamped
	// to zero.
	Apply(ctx context.Context, membershipID int, mode Mode, amount int, strict bool, actor, reason string) (*AdjustResult, error)
	History(ctx context.Context, membershipID int, limit, offset int) ([]Adjustment, error)
}
