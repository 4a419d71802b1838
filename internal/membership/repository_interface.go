package membership

import (
	"context"
	"time"

	"fitcore/internal/plan"
)

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Membership, error)
	GetByID(ctx context.Context, id int) (*Membership, error)
	GetActiveByUser(ctx context.Context, userID int) (*Membership, error)
	HasOpenMembership(ctx context.Context, userID int) (bool, error)
	ListByUser(ctx context.Context, userID int) ([]Membership, error)
	GetBySubscriptionRef(ctx context.Context, subscriptionID string) (*Membership, error)

	// GetPendingByCustomerRef finds the customer's newest pending
	// membership. The first invoice of a subscription arrives before the
	// subscription id is known locally; this is how the two get matched.
	GetPendingByCustomerRef(ctx context.Context, customerID string) (*Membership, error)
	ListPendingDue(ctx context.Context, now time.Time) ([]Membership, error)

	// Transition conditionally moves a membership between statuses. It
	// reports false without error when the row was not in any of the
	// expected statuses, which is how replayed provider events become
	// no-ops.
	Transition(ctx context.Context, id int, from []Status, to Status, reason string) (bool, error)
	MarkCancellationRequested(ctx context.Context, id int, at time.Time) (bool, error)
	SetProviderRefs(ctx context.Context, id int, customerID, subscriptionID *string) error

	// plan.MembershipCanceller, consumed by the plan-deletion cascade.
	ListCancellable(ctx context.Context, planID int) ([]plan.SubscriptionRef, error)
	CancelAllForPlan(ctx context.Context, planID int, reason string) (int64, error)
}
